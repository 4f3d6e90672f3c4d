package users

import (
	"github.com/floragems/floragems-backend/pkg/db/models"
)

// RegisterInput creates a local account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginInput authenticates a local account.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginInput carries the ID token minted by Google's sign-in widget.
type GoogleLoginInput struct {
	IDToken string `json:"id_token" validate:"required"`
}

// AdminLoginInput authenticates against the fixed back-office credentials.
type AdminLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput mutates profile fields. Nil pointers are left unchanged.
type UpdateProfileInput struct {
	Name      *string `json:"name" validate:"omitempty,max=120"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

// ChangePasswordInput rotates an authenticated user's password.
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// ResetPasswordInput trades an emailed temporary password for a new one.
type ResetPasswordInput struct {
	Email        string `json:"email" validate:"required,email"`
	TempPassword string `json:"temp_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8,max=128"`
}

// AuthResult is the token plus a client-safe view of the account.
type AuthResult struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// Profile is the client-safe projection of a user record.
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	AvatarURL    string `json:"avatar_url"`
	AuthProvider string `json:"auth_provider"`
	PasswordSet  bool   `json:"password_set"`
	Blocked      bool   `json:"blocked"`
}

// UserList is one page of accounts with an opaque continuation cursor.
type UserList struct {
	Users      []models.User `json:"users"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func profileOf(user *models.User) Profile {
	return Profile{
		ID:           user.ID.String(),
		Name:         user.Name,
		Email:        user.Email,
		Phone:        user.Phone,
		Address:      user.Address,
		AvatarURL:    user.AvatarURL,
		AuthProvider: user.AuthProvider.String(),
		PasswordSet:  user.PasswordSet,
		Blocked:      user.Blocked,
	}
}
