package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/auth"
	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/db/models"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/logger"
	"github.com/floragems/floragems-backend/pkg/mailer"
	"github.com/floragems/floragems-backend/pkg/pagination"
	"github.com/floragems/floragems-backend/pkg/security"
)

const tempPasswordLength = 12

// Service manages accounts: registration, the three login flows, profile
// upkeep, password recovery and the admin's user management surface.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	GoogleLogin(ctx context.Context, input GoogleLoginInput) (*AuthResult, error)
	AdminLogin(ctx context.Context, input AdminLoginInput) (*AuthResult, error)
	Profile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
	ListUsers(ctx context.Context, params pagination.Params) (*UserList, error)
	BlockUser(ctx context.Context, userID uuid.UUID, blocked bool) (*Profile, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	google   GoogleVerifier
	mail     mailer.Mailer
	jwt      config.JWTConfig
	admin    config.AdminConfig
	password config.PasswordConfig
	logg     *logger.Logger
}

// NewService wires the user service. The Google verifier and mailer are
// optional; the flows needing them fail with a dependency error when absent.
func NewService(
	repo Repository,
	google GoogleVerifier,
	mail mailer.Mailer,
	jwt config.JWTConfig,
	admin config.AdminConfig,
	password config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users.NewService: repo is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("users.NewService: logger is required")
	}
	return &service{
		repo:     repo,
		google:   google,
		mail:     mail,
		jwt:      jwt,
		admin:    admin,
		password: password,
		logg:     logg,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to check email")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		AuthProvider: enums.AuthProviderLocal,
		PasswordSet:  true,
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create user")
	}

	return s.issueToken(user, enums.RoleCustomer)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}
	if user.Blocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this account is blocked")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, invalidCredentials()
	}

	return s.issueToken(user, enums.RoleCustomer)
}

// GoogleLogin verifies the ID token and provisions an account on first
// sight. Provisioned accounts get a random password they never learn;
// password_set stays false until they choose one via change-password.
func (s *service) GoogleLogin(ctx context.Context, input GoogleLoginInput) (*AuthResult, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google login is not configured")
	}

	identity, err := s.google.Verify(ctx, input.IDToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google token")
	}

	email := normalizeEmail(identity.Email)
	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.provisionGoogleUser(ctx, identity, email)
		if err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	if user.Blocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this account is blocked")
	}
	return s.issueToken(user, enums.RoleCustomer)
}

func (s *service) provisionGoogleUser(ctx context.Context, identity *GoogleIdentity, email string) (*models.User, error) {
	random, err := security.GenerateTempPassword(32)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate placeholder password")
	}
	hash, err := security.HashPassword(random, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash placeholder password")
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = email
	}
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		AuthProvider: enums.AuthProviderGoogle,
		PasswordSet:  false,
		AvatarURL:    identity.AvatarURL,
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to provision user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "provisioned account from google login")
	return user, nil
}

// AdminLogin checks the fixed back-office credentials from the environment.
// The admin identity is synthetic; it has no user row.
func (s *service) AdminLogin(ctx context.Context, input AdminLoginInput) (*AuthResult, error) {
	if s.admin.Email == "" || s.admin.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin login is not configured")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(normalizeEmail(input.Email)), []byte(normalizeEmail(s.admin.Email))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(input.Password), []byte(s.admin.Password)) == 1
	if !emailOK || !passOK {
		return nil, invalidCredentials()
	}

	token, err := auth.MintAccessToken(s.jwt, time.Now(), auth.AccessTokenPayload{
		UserID: adminUserID(s.admin.Email),
		Role:   enums.RoleAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint token")
	}

	return &AuthResult{
		Token: token,
		User: Profile{
			ID:           adminUserID(s.admin.Email).String(),
			Name:         "Administrator",
			Email:        normalizeEmail(s.admin.Email),
			AuthProvider: enums.AuthProviderLocal.String(),
			PasswordSet:  true,
		},
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := profileOf(user)
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update profile")
		}
	}
	return s.Profile(ctx, userID)
}

// ChangePassword rotates the password. Google-provisioned accounts that
// never chose a password skip the old-password check on first set.
func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, input ChangePasswordInput) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(input.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	mustVerifyOld := !(user.AuthProvider == enums.AuthProviderGoogle && !user.PasswordSet)
	if mustVerifyOld {
		ok, err := security.VerifyPassword(input.OldPassword, user.PasswordHash)
		if err != nil || !ok {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
		}
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}
	updates := map[string]any{"password_hash": hash, "password_set": true}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store password")
	}
	return nil
}

// ForgotPassword emails a temporary password. It reports success even for
// unknown addresses so the endpoint cannot be used to probe the user base.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	if s.mail == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "password recovery mail is not configured")
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Info(ctx, "password recovery requested for unknown email")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	temp, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate temporary password")
	}
	hash, err := security.HashPassword(temp, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash temporary password")
	}

	updates := map[string]any{"password_hash": hash, "password_set": false}
	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store temporary password")
	}

	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour temporary Flora Gems password is: %s\r\n\r\nUse it to sign in and pick a new password right away.\r\n",
		user.Name, temp,
	)
	if err := s.mail.Send(ctx, user.Email, "Your temporary Flora Gems password", body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to send recovery mail")
	}
	return nil
}

// ResetPassword trades the emailed temporary password for a chosen one.
func (s *service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidCredentials()
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	ok, err := security.VerifyPassword(input.TempPassword, user.PasswordHash)
	if err != nil || !ok {
		return invalidCredentials()
	}
	if len(input.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}
	updates := map[string]any{"password_hash": hash, "password_set": true}
	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to store password")
	}
	return nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) (*UserList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list users")
	}
	for i := range list.Users {
		list.Users[i].PasswordHash = ""
	}
	return list, nil
}

func (s *service) BlockUser(ctx context.Context, userID uuid.UUID, blocked bool) (*Profile, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]any{"blocked": blocked}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update block flag")
	}
	return s.Profile(ctx, userID)
}

func (s *service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.findUser(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete user")
	}
	return nil
}

func (s *service) findUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}
	return user, nil
}

func (s *service) issueToken(user *models.User, role enums.Role) (*AuthResult, error) {
	token, err := auth.MintAccessToken(s.jwt, time.Now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mint token")
	}
	return &AuthResult{Token: token, User: profileOf(user)}, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// adminUserID derives a stable synthetic id so admin tokens stay consistent
// across restarts without a backing row.
func adminUserID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("floragems-admin:"+normalizeEmail(email)))
}
