package users

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/floragems/floragems-backend/pkg/auth"
	"github.com/floragems/floragems-backend/pkg/config"
	"github.com/floragems/floragems-backend/pkg/enums"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/logger"
	"github.com/floragems/floragems-backend/pkg/pagination"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddls := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  auth_provider TEXT NOT NULL DEFAULT 'local',
  password_set INTEGER NOT NULL DEFAULT 1,
  blocked INTEGER NOT NULL DEFAULT 0,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  avatar_url TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  size TEXT NOT NULL,
  qty INTEGER NOT NULL CHECK (qty > 0),
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id, size)
);`}
	for _, ddl := range ddls {
		require.NoError(t, db.Exec(ddl).Error)
	}
	for _, table := range []string{"cart_items", "users"} {
		require.NoError(t, db.Exec("DELETE FROM " + table).Error)
	}

	return db
}

type stubGoogleVerifier struct {
	identity *GoogleIdentity
	err      error
}

func (s *stubGoogleVerifier) Verify(_ context.Context, _ string) (*GoogleIdentity, error) {
	return s.identity, s.err
}

type recordingMailer struct {
	to      string
	subject string
	body    string
	err     error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "floragems-test",
		ExpirationMinutes: 60,
	}
}

func newUsersService(t *testing.T, db *gorm.DB, google GoogleVerifier, mail *recordingMailer) Service {
	t.Helper()

	var m *recordingMailer
	if mail != nil {
		m = mail
	} else {
		m = &recordingMailer{}
	}
	svc, err := NewService(
		NewRepository(db),
		google,
		m,
		testJWTConfig(),
		config.AdminConfig{Email: "admin@floragems.test", Password: "back-office-secret"},
		testPasswordConfig(),
		logger.New(logger.Options{ServiceName: "users-test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return svc
}

func TestServiceRegisterAndLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Name:     "Jane Doe",
		Email:    "Jane@FloraGems.Test",
		Password: "opensesame",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, "jane@floragems.test", result.User.Email)

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleCustomer, claims.Role)

	login, err := svc.Login(ctx, LoginInput{Email: "jane@floragems.test", Password: "opensesame"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "jane@floragems.test", Password: "wrong"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	input := RegisterInput{Name: "Jane", Email: "dup@floragems.test", Password: "opensesame"}
	_, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = svc.Register(ctx, input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceLoginRejectsBlockedUser(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "blocked@floragems.test", Password: "opensesame"})
	require.NoError(t, err)

	userID := uuid.MustParse(result.User.ID)
	_, err = svc.BlockUser(ctx, userID, true)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "blocked@floragems.test", Password: "opensesame"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	blocked, err := NewRepository(db).IsBlocked(ctx, userID)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestServiceGoogleLoginProvisionsOnFirstSight(t *testing.T) {
	db := setupUsersTestDB(t)
	verifier := &stubGoogleVerifier{identity: &GoogleIdentity{
		Subject:   "gsub-1",
		Email:     "pixel@floragems.test",
		Name:      "Pixel Person",
		AvatarURL: "https://lh3.example/avatar.jpg",
	}}
	svc := newUsersService(t, db, verifier, nil)
	ctx := context.Background()

	first, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "raw-token"})
	require.NoError(t, err)
	assert.Equal(t, "pixel@floragems.test", first.User.Email)
	assert.Equal(t, enums.AuthProviderGoogle.String(), first.User.AuthProvider)
	assert.False(t, first.User.PasswordSet)

	second, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "raw-token"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	verifier.identity = nil
	verifier.err = fmt.Errorf("token expired")
	_, err = svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "stale"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceAdminLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	result, err := svc.AdminLogin(ctx, AdminLoginInput{Email: "admin@floragems.test", Password: "back-office-secret"})
	require.NoError(t, err)

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleAdmin, claims.Role)

	_, err = svc.AdminLogin(ctx, AdminLoginInput{Email: "admin@floragems.test", Password: "nope"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceUpdateProfile(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "profile@floragems.test", Password: "opensesame"})
	require.NoError(t, err)
	userID := uuid.MustParse(result.User.ID)

	phone := "+1 512 555 0100"
	address := "1 Gem Lane, Austin TX"
	profile, err := svc.UpdateProfile(ctx, userID, UpdateProfileInput{Phone: &phone, Address: &address})
	require.NoError(t, err)
	assert.Equal(t, phone, profile.Phone)
	assert.Equal(t, address, profile.Address)
	assert.Equal(t, "Jane", profile.Name)

	empty := "  "
	_, err = svc.UpdateProfile(ctx, userID, UpdateProfileInput{Name: &empty})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceChangePassword(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "rotate@floragems.test", Password: "opensesame"})
	require.NoError(t, err)
	userID := uuid.MustParse(result.User.ID)

	err = svc.ChangePassword(ctx, userID, ChangePasswordInput{OldPassword: "wrong", NewPassword: "brandnewpass"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	err = svc.ChangePassword(ctx, userID, ChangePasswordInput{OldPassword: "opensesame", NewPassword: "brandnewpass"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "rotate@floragems.test", Password: "brandnewpass"})
	require.NoError(t, err)
}

func TestServiceChangePasswordSkipsOldCheckForGoogleFirstSet(t *testing.T) {
	db := setupUsersTestDB(t)
	verifier := &stubGoogleVerifier{identity: &GoogleIdentity{
		Subject: "gsub-2",
		Email:   "firstset@floragems.test",
		Name:    "First Set",
	}}
	svc := newUsersService(t, db, verifier, nil)
	ctx := context.Background()

	result, err := svc.GoogleLogin(ctx, GoogleLoginInput{IDToken: "raw"})
	require.NoError(t, err)
	userID := uuid.MustParse(result.User.ID)

	err = svc.ChangePassword(ctx, userID, ChangePasswordInput{NewPassword: "mychosenpass"})
	require.NoError(t, err)

	login, err := svc.Login(ctx, LoginInput{Email: "firstset@floragems.test", Password: "mychosenpass"})
	require.NoError(t, err)
	assert.True(t, login.User.PasswordSet)

	err = svc.ChangePassword(ctx, userID, ChangePasswordInput{NewPassword: "anotherpass1"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceForgotAndResetPassword(t *testing.T) {
	db := setupUsersTestDB(t)
	mail := &recordingMailer{}
	svc := newUsersService(t, db, nil, mail)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "recover@floragems.test", Password: "opensesame"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "recover@floragems.test"))
	require.Equal(t, "recover@floragems.test", mail.to)
	require.Contains(t, mail.body, "temporary Flora Gems password")

	lines := strings.Split(mail.body, "\r\n")
	var temp string
	for _, line := range lines {
		if strings.HasPrefix(line, "Your temporary Flora Gems password is: ") {
			temp = strings.TrimPrefix(line, "Your temporary Flora Gems password is: ")
		}
	}
	require.NotEmpty(t, temp)

	_, err = svc.Login(ctx, LoginInput{Email: "recover@floragems.test", Password: "opensesame"})
	require.Error(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordInput{
		Email:        "recover@floragems.test",
		TempPassword: "not-the-temp",
		NewPassword:  "finalanswer1",
	})
	require.Error(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordInput{
		Email:        "recover@floragems.test",
		TempPassword: temp,
		NewPassword:  "finalanswer1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "recover@floragems.test", Password: "finalanswer1"})
	require.NoError(t, err)

	mail.to = ""
	require.NoError(t, svc.ForgotPassword(ctx, "nobody@floragems.test"))
	assert.Empty(t, mail.to)
}

func TestServiceListBlockAndDelete(t *testing.T) {
	db := setupUsersTestDB(t)
	svc := newUsersService(t, db, nil, nil)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		result, err := svc.Register(ctx, RegisterInput{
			Name:     fmt.Sprintf("User %d", i),
			Email:    fmt.Sprintf("list%d@floragems.test", i),
			Password: "opensesame",
		})
		require.NoError(t, err)
		ids = append(ids, uuid.MustParse(result.User.ID))
	}

	first, err := svc.ListUsers(ctx, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Users, 3)
	require.NotEmpty(t, first.NextCursor)
	for _, u := range first.Users {
		assert.Empty(t, u.PasswordHash)
	}

	second, err := svc.ListUsers(ctx, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Users, 1)
	assert.Empty(t, second.NextCursor)

	require.NoError(t, svc.DeleteUser(ctx, ids[0]))
	err = svc.DeleteUser(ctx, ids[0])
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
