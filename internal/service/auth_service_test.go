package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tms-admin/tms-api/internal/models"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
)

func newAuthService(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	factory := newTestFactory(t)
	uow := factory.New()
	t.Cleanup(func() { _ = uow.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:        "staff@tms.local",
		PasswordHash: string(hash),
		FullName:     "Staff User",
		Role:         models.RoleStaff,
		Active:       true,
	}
	require.NoError(t, uow.Users.Create(context.Background(), user))

	svc := NewAuthService(uow.Users, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "tms-api",
		Audience:           []string{"tms-admin"},
	})
	return svc, user
}

func TestLoginIssuesValidTokenPair(t *testing.T) {
	svc, user := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, user.Email, resp.User.Email)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
	assert.Equal(t, "tms-api", claims.Issuer)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, user := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@tms.local", Password: "whatever"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, user := newAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The consumed token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, user := newAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken, user.ID))

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestChangePasswordInvalidatesSessions(t *testing.T) {
	svc, user := newAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "battery-staple",
	})
	require.NoError(t, err)

	// Old refresh token is revoked.
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)

	// Old password no longer works, new one does.
	_, err = svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.Error(t, err)
	_, err = svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "battery-staple"})
	require.NoError(t, err)
}

func TestChangePasswordRejectsShortPassword(t *testing.T) {
	svc, user := newAuthService(t)

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "short",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, user := newAuthService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	require.NoError(t, err)

	other := NewAuthService(nil, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "tms-api",
		Audience:          []string{"tms-admin"},
	})
	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
}
