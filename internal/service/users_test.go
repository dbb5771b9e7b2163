package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/auth"
	"github.com/Ayman482/nile-dose-cafe-website/internal/dbconnector"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/Ayman482/nile-dose-cafe-website/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterAndLogin(t *testing.T) {
	storage, clk := newTestStorage(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour, clk)
	users := NewUserService(storage, tokens, zap.NewNop())
	ctx := context.Background()

	registered, err := users.Register(ctx, models.RegisterRequest{
		Email:    " Salma@Example.com ",
		Password: "karkade",
		FullName: "Salma Hassan",
	})
	require.NoError(t, err)
	assert.Equal(t, "salma@example.com", registered.User.Email)
	assert.Equal(t, dbconnector.RoleCustomer, registered.User.Role)
	assert.NotEmpty(t, registered.Token)

	claims, err := tokens.Parse(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.Subject)

	_, err = users.Register(ctx, models.RegisterRequest{Email: "salma@example.com", Password: "another1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	logged, err := users.Login(ctx, models.LoginRequest{Email: "SALMA@example.com", Password: "karkade"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)

	_, err = users.Login(ctx, models.LoginRequest{Email: "salma@example.com", Password: "wrong-one"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = users.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "karkade"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, users.PromoteAdmin(ctx, "salma@example.com"))
	me, err := users.Me(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, dbconnector.RoleAdmin, me.Role)

	assert.ErrorIs(t, users.PromoteAdmin(ctx, "ghost@example.com"), apperr.ErrNotFound)
}

func TestRegisterValidation(t *testing.T) {
	storage, _ := newTestStorage(t)
	users := NewUserService(storage, auth.NewTokenManager("s", time.Hour, nil), zap.NewNop())

	testCases := []struct {
		name string
		req  models.RegisterRequest
	}{
		{name: "empty email", req: models.RegisterRequest{Password: "secret1"}},
		{name: "malformed email", req: models.RegisterRequest{Email: "not-an-email", Password: "secret1"}},
		{name: "short password", req: models.RegisterRequest{Email: "a@b.co", Password: "123"}},
		{name: "password over the bcrypt limit", req: models.RegisterRequest{Email: "a@b.co", Password: strings.Repeat("x", 80)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := users.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRegisterAcceptsLongestPassword(t *testing.T) {
	storage, clk := newTestStorage(t)
	users := NewUserService(storage, auth.NewTokenManager("s", time.Hour, clk), zap.NewNop())
	password := strings.Repeat("p", maxPasswordLength)

	_, err := users.Register(context.Background(), models.RegisterRequest{Email: "long@example.com", Password: password})
	require.NoError(t, err)
	_, err = users.Login(context.Background(), models.LoginRequest{Email: "long@example.com", Password: password})
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	storage, clk := newTestStorage(t)
	users := NewUserService(storage, auth.NewTokenManager("s", time.Hour, clk), zap.NewNop())
	ctx := context.Background()

	registered, err := users.Register(ctx, models.RegisterRequest{Email: "nour@example.com", Password: "hibiscus", FullName: "Nour", Phone: "0100"})
	require.NoError(t, err)

	name := "  Nour El-Din "
	updated, err := users.UpdateProfile(ctx, registered.User.ID, models.ProfileRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Nour El-Din", updated.FullName)
	assert.Equal(t, "0100", updated.Phone)

	phone := ""
	updated, err = users.UpdateProfile(ctx, registered.User.ID, models.ProfileRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Nour El-Din", updated.FullName)
	assert.Empty(t, updated.Phone)

	_, err = users.UpdateProfile(ctx, registered.User.ID, models.ProfileRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = users.UpdateProfile(ctx, "missing-user", models.ProfileRequest{FullName: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	storage, clk := newTestStorage(t)
	users := NewUserService(storage, auth.NewTokenManager("s", time.Hour, clk), zap.NewNop())
	ctx := context.Background()

	registered, err := users.Register(ctx, models.RegisterRequest{Email: "omar@example.com", Password: "tamarind"})
	require.NoError(t, err)
	id := registered.User.ID

	err = users.ChangePassword(ctx, id, models.PasswordChangeRequest{CurrentPassword: "wrong-one", NewPassword: "sugarcane"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	err = users.ChangePassword(ctx, id, models.PasswordChangeRequest{CurrentPassword: "tamarind", NewPassword: "123"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	err = users.ChangePassword(ctx, id, models.PasswordChangeRequest{CurrentPassword: "tamarind", NewPassword: strings.Repeat("y", 73)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// rejected attempts leave the old password in place
	_, err = users.Login(ctx, models.LoginRequest{Email: "omar@example.com", Password: "tamarind"})
	require.NoError(t, err)

	require.NoError(t, users.ChangePassword(ctx, id, models.PasswordChangeRequest{CurrentPassword: "tamarind", NewPassword: "sugarcane"}))
	_, err = users.Login(ctx, models.LoginRequest{Email: "omar@example.com", Password: "tamarind"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = users.Login(ctx, models.LoginRequest{Email: "omar@example.com", Password: "sugarcane"})
	require.NoError(t, err)

	err = users.ChangePassword(ctx, "missing-user", models.PasswordChangeRequest{CurrentPassword: "x", NewPassword: "sugarcane"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
