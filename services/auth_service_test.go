package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

func setupAuth(t *testing.T) (*repository.Store, *AuthService) {
	t.Helper()
	store := setupTestStore(t)
	require.NoError(t, database.SeedOwner(store.DB(), "owner@example.com", "secret123"))
	return store, NewAuthService(store, newTestJWT(), 15*time.Minute, 24*time.Hour)
}

func TestStaffLogin(t *testing.T) {
	store, svc := setupAuth(t)
	ctx := context.Background()

	res, err := svc.Login(ctx, "owner@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, res.Account.Role)
	assert.NotEmpty(t, res.AccessToken)

	claims, err := newTestJWT().ParseAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.UserID)
	assert.Equal(t, models.RoleOwner, claims.Role)

	stored, err := store.RefreshTokens.FindByToken(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, stored.AccountID)
}

func TestStaffLoginWrongCredentials(t *testing.T) {
	_, svc := setupAuth(t)

	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{name: "unknown email", email: "nobody@example.com", password: "secret123", field: "email"},
		{name: "wrong password", email: "owner@example.com", password: "nope", field: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			appErr, ok := utils.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, utils.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Fields[0].Field)
			assert.Equal(t, "Email or password is incorrect", appErr.Fields[0].Message)
		})
	}
}

func TestStaffRefreshAndLogout(t *testing.T) {
	store, svc := setupAuth(t)
	ctx := context.Background()
	jwt := newTestJWT()

	res, err := svc.Login(ctx, "owner@example.com", "secret123")
	require.NoError(t, err)

	creds, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)

	before, err := jwt.ParseRefreshToken(res.RefreshToken)
	require.NoError(t, err)
	after, err := jwt.ParseRefreshToken(creds.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, before.ExpiresAt.Unix(), after.ExpiresAt.Unix())

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.True(t, utils.IsKind(err, utils.KindAuth))

	// role changes show up on the next refresh
	require.NoError(t, store.Accounts.Update(ctx, res.Account.ID, map[string]interface{}{"role": models.RoleEmployee}))
	creds, err = svc.Refresh(ctx, creds.RefreshToken)
	require.NoError(t, err)
	claims, err := jwt.ParseAccessToken(creds.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, claims.Role)

	require.NoError(t, svc.Logout(ctx, creds.RefreshToken))
	assert.True(t, utils.IsKind(svc.Logout(ctx, creds.RefreshToken), utils.KindAuth))
	assert.True(t, utils.IsKind(svc.Logout(ctx, "garbage"), utils.KindAuth))
	assert.Equal(t, int64(0), countRows(t, store, &models.RefreshToken{}))
}

func TestStaffRefreshRejectsGuestTokens(t *testing.T) {
	_, svc := setupAuth(t)
	guestToken, err := newTestJWT().GenerateRefreshToken(1, models.RoleGuest, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), guestToken)
	assert.True(t, utils.IsKind(err, utils.KindAuth))
}
