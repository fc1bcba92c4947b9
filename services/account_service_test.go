package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateEmployee(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	svc := NewAccountService(store)

	account, err := svc.CreateEmployee(ctx, CreateAccountInput{Name: "Lan", Email: "lan@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, account.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.Password), []byte("secret123")))

	_, err = svc.CreateEmployee(ctx, CreateAccountInput{Name: "Lan 2", Email: "lan@example.com", Password: "secret123"})
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "email", appErr.Fields[0].Field)

	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestUpdateAccountReportsRoleChange(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	svc := NewAccountService(store)
	account := seedAccount(t, store, "lan@example.com", models.RoleEmployee)

	name := "Lan Nguyen"
	updated, roleChanged, err := svc.Update(ctx, account.ID, UpdateAccountInput{Name: &name})
	require.NoError(t, err)
	assert.False(t, roleChanged)
	assert.Equal(t, "Lan Nguyen", updated.Name)

	sameRole := models.RoleEmployee
	_, roleChanged, err = svc.Update(ctx, account.ID, UpdateAccountInput{Role: &sameRole})
	require.NoError(t, err)
	assert.False(t, roleChanged)

	owner := models.RoleOwner
	updated, roleChanged, err = svc.Update(ctx, account.ID, UpdateAccountInput{Role: &owner})
	require.NoError(t, err)
	assert.True(t, roleChanged)
	assert.Equal(t, models.RoleOwner, updated.Role)

	guest := models.RoleGuest
	_, _, err = svc.Update(ctx, account.ID, UpdateAccountInput{Role: &guest})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, _, err = svc.Update(ctx, 999, UpdateAccountInput{Name: &name})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestDeleteAccountRevokesTokens(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	svc := NewAccountService(store)
	owner := seedAccount(t, store, "owner@example.com", models.RoleOwner)
	staff := seedAccount(t, store, "lan@example.com", models.RoleEmployee)
	require.NoError(t, store.RefreshTokens.Create(ctx, &models.RefreshToken{
		Token: "staff-token", AccountID: staff.ID, ExpiresAt: time.Now().Add(time.Hour),
	}))
	actor := models.AuthenticatedIdentity{ID: owner.ID, Role: models.RoleOwner}

	_, err := svc.Delete(ctx, actor, owner.ID)
	assert.True(t, utils.IsKind(err, utils.KindBusiness))

	deleted, err := svc.Delete(ctx, actor, staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "lan@example.com", deleted.Email)
	assert.Equal(t, int64(0), countRows(t, store, &models.RefreshToken{}))

	_, err = svc.Get(ctx, staff.ID)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}
