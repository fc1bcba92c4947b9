package services

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/crypto/bcrypt"
)

type StaffLoginResult struct {
	Account *models.Account `json:"account"`
	Credentials
}

// AuthService handles staff credentials. Refresh tokens are stored so they
// can be revoked on logout or account deletion.
type AuthService struct {
	store      *repository.Store
	tokens     TokenIssuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(store *repository.Store, tokens TokenIssuer, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		store:      store,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*StaffLoginResult, error) {
	account, err := s.store.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewFieldError("email", "Email or password is incorrect")
		}
		return nil, utils.NewInternalError("failed to load account", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return nil, utils.NewFieldError("password", "Email or password is incorrect")
	}

	creds, err := s.issue(ctx, s.store, account, s.now().Add(s.refreshTTL))
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Login successful for %s (role=%s)", account.Email, account.Role)
	return &StaffLoginResult{Account: account, Credentials: *creds}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.tokens.ParseRefreshToken(refreshToken); err != nil {
		return utils.NewAuthError("Invalid refresh token")
	}
	deleted, err := s.store.RefreshTokens.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return utils.NewInternalError("failed to delete refresh token", err)
	}
	if deleted == 0 {
		return utils.NewAuthError("Refresh token does not exist")
	}
	return nil
}

// Refresh rotates the stored token. The new tokens carry the account's
// current role, so a role change takes effect here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil || !models.IsStaffRole(claims.Role) {
		return nil, utils.NewAuthError("Invalid refresh token")
	}

	var creds *Credentials
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		stored, err := tx.RefreshTokens.FindByToken(ctx, refreshToken)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.NewAuthError("Refresh token does not exist")
			}
			return utils.NewInternalError("failed to load refresh token", err)
		}
		account, err := tx.Accounts.FindByID(ctx, stored.AccountID)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.NewAuthError("Account no longer exists")
			}
			return utils.NewInternalError("failed to load account", err)
		}
		if _, err := tx.RefreshTokens.DeleteByToken(ctx, refreshToken); err != nil {
			return utils.NewInternalError("failed to delete refresh token", err)
		}
		creds, err = s.issue(ctx, tx, account, stored.ExpiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *AuthService) issue(ctx context.Context, store *repository.Store, account *models.Account, refreshExp time.Time) (*Credentials, error) {
	access, err := s.tokens.GenerateAccessToken(account.ID, account.Role, s.accessTTL)
	if err != nil {
		return nil, utils.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(account.ID, account.Role, refreshExp)
	if err != nil {
		return nil, utils.NewInternalError("failed to sign refresh token", err)
	}
	err = store.RefreshTokens.Create(ctx, &models.RefreshToken{
		Token:     refresh,
		AccountID: account.ID,
		ExpiresAt: refreshExp,
	})
	if err != nil {
		return nil, utils.NewInternalError("failed to store refresh token", err)
	}
	return &Credentials{AccessToken: access, RefreshToken: refresh}, nil
}
