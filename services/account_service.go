package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}

type UpdateAccountInput struct {
	Name     *string
	Avatar   *string
	Password *string
	Role     *string
}

// AccountService manages staff accounts. Role changes and deletions are
// reported back so the caller can push refresh-token / logout events.
type AccountService struct {
	store *repository.Store
}

func NewAccountService(store *repository.Store) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.store.Accounts.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError("failed to list accounts", err)
	}
	return accounts, nil
}

func (s *AccountService) Get(ctx context.Context, id uint) (*models.Account, error) {
	account, err := s.store.Accounts.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Account #%d not found", id)
		}
		return nil, utils.NewInternalError("failed to load account", err)
	}
	return account, nil
}

// CreateEmployee adds a staff account with the Employee role.
func (s *AccountService) CreateEmployee(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	if _, err := s.store.Accounts.FindByEmail(ctx, in.Email); err == nil {
		return nil, utils.NewFieldError("email", "Email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewInternalError("failed to hash password", err)
	}
	account := &models.Account{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Avatar:   in.Avatar,
		Role:     models.RoleEmployee,
	}
	if err := s.store.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewFieldError("email", "Email already exists")
		}
		return nil, utils.NewInternalError("failed to create account", err)
	}
	return account, nil
}

// Update changes an account and reports whether its role changed.
func (s *AccountService) Update(ctx context.Context, id uint, in UpdateAccountInput) (*models.Account, bool, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, utils.NewInternalError("failed to hash password", err)
		}
		fields["password"] = string(hashed)
	}
	roleChanged := false
	if in.Role != nil && *in.Role != account.Role {
		if !models.IsStaffRole(*in.Role) {
			return nil, false, utils.NewFieldError("role", "Role must be Owner or Employee")
		}
		fields["role"] = *in.Role
		roleChanged = true
	}

	if len(fields) > 0 {
		if err := s.store.Accounts.Update(ctx, id, fields); err != nil {
			return nil, false, utils.NewInternalError("failed to update account", err)
		}
	}
	account, err = s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return account, roleChanged, nil
}

// Delete removes the account and revokes its refresh tokens.
func (s *AccountService) Delete(ctx context.Context, actor models.AuthenticatedIdentity, id uint) (*models.Account, error) {
	if actor.ID == id {
		return nil, utils.NewBusinessError("You cannot delete your own account")
	}
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.RefreshTokens.DeleteForAccount(ctx, id); err != nil {
			return utils.NewInternalError("failed to revoke refresh tokens", err)
		}
		if err := tx.Accounts.Delete(ctx, id); err != nil {
			return utils.NewInternalError("failed to delete account", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
