package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
)

type AccountRepository struct {
	DB *gorm.DB
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *AccountRepository) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.DB.WithContext(ctx).Order("created_at DESC, id DESC").Find(&accounts).Error
	return accounts, err
}

func (r *AccountRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields).Error
}

func (r *AccountRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Account{}, id).Error
}

type RefreshTokenRepository struct {
	DB *gorm.DB
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *RefreshTokenRepository) DeleteForAccount(ctx context.Context, accountID uint) error {
	return r.DB.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.RefreshToken{}).Error
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
