package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
)

type GuestRepository struct {
	DB *gorm.DB
}

func (r *GuestRepository) FindByPhone(ctx context.Context, phone string) (*models.Guest, error) {
	var g models.Guest
	if err := r.DB.WithContext(ctx).Where("phone = ?", phone).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepository) FindByID(ctx context.Context, id uint) (*models.Guest, error) {
	var g models.Guest
	if err := r.DB.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepository) Create(ctx context.Context, g *models.Guest) error {
	return r.DB.WithContext(ctx).Create(g).Error
}

type SessionRepository struct {
	DB *gorm.DB
}

func (r *SessionRepository) Create(ctx context.Context, s *models.GuestSession) error {
	return r.DB.WithContext(ctx).Omit("Guest", "Table").Create(s).Error
}

func (r *SessionRepository) FindByID(ctx context.Context, id uint) (*models.GuestSession, error) {
	var s models.GuestSession
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOpen returns the open session of guestID holding refreshToken.
func (r *SessionRepository) FindOpen(ctx context.Context, guestID uint, refreshToken string) (*models.GuestSession, error) {
	var s models.GuestSession
	err := r.DB.WithContext(ctx).
		Where("guest_id = ? AND refresh_token = ? AND refresh_token <> ''", guestID, refreshToken).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, refreshToken string) (*models.GuestSession, error) {
	var s models.GuestSession
	err := r.DB.WithContext(ctx).
		Where("refresh_token = ? AND refresh_token <> ''", refreshToken).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindLatestOpenForGuest is used to resolve a guest's current session.
func (r *SessionRepository) FindLatestOpenForGuest(ctx context.Context, guestID uint) (*models.GuestSession, error) {
	var s models.GuestSession
	err := r.DB.WithContext(ctx).
		Where("guest_id = ? AND refresh_token <> ''", guestID).
		Order("id DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateToken swaps the stored credential, guarded on the old one still being current.
func (r *SessionRepository) RotateToken(ctx context.Context, id uint, oldToken, newToken string, exp time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.GuestSession{}).
		Where("id = ? AND refresh_token = ?", id, oldToken).
		Updates(map[string]interface{}{
			"refresh_token":     newToken,
			"refresh_token_exp": exp,
		})
	return res.RowsAffected, res.Error
}

// Close blanks the credential of an open session.
func (r *SessionRepository) Close(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.GuestSession{}).
		Where("id = ? AND refresh_token <> ''", id).
		Update("refresh_token", "")
	return res.RowsAffected, res.Error
}

func (r *SessionRepository) ListExpiredOpen(ctx context.Context, now time.Time) ([]models.GuestSession, error) {
	var sessions []models.GuestSession
	err := r.DB.WithContext(ctx).
		Where("refresh_token <> '' AND refresh_token_exp < ?", now).
		Find(&sessions).Error
	return sessions, err
}
