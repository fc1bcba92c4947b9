package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChannelRepository struct {
	DB *gorm.DB
}

// UpsertForGuest replaces whatever channel the guest had before.
func (r *ChannelRepository) UpsertForGuest(ctx context.Context, guestID uint, channelID string) error {
	return r.upsert(ctx, &models.ChannelBinding{GuestID: &guestID, ChannelID: channelID}, "guest_id")
}

// UpsertForAccount replaces whatever channel the account had before.
func (r *ChannelRepository) UpsertForAccount(ctx context.Context, accountID uint, channelID string) error {
	return r.upsert(ctx, &models.ChannelBinding{AccountID: &accountID, ChannelID: channelID}, "account_id")
}

func (r *ChannelRepository) upsert(ctx context.Context, b *models.ChannelBinding, key string) error {
	b.UpdatedAt = time.Now()
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: key}},
		DoUpdates: clause.AssignmentColumns([]string{"channel_id", "updated_at"}),
	}).Create(b).Error
}

func (r *ChannelRepository) FindByGuest(ctx context.Context, guestID uint) (*models.ChannelBinding, error) {
	var b models.ChannelBinding
	if err := r.DB.WithContext(ctx).Where("guest_id = ?", guestID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ChannelRepository) FindByAccount(ctx context.Context, accountID uint) (*models.ChannelBinding, error) {
	var b models.ChannelBinding
	if err := r.DB.WithContext(ctx).Where("account_id = ?", accountID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteByChannel drops the binding of a closed channel. A binding that
// already moved to a newer channel is left alone.
func (r *ChannelRepository) DeleteByChannel(ctx context.Context, channelID string) error {
	return r.DB.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&models.ChannelBinding{}).Error
}
