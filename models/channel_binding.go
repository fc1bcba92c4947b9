package models

import "time"

// ChannelBinding maps one identity, guest or account, to its live realtime channel.
type ChannelBinding struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID string    `gorm:"type:varchar(64);index;not null" json:"channel_id"`
	AccountID *uint     `gorm:"uniqueIndex" json:"account_id,omitempty"`
	GuestID   *uint     `gorm:"uniqueIndex" json:"guest_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
