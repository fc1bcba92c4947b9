package models

import "time"

type Guest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GuestSession binds a guest to a table. An empty RefreshToken means the session is closed.
type GuestSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GuestID         uint      `gorm:"index;not null" json:"guest_id"`
	Guest           *Guest    `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	TableID         uint      `gorm:"index;not null" json:"table_id"`
	Table           *Table    `gorm:"foreignKey:TableID" json:"table,omitempty"`
	RefreshToken    string    `gorm:"type:varchar(512);index" json:"-"`
	RefreshTokenExp time.Time `json:"refresh_token_exp"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s GuestSession) IsOpen() bool {
	return s.RefreshToken != ""
}
