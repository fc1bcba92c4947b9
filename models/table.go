package models

import "time"

const (
	TableStatusAvailable = "Available"
	TableStatusHidden    = "Hidden"
	TableStatusReserved  = "Reserved"
)

var TableStatuses = []string{TableStatusAvailable, TableStatusHidden, TableStatusReserved}

type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    int       `gorm:"uniqueIndex;not null" json:"number"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Status    string    `gorm:"type:varchar(20);not null;default:'Hidden'" json:"status"`
	Token     string    `gorm:"type:varchar(64);not null" json:"token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
