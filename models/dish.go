package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	DishStatusAvailable   = "Available"
	DishStatusUnavailable = "Unavailable"
	DishStatusHidden      = "Hidden"
)

var DishStatuses = []string{DishStatusAvailable, DishStatusUnavailable, DishStatusHidden}

var ErrSnapshotImmutable = errors.New("dish snapshot cannot be modified")

type Dish struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"type:varchar(512)" json:"image"`
	Type        string    `gorm:"type:varchar(50)" json:"type"`
	Status      string    `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DishSnapshot is the copy of a dish owned by one order line.
type DishSnapshot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DishID      uint      `gorm:"index;not null" json:"dish_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `gorm:"type:varchar(512)" json:"image"`
	Type        string    `gorm:"type:varchar(50)" json:"type"`
	Status      string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (DishSnapshot) BeforeUpdate(tx *gorm.DB) error {
	return ErrSnapshotImmutable
}

func (DishSnapshot) BeforeDelete(tx *gorm.DB) error {
	return ErrSnapshotImmutable
}

// NewSnapshot copies the orderable fields of d.
func NewSnapshot(d Dish) DishSnapshot {
	return DishSnapshot{
		DishID:      d.ID,
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Image:       d.Image,
		Type:        d.Type,
		Status:      d.Status,
	}
}
