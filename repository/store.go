package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store groups the per-entity repositories over a single gorm handle.
type Store struct {
	db *gorm.DB

	Tables        *TableRepository
	Guests        *GuestRepository
	Sessions      *SessionRepository
	Dishes        *DishRepository
	Snapshots     *SnapshotRepository
	Orders        *OrderRepository
	Accounts      *AccountRepository
	RefreshTokens *RefreshTokenRepository
	Channels      *ChannelRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Tables:        &TableRepository{DB: db},
		Guests:        &GuestRepository{DB: db},
		Sessions:      &SessionRepository{DB: db},
		Dishes:        &DishRepository{DB: db},
		Snapshots:     &SnapshotRepository{DB: db},
		Orders:        &OrderRepository{DB: db},
		Accounts:      &AccountRepository{DB: db},
		RefreshTokens: &RefreshTokenRepository{DB: db},
		Channels:      &ChannelRepository{DB: db},
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to one database transaction.
// Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
