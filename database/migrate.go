package database

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.RefreshToken{},
		&models.Table{},
		&models.Guest{},
		&models.GuestSession{},
		&models.Dish{},
		&models.DishSnapshot{},
		&models.Order{},
		&models.ChannelBinding{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedOwner creates the first Owner account when no account exists yet.
func SeedOwner(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash owner password: %w", err)
	}

	owner := models.Account{
		Name:     "Owner",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleOwner,
	}
	if err := db.Create(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to create owner account: %w", err)
	}

	utils.InfoLogger.Printf("Owner account created: %s", owner.Email)
	return nil
}
