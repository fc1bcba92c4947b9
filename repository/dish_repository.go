package repository

import (
	"context"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
)

type DishRepository struct {
	DB *gorm.DB
}

func (r *DishRepository) Create(ctx context.Context, d *models.Dish) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *DishRepository) FindByID(ctx context.Context, id uint) (*models.Dish, error) {
	var d models.Dish
	if err := r.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns dishes, leaving out Hidden ones unless includeHidden is set.
func (r *DishRepository) List(ctx context.Context, includeHidden bool) ([]models.Dish, error) {
	var dishes []models.Dish
	q := r.DB.WithContext(ctx).Order("created_at DESC, id DESC")
	if !includeHidden {
		q = q.Where("status <> ?", models.DishStatusHidden)
	}
	err := q.Find(&dishes).Error
	return dishes, err
}

func (r *DishRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&models.Dish{}).Where("id = ?", id).Updates(fields).Error
}

func (r *DishRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Dish{}, id).Error
}

// SnapshotRepository only inserts and reads; snapshots are never changed.
type SnapshotRepository struct {
	DB *gorm.DB
}

func (r *SnapshotRepository) Create(ctx context.Context, s *models.DishSnapshot) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SnapshotRepository) FindByID(ctx context.Context, id uint) (*models.DishSnapshot, error) {
	var s models.DishSnapshot
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
