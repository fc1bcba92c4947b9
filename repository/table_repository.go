package repository

import (
	"context"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
)

type TableRepository struct {
	DB *gorm.DB
}

func (r *TableRepository) Create(ctx context.Context, t *models.Table) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *TableRepository) FindByID(ctx context.Context, id uint) (*models.Table, error) {
	var t models.Table
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TableRepository) FindByNumber(ctx context.Context, number int) (*models.Table, error) {
	var t models.Table
	if err := r.DB.WithContext(ctx).Where("number = ?", number).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TableRepository) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := r.DB.WithContext(ctx).Order("number ASC").Find(&tables).Error
	return tables, err
}

func (r *TableRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&models.Table{}).Where("id = ?", id).Updates(fields).Error
}

func (r *TableRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Table{}, id).Error
}

func (r *TableRepository) SetStatus(ctx context.Context, id uint, status string) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

// ReserveIfAvailable flips an Available table to Reserved and returns the
// number of rows changed, 0 when someone else got there first.
func (r *TableRepository) ReserveIfAvailable(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND status = ?", id, models.TableStatusAvailable).
		Update("status", models.TableStatusReserved)
	return res.RowsAffected, res.Error
}
