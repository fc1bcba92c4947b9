package repository

import (
	"context"
	"time"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter selects orders for OrdersWithDetail. Empty fields are ignored;
// set fields are combined with AND.
type OrderFilter struct {
	SessionID *uint
	OrderID   *uint
	OrderIDs  []uint
	From      *time.Time
	To        *time.Time
}

type OrderRepository struct {
	DB *gorm.DB
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateUnlessPaid applies fields to an order that is not Paid and returns
// the rows changed; 0 means the order is Paid (or gone).
func (r *OrderRepository) UpdateUnlessPaid(ctx context.Context, id uint, fields map[string]interface{}) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, models.OrderStatusPaid).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// OpenIDsForSession lists ids of orders of a session that can still be settled.
func (r *OrderRepository) OpenIDsForSession(ctx context.Context, sessionID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("guest_session_id = ? AND status IN ?", sessionID, models.OpenOrderStatuses).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// MarkPaid moves the given orders to Paid. Only orders still open are touched,
// so a repeated call changes nothing.
func (r *OrderRepository) MarkPaid(ctx context.Context, ids []uint, handlerID *uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	fields := map[string]interface{}{
		"status":     models.OrderStatusPaid,
		"updated_at": time.Now(),
	}
	if handlerID != nil {
		fields["handler_id"] = *handlerID
	}
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id IN ? AND status IN ?", ids, models.OpenOrderStatuses).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// WithDetail loads orders joined with snapshot, session, guest, table and
// handler, newest first.
func (r *OrderRepository) WithDetail(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).
		Preload("DishSnapshot").
		Preload("GuestSession").
		Preload("GuestSession.Guest").
		Preload("GuestSession.Table").
		Preload("Handler")

	if f.SessionID != nil {
		q = q.Where("guest_session_id = ?", *f.SessionID)
	}
	if f.OrderID != nil {
		q = q.Where("id = ?", *f.OrderID)
	}
	if f.OrderIDs != nil {
		if len(f.OrderIDs) == 0 {
			return []models.Order{}, nil
		}
		q = q.Where("id IN ?", f.OrderIDs)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	orders := []models.Order{}
	err := q.Order("created_at DESC").Order("id DESC").Find(&orders).Error
	return orders, err
}
