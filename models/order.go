package models

import "time"

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusDelivered  = "Delivered"
	OrderStatusPaid       = "Paid"
)

var OrderStatuses = []string{OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered, OrderStatusPaid}

// OpenOrderStatuses are the states a settlement may move to Paid.
var OpenOrderStatuses = []string{OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered}

type Order struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	GuestSessionID uint          `gorm:"index;not null" json:"guest_session_id"`
	GuestSession   *GuestSession `gorm:"foreignKey:GuestSessionID" json:"guest_session,omitempty"`
	DishSnapshotID uint          `gorm:"index;not null" json:"dish_snapshot_id"`
	DishSnapshot   *DishSnapshot `gorm:"foreignKey:DishSnapshotID" json:"dish_snapshot,omitempty"`
	Quantity       int           `gorm:"not null" json:"quantity"`
	Discount       float64       `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	HandlerID      *uint         `gorm:"index" json:"order_handler_id"`
	Handler        *Account      `gorm:"foreignKey:HandlerID" json:"order_handler,omitempty"`
	Status         string        `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (o Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// LineTotal is price*quantity minus the discount, never negative. Requires DishSnapshot.
func (o Order) LineTotal() float64 {
	if o.DishSnapshot == nil {
		return 0
	}
	total := o.DishSnapshot.Price*float64(o.Quantity) - o.Discount
	if total < 0 {
		return 0
	}
	return total
}
