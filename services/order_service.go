package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

// TablePolicy decides whether a Hidden table blocks new orders. A missing
// table always does; Reserved never does since that is the normal state of
// a table with an open session.
type TablePolicy struct {
	RejectHiddenForGuest bool
	RejectHiddenForStaff bool
}

func (p TablePolicy) rejects(table *models.Table, identity models.AuthenticatedIdentity) bool {
	if table.Status != models.TableStatusHidden {
		return false
	}
	if identity.IsGuest() {
		return p.RejectHiddenForGuest
	}
	return p.RejectHiddenForStaff
}

type OrderLine struct {
	DishID   uint
	Quantity int
	Discount float64
}

type UpdateOrderInput struct {
	Status   string
	DishID   uint
	Quantity int
}

// OrderResult carries the joined orders and the channel of the guest they belong to.
type OrderResult struct {
	Orders  []models.Order
	Channel string
}

// OrderService creates and edits orders, one transaction per call.
type OrderService struct {
	store     *repository.Store
	snapshots *SnapshotService
	channels  realtime.ChannelResolver
	policy    TablePolicy
}

func NewOrderService(store *repository.Store, snapshots *SnapshotService, channels realtime.ChannelResolver, policy TablePolicy) *OrderService {
	return &OrderService{
		store:     store,
		snapshots: snapshots,
		channels:  channels,
		policy:    policy,
	}
}

// CreateOrders places all lines for a session or none of them. Staff callers
// are recorded as the handler of the new orders.
func (s *OrderService) CreateOrders(ctx context.Context, identity models.AuthenticatedIdentity, sessionID uint, lines []OrderLine) (*OrderResult, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	var handlerID *uint
	if identity.IsStaff() {
		id := identity.ID
		handlerID = &id
	}

	var (
		guestID uint
		ids     []uint
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		session, err := tx.Sessions.FindByID(ctx, sessionID)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.NewNotFoundError("Guest session #%d not found", sessionID)
			}
			return utils.NewInternalError("failed to load guest session", err)
		}
		if identity.IsGuest() {
			if session.GuestID != identity.ID {
				return utils.NewForbiddenError("You can only order for your own session")
			}
			if !session.IsOpen() {
				return utils.NewBusinessError("Session #%d has ended, please log in again", session.ID)
			}
		}
		guestID = session.GuestID

		if _, err := tx.Guests.FindByID(ctx, session.GuestID); err != nil {
			if repository.IsNotFound(err) {
				return utils.NewNotFoundError("Guest #%d not found", session.GuestID)
			}
			return utils.NewInternalError("failed to load guest", err)
		}

		table, err := tx.Tables.FindByID(ctx, session.TableID)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.NewBusinessError("The table of this session no longer exists, please log out and log in again")
			}
			return utils.NewInternalError("failed to load table", err)
		}
		if s.policy.rejects(table, identity) {
			return utils.NewBusinessError("Table %d is hidden, orders cannot be placed on it", table.Number)
		}

		for _, line := range lines {
			order, err := s.placeLine(ctx, tx, session.ID, line, handlerID)
			if err != nil {
				return err
			}
			ids = append(ids, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orders, err := s.store.Orders.WithDetail(ctx, repository.OrderFilter{OrderIDs: ids})
	if err != nil {
		return nil, utils.NewInternalError("failed to load created orders", err)
	}

	utils.InfoLogger.Printf("Created %d orders for session %d", len(orders), sessionID)
	return &OrderResult{
		Orders:  orders,
		Channel: s.channels.GuestChannel(ctx, guestID),
	}, nil
}

func (s *OrderService) placeLine(ctx context.Context, tx *repository.Store, sessionID uint, line OrderLine, handlerID *uint) (*models.Order, error) {
	dish, err := tx.Dishes.FindByID(ctx, line.DishID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Dish #%d not found", line.DishID)
		}
		return nil, utils.NewInternalError("failed to load dish", err)
	}
	switch dish.Status {
	case models.DishStatusUnavailable:
		return nil, utils.NewBusinessError("Dish %q is out of stock", dish.Name)
	case models.DishStatusHidden:
		return nil, utils.NewBusinessError("Dish %q cannot be ordered", dish.Name)
	}

	snapshot, err := s.snapshots.FromDish(ctx, tx, *dish)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		GuestSessionID: sessionID,
		DishSnapshotID: snapshot.ID,
		Quantity:       line.Quantity,
		Discount:       line.Discount,
		HandlerID:      handlerID,
		Status:         models.OrderStatusPending,
	}
	if err := tx.Orders.Create(ctx, order); err != nil {
		return nil, utils.NewInternalError("failed to create order", err)
	}
	return order, nil
}

// UpdateOrder edits status, dish and quantity of an unpaid order. Changing
// the dish takes a new snapshot; the old one stays as it was.
func (s *OrderService) UpdateOrder(ctx context.Context, identity models.AuthenticatedIdentity, orderID uint, in UpdateOrderInput) (*OrderResult, error) {
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		order, err := tx.Orders.FindByID(ctx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return utils.NewNotFoundError("Order #%d not found", orderID)
			}
			return utils.NewInternalError("failed to load order", err)
		}
		if order.IsPaid() {
			return utils.NewBusinessError("Order #%d has been paid and can no longer be modified", order.ID)
		}

		current, err := tx.Snapshots.FindByID(ctx, order.DishSnapshotID)
		if err != nil {
			return utils.NewInternalError(fmt.Sprintf("failed to load snapshot of order #%d", order.ID), err)
		}

		snapshotID := current.ID
		if current.DishID != in.DishID {
			snapshot, err := s.snapshots.Snapshot(ctx, tx, in.DishID)
			if err != nil {
				return err
			}
			snapshotID = snapshot.ID
		}

		updated, err := tx.Orders.UpdateUnlessPaid(ctx, order.ID, map[string]interface{}{
			"status":           in.Status,
			"quantity":         in.Quantity,
			"dish_snapshot_id": snapshotID,
			"handler_id":       identity.ID,
			"updated_at":       time.Now(),
		})
		if err != nil {
			return utils.NewInternalError("failed to update order", err)
		}
		if updated == 0 {
			return utils.NewBusinessError("Order #%d has been paid and can no longer be modified", order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orders, err := s.store.Orders.WithDetail(ctx, repository.OrderFilter{OrderID: &orderID})
	if err != nil {
		return nil, utils.NewInternalError("failed to load updated order", err)
	}
	if len(orders) == 0 {
		return nil, utils.NewNotFoundError("Order #%d not found", orderID)
	}

	result := &OrderResult{Orders: orders}
	if gs := orders[0].GuestSession; gs != nil {
		result.Channel = s.channels.GuestChannel(ctx, gs.GuestID)
	}
	return result, nil
}

// OrdersWithDetail is the shared read path for listings and mutation results.
func (s *OrderService) OrdersWithDetail(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error) {
	orders, err := s.store.Orders.WithDetail(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError("failed to load orders", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	orders, err := s.OrdersWithDetail(ctx, repository.OrderFilter{OrderID: &orderID})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, utils.NewNotFoundError("Order #%d not found", orderID)
	}
	return &orders[0], nil
}

// SessionOrders lists the orders of a session. Guests may only read their own.
func (s *OrderService) SessionOrders(ctx context.Context, identity models.AuthenticatedIdentity, sessionID uint) ([]models.Order, error) {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Guest session #%d not found", sessionID)
		}
		return nil, utils.NewInternalError("failed to load guest session", err)
	}
	if identity.IsGuest() && session.GuestID != identity.ID {
		return nil, utils.NewForbiddenError("You can only view orders of your own session")
	}
	return s.OrdersWithDetail(ctx, repository.OrderFilter{SessionID: &session.ID})
}

// CurrentSession returns the open session of a guest.
func (s *OrderService) CurrentSession(ctx context.Context, guestID uint) (*models.GuestSession, error) {
	session, err := s.store.Sessions.FindLatestOpenForGuest(ctx, guestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("You have no open session, please log in at a table")
		}
		return nil, utils.NewInternalError("failed to load guest session", err)
	}
	return session, nil
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return utils.NewFieldError("orders", "At least one order line is required")
	}
	for i, line := range lines {
		if line.DishID == 0 {
			return utils.NewFieldError(fmt.Sprintf("orders[%d].dish_id", i), "Dish is required")
		}
		if line.Quantity <= 0 {
			return utils.NewFieldError(fmt.Sprintf("orders[%d].quantity", i), "Quantity must be greater than 0")
		}
		if line.Discount < 0 {
			return utils.NewFieldError(fmt.Sprintf("orders[%d].discount", i), "Discount cannot be negative")
		}
	}
	return nil
}

func validateUpdate(in UpdateOrderInput) error {
	valid := false
	for _, st := range models.OrderStatuses {
		if in.Status == st {
			valid = true
			break
		}
	}
	if !valid {
		return utils.NewFieldError("status", fmt.Sprintf("Unknown order status %q", in.Status))
	}
	if in.DishID == 0 {
		return utils.NewFieldError("dish_id", "Dish is required")
	}
	if in.Quantity <= 0 {
		return utils.NewFieldError("quantity", "Quantity must be greater than 0")
	}
	return nil
}
