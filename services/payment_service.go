package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

// Status pembayaran
const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
	PaymentStatusNoop    = "noop"
)

// ErrNothingToSettle is wrapped by settlement errors when a session has no open orders.
var ErrNothingToSettle = errors.New("nothing to settle")

// PaymentGateway is the online payment provider.
type PaymentGateway interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	VerifyWebhook(body []byte) (*WebhookPayload, error)
}

type SettlementResult struct {
	Orders  []models.Order
	Channel string
}

type WebhookResult struct {
	Status  string
	Message string
	Orders  []models.Order
	Channel string
}

// PaymentService settles sessions, from staff or from provider webhooks.
type PaymentService struct {
	store    *repository.Store
	channels realtime.ChannelResolver
	gateway  PaymentGateway
	linkTTL  time.Duration
	now      func() time.Time
}

func NewPaymentService(store *repository.Store, channels realtime.ChannelResolver, gateway PaymentGateway, linkTTL time.Duration) *PaymentService {
	return &PaymentService{
		store:    store,
		channels: channels,
		gateway:  gateway,
		linkTTL:  linkTTL,
		now:      time.Now,
	}
}

// SettleSession marks every open order of the session Paid in one
// transaction. A second call finds nothing open and fails with ErrNothingToSettle.
func (s *PaymentService) SettleSession(ctx context.Context, sessionID uint, handlerID *uint) (*SettlementResult, error) {
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
		guestID = session.GuestID

		ids, err = tx.Orders.OpenIDsForSession(ctx, session.ID)
		if err != nil {
			return utils.NewInternalError("failed to load open orders", err)
		}
		if len(ids) == 0 {
			return utils.WrapBusinessError(ErrNothingToSettle, "Session #%d has no unpaid orders", session.ID)
		}

		paid, err := tx.Orders.MarkPaid(ctx, ids, handlerID)
		if err != nil {
			return utils.NewInternalError("failed to mark orders paid", err)
		}
		if paid == 0 {
			// settled by a concurrent call
			return utils.WrapBusinessError(ErrNothingToSettle, "Session #%d has no unpaid orders", session.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orders, err := s.store.Orders.WithDetail(ctx, repository.OrderFilter{OrderIDs: ids})
	if err != nil {
		return nil, utils.NewInternalError("failed to load paid orders", err)
	}

	var total float64
	for _, o := range orders {
		total += o.LineTotal()
	}
	utils.InfoLogger.Printf("Paid %d orders for session %d, total %s", len(orders), sessionID, utils.FormatAmount(total))
	return &SettlementResult{
		Orders:  orders,
		Channel: s.channels.GuestChannel(ctx, guestID),
	}, nil
}

// PayOrders is the staff-initiated settlement; the staff member is stamped as handler.
func (s *PaymentService) PayOrders(ctx context.Context, identity models.AuthenticatedIdentity, sessionID uint) (*SettlementResult, error) {
	if !identity.IsStaff() {
		return nil, utils.NewForbiddenError("Only staff can settle a session")
	}
	handlerID := identity.ID
	return s.SettleSession(ctx, sessionID, &handlerID)
}

// ReceiveWebhook settles the session named in the payment description.
// Failed payments and repeated deliveries are no-ops, not errors.
func (s *PaymentService) ReceiveWebhook(ctx context.Context, payload WebhookPayload) (*WebhookResult, error) {
	if payload.Code != ProviderCodeSuccess {
		utils.InfoLogger.Printf("Webhook reported failed payment (code=%s, desc=%s)", payload.Code, payload.Desc)
		return &WebhookResult{Status: PaymentStatusFailed, Message: "Payment failed", Orders: []models.Order{}}, nil
	}

	sessionID, err := ParseSessionID(payload.Data.Description)
	if err != nil {
		return nil, err
	}

	settled, err := s.SettleSession(ctx, sessionID, nil)
	if errors.Is(err, ErrNothingToSettle) {
		utils.InfoLogger.Printf("Webhook for session %d ignored, nothing to settle", sessionID)
		return &WebhookResult{Status: PaymentStatusNoop, Message: "Nothing to settle", Orders: []models.Order{}}, nil
	}
	if err != nil {
		return nil, err
	}

	return &WebhookResult{
		Status:  PaymentStatusSuccess,
		Message: fmt.Sprintf("Paid %d orders", len(settled.Orders)),
		Orders:  settled.Orders,
		Channel: settled.Channel,
	}, nil
}

// ParseSessionID takes the session id from the last word of a payment description.
func ParseSessionID(description string) (uint, error) {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return 0, utils.NewFieldError("data.description", "Payment description does not contain a session id")
	}
	id, err := strconv.ParseUint(fields[len(fields)-1], 10, 64)
	if err != nil || id == 0 {
		return 0, utils.NewFieldError("data.description", fmt.Sprintf("Invalid session id %q in payment description", fields[len(fields)-1]))
	}
	return uint(id), nil
}

// SessionBill is the amount still owed by a session.
type SessionBill struct {
	SessionID uint           `json:"guest_session_id"`
	Amount    int64          `json:"amount"`
	Orders    []models.Order `json:"orders"`
}

// Bill sums the open orders of a session.
func (s *PaymentService) Bill(ctx context.Context, identity models.AuthenticatedIdentity, sessionID uint) (*SessionBill, error) {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.NewNotFoundError("Guest session #%d not found", sessionID)
		}
		return nil, utils.NewInternalError("failed to load guest session", err)
	}
	if identity.IsGuest() && session.GuestID != identity.ID {
		return nil, utils.NewForbiddenError("You can only pay for your own session")
	}

	ids, err := s.store.Orders.OpenIDsForSession(ctx, session.ID)
	if err != nil {
		return nil, utils.NewInternalError("failed to load open orders", err)
	}
	if len(ids) == 0 {
		return nil, utils.WrapBusinessError(ErrNothingToSettle, "Session #%d has no unpaid orders", session.ID)
	}
	orders, err := s.store.Orders.WithDetail(ctx, repository.OrderFilter{OrderIDs: ids})
	if err != nil {
		return nil, utils.NewInternalError("failed to load open orders", err)
	}

	var total float64
	for _, o := range orders {
		total += o.LineTotal()
	}
	return &SessionBill{SessionID: session.ID, Amount: int64(math.Round(total)), Orders: orders}, nil
}

// CreatePaymentLink opens a provider checkout for the session's open orders.
// The description ends with the session id so the webhook can find it.
func (s *PaymentService) CreatePaymentLink(ctx context.Context, identity models.AuthenticatedIdentity, sessionID uint, returnURL, cancelURL string) (*PaymentLink, error) {
	if s.gateway == nil {
		return nil, utils.NewBusinessError("Online payment is not available")
	}

	bill, err := s.Bill(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	if bill.Amount <= 0 {
		return nil, utils.NewBusinessError("Session #%d has nothing to pay", sessionID)
	}

	utils.InfoLogger.Printf("Creating payment link for session %d, amount %s", sessionID, utils.FormatAmount(float64(bill.Amount)))
	now := s.now()
	link, err := s.gateway.CreatePaymentLink(ctx, PaymentLinkRequest{
		OrderCode:   now.UnixMilli(),
		Amount:      bill.Amount,
		Description: fmt.Sprintf("TT %d", sessionID),
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		ExpiredAt:   now.Add(s.linkTTL).Unix(),
	})
	if err != nil {
		utils.ErrorLogger.Errorf("payment link for session %d failed: %v", sessionID, err)
		return nil, utils.WrapBusinessError(err, "Could not create a payment link, please try again")
	}
	return link, nil
}
