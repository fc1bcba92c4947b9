package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

type fakeGateway struct {
	requests []PaymentLinkRequest
	err      error
}

func (g *fakeGateway) CreatePaymentLink(_ context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &PaymentLink{
		PaymentLinkID: "link-1",
		CheckoutURL:   "https://pay.example.com/link-1",
		OrderCode:     req.OrderCode,
		Amount:        req.Amount,
		Description:   req.Description,
		Status:        "PENDING",
	}, nil
}

func (g *fakeGateway) VerifyWebhook(body []byte) (*WebhookPayload, error) {
	return nil, errors.New("not used")
}

type paymentFixture struct {
	store    *repository.Store
	orders   *OrderService
	payments *PaymentService
	channels *fakeChannels
	gateway  *fakeGateway
	session  *models.GuestSession
	other    *models.GuestSession
	dish     *models.Dish
}

func setupPayments(t *testing.T) *paymentFixture {
	t.Helper()
	store := setupTestStore(t)
	channels := newFakeChannels()
	gateway := &fakeGateway{}
	f := &paymentFixture{
		store:    store,
		orders:   newTestOrderService(store, channels),
		payments: NewPaymentService(store, channels, gateway, 15*time.Minute),
		channels: channels,
		gateway:  gateway,
	}
	f.session = seedSession(t, store, "0901", seedTable(t, store, 1, models.TableStatusAvailable, "abc"))
	f.other = seedSession(t, store, "0902", seedTable(t, store, 2, models.TableStatusAvailable, "def"))
	f.dish = seedDish(t, store, "Pho", 50000, models.DishStatusAvailable)
	channels.bindGuest(f.session.GuestID, "chan-guest")
	return f
}

func (f *paymentFixture) order(t *testing.T, session *models.GuestSession, lines ...OrderLine) []models.Order {
	t.Helper()
	res, err := f.orders.CreateOrders(context.Background(), guestIdentity(session), session.ID, lines)
	require.NoError(t, err)
	return res.Orders
}

func statusesOf(t *testing.T, store *repository.Store, sessionID uint) []string {
	t.Helper()
	orders, err := store.Orders.WithDetail(context.Background(), repository.OrderFilter{SessionID: &sessionID})
	require.NoError(t, err)
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Status)
	}
	return out
}

func TestSettleSessionIsIdempotent(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	f.order(t, f.session, OrderLine{DishID: f.dish.ID, Quantity: 2}, OrderLine{DishID: f.dish.ID, Quantity: 1})
	f.order(t, f.other, OrderLine{DishID: f.dish.ID, Quantity: 1})

	res, err := f.payments.SettleSession(ctx, f.session.ID, nil)
	require.NoError(t, err)
	assert.Len(t, res.Orders, 2)
	assert.Equal(t, "chan-guest", res.Channel)
	for _, o := range res.Orders {
		assert.Equal(t, models.OrderStatusPaid, o.Status)
	}

	_, err = f.payments.SettleSession(ctx, f.session.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNothingToSettle)
	assert.True(t, utils.IsKind(err, utils.KindBusiness))

	assert.Equal(t, []string{models.OrderStatusPending}, statusesOf(t, f.store, f.other.ID))

	_, err = f.payments.SettleSession(ctx, 999, nil)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestSettleSessionConcurrently(t *testing.T) {
	f := setupPayments(t)
	f.order(t, f.session, OrderLine{DishID: f.dish.ID, Quantity: 2})
	f.order(t, f.session, OrderLine{DishID: f.dish.ID, Quantity: 1})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.payments.SettleSession(context.Background(), f.session.ID, nil)
		}(i)
	}
	wg.Wait()

	var settled, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			settled++
		case errors.Is(err, ErrNothingToSettle):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, refused)
	assert.Equal(t, []string{models.OrderStatusPaid, models.OrderStatusPaid}, statusesOf(t, f.store, f.session.ID))
}

func TestPayOrdersRequiresStaff(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	f.order(t, f.session, OrderLine{DishID: f.dish.ID, Quantity: 1})
	staff := seedAccount(t, f.store, "staff@example.com", models.RoleEmployee)

	_, err := f.payments.PayOrders(ctx, guestIdentity(f.session), f.session.ID)
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	res, err := f.payments.PayOrders(ctx, models.AuthenticatedIdentity{ID: staff.ID, Role: models.RoleEmployee}, f.session.ID)
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	require.NotNil(t, res.Orders[0].HandlerID)
	assert.Equal(t, staff.ID, *res.Orders[0].HandlerID)
}

func TestReceiveWebhook(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	f.order(t, f.session, OrderLine{DishID: f.dish.ID, Quantity: 2}, OrderLine{DishID: f.dish.ID, Quantity: 1})

	description := "TT " + uintString(f.session.ID)

	failed, err := f.payments.ReceiveWebhook(ctx, WebhookPayload{Code: "01", Data: WebhookData{Description: description}})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusFailed, failed.Status)
	assert.Empty(t, failed.Orders)
	assert.Equal(t, []string{models.OrderStatusPending, models.OrderStatusPending}, statusesOf(t, f.store, f.session.ID))

	paid, err := f.payments.ReceiveWebhook(ctx, WebhookPayload{Code: ProviderCodeSuccess, Data: WebhookData{Description: description}})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusSuccess, paid.Status)
	assert.Equal(t, "Paid 2 orders", paid.Message)
	assert.Len(t, paid.Orders, 2)
	assert.Equal(t, "chan-guest", paid.Channel)

	// redelivery of the same event
	again, err := f.payments.ReceiveWebhook(ctx, WebhookPayload{Code: ProviderCodeSuccess, Data: WebhookData{Description: description}})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusNoop, again.Status)
	assert.Empty(t, again.Orders)

	_, err = f.payments.ReceiveWebhook(ctx, WebhookPayload{Code: ProviderCodeSuccess, Data: WebhookData{Description: "no id here"}})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	_, err = f.payments.ReceiveWebhook(ctx, WebhookPayload{Code: ProviderCodeSuccess, Data: WebhookData{Description: "TT 999"}})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestParseSessionID(t *testing.T) {
	tests := []struct {
		description string
		want        uint
		wantErr     bool
	}{
		{description: "TT 5", want: 5},
		{description: "CSRJ8A1B2 TT 42", want: 42},
		{description: "  TT   7  ", want: 7},
		{description: "", wantErr: true},
		{description: "TT", wantErr: true},
		{description: "TT 0", wantErr: true},
		{description: "TT -3", wantErr: true},
		{description: "TT 5x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, err := ParseSessionID(tt.description)
			if tt.wantErr {
				require.Error(t, err)
				appErr, ok := utils.AsAppError(err)
				require.True(t, ok)
				require.Len(t, appErr.Fields, 1)
				assert.Equal(t, "data.description", appErr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBillAndPaymentLink(t *testing.T) {
	f := setupPayments(t)
	ctx := context.Background()
	f.order(t, f.session,
		OrderLine{DishID: f.dish.ID, Quantity: 2, Discount: 5000},
		OrderLine{DishID: f.dish.ID, Quantity: 1},
	)

	bill, err := f.payments.Bill(ctx, guestIdentity(f.session), f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(145000), bill.Amount)
	assert.Len(t, bill.Orders, 2)

	_, err = f.payments.Bill(ctx, guestIdentity(f.other), f.session.ID)
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	link, err := f.payments.CreatePaymentLink(ctx, guestIdentity(f.session), f.session.ID, "https://app/return", "https://app/cancel")
	require.NoError(t, err)
	assert.Equal(t, "link-1", link.PaymentLinkID)
	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, int64(145000), req.Amount)
	assert.Equal(t, "TT "+uintString(f.session.ID), req.Description)
	assert.Equal(t, "https://app/return", req.ReturnURL)
	assert.Greater(t, req.ExpiredAt, time.Now().Unix())

	// the description round-trips through the webhook parser
	id, err := ParseSessionID(req.Description)
	require.NoError(t, err)
	assert.Equal(t, f.session.ID, id)

	f.gateway.err = errors.New("provider down")
	_, err = f.payments.CreatePaymentLink(ctx, guestIdentity(f.session), f.session.ID, "", "")
	assert.True(t, utils.IsKind(err, utils.KindBusiness))

	_, err = f.payments.SettleSession(ctx, f.session.ID, nil)
	require.NoError(t, err)
	_, err = f.payments.Bill(ctx, guestIdentity(f.session), f.session.ID)
	assert.ErrorIs(t, err, ErrNothingToSettle)

	offline := NewPaymentService(f.store, f.channels, nil, time.Minute)
	_, err = offline.CreatePaymentLink(ctx, guestIdentity(f.session), f.session.ID, "", "")
	assert.True(t, utils.IsKind(err, utils.KindBusiness))
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
