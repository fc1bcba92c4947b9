package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

// WebhookVerifier decodes and authenticates provider callbacks.
type WebhookVerifier interface {
	VerifyWebhook(body []byte) (*services.WebhookPayload, error)
}

// GuestController serves guests at a table and the payment provider callback.
type GuestController struct {
	Sessions  *services.SessionService
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Webhooks  WebhookVerifier
	Notifier  realtime.Notifier
	ClientURL string
}

func NewGuestController(sessions *services.SessionService, orders *services.OrderService, payments *services.PaymentService, webhooks WebhookVerifier, notifier realtime.Notifier, clientURL string) *GuestController {
	return &GuestController{
		Sessions:  sessions,
		Orders:    orders,
		Payments:  payments,
		Webhooks:  webhooks,
		Notifier:  notifier,
		ClientURL: clientURL,
	}
}

// Login tamu di meja menggunakan token meja
func (gc *GuestController) Login(c *gin.Context) {
	var req struct {
		Phone       string `json:"phone" binding:"required,min=2,max=20"`
		TableNumber int    `json:"table_number" binding:"required"`
		Token       string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	result, err := gc.Sessions.Login(c.Request.Context(), services.GuestLoginInput{
		Phone:       req.Phone,
		TableNumber: req.TableNumber,
		TableToken:  req.Token,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successfully", result)
}

func (gc *GuestController) Logout(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	if _, err := gc.Sessions.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logout successfully", nil)
}

func (gc *GuestController) RefreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}
	creds, err := gc.Sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Refresh token successfully", creds)
}

// CreateOrders -> tamu memesan untuk sesinya sendiri
func (gc *GuestController) CreateOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Orders []orderLineRequest `json:"orders" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	session, err := gc.Orders.CurrentSession(ctx, identity.ID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	result, err := gc.Orders.CreateOrders(ctx, identity, session.ID, toOrderLines(req.Orders))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	gc.Notifier.Notify(realtime.EventNewOrder, result.Orders, result.Channel)
	utils.RespondJSON(c, http.StatusCreated, "Orders created successfully", result.Orders)
}

func (gc *GuestController) GetOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	session, err := gc.Orders.CurrentSession(ctx, identity.ID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	orders, err := gc.Orders.SessionOrders(ctx, identity, session.ID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreatePaymentLink -> link pembayaran online untuk order terbuka di sesi
func (gc *GuestController) CreatePaymentLink(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		ReturnURL string `json:"return_url" binding:"omitempty,url"`
		CancelURL string `json:"cancel_url" binding:"omitempty,url"`
	}
	if err := c.ShouldBind(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondBindError(c, err)
		return
	}
	if req.ReturnURL == "" {
		req.ReturnURL = gc.ClientURL
	}
	if req.CancelURL == "" {
		req.CancelURL = gc.ClientURL
	}

	ctx := c.Request.Context()
	session, err := gc.Orders.CurrentSession(ctx, identity.ID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	link, err := gc.Payments.CreatePaymentLink(ctx, identity, session.ID, req.ReturnURL, req.CancelURL)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment link created successfully", link)
}

// ReceiveHook answers the provider with 200 for every business outcome so
// it stops retrying; only a bad signature or an internal failure is not 200.
// Without a verifier no callback is trusted.
func (gc *GuestController) ReceiveHook(c *gin.Context) {
	if gc.Webhooks == nil {
		utils.ErrorLogger.Warn("Webhook rejected: online payment is not configured")
		utils.RespondAppError(c, utils.NewForbiddenError("Online payment is not configured"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("Could not read webhook body"))
		return
	}

	payload, err := gc.Webhooks.VerifyWebhook(body)
	if errors.Is(err, services.ErrInvalidSignature) {
		utils.ErrorLogger.Warnf("Webhook rejected: %v", err)
		utils.RespondAppError(c, utils.NewAuthError("Invalid webhook signature"))
		return
	}
	if err != nil {
		webhookOutcome(c, "error", err.Error(), 0)
		return
	}

	result, err := gc.Payments.ReceiveWebhook(c.Request.Context(), *payload)
	if err != nil {
		if utils.HTTPStatus(err) == http.StatusInternalServerError {
			utils.RespondAppError(c, err)
			return
		}
		utils.InfoLogger.Printf("Webhook not settled: %v", err)
		webhookOutcome(c, "error", err.Error(), 0)
		return
	}

	if result.Status == services.PaymentStatusSuccess {
		gc.Notifier.Notify(realtime.EventPaymentOnline, result.Orders, result.Channel)
	}
	utils.InfoLogger.Printf("Webhook processed: %s (%s)", result.Status, result.Message)
	webhookOutcome(c, result.Status, result.Message, len(result.Orders))
}

func webhookOutcome(c *gin.Context, status, message string, settled int) {
	utils.RespondJSON(c, http.StatusOK, message, gin.H{
		"status":  status,
		"settled": settled,
	})
}
