package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

// OrderController is the staff side of ordering and settlement.
type OrderController struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
	Notifier realtime.Notifier
}

func NewOrderController(orders *services.OrderService, payments *services.PaymentService, notifier realtime.Notifier) *OrderController {
	return &OrderController{Orders: orders, Payments: payments, Notifier: notifier}
}

type orderLineRequest struct {
	DishID   uint    `json:"dish_id" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Discount float64 `json:"discount" binding:"gte=0"`
}

func toOrderLines(reqs []orderLineRequest) []services.OrderLine {
	lines := make([]services.OrderLine, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, services.OrderLine{DishID: r.DishID, Quantity: r.Quantity, Discount: r.Discount})
	}
	return lines
}

// GetAllOrders -> orders dalam rentang tanggal, terbaru dulu
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	from, ok := dateQuery(c, "from_date", false)
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to_date", true)
	if !ok {
		return
	}

	orders, err := oc.Orders.OrdersWithDetail(c.Request.Context(), repository.OrderFilter{From: from, To: to})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// CreateOrder -> staff memesan atas nama sesi tamu
func (oc *OrderController) CreateOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		GuestSessionID uint               `json:"guest_session_id" binding:"required"`
		Orders         []orderLineRequest `json:"orders" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	result, err := oc.Orders.CreateOrders(c.Request.Context(), identity, req.GuestSessionID, toOrderLines(req.Orders))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	oc.Notifier.Notify(realtime.EventNewOrder, result.Orders, result.Channel)
	utils.RespondJSON(c, http.StatusCreated, "Orders created successfully", result.Orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order retrieved successfully", order)
}

func (oc *OrderController) GetSessionOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	sessionID, ok := uintParam(c, "session_id")
	if !ok {
		return
	}
	orders, err := oc.Orders.SessionOrders(c.Request.Context(), identity, sessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of session orders", orders)
}

// UpdateOrder -> ubah status/dish/quantity, order Paid tidak bisa diubah
func (oc *OrderController) UpdateOrder(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status   string `json:"status" binding:"required"`
		DishID   uint   `json:"dish_id" binding:"required"`
		Quantity int    `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	result, err := oc.Orders.UpdateOrder(c.Request.Context(), identity, id, services.UpdateOrderInput{
		Status:   req.Status,
		DishID:   req.DishID,
		Quantity: req.Quantity,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	order := result.Orders[0]
	oc.Notifier.Notify(realtime.EventUpdateOrder, order, result.Channel)
	utils.RespondJSON(c, http.StatusOK, "Order updated successfully", order)
}

// PayOrders -> staff menerima pembayaran semua order terbuka di sesi
func (oc *OrderController) PayOrders(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		GuestSessionID uint `json:"guest_session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	result, err := oc.Payments.PayOrders(c.Request.Context(), identity, req.GuestSessionID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	oc.Notifier.Notify(realtime.EventPayment, result.Orders, result.Channel)
	utils.RespondJSON(c, http.StatusOK, "Paid orders successfully", result.Orders)
}
