package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/realtime"
)

func TestGuestOrderLifecycle(t *testing.T) {
	app := newTestApp(t)
	app.table(1, models.TableStatusAvailable, "abc")
	dish := app.dish("Nasi Goreng", 25000)
	owner, staffToken := app.account("owner@example.com", models.RoleOwner)

	manager := app.connect("manager-1", models.AuthenticatedIdentity{ID: owner.ID, Role: models.RoleOwner})
	login := app.guestLogin("0900000000", 1, "abc")
	guest := app.connect("guest-1", models.AuthenticatedIdentity{ID: login.Guest.ID, Role: models.RoleGuest})

	code, resp := app.do(http.MethodPost, "/guest/orders", login.AccessToken, gin.H{
		"orders": []gin.H{{"dish_id": dish.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var created []models.Order
	decode(t, resp.Data, &created)
	require.Len(t, created, 1)
	assert.Equal(t, login.Session.ID, created[0].GuestSessionID)
	assert.Equal(t, models.OrderStatusPending, created[0].Status)
	assert.Equal(t, []string{realtime.EventNewOrder}, manager.waitEvents(t, 1))
	assert.Equal(t, []string{realtime.EventNewOrder}, guest.waitEvents(t, 1))

	code, resp = app.do(http.MethodGet, "/guest/orders", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var listed []models.Order
	decode(t, resp.Data, &listed)
	assert.Len(t, listed, 1)

	code, resp = app.do(http.MethodPatch, fmt.Sprintf("/orders/%d", created[0].ID), staffToken, gin.H{
		"status": models.OrderStatusDelivered, "dish_id": dish.ID, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var updated models.Order
	decode(t, resp.Data, &updated)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.HandlerID)
	assert.Equal(t, owner.ID, *updated.HandlerID)
	assert.Equal(t, realtime.EventUpdateOrder, guest.waitEvents(t, 2)[1])

	code, resp = app.do(http.MethodPatch, "/orders/pay", staffToken, gin.H{"guest_session_id": login.Session.ID})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var paid []models.Order
	decode(t, resp.Data, &paid)
	require.Len(t, paid, 1)
	assert.Equal(t, models.OrderStatusPaid, paid[0].Status)
	assert.Equal(t, []string{realtime.EventNewOrder, realtime.EventUpdateOrder, realtime.EventPayment}, manager.waitEvents(t, 3))
	assert.Equal(t, []string{realtime.EventNewOrder, realtime.EventUpdateOrder, realtime.EventPayment}, guest.waitEvents(t, 3))

	code, resp = app.do(http.MethodPatch, "/orders/pay", staffToken, gin.H{"guest_session_id": login.Session.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "has no unpaid orders")
	manager.assertQuiet(t, 3)

	code, resp = app.do(http.MethodPatch, fmt.Sprintf("/orders/%d", created[0].ID), staffToken, gin.H{
		"status": models.OrderStatusPending, "dish_id": dish.ID, "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code, resp.Message)
}

func TestStaffOrdersOnBehalfOfSession(t *testing.T) {
	app := newTestApp(t)
	app.table(2, models.TableStatusAvailable, "tok")
	dish := app.dish("Es Teh", 5000)
	_, staffToken := app.account("staff@example.com", models.RoleEmployee)
	login := app.guestLogin("0911111111", 2, "tok")

	code, resp := app.do(http.MethodPost, "/orders", staffToken, gin.H{
		"guest_session_id": login.Session.ID,
		"orders":           []gin.H{{"dish_id": dish.ID, "quantity": 3, "discount": 1000}},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	code, resp = app.do(http.MethodGet, fmt.Sprintf("/orders/session/%d", login.Session.ID), staffToken, nil)
	require.Equal(t, http.StatusOK, code)
	var orders []models.Order
	decode(t, resp.Data, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, 3, orders[0].Quantity)
	require.NotNil(t, orders[0].DishSnapshot)
	assert.Equal(t, "Es Teh", orders[0].DishSnapshot.Name)

	code, resp = app.do(http.MethodGet, fmt.Sprintf("/orders/%d", orders[0].ID), staffToken, nil)
	assert.Equal(t, http.StatusOK, code, resp.Message)

	code, _ = app.do(http.MethodGet, "/orders/9999", staffToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = app.do(http.MethodGet, "/orders?from_date=2000-01-01", staffToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = app.do(http.MethodGet, "/orders?from_date=yesterday", staffToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestCreateOrderValidation(t *testing.T) {
	app := newTestApp(t)
	app.table(3, models.TableStatusAvailable, "tok")
	dish := app.dish("Sate", 30000)
	login := app.guestLogin("0922222222", 3, "tok")

	tests := []struct {
		name string
		body gin.H
	}{
		{"no lines", gin.H{"orders": []gin.H{}}},
		{"zero quantity", gin.H{"orders": []gin.H{{"dish_id": dish.ID, "quantity": 0}}}},
		{"negative discount", gin.H{"orders": []gin.H{{"dish_id": dish.ID, "quantity": 1, "discount": -5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := app.do(http.MethodPost, "/guest/orders", login.AccessToken, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, code, resp.Message)
			assert.False(t, resp.Status)
		})
	}

	code, _ := app.do(http.MethodPost, "/guest/orders", login.AccessToken, gin.H{
		"orders": []gin.H{{"dish_id": 9999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, code)

	var count int64
	require.NoError(t, app.store.DB().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}
