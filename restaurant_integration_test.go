package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/config"
	"github.com/yeremiapane/table-order/database"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:                  database.DriverSQLite,
		AccessTokenSecret:         "access-secret",
		RefreshTokenSecret:        "refresh-secret",
		AccessTokenTTL:            15 * time.Minute,
		RefreshTokenTTL:           time.Hour,
		GuestAccessTokenTTL:       15 * time.Minute,
		GuestRefreshTokenTTL:      time.Hour,
		ClientURL:                 "http://localhost:3000",
		PaymentLinkExpiresIn:      15 * time.Minute,
		RejectHiddenTableForGuest: true,
		SessionSweepInterval:      time.Minute,
	}
}

func call(t *testing.T, app *application, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

// TestEndToEndIntegration walks a table visit from guest login to logout:
// order, delivery, payment, a rejected second payment, and the table freed.
func TestEndToEndIntegration(t *testing.T) {
	cfg := testConfig()
	db, err := database.Open(cfg.DBDriver, database.MemoryDSN(t.Name()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedOwner(db, "owner@example.com", "secret123"))

	app := newApplication(cfg, db)
	ctx := context.Background()
	require.NoError(t, app.store.Tables.Create(ctx, &models.Table{
		Number: 1, Capacity: 4, Status: models.TableStatusAvailable, Token: "abc",
	}))

	// staff login
	code, resp := call(t, app, http.MethodPost, "/auth/login", "", gin.H{
		"email": "owner@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var staff struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &staff))

	code, resp = call(t, app, http.MethodPost, "/dishes", staff.AccessToken, gin.H{
		"name": "DishA", "price": 40000,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var dish models.Dish
	require.NoError(t, json.Unmarshal(resp.Data, &dish))

	// guest sits down
	code, resp = call(t, app, http.MethodPost, "/guest/auth/login", "", gin.H{
		"phone": "0900000000", "table_number": 1, "token": "abc",
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var guest struct {
		AccessToken  string              `json:"access_token"`
		RefreshToken string              `json:"refresh_token"`
		Session      models.GuestSession `json:"guest_session"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &guest))

	table, err := app.store.Tables.FindByNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, table.Status)

	code, resp = call(t, app, http.MethodPost, "/guest/orders", guest.AccessToken, gin.H{
		"orders": []gin.H{{"dish_id": dish.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &orders))
	require.Len(t, orders, 1)

	code, resp = call(t, app, http.MethodPatch, fmt.Sprintf("/orders/%d", orders[0].ID), staff.AccessToken, gin.H{
		"status": models.OrderStatusDelivered, "dish_id": dish.ID, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, resp = call(t, app, http.MethodPatch, "/orders/pay", staff.AccessToken, gin.H{
		"guest_session_id": guest.Session.ID,
	})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var paid []models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &paid))
	require.Len(t, paid, 1)
	assert.Equal(t, models.OrderStatusPaid, paid[0].Status)

	code, resp = call(t, app, http.MethodPatch, "/orders/pay", staff.AccessToken, gin.H{
		"guest_session_id": guest.Session.ID,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "has no unpaid orders")

	code, resp = call(t, app, http.MethodPost, "/guest/auth/logout", "", gin.H{
		"refresh_token": guest.RefreshToken,
	})
	require.Equal(t, http.StatusOK, code, resp.Message)

	table, err = app.store.Tables.FindByNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
}
