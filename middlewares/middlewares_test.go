package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = utils.NewJWTManager("access", "refresh")

func identityHandler(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"anonymous": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": identity.ID, "role": identity.Role})
}

func token(t *testing.T, id uint, role string) string {
	t.Helper()
	tok, err := testJWT.GenerateAccessToken(id, role, time.Minute)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testJWT), identityHandler)

	w := do(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "clear_session")

	w = do(r, http.MethodGet, "/me", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	refresh, err := testJWT.GenerateRefreshToken(3, models.RoleOwner, time.Now().Add(time.Hour))
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/me", "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", "Bearer "+token(t, 3, models.RoleOwner))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"role":"Owner"}`, w.Body.String())
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/dishes", OptionalAuthMiddleware(testJWT), identityHandler)

	w := do(r, http.MethodGet, "/dishes", "")
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/dishes", "Bearer garbage")
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/dishes", "Bearer "+token(t, 2, models.RoleEmployee))
	assert.JSONEq(t, `{"id":2,"role":"Employee"}`, w.Body.String())
}

func TestRequireRoles(t *testing.T) {
	r := gin.New()
	r.GET("/staff", AuthMiddleware(testJWT), RequireStaff(), identityHandler)
	r.GET("/owner", AuthMiddleware(testJWT), RequireRoles(models.RoleOwner), identityHandler)
	r.GET("/guest", AuthMiddleware(testJWT), RequireRoles(models.RoleGuest), identityHandler)

	tests := []struct {
		path string
		role string
		want int
	}{
		{"/staff", models.RoleOwner, http.StatusOK},
		{"/staff", models.RoleEmployee, http.StatusOK},
		{"/staff", models.RoleGuest, http.StatusForbidden},
		{"/owner", models.RoleOwner, http.StatusOK},
		{"/owner", models.RoleEmployee, http.StatusForbidden},
		{"/guest", models.RoleGuest, http.StatusOK},
		{"/guest", models.RoleOwner, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.role, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, "Bearer "+token(t, 1, tt.role))
			assert.Equal(t, tt.want, w.Code)
		})
	}

	// without AuthMiddleware in front
	bare := gin.New()
	bare.GET("/x", RequireStaff(), identityHandler)
	assert.Equal(t, http.StatusUnauthorized, do(bare, http.MethodGet, "/x", "").Code)
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/ws", WebSocketAuthMiddleware(testJWT), identityHandler)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/ws?token=bad", "").Code)

	w := do(r, http.MethodGet, "/ws?token="+token(t, 5, models.RoleGuest), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5,"role":"Guest"}`, w.Body.String())

	w = do(r, http.MethodGet, "/ws", "Bearer "+token(t, 6, models.RoleEmployee))
	assert.JSONEq(t, `{"id":6,"role":"Employee"}`, w.Body.String())
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("http://localhost:3000"), SecurityHeaders())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := do(r, http.MethodOptions, "/ping", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	r := gin.New()
	r.GET("/x", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestStrictRateLimiterKeepsState(t *testing.T) {
	rl := NewStrictRateLimiter()
	r := gin.New()
	r.POST("/login", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		codes = append(codes, do(r, http.MethodPost, "/login", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, codes[5])
	for _, code := range codes[:5] {
		assert.Equal(t, http.StatusOK, code)
	}
}

func TestWebhookRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/hook", WebhookRateLimiter(1, 1), LimitWebhookBody(), LogWebhookRequest(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/hook", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/hook", "").Code)
}
