package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/controllers"
	"github.com/yeremiapane/table-order/middlewares"
	"github.com/yeremiapane/table-order/models"
)

// Dependencies is everything the route table needs.
type Dependencies struct {
	Tokens             middlewares.AccessTokenParser
	AllowedOrigin      string
	RateLimitPerSecond int

	Auth     *controllers.AuthController
	Accounts *controllers.AccountController
	Guests   *controllers.GuestController
	Orders   *controllers.OrderController
	Dishes   *controllers.DishController
	Tables   *controllers.TableController
	Realtime *controllers.RealtimeController
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.AllowedOrigin))
	if deps.RateLimitPerSecond > 0 {
		r.Use(middlewares.NewRateLimiter(deps.RateLimitPerSecond, deps.RateLimitPerSecond*2).RateLimit())
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authRequired := middlewares.AuthMiddleware(deps.Tokens)
	staffOnly := middlewares.RequireStaff()
	ownerOnly := middlewares.RequireRoles(models.RoleOwner)
	guestOnly := middlewares.RequireRoles(models.RoleGuest)
	loginLimiter := middlewares.NewStrictRateLimiter().RateLimit()

	// Staff auth
	auth := r.Group("/auth")
	{
		auth.POST("/login", loginLimiter, deps.Auth.Login)
		auth.POST("/logout", deps.Auth.Logout)
		auth.POST("/refresh-token", deps.Auth.RefreshToken)
	}

	// Guest
	guest := r.Group("/guest")
	{
		guest.POST("/auth/login", loginLimiter, deps.Guests.Login)
		guest.POST("/auth/logout", deps.Guests.Logout)
		guest.POST("/auth/refresh-token", deps.Guests.RefreshToken)

		guestOrders := guest.Group("/orders", authRequired, guestOnly)
		{
			guestOrders.POST("", deps.Guests.CreateOrders)
			guestOrders.GET("", deps.Guests.GetOrders)
			guestOrders.POST("/payment-link", deps.Guests.CreatePaymentLink)
		}

		// Provider callback, authenticated by signature
		guest.POST("/orders/receive-hook",
			middlewares.WebhookRateLimiter(20, 40),
			middlewares.LimitWebhookBody(),
			middlewares.LogWebhookRequest(),
			deps.Guests.ReceiveHook,
		)
	}

	// Orders (staff)
	orders := r.Group("/orders", authRequired, staffOnly)
	{
		orders.GET("", deps.Orders.GetAllOrders)
		orders.POST("", deps.Orders.CreateOrder)
		orders.GET("/session/:session_id", deps.Orders.GetSessionOrders)
		orders.PATCH("/pay", deps.Orders.PayOrders)
		orders.GET("/:id", deps.Orders.GetOrderByID)
		orders.PATCH("/:id", deps.Orders.UpdateOrder)
	}

	// Dishes: public read, staff write
	dishes := r.Group("/dishes")
	{
		dishes.GET("", middlewares.OptionalAuthMiddleware(deps.Tokens), deps.Dishes.GetAllDishes)
		dishes.GET("/:id", middlewares.OptionalAuthMiddleware(deps.Tokens), deps.Dishes.GetDish)
		dishes.POST("", authRequired, staffOnly, deps.Dishes.CreateDish)
		dishes.PUT("/:id", authRequired, staffOnly, deps.Dishes.UpdateDish)
		dishes.DELETE("/:id", authRequired, staffOnly, deps.Dishes.DeleteDish)
	}

	tables := r.Group("/tables", authRequired, staffOnly)
	{
		tables.GET("", deps.Tables.GetAllTables)
		tables.POST("", deps.Tables.CreateTable)
		tables.GET("/:number", deps.Tables.GetTable)
		tables.PUT("/:number", deps.Tables.UpdateTable)
		tables.DELETE("/:number", deps.Tables.DeleteTable)
	}

	accounts := r.Group("/accounts", authRequired)
	{
		accounts.GET("/me", staffOnly, deps.Auth.GetProfile)
		accounts.GET("", ownerOnly, deps.Accounts.List)
		accounts.POST("", ownerOnly, deps.Accounts.Create)
		accounts.PUT("/:id", ownerOnly, deps.Accounts.Update)
		accounts.DELETE("/:id", ownerOnly, deps.Accounts.Delete)
	}

	// WebSocket
	r.GET("/ws", middlewares.WebSocketAuthMiddleware(deps.Tokens), deps.Realtime.Connect)

	return r
}
