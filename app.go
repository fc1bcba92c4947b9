package main

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/config"
	"github.com/yeremiapane/table-order/controllers"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/router"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
	"gorm.io/gorm"
)

// application is the wired server: router plus the background pieces main
// has to start and stop.
type application struct {
	router  *gin.Engine
	store   *repository.Store
	hub     *realtime.Hub
	sweeper *services.SessionSweeper
}

func newApplication(cfg *config.Config, db *gorm.DB, mirrors ...realtime.Mirror) *application {
	store := repository.NewStore(db)
	tokens := utils.NewJWTManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	hub := realtime.NewHub(store.Channels, mirrors...)

	// Payment provider
	payOS := services.NewPayOSService(&services.PayOSConfig{
		ClientID:    cfg.PayOSClientID,
		APIKey:      cfg.PayOSAPIKey,
		ChecksumKey: cfg.PayOSChecksumKey,
		BaseURL:     cfg.PayOSBaseURL,
	})
	// without credentials there are no payment links and no webhook to trust
	var (
		gateway  services.PaymentGateway
		webhooks controllers.WebhookVerifier
	)
	if err := payOS.ValidateConfig(); err != nil {
		utils.ErrorLogger.Warnf("PayOS is not configured, online payment is disabled: %v", err)
	} else {
		gateway = payOS
		webhooks = payOS
	}

	snapshots := services.NewSnapshotService()
	sessions := services.NewSessionService(store, tokens, cfg.GuestAccessTokenTTL, cfg.GuestRefreshTokenTTL)
	orders := services.NewOrderService(store, snapshots, hub, services.TablePolicy{
		RejectHiddenForGuest: cfg.RejectHiddenTableForGuest,
		RejectHiddenForStaff: cfg.RejectHiddenTableForStaff,
	})
	payments := services.NewPaymentService(store, hub, gateway, cfg.PaymentLinkExpiresIn)
	auth := services.NewAuthService(store, tokens, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	accounts := services.NewAccountService(store)

	r := router.SetupRouter(router.Dependencies{
		Tokens:             tokens,
		AllowedOrigin:      cfg.ClientURL,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		Auth:               controllers.NewAuthController(auth, accounts),
		Accounts:           controllers.NewAccountController(accounts, hub, hub),
		Guests:             controllers.NewGuestController(sessions, orders, payments, webhooks, hub, cfg.ClientURL),
		Orders:             controllers.NewOrderController(orders, payments, hub),
		Dishes:             controllers.NewDishController(services.NewDishService(store)),
		Tables:             controllers.NewTableController(services.NewTableService(store)),
		Realtime:           controllers.NewRealtimeController(hub, cfg.ClientURL),
	})

	return &application{
		router:  r,
		store:   store,
		hub:     hub,
		sweeper: services.NewSessionSweeper(sessions, store, cfg.SessionSweepInterval),
	}
}
