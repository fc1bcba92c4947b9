package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/realtime"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/utils"
)

// AccountController is Owner-only staff management. Role changes and
// deletions are pushed to the affected account's own channel.
type AccountController struct {
	Accounts *services.AccountService
	Notifier realtime.Notifier
	Channels realtime.ChannelResolver
}

func NewAccountController(accounts *services.AccountService, notifier realtime.Notifier, channels realtime.ChannelResolver) *AccountController {
	return &AccountController{Accounts: accounts, Notifier: notifier, Channels: channels}
}

func (ac *AccountController) List(c *gin.Context) {
	accounts, err := ac.Accounts.List(c.Request.Context())
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of accounts", accounts)
}

func (ac *AccountController) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Avatar   string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	account, err := ac.Accounts.CreateEmployee(c.Request.Context(), services.CreateAccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("New employee account created: %s", account.Email)
	utils.RespondJSON(c, http.StatusCreated, "Account created successfully", account)
}

func (ac *AccountController) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Avatar   *string `json:"avatar"`
		Password *string `json:"password" binding:"omitempty,min=6"`
		Role     *string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	account, roleChanged, err := ac.Accounts.Update(ctx, id, services.UpdateAccountInput{
		Name:     req.Name,
		Avatar:   req.Avatar,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if roleChanged {
		// the client must fetch tokens carrying the new role
		ac.Notifier.SendTo(realtime.EventRefreshToken, account, ac.Channels.AccountChannel(ctx, account.ID))
	}
	utils.RespondJSON(c, http.StatusOK, "Account updated successfully", account)
}

func (ac *AccountController) Delete(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	channel := ac.Channels.AccountChannel(ctx, id)
	account, err := ac.Accounts.Delete(ctx, identity, id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	ac.Notifier.SendTo(realtime.EventLogout, account, channel)
	utils.InfoLogger.Printf("Account %s deleted by account %d", account.Email, identity.ID)
	utils.RespondJSON(c, http.StatusOK, "Account deleted successfully", account)
}
