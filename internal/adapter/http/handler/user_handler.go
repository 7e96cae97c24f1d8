package handler

import (
	"net/http"
	"time"

	"balance-transfer-api/config"
	"balance-transfer-api/internal/adapter/http/dto"
	"balance-transfer-api/internal/adapter/http/middleware"
	"balance-transfer-api/internal/core/domain"
	"balance-transfer-api/internal/core/ports"
	"balance-transfer-api/pkg/apperror"
	"balance-transfer-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler handles the /api/users endpoints.
type UserHandler struct {
	accountSvc ports.AccountService
	cookie     config.CookieConfig
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accountSvc ports.AccountService, cookie config.CookieConfig) *UserHandler {
	return &UserHandler{accountSvc: accountSvc, cookie: cookie}
}

// Register handles POST /api/users/create.
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	pair, err := h.accountSvc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, pair)
	response.OK(c, pair.AccessToken)
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	pair, err := h.accountSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, pair)
	response.OK(c, pair.AccessToken)
}

// Refresh handles GET /api/users/refresh. The refresh token comes from the
// cookie set at login.
func (h *UserHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(h.cookie.Name)
	if err != nil {
		token = ""
	}

	access, err := h.accountSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, access)
}

// Balance handles GET and POST /api/users/balance for the authenticated user.
func (h *UserHandler) Balance(c *gin.Context) {
	balance, err := h.accountSvc.GetBalance(c.Request.Context(), c.GetString(middleware.CtxUsername))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, balance)
}

// Transfer handles PATCH /api/users/transfer.
func (h *UserHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	transfer := ports.TransferRequest{
		Sender:    c.GetString(middleware.CtxUsername),
		Recipient: req.Recipient,
		Amount:    req.Amount,
	}
	if v, ok := c.Get(middleware.CtxBalance); ok {
		if snapshot, ok := v.(int64); ok {
			transfer.BalanceSnapshot = &snapshot
		}
	}

	balance, err := h.accountSvc.Transfer(c.Request.Context(), transfer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, balance)
}

func (h *UserHandler) setRefreshCookie(c *gin.Context, pair *domain.TokenPair) {
	maxAge := int(time.Until(pair.RefreshExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, pair.RefreshToken, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}
