package handler

import (
	"balance-transfer-api/config"
	"balance-transfer-api/internal/adapter/http/middleware"
	"balance-transfer-api/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	Cookie         config.CookieConfig
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Mode           string // gin mode; empty means release
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	api := r.Group("/api")
	api.GET("/ping", Ping)

	userHandler := NewUserHandler(deps.AccountSvc, deps.Cookie)
	jwtAuth := middleware.JWTAuth(deps.AccountSvc, deps.Logger)

	users := api.Group("/users")
	{
		// Public
		users.POST("/create", rl("auth_register"), userHandler.Register)
		users.POST("/login", rl("auth_login"), userHandler.Login)
		users.GET("/refresh", rl("auth_refresh"), userHandler.Refresh)

		// Bearer access token
		users.POST("/balance", jwtAuth, rl("balance"), userHandler.Balance)
		users.GET("/balance", jwtAuth, rl("balance"), userHandler.Balance)
		users.PATCH("/transfer", jwtAuth, rl("transfer"), userHandler.Transfer)
	}

	return r
}
