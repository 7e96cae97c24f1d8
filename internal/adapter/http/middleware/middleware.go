package middleware

import (
	"net/http"
	"strings"
	"time"

	"balance-transfer-api/internal/core/ports"
	"balance-transfer-api/pkg/apperror"
	"balance-transfer-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"

	// Context keys set by JWTAuth
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxBalance  = "balance"

	bearerPrefix = "Bearer "
)

// RequestID propagates the caller's X-Request-ID or generates one, and
// stores it where pkg/response picks it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// JWTAuth verifies the bearer access token and loads its user. The user's
// id, username and current balance are stored in the context.
func JWTAuth(accountSvc ports.AccountService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
			response.Abort(c, apperror.ErrMissingBearer())
			return
		}

		user, err := accountSvc.Authenticate(c.Request.Context(), strings.TrimSpace(authHeader[len(bearerPrefix):]))
		if err != nil {
			if apperror.KindOf(err) == apperror.KindInternal {
				log.Error().Err(err).Msg("failed to authenticate request")
			}
			response.Abort(c, err)
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUsername, user.Username)
		c.Set(CtxBalance, user.Balance)
		c.Next()
	}
}

// RequestLogger writes one line per request once the chain has finished.
// 4xx responses log at warn and 5xx at error.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}

		event := log.WithLevel(level).
			Str("request_id", c.GetString(response.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if username := c.GetString(CtxUsername); username != "" {
			event = event.Str("username", username)
		}
		event.Msg("http request")
	}
}

// Recovery turns a handler panic into a SYS_001 envelope.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error().
				Interface("panic", r).
				Str("request_id", c.GetString(response.RequestIDKey)).
				Str("path", c.Request.URL.Path).
				Msg("handler panicked")
			response.Abort(c, apperror.InternalError(nil))
		}()
		c.Next()
	}
}
