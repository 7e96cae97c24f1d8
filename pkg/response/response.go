package response

import (
	"errors"
	"net/http"
	"time"

	"balance-transfer-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the current request ID.
const RequestIDKey = "request_id"

// Meta is attached to every envelope.
type Meta struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// SuccessResponse wraps a handler result as {"data": ...}.
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta
}

// ErrorResponse carries the client-facing part of an AppError.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Meta
}

var unknownError = &apperror.AppError{
	Kind:       apperror.KindInternal,
	Code:       "SYS_000",
	Message:    "Internal server error",
	HTTPStatus: http.StatusInternalServerError,
}

// OK writes a 200 envelope around data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Data: data, Meta: meta(c)})
}

// Error writes err as an error envelope. Anything that is not an
// *apperror.AppError becomes a generic 500; wrapped causes never reach the
// client.
func Error(c *gin.Context, err error) {
	appErr := unknownError
	var target *apperror.AppError
	if errors.As(err, &target) {
		appErr = target
	}

	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Meta:      meta(c),
	})
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func meta(c *gin.Context) Meta {
	return Meta{
		RequestID: requestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// requestID falls back to a fresh UUID when the RequestID middleware did not run.
func requestID(c *gin.Context) string {
	if s := c.GetString(RequestIDKey); s != "" {
		return s
	}
	return uuid.New().String()
}
