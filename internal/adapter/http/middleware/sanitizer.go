package middleware

import (
	"net/http"

	"balance-transfer-api/pkg/apperror"
	"balance-transfer-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaxBodySize rejects requests whose declared Content-Length exceeds
// maxBytes and caps the body reader for the rest, so binding a larger
// streamed body fails.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.Header("Connection", "close")
			response.Abort(c, apperror.ErrBodyTooLarge())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
