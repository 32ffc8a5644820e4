package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDKey = "request_id"

// RequestID assigns a correlation id to each request, echoed in the
// X-Request-ID response header and attached to audit rows.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// GetRequestID returns the correlation id set by RequestID.
func GetRequestID(c *gin.Context) string {
	v, _ := c.Get(RequestIDKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
