package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID  = "X-Request-ID"
	contextRequestID = "request_id"
)

// Caller supplied ids end up in logs and response headers, so only short
// token-like values are echoed back.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// RequestID tags each request with an id, reusing the caller's X-Request-ID
// when it is well formed.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(contextRequestID, id)
		c.Header(headerRequestID, id)

		c.Next()
	}
}

// RequestIDFrom returns the id RequestID assigned, or "" outside that middleware.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextRequestID)
}
