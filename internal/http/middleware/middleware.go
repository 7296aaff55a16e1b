// Package middleware holds the Gin middleware of the excursion API: request
// correlation, access logging, panic recovery, metrics, staff sessions,
// Idempotency-Key validation, rate limiting and security headers.
//
// Every rejection written here uses the same bilingual envelope as the
// handlers: {request_id, code, error, errorRu}.
package middleware

import (
	"github.com/gin-gonic/gin"
)

// Gin context keys shared between the middleware in this package.
const (
	requestIDKey     = "requestID"
	loggerKey        = "logger"
	userIDKey        = "userID"      // staff user id, decimal string
	ctxKeyClaims     = "auth.claims" // *services.Claims
	ctxKeyIdemKey    = "idem.key"
	ctxKeyRateBypass = "rate.bypass"
)

const requestIDHeader = "X-Request-ID"

// unmatchedPath labels requests that matched no route.
const unmatchedPath = "unmatched"

// abortWithError stops the chain with the standard error envelope.
func abortWithError(c *gin.Context, status int, code, msg, msgRu string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       code,
		"error":      msg,
		"errorRu":    msgRu,
	})
}

// RequestIDFrom prefers the id stored by RequestID, then the response header,
// then the inbound header.
func RequestIDFrom(c *gin.Context) string {
	if rid := c.GetString(requestIDKey); rid != "" {
		return rid
	}
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		return rid
	}
	return c.GetHeader(requestIDHeader)
}

// routeLabel is the matched route template, or "unmatched".
func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedPath
}
