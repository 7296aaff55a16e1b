package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/services"
)

// TokenVerifier validates a staff session token.
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

// RequireStaff rejects requests that do not carry a valid session cookie.
//
// A missing cookie and an invalid or expired token both yield 401 with the
// error envelope. On success the claims are stored in the Gin context and the
// user id becomes visible to the access log and the rate limiter.
func RequireStaff(v TokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			abortUnauthorized(c)
			return
		}
		claims, err := v.Verify(token)
		if err != nil {
			LoggerFrom(c).Info().Err(err).Msg("staff token rejected")
			abortUnauthorized(c)
			return
		}
		c.Set(ctxKeyClaims, claims)
		c.Set(userIDKey, strconv.FormatUint(uint64(claims.UserID), 10))
		c.Next()
	}
}

// StaffFrom returns the claims stored by RequireStaff.
func StaffFrom(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}

func abortUnauthorized(c *gin.Context) {
	e := services.ErrUnauthorized.(services.Localized)
	abortWithError(c, http.StatusUnauthorized, "unauthorized", e.Message(), e.MessageRu())
}
