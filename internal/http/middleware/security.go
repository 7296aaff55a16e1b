package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// defaultHSTSMaxAge is used when SecurityOptions.HSTSMaxAge is not positive.
const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions selects the headers SecurityHeaders adds on top of the
// baseline (nosniff, frame denial, no referrer).
type SecurityOptions struct {
	EnableHSTS     bool          // only honoured for HTTPS requests
	HSTSMaxAge     time.Duration // default 180 days
	NoStore        bool          // keys, payment links and sessions
	EnablePolicy   bool          // Permissions-Policy and cross-domain policy
	ResourcePolicy string        // Cross-Origin-Resource-Policy value
}

// SecurityHeaders hardens JSON responses. The router installs it globally
// and again per route: with NoStore on sign-in, key generation and payment
// endpoints, and with ResourcePolicy "cross-origin" on /uploads so the
// storefront can embed catalog images.
//
// Strict-Transport-Security is sent only when the request arrived over TLS
// or through a proxy that set X-Forwarded-Proto: https.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	static := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		static = append(static,
			[2]string{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			[2]string{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}
	if opt.ResourcePolicy != "" {
		static = append(static, [2]string{"Cross-Origin-Resource-Policy", opt.ResourcePolicy})
	}
	if opt.NoStore {
		static = append(static,
			[2]string{"Cache-Control", "no-store"},
			[2]string{"Pragma", "no-cache"},
			[2]string{"Expires", "0"},
		)
	}

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv[0], kv[1])
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
