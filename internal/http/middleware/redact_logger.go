package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RedactOptions lists extra headers whose values are replaced entirely.
// Authorization, Cookie and Set-Cookie are always masked.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Russian numbers as customers type them, raw or URL-encoded:
	// "+7 (916) 123-45-67", "89161234567", "%2B7%20916...".
	ruPhoneRE = regexp.MustCompile(`(?i)(?:\+|%2B)?[78](?:[\s()\-]|%20|%28|%29)*\d{3}(?:[\s()\-]|%20|%28|%29)*\d{3}(?:[\s\-]|%20)*\d{2}(?:[\s\-]|%20)*\d{2}`)
	// Digits only, so UUID hex groups never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs identifiers from s. UUIDs go first so the phone patterns
// cannot eat their digit groups.
func redact(s string) string {
	if s == "" {
		return s
	}
	out := uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	out = ruPhoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	return phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
}

// RedactingLogger is Logger for production: customer phones arrive in payment
// and feedback traffic and staff sessions in the auth cookie, so the access
// line carries the query and request headers only after scrubbing. Masked
// headers read "[REDACTED]"; other values have UUIDs, emails and phone
// numbers replaced by typed placeholders. Bodies are never logged.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]bool{"authorization": true, "cookie": true, "set-cookie": true}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = true
		}
	}

	return accessLog{
		msg: "http_request",
		after: func(c *gin.Context, ev *zerolog.Event) *zerolog.Event {
			headers := make(map[string]string, len(c.Request.Header))
			for k, vv := range c.Request.Header {
				if masked[strings.ToLower(k)] {
					headers[k] = "[REDACTED]"
					continue
				}
				headers[k] = redact(strings.Join(vv, ", "))
			}
			return ev.
				Str("query", truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)).
				Interface("headers", headers)
		},
	}.handler()
}
