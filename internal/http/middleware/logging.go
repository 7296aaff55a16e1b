package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxQueryLogLength caps the logged raw query, in bytes.
const maxQueryLogLength = 2048

// RequestID reuses the inbound X-Request-ID or generates a UUID, echoes it on
// the response and stores it in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// accessLog is the shared body of Logger and RedactingLogger. before adds
// request fields to the scoped logger; after adds fields to the final line.
type accessLog struct {
	msg    string
	before func(c *gin.Context, ctx zerolog.Context) zerolog.Context
	after  func(c *gin.Context, ev *zerolog.Event) *zerolog.Event
}

func (a accessLog) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		lc := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", routeOrURL(c))
		if a.before != nil {
			lc = a.before(c, lc)
		}
		l := lc.Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		if uid := c.GetString(userIDKey); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		ev = ev.
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start))
		if a.after != nil {
			ev = a.after(c, ev)
		}
		ev.Msg(a.msg)
	}
}

// Logger writes one access line per request and attaches a request-scoped
// logger to the Gin context and to the request context (zerolog.Ctx), so
// services log with the same request_id. The line is ERROR for 5xx or when
// handlers recorded errors, WARN for 4xx, INFO otherwise.
//
// Place after RequestID.
func Logger() gin.HandlerFunc {
	return accessLog{
		msg: "request",
		before: func(c *gin.Context, lc zerolog.Context) zerolog.Context {
			return lc.
				Str("remote_ip", c.ClientIP()).
				Str("user_agent", c.Request.UserAgent()).
				Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
				Int64("bytes_in", c.Request.ContentLength)
		},
	}.handler()
}

// Recovery turns a panic into a logged stack trace and, when nothing was
// written yet, a JSON 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			abortWithError(c, http.StatusInternalServerError, "internal_error",
				"internal server error", "Внутренняя ошибка сервера")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or one carrying only the
// request id when no access logger ran.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Str("request_id", RequestIDFrom(c)).Logger()
	return &l
}

func routeOrURL(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// truncate cuts s to max bytes plus an ellipsis; max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
