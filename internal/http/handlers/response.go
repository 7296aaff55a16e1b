package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
)

// ErrorResponse is the body of every non-2xx answer. The storefront shows
// ErrorRu; Code is stable and safe to branch on.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Error     string `json:"error" example:"excursion not found"`
	ErrorRu   string `json:"errorRu" example:"Экскурсия не найдена"`
}

// MessageResponse acknowledges an action that has no resource to return.
type MessageResponse struct {
	Message string `json:"message" example:"Sign in successful"`
}

func fail(c *gin.Context, status int, code, msg, msgRu string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Msg(msg)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Error:     msg,
		ErrorRu:   msgRu,
	})
}

// Fail writes the error envelope. The router uses it for 404 and 405.
func Fail(c *gin.Context, status int, code, msg, msgRu string) { fail(c, status, code, msg, msgRu) }

// failErr answers err through mapError. The cause of a 5xx is logged; the
// client only sees the generic text.
func failErr(c *gin.Context, err error) {
	m := mapError(err)
	if m.cause != nil && m.status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(m.cause).Str("code", m.code).Msg("request failed")
	}
	fail(c, m.status, m.code, m.msg, m.msgRu)
}

func badRequest(c *gin.Context, msg, msgRu string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg, msgRu)
}

func ok(c *gin.Context, status int, body any) { c.JSON(status, body) }
