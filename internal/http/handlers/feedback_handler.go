// Feedback HTTP handlers.
//
// This file exposes the contact-form endpoint:
//   - POST /feedback  (store and relay a customer message to staff)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/services"
)

// FeedbackRequest is the contact-form payload. All fields are required;
// blank values are rejected by the service.
type FeedbackRequest struct {
	Name    string `json:"name"    example:"Анна"`
	Phone   string `json:"phone"   example:"+7 916 123-45-67"`
	Comment string `json:"comment" example:"Хотим на экскурсию в субботу"`
}

// SendFeedback godoc
// @ID          sendFeedback
// @Summary     Send feedback
// @Description Stores a customer message and relays it to the staff Telegram chat.
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Param       body  body     handlers.FeedbackRequest true "Contact form"
// @Success     200   {object} handlers.MessageResponse
// @Failure     400   {object} handlers.ErrorResponse "Missing fields"
// @Failure     429   {object} handlers.ErrorResponse "Too many requests"
// @Failure     502   {object} handlers.ErrorResponse "Relay failed"
// @Failure     500   {object} handlers.ErrorResponse "Internal server error"
// @Router      /feedback [post]
func (h *Handlers) SendFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", "Некорректное тело запроса")
		return
	}

	if _, err := h.Feedback.Send(c.Request.Context(), services.FeedbackInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Comment: req.Comment,
	}); err != nil {
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, MessageResponse{Message: "Feedback sent successfully"})
}
