// Payment HTTP handlers.
//
//   - POST /payment              (verify the excursion key and create a payment)
//   - GET  /payment/{paymentId}  (query the gateway for the payment state)
//
// POST /payment honours an optional Idempotency-Key header. A retry with the
// same key and the same body replays the stored confirmation URL without a
// second gateway call; the same key with a different body is a conflict.
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-excursion-backend/internal/gateway/yookassa"
	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
	"github.com/tbourn/go-excursion-backend/internal/services"
)

// HeaderIdempotencyReplayed marks a response served from a stored record.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// PaymentRequest is the body of POST /payment. The amount may be sent as a
// JSON number or string and must have at most two decimal places.
type PaymentRequest struct {
	Amount       decimal.Decimal `json:"amount"       swaggertype:"string" example:"1500.00"`
	Phone        string          `json:"phone"        example:"+7 (916) 123-45-67"`
	ExcursionID  uint            `json:"excursionId"  example:"12"`
	ExcursionKey string          `json:"excursionKey" example:"0123456789"`
}

// PaymentResponse carries the page the customer must visit to pay.
type PaymentResponse struct {
	ConfirmationURL string `json:"confirmationUrl" example:"https://yoomoney.ru/checkout/payments/v2/contract?orderId=2c7a"`
}

// PaymentStatusResponse is the local view of a gateway payment.
type PaymentStatusResponse struct {
	Status yookassa.Status `json:"status" swaggertype:"string" enums:"pending,paid,failed" example:"paid"`
	Paid   bool            `json:"paid"   example:"true"`
}

// CreatePayment godoc
// @ID          createPayment
// @Summary     Create a payment
// @Description Verifies the excursion key and creates a YooKassa payment. Returns the confirmation URL.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Client retry key" maxlength(200)
// @Param       body  body     handlers.PaymentRequest true "Payment request"
// @Success     200   {object} handlers.PaymentResponse
// @Failure     400   {object} handlers.ErrorResponse "Missing fields, bad amount, phone or key"
// @Failure     404   {object} handlers.ErrorResponse "Excursion not found"
// @Failure     409   {object} handlers.ErrorResponse "Idempotency key reused with a different body"
// @Failure     429   {object} handlers.ErrorResponse "Too many requests"
// @Failure     500   {object} handlers.ErrorResponse
// @Failure     502   {object} handlers.ErrorResponse "Payment service unavailable"
// @Router      /payment [post]
func (h *Handlers) CreatePayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", "Некорректное тело запроса")
		return
	}

	ctx := c.Request.Context()
	key, hasKey := middleware.GetIdempotencyKey(c)
	hasKey = hasKey && h.Idempotency != nil
	scope := middleware.IdempotencyScope(c)
	fp := paymentFingerprint(req)

	if hasKey {
		rec, err := h.Idempotency.Get(ctx, scope, key, h.now().UTC())
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if rec != nil {
			if rec.Fingerprint != fp {
				fail(c, http.StatusConflict, ErrCodeIdempotencyReuse,
					"Idempotency-Key was already used with a different request",
					"Ключ Idempotency-Key уже использован для другого запроса")
				return
			}
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, rec.Status, PaymentResponse{ConfirmationURL: rec.ConfirmationURL})
			return
		}
	}

	url, err := h.Payments.CreatePayment(ctx, services.PaymentInput{
		Amount:       req.Amount,
		Phone:        req.Phone,
		ExcursionID:  req.ExcursionID,
		ExcursionKey: req.ExcursionKey,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	if hasKey {
		if _, err := h.Idempotency.Create(ctx, scope, key, fp, url, http.StatusOK, h.opt.IdempotencyTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("failed to store idempotency record")
		}
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, PaymentResponse{ConfirmationURL: url})
}

// GetPaymentStatus godoc
// @ID          getPaymentStatus
// @Summary     Get payment status
// @Description Asks the gateway for the current state of a payment. Not cached.
// @Tags        Payments
// @Produce     json
// @Param       paymentId path     string true "Gateway payment id"
// @Success     200       {object} handlers.PaymentStatusResponse
// @Failure     400       {object} handlers.ErrorResponse
// @Failure     404       {object} handlers.ErrorResponse "Unknown payment"
// @Failure     502       {object} handlers.ErrorResponse
// @Router      /payment/{paymentId} [get]
func (h *Handlers) GetPaymentStatus(c *gin.Context) {
	st, err := h.Payments.PaymentStatus(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	ok(c, http.StatusOK, PaymentStatusResponse{Status: st, Paid: st == yookassa.StatusPaid})
}

// paymentFingerprint hashes the fields that define a payment request. Amounts
// are compared by value, so 1500 and "1500.00" match.
func paymentFingerprint(r PaymentRequest) string {
	parts := []string{
		r.Amount.String(),
		strings.TrimSpace(r.Phone),
		strconv.FormatUint(uint64(r.ExcursionID), 10),
		r.ExcursionKey,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
