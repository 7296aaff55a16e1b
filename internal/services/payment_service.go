// Package services – PaymentService
//
// This file implements the booking-payment coordinator. A payment is created
// only for a customer who presents the excursion's current key. Validation
// short-circuits in a fixed order:
//
//  1. required fields (ErrMissingFields) and amount precision (ErrInvalidAmount)
//  2. phone normalization (ErrInvalidPhoneFormat)
//  3. excursion lookup (ErrCatalogItemNotFound)
//  4. key equality (ErrInvalidKey)
//
// Only then is the gateway called, exactly once, with a fresh idempotence key.
// Failed gateway calls are not retried here; a client retry is a new logical
// attempt and gets its own key.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/config"
	"github.com/tbourn/go-excursion-backend/internal/gateway/yookassa"
	"github.com/tbourn/go-excursion-backend/internal/repo"
)

// Receipt constants for a single prepaid excursion seat.
const (
	receiptQuantity       = "1"
	receiptPaymentMode    = "full_prepayment"
	receiptPaymentSubject = "service"
	confirmationRedirect  = "redirect"
)

// PaymentGateway is the payment provider used by PaymentService.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req yookassa.PaymentRequest, idempotenceKey string) (*yookassa.Payment, error)
	GetPayment(ctx context.Context, id string) (*yookassa.Payment, error)
}

// PaymentInput is a customer's request to pay for an excursion.
type PaymentInput struct {
	Amount       decimal.Decimal
	Phone        string
	ExcursionID  uint
	ExcursionKey string
}

// PaymentService validates payment requests against the catalog and creates
// payments on the gateway.
type PaymentService struct {
	DB      *gorm.DB
	Store   CatalogStore
	Gateway PaymentGateway

	Currency    string
	Description string
	VatCode     int
	ReturnURL   string

	// NewIdempotenceKey returns a token unique per gateway call. Nil uses
	// uuid.NewString.
	NewIdempotenceKey func() string
}

// NewPaymentService builds a PaymentService from payment configuration. The
// return URL is resolved once for appEnv.
func NewPaymentService(db *gorm.DB, store CatalogStore, gw PaymentGateway, cfg config.PaymentConfig, appEnv string) *PaymentService {
	return &PaymentService{
		DB:          db,
		Store:       store,
		Gateway:     gw,
		Currency:    cfg.Currency,
		Description: cfg.Description,
		VatCode:     cfg.VatCode,
		ReturnURL:   cfg.ReturnURL(appEnv),
	}
}

// CreatePayment validates in and creates a payment, returning only the
// gateway's confirmation URL.
func (s *PaymentService) CreatePayment(ctx context.Context, in PaymentInput) (string, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "CreatePayment",
		trace.WithAttributes(attribute.Int("excursion.id", int(in.ExcursionID))),
	)
	defer span.End()

	url, err := s.createPayment(ctx, in)
	if err != nil {
		paymentsCreated.WithLabelValues(paymentOutcome(err)).Inc()
		var ge *GatewayError
		if errors.As(err, &ge) || errors.Is(err, ErrInternal) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			zerolog.Ctx(ctx).Error().Err(err).Uint("excursion_id", in.ExcursionID).Msg("payment creation failed")
		}
		return "", err
	}
	paymentsCreated.WithLabelValues("created").Inc()
	return url, nil
}

func (s *PaymentService) createPayment(ctx context.Context, in PaymentInput) (string, error) {
	// 1) Required fields and amount.
	if in.ExcursionID == 0 || strings.TrimSpace(in.ExcursionKey) == "" || strings.TrimSpace(in.Phone) == "" || !in.Amount.IsPositive() {
		return "", ErrMissingFields
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return "", ErrInvalidAmount
	}

	// 2) Phone.
	phone, ok := FormatPhone(in.Phone)
	if !ok {
		return "", ErrInvalidPhoneFormat
	}

	// 3) Excursion.
	stored, err := s.Store.FindKeyByItemID(ctx, s.DB, in.ExcursionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrCatalogItemNotFound
		}
		return "", fmt.Errorf("%w: find excursion: %v", ErrInternal, err)
	}

	// 4) Key.
	if stored == nil || *stored != in.ExcursionKey {
		return "", ErrInvalidKey
	}

	// 5) Payload.
	req := s.buildRequest(in.ExcursionID, in.Amount, phone)

	// 6) One gateway call with a fresh token.
	newKey := s.NewIdempotenceKey
	if newKey == nil {
		newKey = uuid.NewString
	}
	payment, err := s.Gateway.CreatePayment(ctx, req, newKey())
	if err != nil {
		return "", classifyGatewayError(err)
	}

	// 7) Confirmation URL only.
	url := payment.ConfirmationURL()
	if url == "" {
		return "", &GatewayError{
			Kind:        GatewayRejected,
			StatusCode:  http.StatusBadGateway,
			Description: "gateway response has no confirmation url",
		}
	}
	zerolog.Ctx(ctx).Info().
		Uint("excursion_id", in.ExcursionID).
		Str("payment_id", payment.ID).
		Msg("payment created")
	return url, nil
}

// buildRequest assembles the gateway payload for one prepaid seat.
func (s *PaymentService) buildRequest(excursionID uint, amount decimal.Decimal, phone string) yookassa.PaymentRequest {
	money := yookassa.Amount{
		Value:    amount.StringFixed(2),
		Currency: s.Currency,
	}
	return yookassa.PaymentRequest{
		Amount:  money,
		Capture: true,
		Confirmation: &yookassa.Confirmation{
			Type:      confirmationRedirect,
			ReturnURL: s.ReturnURL,
		},
		Description: s.Description,
		Receipt: &yookassa.Receipt{
			Customer: yookassa.Customer{Phone: phone},
			Items: []yookassa.ReceiptItem{{
				Description:    s.Description,
				Quantity:       receiptQuantity,
				Amount:         money,
				VatCode:        s.VatCode,
				PaymentMode:    receiptPaymentMode,
				PaymentSubject: receiptPaymentSubject,
			}},
		},
		Metadata: map[string]string{
			"excursionId": strconv.FormatUint(uint64(excursionID), 10),
		},
	}
}

// PaymentStatus queries the gateway for the current state of paymentID.
// The result is not cached.
func (s *PaymentService) PaymentStatus(ctx context.Context, paymentID string) (yookassa.Status, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "PaymentStatus",
		trace.WithAttributes(attribute.String("payment.id", paymentID)),
	)
	defer span.End()

	if strings.TrimSpace(paymentID) == "" {
		return "", ErrMissingFields
	}
	p, err := s.Gateway.GetPayment(ctx, paymentID)
	if err != nil {
		span.RecordError(err)
		return "", classifyGatewayError(err)
	}
	return p.Status(), nil
}

// classifyGatewayError maps client failures onto GatewayError kinds.
func classifyGatewayError(err error) *GatewayError {
	var apiErr *yookassa.APIError
	switch {
	case errors.As(err, &apiErr):
		return &GatewayError{
			Kind:        GatewayRejected,
			StatusCode:  apiErr.StatusCode,
			Description: apiErr.Description,
			Err:         err,
		}
	case errors.Is(err, yookassa.ErrRequestPreparation):
		return &GatewayError{Kind: RequestPreparationFailed, Err: err}
	default:
		return &GatewayError{Kind: GatewayUnreachable, Err: err}
	}
}

func paymentOutcome(err error) string {
	if ge, ok := AsGatewayError(err); ok {
		return ge.Kind.String()
	}
	switch {
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidPhoneFormat):
		return "invalid_phone"
	case errors.Is(err, ErrCatalogItemNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	default:
		return "internal"
	}
}
