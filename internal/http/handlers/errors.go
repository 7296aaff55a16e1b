// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes name the failed business rule so the storefront can branch on
// them without parsing messages. mapError is the single place where service
// errors become (status, code, message).
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-excursion-backend/internal/services"
	"github.com/tbourn/go-excursion-backend/internal/storage"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeMissingFields      = "missing_fields"
	ErrCodeInvalidAmount      = "invalid_amount"
	ErrCodeInvalidPhone       = "invalid_phone"
	ErrCodeInvalidKey         = "invalid_key"
	ErrCodeInvalidCatalogItem = "invalid_catalog_item"
	ErrCodeNothingToUpdate    = "nothing_to_update"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeWeakCredentials    = "weak_credentials"
	ErrCodeLoginTaken         = "login_taken"
	ErrCodeInvalidFeedback    = "invalid_feedback"
	ErrCodeRelayFailed        = "relay_failed"
	ErrCodeKeySpaceExhausted  = "key_space_exhausted"
	ErrCodeUploadRejected     = "upload_rejected"
	ErrCodeIdempotencyReuse   = "idempotency_key_reused"

	ErrCodeGatewayRejected    = "gateway_rejected"
	ErrCodeGatewayUnreachable = "gateway_unreachable"
	ErrCodeGatewayPreparation = "request_preparation_failed"
)

type mappedError struct {
	status int
	code   string
	msg    string
	msgRu  string
	cause  error // logged for 5xx
}

// mapError translates a service error into an HTTP answer.
func mapError(err error) mappedError {
	if ge, ok := services.AsGatewayError(err); ok {
		m := mappedError{msg: ge.Message(), msgRu: ge.MessageRu(), cause: ge}
		switch ge.Kind {
		case services.GatewayRejected:
			m.status, m.code = gatewayStatus(ge.StatusCode), ErrCodeGatewayRejected
		case services.GatewayUnreachable:
			m.status, m.code = http.StatusBadGateway, ErrCodeGatewayUnreachable
		default:
			m.status, m.code = http.StatusInternalServerError, ErrCodeGatewayPreparation
		}
		return m
	}

	status, code := http.StatusInternalServerError, ErrCodeInternal
	switch {
	case errors.Is(err, services.ErrMissingFields):
		status, code = http.StatusBadRequest, ErrCodeMissingFields
	case errors.Is(err, services.ErrInvalidAmount):
		status, code = http.StatusBadRequest, ErrCodeInvalidAmount
	case errors.Is(err, services.ErrInvalidPhoneFormat):
		status, code = http.StatusBadRequest, ErrCodeInvalidPhone
	case errors.Is(err, services.ErrInvalidKey):
		status, code = http.StatusBadRequest, ErrCodeInvalidKey
	case errors.Is(err, services.ErrInvalidExcursion), errors.Is(err, services.ErrInvalidCategory):
		status, code = http.StatusBadRequest, ErrCodeInvalidCatalogItem
	case errors.Is(err, services.ErrNothingToUpdate):
		status, code = http.StatusBadRequest, ErrCodeNothingToUpdate
	case errors.Is(err, services.ErrWeakCredentials):
		status, code = http.StatusBadRequest, ErrCodeWeakCredentials
	case errors.Is(err, services.ErrInvalidFeedback):
		status, code = http.StatusBadRequest, ErrCodeInvalidFeedback
	case errors.Is(err, services.ErrCatalogItemNotFound), errors.Is(err, services.ErrCategoryNotFound):
		status, code = http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, ErrCodeInvalidCredentials
	case errors.Is(err, services.ErrUnauthorized):
		status, code = http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, services.ErrLoginTaken):
		status, code = http.StatusConflict, ErrCodeLoginTaken
	case errors.Is(err, services.ErrRelayFailed):
		status, code = http.StatusBadGateway, ErrCodeRelayFailed
	case errors.Is(err, services.ErrKeySpaceExhausted):
		code = ErrCodeKeySpaceExhausted
	case errors.Is(err, storage.ErrUnsupportedType):
		return mappedError{status: http.StatusBadRequest, code: ErrCodeUploadRejected,
			msg: "only jpg, png, gif and webp images are accepted", msgRu: "Допустимы только изображения jpg, png, gif и webp"}
	case errors.Is(err, storage.ErrTooLarge):
		return mappedError{status: http.StatusRequestEntityTooLarge, code: ErrCodeUploadRejected,
			msg: "image is too large", msgRu: "Изображение слишком большое"}
	}

	var l services.Localized
	if errors.As(err, &l) && code != ErrCodeInternal {
		return mappedError{status: status, code: code, msg: l.Message(), msgRu: l.MessageRu(), cause: err}
	}
	internal := services.ErrInternal.(services.Localized)
	return mappedError{status: status, code: code, msg: internal.Message(), msgRu: internal.MessageRu(), cause: err}
}

// gatewayStatus surfaces the gateway's own status, keeping it in the error
// range a client expects from a failed call.
func gatewayStatus(s int) int {
	if s < 400 || s > 599 {
		return http.StatusBadGateway
	}
	return s
}
