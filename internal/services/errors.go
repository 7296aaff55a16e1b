// Package services defines the business logic for the excursion catalog, key
// issuance, payment creation, staff authentication, and customer feedback.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Customer-facing errors carry an English and a Russian message (see
// Localized). Translation into HTTP status codes is performed at the handler
// layer.
package services

import (
	"errors"
	"fmt"
)

// Localized is implemented by errors that carry a user-facing message in both
// supported languages.
type Localized interface {
	Message() string
	MessageRu() string
}

// localizedError is a sentinel error with an English and a Russian message.
type localizedError struct {
	msg   string
	msgRu string
}

func (e *localizedError) Error() string     { return e.msg }
func (e *localizedError) Message() string   { return e.msg }
func (e *localizedError) MessageRu() string { return e.msgRu }

func newLocalized(msg, msgRu string) error {
	return &localizedError{msg: msg, msgRu: msgRu}
}

// Payment and key errors.
var (
	// ErrMissingFields is returned when id, key, or phone is missing, or the
	// amount is not a positive finite number.
	ErrMissingFields = newLocalized(
		"all fields are required: amount, phone, excursionId, excursionKey",
		"Все поля обязательны: сумма, телефон, экскурсия и ключ",
	)

	// ErrInvalidAmount is returned when the amount has more than two
	// fractional digits.
	ErrInvalidAmount = newLocalized(
		"amount must have at most two decimal places",
		"Сумма должна содержать не более двух знаков после запятой",
	)

	// ErrInvalidPhoneFormat is returned when the phone does not normalize to E.164.
	ErrInvalidPhoneFormat = newLocalized(
		"invalid phone number format",
		"Неверный формат номера телефона",
	)

	// ErrCatalogItemNotFound indicates that the excursion does not exist.
	ErrCatalogItemNotFound = newLocalized(
		"excursion not found",
		"Экскурсия не найдена",
	)

	// ErrInvalidKey is returned when the supplied key does not equal the
	// excursion's current key, including when no key was generated.
	ErrInvalidKey = newLocalized(
		"invalid excursion key",
		"Неверный ключ экскурсии",
	)

	// ErrKeySpaceExhausted is returned when key generation could not find an
	// unused key within the configured number of attempts.
	ErrKeySpaceExhausted = newLocalized(
		"could not generate a unique key",
		"Не удалось сгенерировать уникальный ключ",
	)

	// ErrInternal is the catch-all for unexpected failures.
	ErrInternal = newLocalized(
		"internal server error",
		"Внутренняя ошибка сервера",
	)
)

// Catalog errors.
var (
	// ErrCategoryNotFound indicates that the category does not exist.
	ErrCategoryNotFound = newLocalized("category not found", "Категория не найдена")

	// ErrInvalidExcursion is returned when required excursion fields are blank
	// or numeric fields are negative.
	ErrInvalidExcursion = newLocalized(
		"name, city and info are required; amounts and price must not be negative",
		"Название, город и описание обязательны; количество и цена не могут быть отрицательными",
	)

	// ErrNothingToUpdate is returned by updates that carry no fields.
	ErrNothingToUpdate = newLocalized("no fields to update provided", "Не переданы поля для обновления")

	// ErrInvalidCategory is returned when the category name is blank.
	ErrInvalidCategory = newLocalized("category name is required", "Название категории обязательно")
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned when login or password does not match.
	ErrInvalidCredentials = newLocalized("invalid login or password", "Неверный логин или пароль")

	// ErrLoginTaken is returned by SignUp when the login already exists.
	ErrLoginTaken = newLocalized("login already taken", "Пользователь с таким логином уже существует")

	// ErrWeakCredentials is returned when login or password is too short.
	ErrWeakCredentials = newLocalized(
		"login must be at least 3 and password at least 8 characters",
		"Логин должен быть не короче 3, а пароль не короче 8 символов",
	)

	// ErrUnauthorized is returned when a token is missing, invalid, or expired.
	ErrUnauthorized = newLocalized("unauthorized", "Пользователь не авторизован")
)

// Feedback errors.
var (
	// ErrInvalidFeedback is returned when name, phone, or comment is blank.
	ErrInvalidFeedback = newLocalized(
		"name, phone and comment are required",
		"Имя, телефон и комментарий обязательны",
	)

	// ErrRelayFailed is returned when the staff chat did not accept the message.
	ErrRelayFailed = newLocalized(
		"failed to deliver feedback",
		"Не удалось отправить сообщение",
	)
)

// GatewayErrorKind classifies a failed payment gateway call.
type GatewayErrorKind int

const (
	// GatewayRejected means the gateway answered with an error response.
	GatewayRejected GatewayErrorKind = iota + 1
	// GatewayUnreachable means no response was received.
	GatewayUnreachable
	// RequestPreparationFailed means the request could not be constructed.
	RequestPreparationFailed
)

func (k GatewayErrorKind) String() string {
	switch k {
	case GatewayRejected:
		return "gateway_rejected"
	case GatewayUnreachable:
		return "gateway_unreachable"
	case RequestPreparationFailed:
		return "request_preparation_failed"
	default:
		return "unknown"
	}
}

// GatewayError reports a failed payment gateway call. StatusCode and
// Description are set only for GatewayRejected.
type GatewayError struct {
	Kind        GatewayErrorKind
	StatusCode  int
	Description string
	Err         error
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case GatewayRejected:
		return fmt.Sprintf("payment gateway rejected the request (%d): %s", e.StatusCode, e.Description)
	case GatewayUnreachable:
		return fmt.Sprintf("payment gateway unreachable: %v", e.Err)
	default:
		return fmt.Sprintf("payment request preparation failed: %v", e.Err)
	}
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Message implements Localized.
func (e *GatewayError) Message() string {
	switch e.Kind {
	case GatewayRejected:
		if e.Description != "" {
			return "payment service error: " + e.Description
		}
		return "payment service rejected the request"
	case GatewayUnreachable:
		return "payment service is unavailable, please try again later"
	default:
		return "failed to prepare the payment request"
	}
}

// MessageRu implements Localized.
func (e *GatewayError) MessageRu() string {
	switch e.Kind {
	case GatewayRejected:
		if e.Description != "" {
			return "Ошибка платёжного сервиса: " + e.Description
		}
		return "Платёжный сервис отклонил запрос"
	case GatewayUnreachable:
		return "Платёжный сервис недоступен, попробуйте позже"
	default:
		return "Не удалось подготовить запрос на оплату"
	}
}

// AsGatewayError unwraps err into a *GatewayError.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
