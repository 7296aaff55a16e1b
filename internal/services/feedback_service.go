// Package services – FeedbackService
//
// This file implements the customer feedback relay. A message is first
// persisted (undelivered), then sent to the staff Telegram chat, and finally
// flagged as delivered. A relay failure is reported to the caller as
// ErrRelayFailed while the stored row keeps delivered=false for follow-up.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

// FeedbackRepo defines the repository contract required by FeedbackService.
type FeedbackRepo interface {
	CreateFeedback(ctx context.Context, db *gorm.DB, name, phone, comment string) (*domain.Feedback, error)
	MarkFeedbackDelivered(ctx context.Context, db *gorm.DB, id string) error
}

// Notifier delivers a text message to staff.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// FeedbackInput is a customer message from the contact form.
type FeedbackInput struct {
	Name    string
	Phone   string
	Comment string
}

// FeedbackService stores customer messages and relays them to staff.
type FeedbackService struct {
	DB       *gorm.DB
	Repo     FeedbackRepo
	Notifier Notifier
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(db *gorm.DB, r FeedbackRepo, n Notifier) *FeedbackService {
	return &FeedbackService{DB: db, Repo: r, Notifier: n}
}

// Send validates in, stores it, and relays it to the staff chat.
//
// Errors: ErrInvalidFeedback when a field is blank, ErrRelayFailed when the
// chat did not accept the message, or a wrapped store error.
func (s *FeedbackService) Send(ctx context.Context, in FeedbackInput) (*domain.Feedback, error) {
	ctx, span := otel.Tracer("services/FeedbackService").Start(ctx, "Send")
	defer span.End()

	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	comment := strings.TrimSpace(in.Comment)
	if name == "" || phone == "" || comment == "" {
		return nil, ErrInvalidFeedback
	}
	// Unparseable numbers are relayed as typed; staff read them.
	if e164, ok := FormatPhone(phone); ok {
		phone = e164
	}

	fb, err := s.Repo.CreateFeedback(ctx, s.DB, name, phone, comment)
	if err != nil {
		feedbackRelayed.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	lg := zerolog.Ctx(ctx)
	if err := s.Notifier.Send(ctx, FormatFeedback(fb)); err != nil {
		feedbackRelayed.WithLabelValues("relay_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		lg.Error().Err(err).Str("feedback_id", fb.ID).Msg("feedback relay failed")
		return fb, ErrRelayFailed
	}

	if err := s.Repo.MarkFeedbackDelivered(ctx, s.DB, fb.ID); err != nil {
		lg.Warn().Err(err).Str("feedback_id", fb.ID).Msg("could not flag feedback as delivered")
	} else {
		fb.Delivered = true
	}
	feedbackRelayed.WithLabelValues("delivered").Inc()
	return fb, nil
}

// FormatFeedback renders fb as the staff chat message.
func FormatFeedback(fb *domain.Feedback) string {
	return fmt.Sprintf("Имя: %s\nТелефон: %s\nКомментарий: %s", fb.Name, fb.Phone, fb.Comment)
}
