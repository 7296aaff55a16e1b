// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules (validation, relay to the staff
// chat) to the services package.
//
// Functions:
//
//   - CreateFeedback(ctx, db, name, phone, comment) -> *domain.Feedback, error
//     Inserts an undelivered feedback row with a UUID primary key.
//
//   - MarkFeedbackDelivered(ctx, db, id) -> error
//     Flags a row as relayed. Returns ErrNotFound if it does not exist.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

// CreateFeedback inserts a customer message. Delivered starts false.
func CreateFeedback(ctx context.Context, db *gorm.DB, name, phone, comment string) (*domain.Feedback, error) {
	fb := &domain.Feedback{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

// MarkFeedbackDelivered sets delivered=true on feedback id.
func MarkFeedbackDelivered(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ?", id).
		Update("delivered", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
