// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Excursion
// catalog, including the key lookups used by key generation and payment
// verification.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// The key functions (FindKeyByItemID, FindItemIDByKey, SetKey) each issue a
// single independent statement. The unique index on excursions.key is the only
// cross-request guard; SetKey surfaces its violation as ErrDuplicate.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

// ListExcursionsPage returns a page of excursions with their events, ordered
// by id ascending.
func ListExcursionsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Excursion, error) {
	var out []domain.Excursion
	err := db.WithContext(ctx).
		Preload("Events", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountExcursions returns the total number of catalog items.
func CountExcursions(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Excursion{}).Count(&total).Error
	return total, err
}

// GetExcursion fetches one excursion with its events, or ErrNotFound.
func GetExcursion(ctx context.Context, db *gorm.DB, id uint) (*domain.Excursion, error) {
	var e domain.Excursion
	err := db.WithContext(ctx).
		Preload("Events", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExcursion inserts e together with e.Events.
func CreateExcursion(ctx context.Context, db *gorm.DB, e *domain.Excursion) error {
	return db.WithContext(ctx).Create(e).Error
}

// UpdateExcursion applies the column updates in fields to excursion id. When
// replaceEvents is true the existing events are deleted and events inserted in
// their place, inside the same transaction. Returns ErrNotFound when id does
// not exist.
func UpdateExcursion(ctx context.Context, db *gorm.DB, id uint, fields map[string]any, events []domain.ExcursionEvent, replaceEvents bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cnt int64
		if err := tx.Model(&domain.Excursion{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return ErrNotFound
		}

		// An events-only change still moves updated_at so list ETags change.
		if len(fields) == 0 && replaceEvents {
			fields = map[string]any{"updated_at": time.Now().UTC()}
		}
		if len(fields) > 0 {
			if err := tx.Model(&domain.Excursion{ID: id}).Updates(fields).Error; err != nil {
				return err
			}
		}

		if !replaceEvents {
			return nil
		}
		if err := tx.Where("excursion_id = ?", id).Delete(&domain.ExcursionEvent{}).Error; err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for i := range events {
			events[i].ID = 0
			events[i].ExcursionID = id
		}
		return tx.Create(&events).Error
	})
}

// DeleteExcursion removes excursion id and its events and returns the deleted
// row so callers can clean up attached files. Returns ErrNotFound when id does
// not exist.
func DeleteExcursion(ctx context.Context, db *gorm.DB, id uint) (*domain.Excursion, error) {
	var deleted domain.Excursion
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			return err
		}
		if err := tx.Where("excursion_id = ?", id).Delete(&domain.ExcursionEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Excursion{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// FindKeyByItemID returns the current key of excursion id. The key is nil
// when none has been generated yet. Returns ErrNotFound when id does not
// exist.
func FindKeyByItemID(ctx context.Context, db *gorm.DB, id uint) (*string, error) {
	var e domain.Excursion
	err := db.WithContext(ctx).Select("id", "key").First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return e.Key, nil
}

// FindItemIDByKey returns the id of the excursion currently holding key, or
// nil when the key is unused.
func FindItemIDByKey(ctx context.Context, db *gorm.DB, key string) (*uint, error) {
	var e domain.Excursion
	err := db.WithContext(ctx).
		Select("id").
		Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := e.ID
	return &id, nil
}

// SetKey stores key on excursion id, replacing any previous key.
// Returns ErrNotFound when id does not exist and ErrDuplicate when another
// excursion already holds key.
func SetKey(ctx context.Context, db *gorm.DB, id uint, key string) error {
	res := db.WithContext(ctx).
		Model(&domain.Excursion{}).
		Where("id = ?", id).
		Update("key", key)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Catalog adapts the key functions above to method form so services can
// depend on an interface rather than the package.
type Catalog struct{}

// FindKeyByItemID proxies FindKeyByItemID.
func (Catalog) FindKeyByItemID(ctx context.Context, db *gorm.DB, id uint) (*string, error) {
	return FindKeyByItemID(ctx, db, id)
}

// FindItemIDByKey proxies FindItemIDByKey.
func (Catalog) FindItemIDByKey(ctx context.Context, db *gorm.DB, key string) (*uint, error) {
	return FindItemIDByKey(ctx, db, key)
}

// SetKey proxies SetKey.
func (Catalog) SetKey(ctx context.Context, db *gorm.DB, id uint, key string) error {
	return SetKey(ctx, db, id, key)
}
