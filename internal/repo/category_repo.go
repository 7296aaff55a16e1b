package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

// ListCategories returns all categories ordered by id.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetCategory fetches a category by id, or ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	var c domain.Category
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts c and fills its id and timestamps.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return db.WithContext(ctx).Create(c).Error
}

// UpdateCategory applies fields to category id. Returns ErrNotFound when no
// row matched.
func UpdateCategory(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := GetCategory(ctx, db, id)
		return err
	}
	res := db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes category id and returns the deleted row. Excursions
// in the category keep existing with a NULL category.
func DeleteCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	var deleted domain.Category
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Excursion{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Category{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
