package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

// CreateUser inserts a staff account with an already hashed password.
// Returns ErrDuplicate when the login is taken.
func CreateUser(ctx context.Context, db *gorm.DB, login, passwordHash string) (*domain.User, error) {
	u := &domain.User{Login: login, PasswordHash: passwordHash}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUserByLogin fetches a staff account by login, or ErrNotFound.
func GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("login = ?", login).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a staff account by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
