// Package services – AuthService
//
// This file implements staff authentication. Passwords are stored as bcrypt
// hashes; a successful sign-in yields an HS256 JWT carrying the user's id and
// login. Verify is a single synchronous check with three outcomes: no token,
// an invalid or expired token (both ErrUnauthorized), or valid claims.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/repo"
)

// Credential length limits.
const (
	MinLoginRunes    = 3
	MinPasswordRunes = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes = 72
)

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, login, passwordHash string) (*domain.User, error)
	GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error)
}

// Claims is the JWT payload issued to staff.
type Claims struct {
	UserID uint   `json:"id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

// AuthService signs staff in and verifies their tokens.
type AuthService struct {
	DB   *gorm.DB
	Repo UserRepo

	Secret   []byte
	TokenTTL time.Duration

	// BcryptCost is used for new hashes; 0 uses bcrypt.DefaultCost.
	BcryptCost int

	// Now stamps issued tokens; nil uses time.Now. Verification always uses
	// the wall clock.
	Now func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, r UserRepo, secret string, ttl time.Duration) *AuthService {
	return &AuthService{DB: db, Repo: r, Secret: []byte(secret), TokenTTL: ttl}
}

// SignIn checks login and password and returns a signed token.
func (s *AuthService) SignIn(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	u, err := s.Repo.GetUserByLogin(ctx, s.DB, login)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		zerolog.Ctx(ctx).Info().Str("login", login).Msg("sign in rejected")
		return "", ErrInvalidCredentials
	}
	return s.issue(u)
}

// SignUp creates a staff account.
func (s *AuthService) SignUp(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if utf8.RuneCountInString(login) < MinLoginRunes ||
		utf8.RuneCountInString(password) < MinPasswordRunes ||
		len(password) > maxPasswordBytes {
		return nil, ErrWeakCredentials
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, login, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrLoginTaken
		}
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint("user_id", u.ID).Str("login", u.Login).Msg("staff account created")
	return u, nil
}

// Verify parses token and returns its claims, or ErrUnauthorized.
func (s *AuthService) Verify(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issue(u *domain.User) (string, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	claims := Claims{
		UserID: u.ID,
		Login:  u.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
