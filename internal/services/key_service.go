// Package services – KeyService
//
// This file implements key issuance for excursions. A key is a string of
// KeyLength decimal digits drawn from crypto/rand and accepted only when no
// other excursion holds it. The accepted key overwrites the excursion's
// previous key, so at most one key per excursion is ever valid.
//
// The loop is bounded by MaxAttempts and honours context cancellation. The
// unique index on the key column backs up the probe: a concurrent writer that
// stored the same candidate first makes SetKey fail with a duplicate, and the
// loop simply draws again.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/repo"
)

// DefaultKeyMaxAttempts caps the draws of a single GenerateKey call.
const DefaultKeyMaxAttempts = 1000

// CatalogStore is the slice of the excursion repository that key issuance and
// payment verification depend on.
type CatalogStore interface {
	// FindKeyByItemID returns the current key (nil if never generated) or
	// repo.ErrNotFound.
	FindKeyByItemID(ctx context.Context, db *gorm.DB, id uint) (*string, error)
	// FindItemIDByKey returns the id holding key, or nil.
	FindItemIDByKey(ctx context.Context, db *gorm.DB, key string) (*uint, error)
	// SetKey overwrites the key of id; repo.ErrNotFound / repo.ErrDuplicate.
	SetKey(ctx context.Context, db *gorm.DB, id uint, key string) error
}

// KeyService issues excursion keys.
type KeyService struct {
	DB    *gorm.DB
	Store CatalogStore

	// MaxAttempts bounds the rejection-sampling loop; <= 0 uses the default.
	MaxAttempts int

	// Draw produces one candidate. Nil uses DrawKey.
	Draw func() (string, error)
}

// NewKeyService constructs a KeyService backed by store.
func NewKeyService(db *gorm.DB, store CatalogStore, maxAttempts int) *KeyService {
	return &KeyService{DB: db, Store: store, MaxAttempts: maxAttempts}
}

// DrawKey returns domain.KeyLength independent uniform decimal digits from
// crypto/rand. Leading zeros are allowed.
func DrawKey() (string, error) {
	return drawDigits(rand.Reader, domain.KeyLength)
}

// drawDigits reads bytes from r and keeps those below 250, which maps each
// kept byte uniformly onto 0-9.
func drawDigits(r io.Reader, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// GenerateKey draws a key no other excursion holds, stores it on excursion id
// (replacing any previous key), and returns it.
//
// Errors: ErrCatalogItemNotFound, ErrKeySpaceExhausted, the context error on
// cancellation, or a wrapped store error.
func (s *KeyService) GenerateKey(ctx context.Context, id uint) (string, error) {
	tr := otel.Tracer("services/KeyService")
	ctx, span := tr.Start(ctx, "GenerateKey",
		trace.WithAttributes(attribute.Int("excursion.id", int(id))),
	)
	defer span.End()

	key, draws, err := s.generate(ctx, id)
	span.SetAttributes(attribute.Int("key.draws", draws))
	lg := zerolog.Ctx(ctx)
	if err != nil {
		keyGenerations.WithLabelValues(keyOutcome(err)).Inc()
		if !errors.Is(err, ErrCatalogItemNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			lg.Error().Err(err).Uint("excursion_id", id).Int("draws", draws).Msg("key generation failed")
		}
		return "", err
	}

	keyGenerations.WithLabelValues("generated").Inc()
	keyDraws.Observe(float64(draws))
	lg.Info().Uint("excursion_id", id).Int("draws", draws).Msg("excursion key generated")
	return key, nil
}

func (s *KeyService) generate(ctx context.Context, id uint) (key string, draws int, err error) {
	if _, err := s.Store.FindKeyByItemID(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", 0, ErrCatalogItemNotFound
		}
		return "", 0, fmt.Errorf("find excursion: %w", err)
	}

	draw := s.Draw
	if draw == nil {
		draw = DrawKey
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultKeyMaxAttempts
	}

	for draws < maxAttempts {
		if err := ctx.Err(); err != nil {
			return "", draws, err
		}
		draws++

		candidate, err := draw()
		if err != nil {
			return "", draws, fmt.Errorf("draw key: %w", err)
		}

		holder, err := s.Store.FindItemIDByKey(ctx, s.DB, candidate)
		if err != nil {
			return "", draws, fmt.Errorf("probe key: %w", err)
		}
		if holder != nil {
			continue
		}

		switch err := s.Store.SetKey(ctx, s.DB, id, candidate); {
		case err == nil:
			return candidate, draws, nil
		case errors.Is(err, repo.ErrDuplicate):
			// Lost a race for this candidate.
			continue
		case errors.Is(err, repo.ErrNotFound):
			return "", draws, ErrCatalogItemNotFound
		default:
			return "", draws, fmt.Errorf("store key: %w", err)
		}
	}
	return "", draws, ErrKeySpaceExhausted
}

func keyOutcome(err error) string {
	switch {
	case errors.Is(err, ErrCatalogItemNotFound):
		return "not_found"
	case errors.Is(err, ErrKeySpaceExhausted):
		return "exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
