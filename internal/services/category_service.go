// Package services – CategoryService
//
// This file implements catalog categories: listing, lookup, creation, update,
// deletion, and free-text search. Search builds an in-memory index over the
// current rows on every call, so results always reflect the latest catalog.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/repo"
	"github.com/tbourn/go-excursion-backend/internal/search"
)

// DefaultSearchLimit caps the number of search hits returned.
const DefaultSearchLimit = 20

// CategoryRepo defines the repository contract required by CategoryService.
type CategoryRepo interface {
	ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error)
	GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error)
	CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error
	UpdateCategory(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error
	DeleteCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error)
	CategoriesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
}

// CategoryInput carries category fields; nil pointers are left untouched on
// update.
type CategoryInput struct {
	Name   *string
	ImgSrc *string
}

// CategoryService provides catalog operations on categories.
type CategoryService struct {
	DB     *gorm.DB
	Repo   CategoryRepo
	Images ImageRemover

	// SearchOptions tune the per-request index.
	SearchOptions []search.Option
	// SearchLimit caps search results; <= 0 uses DefaultSearchLimit.
	SearchLimit int
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(db *gorm.DB, r CategoryRepo, images ImageRemover) *CategoryService {
	return &CategoryService{
		DB:            db,
		Repo:          r,
		Images:        images,
		SearchOptions: []search.Option{search.WithStopwords(search.RussianStopwords)},
	}
}

// List returns all categories ordered by id.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.Repo.ListCategories(ctx, s.DB)
}

// Stats returns the row count and latest update time used for ETags.
func (s *CategoryService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return s.Repo.CategoriesStats(ctx, s.DB)
}

// Search ranks categories by name similarity to query. A blank query returns
// the full list.
func (s *CategoryService) Search(ctx context.Context, query string) ([]domain.Category, error) {
	ctx, span := otel.Tracer("services/CategoryService").Start(ctx, "Search")
	defer span.End()

	all, err := s.Repo.ListCategories(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	byID := make(map[uint]domain.Category, len(all))
	docs := make([]search.Doc, 0, len(all))
	for _, c := range all {
		byID[c.ID] = c
		docs = append(docs, search.Doc{ID: c.ID, Text: c.Name})
	}

	limit := s.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	hits := search.NewIndex(docs, s.SearchOptions...).TopK(query, limit)

	out := make([]domain.Category, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.ID])
	}
	span.SetAttributes(
		attribute.Int("search.docs", len(docs)),
		attribute.Int("search.hits", len(out)),
	)
	return out, nil
}

// Get returns category id or ErrCategoryNotFound.
func (s *CategoryService) Get(ctx context.Context, id uint) (*domain.Category, error) {
	c, err := s.Repo.GetCategory(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

// Create inserts a category; the name is required.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	name := trimPtr(in.Name)
	if name == "" {
		return nil, ErrInvalidCategory
	}
	c := &domain.Category{Name: name}
	if in.ImgSrc != nil {
		c.ImgSrc = *in.ImgSrc
	}
	if err := s.Repo.CreateCategory(ctx, s.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies the non-nil fields of in to category id.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*domain.Category, error) {
	ctx, span := otel.Tracer("services/CategoryService").Start(ctx, "Update",
		trace.WithAttributes(attribute.Int("category.id", int(id))),
	)
	defer span.End()

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidCategory
		}
		fields["name"] = name
	}

	var oldImg string
	if in.ImgSrc != nil {
		prev, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		oldImg = prev.ImgSrc
		fields["img_src"] = *in.ImgSrc
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}

	if err := s.Repo.UpdateCategory(ctx, s.DB, id, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if in.ImgSrc != nil && oldImg != *in.ImgSrc {
		s.removeImage(ctx, oldImg)
	}
	return s.Get(ctx, id)
}

// Delete removes category id. Its excursions stay in the catalog without a
// category.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.Repo.DeleteCategory(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.removeImage(ctx, deleted.ImgSrc)
	return nil
}

func (s *CategoryService) removeImage(ctx context.Context, url string) {
	if s.Images == nil || url == "" {
		return
	}
	if key, ok := s.Images.KeyFromURL(url); ok {
		if err := s.Images.Delete(ctx, key); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("failed to remove image")
		}
	}
}
