// Package services – ExcursionService
//
// This file implements catalog management for excursions: paginated listing,
// lookup, creation, partial update, and deletion. Scheduled events are
// validated one by one; an event with a blank name or a time that is not
// "HH:MM" is skipped with a warning instead of failing the whole request.
// When an excursion is deleted or its image replaced, the old image file is
// removed from storage on a best-effort basis.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/repo"
)

// ExcursionRepo defines the repository contract required by ExcursionService.
type ExcursionRepo interface {
	ListExcursionsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Excursion, error)
	CountExcursions(ctx context.Context, db *gorm.DB) (int64, error)
	GetExcursion(ctx context.Context, db *gorm.DB, id uint) (*domain.Excursion, error)
	CreateExcursion(ctx context.Context, db *gorm.DB, e *domain.Excursion) error
	UpdateExcursion(ctx context.Context, db *gorm.DB, id uint, fields map[string]any, events []domain.ExcursionEvent, replaceEvents bool) error
	DeleteExcursion(ctx context.Context, db *gorm.DB, id uint) (*domain.Excursion, error)
	ExcursionsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)

	// GetCategory is used to check category references.
	GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error)
}

// ImageRemover deletes stored images by their public URL.
type ImageRemover interface {
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// EventInput is one scheduled departure as submitted by staff.
type EventInput struct {
	Name string `json:"name" validate:"required,notblank"`
	Time string `json:"time" validate:"required,hhmm"`
}

// ExcursionInput carries excursion fields. Nil pointers are left untouched on
// update; Events == nil keeps the current events, a non-nil (possibly empty)
// slice replaces them.
type ExcursionInput struct {
	Name               *string
	City               *string
	Info               *string
	ImgSrc             *string
	PersonsAmount      *int
	AccompanistsAmount *int
	Price              *float64
	CategoryID         *uint
	Events             []EventInput
}

// ExcursionService provides catalog operations on excursions.
type ExcursionService struct {
	DB   *gorm.DB
	Repo ExcursionRepo

	// Images removes replaced or orphaned images. Nil disables cleanup.
	Images ImageRemover

	// CityLocale drives city title-casing.
	CityLocale language.Tag
}

// NewExcursionService constructs an ExcursionService with Russian city casing.
func NewExcursionService(db *gorm.DB, r ExcursionRepo, images ImageRemover) *ExcursionService {
	return &ExcursionService{DB: db, Repo: r, Images: images, CityLocale: language.Russian}
}

// ListPage returns a page of excursions with their events and the total count.
func (s *ExcursionService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Excursion, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountExcursions(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Excursion{}, 0, nil
	}
	items, err := s.Repo.ListExcursionsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Stats returns the row count and latest update time used for ETags.
func (s *ExcursionService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return s.Repo.ExcursionsStats(ctx, s.DB)
}

// Get returns excursion id or ErrCatalogItemNotFound.
func (s *ExcursionService) Get(ctx context.Context, id uint) (*domain.Excursion, error) {
	e, err := s.Repo.GetExcursion(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCatalogItemNotFound
	}
	return e, err
}

// Create validates in and inserts a new excursion. Name, city, and info are
// required; counts and price must not be negative.
func (s *ExcursionService) Create(ctx context.Context, in ExcursionInput) (*domain.Excursion, error) {
	ctx, span := otel.Tracer("services/ExcursionService").Start(ctx, "Create")
	defer span.End()

	name, city, info := trimPtr(in.Name), trimPtr(in.City), trimPtr(in.Info)
	if name == "" || city == "" || info == "" {
		return nil, ErrInvalidExcursion
	}
	if err := checkAmounts(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	e := &domain.Excursion{
		Name:       name,
		City:       s.normalizeCity(city),
		Info:       info,
		CategoryID: nonZero(in.CategoryID),
		Events:     s.validEvents(ctx, in.Events),
	}
	if in.ImgSrc != nil {
		e.ImgSrc = *in.ImgSrc
	}
	if in.PersonsAmount != nil {
		e.PersonsAmount = *in.PersonsAmount
	}
	if in.AccompanistsAmount != nil {
		e.AccompanistsAmount = *in.AccompanistsAmount
	}
	if in.Price != nil {
		e.Price = *in.Price
	}

	if err := s.Repo.CreateExcursion(ctx, s.DB, e); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("excursion.id", int(e.ID)))
	return e, nil
}

// Update applies the non-nil fields of in to excursion id and returns the
// updated excursion. A replaced image is removed from storage.
func (s *ExcursionService) Update(ctx context.Context, id uint, in ExcursionInput) (*domain.Excursion, error) {
	ctx, span := otel.Tracer("services/ExcursionService").Start(ctx, "Update",
		trace.WithAttributes(attribute.Int("excursion.id", int(id))),
	)
	defer span.End()

	fields := map[string]any{}
	for col, p := range map[string]*string{"name": in.Name, "city": in.City, "info": in.Info} {
		if p == nil {
			continue
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return nil, ErrInvalidExcursion
		}
		if col == "city" {
			v = s.normalizeCity(v)
		}
		fields[col] = v
	}
	if err := checkAmounts(in); err != nil {
		return nil, err
	}
	if in.PersonsAmount != nil {
		fields["persons_amount"] = *in.PersonsAmount
	}
	if in.AccompanistsAmount != nil {
		fields["accompanists_amount"] = *in.AccompanistsAmount
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = nonZero(in.CategoryID)
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

	replace := in.Events != nil
	if len(fields) == 0 && !replace {
		return nil, ErrNothingToUpdate
	}
	var events []domain.ExcursionEvent
	if replace {
		events = s.validEvents(ctx, in.Events)
	}

	if err := s.Repo.UpdateExcursion(ctx, s.DB, id, fields, events, replace); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, err
	}
	if in.ImgSrc != nil && oldImg != *in.ImgSrc {
		s.removeImage(ctx, oldImg)
	}
	return s.Get(ctx, id)
}

// Delete removes excursion id, its events, and its image. The excursion's key
// stops being valid with the row.
func (s *ExcursionService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.Repo.DeleteExcursion(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCatalogItemNotFound
		}
		return err
	}
	s.removeImage(ctx, deleted.ImgSrc)
	return nil
}

func (s *ExcursionService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil || *id == 0 {
		return nil
	}
	if _, err := s.Repo.GetCategory(ctx, s.DB, *id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("find category: %w", err)
	}
	return nil
}

// validEvents converts in to models, dropping invalid entries.
func (s *ExcursionService) validEvents(ctx context.Context, in []EventInput) []domain.ExcursionEvent {
	out := make([]domain.ExcursionEvent, 0, len(in))
	for i, ev := range in {
		ev.Name = strings.TrimSpace(ev.Name)
		ev.Time = strings.TrimSpace(ev.Time)
		if err := eventValidator.Struct(ev); err != nil {
			zerolog.Ctx(ctx).Warn().Int("index", i).Str("name", ev.Name).Str("time", ev.Time).
				Msg("skipping invalid excursion event")
			continue
		}
		out = append(out, domain.ExcursionEvent{Name: ev.Name, Time: ev.Time})
	}
	return out
}

func (s *ExcursionService) normalizeCity(city string) string {
	city = strings.Join(strings.Fields(city), " ")
	tag := s.CityLocale
	if tag == language.Und {
		tag = language.Russian
	}
	return cases.Title(tag).String(city)
}

func (s *ExcursionService) removeImage(ctx context.Context, url string) {
	if s.Images == nil || url == "" {
		return
	}
	key, ok := s.Images.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.Images.Delete(ctx, key); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("image", url).Msg("failed to remove image")
	}
}

func checkAmounts(in ExcursionInput) error {
	if (in.PersonsAmount != nil && *in.PersonsAmount < 0) ||
		(in.AccompanistsAmount != nil && *in.AccompanistsAmount < 0) ||
		(in.Price != nil && *in.Price < 0) {
		return ErrInvalidExcursion
	}
	return nil
}

func trimPtr(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// nonZero maps a zero id to nil so that "categoryId": 0 clears the category.
func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// --- event validation ---

var eventValidator = newEventValidator()

func newEventValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", ValidateHHMM)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// IsHHMM reports whether s is a 24-hour "HH:MM" time of day.
func IsHHMM(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ValidateHHMM is the validator/v10 adapter for IsHHMM.
func ValidateHHMM(fl validator.FieldLevel) bool {
	return IsHHMM(fl.Field().String())
}
