package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/repo"
)

type fakeCategoryRepo struct {
	items  []domain.Category
	listN  int
	updErr error
}

func (r *fakeCategoryRepo) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	r.listN++
	return append([]domain.Category(nil), r.items...), nil
}

func (r *fakeCategoryRepo) GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	for _, c := range r.items {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeCategoryRepo) CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	c.ID = uint(len(r.items) + 1)
	r.items = append(r.items, *c)
	return nil
}

func (r *fakeCategoryRepo) UpdateCategory(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	if r.updErr != nil {
		return r.updErr
	}
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		if v, ok := fields["name"].(string); ok {
			r.items[i].Name = v
		}
		if v, ok := fields["img_src"].(string); ok {
			r.items[i].ImgSrc = v
		}
		return nil
	}
	return repo.ErrNotFound
}

func (r *fakeCategoryRepo) DeleteCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	for i, c := range r.items {
		if c.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeCategoryRepo) CategoriesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return int64(len(r.items)), nil, nil
}

func seededCategories() *fakeCategoryRepo {
	return &fakeCategoryRepo{items: []domain.Category{
		{ID: 1, Name: "Пешеходные экскурсии"},
		{ID: 2, Name: "Автобусные экскурсии"},
		{ID: 3, Name: "Речные прогулки", ImgSrc: "/uploads/river.jpg"},
	}}
}

func TestCategorySearch_RanksByName(t *testing.T) {
	s := NewCategoryService(nil, seededCategories(), nil)

	got, err := s.Search(context.Background(), "речные")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 || got[0].ID != 3 {
		t.Fatalf("got %+v; want category 3 first", got)
	}

	// Prefix of a word still matches.
	got, _ = s.Search(context.Background(), "автоб")
	if len(got) == 0 || got[0].ID != 2 {
		t.Fatalf("prefix: got %+v", got)
	}

	// Nothing relevant.
	got, _ = s.Search(context.Background(), "вертолёт")
	if len(got) != 0 {
		t.Fatalf("unrelated query returned %+v", got)
	}
}

func TestCategorySearch_BlankQueryListsAll_AndSeesNewRows(t *testing.T) {
	r := seededCategories()
	s := NewCategoryService(nil, r, nil)

	all, _ := s.Search(context.Background(), "  ")
	if len(all) != 3 {
		t.Fatalf("blank query = %d rows", len(all))
	}

	_, _ = s.Create(context.Background(), CategoryInput{Name: sp("Гастрономические туры")})
	got, _ := s.Search(context.Background(), "гастрономические")
	if len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("new row not searchable: %+v", got)
	}
}

func TestCategorySearch_Limit(t *testing.T) {
	s := NewCategoryService(nil, seededCategories(), nil)
	s.SearchLimit = 1
	got, _ := s.Search(context.Background(), "экскурсии")
	if len(got) != 1 {
		t.Fatalf("limit ignored: %d", len(got))
	}
}

func TestCategoryCRUD(t *testing.T) {
	r := seededCategories()
	img := &fakeImages{}
	s := NewCategoryService(nil, r, img)
	ctx := context.Background()

	if _, err := s.Create(ctx, CategoryInput{Name: sp(" ")}); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("blank create err = %v", err)
	}
	if _, err := s.Get(ctx, 42); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("get missing err = %v", err)
	}
	if _, err := s.Update(ctx, 1, CategoryInput{}); !errors.Is(err, ErrNothingToUpdate) {
		t.Fatalf("empty update err = %v", err)
	}
	if _, err := s.Update(ctx, 1, CategoryInput{Name: sp("")}); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("blank update err = %v", err)
	}
	if _, err := s.Update(ctx, 42, CategoryInput{Name: sp("x")}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("update missing err = %v", err)
	}

	c, err := s.Update(ctx, 3, CategoryInput{Name: sp(" Реки "), ImgSrc: sp("/uploads/new.jpg")})
	if err != nil || c.Name != "Реки" || c.ImgSrc != "/uploads/new.jpg" {
		t.Fatalf("update: %+v, %v", c, err)
	}
	if len(img.deleted) != 1 || img.deleted[0] != "river.jpg" {
		t.Fatalf("old image not removed: %v", img.deleted)
	}

	if err := s.Delete(ctx, 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(img.deleted) != 2 || img.deleted[1] != "new.jpg" {
		t.Fatalf("image not removed on delete: %v", img.deleted)
	}
	if err := s.Delete(ctx, 3); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
