package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/services"
)

func TestListCategories(t *testing.T) {
	svc := stubCategories{list: func(context.Context) ([]domain.Category, error) {
		return []domain.Category{{ID: 1, Name: "Обзорные"}, {ID: 2, Name: "Водные"}}, nil
	}}
	h := New(Deps{Categories: svc}, Options{})
	r := newTestRouter()
	r.GET("/categories", h.ListCategories)

	w := doJSON(t, r, http.MethodGet, "/categories", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got []domain.Category
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || len(got) != 2 {
		t.Fatalf("body=%s err=%v", w.Body.String(), err)
	}
	if w.Header().Get("ETag") != `W/"categories:0:0"` {
		t.Fatalf("ETag=%q", w.Header().Get("ETag"))
	}
}

func TestSearchCategories(t *testing.T) {
	var q string
	svc := stubCategories{search: func(_ context.Context, query string) ([]domain.Category, error) {
		q = query
		return []domain.Category{{ID: 1, Name: "Обзорные"}}, nil
	}}
	h := New(Deps{Categories: svc}, Options{})
	r := newTestRouter()
	r.POST("/categories", h.SearchCategories)

	w := doJSON(t, r, http.MethodPost, "/categories", `{"search":"обзор"}`)
	if w.Code != http.StatusOK || q != "обзор" {
		t.Fatalf("status=%d q=%q", w.Code, q)
	}
	if w := doJSON(t, r, http.MethodPost, "/categories", `[`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", w.Code)
	}
}

func TestCategoryCRUD(t *testing.T) {
	svc := stubCategories{
		get: func(_ context.Context, id uint) (*domain.Category, error) {
			if id == 1 {
				return &domain.Category{ID: 1, Name: "Обзорные"}, nil
			}
			return nil, services.ErrCategoryNotFound
		},
		create: func(_ context.Context, in services.CategoryInput) (*domain.Category, error) {
			if in.Name == nil || *in.Name == "" {
				return nil, services.ErrInvalidCategory
			}
			return &domain.Category{ID: 2, Name: *in.Name}, nil
		},
		update: func(_ context.Context, id uint, in services.CategoryInput) (*domain.Category, error) {
			if in.Name == nil && in.ImgSrc == nil {
				return nil, services.ErrNothingToUpdate
			}
			return &domain.Category{ID: id, Name: *in.Name}, nil
		},
		del: func(_ context.Context, id uint) error {
			if id != 1 {
				return services.ErrCategoryNotFound
			}
			return nil
		},
	}
	h := New(Deps{Categories: svc}, Options{})
	r := newTestRouter()
	r.GET("/category/:id", h.GetCategory)
	r.POST("/category", h.CreateCategory)
	r.PATCH("/category/:id", h.UpdateCategory)
	r.DELETE("/category/:id", h.DeleteCategory)

	steps := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/category/1", "", http.StatusOK},
		{http.MethodGet, "/category/2", "", http.StatusNotFound},
		{http.MethodGet, "/category/-1", "", http.StatusBadRequest},
		{http.MethodPost, "/category", `{"name":"Водные"}`, http.StatusCreated},
		{http.MethodPost, "/category", `{}`, http.StatusBadRequest},
		{http.MethodPatch, "/category/1", `{"name":"Новые"}`, http.StatusOK},
		{http.MethodPatch, "/category/1", `{}`, http.StatusBadRequest},
		{http.MethodDelete, "/category/1", "", http.StatusOK},
		{http.MethodDelete, "/category/5", "", http.StatusNotFound},
	}
	for _, s := range steps {
		if w := doJSON(t, r, s.method, s.path, s.body); w.Code != s.status {
			t.Fatalf("%s %s: status=%d want %d body=%s", s.method, s.path, w.Code, s.status, w.Body.String())
		}
	}
}
