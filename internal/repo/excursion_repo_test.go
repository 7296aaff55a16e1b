package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t, &domain.Category{}, &domain.Excursion{}, &domain.ExcursionEvent{})
}

func seedExcursion(t *testing.T, db *gorm.DB, name string, events ...domain.ExcursionEvent) *domain.Excursion {
	t.Helper()
	e := &domain.Excursion{Name: name, City: "Kazan", Info: "info", Price: 1500, Events: events}
	if err := CreateExcursion(context.Background(), db, e); err != nil {
		t.Fatalf("seed excursion: %v", err)
	}
	return e
}

func TestFindKeyByItemID(t *testing.T) {
	db := newCatalogDB(t)
	ctx := context.Background()
	e := seedExcursion(t, db, "Old town")

	key, err := FindKeyByItemID(ctx, db, e.ID)
	if err != nil || key != nil {
		t.Fatalf("fresh item: expected (nil, nil), got (%v, %v)", key, err)
	}

	if err := SetKey(ctx, db, e.ID, "0012345678"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	key, err = FindKeyByItemID(ctx, db, e.ID)
	if err != nil || key == nil || *key != "0012345678" {
		t.Fatalf("expected stored key, got (%v, %v)", key, err)
	}

	if _, err := FindKeyByItemID(ctx, db, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestFindItemIDByKey(t *testing.T) {
	db := newCatalogDB(t)
	ctx := context.Background()
	e := seedExcursion(t, db, "Kremlin")

	id, err := FindItemIDByKey(ctx, db, "1111111111")
	if err != nil || id != nil {
		t.Fatalf("unused key: expected (nil, nil), got (%v, %v)", id, err)
	}

	if err := SetKey(ctx, db, e.ID, "1111111111"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	id, err = FindItemIDByKey(ctx, db, "1111111111")
	if err != nil || id == nil || *id != e.ID {
		t.Fatalf("expected id %d, got (%v, %v)", e.ID, id, err)
	}
}

func TestSetKey_OverwritesPrevious(t *testing.T) {
	db := newCatalogDB(t)
	ctx := context.Background()
	e := seedExcursion(t, db, "River")

	if err := SetKey(ctx, db, e.ID, "2222222222"); err != nil {
		t.Fatalf("SetKey #1: %v", err)
	}
	if err := SetKey(ctx, db, e.ID, "3333333333"); err != nil {
		t.Fatalf("SetKey #2: %v", err)
	}
	if id, _ := FindItemIDByKey(ctx, db, "2222222222"); id != nil {
		t.Fatalf("old key should no longer resolve, got id %d", *id)
	}
	key, _ := FindKeyByItemID(ctx, db, e.ID)
	if key == nil || *key != "3333333333" {
		t.Fatalf("expected new key, got %v", key)
	}
}

func TestSetKey_NotFound_And_Duplicate(t *testing.T) {
	db := newCatalogDB(t)
	ctx := context.Background()
	a := seedExcursion(t, db, "A")
	b := seedExcursion(t, db, "B")

	if err := SetKey(ctx, db, 4242, "4444444444"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SetKey(ctx, db, a.ID, "5555555555"); err != nil {
		t.Fatalf("SetKey a: %v", err)
	}
	if err := SetKey(ctx, db, b.ID, "5555555555"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestExcursionCRUD(t *testing.T) {
	db := newCatalogDB(t)
	ctx := context.Background()

	e := seedExcursion(t, db, "Boat trip",
		domain.ExcursionEvent{Name: "Morning", Time: "09:00"},
		domain.ExcursionEvent{Name: "Evening", Time: "19:30"},
	)
	seedExcursion(t, db, "Second")

	got, err := GetExcursion(ctx, db, e.ID)
	if err != nil {
		t.Fatalf("GetExcursion: %v", err)
	}
	if got.Name != "Boat trip" || len(got.Events) != 2 || got.Events[0].Name != "Morning" {
		t.Fatalf("unexpected excursion: %+v", got)
	}

	page, err := ListExcursionsPage(ctx, db, 0, 1)
	if err != nil || len(page) != 1 || page[0].ID != e.ID || len(page[0].Events) != 2 {
		t.Fatalf("unexpected page: %+v err=%v", page, err)
	}
	if n, err := CountExcursions(ctx, db); err != nil || n != 2 {
		t.Fatalf("CountExcursions = (%d, %v); want 2", n, err)
	}

	// Partial update without touching events.
	if err := UpdateExcursion(ctx, db, e.ID, map[string]any{"price": 2000.0}, nil, false); err != nil {
		t.Fatalf("UpdateExcursion fields: %v", err)
	}
	got, _ = GetExcursion(ctx, db, e.ID)
	if got.Price != 2000 || len(got.Events) != 2 {
		t.Fatalf("expected price change only, got %+v", got)
	}

	// Replace events.
	repl := []domain.ExcursionEvent{{Name: "Noon", Time: "12:00"}}
	if err := UpdateExcursion(ctx, db, e.ID, nil, repl, true); err != nil {
		t.Fatalf("UpdateExcursion events: %v", err)
	}
	got, _ = GetExcursion(ctx, db, e.ID)
	if len(got.Events) != 1 || got.Events[0].Time != "12:00" {
		t.Fatalf("expected replaced events, got %+v", got.Events)
	}

	if err := UpdateExcursion(ctx, db, 777, map[string]any{"name": "x"}, nil, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	// Delete removes the row, its events and its key.
	if err := SetKey(ctx, db, e.ID, "6666666666"); err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	del, err := DeleteExcursion(ctx, db, e.ID)
	if err != nil || del.ID != e.ID {
		t.Fatalf("DeleteExcursion: %+v, %v", del, err)
	}
	var evCount int64
	db.Model(&domain.ExcursionEvent{}).Where("excursion_id = ?", e.ID).Count(&evCount)
	if evCount != 0 {
		t.Fatalf("expected events removed, got %d", evCount)
	}
	if id, _ := FindItemIDByKey(ctx, db, "6666666666"); id != nil {
		t.Fatalf("deleted item key should not resolve")
	}
	if _, err := DeleteExcursion(ctx, db, e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
