package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-excursion-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(sqliteDSN(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestExcursionsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := ExcursionsStats(context.Background(), db)
	if err == nil {
		t.Fatalf("expected error due to missing excursions table")
	}
}

func TestExcursionsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Category{}, &domain.Excursion{}, &domain.ExcursionEvent{})
	count, maxAt, err := ExcursionsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("ExcursionsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestExcursionsStats_Success_Max(t *testing.T) {
	db := newTestDB(t, &domain.Category{}, &domain.Excursion{}, &domain.ExcursionEvent{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max
	t3 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{t1, t2, t3} {
		e := &domain.Excursion{Name: fmt.Sprintf("e%d", i), City: "Kazan", Info: "i", CreatedAt: ts, UpdatedAt: ts}
		// UpdateColumn keeps our explicit UpdatedAt instead of autoUpdateTime.
		if err := db.Create(e).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := db.Model(e).UpdateColumn("updated_at", ts).Error; err != nil {
			t.Fatalf("pin updated_at: %v", err)
		}
	}

	count, maxAt, err := ExcursionsStats(context.Background(), db)
	if err != nil {
		t.Fatalf("ExcursionsStats error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count=3, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected max=%v, got %v", t2, maxAt)
	}
}

func TestCategoriesStats_ZeroAndOne(t *testing.T) {
	db := newTestDB(t, &domain.Category{})
	ctx := context.Background()

	if n, maxAt, err := CategoriesStats(ctx, db); err != nil || n != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil, nil), got (%d, %v, %v)", n, maxAt, err)
	}
	if err := db.Create(&domain.Category{Name: "Boats"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	n, maxAt, err := CategoriesStats(ctx, db)
	if err != nil || n != 1 || maxAt == nil || maxAt.IsZero() {
		t.Fatalf("unexpected stats: n=%d max=%v err=%v", n, maxAt, err)
	}
}
