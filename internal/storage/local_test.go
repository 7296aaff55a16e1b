package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocal_PutAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l := NewLocal(dir, "/uploads/", 0)
	ctx := context.Background()

	res, err := l.Put(ctx, strings.NewReader("png-bytes"), PutInput{Filename: "Photo.PNG"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.HasSuffix(res.Key, ".png") || res.URL != "/uploads/"+res.Key {
		t.Fatalf("unexpected result: %+v", res)
	}
	b, err := os.ReadFile(filepath.Join(dir, res.Key))
	if err != nil || string(b) != "png-bytes" {
		t.Fatalf("stored content = %q, %v", b, err)
	}

	key, ok := l.KeyFromURL("https://api.example.com" + res.URL)
	if !ok || key != res.Key {
		t.Fatalf("KeyFromURL = %q, %v", key, ok)
	}

	if err := l.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, res.Key)); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err=%v", err)
	}
	if err := l.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestLocal_RejectsUnsupportedType(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads", 0)
	_, err := l.Put(context.Background(), strings.NewReader("x"), PutInput{Filename: "run.sh"})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestLocal_TooLarge_RemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/uploads", 4)

	// Declared size over the limit.
	if _, err := l.Put(context.Background(), strings.NewReader("12345"), PutInput{Filename: "a.jpg", Size: 5}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge for declared size, got %v", err)
	}
	// Undeclared size, stream over the limit.
	if _, err := l.Put(context.Background(), strings.NewReader("123456"), PutInput{Filename: "a.jpg"}); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge for streamed size, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, got %d", len(entries))
	}
}

func TestLocal_KeyFromURL_Rejects(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads", 0)
	for _, u := range []string{"", "/static/a.png", "/uploads/", "/uploads/a/b.png"} {
		if _, ok := l.KeyFromURL(u); ok {
			t.Fatalf("KeyFromURL(%q) should fail", u)
		}
	}
	if l.String() == "" {
		t.Fatalf("String() should describe the storage")
	}
}
