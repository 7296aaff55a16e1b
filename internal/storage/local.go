package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local stores files in a directory served under URLPrefix.
type Local struct {
	BaseDir   string
	URLPrefix string
	MaxBytes  int64 // <= 0 means unlimited
}

// NewLocal creates a Local storage.
func NewLocal(baseDir, urlPrefix string, maxBytes int64) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: strings.TrimRight(urlPrefix, "/"), MaxBytes: maxBytes}
}

// Put writes r under a fresh UUID name keeping a safe image extension.
func (l *Local) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	ext := safeExt(in.Filename)
	if ext == "" {
		return PutResult{}, ErrUnsupportedType
	}
	if l.MaxBytes > 0 && in.Size > l.MaxBytes {
		return PutResult{}, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return PutResult{}, err
	}

	if err := os.MkdirAll(l.BaseDir, 0o755); err != nil {
		return PutResult{}, err
	}

	key := uuid.NewString() + ext
	dstPath := filepath.Join(l.BaseDir, key)

	f, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return PutResult{}, err
	}

	src := r
	if l.MaxBytes > 0 {
		src = io.LimitReader(r, l.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && l.MaxBytes > 0 && n > l.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return PutResult{}, err
	}

	return PutResult{Key: key, URL: l.URLPrefix + "/" + key}, nil
}

// Delete removes key. Missing files are not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	_ = ctx
	key = filepath.Base(key)
	if key == "." || key == string(filepath.Separator) {
		return nil
	}
	err := os.Remove(filepath.Join(l.BaseDir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// KeyFromURL extracts the key from a URL of the form {URLPrefix}/{key}. Full
// URLs are accepted as long as their path starts with the prefix.
func (l *Local) KeyFromURL(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	i := strings.Index(url, l.URLPrefix+"/")
	if i < 0 {
		return "", false
	}
	key := url[i+len(l.URLPrefix)+1:]
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", false
	}
	return key, true
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif", ".svg":
		return ext
	default:
		return ""
	}
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
