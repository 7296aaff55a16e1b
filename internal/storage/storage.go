// Package storage keeps uploaded catalog images.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnsupportedType is returned for files that are not a known image type.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")
)

// PutInput describes an upload.
type PutInput struct {
	Filename    string
	ContentType string
	Size        int64
}

// PutResult locates a stored file.
type PutResult struct {
	Key string
	URL string
}

// Storage stores and removes uploaded files.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL returns the key of a URL produced by Put, or false when the
	// URL does not belong to this storage.
	KeyFromURL(url string) (string, bool)
}
