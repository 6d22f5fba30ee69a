package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotConfigured = errors.New("archive_not_configured")

// Provider stores generated report files.
type Provider interface {
	Enabled() bool
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

type NoOpProvider struct{}

func (NoOpProvider) Enabled() bool { return false }

func (NoOpProvider) Put(context.Context, string, io.Reader, string) error {
	return ErrNotConfigured
}
