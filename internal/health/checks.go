package health

import (
	"context"
	"errors"

	"github.com/chess99/BookDistill/internal/parser"
	"github.com/chess99/BookDistill/internal/storage"
)

const probePath = ".healthcheck"

// StorageCheck reports whether the storage backend answers requests
func StorageCheck(adapter storage.Adapter) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if _, err := adapter.Exists(ctx, probePath); err != nil {
			return StatusUnhealthy, err
		}
		return StatusHealthy, nil
	}
}

// ParserCheck reports degraded service when no parser is registered
func ParserCheck(factory parser.Factory) CheckFunc {
	return func(ctx context.Context) (Status, error) {
		if len(factory.SupportedFormats().Extensions) == 0 {
			return StatusDegraded, errors.New("no parsers registered")
		}
		return StatusHealthy, nil
	}
}
