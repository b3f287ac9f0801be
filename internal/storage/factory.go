package storage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chess99/BookDistill/pkg/types"
	"go.uber.org/zap"
)

// Values accepted for storage.adapter
const (
	AdapterLocal = "local"
	AdapterS3    = "s3"
)

type adapterBuilder func(cfg types.StorageConfig, log *zap.Logger) (Adapter, error)

var adapterBuilders = map[string]adapterBuilder{
	// Keeps documents/ under a directory on disk
	AdapterLocal: func(cfg types.StorageConfig, _ *zap.Logger) (Adapter, error) {
		return NewLocalAdapter(cfg.Local.BasePath)
	},
	// Keeps documents/ under the configured key prefix of an S3 bucket
	AdapterS3: func(cfg types.StorageConfig, log *zap.Logger) (Adapter, error) {
		return NewS3Adapter(S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			MaxRetries:      cfg.S3.MaxRetries,
		}, log)
	},
}

// AdapterNames returns the supported storage.adapter values, sorted
func AdapterNames() []string {
	names := make([]string, 0, len(adapterBuilders))
	for name := range adapterBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAdapter opens the backend that holds the document store
func NewAdapter(cfg types.StorageConfig, log *zap.Logger) (Adapter, error) {
	build, ok := adapterBuilders[cfg.Adapter]
	if !ok {
		return nil, fmt.Errorf("unknown storage adapter %q (want one of: %s)", cfg.Adapter, strings.Join(AdapterNames(), ", "))
	}

	adapter, err := build(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Adapter, err)
	}
	return adapter, nil
}
