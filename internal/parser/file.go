package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// File is a named document whose bytes can be loaded on demand
type File interface {
	// Name returns the file name used for detection and fallback titles
	Name() string

	// ReadAll returns the full contents of the file
	ReadAll(ctx context.Context) ([]byte, error)
}

type memFile struct {
	name string
	data []byte
}

// NewFile wraps bytes that are already in memory
func NewFile(name string, data []byte) File {
	return &memFile{name: name, data: data}
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.data, nil
}

type diskFile struct {
	path string
}

// OpenFile returns a File backed by a path on disk. The file is read lazily,
// so detection never touches its contents.
func OpenFile(path string) File {
	return &diskFile{path: path}
}

func (f *diskFile) Name() string { return filepath.Base(f.path) }

func (f *diskFile) ReadAll(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return data, nil
}

// hasExtension reports whether name ends with one of exts, ignoring case.
// exts are given without the leading dot.
func hasExtension(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, "."+strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// fallbackTitle returns the base name of the file with the matched extension removed
func fallbackTitle(name string, ext *regexp.Regexp) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = name
	}
	if title := ext.ReplaceAllString(base, ""); title != "" {
		return title
	}
	return base
}
