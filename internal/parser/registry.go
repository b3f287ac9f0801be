package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the registered parsers in registration order and routes
// files to them. It is populated at startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	order   []FileFormat
	parsers map[FileFormat]Parser
	log     *zap.Logger
}

var _ Factory = (*Registry)(nil)

// NewRegistry creates an empty registry
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		parsers: make(map[FileFormat]Parser),
		log:     log,
	}
}

// NewDefaultRegistry creates a registry with the EPUB, Markdown and PDF parsers
func NewDefaultRegistry(log *zap.Logger, opts ...EPUBOption) *Registry {
	r := NewRegistry(log)

	r.Register(NewEPUBParser(append([]EPUBOption{WithEPUBLogger(r.log)}, opts...)...))
	r.Register(NewMarkdownParser())
	r.Register(NewPDFParser())

	return r
}

// Register inserts the parser under its format. A later registration for the
// same format replaces the parser but keeps the original detection position.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	format := p.Format()
	if _, exists := r.parsers[format]; !exists {
		r.order = append(r.order, format)
	}
	r.parsers[format] = p
}

// DetectFormat returns the format of the first registered parser that claims
// the file. Only the file name is inspected.
func (r *Registry) DetectFormat(file File) (FileFormat, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, format := range r.order {
		if r.parsers[format].CanParse(file) {
			return format, true
		}
	}
	return "", false
}

// GetParser returns the parser registered for the given format
func (r *Registry) GetParser(format FileFormat) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[format]
	return p, ok
}

// ParseFile detects the file's format and parses it. Every failure is
// returned as a *ParseError; parser failures are wrapped once more with the
// parser's error kept as the cause. A panicking parser is reported the same
// way.
func (r *Registry) ParseFile(ctx context.Context, file File) (result *Result, err error) {
	format, ok := r.DetectFormat(file)
	if !ok {
		return nil, newParseError(UndetectedFormat, nil, "unsupported file format: %s", file.Name())
	}

	p, ok := r.GetParser(format)
	if !ok {
		return nil, newParseError(format, nil, "no parser registered for format %s", format)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("parser panicked", zap.String("file", file.Name()), zap.Any("panic", rec))
			result = nil
			err = newParseError(format, fmt.Errorf("panic: %v", rec), "failed to parse %s file %s: panic: %v", format, file.Name(), rec)
		}
	}()

	r.log.Debug("parsing file", zap.String("file", file.Name()), zap.String("format", string(format)))

	result, err = p.Parse(ctx, file)
	if err != nil {
		r.log.Debug("parse failed", zap.String("file", file.Name()), zap.Error(err))
		return nil, newParseError(format, err, "failed to parse %s file %s: %s", format, file.Name(), err.Error())
	}
	if result == nil {
		return nil, newParseError(format, errors.New("parser returned no result"), "failed to parse %s file %s", format, file.Name())
	}

	r.log.Debug("parsed file",
		zap.String("file", file.Name()),
		zap.String("title", result.Title),
		zap.Int("chars", len(result.Text)))

	return result, nil
}

// Formats returns the registered formats in registration order, which is
// also the order DetectFormat tries them in.
func (r *Registry) Formats() []FileFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]FileFormat, len(r.order))
	copy(formats, r.order)
	return formats
}

// SupportedFormats aggregates extensions across registered parsers in
// registration order. Duplicates are kept.
func (r *Registry) SupportedFormats() SupportedFormats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0)
	for _, format := range r.order {
		extensions = append(extensions, r.parsers[format].Capabilities().Extensions...)
	}

	accept := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		accept = append(accept, "."+ext)
	}

	return SupportedFormats{
		Extensions: extensions,
		Accept:     strings.Join(accept, ","),
	}
}
