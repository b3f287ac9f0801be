package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// paragraphSeparator follows every content document in the extracted text
const paragraphSeparator = "\n\n"

var epubExtPattern = regexp.MustCompile(`(?i)\.epub$`)

// EPUBParser extracts the text of an EPUB container in spine order
type EPUBParser struct {
	maxEntrySize int64
	log          *zap.Logger
}

// EPUBOption configures an EPUBParser
type EPUBOption func(*EPUBParser)

// WithMaxEntrySize limits the decompressed size of each archive member
func WithMaxEntrySize(n int64) EPUBOption {
	return func(p *EPUBParser) {
		if n > 0 {
			p.maxEntrySize = n
		}
	}
}

// WithEPUBLogger sets the logger used for skipped documents
func WithEPUBLogger(log *zap.Logger) EPUBOption {
	return func(p *EPUBParser) {
		if log != nil {
			p.log = log
		}
	}
}

// NewEPUBParser creates a new EPUB parser
func NewEPUBParser(opts ...EPUBOption) *EPUBParser {
	p := &EPUBParser{
		maxEntrySize: DefaultMaxEntrySize,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *EPUBParser) Format() FileFormat {
	return FormatEPUB
}

func (p *EPUBParser) Capabilities() Capabilities {
	return Capabilities{
		Extensions:         []string{"epub"},
		MIMETypes:          []string{"application/epub+zip"},
		SupportsLargeFiles: true,
		Description:        "EPUB e-books (text extracted in reading order)",
	}
}

// CanParse reports whether the file name ends with .epub, ignoring case
func (p *EPUBParser) CanParse(file File) bool {
	return hasExtension(file.Name(), "epub")
}

// Parse extracts title, author and the text of every spine document.
// Failures that are not already a *ParseError are wrapped in one.
func (p *EPUBParser) Parse(ctx context.Context, file File) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newParseError(FormatEPUB, fmt.Errorf("panic: %v", r), "EPUB parsing failed: %v", r)
		}
	}()

	result, err = p.parse(ctx, file)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			return nil, pe
		}
		return nil, newParseError(FormatEPUB, err, "EPUB parsing failed: %s", err.Error())
	}
	return result, nil
}

func (p *EPUBParser) parse(ctx context.Context, file File) (*Result, error) {
	data, err := file.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	a, err := openArchive(data, p.maxEntrySize)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	opfPath, err := findPackagePath(a)
	if err != nil {
		return nil, err
	}

	pkg, err := readPackage(a, opfPath)
	if err != nil {
		return nil, err
	}

	title := pkg.title
	if title == "" {
		title = fallbackTitle(file.Name(), epubExtPattern)
	}

	var text strings.Builder
	read := 0
	for _, href := range pkg.spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docPath := pkg.resolve(href)
		markup, found, err := a.readText(docPath)
		if err != nil {
			return nil, err
		}
		if !found {
			if alt := alternatePath(docPath); alt != "" {
				markup, found, err = a.readText(alt)
				if err != nil {
					return nil, err
				}
			}
		}
		if !found {
			p.log.Debug("skipping missing content document",
				zap.String("file", file.Name()),
				zap.String("path", docPath))
			continue
		}

		body, err := extractBodyText(markup)
		if err != nil {
			return nil, fmt.Errorf("failed to parse content document %s: %w", docPath, err)
		}
		text.WriteString(body)
		text.WriteString(paragraphSeparator)
		read++
	}

	p.log.Debug("extracted EPUB text",
		zap.String("file", file.Name()),
		zap.String("package", opfPath),
		zap.Int("spine", len(pkg.spine)),
		zap.Int("documents", read))

	result := &Result{
		Text:   text.String(),
		Title:  title,
		Format: FormatEPUB,
	}
	if pkg.author != "" {
		author := pkg.author
		result.Author = &author
	}
	return result, nil
}
