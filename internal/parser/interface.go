package parser

import (
	"context"
)

// FileFormat identifies a document format. It is used both as a routing key
// in the registry and as a tag on results and errors.
type FileFormat string

const (
	FormatEPUB     FileFormat = "epub"
	FormatMarkdown FileFormat = "markdown"
	FormatPDF      FileFormat = "pdf"
	FormatDOCX     FileFormat = "docx"
	FormatTXT      FileFormat = "txt"
)

// UndetectedFormat tags errors for files that no registered parser claims
const UndetectedFormat = FormatTXT

// Capabilities describes what a parser accepts. It is used for building
// file picker filters and carries no behavioral contract.
type Capabilities struct {
	Extensions         []string `json:"extensions"`
	MIMETypes          []string `json:"mime_types"`
	SupportsLargeFiles bool     `json:"supports_large_files"`
	Description        string   `json:"description"`
}

// Result is the output of a successful parse
type Result struct {
	Text   string     `json:"text"`
	Title  string     `json:"title"`
	Author *string    `json:"author,omitempty"` // nil when the document declares none
	Format FileFormat `json:"format"`
}

// AuthorOrEmpty returns the declared author or an empty string
func (r *Result) AuthorOrEmpty() string {
	if r.Author == nil {
		return ""
	}
	return *r.Author
}

// Parser defines the interface for document parsers
type Parser interface {
	// Format returns the format this parser produces
	Format() FileFormat

	// Capabilities returns the static description of accepted inputs
	Capabilities() Capabilities

	// CanParse reports whether the parser claims the file. It must only
	// look at cheap local signals such as the file name.
	CanParse(file File) bool

	// Parse extracts text and metadata from the file. Errors are always *ParseError.
	Parse(ctx context.Context, file File) (*Result, error)
}

// Factory detects formats and routes files to parsers
type Factory interface {
	// DetectFormat returns the format of the first registered parser claiming the file
	DetectFormat(file File) (FileFormat, bool)

	// GetParser returns the parser registered for the given format
	GetParser(format FileFormat) (Parser, bool)

	// ParseFile detects the format and parses the file
	ParseFile(ctx context.Context, file File) (*Result, error)

	// Formats returns the registered formats in detection order
	Formats() []FileFormat

	// SupportedFormats returns the extensions accepted by registered parsers
	SupportedFormats() SupportedFormats
}

// SupportedFormats lists accepted extensions for UI consumption
type SupportedFormats struct {
	Extensions []string `json:"extensions"`
	Accept     string   `json:"accept"`
}
