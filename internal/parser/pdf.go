package parser

import (
	"context"
)

// PDFParser reserves the pdf format. Files are recognized but parsing is not
// available yet, so callers get a typed failure rather than "unsupported".
type PDFParser struct{}

// NewPDFParser creates a new PDF parser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Format() FileFormat {
	return FormatPDF
}

func (p *PDFParser) Capabilities() Capabilities {
	return Capabilities{
		Extensions:         []string{"pdf"},
		MIMETypes:          []string{"application/pdf"},
		SupportsLargeFiles: true,
		Description:        "PDF documents (coming soon)",
	}
}

func (p *PDFParser) CanParse(file File) bool {
	return hasExtension(file.Name(), "pdf")
}

// Parse always fails
func (p *PDFParser) Parse(ctx context.Context, file File) (*Result, error) {
	return nil, newParseError(FormatPDF, nil, "PDF parsing is not yet implemented")
}
