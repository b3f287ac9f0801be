package types

import "time"

// Document statuses
const (
	StatusParsing = "parsing"
	StatusReady   = "ready"
	StatusError   = "error"
)

// Document represents an uploaded file and the outcome of extracting its text
type Document struct {
	ID         string     `json:"id"`
	Filename   string     `json:"filename"`
	Format     string     `json:"format"` // "epub", "markdown", "pdf"
	Size       int64      `json:"size"`   // bytes
	Title      string     `json:"title,omitempty"`
	Author     string     `json:"author,omitempty"`
	Status     string     `json:"status"` // "parsing", "ready", "error"
	Error      string     `json:"error,omitempty"`
	CharCount  int        `json:"char_count"`
	UploadedAt time.Time  `json:"uploaded_at"`
	ParsedAt   *time.Time `json:"parsed_at,omitempty"`
}
