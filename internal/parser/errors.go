package parser

import "fmt"

// ParseError is the only error kind returned by the registry and the parsers.
// Err holds the underlying cause, which may itself be a *ParseError.
type ParseError struct {
	Message string
	Format  FileFormat
	Err     error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format FileFormat, err error, msg string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(msg, args...),
		Format:  format,
		Err:     err,
	}
}
