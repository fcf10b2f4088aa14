package task

import (
	"errors"
	"fmt"
)

// ErrSourceMissing marks a source whose backing file or section does not exist.
var ErrSourceMissing = errors.New("source not present")

// SourceReadError is returned when a source is absent or unreadable.
type SourceReadError struct {
	Source string
	Path   string
	Err    error
}

func (e *SourceReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: read %s: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// ParseError is returned when a source's content cannot be decoded.
// Offset is the byte offset reported by the decoder, or -1.
type ParseError struct {
	Source string
	Path   string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Offset >= 0 {
		msg = fmt.Sprintf("offset %d: %s", e.Offset, msg)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: parse %s: %s", e.Source, e.Path, msg)
	}
	return fmt.Sprintf("%s: parse: %s", e.Source, msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps a decoder error, extracting the offset when the
// decoder reports one.
func NewParseError(source, path string, err error) *ParseError {
	pe := &ParseError{Source: source, Path: path, Offset: -1, Err: err}
	var syn *jsonSyntaxError
	if errors.As(err, &syn) {
		pe.Offset = syn.Offset
	}
	var typ *jsonTypeError
	if errors.As(err, &typ) {
		pe.Offset = typ.Offset
	}
	var cmt *CommentError
	if errors.As(err, &cmt) {
		pe.Offset = cmt.Offset
	}
	return pe
}

// SourceError records a failed source in a Resolution.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string { return fmt.Sprintf("%s: %v", e.Source, e.Err) }

// Missing reports whether the failure is only an absent source.
func (e SourceError) Missing() bool { return errors.Is(e.Err, ErrSourceMissing) }
