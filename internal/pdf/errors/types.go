package errors

import (
	"fmt"
	"strings"
)

// PDFError is a failure of the highlight-to-SQL run, classified by ErrorType
type PDFError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	PageIndex int       `json:"page_index,omitempty"`
	Err       error     `json:"-"`

	hasPage bool
}

// ErrorType represents the categories of failure
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeInvalidDocument
	ErrorTypeMarkerNotFound
	ErrorTypeMalformedHighlight
	ErrorTypeOutput
)

// Sentinels for errors.Is; any PDFError of the same type matches.
var (
	ErrInvalidDocument    = &PDFError{Type: ErrorTypeInvalidDocument}
	ErrMarkerNotFound     = &PDFError{Type: ErrorTypeMarkerNotFound}
	ErrMalformedHighlight = &PDFError{Type: ErrorTypeMalformedHighlight}
	ErrOutput             = &PDFError{Type: ErrorTypeOutput}
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeMarkerNotFound:
		return "MARKER_NOT_FOUND"
	case ErrorTypeMalformedHighlight:
		return "MALFORMED_HIGHLIGHT"
	case ErrorTypeOutput:
		return "OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// Error implements the error interface
func (e *PDFError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Type)
	if e.Message != "" {
		b.WriteString(" " + e.Message)
	}
	if e.Context != "" {
		b.WriteString(": " + e.Context)
	}
	if e.hasPage {
		fmt.Fprintf(&b, " (page index %d)", e.PageIndex)
	}
	if e.FilePath != "" {
		fmt.Fprintf(&b, " in %s", e.FilePath)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is matches any PDFError of the same type
func (e *PDFError) Is(target error) bool {
	t, ok := target.(*PDFError)
	return ok && t.Type == e.Type
}

// HasPage reports whether the error is tied to a page
func (e *PDFError) HasPage() bool {
	return e.hasPage
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:    errorType,
		Message: message,
	}
}

// WrapError wraps err as a PDFError of the given type
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	return &PDFError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage ties the error to a zero-based page index
func (e *PDFError) WithPage(pageIndex int) *PDFError {
	e.PageIndex = pageIndex
	e.hasPage = true
	return e
}
