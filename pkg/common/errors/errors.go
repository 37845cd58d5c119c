package errors

import (
	"errors"
	"fmt"

	"github.com/duynguyendang/coursepack/pkg/records"
)

// Common sentinel errors
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoDocuments      = errors.New("no input documents found")
	ErrUnreadable       = errors.New("document unreadable")
	ErrEmptyDocument    = errors.New("document is empty")
	ErrUnparsable       = errors.New("document unparsable")
	ErrLiteralNotFound  = errors.New("literal array not found")
	ErrLiteralSyntax    = errors.New("literal syntax error")
	ErrMissingField     = errors.New("required field missing")
	ErrAnswerOutOfRange = errors.New("correct answer index out of range")
)

// ExtractError is a document-level failure with the file it came from.
type ExtractError struct {
	Category string
	File     string
	Message  string
	Err      error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewExtractError creates a new ExtractError. The category is derived
// from err.
func NewExtractError(file, message string, err error) *ExtractError {
	return &ExtractError{
		Category: Categorize(err),
		File:     file,
		Message:  message,
		Err:      err,
	}
}

// Categorize maps an error to a finding category.
func Categorize(err error) string {
	if err == nil {
		return records.CategoryInternal
	}

	var extErr *ExtractError
	if errors.As(err, &extErr) && extErr.Category != "" {
		return extErr.Category
	}

	switch {
	case errors.Is(err, ErrUnreadable), errors.Is(err, ErrEmptyDocument):
		return records.CategoryRead
	case errors.Is(err, ErrUnparsable):
		return records.CategoryParse
	case errors.Is(err, ErrLiteralNotFound), errors.Is(err, ErrLiteralSyntax):
		return records.CategoryLiteral
	case errors.Is(err, ErrMissingField):
		return records.CategoryField
	case errors.Is(err, ErrAnswerOutOfRange):
		return records.CategoryBounds
	}
	return records.CategoryInternal
}

// ToFinding converts any document-level error into an error finding.
func ToFinding(file string, err error) records.Finding {
	msg := err.Error()
	var extErr *ExtractError
	if errors.As(err, &extErr) {
		file = extErr.File
		msg = extErr.Message
		if extErr.Err != nil {
			msg = fmt.Sprintf("%s: %v", extErr.Message, extErr.Err)
		}
	}
	return records.Finding{
		Severity: records.SeverityError,
		Category: Categorize(err),
		File:     file,
		Message:  msg,
	}
}
