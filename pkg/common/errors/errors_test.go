package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duynguyendang/coursepack/pkg/records"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, records.CategoryInternal},
		{"unreadable", fmt.Errorf("%w: permission denied", ErrUnreadable), records.CategoryRead},
		{"empty", ErrEmptyDocument, records.CategoryRead},
		{"unparsable", ErrUnparsable, records.CategoryParse},
		{"literal missing", ErrLiteralNotFound, records.CategoryLiteral},
		{"literal syntax", fmt.Errorf("question 2: %w", ErrLiteralSyntax), records.CategoryLiteral},
		{"field", ErrMissingField, records.CategoryField},
		{"bounds", fmt.Errorf("wrapped: %w", ErrAnswerOutOfRange), records.CategoryBounds},
		{"unknown", errors.New("boom"), records.CategoryInternal},
		{"explicit category", &ExtractError{Category: records.CategoryMissingModule, Err: ErrMissingField}, records.CategoryMissingModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestExtractError(t *testing.T) {
	err := NewExtractError("a.html", "cannot read document", fmt.Errorf("%w: gone", ErrUnreadable))

	assert.Equal(t, records.CategoryRead, err.Category)
	assert.Equal(t, "a.html: cannot read document: document unreadable: gone", err.Error())
	assert.ErrorIs(t, err, ErrUnreadable)

	wrapped := fmt.Errorf("outer: %w", err)
	var target *ExtractError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "a.html", target.File)
}

func TestToFinding(t *testing.T) {
	f := ToFinding("ignored.html", NewExtractError("quiz.html", "questions rejected", ErrAnswerOutOfRange))
	assert.Equal(t, records.Finding{
		Severity: records.SeverityError,
		Category: records.CategoryBounds,
		File:     "quiz.html",
		Message:  "questions rejected: correct answer index out of range",
	}, f)

	plain := ToFinding("b.html", errors.New("boom"))
	assert.Equal(t, "b.html", plain.File)
	assert.Equal(t, "boom", plain.Message)
	assert.Equal(t, records.CategoryInternal, plain.Category)
}
