package records

import "fmt"

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding categories.
const (
	CategoryRead             = "read"
	CategoryParse            = "parse"
	CategoryLiteral          = "literal"
	CategoryField            = "missing-field"
	CategoryBounds           = "answer-bounds"
	CategoryModuleMismatch   = "module-mismatch"
	CategoryMissingModule    = "missing-module"
	CategoryMissingTitle     = "missing-title"
	CategoryMissingContent   = "missing-content"
	CategoryDuplicateSlug    = "duplicate-slug"
	CategoryDuplicateQuiz    = "duplicate-quiz"
	CategoryDuplicateOrder   = "duplicate-order"
	CategoryCountMismatch    = "count-mismatch"
	CategoryUnresolvedLink   = "unresolved-link"
	CategoryOrderingOverflow = "ordering-overflow"
	CategoryOrderingRange    = "ordering-range"
	CategoryNoExplanation    = "missing-explanation"
	CategoryInternal         = "internal"
)

// Finding is an ExtractionError (SeverityError) or ExtractionWarning
// (SeverityWarning), or an informational note. File is the source document
// the finding is about; batch-level findings may leave it empty.
type Finding struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
}

func (f Finding) String() string {
	if f.File == "" {
		return fmt.Sprintf("[%s] %s", f.Category, f.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Category, f.File, f.Message)
}

// Errorf builds an error finding.
func Errorf(category, file, format string, args ...any) Finding {
	return Finding{Severity: SeverityError, Category: category, File: file, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning finding.
func Warnf(category, file, format string, args ...any) Finding {
	return Finding{Severity: SeverityWarning, Category: category, File: file, Message: fmt.Sprintf(format, args...)}
}
