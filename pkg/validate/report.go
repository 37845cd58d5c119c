package validate

import (
	"bufio"
	"fmt"
	"io"

	"github.com/duynguyendang/coursepack/pkg/records"
)

const (
	markOK    = "✓"
	markWarn  = "⚠"
	markError = "✗"
	markInfo  = "ℹ"
)

func mark(sev records.Severity) string {
	switch sev {
	case records.SeverityError:
		return markError
	case records.SeverityWarning:
		return markWarn
	}
	return markInfo
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Render writes the human-readable report. The output depends only on the
// report contents, so identical runs render identical text.
func (r *Report) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p("Content extraction report\n")
	p("=========================\n\n")

	p("%s Documents processed: %d\n", markOK, r.Documents)
	p("%s Documents accepted: %d\n", markOK, r.Documents-r.Failed)
	if r.Failed > 0 {
		p("%s Documents failed: %d\n", markError, r.Failed)
	} else {
		p("%s Documents failed: 0\n", markOK)
	}
	p("%s Lessons: %d\n", markOK, r.Lessons)
	p("%s Quizzes: %d (%s)\n", markOK, r.Quizzes, plural(r.Questions, "question"))
	if r.MissingExplanations > 0 {
		p("%s Questions without explanation: %d\n", markInfo, r.MissingExplanations)
	} else {
		p("%s Questions without explanation: 0\n", markOK)
	}

	if len(r.Modules) > 0 {
		p("\nModules\n")
		for _, m := range r.Modules {
			switch {
			case m.ID == nil:
				p("  Unassigned: %s\n", plural(m.Lessons, "lesson"))
			case m.Name != "":
				p("  Module %d (%s): %s\n", *m.ID, m.Name, plural(m.Lessons, "lesson"))
			default:
				p("  Module %d: %s\n", *m.ID, plural(m.Lessons, "lesson"))
			}
		}
	}

	section := func(title string, findings []records.Finding) {
		p("\n%s\n", title)
		if len(findings) == 0 {
			p("  %s none\n", markOK)
			return
		}
		for _, f := range findings {
			p("  %s %s\n", mark(f.Severity), f.String())
		}
	}
	section("Extraction findings", r.Extraction)
	section("Validation findings", r.Validation)

	p("\nSummary: %s, %s\n", plural(r.Count(records.SeverityError), "error"), plural(r.Count(records.SeverityWarning), "warning"))

	return bw.Flush()
}
