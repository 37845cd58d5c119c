package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/duynguyendang/coursepack/pkg/ordering"
	"github.com/duynguyendang/coursepack/pkg/records"
)

// ModuleSummary counts lessons per module. ID is nil for lessons without
// a module association.
type ModuleSummary struct {
	ID      *int
	Name    string
	Lessons int
}

// Report is the advisory outcome of a run. Nothing in it mutates or drops
// records.
type Report struct {
	Documents int
	Failed    int

	Lessons   int
	Quizzes   int
	Questions int

	MissingExplanations int
	Modules             []ModuleSummary

	// Extraction holds per-document findings in input order.
	Extraction []records.Finding
	// Validation holds batch-level findings.
	Validation []records.Finding
}

// Count returns how many findings of the severity the report holds.
func (r *Report) Count(sev records.Severity) int {
	n := 0
	for _, f := range r.Extraction {
		if f.Severity == sev {
			n++
		}
	}
	for _, f := range r.Validation {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// CountCategory returns how many findings carry the category.
func (r *Report) CountCategory(category string) int {
	n := 0
	for _, f := range r.Extraction {
		if f.Category == category {
			n++
		}
	}
	for _, f := range r.Validation {
		if f.Category == category {
			n++
		}
	}
	return n
}

// Validate runs every batch-level check. Checks never stop early; each one
// contributes zero or more findings.
func Validate(batch records.Batch) *Report {
	r := &Report{
		Lessons:   len(batch.Lessons),
		Quizzes:   len(batch.Quizzes),
		Questions: len(batch.Questions),
	}

	r.checkLessons(batch.Lessons)
	r.checkSlugs(batch.Lessons)
	r.checkLinks(batch.Lessons)
	r.checkQuizzes(batch.Quizzes, batch.Questions)
	r.Modules = summarizeModules(batch.Lessons)
	return r
}

func (r *Report) add(f records.Finding) {
	r.Validation = append(r.Validation, f)
}

func (r *Report) checkLessons(lessons []records.LessonRecord) {
	for _, l := range lessons {
		if l.ModuleID == nil {
			r.add(records.Warnf(records.CategoryMissingModule, l.SourceFile, "lesson %q has no module association", l.Slug))
		}
		if strings.TrimSpace(l.Title) == "" {
			r.add(records.Warnf(records.CategoryMissingTitle, l.SourceFile, "lesson %q has no title", l.Slug))
		}
		if strings.TrimSpace(l.Content) == "" {
			r.add(records.Warnf(records.CategoryMissingContent, l.SourceFile, "lesson %q has no content", l.Slug))
		}
		switch key := ordering.ChapterKey(l.Title); {
		case key.OutOfRange:
			r.add(records.Warnf(records.CategoryOrderingRange, l.SourceFile,
				"title %q has a chapter number too large for an ordering key (max %d); ordering key set to 0", l.Title, ordering.MaxKey))
		case key.Overflow:
			r.add(records.Warnf(records.CategoryOrderingOverflow, l.SourceFile,
				"title %q has a minor number >= %d; its ordering key %d collides with the next chapter", l.Title, ordering.MinorLimit, l.OrderIndex))
		}
	}
}

func (r *Report) checkSlugs(lessons []records.LessonRecord) {
	files := make(map[string][]string)
	var order []string
	for _, l := range lessons {
		if _, seen := files[l.Slug]; !seen {
			order = append(order, l.Slug)
		}
		files[l.Slug] = append(files[l.Slug], l.SourceFile)
	}
	for _, slug := range order {
		if srcs := files[slug]; len(srcs) > 1 {
			r.add(records.Errorf(records.CategoryDuplicateSlug, "", "slug %q is produced by %d documents: %s", slug, len(srcs), strings.Join(srcs, ", ")))
		}
	}
}

func (r *Report) checkLinks(lessons []records.LessonRecord) {
	known := make(map[string]bool, len(lessons))
	slugs := make([]string, 0, len(lessons))
	for _, l := range lessons {
		if !known[l.Slug] {
			known[l.Slug] = true
			slugs = append(slugs, l.Slug)
		}
	}
	sort.Strings(slugs)

	check := func(l records.LessonRecord, rel, target string) {
		if target == "" || known[target] {
			return
		}
		msg := fmt.Sprintf("%s link of %q points to unknown slug %q", rel, l.Slug, target)
		if s := Suggest(target, slugs); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		r.add(records.Finding{Severity: records.SeverityWarning, Category: records.CategoryUnresolvedLink, File: l.SourceFile, Message: msg})
	}
	for _, l := range lessons {
		check(l, "previous", l.PrevSlug)
		check(l, "next", l.NextSlug)
	}
}

func (r *Report) checkQuizzes(quizzes []records.QuizRecord, questions []records.QuestionRecord) {
	source := make(map[int]string, len(quizzes))
	for _, q := range quizzes {
		if prev, dup := source[q.ID]; dup {
			r.add(records.Errorf(records.CategoryDuplicateQuiz, q.SourceFile, "quiz id %d is already used by %s", q.ID, prev))
			continue
		}
		source[q.ID] = q.SourceFile
	}

	actual := make(map[int]int)
	seenOrder := make(map[[2]int]bool)
	for _, q := range questions {
		file, known := source[q.QuizID]
		if !known {
			r.add(records.Errorf(records.CategoryField, "", "question %d references unknown quiz %d", q.OrderIndex, q.QuizID))
		}
		actual[q.QuizID]++

		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			r.add(records.Errorf(records.CategoryBounds, file, "quiz %d question %d: correct option %d outside [0, %d)", q.QuizID, q.OrderIndex, q.CorrectOption, len(q.Options)))
		}

		key := [2]int{q.QuizID, q.OrderIndex}
		if seenOrder[key] {
			r.add(records.Errorf(records.CategoryDuplicateOrder, file, "quiz %d has more than one question at order %d", q.QuizID, q.OrderIndex))
		}
		seenOrder[key] = true

		if strings.TrimSpace(q.Explanation) == "" {
			r.MissingExplanations++
		}
	}

	for _, q := range quizzes {
		if source[q.ID] != q.SourceFile {
			continue // duplicate, already reported
		}
		if got := actual[q.ID]; got != q.QuestionCount {
			r.add(records.Warnf(records.CategoryCountMismatch, q.SourceFile, "quiz %d declares %d questions but %d were extracted", q.ID, q.QuestionCount, got))
		}
	}
}

func summarizeModules(lessons []records.LessonRecord) []ModuleSummary {
	byID := make(map[int]*ModuleSummary)
	var unassigned *ModuleSummary
	for _, l := range lessons {
		id, ok := l.ModuleKey()
		if !ok {
			if unassigned == nil {
				unassigned = &ModuleSummary{}
			}
			unassigned.Lessons++
			continue
		}
		m, exists := byID[id]
		if !exists {
			m = &ModuleSummary{ID: records.IntPtr(id)}
			byID[id] = m
		}
		if m.Name == "" {
			m.Name = l.ModuleName
		}
		m.Lessons++
	}

	out := make([]ModuleSummary, 0, len(byID)+1)
	for _, m := range byID {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].ID < *out[j].ID })
	if unassigned != nil {
		out = append(out, *unassigned)
	}
	return out
}

// Suggest returns the candidate closest to target by edit distance, or ""
// when nothing is close enough to be a plausible typo. Candidates must be
// sorted so ties resolve the same way every run.
func Suggest(target string, candidates []string) string {
	best := ""
	bestDist := -1
	limit := len(target) / 3
	if limit < 2 {
		limit = 2
	}
	for _, c := range candidates {
		d := levenshtein.Distance(strings.ToLower(target), strings.ToLower(c), nil)
		if d > limit {
			continue
		}
		if bestDist == -1 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
