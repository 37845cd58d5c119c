package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
	"github.com/duynguyendang/coursepack/pkg/docmodel"
	"github.com/duynguyendang/coursepack/pkg/literal"
	"github.com/duynguyendang/coursepack/pkg/ordering"
	"github.com/duynguyendang/coursepack/pkg/records"
)

// questionNamespace seeds the name-based ids of questions authored without
// an id, so the same quiz position always maps to the same id.
var questionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("coursepack:question"))

// QuestionSourceID returns the deterministic id of the question at order
// (1-based) in quiz quizID.
func QuestionSourceID(quizID, order int) string {
	return uuid.NewSHA1(questionNamespace, []byte(fmt.Sprintf("quiz:%d:%d", quizID, order))).String()
}

func (e *Extractor) extractQuiz(id string, doc *docmodel.Document) (*records.QuizRecord, []records.QuestionRecord, []records.Finding, error) {
	var warnings []records.Finding

	t := documentTitle(doc)

	label, hasLabel := e.moduleLabel(doc)
	if !hasLabel && t != "" {
		label, hasLabel = ordering.ParseModuleLabel(t)
	}
	fileID, hasFile := ordering.ModuleFromFilename(id)
	res := ordering.ResolveModule(label, hasLabel, fileID, hasFile)
	if !res.Found {
		return nil, nil, nil, &commonerrors.ExtractError{
			Category: records.CategoryMissingModule,
			File:     id,
			Message:  "quiz has no module id in its labels or file name",
			Err:      commonerrors.ErrMissingField,
		}
	}
	if res.Conflict {
		warnings = append(warnings, records.Warnf(records.CategoryModuleMismatch, id,
			"module label says %d but file name says %d; using %d", res.LabelID, res.FileID, res.ID))
	}

	body, found := e.questionsLiteral(doc)
	if !found {
		return nil, nil, nil, commonerrors.NewExtractError(id,
			fmt.Sprintf("no %q array in any script", e.conv.LiteralName), commonerrors.ErrLiteralNotFound)
	}
	parsed, err := literal.Questions(body)
	if err != nil {
		return nil, nil, nil, commonerrors.NewExtractError(id, "questions rejected", err)
	}

	quiz := &records.QuizRecord{
		ID:               res.ID,
		ModuleID:         res.ID,
		Title:            t,
		PassingScore:     e.quiz.PassingScore,
		TimeLimitMinutes: e.quiz.TimeLimitMinutes,
		QuestionCount:    len(parsed),
		SourceFile:       id,
	}
	if n := docmodel.First(doc.Find("", docmodel.HasClass(e.conv.QuizDescClass))); n != nil {
		quiz.Description = docmodel.NormalizedText(n)
	}

	if c := e.container(doc); c != nil {
		intAttr := func(name string, dst *int) {
			v, ok := docmodel.Attribute(c, name)
			if !ok || strings.TrimSpace(v) == "" {
				return
			}
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				warnings = append(warnings, records.Warnf(records.CategoryField, id,
					"%s=%q is not a non-negative integer; using %d", name, v, *dst))
				return
			}
			*dst = n
		}
		intAttr(e.conv.PassingScoreAttr, &quiz.PassingScore)
		intAttr(e.conv.TimeLimitAttr, &quiz.TimeLimitMinutes)
		intAttr(e.conv.QuestionCountAttr, &quiz.QuestionCount)
	}

	questions := make([]records.QuestionRecord, 0, len(parsed))
	for i, q := range parsed {
		order := i + 1
		rec := records.QuestionRecord{
			QuizID:        quiz.ID,
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.Correct,
			Explanation:   q.Explanation,
			Points:        q.Points,
			OrderIndex:    order,
			SourceID:      q.ID,
		}
		if rec.Points <= 0 {
			rec.Points = e.quiz.Points
		}
		if rec.SourceID == "" {
			rec.SourceID = QuestionSourceID(quiz.ID, order)
		}
		questions = append(questions, rec)
	}

	return quiz, questions, warnings, nil
}

// container is the first element carrying the quiz attribute, else the
// first with the container class.
func (e *Extractor) container(doc *docmodel.Document) *html.Node {
	if n := docmodel.First(doc.Find("", docmodel.HasAttr(e.conv.QuizContainerAttr))); n != nil {
		return n
	}
	return docmodel.First(doc.Find("", docmodel.HasClass(e.conv.QuizContainerClass)))
}

// questionsLiteral returns the first matching array across all scripts in
// document order.
func (e *Extractor) questionsLiteral(doc *docmodel.Document) (string, bool) {
	for script := range doc.Find("script") {
		if body, ok := e.locator.Locate(docmodel.RawText(script), e.conv.LiteralName); ok {
			return body, true
		}
	}
	return "", false
}
