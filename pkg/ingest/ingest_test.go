package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/internal/logger"
	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
	"github.com/duynguyendang/coursepack/pkg/records"
)

// mapSource serves documents from memory. Ids listed in unreadable fail to
// read.
type mapSource struct {
	docs       map[string]string
	unreadable map[string]bool
}

func (m mapSource) List(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.docs)+len(m.unreadable))
	for id := range m.docs {
		ids = append(ids, id)
	}
	for id := range m.unreadable {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m mapSource) Read(_ context.Context, id string) ([]byte, error) {
	if m.unreadable[id] {
		return nil, fmt.Errorf("permission denied")
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", commonerrors.ErrUnreadable, id)
	}
	return []byte(doc), nil
}

const lessonOne = `<!DOCTYPE html>
<html><head><title>Variables</title></head>
<body>
<header>
  <h1>Chapter 1.05 Variables</h1>
  <p class="lesson-subtitle">Names   and values</p>
  <span class="module-badge">Module 1: Basics</span>
</header>
<nav>
  <a class="tab active" href="#overview" data-icon="book">Overview</a>
  <a class="tab" href="#practice">Practice</a>
  <a class="tab" data-tab="notes">Notes</a>
</nav>
<main><p>Héllo <b>world</b> / done</p></main>
<footer><a class="nav-next" href="../module1/lesson-2.html#top">Next</a></footer>
</body></html>`

const lessonTwo = `<!DOCTYPE html>
<html><head><title>Chapter 2</title></head>
<body data-module="1">
<div class="lesson-content"><p>Functions</p></div>
<a class="nav-prev" href="lesson-1.html">Back</a>
</body></html>`

func quizDoc(declared, secondAnswer int) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Quiz</title></head>
<body>
<h1>Module 1 Quiz</h1>
<p class="quiz-description">Check the basics.</p>
<div class="quiz-container" data-quiz data-passing-score="80" data-time-limit="15" data-question-count="%d"></div>
<script src="app.js"></script>
<script>
// quiz data
const questions = [
  {question: "A, B: C?", options: ["x", "y"], correctAnswer: 1, explanation: 'see // not a comment',},
  {question: "Second?", options: ['a', 'b', 'c'], correctAnswer: %d, points: 2, id: "q-2"},
];
</script>
</body></html>`, declared, secondAnswer)
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Workers = 4
	return cfg
}

func run(t *testing.T, src Source) *Result {
	t.Helper()
	res, err := New(src, testConfig(), nil).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRunExtractsLessonsAndQuizzes(t *testing.T) {
	res := run(t, mapSource{docs: map[string]string{
		"module1/lesson-2.html":     lessonTwo,
		"module1/lesson-1.html":     lessonOne,
		"module1/module1-quiz.html": quizDoc(2, 0),
	}})

	require.Len(t, res.Batch.Lessons, 2)
	first := res.Batch.Lessons[0]
	assert.Equal(t, "lesson-1", first.Slug)
	assert.Equal(t, 105, first.OrderIndex)
	assert.Equal(t, "Chapter 1.05 Variables", first.Title)
	assert.Equal(t, "Names and values", first.Subtitle)
	require.NotNil(t, first.ModuleID)
	assert.Equal(t, 1, *first.ModuleID)
	assert.Equal(t, "Basics", first.ModuleName)
	assert.Equal(t, "<main><p>Héllo <b>world</b> / done</p></main>", first.Content)
	assert.Equal(t, []records.NavigationTab{
		{ID: "overview", Label: "Overview", Icon: "book"},
		{ID: "practice", Label: "Practice"},
		{ID: "notes", Label: "Notes"},
	}, first.Tabs)
	assert.Equal(t, "lesson-2", first.NextSlug)
	assert.Empty(t, first.PrevSlug)

	second := res.Batch.Lessons[1]
	assert.Equal(t, "lesson-2", second.Slug)
	assert.Equal(t, 200, second.OrderIndex)
	assert.Equal(t, "Chapter 2", second.Title)
	assert.Equal(t, `<div class="lesson-content"><p>Functions</p></div>`, second.Content)
	assert.Equal(t, "lesson-1", second.PrevSlug)
	assert.NotNil(t, second.Tabs)
	assert.Empty(t, second.Tabs)

	require.Len(t, res.Batch.Quizzes, 1)
	assert.Equal(t, records.QuizRecord{
		ID:               1,
		ModuleID:         1,
		Title:            "Module 1 Quiz",
		Description:      "Check the basics.",
		PassingScore:     80,
		TimeLimitMinutes: 15,
		QuestionCount:    2,
		SourceFile:       "module1/module1-quiz.html",
	}, res.Batch.Quizzes[0])

	require.Len(t, res.Batch.Questions, 2)
	q1, q2 := res.Batch.Questions[0], res.Batch.Questions[1]
	assert.Equal(t, "A, B: C?", q1.Text)
	assert.Equal(t, []string{"x", "y"}, q1.Options)
	assert.Equal(t, 1, q1.CorrectOption)
	assert.Equal(t, "see // not a comment", q1.Explanation)
	assert.Equal(t, 1, q1.Points)
	assert.Equal(t, 1, q1.OrderIndex)
	assert.Equal(t, QuestionSourceID(1, 1), q1.SourceID)
	assert.Equal(t, 2, q2.Points)
	assert.Equal(t, 2, q2.OrderIndex)
	assert.Equal(t, "q-2", q2.SourceID)

	assert.Equal(t, 3, res.Report.Documents)
	assert.Equal(t, 0, res.Report.Failed)
	assert.Equal(t, 0, res.Report.Count(records.SeverityError))
	assert.Equal(t, 0, res.Report.Count(records.SeverityWarning))
	assert.Equal(t, 1, res.Report.MissingExplanations)

	for _, out := range res.Outcomes {
		assert.Equal(t, StateAccepted, out.State, out.Source)
	}
}

func TestUnreadableAndEmptyDocumentsFailAlone(t *testing.T) {
	res := run(t, mapSource{
		docs: map[string]string{
			"module1/lesson-1.html": lessonOne,
			"module1/empty.html":    "  \n",
		},
		unreadable: map[string]bool{"module1/locked.html": true},
	})

	require.Len(t, res.Batch.Lessons, 1)
	assert.Equal(t, "lesson-1", res.Batch.Lessons[0].Slug)
	assert.Equal(t, 2, res.Report.Failed)

	require.Len(t, res.Report.Extraction, 2)
	for i, file := range []string{"module1/empty.html", "module1/locked.html"} {
		f := res.Report.Extraction[i]
		assert.Equal(t, records.SeverityError, f.Severity)
		assert.Equal(t, records.CategoryRead, f.Category)
		assert.Equal(t, file, f.File)
	}

	assert.Equal(t, StateFailed, res.Outcomes[0].State)
	assert.True(t, errors.Is(res.Outcomes[0].Err, commonerrors.ErrEmptyDocument))
	assert.True(t, errors.Is(res.Outcomes[2].Err, commonerrors.ErrUnreadable))
}

func TestFailedDocumentsLogWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	src := mapSource{
		docs: map[string]string{
			"module1/lesson-1.html": lessonOne,
			"module1/empty.html":    "",
		},
		unreadable: map[string]bool{"module1/locked.html": true},
	}
	_, err := New(src, testConfig(), log).Run(context.Background())
	require.NoError(t, err)

	failed := logs.FilterMessage("document failed")
	require.Equal(t, 2, failed.Len())
	files := map[string]bool{}
	for _, e := range failed.All() {
		assert.Equal(t, zapcore.WarnLevel, e.Level)
		files[e.ContextMap()["file"].(string)] = true
	}
	assert.Equal(t, map[string]bool{"module1/empty.html": true, "module1/locked.html": true}, files)
}

func TestOutOfRangeAnswerRejectsOnlyThatQuiz(t *testing.T) {
	res := run(t, mapSource{docs: map[string]string{
		"module1/module1-quiz.html": quizDoc(2, 0),
		"module2/module2-quiz.html": quizDoc(2, 3),
		"module1/lesson-1.html":     lessonOne,
	}})

	require.Len(t, res.Batch.Quizzes, 1)
	assert.Equal(t, 1, res.Batch.Quizzes[0].ID)
	assert.Len(t, res.Batch.Questions, 2)
	assert.Len(t, res.Batch.Lessons, 1)

	// Warnings of a failed document are dropped with it.
	require.Len(t, res.Report.Extraction, 1)
	assert.Equal(t, records.CategoryBounds, res.Report.Extraction[0].Category)
	assert.Equal(t, "module2/module2-quiz.html", res.Report.Extraction[0].File)
}

func TestDuplicateSlugKeepsBothLessons(t *testing.T) {
	res := run(t, mapSource{docs: map[string]string{
		"module1/intro.html": lessonTwo,
		"module2/intro.html": lessonTwo,
	}})

	assert.Len(t, res.Batch.Lessons, 2)
	assert.Equal(t, 1, res.Report.CountCategory(records.CategoryDuplicateSlug))
}

func TestCountMismatchIsOneWarning(t *testing.T) {
	res := run(t, mapSource{docs: map[string]string{
		"module1/module1-quiz.html": quizDoc(3, 0),
	}})

	require.Len(t, res.Batch.Quizzes, 1)
	assert.Equal(t, 3, res.Batch.Quizzes[0].QuestionCount)
	assert.Len(t, res.Batch.Questions, 2)
	assert.Equal(t, 1, res.Report.CountCategory(records.CategoryCountMismatch))
	assert.Equal(t, 1, res.Report.Count(records.SeverityWarning))
	assert.Equal(t, 0, res.Report.Count(records.SeverityError))
}

func TestQuizWithoutModuleFails(t *testing.T) {
	doc := `<html><body><h1>Final quiz</h1><script>var questions = [{question: "q", options: ["a"], correctAnswer: 0}]</script></body></html>`
	res := run(t, mapSource{docs: map[string]string{"final-quiz.html": doc}})

	assert.Empty(t, res.Batch.Quizzes)
	require.Len(t, res.Report.Extraction, 1)
	assert.Equal(t, records.CategoryMissingModule, res.Report.Extraction[0].Category)
	assert.True(t, errors.Is(res.Outcomes[0].Err, commonerrors.ErrMissingField))
}

func TestQuizLiteralFailures(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		category string
	}{
		{"no literal", `const answers = [1, 2];`, records.CategoryLiteral},
		{"syntax", `questions = [{question: "q", options: ["a"] correctAnswer: 0}];`, records.CategoryLiteral},
		{"missing field", `questions = [{question: "q", correctAnswer: 0}];`, records.CategoryField},
		{"stale copy in comment", `/* old: questions = [{question: "stale", options: ["a"], correctAnswer: 0}]; */
const questions = [{question: 'new' options: ['b'], correctAnswer: 0}];`, records.CategoryLiteral},
		{"assignment text in string", `const help = "set questions = [ ] to reset"; const questions = [malformed];`, records.CategoryLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<html><body><h1>Module 4 Quiz</h1><script>` + tt.script + `</script></body></html>`
			res := run(t, mapSource{docs: map[string]string{"module4-quiz.html": doc}})
			assert.Empty(t, res.Batch.Quizzes)
			assert.Empty(t, res.Batch.Questions)
			require.Len(t, res.Report.Extraction, 1)
			assert.Equal(t, tt.category, res.Report.Extraction[0].Category)
		})
	}
}

func TestModuleMismatchFilenameWins(t *testing.T) {
	doc := `<html><body><span class="module-badge">Module 2: Pointers</span><h1>Chapter 3</h1><main>x</main></body></html>`
	res := run(t, mapSource{docs: map[string]string{"module3/pointers.html": doc}})

	require.Len(t, res.Batch.Lessons, 1)
	l := res.Batch.Lessons[0]
	require.NotNil(t, l.ModuleID)
	assert.Equal(t, 3, *l.ModuleID)
	assert.Empty(t, l.ModuleName)
	assert.Equal(t, 1, res.Report.CountCategory(records.CategoryModuleMismatch))
}

func TestInvalidContainerAttributeFallsBack(t *testing.T) {
	doc := `<html><body><h1>Module 5 Quiz</h1><div data-quiz data-passing-score="high"></div>
<script>let questions = [{question: "q", options: ["a", "b"], correctAnswer: 1}];</script></body></html>`
	res := run(t, mapSource{docs: map[string]string{"module5-quiz.html": doc}})

	require.Len(t, res.Batch.Quizzes, 1)
	assert.Equal(t, 70, res.Batch.Quizzes[0].PassingScore)
	assert.Equal(t, 1, res.Batch.Quizzes[0].QuestionCount)
	assert.Equal(t, 1, res.Report.Count(records.SeverityWarning))
}

func TestNoDocuments(t *testing.T) {
	_, err := New(mapSource{}, testConfig(), nil).Run(context.Background())
	assert.ErrorIs(t, err, commonerrors.ErrNoDocuments)
}

func TestRunIsDeterministic(t *testing.T) {
	src := mapSource{
		docs: map[string]string{
			"module1/lesson-1.html":     lessonOne,
			"module1/lesson-2.html":     lessonTwo,
			"module1/module1-quiz.html": quizDoc(3, 0),
			"module2/module2-quiz.html": quizDoc(2, 9),
			"module2/intro.html":        lessonTwo,
			"module3/intro.html":        lessonTwo,
			"broken.html":               "",
		},
		unreadable: map[string]bool{"module9/gone.html": true},
	}

	first := run(t, src)
	for i := 0; i < 5; i++ {
		again := run(t, src)
		if diff := cmp.Diff(first.Batch, again.Batch); diff != "" {
			t.Fatalf("batch differs between runs (-first +again):\n%s", diff)
		}

		var a, b bytes.Buffer
		require.NoError(t, first.Report.Render(&a))
		require.NoError(t, again.Report.Render(&b))
		assert.Equal(t, a.String(), b.String())
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindQuiz, KindOf("module1/Module1-Quiz.html", "quiz"))
	assert.Equal(t, KindLesson, KindOf("quiz/lesson.html", "quiz"))
	assert.Equal(t, KindLesson, KindOf("a.html", ""))
}

func TestOutcomeJSONKeys(t *testing.T) {
	res := run(t, mapSource{docs: map[string]string{"module1/lesson-1.html": lessonOne}})
	require.Len(t, res.Outcomes, 1)
	res.Outcomes[0].Err = errors.New("not serialized")

	data, err := json.Marshal(res.Outcomes[0])
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &got))
	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"source", "kind", "state", "lesson"}, keys)
	assert.JSONEq(t, `"accepted"`, string(got["state"]))
}
