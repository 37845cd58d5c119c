package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/duynguyendang/coursepack/pkg/records"
	"github.com/duynguyendang/coursepack/pkg/validate"
)

// Artifact file names inside the output directory.
const (
	LessonsFile   = "lessons.json"
	QuizzesFile   = "quizzes.json"
	QuestionsFile = "questions.json"
	ReportFile    = "validation_report.txt"
)

// QuestionRow is the serialized shape of a question. Options is the option
// list encoded as a JSON string, matching the downstream column type.
type QuestionRow struct {
	QuizID        int    `json:"quiz_id"`
	Text          string `json:"question_text"`
	Options       string `json:"options"`
	CorrectOption int    `json:"correct_option"`
	Explanation   string `json:"explanation,omitempty"`
	Points        int    `json:"points"`
	OrderIndex    int    `json:"order_index"`
	SourceID      string `json:"source_id,omitempty"`
}

// ToRow re-encodes the option list.
func ToRow(q records.QuestionRecord) (QuestionRow, error) {
	opts := q.Options
	if opts == nil {
		opts = []string{}
	}
	encoded, err := marshal(opts, "")
	if err != nil {
		return QuestionRow{}, fmt.Errorf("encode options of quiz %d question %d: %w", q.QuizID, q.OrderIndex, err)
	}
	return QuestionRow{
		QuizID:        q.QuizID,
		Text:          q.Text,
		Options:       string(bytes.TrimRight(encoded, "\n")),
		CorrectOption: q.CorrectOption,
		Explanation:   q.Explanation,
		Points:        q.Points,
		OrderIndex:    q.OrderIndex,
		SourceID:      q.SourceID,
	}, nil
}

// FromRow decodes the option string back into a record.
func FromRow(r QuestionRow) (records.QuestionRecord, error) {
	var opts []string
	if err := json.Unmarshal([]byte(r.Options), &opts); err != nil {
		return records.QuestionRecord{}, fmt.Errorf("decode options of quiz %d question %d: %w", r.QuizID, r.OrderIndex, err)
	}
	return records.QuestionRecord{
		QuizID:        r.QuizID,
		Text:          r.Text,
		Options:       opts,
		CorrectOption: r.CorrectOption,
		Explanation:   r.Explanation,
		Points:        r.Points,
		OrderIndex:    r.OrderIndex,
		SourceID:      r.SourceID,
	}, nil
}

// marshal encodes v with literal non-ASCII and '/', and a trailing newline.
// An empty indent produces compact output.
func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode renders the three JSON artifacts in memory.
func Encode(batch records.Batch) (lessons, quizzes, questions []byte, err error) {
	ls := batch.Lessons
	if ls == nil {
		ls = []records.LessonRecord{}
	}
	qs := batch.Quizzes
	if qs == nil {
		qs = []records.QuizRecord{}
	}
	rows := make([]QuestionRow, 0, len(batch.Questions))
	for _, q := range batch.Questions {
		row, err := ToRow(q)
		if err != nil {
			return nil, nil, nil, err
		}
		rows = append(rows, row)
	}

	if lessons, err = marshal(ls, "  "); err != nil {
		return nil, nil, nil, fmt.Errorf("encode lessons: %w", err)
	}
	if quizzes, err = marshal(qs, "  "); err != nil {
		return nil, nil, nil, fmt.Errorf("encode quizzes: %w", err)
	}
	if questions, err = marshal(rows, "  "); err != nil {
		return nil, nil, nil, fmt.Errorf("encode questions: %w", err)
	}
	return lessons, quizzes, questions, nil
}

// WriteAll writes every artifact into dir, creating it if needed.
func WriteAll(dir string, batch records.Batch, report *validate.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	lessons, quizzes, questions, err := Encode(batch)
	if err != nil {
		return err
	}
	var rep bytes.Buffer
	if report != nil {
		if err := report.Render(&rep); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}

	for _, a := range []struct {
		name string
		data []byte
	}{
		{LessonsFile, lessons},
		{QuizzesFile, quizzes},
		{QuestionsFile, questions},
		{ReportFile, rep.Bytes()},
	} {
		if err := os.WriteFile(filepath.Join(dir, a.name), a.data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.name, err)
		}
	}
	return nil
}

// LoadBatch reads previously written artifacts back into a batch.
func LoadBatch(dir string) (records.Batch, error) {
	var b records.Batch
	if err := readJSON(filepath.Join(dir, LessonsFile), &b.Lessons); err != nil {
		return b, err
	}
	if err := readJSON(filepath.Join(dir, QuizzesFile), &b.Quizzes); err != nil {
		return b, err
	}
	var rows []QuestionRow
	if err := readJSON(filepath.Join(dir, QuestionsFile), &rows); err != nil {
		return b, err
	}
	b.Questions = make([]records.QuestionRecord, 0, len(rows))
	for _, r := range rows {
		q, err := FromRow(r)
		if err != nil {
			return b, err
		}
		b.Questions = append(b.Questions, q)
	}
	return b, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
