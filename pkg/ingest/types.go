package ingest

import (
	"context"

	"github.com/duynguyendang/coursepack/pkg/records"
)

// Source resolves document identifiers to raw text. Listing order does not
// matter; the orchestrator sorts identifiers before processing.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, id string) ([]byte, error)
}

// State is the position of a document in the extraction state machine.
type State string

const (
	StatePending   State = "pending"
	StateParsed    State = "parsed"
	StateExtracted State = "fields-extracted"
	StateAccepted  State = "accepted"
	StateFailed    State = "failed"
)

// Kind tells lesson documents from quiz documents.
type Kind string

const (
	KindLesson Kind = "lesson"
	KindQuiz   Kind = "quiz"
)

// Outcome is everything one document contributed. Exactly one of Lesson
// and Quiz is set when State is StateAccepted; Err is set when it is
// StateFailed.
type Outcome struct {
	Source    string                   `json:"source"`
	Kind      Kind                     `json:"kind"`
	State     State                    `json:"state"`
	Lesson    *records.LessonRecord    `json:"lesson,omitempty"`
	Quiz      *records.QuizRecord      `json:"quiz,omitempty"`
	Questions []records.QuestionRecord `json:"questions,omitempty"`
	Warnings  []records.Finding        `json:"warnings,omitempty"`
	Err       error                    `json:"-"`
}
