package literal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
)

// Required and optional field names of a question element.
const (
	FieldQuestion    = "question"
	FieldOptions     = "options"
	FieldCorrect     = "correctAnswer"
	FieldExplanation = "explanation"
	FieldPoints      = "points"
	FieldID          = "id"
)

// Decode normalizes body and parses it strictly. The result is built from
// map[string]any, []any, string, json.Number, bool and nil.
func Decode(body string) (any, error) {
	strict, err := Normalize(body)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(strict))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", commonerrors.ErrLiteralSyntax, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after literal", commonerrors.ErrLiteralSyntax)
	}
	return v, nil
}

// Question is one decoded element of the question array.
type Question struct {
	Text        string
	Options     []string
	Correct     int
	Explanation string
	Points      int // 0 when not authored
	ID          string
}

// Questions decodes an array-of-records literal into questions. Any element
// that misses a required field or whose correct index is out of range
// rejects the whole array.
func Questions(body string) ([]Question, error) {
	v, err := Decode(body)
	if err != nil {
		return nil, err
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: literal is a %s, not an array", commonerrors.ErrLiteralSyntax, kindOf(v))
	}

	out := make([]Question, 0, len(items))
	for i, item := range items {
		q, err := toQuestion(item)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func toQuestion(item any) (Question, error) {
	rec, ok := item.(map[string]any)
	if !ok {
		return Question{}, fmt.Errorf("%w: element is a %s, not a record", commonerrors.ErrLiteralSyntax, kindOf(item))
	}

	var q Question

	text, ok := rec[FieldQuestion].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return q, missing(FieldQuestion, rec)
	}
	q.Text = strings.TrimSpace(text)

	rawOpts, ok := rec[FieldOptions].([]any)
	if !ok {
		return q, missing(FieldOptions, rec)
	}
	q.Options = make([]string, 0, len(rawOpts))
	for j, o := range rawOpts {
		switch ov := o.(type) {
		case string:
			q.Options = append(q.Options, ov)
		case json.Number:
			q.Options = append(q.Options, ov.String())
		default:
			return q, fmt.Errorf("%w: option %d is a %s", commonerrors.ErrLiteralSyntax, j, kindOf(o))
		}
	}

	idx, ok := asInt(rec[FieldCorrect])
	if !ok {
		return q, missing(FieldCorrect, rec)
	}
	if idx < 0 || idx >= len(q.Options) {
		return q, fmt.Errorf("%w: %s=%d with %d options", commonerrors.ErrAnswerOutOfRange, FieldCorrect, idx, len(q.Options))
	}
	q.Correct = idx

	if e, ok := rec[FieldExplanation].(string); ok {
		q.Explanation = strings.TrimSpace(e)
	}
	if p, ok := asInt(rec[FieldPoints]); ok {
		q.Points = p
	}
	switch id := rec[FieldID].(type) {
	case string:
		q.ID = id
	case json.Number:
		q.ID = id.String()
	}
	return q, nil
}

func missing(field string, rec map[string]any) error {
	if v, present := rec[field]; present {
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %q is empty", commonerrors.ErrMissingField, field)
		}
		return fmt.Errorf("%w: %q has type %s", commonerrors.ErrMissingField, field, kindOf(v))
	}
	return fmt.Errorf("%w: %q", commonerrors.ErrMissingField, field)
}

// asInt accepts integral json.Number values only.
func asInt(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "record"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
