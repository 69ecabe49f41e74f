package shared

import (
	"fmt"
	"sort"
	"strings"

	"devlift/questionnaire-backend/internal"
)

// AnswerID, QuestionID and ProjectID are opaque string codes. Equality is
// string equality on the code; the code carries no meaning except for
// instance ids, which prefix the owning project code before the first '-'.
type AnswerID string

func (id AnswerID) String() string {
	return string(id)
}

type QuestionID string

func (id QuestionID) String() string {
	return string(id)
}

// ProjectCode returns the project code prefix of an instance-scoped id such
// as "p1-q-2". The second value is false when the id carries no prefix.
func (id QuestionID) ProjectCode() (string, bool) {
	code, rest, found := strings.Cut(string(id), "-")
	if !found || code == "" || rest == "" {
		return "", false
	}
	return code, true
}

type ProjectID string

func (id ProjectID) String() string {
	return string(id)
}

type QuestionType string

const (
	QuestionTypeBoolean  QuestionType = "boolean"
	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMultiple QuestionType = "multiple"
	QuestionTypeRating   QuestionType = "rating"
)

func ParseQuestionType(s string) (QuestionType, error) {
	switch QuestionType(s) {
	case QuestionTypeBoolean, QuestionTypeSingle, QuestionTypeMultiple, QuestionTypeRating:
		return QuestionType(s), nil
	}
	return "", UnsupportedQuestionTypeError{Value: s}
}

// SelectionKind tags how a question instance accepts answers. It is a plain
// data tag; behavior lives in the selection package.
type SelectionKind string

const (
	SelectionSingle   SelectionKind = "single"
	SelectionMultiple SelectionKind = "multiple"
)

func ParseSelectionKind(s string) (SelectionKind, error) {
	switch SelectionKind(s) {
	case SelectionSingle, SelectionMultiple:
		return SelectionKind(s), nil
	}
	return "", fmt.Errorf("unknown selection strategy %q: %w", s, internal.ErrInternalServerError)
}

// SelectionFor maps a question type to the strategy its instances use.
func SelectionFor(t QuestionType) (SelectionKind, error) {
	switch t {
	case QuestionTypeBoolean, QuestionTypeSingle, QuestionTypeRating:
		return SelectionSingle, nil
	case QuestionTypeMultiple:
		return SelectionMultiple, nil
	}
	return "", UnsupportedQuestionTypeError{Value: string(t)}
}

// Action marks a follow-up the system performs once the question is answered.
type Action string

const ActionMetricsCheck Action = "metrics_check"

func ParseAction(s string) (Action, error) {
	if Action(s) == ActionMetricsCheck {
		return ActionMetricsCheck, nil
	}
	return "", fmt.Errorf("unknown action %q: %w", s, internal.ErrValidationFailed)
}

// Answer is a template-level available answer.
type Answer struct {
	ID   AnswerID
	Text string
}

// ProjectAnswer is an instance-level answer with its selection state.
// Select and Deselect return a modified copy; the receiver is untouched.
type ProjectAnswer struct {
	ID       AnswerID
	Text     string
	Selected bool
}

func (a ProjectAnswer) Select() ProjectAnswer {
	a.Selected = true
	return a
}

func (a ProjectAnswer) Deselect() ProjectAnswer {
	a.Selected = false
	return a
}

// SortAnswers returns a copy ordered by text, then id. Answer sets are
// unordered in the domain; this is the canonical wire order.
func SortAnswers(in []Answer) []Answer {
	out := make([]Answer, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Text != out[j].Text {
			return out[i].Text < out[j].Text
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func SortProjectAnswers(in []ProjectAnswer) []ProjectAnswer {
	out := make([]ProjectAnswer, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Text != out[j].Text {
			return out[i].Text < out[j].Text
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func SortAnswerIDs(in []AnswerID) []AnswerID {
	out := make([]AnswerID, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
