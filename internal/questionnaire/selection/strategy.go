// Package selection implements the answer selection strategies a project
// question can carry. Strategies are pure: they take an answer set and
// return a new one, never mutating the input.
package selection

import (
	"devlift/questionnaire-backend/internal/questionnaire/shared"
)

type Strategy interface {
	Kind() shared.SelectionKind

	// Select marks the answer with the given id as selected. Unknown ids
	// are rejected.
	Select(id shared.AnswerID, answers []shared.ProjectAnswer) ([]shared.ProjectAnswer, error)

	// Deselect unmarks according to the strategy. Unknown ids are rejected.
	Deselect(id shared.AnswerID, answers []shared.ProjectAnswer) ([]shared.ProjectAnswer, error)
}

// For returns the strategy implementation for a persisted kind tag.
func For(kind shared.SelectionKind) (Strategy, error) {
	switch kind {
	case shared.SelectionSingle:
		return Single{}, nil
	case shared.SelectionMultiple:
		return Multiple{}, nil
	}
	_, err := shared.ParseSelectionKind(string(kind))
	return nil, err
}

// Single keeps at most one answer selected. Selecting an answer deselects
// every other one; deselecting clears the whole selection no matter which
// known answer id is asked.
type Single struct{}

func (Single) Kind() shared.SelectionKind {
	return shared.SelectionSingle
}

func (Single) Select(id shared.AnswerID, answers []shared.ProjectAnswer) ([]shared.ProjectAnswer, error) {
	if !contains(answers, id) {
		return nil, shared.AnswerNotAvailableError{AnswerID: id}
	}
	out := make([]shared.ProjectAnswer, len(answers))
	for i, a := range answers {
		if a.ID == id {
			out[i] = a.Select()
		} else {
			out[i] = a.Deselect()
		}
	}
	return out, nil
}

func (Single) Deselect(id shared.AnswerID, answers []shared.ProjectAnswer) ([]shared.ProjectAnswer, error) {
	if !contains(answers, id) {
		return nil, shared.AnswerNotAvailableError{AnswerID: id}
	}
	out := make([]shared.ProjectAnswer, len(answers))
	for i, a := range answers {
		out[i] = a.Deselect()
	}
	return out, nil
}

// Multiple toggles answers independently.
type Multiple struct{}

func (Multiple) Kind() shared.SelectionKind {
	return shared.SelectionMultiple
}

func (Multiple) Select(id shared.AnswerID, answers []shared.ProjectAnswer) ([]shared.ProjectAnswer, error) {
	if !contains(answers, id) {
		return nil, shared.AnswerNotAvailableError{AnswerID: id}
	}
	out := make([]shared.ProjectAnswer, len(answers))
	for i, a := range answers {
		if a.ID == id {
			out[i] = a.Select()
		} else {
			out[i] = a
		}
	}
	return out, nil
}

func (Multiple) Deselect(id shared.AnswerID, answers []shared.ProjectAnswer) ([]shared.ProjectAnswer, error) {
	if !contains(answers, id) {
		return nil, shared.AnswerNotAvailableError{AnswerID: id}
	}
	out := make([]shared.ProjectAnswer, len(answers))
	for i, a := range answers {
		if a.ID == id {
			out[i] = a.Deselect()
		} else {
			out[i] = a
		}
	}
	return out, nil
}

func contains(answers []shared.ProjectAnswer, id shared.AnswerID) bool {
	for _, a := range answers {
		if a.ID == id {
			return true
		}
	}
	return false
}
