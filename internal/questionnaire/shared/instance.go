package shared

import (
	"time"
)

// ProjectQuestion is a per-project copy of a template question. Its id and
// answer ids are prefixed with the project code, so two projects never share
// instance state.
type ProjectQuestion struct {
	ID       QuestionID
	Text     string
	Type     QuestionType
	Strategy SelectionKind
	Answers  []ProjectAnswer

	// PreviousQuestionID is the preceding instance in the same project
	// chain, empty for the questionnaire root.
	PreviousQuestionID QuestionID

	CreatedAt time.Time
}

// NewProjectQuestion builds an instance with the strategy its type dictates.
// Pre-selected answers are only accepted for multiple-choice questions;
// every other type starts (and stays) with at most one selection that only
// the strategy may set.
func NewProjectQuestion(id QuestionID, text string, t QuestionType, answers []ProjectAnswer, previous QuestionID, createdAt time.Time) (ProjectQuestion, error) {
	strategy, err := SelectionFor(t)
	if err != nil {
		return ProjectQuestion{}, err
	}
	if strategy != SelectionMultiple {
		for _, a := range answers {
			if a.Selected {
				return ProjectQuestion{}, InvalidQuestionError{QuestionID: id, Reason: "pre-selected answers are only allowed for multiple choice questions"}
			}
		}
	}
	return ProjectQuestion{
		ID:                 id,
		Text:               text,
		Type:               t,
		Strategy:           strategy,
		Answers:            answers,
		PreviousQuestionID: previous,
		CreatedAt:          createdAt,
	}, nil
}

// Materialize copies a template question into a project-scoped instance.
// All answers start unselected.
func Materialize(projectID ProjectID, template Question, previousInstanceID QuestionID, at time.Time) (ProjectQuestion, error) {
	answers := make([]ProjectAnswer, 0, len(template.AvailableAnswers))
	for _, a := range SortAnswers(template.AvailableAnswers) {
		answers = append(answers, ProjectAnswer{
			ID:   AnswerID(projectID.String() + "-" + a.ID.String()),
			Text: a.Text,
		})
	}
	id := QuestionID(projectID.String() + "-" + template.ID.String())
	return NewProjectQuestion(id, template.Text, template.Type, answers, previousInstanceID, at)
}

// WithAnswers returns a copy carrying the given answer set.
func (q ProjectQuestion) WithAnswers(answers []ProjectAnswer) ProjectQuestion {
	q.Answers = answers
	return q
}

func (q ProjectQuestion) AnswerByID(id AnswerID) (ProjectAnswer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return ProjectAnswer{}, false
}

func (q ProjectQuestion) SelectedAnswers() []ProjectAnswer {
	var selected []ProjectAnswer
	for _, a := range q.Answers {
		if a.Selected {
			selected = append(selected, a)
		}
	}
	return selected
}
