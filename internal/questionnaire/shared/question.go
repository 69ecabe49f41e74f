package shared

import (
	"time"
)

// Question is a template question in the shared question graph.
type Question struct {
	ID               QuestionID
	Text             string
	Type             QuestionType
	AvailableAnswers []Answer

	// PreviousQuestionID is empty when the question starts a chain.
	PreviousQuestionID QuestionID

	// EnabledBy lists answer ids elsewhere in the graph that make this
	// question relevant. It does not affect chain traversal.
	EnabledBy []AnswerID

	// ActionNeeded is empty when answering triggers nothing.
	ActionNeeded Action

	CreatedAt time.Time
}

func (q Question) Validate() error {
	if _, err := ParseQuestionType(string(q.Type)); err != nil {
		return err
	}
	if len(q.AvailableAnswers) == 0 {
		return InvalidQuestionError{QuestionID: q.ID, Reason: "question must offer at least one answer"}
	}
	if q.Type == QuestionTypeBoolean && len(q.AvailableAnswers) != 2 {
		return InvalidQuestionError{QuestionID: q.ID, Reason: "boolean question must offer exactly two answers"}
	}
	seen := make(map[AnswerID]struct{}, len(q.AvailableAnswers))
	for _, a := range q.AvailableAnswers {
		if _, ok := seen[a.ID]; ok {
			return InvalidQuestionError{QuestionID: q.ID, Reason: "duplicate answer id " + a.ID.String()}
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

func (q Question) AnswerByID(id AnswerID) (Answer, bool) {
	for _, a := range q.AvailableAnswers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}

// BooleanAnswers builds the conventional yes/no answer pair for a boolean
// question, with ids "{prefix}-true" and "{prefix}-false".
func BooleanAnswers(prefix string) []Answer {
	return []Answer{
		{ID: AnswerID(prefix + "-true"), Text: "Yes"},
		{ID: AnswerID(prefix + "-false"), Text: "No"},
	}
}
