package shared

import (
	"fmt"

	"devlift/questionnaire-backend/internal"
)

type UnsupportedQuestionTypeError struct {
	Value string
}

func (e UnsupportedQuestionTypeError) Error() string {
	return fmt.Sprintf("unsupported question type %q", e.Value)
}

func (e UnsupportedQuestionTypeError) Unwrap() error {
	return internal.ErrUnsupportedQuestionType
}

type AnswerNotAvailableError struct {
	AnswerID AnswerID
}

func (e AnswerNotAvailableError) Error() string {
	return fmt.Sprintf("answer %q is not available for this question", e.AnswerID)
}

func (e AnswerNotAvailableError) Unwrap() error {
	return internal.ErrAnswerNotAvailable
}

type InvalidQuestionError struct {
	QuestionID QuestionID
	Reason     string
}

func (e InvalidQuestionError) Error() string {
	return fmt.Sprintf("invalid question %q: %s", e.QuestionID, e.Reason)
}

func (e InvalidQuestionError) Unwrap() error {
	return internal.ErrValidationFailed
}

type NotAdmissibleError struct {
	Value any
}

func (e NotAdmissibleError) Error() string {
	return fmt.Sprintf("cannot serialize value of type %T", e.Value)
}

func (e NotAdmissibleError) Unwrap() error {
	return internal.ErrNotAdmissible
}
