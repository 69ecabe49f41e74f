package question

import (
	"fmt"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
)

type NotFoundError struct {
	QuestionID shared.QuestionID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("question %q does not exist", e.QuestionID)
}

func (e NotFoundError) Unwrap() error {
	return internal.ErrQuestionNotFound
}

type AlreadyExistsError struct {
	QuestionID shared.QuestionID
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("question %q already exists", e.QuestionID)
}

func (e AlreadyExistsError) Unwrap() error {
	return internal.ErrQuestionAlreadyExists
}

type IDMismatchError struct {
	PathID shared.QuestionID
	BodyID shared.QuestionID
}

func (e IDMismatchError) Error() string {
	return fmt.Sprintf("question id %q does not match path id %q", e.BodyID, e.PathID)
}

func (e IDMismatchError) Unwrap() error {
	return internal.ErrQuestionIDMismatch
}

type PreviousNotFoundError struct {
	QuestionID shared.QuestionID
}

func (e PreviousNotFoundError) Error() string {
	return fmt.Sprintf("previous question %q does not exist", e.QuestionID)
}

func (e PreviousNotFoundError) Unwrap() error {
	return internal.ErrPreviousQuestionNotFound
}

type CyclicChainError struct {
	QuestionID shared.QuestionID
}

func (e CyclicChainError) Error() string {
	return fmt.Sprintf("previous chain of question %q contains a cycle", e.QuestionID)
}

func (e CyclicChainError) Unwrap() error {
	return internal.ErrCyclicPreviousChain
}
