package questionnaire

import (
	"fmt"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
)

type NotFoundError struct {
	QuestionID shared.QuestionID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("project question %q does not exist", e.QuestionID)
}

func (e NotFoundError) Unwrap() error {
	return internal.ErrInstanceNotFound
}

type PreviousNotFoundError struct {
	QuestionID shared.QuestionID
}

func (e PreviousNotFoundError) Error() string {
	return fmt.Sprintf("previous project question %q does not exist", e.QuestionID)
}

func (e PreviousNotFoundError) Unwrap() error {
	return internal.ErrPreviousInstanceNotFound
}

type ProjectNotFoundError struct {
	ProjectID shared.ProjectID
}

func (e ProjectNotFoundError) Error() string {
	return fmt.Sprintf("project %q does not exist", e.ProjectID)
}

func (e ProjectNotFoundError) Unwrap() error {
	return internal.ErrProjectNotFound
}

type InvalidPositionError struct {
	Value string
}

func (e InvalidPositionError) Error() string {
	return fmt.Sprintf("invalid questionnaire position %q", e.Value)
}

func (e InvalidPositionError) Unwrap() error {
	return internal.ErrInvalidPosition
}

type ExhaustedError struct {
	ProjectID shared.ProjectID
	Position  int
}

func (e ExhaustedError) Error() string {
	return fmt.Sprintf("questionnaire of project %q has no question at position %d", e.ProjectID, e.Position)
}

func (e ExhaustedError) Unwrap() error {
	return internal.ErrQuestionnaireExhausted
}
