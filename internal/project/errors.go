package project

import (
	"fmt"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
)

type NotFoundError struct {
	ProjectID shared.ProjectID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("project %q does not exist", e.ProjectID)
}

func (e NotFoundError) Unwrap() error {
	return internal.ErrProjectNotFound
}

type AlreadyExistsError struct {
	ProjectID shared.ProjectID
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("project %q already exists", e.ProjectID)
}

func (e AlreadyExistsError) Unwrap() error {
	return internal.ErrProjectAlreadyExists
}

type IDMismatchError struct {
	PathID shared.ProjectID
	BodyID shared.ProjectID
}

func (e IDMismatchError) Error() string {
	return fmt.Sprintf("project id %q does not match path id %q", e.BodyID, e.PathID)
}

func (e IDMismatchError) Unwrap() error {
	return internal.ErrProjectIDMismatch
}
