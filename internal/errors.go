package internal

import (
	"errors"

	"github.com/NYCU-SDC/summer/pkg/problem"
)

var (
	// Generic Errors
	ErrNotFound            = errors.New("not found")
	ErrInternalServerError = errors.New("internal server error")
	ErrValidationFailed    = errors.New("validation failed")
	ErrInvalidRequestBody  = errors.New("invalid request body")

	// Question Errors
	ErrQuestionNotFound         = errors.New("question not found")
	ErrQuestionAlreadyExists    = errors.New("question already exists")
	ErrQuestionIDMismatch       = errors.New("question id does not match the path id")
	ErrUnsupportedQuestionType  = errors.New("unsupported question type")
	ErrAnswerNotAvailable       = errors.New("answer is not available for this question")
	ErrPreviousQuestionNotFound = errors.New("previous question does not exist")
	ErrCyclicPreviousChain      = errors.New("previous question chain contains a cycle")

	// Project Errors
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
	ErrProjectIDMismatch    = errors.New("project id does not match the path id")

	// Questionnaire Errors
	ErrInstanceNotFound         = errors.New("project question not found")
	ErrPreviousInstanceNotFound = errors.New("previous project question does not exist")
	ErrQuestionnaireExhausted   = errors.New("no template question at the requested position")
	ErrInvalidPosition          = errors.New("questionnaire position must be a positive integer")

	// Store / Serialization Errors
	ErrStoreUnavailable = errors.New("graph store unavailable")
	ErrNotAdmissible    = errors.New("type is not admissible for serialization")
)

func NewProblemWriter() *problem.HttpWriter {
	return problem.NewWithMapping(ErrorHandler)
}

func ErrorHandler(err error) problem.Problem {
	switch {
	case errors.Is(err, ErrValidationFailed):
		return problem.NewValidateProblem(err.Error())
	case errors.Is(err, ErrInvalidRequestBody):
		return problem.NewBadRequestProblem(err.Error())

	// Question Errors
	case errors.Is(err, ErrQuestionNotFound):
		return problem.NewNotFoundProblem("question not found")
	case errors.Is(err, ErrQuestionAlreadyExists):
		return problem.NewValidateProblem("question with this id already exists")
	case errors.Is(err, ErrQuestionIDMismatch):
		return problem.NewBadRequestProblem("question id does not match the path id")
	case errors.Is(err, ErrUnsupportedQuestionType):
		return problem.NewBadRequestProblem("unsupported question type")
	case errors.Is(err, ErrAnswerNotAvailable):
		return problem.NewValidateProblem("answer is not available for this question")
	case errors.Is(err, ErrPreviousQuestionNotFound):
		return problem.NewValidateProblem("previous question does not exist")
	case errors.Is(err, ErrCyclicPreviousChain):
		return problem.NewValidateProblem("previous question chain contains a cycle")

	// Project Errors
	case errors.Is(err, ErrProjectNotFound):
		return problem.NewNotFoundProblem("project not found")
	case errors.Is(err, ErrProjectAlreadyExists):
		return problem.NewValidateProblem("project with this id already exists")
	case errors.Is(err, ErrProjectIDMismatch):
		return problem.NewBadRequestProblem("project id does not match the path id")

	// Questionnaire Errors
	case errors.Is(err, ErrInstanceNotFound):
		return problem.NewNotFoundProblem("project question not found")
	case errors.Is(err, ErrPreviousInstanceNotFound):
		return problem.NewValidateProblem("previous project question does not exist")
	case errors.Is(err, ErrQuestionnaireExhausted):
		return problem.NewNotFoundProblem("no question at the requested position")
	case errors.Is(err, ErrInvalidPosition):
		return problem.NewBadRequestProblem("questionnaire position must be a positive integer")

	// Store / Serialization Errors
	case errors.Is(err, ErrStoreUnavailable):
		return problem.NewInternalServerProblem("graph store unavailable")
	case errors.Is(err, ErrNotAdmissible):
		return problem.NewInternalServerProblem("internal serialization error")

	// Generic Errors
	case errors.Is(err, ErrNotFound):
		return problem.NewNotFoundProblem("not found")
	case errors.Is(err, ErrInternalServerError):
		return problem.NewInternalServerProblem("internal server error")
	}

	return problem.Problem{}
}
