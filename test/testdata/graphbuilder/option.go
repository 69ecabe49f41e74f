package graphbuilder

import (
	"devlift/questionnaire-backend/internal/questionnaire/shared"
)

type Option func(*FactoryParams)

type FactoryParams struct {
	ID                 string
	Text               string
	Type               shared.QuestionType
	Answers            []shared.Answer
	PreviousQuestionID string
	EnabledBy          []shared.AnswerID
	ActionNeeded       shared.Action
}

func WithID(id string) Option {
	return func(p *FactoryParams) { p.ID = id }
}

func WithText(text string) Option {
	return func(p *FactoryParams) { p.Text = text }
}

func WithType(t shared.QuestionType) Option {
	return func(p *FactoryParams) { p.Type = t }
}

func WithAnswers(answers ...shared.Answer) Option {
	return func(p *FactoryParams) { p.Answers = answers }
}

func WithPrevious(questionID string) Option {
	return func(p *FactoryParams) { p.PreviousQuestionID = questionID }
}

func WithEnabledBy(answerIDs ...shared.AnswerID) Option {
	return func(p *FactoryParams) { p.EnabledBy = answerIDs }
}

func WithAction(action shared.Action) Option {
	return func(p *FactoryParams) { p.ActionNeeded = action }
}
