package graphbuilder

import (
	"context"
	"testing"
	"time"

	"devlift/questionnaire-backend/internal/project"
	"devlift/questionnaire-backend/internal/question"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
	"devlift/questionnaire-backend/internal/store"
	"devlift/questionnaire-backend/test/testdata"

	"go.uber.org/zap"

	"github.com/stretchr/testify/require"
)

// Builder seeds question templates and projects through the real
// repositories so integration tests exercise the same write paths as the
// handlers do.
type Builder struct {
	t      *testing.T
	runner store.Runner
}

func New(t *testing.T, runner store.Runner) *Builder {
	return &Builder{t: t, runner: runner}
}

func (b Builder) Question(opts ...Option) shared.Question {
	p := &FactoryParams{
		ID:   testdata.RandomQuestionID(),
		Text: testdata.RandomQuestionText(),
		Type: shared.QuestionTypeSingle,
	}
	for _, opt := range opts {
		opt(p)
	}

	if len(p.Answers) == 0 {
		if p.Type == shared.QuestionTypeBoolean {
			p.Answers = shared.BooleanAnswers(p.ID)
		} else {
			p.Answers = []shared.Answer{
				{ID: shared.AnswerID(p.ID + "-a1"), Text: testdata.RandomAnswerText()},
				{ID: shared.AnswerID(p.ID + "-a2"), Text: testdata.RandomAnswerText()},
			}
		}
	}

	q := shared.Question{
		ID:                 shared.QuestionID(p.ID),
		Text:               p.Text,
		Type:               p.Type,
		AvailableAnswers:   p.Answers,
		PreviousQuestionID: shared.QuestionID(p.PreviousQuestionID),
		EnabledBy:          p.EnabledBy,
		ActionNeeded:       p.ActionNeeded,
		CreatedAt:          time.Now().UTC(),
	}

	repo := question.NewRepository(zap.NewNop(), b.runner)
	require.NoError(b.t, repo.Insert(context.Background(), q))

	return q
}

func (b Builder) Project(opts ...Option) shared.Project {
	p := &FactoryParams{
		ID:   testdata.RandomProjectID(),
		Text: testdata.RandomName(),
	}
	for _, opt := range opts {
		opt(p)
	}

	proj := shared.Project{
		ID:   shared.ProjectID(p.ID),
		Name: p.Text,
	}

	repo := project.NewRepository(zap.NewNop(), b.runner)
	require.NoError(b.t, repo.Insert(context.Background(), proj))

	return proj
}
