package questionnaire

import (
	"context"
	"strconv"

	"devlift/questionnaire-backend/internal/questionnaire/selection"
	"devlift/questionnaire-backend/internal/questionnaire/shared"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ChainStore interface {
	GetByID(ctx context.Context, id shared.QuestionID) (shared.ProjectQuestion, error)
	Update(ctx context.Context, id shared.QuestionID, question shared.ProjectQuestion) error
	Delete(ctx context.Context, id shared.QuestionID) error
	Chain(ctx context.Context, projectID shared.ProjectID) ([]shared.QuestionID, error)
	ResolveNth(ctx context.Context, projectID shared.ProjectID, n int) (shared.ProjectQuestion, error)
}

type Service struct {
	logger *zap.Logger
	tracer trace.Tracer
	store  ChainStore
}

func NewService(logger *zap.Logger, store ChainStore) *Service {
	return &Service{
		logger: logger,
		tracer: otel.Tracer("questionnaire/service"),
		store:  store,
	}
}

func (s *Service) GetNth(ctx context.Context, projectID shared.ProjectID, n int) (shared.ProjectQuestion, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetNth")
	defer span.End()

	return s.store.ResolveNth(traceCtx, projectID, n)
}

// SetAnswer applies a select or deselect to the nth question through its
// selection strategy and persists the resulting instance.
func (s *Service) SetAnswer(ctx context.Context, projectID shared.ProjectID, n int, answerID shared.AnswerID, selected bool) (shared.ProjectQuestion, error) {
	traceCtx, span := s.tracer.Start(ctx, "SetAnswer")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	question, err := s.store.ResolveNth(traceCtx, projectID, n)
	if err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, err
	}

	strategy, err := selection.For(question.Strategy)
	if err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, err
	}

	var answers []shared.ProjectAnswer
	if selected {
		answers, err = strategy.Select(answerID, question.Answers)
	} else {
		answers, err = strategy.Deselect(answerID, question.Answers)
	}
	if err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, err
	}

	updated := question.WithAnswers(answers)
	if err := s.store.Update(traceCtx, question.ID, updated); err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, err
	}

	logger.Info("Applied answer to project question",
		zap.String("project_id", projectID.String()),
		zap.String("question_id", question.ID.String()),
		zap.String("answer_id", answerID.String()),
		zap.Bool("selected", selected))
	return updated, nil
}

// DeleteFrom removes the nth question and every question after it. Later
// questions may have been materialized or answered based on the removed
// one, so they must not survive it.
func (s *Service) DeleteFrom(ctx context.Context, projectID shared.ProjectID, n int) error {
	traceCtx, span := s.tracer.Start(ctx, "DeleteFrom")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if n < 1 {
		return InvalidPositionError{Value: strconv.Itoa(n)}
	}

	chain, err := s.store.Chain(traceCtx, projectID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(chain) < n {
		return ExhaustedError{ProjectID: projectID, Position: n}
	}

	// Tail first, so every NEXT edge is gone before its source.
	for i := len(chain) - 1; i >= n-1; i-- {
		if err := s.store.Delete(traceCtx, chain[i]); err != nil {
			span.RecordError(err)
			return err
		}
	}

	logger.Info("Deleted questionnaire tail",
		zap.String("project_id", projectID.String()),
		zap.Int("from_position", n),
		zap.Int("deleted", len(chain)-n+1))
	return nil
}

// Reset removes every materialized question of the project. A project
// without materialized questions resets to itself.
func (s *Service) Reset(ctx context.Context, projectID shared.ProjectID) error {
	traceCtx, span := s.tracer.Start(ctx, "Reset")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	chain, err := s.store.Chain(traceCtx, projectID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		if err := s.store.Delete(traceCtx, chain[i]); err != nil {
			span.RecordError(err)
			return err
		}
	}

	logger.Info("Reset questionnaire",
		zap.String("project_id", projectID.String()),
		zap.Int("deleted", len(chain)))
	return nil
}
