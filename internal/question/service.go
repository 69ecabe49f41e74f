package question

import (
	"context"
	"fmt"

	"devlift/questionnaire-backend/internal/questionnaire/shared"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type GraphStore interface {
	GetAll(ctx context.Context) ([]shared.Question, error)
	GetByID(ctx context.Context, id shared.QuestionID) (shared.Question, error)
	Exists(ctx context.Context, id shared.QuestionID) (bool, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, question shared.Question) error
	Update(ctx context.Context, id shared.QuestionID, question shared.Question) error
	Delete(ctx context.Context, id shared.QuestionID) error
	GetLastInserted(ctx context.Context) (shared.Question, error)
}

type Service struct {
	logger *zap.Logger
	tracer trace.Tracer
	store  GraphStore
}

func NewService(logger *zap.Logger, store GraphStore) *Service {
	return &Service{
		logger: logger,
		tracer: otel.Tracer("question/service"),
		store:  store,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]shared.Question, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetAll")
	defer span.End()

	return s.store.GetAll(traceCtx)
}

func (s *Service) GetByID(ctx context.Context, id shared.QuestionID) (shared.Question, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()

	return s.store.GetByID(traceCtx, id)
}

func (s *Service) Add(ctx context.Context, question shared.Question) error {
	traceCtx, span := s.tracer.Start(ctx, "Add")
	defer span.End()

	if err := question.Validate(); err != nil {
		span.RecordError(err)
		return err
	}
	return s.store.Insert(traceCtx, question)
}

// Update rejects a body id that disagrees with the path id before anything
// is written.
func (s *Service) Update(ctx context.Context, id shared.QuestionID, question shared.Question) error {
	traceCtx, span := s.tracer.Start(ctx, "Update")
	defer span.End()

	if question.ID != id {
		return IDMismatchError{PathID: id, BodyID: question.ID}
	}
	if err := question.Validate(); err != nil {
		span.RecordError(err)
		return err
	}
	return s.store.Update(traceCtx, id, question)
}

func (s *Service) Delete(ctx context.Context, id shared.QuestionID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()

	return s.store.Delete(traceCtx, id)
}

func (s *Service) GetLastInserted(ctx context.Context) (shared.Question, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetLastInserted")
	defer span.End()

	return s.store.GetLastInserted(traceCtx)
}

// NewCandidateID proposes the next free sequence id. The count is only a
// starting point; holes left by deletions mean the first guesses may be
// taken, so it probes until a free id is found.
func (s *Service) NewCandidateID(ctx context.Context) (shared.QuestionID, error) {
	traceCtx, span := s.tracer.Start(ctx, "NewCandidateID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	count, err := s.store.Count(traceCtx)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	for increment := 1; ; increment++ {
		candidate := shared.QuestionID(fmt.Sprintf("q-%d", count+increment))
		exists, err := s.store.Exists(traceCtx, candidate)
		if err != nil {
			span.RecordError(err)
			return "", err
		}
		if !exists {
			logger.Debug("Proposed candidate question id", zap.String("question_id", candidate.String()))
			return candidate, nil
		}
	}
}
