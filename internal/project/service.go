package project

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
	GetAll(ctx context.Context) ([]shared.Project, error)
	GetByID(ctx context.Context, id shared.ProjectID) (shared.Project, error)
	Exists(ctx context.Context, id shared.ProjectID) (bool, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, project shared.Project) error
	Update(ctx context.Context, id shared.ProjectID, project shared.Project) error
	Delete(ctx context.Context, id shared.ProjectID) error
}

type Service struct {
	logger *zap.Logger
	tracer trace.Tracer
	store  GraphStore
}

func NewService(logger *zap.Logger, store GraphStore) *Service {
	return &Service{
		logger: logger,
		tracer: otel.Tracer("project/service"),
		store:  store,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]shared.Project, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetAll")
	defer span.End()

	return s.store.GetAll(traceCtx)
}

func (s *Service) GetByID(ctx context.Context, id shared.ProjectID) (shared.Project, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()

	return s.store.GetByID(traceCtx, id)
}

func (s *Service) Add(ctx context.Context, project shared.Project) error {
	traceCtx, span := s.tracer.Start(ctx, "Add")
	defer span.End()

	return s.store.Insert(traceCtx, project)
}

func (s *Service) Update(ctx context.Context, id shared.ProjectID, project shared.Project) error {
	traceCtx, span := s.tracer.Start(ctx, "Update")
	defer span.End()

	if project.ID != id {
		return IDMismatchError{PathID: id, BodyID: project.ID}
	}
	return s.store.Update(traceCtx, id, project)
}

func (s *Service) Delete(ctx context.Context, id shared.ProjectID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()

	return s.store.Delete(traceCtx, id)
}

// NewCandidateID proposes the next free "p{n}" id, probing past ids still
// taken after deletions shifted the count. The code stays dash-free so
// instance question ids, which treat everything before the first dash as
// the owning project code, can resolve back to the project.
func (s *Service) NewCandidateID(ctx context.Context) (shared.ProjectID, error) {
	traceCtx, span := s.tracer.Start(ctx, "NewCandidateID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	count, err := s.store.Count(traceCtx)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	for increment := 1; ; increment++ {
		candidate := shared.ProjectID(fmt.Sprintf("p%d", count+increment))
		exists, err := s.store.Exists(traceCtx, candidate)
		if err != nil {
			span.RecordError(err)
			return "", err
		}
		if !exists {
			logger.Debug("Proposed candidate project id", zap.String("project_id", candidate.String()))
			return candidate, nil
		}
	}
}
