package project

import (
	"context"
	"errors"
	"fmt"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
	"devlift/questionnaire-backend/internal/store"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Repository struct {
	logger *zap.Logger
	runner store.Runner
	tracer trace.Tracer
}

func NewRepository(logger *zap.Logger, runner store.Runner) *Repository {
	return &Repository{
		logger: logger,
		runner: runner,
		tracer: otel.Tracer("project/repository"),
	}
}

func (r *Repository) GetAll(ctx context.Context) ([]shared.Project, error) {
	traceCtx, span := r.tracer.Start(ctx, "GetAll")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (p:Project) RETURN p",
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]shared.Project, 0, len(records))
	for _, record := range records {
		p, err := recordToProject(record)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (r *Repository) GetByID(ctx context.Context, id shared.ProjectID) (shared.Project, error) {
	traceCtx, span := r.tracer.Start(ctx, "GetByID")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (p:Project {id: $project_id}) RETURN p",
		Params:    map[string]any{"project_id": id.String()},
	})
	if err != nil {
		span.RecordError(err)
		return shared.Project{}, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	if len(records) == 0 {
		return shared.Project{}, NotFoundError{ProjectID: id}
	}
	return recordToProject(records[0])
}

func (r *Repository) Exists(ctx context.Context, id shared.ProjectID) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrProjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	traceCtx, span := r.tracer.Start(ctx, "Count")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (p:Project) RETURN COUNT(p) AS count",
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	switch n := records[0]["count"].(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, nil
}

func (r *Repository) Insert(ctx context.Context, project shared.Project) error {
	traceCtx, span := r.tracer.Start(ctx, "Insert")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	exists, err := r.Exists(traceCtx, project.ID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if exists {
		return AlreadyExistsError{ProjectID: project.ID}
	}

	node, err := shared.Encode(project)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := r.runner.Run(traceCtx, store.Query{
		Statement: "CREATE (:Project $project)",
		Params:    map[string]any{"project": node},
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert project %s: %w", project.ID, err)
	}

	logger.Info("Inserted project", zap.String("project_id", project.ID.String()))
	return nil
}

// Update replaces the project node in one transaction so the questionnaire
// chain hanging off it is never orphaned mid-update.
func (r *Repository) Update(ctx context.Context, id shared.ProjectID, project shared.Project) error {
	traceCtx, span := r.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	exists, err := r.Exists(traceCtx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		return NotFoundError{ProjectID: id}
	}

	node, err := shared.Encode(project)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := r.runner.RunTransaction(traceCtx, []store.Query{
		{
			Statement: "MATCH (p:Project {id: $project_id}) SET p = $project",
			Params:    map[string]any{"project_id": id.String(), "project": node},
		},
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project %s: %w", id, err)
	}

	logger.Info("Updated project", zap.String("project_id", id.String()))
	return nil
}

// Delete removes the project together with its whole questionnaire chain
// and the chain's answer nodes.
func (r *Repository) Delete(ctx context.Context, id shared.ProjectID) error {
	traceCtx, span := r.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	exists, err := r.Exists(traceCtx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		return NotFoundError{ProjectID: id}
	}

	if _, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (p:Project {id: $project_id}) " +
			"OPTIONAL MATCH (p)-[:QUESTIONNAIRE]->(:ProjectQuestion)-[:NEXT*0..]->(q:ProjectQuestion) " +
			"OPTIONAL MATCH (q)-[:HAS_AVAILABLE|HAS_SELECTED]->(a:Answer) " +
			"DETACH DELETE p, q, a",
		Params: map[string]any{"project_id": id.String()},
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}

	logger.Info("Deleted project", zap.String("project_id", id.String()))
	return nil
}

func recordToProject(record store.Record) (shared.Project, error) {
	node, ok := record["p"].(map[string]any)
	if !ok {
		return shared.Project{}, fmt.Errorf("project record has no node: %w", internal.ErrInternalServerError)
	}
	return shared.DecodeProject(node)
}
