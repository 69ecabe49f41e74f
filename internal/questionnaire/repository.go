package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
	"devlift/questionnaire-backend/internal/store"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TemplateStore reads the template question graph a questionnaire is
// materialized from.
type TemplateStore interface {
	GetAll(ctx context.Context) ([]shared.Question, error)
}

// ProjectStore checks project existence before instances are linked to it.
type ProjectStore interface {
	Exists(ctx context.Context, id shared.ProjectID) (bool, error)
}

// Repository persists per-project question instances. An instance is a
// ProjectQuestion node whose answers hang off HAS_AVAILABLE or HAS_SELECTED
// edges depending on selection state; the chain root is reached from the
// Project node over QUESTIONNAIRE and instances link forward over NEXT.
type Repository struct {
	logger    *zap.Logger
	runner    store.Runner
	templates TemplateStore
	projects  ProjectStore
	tracer    trace.Tracer
	now       func() time.Time
}

func NewRepository(logger *zap.Logger, runner store.Runner, templates TemplateStore, projects ProjectStore) *Repository {
	return &Repository{
		logger:    logger,
		runner:    runner,
		templates: templates,
		projects:  projects,
		tracer:    otel.Tracer("questionnaire/repository"),
		now:       time.Now,
	}
}

func (r *Repository) GetByID(ctx context.Context, id shared.QuestionID) (shared.ProjectQuestion, error) {
	traceCtx, span := r.tracer.Start(ctx, "GetByID")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (q:ProjectQuestion {id: $question_id}) " +
			"OPTIONAL MATCH (q)-[rel:HAS_AVAILABLE|HAS_SELECTED]->(a:Answer) " +
			"OPTIONAL MATCH (prev:ProjectQuestion)-[:NEXT]->(q) " +
			"RETURN q, COLLECT({answer: a, selected: TYPE(rel) = 'HAS_SELECTED'}) AS answers, prev.id AS previous_question_id",
		Params: map[string]any{"question_id": id.String()},
	})
	if err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, fmt.Errorf("failed to get project question %s: %w", id, err)
	}
	if len(records) == 0 {
		return shared.ProjectQuestion{}, NotFoundError{QuestionID: id}
	}
	return recordToProjectQuestion(records[0])
}

func (r *Repository) Exists(ctx context.Context, id shared.QuestionID) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrInstanceNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert writes the instance, its answers and its chain link in one
// transaction. The owning project is derived from the instance id prefix
// and must exist; so must the declared previous instance.
func (r *Repository) Insert(ctx context.Context, question shared.ProjectQuestion) error {
	traceCtx, span := r.tracer.Start(ctx, "Insert")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	queries, err := r.insertQueries(traceCtx, question)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := r.runner.RunTransaction(traceCtx, queries); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert project question %s: %w", question.ID, err)
	}

	logger.Info("Inserted project question", zap.String("question_id", question.ID.String()))
	return nil
}

// Update replaces the stored instance. Delete and reinsert statements run
// in one transaction so a concurrent reader never sees the instance
// half-gone.
func (r *Repository) Update(ctx context.Context, id shared.QuestionID, question shared.ProjectQuestion) error {
	traceCtx, span := r.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	exists, err := r.Exists(traceCtx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		return NotFoundError{QuestionID: id}
	}

	inserts, err := r.insertQueries(traceCtx, question)
	if err != nil {
		span.RecordError(err)
		return err
	}
	queries := append([]store.Query{deleteQuery(id)}, inserts...)

	// Deleting the node drops its outbound NEXT edge too; re-link the
	// successor inside the same transaction so the chain never breaks.
	successors, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (q:ProjectQuestion {id: $question_id})-[:NEXT]->(next:ProjectQuestion) RETURN next.id AS id",
		Params:    map[string]any{"question_id": id.String()},
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read successor of project question %s: %w", id, err)
	}
	if len(successors) > 0 {
		if successorID, ok := successors[0]["id"].(string); ok && successorID != "" {
			queries = append(queries, store.Query{
				Statement: "MATCH (q:ProjectQuestion {id: $question_id}) MATCH (next:ProjectQuestion {id: $next_question_id}) CREATE (q)-[:NEXT]->(next)",
				Params:    map[string]any{"question_id": question.ID.String(), "next_question_id": successorID},
			})
		}
	}

	if err := r.runner.RunTransaction(traceCtx, queries); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project question %s: %w", id, err)
	}

	logger.Info("Updated project question", zap.String("question_id", id.String()))
	return nil
}

func (r *Repository) Delete(ctx context.Context, id shared.QuestionID) error {
	traceCtx, span := r.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	exists, err := r.Exists(traceCtx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		return NotFoundError{QuestionID: id}
	}

	if _, err := r.runner.Run(traceCtx, deleteQuery(id)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project question %s: %w", id, err)
	}

	logger.Info("Deleted project question", zap.String("question_id", id.String()))
	return nil
}

// Chain returns the ids of the project's materialized instances in
// questionnaire order.
func (r *Repository) Chain(ctx context.Context, projectID shared.ProjectID) ([]shared.QuestionID, error) {
	traceCtx, span := r.tracer.Start(ctx, "Chain")
	defer span.End()

	exists, err := r.projects.Exists(traceCtx, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !exists {
		return nil, ProjectNotFoundError{ProjectID: projectID}
	}

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (p:Project {id: $project_id})-[:QUESTIONNAIRE]->(q:ProjectQuestion) RETURN q.id AS id",
		Params:    map[string]any{"project_id": projectID.String()},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get questionnaire root of project %s: %w", projectID, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var chain []shared.QuestionID
	visited := make(map[shared.QuestionID]struct{})
	current, _ := records[0]["id"].(string)
	for current != "" {
		id := shared.QuestionID(current)
		if _, seen := visited[id]; seen {
			return nil, fmt.Errorf("questionnaire chain of project %s contains a cycle at %s: %w", projectID, id, internal.ErrInternalServerError)
		}
		visited[id] = struct{}{}
		chain = append(chain, id)

		next, err := r.runner.Run(traceCtx, store.Query{
			Statement: "MATCH (q:ProjectQuestion {id: $question_id})-[:NEXT]->(next:ProjectQuestion) RETURN next.id AS id",
			Params:    map[string]any{"question_id": current},
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to walk questionnaire of project %s: %w", projectID, err)
		}
		current = ""
		if len(next) > 0 {
			current, _ = next[0]["id"].(string)
		}
	}
	return chain, nil
}

// ResolveNth returns the project's nth question, materializing it (and any
// missing earlier positions) from the template chain on first access.
// Traversal follows PREVIOUS order only; enabled-by conditions do not
// filter it.
func (r *Repository) ResolveNth(ctx context.Context, projectID shared.ProjectID, n int) (shared.ProjectQuestion, error) {
	traceCtx, span := r.tracer.Start(ctx, "ResolveNth")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	if n < 1 {
		return shared.ProjectQuestion{}, InvalidPositionError{Value: fmt.Sprintf("%d", n)}
	}

	chain, err := r.Chain(traceCtx, projectID)
	if err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, err
	}
	if len(chain) >= n {
		return r.GetByID(traceCtx, chain[n-1])
	}

	templates, err := r.templateChain(traceCtx)
	if err != nil {
		span.RecordError(err)
		return shared.ProjectQuestion{}, err
	}
	if len(templates) < n {
		return shared.ProjectQuestion{}, ExhaustedError{ProjectID: projectID, Position: n}
	}

	var previousID shared.QuestionID
	if len(chain) > 0 {
		previousID = chain[len(chain)-1]
	}

	var instance shared.ProjectQuestion
	for position := len(chain) + 1; position <= n; position++ {
		instance, err = shared.Materialize(projectID, templates[position-1], previousID, r.now().UTC())
		if err != nil {
			span.RecordError(err)
			return shared.ProjectQuestion{}, err
		}
		if err := r.Insert(traceCtx, instance); err != nil {
			span.RecordError(err)
			return shared.ProjectQuestion{}, err
		}
		logger.Info("Materialized project question",
			zap.String("project_id", projectID.String()),
			zap.String("question_id", instance.ID.String()),
			zap.Int("position", position))
		previousID = instance.ID
	}
	return instance, nil
}

// templateChain orders the template questions by following who declares
// whom as previous, starting from the question with no predecessor.
func (r *Repository) templateChain(ctx context.Context) ([]shared.Question, error) {
	templates, err := r.templates.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byPrevious := make(map[shared.QuestionID]shared.Question, len(templates))
	for _, t := range templates {
		byPrevious[t.PreviousQuestionID] = t
	}

	var ordered []shared.Question
	var current shared.QuestionID
	for len(ordered) <= len(templates) {
		t, ok := byPrevious[current]
		if !ok {
			break
		}
		ordered = append(ordered, t)
		current = t.ID
	}
	return ordered, nil
}

func (r *Repository) insertQueries(ctx context.Context, question shared.ProjectQuestion) ([]store.Query, error) {
	projectCode, ok := question.ID.ProjectCode()
	if !ok {
		return nil, fmt.Errorf("project question id %q carries no project code: %w", question.ID, internal.ErrValidationFailed)
	}
	projectID := shared.ProjectID(projectCode)
	exists, err := r.projects.Exists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ProjectNotFoundError{ProjectID: projectID}
	}

	node, err := shared.Encode(question)
	if err != nil {
		return nil, err
	}
	delete(node, "answers")
	delete(node, "previous_question_id")

	queries := []store.Query{{
		Statement: "CREATE (:ProjectQuestion $question)",
		Params:    map[string]any{"question": node},
	}}
	for _, answer := range shared.SortProjectAnswers(question.Answers) {
		answerNode, err := shared.Encode(answer)
		if err != nil {
			return nil, err
		}
		edge := "HAS_AVAILABLE"
		if answer.Selected {
			edge = "HAS_SELECTED"
		}
		queries = append(queries,
			store.Query{
				Statement: "CREATE (:Answer $answer)",
				Params:    map[string]any{"answer": answerNode},
			},
			store.Query{
				Statement: "MATCH (q:ProjectQuestion {id: $question_id}) MATCH (a:Answer {id: $answer_id}) CREATE (q)-[:" + edge + "]->(a)",
				Params:    map[string]any{"question_id": question.ID.String(), "answer_id": answer.ID.String()},
			},
		)
	}

	if question.PreviousQuestionID == "" {
		queries = append(queries, store.Query{
			Statement: "MATCH (p:Project {id: $project_id}) MATCH (q:ProjectQuestion {id: $question_id}) CREATE (p)-[:QUESTIONNAIRE]->(q)",
			Params:    map[string]any{"project_id": projectID.String(), "question_id": question.ID.String()},
		})
	} else {
		previousExists, err := r.Exists(ctx, question.PreviousQuestionID)
		if err != nil {
			return nil, err
		}
		if !previousExists {
			return nil, PreviousNotFoundError{QuestionID: question.PreviousQuestionID}
		}
		queries = append(queries, store.Query{
			Statement: "MATCH (q:ProjectQuestion {id: $question_id}) MATCH (prev:ProjectQuestion {id: $prev_question_id}) CREATE (prev)-[:NEXT]->(q)",
			Params:    map[string]any{"question_id": question.ID.String(), "prev_question_id": question.PreviousQuestionID.String()},
		})
	}
	return queries, nil
}

func deleteQuery(id shared.QuestionID) store.Query {
	return store.Query{
		Statement: "MATCH (q:ProjectQuestion {id: $question_id}) " +
			"OPTIONAL MATCH (q)-[:HAS_AVAILABLE|HAS_SELECTED]->(a:Answer) " +
			"DETACH DELETE q, a",
		Params: map[string]any{"question_id": id.String()},
	}
}

func recordToProjectQuestion(record store.Record) (shared.ProjectQuestion, error) {
	node, ok := record["q"].(map[string]any)
	if !ok {
		return shared.ProjectQuestion{}, fmt.Errorf("project question record has no node: %w", internal.ErrInternalServerError)
	}

	m := make(map[string]any, len(node)+2)
	for key, value := range node {
		m[key] = value
	}

	var answers []any
	if collected, ok := record["answers"].([]any); ok {
		for _, raw := range collected {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			answerNode, ok := entry["answer"].(map[string]any)
			if !ok {
				// OPTIONAL MATCH with no answers collects a null entry.
				continue
			}
			selected, _ := entry["selected"].(bool)
			answerNode["selected"] = selected
			answers = append(answers, answerNode)
		}
	}
	m["answers"] = answers
	if prev, ok := record["previous_question_id"].(string); ok && prev != "" {
		m["previous_question_id"] = prev
	}

	return shared.DecodeProjectQuestion(m)
}
