package question

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

// Repository persists template questions in the shared question graph.
// A question is a Question node, its answers are Answer nodes behind
// HAS_ANSWER edges, chain order is a PREVIOUS edge and unlock conditions
// are ENABLED_BY edges.
type Repository struct {
	logger *zap.Logger
	runner store.Runner
	tracer trace.Tracer
}

func NewRepository(logger *zap.Logger, runner store.Runner) *Repository {
	return &Repository{
		logger: logger,
		runner: runner,
		tracer: otel.Tracer("question/repository"),
	}
}

func (r *Repository) GetAll(ctx context.Context) ([]shared.Question, error) {
	traceCtx, span := r.tracer.Start(ctx, "GetAll")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (q:Question)-[:HAS_ANSWER]->(a:Answer) " +
			"OPTIONAL MATCH (q)-[:PREVIOUS]->(prev:Question) " +
			"RETURN q, COLLECT(a) AS answers, prev.id AS previous_question_id",
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	questions := make([]shared.Question, 0, len(records))
	for _, record := range records {
		q, err := r.recordToQuestion(traceCtx, record)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r *Repository) GetByID(ctx context.Context, id shared.QuestionID) (shared.Question, error) {
	traceCtx, span := r.tracer.Start(ctx, "GetByID")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (q:Question {id: $question_id})-[:HAS_ANSWER]->(a:Answer) " +
			"OPTIONAL MATCH (q)-[:PREVIOUS]->(prev:Question) " +
			"RETURN q, COLLECT(a) AS answers, prev.id AS previous_question_id",
		Params: map[string]any{"question_id": id.String()},
	})
	if err != nil {
		span.RecordError(err)
		return shared.Question{}, fmt.Errorf("failed to get question %s: %w", id, err)
	}
	if len(records) == 0 {
		return shared.Question{}, NotFoundError{QuestionID: id}
	}
	return r.recordToQuestion(traceCtx, records[0])
}

func (r *Repository) Exists(ctx context.Context, id shared.QuestionID) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrQuestionNotFound) {
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
		Statement: "MATCH (q:Question) RETURN COUNT(q) AS count",
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	return intValue(records[0]["count"]), nil
}

// Insert writes the question, its answers and all of its edges in one
// transaction. The previous chain is validated first, so a failed insert
// leaves the graph untouched.
func (r *Repository) Insert(ctx context.Context, question shared.Question) error {
	traceCtx, span := r.tracer.Start(ctx, "Insert")
	defer span.End()
	logger := logutil.WithContext(traceCtx, r.logger)

	exists, err := r.Exists(traceCtx, question.ID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if exists {
		return AlreadyExistsError{QuestionID: question.ID}
	}

	if err := r.validatePreviousChain(traceCtx, question); err != nil {
		span.RecordError(err)
		return err
	}

	queries, err := insertQueries(question)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := r.runner.RunTransaction(traceCtx, queries); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert question %s: %w", question.ID, err)
	}

	logger.Info("Inserted question", zap.String("question_id", question.ID.String()))
	return nil
}

// Update replaces the stored question with the given one. Delete and
// reinsert statements run in a single transaction, so readers never observe
// the question half-gone.
func (r *Repository) Update(ctx context.Context, id shared.QuestionID, question shared.Question) error {
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

	if err := r.validatePreviousChain(traceCtx, question); err != nil {
		span.RecordError(err)
		return err
	}

	inserts, err := insertQueries(question)
	if err != nil {
		span.RecordError(err)
		return err
	}
	queries := append([]store.Query{deleteQuery(id)}, inserts...)
	if err := r.runner.RunTransaction(traceCtx, queries); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update question %s: %w", id, err)
	}

	logger.Info("Updated question", zap.String("question_id", id.String()))
	return nil
}

// Delete removes the question node together with all of its owned answers.
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
		return fmt.Errorf("failed to delete question %s: %w", id, err)
	}

	logger.Info("Deleted question", zap.String("question_id", id.String()))
	return nil
}

func (r *Repository) GetLastInserted(ctx context.Context) (shared.Question, error) {
	traceCtx, span := r.tracer.Start(ctx, "GetLastInserted")
	defer span.End()

	records, err := r.runner.Run(traceCtx, store.Query{
		Statement: "MATCH (q:Question)-[:HAS_ANSWER]->(a:Answer) " +
			"OPTIONAL MATCH (q)-[:PREVIOUS]->(prev:Question) " +
			"RETURN q, COLLECT(a) AS answers, prev.id AS previous_question_id " +
			"ORDER BY q.created_at DESC LIMIT 1",
	})
	if err != nil {
		span.RecordError(err)
		return shared.Question{}, fmt.Errorf("failed to get last inserted question: %w", err)
	}
	if len(records) == 0 {
		return shared.Question{}, NotFoundError{}
	}
	return r.recordToQuestion(traceCtx, records[0])
}

// validatePreviousChain checks that the declared previous question exists
// and that following PREVIOUS edges from it never reaches the question
// being written.
func (r *Repository) validatePreviousChain(ctx context.Context, question shared.Question) error {
	if question.PreviousQuestionID == "" {
		return nil
	}
	if question.PreviousQuestionID == question.ID {
		return CyclicChainError{QuestionID: question.ID}
	}

	visited := map[shared.QuestionID]struct{}{question.ID: {}}
	current := question.PreviousQuestionID
	for current != "" {
		if _, seen := visited[current]; seen {
			return CyclicChainError{QuestionID: current}
		}
		visited[current] = struct{}{}

		prev, err := r.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, internal.ErrQuestionNotFound) {
				if current == question.PreviousQuestionID {
					return PreviousNotFoundError{QuestionID: current}
				}
				// Broken tail further up the chain is not this write's fault.
				return nil
			}
			return err
		}
		if prev.PreviousQuestionID == question.ID {
			return CyclicChainError{QuestionID: question.ID}
		}
		current = prev.PreviousQuestionID
	}
	return nil
}

func insertQueries(question shared.Question) ([]store.Query, error) {
	node, err := shared.Encode(question)
	if err != nil {
		return nil, err
	}
	delete(node, "available_answers")
	delete(node, "previous_question_id")
	delete(node, "enabled_by")

	queries := []store.Query{{
		Statement: "CREATE (:Question $question)",
		Params:    map[string]any{"question": node},
	}}
	for _, answer := range shared.SortAnswers(question.AvailableAnswers) {
		answerNode, err := shared.Encode(answer)
		if err != nil {
			return nil, err
		}
		queries = append(queries,
			store.Query{
				Statement: "CREATE (:Answer $answer)",
				Params:    map[string]any{"answer": answerNode},
			},
			store.Query{
				Statement: "MATCH (q:Question {id: $question_id}) MATCH (a:Answer {id: $answer_id}) CREATE (q)-[:HAS_ANSWER]->(a)",
				Params:    map[string]any{"question_id": question.ID.String(), "answer_id": answer.ID.String()},
			},
		)
	}
	if question.PreviousQuestionID != "" {
		queries = append(queries, store.Query{
			Statement: "MATCH (q1:Question {id: $question_id}) MATCH (q2:Question {id: $prev_question_id}) CREATE (q1)-[:PREVIOUS]->(q2)",
			Params:    map[string]any{"question_id": question.ID.String(), "prev_question_id": question.PreviousQuestionID.String()},
		})
	}
	for _, answerID := range shared.SortAnswerIDs(question.EnabledBy) {
		queries = append(queries, store.Query{
			Statement: "MATCH (q1:Question {id: $question_id}) MATCH (a:Answer {id: $answer_id}) CREATE (q1)-[:ENABLED_BY]->(a)",
			Params:    map[string]any{"question_id": question.ID.String(), "answer_id": answerID.String()},
		})
	}
	return queries, nil
}

func deleteQuery(id shared.QuestionID) store.Query {
	return store.Query{
		Statement: "MATCH (q:Question {id: $question_id}) OPTIONAL MATCH (q)-[:HAS_ANSWER]->(a:Answer) DETACH DELETE q, a",
		Params:    map[string]any{"question_id": id.String()},
	}
}

func (r *Repository) recordToQuestion(ctx context.Context, record store.Record) (shared.Question, error) {
	node, ok := record["q"].(map[string]any)
	if !ok {
		return shared.Question{}, fmt.Errorf("question record has no node: %w", internal.ErrInternalServerError)
	}

	m := make(map[string]any, len(node)+3)
	for key, value := range node {
		m[key] = value
	}
	if answers, ok := record["answers"].([]any); ok {
		m["available_answers"] = answers
	}
	if prev, ok := record["previous_question_id"].(string); ok && prev != "" {
		m["previous_question_id"] = prev
	}

	id, _ := node["id"].(string)
	enabledBy, err := r.getEnabledBy(ctx, shared.QuestionID(id))
	if err != nil {
		return shared.Question{}, err
	}
	m["enabled_by"] = enabledBy

	return shared.DecodeQuestion(m)
}

func (r *Repository) getEnabledBy(ctx context.Context, id shared.QuestionID) ([]any, error) {
	records, err := r.runner.Run(ctx, store.Query{
		Statement: "MATCH (q:Question {id: $question_id}) " +
			"OPTIONAL MATCH (q)-[:ENABLED_BY]->(a:Answer) " +
			"RETURN COLLECT(a.id) AS enabled_by",
		Params: map[string]any{"question_id": id.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get enabled_by of question %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	enabledBy, _ := records[0]["enabled_by"].([]any)
	return enabledBy, nil
}

func intValue(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
