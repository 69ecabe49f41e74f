package question

import (
	"context"
	"strings"
	"testing"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
	"devlift/questionnaire-backend/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, query store.Query) ([]store.Record, error) {
	args := m.Called(ctx, query)
	records, _ := args.Get(0).([]store.Record)
	return records, args.Error(1)
}

func (m *mockRunner) RunTransaction(ctx context.Context, queries []store.Query) error {
	args := m.Called(ctx, queries)
	return args.Error(0)
}

func matchLookup(questionID string) any {
	return mock.MatchedBy(func(q store.Query) bool {
		return strings.Contains(q.Statement, "MATCH (q:Question {id: $question_id})-[:HAS_ANSWER]") &&
			q.Params["question_id"] == questionID
	})
}

func matchEnabledBy(questionID string) any {
	return mock.MatchedBy(func(q store.Query) bool {
		return strings.Contains(q.Statement, "ENABLED_BY") && q.Params["question_id"] == questionID
	})
}

func questionRecord(id, text, questionType, createdAt string, previous any, answers ...map[string]any) store.Record {
	rawAnswers := make([]any, 0, len(answers))
	for _, a := range answers {
		rawAnswers = append(rawAnswers, a)
	}
	return store.Record{
		"q": map[string]any{
			"id":         id,
			"text":       text,
			"type":       questionType,
			"created_at": createdAt,
		},
		"answers":              rawAnswers,
		"previous_question_id": previous,
	}
}

func TestRepositoryGetByID(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{
		questionRecord("q-1", "Do you use CI?", "boolean", "2026-02-01T10:00:00Z", nil,
			map[string]any{"id": "q-1-true", "text": "Yes"},
			map[string]any{"id": "q-1-false", "text": "No"},
		),
	}, nil)
	runner.On("Run", mock.Anything, matchEnabledBy("q-1")).Return([]store.Record{
		{"enabled_by": []any{"a-9"}},
	}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	q, err := repo.GetByID(context.Background(), "q-1")
	require.NoError(t, err)

	require.Equal(t, shared.QuestionID("q-1"), q.ID)
	require.Equal(t, shared.QuestionTypeBoolean, q.Type)
	require.Len(t, q.AvailableAnswers, 2)
	require.Equal(t, []shared.AnswerID{"a-9"}, q.EnabledBy)
	require.Empty(t, q.PreviousQuestionID)
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-404")).Return([]store.Record{}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	_, err := repo.GetByID(context.Background(), "q-404")
	require.ErrorIs(t, err, internal.ErrQuestionNotFound)
}

func TestRepositoryInsert(t *testing.T) {
	question := shared.Question{
		ID:   "q-1",
		Text: "Do you use CI?",
		Type: shared.QuestionTypeBoolean,
		AvailableAnswers: []shared.Answer{
			{ID: "q-1-true", Text: "Yes"},
			{ID: "q-1-false", Text: "No"},
		},
	}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{}, nil)
	runner.On("RunTransaction", mock.Anything, mock.MatchedBy(func(queries []store.Query) bool {
		if len(queries) != 5 {
			return false
		}
		if !strings.Contains(queries[0].Statement, "CREATE (:Question $question)") {
			return false
		}
		node, ok := queries[0].Params["question"].(map[string]any)
		return ok && node["id"] == "q-1"
	})).Return(nil)

	repo := NewRepository(zap.NewNop(), runner)
	require.NoError(t, repo.Insert(context.Background(), question))
	runner.AssertExpectations(t)
}

func TestRepositoryInsertConflict(t *testing.T) {
	question := shared.Question{
		ID:               "q-1",
		Text:             "Do you use CI?",
		Type:             shared.QuestionTypeSingle,
		AvailableAnswers: []shared.Answer{{ID: "a-1", Text: "Yes"}},
	}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{
		questionRecord("q-1", "Do you use CI?", "single", "2026-02-01T10:00:00Z", nil,
			map[string]any{"id": "a-1", "text": "Yes"}),
	}, nil)
	runner.On("Run", mock.Anything, matchEnabledBy("q-1")).Return([]store.Record{
		{"enabled_by": []any{}},
	}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	err := repo.Insert(context.Background(), question)
	require.ErrorIs(t, err, internal.ErrQuestionAlreadyExists)
	runner.AssertNotCalled(t, "RunTransaction", mock.Anything, mock.Anything)
}

func TestRepositoryInsertPreviousMissing(t *testing.T) {
	question := shared.Question{
		ID:                 "q-2",
		Text:               "Do you use CD?",
		Type:               shared.QuestionTypeSingle,
		AvailableAnswers:   []shared.Answer{{ID: "a-1", Text: "Yes"}},
		PreviousQuestionID: "q-0",
	}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-2")).Return([]store.Record{}, nil)
	runner.On("Run", mock.Anything, matchLookup("q-0")).Return([]store.Record{}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	err := repo.Insert(context.Background(), question)
	require.ErrorIs(t, err, internal.ErrPreviousQuestionNotFound)
	runner.AssertNotCalled(t, "RunTransaction", mock.Anything, mock.Anything)
}

func TestRepositoryInsertRejectsCycle(t *testing.T) {
	question := shared.Question{
		ID:                 "q-2",
		Text:               "Second",
		Type:               shared.QuestionTypeSingle,
		AvailableAnswers:   []shared.Answer{{ID: "a-1", Text: "Yes"}},
		PreviousQuestionID: "q-1",
	}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-2")).Return([]store.Record{}, nil)
	// q-1 declares q-2 as its previous question, closing the loop.
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{
		questionRecord("q-1", "First", "single", "2026-02-01T10:00:00Z", "q-2",
			map[string]any{"id": "a-0", "text": "Yes"}),
	}, nil)
	runner.On("Run", mock.Anything, matchEnabledBy("q-1")).Return([]store.Record{
		{"enabled_by": []any{}},
	}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	err := repo.Insert(context.Background(), question)
	require.ErrorIs(t, err, internal.ErrCyclicPreviousChain)
	runner.AssertNotCalled(t, "RunTransaction", mock.Anything, mock.Anything)
}

func TestRepositoryInsertRejectsSelfReference(t *testing.T) {
	question := shared.Question{
		ID:                 "q-1",
		Text:               "Loop",
		Type:               shared.QuestionTypeSingle,
		AvailableAnswers:   []shared.Answer{{ID: "a-1", Text: "Yes"}},
		PreviousQuestionID: "q-1",
	}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	err := repo.Insert(context.Background(), question)
	require.ErrorIs(t, err, internal.ErrCyclicPreviousChain)
}

func TestRepositoryUpdateIsOneTransaction(t *testing.T) {
	question := shared.Question{
		ID:               "q-1",
		Text:             "Do you use CI everywhere?",
		Type:             shared.QuestionTypeSingle,
		AvailableAnswers: []shared.Answer{{ID: "a-1", Text: "Yes"}},
	}

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{
		questionRecord("q-1", "Do you use CI?", "single", "2026-02-01T10:00:00Z", nil,
			map[string]any{"id": "a-1", "text": "Yes"}),
	}, nil)
	runner.On("Run", mock.Anything, matchEnabledBy("q-1")).Return([]store.Record{
		{"enabled_by": []any{}},
	}, nil)
	runner.On("RunTransaction", mock.Anything, mock.MatchedBy(func(queries []store.Query) bool {
		// Delete statement first, reinsert statements after, all in one
		// transaction.
		return len(queries) >= 2 &&
			strings.Contains(queries[0].Statement, "DETACH DELETE") &&
			strings.Contains(queries[1].Statement, "CREATE (:Question $question)")
	})).Return(nil)

	repo := NewRepository(zap.NewNop(), runner)
	require.NoError(t, repo.Update(context.Background(), "q-1", question))
	runner.AssertNumberOfCalls(t, "RunTransaction", 1)
}

func TestRepositoryDeleteNotFound(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-404")).Return([]store.Record{}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	err := repo.Delete(context.Background(), "q-404")
	require.ErrorIs(t, err, internal.ErrQuestionNotFound)
}

func TestRepositoryDeleteCascadesAnswers(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, matchLookup("q-1")).Return([]store.Record{
		questionRecord("q-1", "Do you use CI?", "single", "2026-02-01T10:00:00Z", nil,
			map[string]any{"id": "a-1", "text": "Yes"}),
	}, nil)
	runner.On("Run", mock.Anything, matchEnabledBy("q-1")).Return([]store.Record{
		{"enabled_by": []any{}},
	}, nil)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(q store.Query) bool {
		return strings.Contains(q.Statement, "HAS_ANSWER") &&
			strings.Contains(q.Statement, "DETACH DELETE q, a") &&
			q.Params["question_id"] == "q-1"
	})).Return([]store.Record{}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	require.NoError(t, repo.Delete(context.Background(), "q-1"))
	runner.AssertExpectations(t)
}

func TestRepositoryGetLastInsertedEmpty(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(q store.Query) bool {
		return strings.Contains(q.Statement, "ORDER BY q.created_at DESC LIMIT 1")
	})).Return([]store.Record{}, nil)

	repo := NewRepository(zap.NewNop(), runner)
	_, err := repo.GetLastInserted(context.Background())
	require.ErrorIs(t, err, internal.ErrQuestionNotFound)
}
