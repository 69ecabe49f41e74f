package questionnaire

import (
	"context"
	"testing"
	"time"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockChainStore struct {
	mock.Mock
}

func (m *mockChainStore) GetByID(ctx context.Context, id shared.QuestionID) (shared.ProjectQuestion, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(shared.ProjectQuestion)
	return q, args.Error(1)
}

func (m *mockChainStore) Update(ctx context.Context, id shared.QuestionID, question shared.ProjectQuestion) error {
	args := m.Called(ctx, id, question)
	return args.Error(0)
}

func (m *mockChainStore) Delete(ctx context.Context, id shared.QuestionID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockChainStore) Chain(ctx context.Context, projectID shared.ProjectID) ([]shared.QuestionID, error) {
	args := m.Called(ctx, projectID)
	chain, _ := args.Get(0).([]shared.QuestionID)
	return chain, args.Error(1)
}

func (m *mockChainStore) ResolveNth(ctx context.Context, projectID shared.ProjectID, n int) (shared.ProjectQuestion, error) {
	args := m.Called(ctx, projectID, n)
	q, _ := args.Get(0).(shared.ProjectQuestion)
	return q, args.Error(1)
}

func singleInstance() shared.ProjectQuestion {
	return shared.ProjectQuestion{
		ID:       "p1-q1",
		Text:     "Favorite color?",
		Type:     shared.QuestionTypeSingle,
		Strategy: shared.SelectionSingle,
		Answers: []shared.ProjectAnswer{
			{ID: "p1-a1", Text: "Red", Selected: true},
			{ID: "p1-a2", Text: "Green"},
		},
		CreatedAt: time.Now(),
	}
}

func TestServiceSetAnswerSelect(t *testing.T) {
	store := new(mockChainStore)
	store.On("ResolveNth", mock.Anything, shared.ProjectID("p1"), 1).Return(singleInstance(), nil)
	store.On("Update", mock.Anything, shared.QuestionID("p1-q1"), mock.MatchedBy(func(q shared.ProjectQuestion) bool {
		selected := q.SelectedAnswers()
		return len(selected) == 1 && selected[0].ID == "p1-a2"
	})).Return(nil)

	service := NewService(zap.NewNop(), store)
	updated, err := service.SetAnswer(context.Background(), "p1", 1, "p1-a2", true)
	require.NoError(t, err)

	selected := updated.SelectedAnswers()
	require.Len(t, selected, 1)
	require.Equal(t, shared.AnswerID("p1-a2"), selected[0].ID)
	store.AssertExpectations(t)
}

func TestServiceSetAnswerDeselect(t *testing.T) {
	store := new(mockChainStore)
	store.On("ResolveNth", mock.Anything, shared.ProjectID("p1"), 1).Return(singleInstance(), nil)
	store.On("Update", mock.Anything, shared.QuestionID("p1-q1"), mock.MatchedBy(func(q shared.ProjectQuestion) bool {
		return len(q.SelectedAnswers()) == 0
	})).Return(nil)

	service := NewService(zap.NewNop(), store)
	updated, err := service.SetAnswer(context.Background(), "p1", 1, "p1-a1", false)
	require.NoError(t, err)
	require.Empty(t, updated.SelectedAnswers())
}

func TestServiceSetAnswerUnknownAnswer(t *testing.T) {
	store := new(mockChainStore)
	store.On("ResolveNth", mock.Anything, shared.ProjectID("p1"), 1).Return(singleInstance(), nil)

	service := NewService(zap.NewNop(), store)
	_, err := service.SetAnswer(context.Background(), "p1", 1, "p1-a9", true)
	require.ErrorIs(t, err, internal.ErrAnswerNotAvailable)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceDeleteFrom(t *testing.T) {
	store := new(mockChainStore)
	store.On("Chain", mock.Anything, shared.ProjectID("p1")).Return(
		[]shared.QuestionID{"p1-q1", "p1-q2", "p1-q3"}, nil)
	// Tail first, so NEXT edges disappear before their source instance.
	store.On("Delete", mock.Anything, shared.QuestionID("p1-q3")).Return(nil)
	store.On("Delete", mock.Anything, shared.QuestionID("p1-q2")).Return(nil)

	service := NewService(zap.NewNop(), store)
	require.NoError(t, service.DeleteFrom(context.Background(), "p1", 2))

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Delete", mock.Anything, shared.QuestionID("p1-q1"))
}

func TestServiceDeleteFromBeyondChain(t *testing.T) {
	store := new(mockChainStore)
	store.On("Chain", mock.Anything, shared.ProjectID("p1")).Return(
		[]shared.QuestionID{"p1-q1"}, nil)

	service := NewService(zap.NewNop(), store)
	err := service.DeleteFrom(context.Background(), "p1", 2)
	require.ErrorIs(t, err, internal.ErrQuestionnaireExhausted)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestServiceReset(t *testing.T) {
	t.Run("deletes whole chain", func(t *testing.T) {
		store := new(mockChainStore)
		store.On("Chain", mock.Anything, shared.ProjectID("p1")).Return(
			[]shared.QuestionID{"p1-q1", "p1-q2"}, nil)
		store.On("Delete", mock.Anything, shared.QuestionID("p1-q2")).Return(nil)
		store.On("Delete", mock.Anything, shared.QuestionID("p1-q1")).Return(nil)

		service := NewService(zap.NewNop(), store)
		require.NoError(t, service.Reset(context.Background(), "p1"))
		store.AssertExpectations(t)
	})

	t.Run("empty chain is a no-op", func(t *testing.T) {
		store := new(mockChainStore)
		store.On("Chain", mock.Anything, shared.ProjectID("p1")).Return(nil, nil)

		service := NewService(zap.NewNop(), store)
		require.NoError(t, service.Reset(context.Background(), "p1"))
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
