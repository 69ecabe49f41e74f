package project

import (
	"context"
	"testing"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockGraphStore struct {
	mock.Mock
}

func (m *mockGraphStore) GetAll(ctx context.Context) ([]shared.Project, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]shared.Project)
	return projects, args.Error(1)
}

func (m *mockGraphStore) GetByID(ctx context.Context, id shared.ProjectID) (shared.Project, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(shared.Project)
	return p, args.Error(1)
}

func (m *mockGraphStore) Exists(ctx context.Context, id shared.ProjectID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockGraphStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockGraphStore) Insert(ctx context.Context, project shared.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *mockGraphStore) Update(ctx context.Context, id shared.ProjectID, project shared.Project) error {
	args := m.Called(ctx, id, project)
	return args.Error(0)
}

func (m *mockGraphStore) Delete(ctx context.Context, id shared.ProjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestServiceNewCandidateID(t *testing.T) {
	store := new(mockGraphStore)
	store.On("Count", mock.Anything).Return(1, nil)
	store.On("Exists", mock.Anything, shared.ProjectID("p2")).Return(true, nil)
	store.On("Exists", mock.Anything, shared.ProjectID("p3")).Return(false, nil)

	service := NewService(zap.NewNop(), store)
	id, err := service.NewCandidateID(context.Background())
	require.NoError(t, err)
	require.Equal(t, shared.ProjectID("p3"), id)
}

func TestServiceCandidateIDOwnsQuestionnaire(t *testing.T) {
	// Instance question ids take everything before the first dash as the
	// owning project code, so a generated id must stay dash-free or the
	// project could never own a questionnaire.
	store := new(mockGraphStore)
	store.On("Count", mock.Anything).Return(0, nil)
	store.On("Exists", mock.Anything, mock.Anything).Return(false, nil)

	service := NewService(zap.NewNop(), store)
	id, err := service.NewCandidateID(context.Background())
	require.NoError(t, err)

	instanceID := shared.QuestionID(id.String() + "-q-1")
	code, ok := instanceID.ProjectCode()
	require.True(t, ok)
	require.Equal(t, id.String(), code)
}

func TestServiceUpdateIDMismatch(t *testing.T) {
	store := new(mockGraphStore)
	service := NewService(zap.NewNop(), store)

	err := service.Update(context.Background(), "p-1", shared.Project{ID: "p-2", Name: "Atlas"})
	require.ErrorIs(t, err, internal.ErrProjectIDMismatch)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
