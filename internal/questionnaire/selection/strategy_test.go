package selection_test

import (
	"errors"
	"testing"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/selection"
	"devlift/questionnaire-backend/internal/questionnaire/shared"
)

func answers(selected ...string) []shared.ProjectAnswer {
	selectedSet := make(map[string]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}
	return []shared.ProjectAnswer{
		{ID: "p1-a1", Text: "Red", Selected: selectedSet["p1-a1"]},
		{ID: "p1-a2", Text: "Green", Selected: selectedSet["p1-a2"]},
		{ID: "p1-a3", Text: "Blue", Selected: selectedSet["p1-a3"]},
	}
}

func selectedIDs(in []shared.ProjectAnswer) []string {
	var out []string
	for _, a := range in {
		if a.Selected {
			out = append(out, a.ID.String())
		}
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSingleSelect(t *testing.T) {
	testCases := []struct {
		name         string
		initial      []shared.ProjectAnswer
		selectID     shared.AnswerID
		wantSelected []string
		wantErr      error
	}{
		{
			name:         "select on empty selection",
			initial:      answers(),
			selectID:     "p1-a2",
			wantSelected: []string{"p1-a2"},
		},
		{
			name:         "select replaces previous selection",
			initial:      answers("p1-a1"),
			selectID:     "p1-a3",
			wantSelected: []string{"p1-a3"},
		},
		{
			name:         "reselecting the selected answer keeps it",
			initial:      answers("p1-a2"),
			selectID:     "p1-a2",
			wantSelected: []string{"p1-a2"},
		},
		{
			name:     "unknown answer is rejected",
			initial:  answers("p1-a1"),
			selectID: "p1-a9",
			wantErr:  internal.ErrAnswerNotAvailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selection.Single{}.Select(tc.selectID, tc.initial)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(selectedIDs(got), tc.wantSelected) {
				t.Errorf("selected = %v, want %v", selectedIDs(got), tc.wantSelected)
			}
		})
	}
}

func TestSingleDeselect(t *testing.T) {
	testCases := []struct {
		name       string
		initial    []shared.ProjectAnswer
		deselectID shared.AnswerID
		wantErr    error
	}{
		{
			name:       "deselect the selected answer clears the selection",
			initial:    answers("p1-a1"),
			deselectID: "p1-a1",
		},
		{
			// Asking for any known answer clears the whole selection,
			// not just the asked id.
			name:       "deselect another known answer also clears the selection",
			initial:    answers("p1-a1"),
			deselectID: "p1-a3",
		},
		{
			name:       "deselect on empty selection stays empty",
			initial:    answers(),
			deselectID: "p1-a2",
		},
		{
			name:       "unknown answer is rejected even on empty selection",
			initial:    answers(),
			deselectID: "p1-a9",
			wantErr:    internal.ErrAnswerNotAvailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selection.Single{}.Deselect(tc.deselectID, tc.initial)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(selectedIDs(got)) != 0 {
				t.Errorf("selection not cleared, still selected: %v", selectedIDs(got))
			}
		})
	}
}

func TestMultipleSelect(t *testing.T) {
	testCases := []struct {
		name         string
		initial      []shared.ProjectAnswer
		selectID     shared.AnswerID
		wantSelected []string
		wantErr      error
	}{
		{
			name:         "select adds to existing selection",
			initial:      answers("p1-a1"),
			selectID:     "p1-a3",
			wantSelected: []string{"p1-a1", "p1-a3"},
		},
		{
			name:         "reselecting keeps the set unchanged",
			initial:      answers("p1-a1", "p1-a2"),
			selectID:     "p1-a1",
			wantSelected: []string{"p1-a1", "p1-a2"},
		},
		{
			name:     "unknown answer is rejected",
			initial:  answers(),
			selectID: "p1-a9",
			wantErr:  internal.ErrAnswerNotAvailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selection.Multiple{}.Select(tc.selectID, tc.initial)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(selectedIDs(got), tc.wantSelected) {
				t.Errorf("selected = %v, want %v", selectedIDs(got), tc.wantSelected)
			}
		})
	}
}

func TestMultipleDeselect(t *testing.T) {
	testCases := []struct {
		name         string
		initial      []shared.ProjectAnswer
		deselectID   shared.AnswerID
		wantSelected []string
		wantErr      error
	}{
		{
			name:         "deselect removes only the asked answer",
			initial:      answers("p1-a1", "p1-a2"),
			deselectID:   "p1-a1",
			wantSelected: []string{"p1-a2"},
		},
		{
			name:         "deselecting an unselected answer changes nothing",
			initial:      answers("p1-a2"),
			deselectID:   "p1-a3",
			wantSelected: []string{"p1-a2"},
		},
		{
			name:       "unknown answer is rejected",
			initial:    answers("p1-a1"),
			deselectID: "p1-a9",
			wantErr:    internal.ErrAnswerNotAvailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := selection.Multiple{}.Deselect(tc.deselectID, tc.initial)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(selectedIDs(got), tc.wantSelected) {
				t.Errorf("selected = %v, want %v", selectedIDs(got), tc.wantSelected)
			}
		})
	}
}

func TestStrategiesDoNotMutateInput(t *testing.T) {
	initial := answers("p1-a1")

	if _, err := (selection.Single{}).Select("p1-a2", initial); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := (selection.Single{}).Deselect("p1-a1", initial); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := (selection.Multiple{}).Select("p1-a3", initial); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !equalIDs(selectedIDs(initial), []string{"p1-a1"}) {
		t.Errorf("input answer set was mutated, selected: %v", selectedIDs(initial))
	}
}

func TestFor(t *testing.T) {
	single, err := selection.For(shared.SelectionSingle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if single.Kind() != shared.SelectionSingle {
		t.Errorf("kind = %v, want %v", single.Kind(), shared.SelectionSingle)
	}

	multiple, err := selection.For(shared.SelectionMultiple)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if multiple.Kind() != shared.SelectionMultiple {
		t.Errorf("kind = %v, want %v", multiple.Kind(), shared.SelectionMultiple)
	}

	if _, err := selection.For("weighted"); err == nil {
		t.Error("expected error for unknown strategy kind")
	}
}
