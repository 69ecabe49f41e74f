package shared

import (
	"fmt"
	"time"
)

// The codec is the only place domain values cross into the flat
// map[string]any shape the graph store works with. Encode accepts exactly
// the admissible domain types and rejects everything else; optional fields
// round-trip through key absence, and answer sets serialize in canonical
// order (answers by text, enabled-by ids by code).

const timeLayout = time.RFC3339Nano

func Encode(v any) (map[string]any, error) {
	switch t := v.(type) {
	case Question:
		return encodeQuestion(t), nil
	case ProjectQuestion:
		return encodeProjectQuestion(t), nil
	case Project:
		return encodeProject(t), nil
	case Answer:
		return encodeAnswer(t), nil
	case ProjectAnswer:
		return encodeProjectAnswer(t), nil
	}
	return nil, NotAdmissibleError{Value: v}
}

func encodeAnswer(a Answer) map[string]any {
	return map[string]any{
		"id":   a.ID.String(),
		"text": a.Text,
	}
}

func encodeProjectAnswer(a ProjectAnswer) map[string]any {
	return map[string]any{
		"id":       a.ID.String(),
		"text":     a.Text,
		"selected": a.Selected,
	}
}

func encodeQuestion(q Question) map[string]any {
	answers := make([]any, 0, len(q.AvailableAnswers))
	for _, a := range SortAnswers(q.AvailableAnswers) {
		answers = append(answers, encodeAnswer(a))
	}
	enabledBy := make([]any, 0, len(q.EnabledBy))
	for _, id := range SortAnswerIDs(q.EnabledBy) {
		enabledBy = append(enabledBy, id.String())
	}
	m := map[string]any{
		"id":                q.ID.String(),
		"text":              q.Text,
		"type":              string(q.Type),
		"available_answers": answers,
		"enabled_by":        enabledBy,
		"created_at":        q.CreatedAt.UTC().Format(timeLayout),
	}
	if q.PreviousQuestionID != "" {
		m["previous_question_id"] = q.PreviousQuestionID.String()
	}
	if q.ActionNeeded != "" {
		m["action_needed"] = string(q.ActionNeeded)
	}
	return m
}

func encodeProjectQuestion(q ProjectQuestion) map[string]any {
	answers := make([]any, 0, len(q.Answers))
	for _, a := range SortProjectAnswers(q.Answers) {
		answers = append(answers, encodeProjectAnswer(a))
	}
	m := map[string]any{
		"id":                 q.ID.String(),
		"text":               q.Text,
		"type":               string(q.Type),
		"selection_strategy": string(q.Strategy),
		"answers":            answers,
		"created_at":         q.CreatedAt.UTC().Format(timeLayout),
	}
	if q.PreviousQuestionID != "" {
		m["previous_question_id"] = q.PreviousQuestionID.String()
	}
	return m
}

func encodeProject(p Project) map[string]any {
	return map[string]any{
		"id":   p.ID.String(),
		"name": p.Name,
	}
}

func DecodeAnswer(m map[string]any) (Answer, error) {
	id, err := stringField(m, "id")
	if err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}
	text, err := stringField(m, "text")
	if err != nil {
		return Answer{}, fmt.Errorf("decode answer: %w", err)
	}
	return Answer{ID: AnswerID(id), Text: text}, nil
}

func DecodeProjectAnswer(m map[string]any) (ProjectAnswer, error) {
	id, err := stringField(m, "id")
	if err != nil {
		return ProjectAnswer{}, fmt.Errorf("decode project answer: %w", err)
	}
	text, err := stringField(m, "text")
	if err != nil {
		return ProjectAnswer{}, fmt.Errorf("decode project answer: %w", err)
	}
	selected, _ := m["selected"].(bool)
	return ProjectAnswer{ID: AnswerID(id), Text: text, Selected: selected}, nil
}

func DecodeQuestion(m map[string]any) (Question, error) {
	id, err := stringField(m, "id")
	if err != nil {
		return Question{}, fmt.Errorf("decode question: %w", err)
	}
	text, err := stringField(m, "text")
	if err != nil {
		return Question{}, fmt.Errorf("decode question %q: %w", id, err)
	}
	rawType, err := stringField(m, "type")
	if err != nil {
		return Question{}, fmt.Errorf("decode question %q: %w", id, err)
	}
	questionType, err := ParseQuestionType(rawType)
	if err != nil {
		return Question{}, fmt.Errorf("decode question %q: %w", id, err)
	}
	createdAt, err := timeField(m, "created_at")
	if err != nil {
		return Question{}, fmt.Errorf("decode question %q: %w", id, err)
	}

	answerMaps, err := listField(m, "available_answers")
	if err != nil {
		return Question{}, fmt.Errorf("decode question %q: %w", id, err)
	}
	answers := make([]Answer, 0, len(answerMaps))
	for _, raw := range answerMaps {
		am, ok := raw.(map[string]any)
		if !ok {
			return Question{}, fmt.Errorf("decode question %q: available answer is not a map", id)
		}
		a, err := DecodeAnswer(am)
		if err != nil {
			return Question{}, fmt.Errorf("decode question %q: %w", id, err)
		}
		answers = append(answers, a)
	}

	var enabledBy []AnswerID
	if raw, ok := m["enabled_by"]; ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			return Question{}, fmt.Errorf("decode question %q: enabled_by is not a list", id)
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return Question{}, fmt.Errorf("decode question %q: enabled_by entry is not a string", id)
			}
			enabledBy = append(enabledBy, AnswerID(s))
		}
	}

	q := Question{
		ID:               QuestionID(id),
		Text:             text,
		Type:             questionType,
		AvailableAnswers: answers,
		EnabledBy:        enabledBy,
		CreatedAt:        createdAt,
	}
	if prev, ok := m["previous_question_id"].(string); ok && prev != "" {
		q.PreviousQuestionID = QuestionID(prev)
	}
	if action, ok := m["action_needed"].(string); ok && action != "" {
		parsed, err := ParseAction(action)
		if err != nil {
			return Question{}, fmt.Errorf("decode question %q: %w", id, err)
		}
		q.ActionNeeded = parsed
	}
	return q, nil
}

func DecodeProjectQuestion(m map[string]any) (ProjectQuestion, error) {
	id, err := stringField(m, "id")
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question: %w", err)
	}
	text, err := stringField(m, "text")
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}
	rawType, err := stringField(m, "type")
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}
	questionType, err := ParseQuestionType(rawType)
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}
	rawStrategy, err := stringField(m, "selection_strategy")
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}
	strategy, err := ParseSelectionKind(rawStrategy)
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}
	createdAt, err := timeField(m, "created_at")
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}

	answerMaps, err := listField(m, "answers")
	if err != nil {
		return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
	}
	answers := make([]ProjectAnswer, 0, len(answerMaps))
	for _, raw := range answerMaps {
		am, ok := raw.(map[string]any)
		if !ok {
			return ProjectQuestion{}, fmt.Errorf("decode project question %q: answer is not a map", id)
		}
		a, err := DecodeProjectAnswer(am)
		if err != nil {
			return ProjectQuestion{}, fmt.Errorf("decode project question %q: %w", id, err)
		}
		answers = append(answers, a)
	}

	q := ProjectQuestion{
		ID:        QuestionID(id),
		Text:      text,
		Type:      questionType,
		Strategy:  strategy,
		Answers:   answers,
		CreatedAt: createdAt,
	}
	if prev, ok := m["previous_question_id"].(string); ok && prev != "" {
		q.PreviousQuestionID = QuestionID(prev)
	}
	return q, nil
}

func DecodeProject(m map[string]any) (Project, error) {
	id, err := stringField(m, "id")
	if err != nil {
		return Project{}, fmt.Errorf("decode project: %w", err)
	}
	name, err := stringField(m, "name")
	if err != nil {
		return Project{}, fmt.Errorf("decode project %q: %w", id, err)
	}
	return Project{ID: ProjectID(id), Name: name}, nil
}

func stringField(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return s, nil
}

func listField(m map[string]any, key string) ([]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not a list", key)
	}
	return items, nil
}

func timeField(m map[string]any, key string) (time.Time, error) {
	s, err := stringField(m, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q is not a timestamp: %w", key, err)
	}
	return t, nil
}
