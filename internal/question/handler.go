package question

import (
	"context"
	"net/http"
	"time"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/questionnaire/shared"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type AnswerPayload struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type Request struct {
	ID                 string          `json:"id"`
	Text               string          `json:"text" validate:"required"`
	Type               string          `json:"type" validate:"required,oneof=BOOLEAN SINGLE_CHOICE MULTIPLE_CHOICE RATING"`
	Answers            []AnswerPayload `json:"answers" validate:"required,min=1,dive"`
	PreviousQuestionID string          `json:"previousQuestionId,omitempty"`
	EnabledBy          []string        `json:"enabledBy,omitempty"`
	ActionNeeded       string          `json:"actionNeeded,omitempty" validate:"omitempty,oneof=METRICS_CHECK"`
}

type Response struct {
	ID                 string          `json:"id"`
	Text               string          `json:"text"`
	Type               string          `json:"type"`
	Answers            []AnswerPayload `json:"answers"`
	PreviousQuestionID string          `json:"previousQuestionId,omitempty"`
	EnabledBy          []string        `json:"enabledBy,omitempty"`
	ActionNeeded       string          `json:"actionNeeded,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

type CandidateIDResponse struct {
	ID string `json:"id"`
}

// API type names to domain enum values and back. The wire enum uses the
// storage values; the API speaks upper-case names like the rest of the API
// surface.
var apiToQuestionType = map[string]shared.QuestionType{
	"BOOLEAN":         shared.QuestionTypeBoolean,
	"SINGLE_CHOICE":   shared.QuestionTypeSingle,
	"MULTIPLE_CHOICE": shared.QuestionTypeMultiple,
	"RATING":          shared.QuestionTypeRating,
}

var questionTypeToAPI = map[shared.QuestionType]string{
	shared.QuestionTypeBoolean:  "BOOLEAN",
	shared.QuestionTypeSingle:   "SINGLE_CHOICE",
	shared.QuestionTypeMultiple: "MULTIPLE_CHOICE",
	shared.QuestionTypeRating:   "RATING",
}

func ToResponse(q shared.Question) Response {
	answers := make([]AnswerPayload, 0, len(q.AvailableAnswers))
	for _, a := range shared.SortAnswers(q.AvailableAnswers) {
		answers = append(answers, AnswerPayload{ID: a.ID.String(), Text: a.Text})
	}
	var enabledBy []string
	for _, id := range shared.SortAnswerIDs(q.EnabledBy) {
		enabledBy = append(enabledBy, id.String())
	}
	response := Response{
		ID:                 q.ID.String(),
		Text:               q.Text,
		Type:               questionTypeToAPI[q.Type],
		Answers:            answers,
		PreviousQuestionID: q.PreviousQuestionID.String(),
		EnabledBy:          enabledBy,
		CreatedAt:          q.CreatedAt,
	}
	if q.ActionNeeded == shared.ActionMetricsCheck {
		response.ActionNeeded = "METRICS_CHECK"
	}
	return response
}

type Store interface {
	GetAll(ctx context.Context) ([]shared.Question, error)
	GetByID(ctx context.Context, id shared.QuestionID) (shared.Question, error)
	Add(ctx context.Context, question shared.Question) error
	Update(ctx context.Context, id shared.QuestionID, question shared.Question) error
	Delete(ctx context.Context, id shared.QuestionID) error
	GetLastInserted(ctx context.Context) (shared.Question, error)
	NewCandidateID(ctx context.Context) (shared.QuestionID, error)
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter
	sanitizer     *bluemonday.Policy

	store Store
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	sanitizer *bluemonday.Policy,
	store Store,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("question/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		sanitizer:     sanitizer,
		store:         store,
	}
}

func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	questions, err := h.store.GetAll(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	response := make([]Response, 0, len(questions))
	for _, q := range questions {
		response = append(response, ToResponse(q))
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, response)
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id := shared.QuestionID(r.PathValue("questionId"))
	q, err := h.store.GetByID(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(q))
}

func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	id := shared.QuestionID(req.ID)
	if id == "" {
		candidate, err := h.store.NewCandidateID(traceCtx)
		if err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
		id = candidate
	}

	q, err := h.toQuestion(id, req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.store.Add(traceCtx, q); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, ToResponse(q))
}

func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id := shared.QuestionID(r.PathValue("questionId"))

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	// The body must carry the full replacement question, id included; the
	// service rejects any mismatch against the path id.
	q, err := h.toQuestion(shared.QuestionID(req.ID), req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.store.Update(traceCtx, id, q); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(q))
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id := shared.QuestionID(r.PathValue("questionId"))
	if err := h.store.Delete(traceCtx, id); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LastInsertedHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "LastInsertedHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	q, err := h.store.GetLastInserted(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(q))
}

func (h *Handler) NewCandidateIDHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "NewCandidateIDHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	candidate, err := h.store.NewCandidateID(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, CandidateIDResponse{ID: candidate.String()})
}

func (h *Handler) toQuestion(id shared.QuestionID, req Request) (shared.Question, error) {
	questionType, ok := apiToQuestionType[req.Type]
	if !ok {
		return shared.Question{}, shared.UnsupportedQuestionTypeError{Value: req.Type}
	}

	answers := make([]shared.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, shared.Answer{
			ID:   shared.AnswerID(a.ID),
			Text: internal.SanitizeText(h.sanitizer, a.Text),
		})
	}
	var enabledBy []shared.AnswerID
	for _, answerID := range req.EnabledBy {
		enabledBy = append(enabledBy, shared.AnswerID(answerID))
	}

	q := shared.Question{
		ID:                 id,
		Text:               internal.SanitizeText(h.sanitizer, req.Text),
		Type:               questionType,
		AvailableAnswers:   answers,
		PreviousQuestionID: shared.QuestionID(req.PreviousQuestionID),
		EnabledBy:          enabledBy,
		CreatedAt:          time.Now().UTC(),
	}
	if req.ActionNeeded == "METRICS_CHECK" {
		q.ActionNeeded = shared.ActionMetricsCheck
	}
	return q, nil
}
