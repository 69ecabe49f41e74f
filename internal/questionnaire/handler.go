package questionnaire

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"devlift/questionnaire-backend/internal/questionnaire/shared"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type AnswerRequest struct {
	AnswerID string `json:"answerId" validate:"required"`
	Selected *bool  `json:"selected" validate:"required"`
}

type AnswerPayload struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

type Response struct {
	ID                 string          `json:"id"`
	Text               string          `json:"text"`
	Type               string          `json:"type"`
	SelectionStrategy  string          `json:"selectionStrategy"`
	Answers            []AnswerPayload `json:"answers"`
	PreviousQuestionID string          `json:"previousQuestionId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

var questionTypeToAPI = map[shared.QuestionType]string{
	shared.QuestionTypeBoolean:  "BOOLEAN",
	shared.QuestionTypeSingle:   "SINGLE_CHOICE",
	shared.QuestionTypeMultiple: "MULTIPLE_CHOICE",
	shared.QuestionTypeRating:   "RATING",
}

var selectionKindToAPI = map[shared.SelectionKind]string{
	shared.SelectionSingle:   "SINGLE",
	shared.SelectionMultiple: "MULTIPLE",
}

func ToResponse(q shared.ProjectQuestion) Response {
	answers := make([]AnswerPayload, 0, len(q.Answers))
	for _, a := range shared.SortProjectAnswers(q.Answers) {
		answers = append(answers, AnswerPayload{
			ID:       a.ID.String(),
			Text:     a.Text,
			Selected: a.Selected,
		})
	}
	return Response{
		ID:                 q.ID.String(),
		Text:               q.Text,
		Type:               questionTypeToAPI[q.Type],
		SelectionStrategy:  selectionKindToAPI[q.Strategy],
		Answers:            answers,
		PreviousQuestionID: q.PreviousQuestionID.String(),
		CreatedAt:          q.CreatedAt,
	}
}

type Store interface {
	GetNth(ctx context.Context, projectID shared.ProjectID, n int) (shared.ProjectQuestion, error)
	SetAnswer(ctx context.Context, projectID shared.ProjectID, n int, answerID shared.AnswerID, selected bool) (shared.ProjectQuestion, error)
	DeleteFrom(ctx context.Context, projectID shared.ProjectID, n int) error
	Reset(ctx context.Context, projectID shared.ProjectID) error
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	store Store
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	store Store,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("questionnaire/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) GetNthHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetNthHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	projectID := shared.ProjectID(r.PathValue("projectId"))
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	question, err := h.store.GetNth(traceCtx, projectID, index)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(question))
}

func (h *Handler) SetAnswerHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SetAnswerHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	projectID := shared.ProjectID(r.PathValue("projectId"))
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req AnswerRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	question, err := h.store.SetAnswer(traceCtx, projectID, index, shared.AnswerID(req.AnswerID), *req.Selected)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(question))
}

func (h *Handler) DeleteNthHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteNthHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	projectID := shared.ProjectID(r.PathValue("projectId"))
	index, err := parseIndex(r.PathValue("index"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.store.DeleteFrom(traceCtx, projectID, index); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ResetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	projectID := shared.ProjectID(r.PathValue("projectId"))
	if err := h.store.Reset(traceCtx, projectID); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil || index < 1 {
		return 0, InvalidPositionError{Value: raw}
	}
	return index, nil
}
