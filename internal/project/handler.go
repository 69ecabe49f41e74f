package project

import (
	"context"
	"net/http"

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

type Request struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
}

type Response struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CandidateIDResponse struct {
	ID string `json:"id"`
}

func ToResponse(p shared.Project) Response {
	return Response{
		ID:   p.ID.String(),
		Name: p.Name,
	}
}

type Store interface {
	GetAll(ctx context.Context) ([]shared.Project, error)
	GetByID(ctx context.Context, id shared.ProjectID) (shared.Project, error)
	Add(ctx context.Context, project shared.Project) error
	Update(ctx context.Context, id shared.ProjectID, project shared.Project) error
	Delete(ctx context.Context, id shared.ProjectID) error
	NewCandidateID(ctx context.Context) (shared.ProjectID, error)
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
		tracer:        otel.Tracer("project/handler"),
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

	projects, err := h.store.GetAll(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	response := make([]Response, 0, len(projects))
	for _, p := range projects {
		response = append(response, ToResponse(p))
	}
	handlerutil.WriteJSONResponse(w, http.StatusOK, response)
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id := shared.ProjectID(r.PathValue("projectId"))
	p, err := h.store.GetByID(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(p))
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

	id := shared.ProjectID(req.ID)
	if id == "" {
		candidate, err := h.store.NewCandidateID(traceCtx)
		if err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
		id = candidate
	}

	p := shared.Project{
		ID:   id,
		Name: internal.SanitizeText(h.sanitizer, req.Name),
	}
	if err := h.store.Add(traceCtx, p); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, ToResponse(p))
}

func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id := shared.ProjectID(r.PathValue("projectId"))

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	// The body must carry the full replacement project, id included; the
	// service rejects any mismatch against the path id.
	p := shared.Project{
		ID:   shared.ProjectID(req.ID),
		Name: internal.SanitizeText(h.sanitizer, req.Name),
	}
	if err := h.store.Update(traceCtx, id, p); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(p))
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id := shared.ProjectID(r.PathValue("projectId"))
	if err := h.store.Delete(traceCtx, id); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
