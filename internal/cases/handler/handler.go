// Package handler exposes the case API over HTTP: case creation, lookup,
// listing, and asynchronous pipeline runs.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"calibra/internal/cases"
	"calibra/internal/cases/service"
	domainerrors "calibra/pkg/domain-errors"
)

// Service is the case operations surface the handler needs.
type Service interface {
	Create(ctx context.Context, input service.CreateInput) (cases.Case, error)
	Get(ctx context.Context, id string) (cases.Case, error)
	List(ctx context.Context) ([]cases.Case, error)
	StartRun(ctx context.Context, caseID string) error
}

// Handler handles case endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a case Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the case routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Use(middleware.RequestID)
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{caseID}", h.handleGet)
		r.Post("/{caseID}/run", h.handleRun)
	})
}

type createRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Config      map[string]any    `json:"config"`
	Files       map[string]string `json:"files"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domainerrors.New(domainerrors.CodeValidation, "invalid request body"))
		return
	}

	c, err := h.service.Create(ctx, service.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		TimeRange:   cases.TimeRange{Start: req.Start, End: req.End},
		Config:      req.Config,
		Files:       req.Files,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	listed, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if listed == nil {
		listed = []cases.Case{}
	}
	h.writeJSON(w, http.StatusOK, listed)
}

// handleRun claims the case and starts the pipeline in the background. A
// case that is already running, or not in a runnable state, yields 409.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if err := h.service.StartRun(r.Context(), caseID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{
		"case_id": caseID,
		"status":  "started",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError translates domain error codes to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeValidation, domainerrors.CodeParse:
		status = http.StatusBadRequest
	case domainerrors.CodeNotFound:
		status = http.StatusNotFound
	case domainerrors.CodeConflict:
		status = http.StatusConflict
	case domainerrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	case domainerrors.CodeDataSource, domainerrors.CodeConsistency, domainerrors.CodeInternal:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	message := err.Error()
	var derr *domainerrors.Error
	if errors.As(err, &derr) {
		message = derr.Message
	}
	h.writeJSON(w, status, errorResponse{Code: string(domainerrors.CodeOf(err)), Message: message})
}
