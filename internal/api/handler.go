// Package api provides the HTTP surface of the EM workflow.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/avi3tal/emflow/internal/timesheet"
)

// Processor runs workflow turns.
type Processor interface {
	Start(ctx context.Context, userID, query string) (*timesheet.StepResult, error)
	Resume(ctx context.Context, userID string, payload timesheet.ResumePayload) (*timesheet.StepResult, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EMRequest is the body of POST /process. An initial request starts a thread
// from Query; any other request carries exactly one answer.
type EMRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Query     string `json:"query,omitempty"`
	IsInitial *bool  `json:"is_initial,omitempty"`
	timesheet.ResumePayload
}

func (r EMRequest) initial() bool {
	return r.IsInitial == nil || *r.IsInitial
}

// EMResponse is the body of every successful POST /process.
type EMResponse struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler serves the workflow endpoints.
type Handler struct {
	proc     Processor
	health   Pinger
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a Handler. health may be nil.
func NewHandler(proc Processor, health Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		proc:     proc,
		health:   health,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Process handles POST /process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req EMRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var (
		res *timesheet.StepResult
		err error
	)
	if req.initial() {
		res, err = h.proc.Start(ctx, req.UserID, req.Query)
	} else {
		res, err = h.proc.Resume(ctx, req.UserID, req.ResumePayload)
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(ctx, "process failed", "user_id", req.UserID, "request_id", reqID, "error", err)
		} else {
			h.logger.InfoContext(ctx, "process rejected", "user_id", req.UserID, "request_id", reqID, "error", err)
		}
		Error(w, status, err.Error())
		return
	}

	JSON(w, http.StatusOK, EMResponse{
		Status:    res.Status,
		Data:      res.Data,
		Message:   res.Message,
		RequestID: reqID,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "error", err)
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case timesheet.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, timesheet.ErrUnknownThread):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
