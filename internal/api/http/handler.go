package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/veranemoloko/magnet-dispatch/internal/domain"
	"github.com/veranemoloko/magnet-dispatch/internal/errs"
	"github.com/veranemoloko/magnet-dispatch/internal/service"
	"github.com/veranemoloko/magnet-dispatch/internal/storage"
	"github.com/veranemoloko/magnet-dispatch/internal/validation"
)

// PipelineI defines the dispatch pipeline surface the handlers call.
type PipelineI interface {
	ValidateAndDispatch(ctx context.Context, raw string, meta service.ClientMeta) service.Outcome
	LookupJob(jobID string) (*domain.JobRecord, error)
}

// SubmissionHandler handles HTTP requests for submissions and job lookups.
type SubmissionHandler struct {
	pipeline  PipelineI
	validator *validator.Validate
	logger    *slog.Logger
}

// NewSubmissionHandler creates a SubmissionHandler with the provided
// pipeline and logger.
func NewSubmissionHandler(pipeline PipelineI, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		pipeline:  pipeline,
		validator: validator.New(),
		logger:    logger,
	}
}

// Submit handles POST /submissions.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body", nil)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "bad_request", "input is required and must be at most 4096 characters", nil)
		return
	}

	meta := service.ClientMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}

	outcome := h.pipeline.ValidateAndDispatch(r.Context(), strings.TrimSpace(req.Input), meta)

	switch {
	case outcome.Accepted():
		writeJSON(w, http.StatusCreated, domain.SubmitResponse{
			JobID:     outcome.Job.JobID,
			Type:      outcome.Job.Type,
			Status:    outcome.Job.Status,
			Duplicate: outcome.Job.Duplicate,
			CreatedAt: outcome.Job.CreatedAt,
		})

	case len(outcome.Rejected) > 0:
		writeError(w, http.StatusBadRequest, "validation", "submission rejected",
			validation.Strings(outcome.Rejected))

	default:
		kind := errs.KindOf(outcome.Err)
		writeError(w, statusForKind(kind), string(kind), errs.MessageOf(outcome.Err), nil)
	}
}

// GetJob handles GET /jobs/{jobID}.
func (h *SubmissionHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	rec, err := h.pipeline.LookupJob(jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "job not found", nil)
			return
		}
		h.logger.Error("failed to look up job", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// clientIP returns the best-effort client address; the RealIP middleware
// has already folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.KindAuth, errs.KindRejected, errs.KindDownloader:
		return http.StatusBadGateway
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	case errs.KindTimeout:
		return http.StatusGatewayTimeout
	case errs.KindContentUnavailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string, reasons []string) {
	writeJSON(w, status, domain.ErrorResponse{
		Kind:    kind,
		Message: message,
		Reasons: reasons,
	})
}
