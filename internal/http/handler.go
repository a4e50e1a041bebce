package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/davidbz/forge/internal/domain"
	"github.com/davidbz/forge/internal/observability"
)

// Request and response headers.
const (
	HeaderAccountID = "X-Account-Id"
	HeaderVerified  = "X-Forge-Verified"

	maxRequestBytes = 1 << 20
)

// CodeGenerator runs the generation pipeline.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerateCodeResponse, error)
}

// UsageReader reads an account's running usage total.
type UsageReader interface {
	CurrentPeriod(ctx context.Context, accountID string) (*domain.PeriodTotal, error)
}

// Handler handles HTTP requests.
type Handler struct {
	pipeline CodeGenerator
	usage    UsageReader
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(pipeline *domain.PipelineService, usage *domain.UsageAccountant) *Handler {
	if usage == nil {
		return NewHandlerWith(pipeline, nil)
	}
	return NewHandlerWith(pipeline, usage)
}

// NewHandlerWith creates a handler over arbitrary implementations.
func NewHandlerWith(pipeline CodeGenerator, usage UsageReader) *Handler {
	return &Handler{pipeline: pipeline, usage: usage}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleGenerate runs one pipeline execution. An exhausted repair loop is
// still a 200; X-Forge-Verified tells callers whether the code compiled.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req.AccountID = r.Header.Get(HeaderAccountID)
	req.AuthToken = bearerToken(r.Header.Get("Authorization"))
	req.RequestID = observability.GetRequestID(ctx)

	ctx = observability.WithModel(observability.WithDialect(ctx, req.Dialect), req.Model)
	logger := observability.FromContext(ctx)
	logger.Info("generation request received",
		observability.Int("prompt_chars", len(req.UserPrompt)),
		observability.Bool("has_current_code", req.CurrentCode != ""))

	resp, err := h.pipeline.GenerateCode(ctx, &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error("generation failed", observability.Error(err))
		} else {
			logger.Info("generation rejected", observability.Error(err))
		}
		writeError(ctx, w, status, err.Error())
		return
	}

	logger.Info("generation succeeded",
		observability.String("status", resp.Verification.Status),
		observability.Int("fix_attempts", resp.FixAttempts),
		observability.Int("input_tokens", resp.Usage.InputTokens),
		observability.Int("output_tokens", resp.Usage.OutputTokens))

	w.Header().Set(HeaderVerified, strconv.FormatBool(resp.Verification.Succeeded()))
	writeJSON(ctx, w, http.StatusOK, resp)
}

// HandleUsage returns the caller's running total for the current period.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.usage == nil {
		writeError(ctx, w, http.StatusNotFound, "usage tracking is disabled")
		return
	}

	total, err := h.usage.CurrentPeriod(ctx, r.Header.Get(HeaderAccountID))
	if errors.Is(err, domain.ErrUsageStoreDisabled) {
		writeError(ctx, w, http.StatusNotFound, "usage tracking is disabled")
		return
	}
	if err != nil {
		observability.FromContext(ctx).Error("usage lookup failed", observability.Error(err))
		writeError(ctx, w, http.StatusInternalServerError, "usage lookup failed")
		return
	}

	writeJSON(ctx, w, http.StatusOK, total)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "healthy"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownDialect):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGenerationFailed), errors.Is(err, domain.ErrPromptUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return header
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, errorResponse{Error: message, RequestID: observability.GetRequestID(ctx)})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
