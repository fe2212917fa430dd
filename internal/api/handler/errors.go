package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/bizlens/internal/agent"
	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/pdf"
	"github.com/kiranshivaraju/bizlens/internal/reports"
	"github.com/kiranshivaraju/bizlens/internal/store"
)

// writeError maps domain errors onto the error envelope.
func writeError(w http.ResponseWriter, err error) {
	var ve *analysis.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Error(w, http.StatusBadRequest, "VALIDATION_FAILED", ve.Message,
			map[string]string{"field": ve.Field})
	case errors.Is(err, analysis.ErrUnknownFeature):
		response.Error(w, http.StatusNotFound, "UNKNOWN_FEATURE", "Unknown analysis type", nil)
	case errors.Is(err, analysis.ErrSubmissionInFlight):
		response.Error(w, http.StatusConflict, "SUBMISSION_IN_FLIGHT",
			"An analysis of this type is already in progress", nil)
	case errors.Is(err, reports.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, backend.ErrReportNotFound):
		response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "Report not found", nil)
	case errors.Is(err, backend.ErrBackendTimeout), errors.Is(err, agent.ErrResponseTimeout):
		response.Error(w, http.StatusGatewayTimeout, "BACKEND_TIMEOUT", backend.FallbackMessage, nil)
	case errors.Is(err, analysis.ErrAgentUnavailable),
		errors.Is(err, agent.ErrNotConnected),
		errors.Is(err, agent.ErrClosed):
		response.Error(w, http.StatusServiceUnavailable, "AGENT_UNAVAILABLE",
			"The analysis agent is not connected", nil)
	case errors.Is(err, agent.ErrAgentError):
		response.Error(w, http.StatusBadGateway, "BACKEND_ERROR", agentMessage(err), nil)
	case errors.Is(err, backend.ErrBackendRejected),
		errors.Is(err, backend.ErrBackendUnreachable),
		errors.Is(err, backend.ErrInvalidResponse):
		response.Error(w, http.StatusBadGateway, "BACKEND_ERROR", backend.UserMessage(err), nil)
	case errors.Is(err, pdf.ErrGenerateFailed):
		response.Error(w, http.StatusInternalServerError, "PDF_GENERATION_FAILED",
			"Failed to generate PDF", nil)
	case errors.Is(err, context.Canceled):
		response.Error(w, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request was cancelled", nil)
	default:
		slog.Error("unhandled request error", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}

// agentMessage strips the sentinel prefix from an agent error reply.
func agentMessage(err error) string {
	if msg, ok := strings.CutPrefix(err.Error(), agent.ErrAgentError.Error()+": "); ok && msg != "" {
		return msg
	}
	return backend.FallbackMessage
}
