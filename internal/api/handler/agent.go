package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

const defaultAgentFeature = "marketAssessment"

type agentResponse struct {
	Report *models.AnalysisReport `json:"report"`
	HTML   string                 `json:"html"`
	Query  string                 `json:"query"`
	Cached bool                   `json:"cached"`
}

// NewAgentHandler returns the handler for POST /api/v1/agent/messages.
func NewAgentHandler(svc *analysis.Service, formatter *markdown.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Feature     string         `json:"feature"`
			CompanyName string         `json:"company_name"`
			Industry    string         `json:"industry"`
			Query       string         `json:"query"`
			Fields      map[string]any `json:"fields"`
			Refresh     bool           `json:"refresh"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		featureID := strings.TrimSpace(req.Feature)
		if featureID == "" {
			featureID = defaultAgentFeature
		}
		f, err := analysis.Lookup(featureID)
		if err != nil {
			writeError(w, err)
			return
		}

		fields := req.Fields
		if fields == nil {
			fields = make(map[string]any)
		}
		queryField := f.QueryField
		if queryField == "" {
			queryField = "query"
		}
		if req.Query != "" {
			fields[queryField] = req.Query
		}

		answer, err := svc.Ask(r.Context(), f.ID, models.AnalysisRequest{
			CompanyName: req.CompanyName,
			Industry:    req.Industry,
			Fields:      fields,
		}, req.Refresh, nil)
		if err != nil {
			writeError(w, err)
			return
		}

		response.JSON(w, agentResponse{
			Report: answer.Report,
			HTML:   formatter.Format(answer.Report.Result.AnalysisReport),
			Query:  answer.Query,
			Cached: answer.Cached,
		})
	}
}
