package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
)

// NewFeaturesHandler returns the handler for GET /api/v1/features: every
// analysis type with its form schema and phase script.
func NewFeaturesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		features := analysis.Features()
		response.List(w, features, response.ListMeta{Count: len(features)})
	}
}

// NewRenderHandler returns the handler for POST /api/v1/render.
func NewRenderHandler(f *markdown.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		response.JSON(w, map[string]string{"html": f.Format(req.Text)})
	}
}
