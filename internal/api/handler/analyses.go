package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/kiranshivaraju/bizlens/internal/pdf"
	"github.com/kiranshivaraju/bizlens/internal/reports"
	"github.com/kiranshivaraju/bizlens/internal/storage"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// ExportURLHeader carries the archived object URL of an exported PDF.
const ExportURLHeader = "X-Export-URL"

// Analyses serves the per-feature submission and report-cache routes.
type Analyses struct {
	svc       *analysis.Service
	formatter *markdown.Formatter
	exporter  *pdf.Exporter
	exports   storage.ExportStore
	now       func() time.Time
}

// NewAnalyses builds the handlers. exports may be nil when no bucket is configured.
func NewAnalyses(svc *analysis.Service, formatter *markdown.Formatter, exporter *pdf.Exporter, exports storage.ExportStore) *Analyses {
	return &Analyses{svc: svc, formatter: formatter, exporter: exporter, exports: exports, now: time.Now}
}

type reportResponse struct {
	Report *models.AnalysisReport `json:"report"`
	HTML   string                 `json:"html"`
}

type currentResponse struct {
	Current *models.CurrentReport  `json:"current"`
	HTML    string                 `json:"html"`
	Form    models.AnalysisRequest `json:"form"`
}

// Submit handles POST /api/v1/analyses/{feature}.
func (a *Analyses) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}

	report, err := a.svc.Submit(r.Context(), chi.URLParam(r, "feature"), req, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, reportResponse{Report: report, HTML: a.formatter.Format(report.Result.AnalysisReport)})
}

// ListReports handles GET /api/v1/analyses/{feature}/reports.
func (a *Analyses) ListReports(w http.ResponseWriter, r *http.Request) {
	rc, err := a.svc.Reports(chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := rc.LoadRecent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.List(w, list, response.ListMeta{Count: len(list), Limit: reports.MaxRecent})
}

// ClearReports handles DELETE /api/v1/analyses/{feature}/reports.
func (a *Analyses) ClearReports(w http.ResponseWriter, r *http.Request) {
	sess, err := a.svc.Session(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	response.NoContent(w)
}

// GetCurrent handles GET /api/v1/analyses/{feature}/current.
func (a *Analyses) GetCurrent(w http.ResponseWriter, r *http.Request) {
	sess, err := a.svc.Session(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	cur, err := sess.Reports().LoadCurrent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cur == nil {
		response.Error(w, http.StatusNotFound, "NO_CURRENT_REPORT", "No report is currently loaded", nil)
		return
	}
	response.JSON(w, a.current(sess, cur))
}

// NewAnalysis handles DELETE /api/v1/analyses/{feature}/current.
func (a *Analyses) NewAnalysis(w http.ResponseWriter, r *http.Request) {
	sess, err := a.svc.Session(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.NewAnalysis(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, map[string]any{"form": sess.Form()})
}

// LoadSaved handles PUT /api/v1/analyses/{feature}/current/{reportID}.
func (a *Analyses) LoadSaved(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	sess, err := a.svc.Session(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	cur, err := sess.LoadSaved(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, a.current(sess, cur))
}

// ExportPDF handles GET /api/v1/analyses/{feature}/reports/{reportID}/pdf.
// The id "current" exports whatever is in the current slot.
func (a *Analyses) ExportPDF(w http.ResponseWriter, r *http.Request) {
	sess, err := a.svc.Session(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, err)
		return
	}
	f := sess.Feature()

	var (
		text string
		req  models.AnalysisRequest
	)
	if chi.URLParam(r, "reportID") == "current" {
		cur, err := sess.Reports().LoadCurrent(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if cur == nil {
			response.Error(w, http.StatusNotFound, "NO_CURRENT_REPORT", "No report is currently loaded", nil)
			return
		}
		text, req = cur.Result.AnalysisReport, cur.Inputs
	} else {
		id, ok := reportID(w, r)
		if !ok {
			return
		}
		saved, err := sess.Reports().Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		text, req = saved.Result.AnalysisReport, saved.Inputs
	}

	var buf bytes.Buffer
	res, err := a.exporter.Export(&buf, text, pdf.Metadata{
		Title:       f.Title,
		Company:     req.CompanyName,
		Industry:    req.Industry,
		ReportType:  f.ReportType,
		GeneratedAt: a.now(),
	}, f.Theme)
	if err != nil {
		writeError(w, err)
		return
	}

	if a.exports != nil {
		url, err := a.exports.PutExport(r.Context(), f.ID, res.Filename, buf.Bytes())
		if err != nil {
			slog.Warn("archiving pdf export failed", "feature", f.ID, "filename", res.Filename, "error", err)
		} else {
			w.Header().Set(ExportURLHeader, url)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Page-Count", strconv.Itoa(res.Pages))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing pdf response failed", "error", err)
	}
}

func (a *Analyses) current(sess *analysis.Session, cur *models.CurrentReport) currentResponse {
	return currentResponse{
		Current: cur,
		HTML:    a.formatter.Format(cur.Result.AnalysisReport),
		Form:    sess.Form(),
	}
}

func reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reportID"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "reportID must be an integer", nil)
		return 0, false
	}
	return id, true
}
