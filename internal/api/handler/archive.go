package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/bizlens/internal/api/response"
	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/store"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

const maxArchiveLimit = 200

// Archive is where generated report files are listed from.
type Archive interface {
	List(ctx context.Context, feature string, limit int) ([]models.ReportFile, error)
	Get(ctx context.Context, filename string) (*models.ReportFile, error)
}

type storeArchive struct{ s store.Store }

// StoreArchive serves the archive from Postgres.
func StoreArchive(s store.Store) Archive { return storeArchive{s: s} }

func (a storeArchive) List(ctx context.Context, feature string, limit int) ([]models.ReportFile, error) {
	files, err := a.s.ListReportFiles(ctx, store.ReportFileFilter{Feature: feature, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]models.ReportFile, len(files))
	for i, f := range files {
		out[i] = *f
	}
	return out, nil
}

func (a storeArchive) Get(ctx context.Context, filename string) (*models.ReportFile, error) {
	return a.s.GetReportFile(ctx, filename)
}

type backendArchive struct{ c backend.Client }

// BackendArchive proxies the archive to the report backend's own listing.
func BackendArchive(c backend.Client) Archive { return backendArchive{c: c} }

func (a backendArchive) List(ctx context.Context, feature string, limit int) ([]models.ReportFile, error) {
	files, err := a.c.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ReportFile, 0, len(files))
	for _, f := range files {
		if feature != "" && f.Feature != feature {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a backendArchive) Get(ctx context.Context, filename string) (*models.ReportFile, error) {
	return a.c.GetReportContent(ctx, filename)
}

// NewListArchiveHandler returns the handler for GET /api/reports.
func NewListArchiveHandler(a Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := store.DefaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxArchiveLimit {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be between 1 and 200", nil)
				return
			}
			limit = n
		}

		files, err := a.List(r.Context(), r.URL.Query().Get("feature"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		response.List(w, files, response.ListMeta{Count: len(files), Limit: limit})
	}
}

// NewReportContentHandler returns the handler for GET /api/report-content/{filename}.
func NewReportContentHandler(a Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := a.Get(r.Context(), chi.URLParam(r, "filename"))
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, f)
	}
}
