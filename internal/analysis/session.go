package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/kiranshivaraju/bizlens/internal/reports"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// Session is the per-feature form state plus its report cache. The form
// always mirrors what the current slot shows.
type Session struct {
	feature Feature
	reports *reports.Cache

	mu   sync.Mutex
	form models.AnalysisRequest
}

// Session returns the session for featureID. A new session takes its form
// from the stored current report, or the feature defaults when there is none.
func (s *Service) Session(ctx context.Context, featureID string) (*Session, error) {
	f, err := Lookup(featureID)
	if err != nil {
		return nil, err
	}
	return s.session(ctx, f), nil
}

func (s *Service) session(ctx context.Context, f Feature) *Session {
	s.mu.Lock()
	sess, ok := s.sessions[f.ID]
	s.mu.Unlock()
	if ok {
		return sess
	}

	fresh := &Session{feature: f, reports: reports.New(s.cache, f.ID), form: Defaults(f)}
	cur, err := fresh.reports.LoadCurrent(ctx)
	if err != nil {
		slog.Warn("restoring form from current report failed", "feature", f.ID, "error", err)
	}
	if cur != nil {
		fresh.form = cloneRequest(cur.Inputs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[f.ID]; ok {
		return sess
	}
	s.sessions[f.ID] = fresh
	return fresh
}

func (s *Session) Feature() Feature { return s.feature }

func (s *Session) Reports() *reports.Cache { return s.reports }

// Form returns a copy of the form state.
func (s *Session) Form() models.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRequest(s.form)
}

func (s *Session) SetForm(req models.AnalysisRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = cloneRequest(req)
}

func (s *Session) resetForm() {
	s.SetForm(Defaults(s.feature))
}

// NewAnalysis empties the current slot and resets the form. Saved reports stay.
func (s *Session) NewAnalysis(ctx context.Context) error {
	if err := s.reports.ClearCurrent(ctx); err != nil {
		return err
	}
	s.resetForm()
	return nil
}

// ClearAll removes every saved report and the current slot, then resets the form.
func (s *Session) ClearAll(ctx context.Context) error {
	if err := s.reports.ClearAll(ctx); err != nil {
		return err
	}
	s.resetForm()
	return nil
}

// LoadSaved puts a saved report back on screen: it overwrites the current
// slot and restores the inputs it was generated from.
func (s *Session) LoadSaved(ctx context.Context, id int64) (*models.CurrentReport, error) {
	r, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading saved report %d: %w", id, err)
	}
	cur := r.Current()
	if err := s.reports.SaveCurrent(ctx, cur); err != nil {
		return nil, err
	}
	s.SetForm(r.Inputs)
	return &cur, nil
}

func cloneRequest(req models.AnalysisRequest) models.AnalysisRequest {
	out := req
	out.Fields = maps.Clone(req.Fields)
	for k, v := range out.Fields {
		if list, ok := v.([]string); ok {
			out.Fields[k] = slices.Clone(list)
		}
	}
	return out
}
