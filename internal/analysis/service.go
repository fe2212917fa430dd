// Package analysis owns the analysis types, their form schemas and the
// submission lifecycle: validate, play the canned steps, call the backend,
// then seed the report cache.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/cache"
	"github.com/kiranshivaraju/bizlens/internal/pdf"
	"github.com/kiranshivaraju/bizlens/internal/phase"
	"github.com/kiranshivaraju/bizlens/internal/reports"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

var (
	ErrSubmissionInFlight = errors.New("an analysis is already in progress")
	ErrAgentUnavailable   = errors.New("agent socket is not configured")
)

// Archive stores generated report files for later listing.
type Archive interface {
	SaveReportFile(ctx context.Context, f *models.ReportFile) error
}

// AgentSender is the socket request path.
type AgentSender interface {
	Send(ctx context.Context, msg models.AgentMessage) (*models.AgentReply, error)
}

// Service runs submissions. One submission per feature may be in flight.
type Service struct {
	backend   backend.Client
	cache     cache.Cache
	archive   Archive
	agent     AgentSender
	sleep     phase.SleepFunc
	now       func() time.Time
	observers []Observer

	mu       sync.Mutex
	machines map[string]*Machine
	sessions map[string]*Session
}

type Option func(*Service)

func WithArchive(a Archive) Option { return func(s *Service) { s.archive = a } }

func WithAgent(a AgentSender) Option { return func(s *Service) { s.agent = a } }

// WithSleep replaces the phase player's clock.
func WithSleep(fn phase.SleepFunc) Option { return func(s *Service) { s.sleep = fn } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, o) }
}

func NewService(b backend.Client, c cache.Cache, opts ...Option) *Service {
	s := &Service{
		backend:  b,
		cache:    c,
		sleep:    phase.Sleep,
		now:      time.Now,
		machines: make(map[string]*Machine),
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reports returns the report cache for a feature.
func (s *Service) Reports(featureID string) (*reports.Cache, error) {
	f, err := Lookup(featureID)
	if err != nil {
		return nil, err
	}
	return reports.New(s.cache, f.ID), nil
}

// State returns the submission state of a feature.
func (s *Service) State(featureID string) State {
	return s.machine(featureID).State()
}

func (s *Service) machine(featureID string) *Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.machines[featureID]
	if !ok {
		m = NewMachine(featureID, s.observers...)
		m.now = s.now
		s.machines[featureID] = m
	}
	return m
}

// Submit validates req, plays the canned steps into sink while the backend
// call runs, and on success saves the report to the recent list and the
// current slot. sink may be nil. Validation failures never reach the backend.
func (s *Service) Submit(ctx context.Context, featureID string, req models.AnalysisRequest, sink phase.Sink) (*models.AnalysisReport, error) {
	f, err := Lookup(featureID)
	if err != nil {
		return nil, err
	}

	report, err := s.run(ctx, f, req, sink, nil, func(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
		return s.backend.Generate(ctx, f.Endpoint, req)
	})
	if err != nil {
		return nil, err
	}

	s.archiveReport(ctx, f, report)
	return report, nil
}

// AgentAnswer is the outcome of Ask.
type AgentAnswer struct {
	Report *models.AnalysisReport
	Query  string
	Cached bool
}

// Ask sends a free-text question through the agent socket. Answers are kept
// in a per-query slot, so repeating a question is served from the cache
// unless refresh is set.
func (s *Service) Ask(ctx context.Context, featureID string, req models.AnalysisRequest, refresh bool, sink phase.Sink) (*AgentAnswer, error) {
	f, err := Lookup(featureID)
	if err != nil {
		return nil, err
	}
	if s.agent == nil {
		return nil, ErrAgentUnavailable
	}

	queryKey := f.QueryField
	if queryKey == "" {
		queryKey = "query"
	}
	query := strings.TrimSpace(toString(req.Fields[queryKey]))
	rc := reports.New(s.cache, f.ID)

	if query != "" && !refresh {
		cur, err := rc.LoadQuery(ctx, query)
		if err != nil {
			slog.Warn("ignoring unreadable query cache entry", "feature", f.ID, "error", err)
		}
		if cur != nil {
			report := models.AnalysisReport{
				ID:           cur.ReportID,
				Timestamp:    cur.Timestamp,
				AnalysisType: f.ID,
				Company:      cur.Inputs.CompanyName,
				Industry:     cur.Inputs.Industry,
				Inputs:       cur.Inputs,
				Result:       cur.Result,
			}
			if err := rc.SaveCurrent(ctx, *cur); err != nil {
				slog.Warn("saving current report failed", "feature", f.ID, "error", err)
			}
			s.session(ctx, f).SetForm(cur.Inputs)
			return &AgentAnswer{Report: &report, Query: query, Cached: true}, nil
		}
	}

	check := func(req models.AnalysisRequest) error {
		if query == "" {
			return &ValidationError{Field: queryKey, Message: "Question is required"}
		}
		return nil
	}

	report, err := s.run(ctx, f, req, sink, check, func(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
		reply, err := s.agent.Send(ctx, models.AgentMessage{
			Message:      agentMessage(query, req),
			AnalysisType: f.ID,
		})
		if err != nil {
			return nil, err
		}
		return &models.AnalysisResult{
			Status:         models.ResultStatusSuccess,
			Summary:        map[string]any{"company": req.CompanyName, "industry": req.Industry},
			AnalysisReport: reply.Content,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if err := rc.SaveQuery(ctx, query, report.Current()); err != nil {
		slog.Warn("saving query report failed", "feature", f.ID, "error", err)
	}
	s.archiveReport(ctx, f, report)
	return &AgentAnswer{Report: report, Query: query}, nil
}

func agentMessage(query string, req models.AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString(query)
	if req.CompanyName != "" {
		fmt.Fprintf(&sb, "\n\nCompany: %s", req.CompanyName)
	}
	if req.Industry != "" {
		fmt.Fprintf(&sb, "\nIndustry: %s", req.Industry)
	}
	return sb.String()
}

type callFunc func(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)

// run drives one submission through the state machine.
func (s *Service) run(ctx context.Context, f Feature, req models.AnalysisRequest, sink phase.Sink, check func(models.AnalysisRequest) error, call callFunc) (report *models.AnalysisReport, err error) {
	m := s.machine(f.ID)
	if err := m.Begin(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionInFlight, f.ID)
	}
	defer func() { m.Finish(err) }()

	sess := s.session(ctx, f)
	sess.SetForm(req)

	prepared, err := Prepare(f, req)
	if err == nil && check != nil {
		err = check(prepared)
	}
	if err != nil {
		return nil, err
	}

	if err := m.To(StatePlayingCannedSteps, nil); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = phase.SinkFunc(func(int, int, phase.Step) {})
	}
	stop := phase.NewPlayer(f.Script(), s.sleep).Start(ctx, sink)

	if err := m.To(StateAwaitingResponse, nil); err != nil {
		stop()
		return nil, err
	}
	result, err := call(ctx, prepared)
	stop()
	if err != nil {
		slog.Warn("analysis request failed", "feature", f.ID, "error", err)
		return nil, err
	}

	r := models.NewAnalysisReport(f.ID, prepared, *result, s.now())
	rc := reports.New(s.cache, f.ID)
	if err := rc.Save(ctx, r); err != nil {
		slog.Warn("saving report failed", "feature", f.ID, "error", err)
	}
	if err := rc.SaveCurrent(ctx, r.Current()); err != nil {
		slog.Warn("saving current report failed", "feature", f.ID, "error", err)
	}
	sess.SetForm(r.Inputs)

	slog.Info("analysis completed", "feature", f.ID, "report_id", r.ID, "company", r.Company)
	return &r, nil
}

func (s *Service) archiveReport(ctx context.Context, f Feature, r *models.AnalysisReport) {
	if s.archive == nil {
		return
	}
	created := s.now().UTC()
	file := &models.ReportFile{
		Filename:  pdf.BaseName(r.Company, f.ReportType, created) + ".md",
		Feature:   f.ID,
		Company:   r.Company,
		Industry:  r.Industry,
		Content:   r.Result.AnalysisReport,
		CreatedAt: created,
	}
	if err := s.archive.SaveReportFile(ctx, file); err != nil {
		slog.Warn("archiving report failed", "feature", f.ID, "error", err)
	}
}
