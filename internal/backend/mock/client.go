package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// Call records one Generate invocation.
type Call struct {
	Endpoint string
	Request  models.AnalysisRequest
}

// MockClient satisfies backend.Client for testing.
type MockClient struct {
	GenerateFunc         func(ctx context.Context, endpoint string, req models.AnalysisRequest) (*models.AnalysisResult, error)
	ListReportsFunc      func(ctx context.Context) ([]models.ReportFile, error)
	GetReportContentFunc func(ctx context.Context, filename string) (*models.ReportFile, error)

	mu    sync.Mutex
	calls []Call
}

func (m *MockClient) Generate(ctx context.Context, endpoint string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Endpoint: endpoint, Request: req})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, endpoint, req)
	}
	return &models.AnalysisResult{Status: models.ResultStatusSuccess}, nil
}

func (m *MockClient) ListReports(ctx context.Context) ([]models.ReportFile, error) {
	if m.ListReportsFunc != nil {
		return m.ListReportsFunc(ctx)
	}
	return []models.ReportFile{}, nil
}

func (m *MockClient) GetReportContent(ctx context.Context, filename string) (*models.ReportFile, error) {
	if m.GetReportContentFunc != nil {
		return m.GetReportContentFunc(ctx, filename)
	}
	return nil, backend.ErrReportNotFound
}

// Calls returns the Generate calls made so far.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// NewMockClient returns a MockClient that answers every request with a short
// markdown report about the submitted company.
func NewMockClient() *MockClient {
	return &MockClient{
		GenerateFunc: func(_ context.Context, _ string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
			return &models.AnalysisResult{
				Status:  models.ResultStatusSuccess,
				Summary: map[string]any{"company": req.CompanyName, "industry": req.Industry},
				AnalysisReport: "# " + req.CompanyName + " Analysis\n" +
					"## Key Findings\n" +
					"- **Position:** strong in " + req.Industry + "\n" +
					"- Pricing pressure from new entrants\n" +
					"Mock report generated for testing.",
			}, nil
		},
	}
}

// NewFailingClient returns a MockClient whose every call fails with err.
func NewFailingClient(err error) *MockClient {
	return &MockClient{
		GenerateFunc: func(context.Context, string, models.AnalysisRequest) (*models.AnalysisResult, error) {
			return nil, err
		},
		ListReportsFunc: func(context.Context) ([]models.ReportFile, error) {
			return nil, err
		},
		GetReportContentFunc: func(context.Context, string) (*models.ReportFile, error) {
			return nil, err
		},
	}
}

// NewBlockingClient returns a MockClient whose Generate waits for release
// (or context cancellation) before answering like NewMockClient.
func NewBlockingClient(release <-chan struct{}) *MockClient {
	ok := NewMockClient()
	return &MockClient{
		GenerateFunc: func(ctx context.Context, endpoint string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
			select {
			case <-release:
				return ok.GenerateFunc(ctx, endpoint, req)
			case <-ctx.Done():
				return nil, backend.ErrBackendTimeout
			}
		},
	}
}

// Compile-time check that MockClient implements backend.Client.
var _ backend.Client = (*MockClient)(nil)
