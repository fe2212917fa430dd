package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/backend/mock"
	"github.com/kiranshivaraju/bizlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() models.AnalysisRequest {
	return models.AnalysisRequest{CompanyName: "Acme", Industry: "Retail"}
}

func TestNewMockClient_Generate(t *testing.T) {
	c := mock.NewMockClient()
	res, err := c.Generate(context.Background(), "/api/swot-analysis", sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusSuccess, res.Status)
	assert.Contains(t, res.AnalysisReport, "# Acme Analysis")
	assert.Equal(t, "Retail", res.Summary["industry"])

	calls := c.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/swot-analysis", calls[0].Endpoint)
}

func TestMockClient_ZeroValue(t *testing.T) {
	c := &mock.MockClient{}
	res, err := c.Generate(context.Background(), "/x", sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusSuccess, res.Status)

	files, err := c.ListReports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = c.GetReportContent(context.Background(), "x.md")
	assert.True(t, errors.Is(err, backend.ErrReportNotFound))
}

func TestNewFailingClient(t *testing.T) {
	boom := errors.New("boom")
	c := mock.NewFailingClient(boom)

	_, err := c.Generate(context.Background(), "/x", sampleRequest())
	assert.ErrorIs(t, err, boom)
	_, err = c.ListReports(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNewBlockingClient(t *testing.T) {
	release := make(chan struct{})
	c := mock.NewBlockingClient(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, "/x", sampleRequest())
	assert.ErrorIs(t, err, backend.ErrBackendTimeout)

	close(release)
	res, err := c.Generate(context.Background(), "/x", sampleRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.AnalysisReport)
}
