// Package backend talks to the external report-generation service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// FallbackMessage is surfaced when the backend fails without saying why.
const FallbackMessage = "Failed to generate analysis report"

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 32 << 20

// Sentinel errors for backend failures.
var (
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrBackendTimeout     = errors.New("backend timeout")
	ErrBackendRejected    = errors.New("backend rejected request")
	ErrInvalidResponse    = errors.New("invalid backend response")
	ErrReportNotFound     = errors.New("report file not found")
)

// RejectedError is returned when the backend answered with a non-2xx status
// or an error payload. Message is what should be shown to the user.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *RejectedError) Unwrap() error { return ErrBackendRejected }

// Client is the interface for the report-generation backend.
type Client interface {
	Generate(ctx context.Context, endpoint string, req models.AnalysisRequest) (*models.AnalysisResult, error)
	ListReports(ctx context.Context) ([]models.ReportFile, error)
	GetReportContent(ctx context.Context, filename string) (*models.ReportFile, error)
}

// HTTPClient implements Client over the backend's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a backend client. A zero timeout disables the client-side deadline.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Generate issues one POST with the request's JSON payload and waits for a
// single JSON result. It never retries.
func (c *HTTPClient) Generate(ctx context.Context, endpoint string, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	body, err := json.Marshal(req.Payload())
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result.Status == models.ResultStatusError {
		msg := result.Message
		if msg == "" {
			msg = FallbackMessage
		}
		return nil, &RejectedError{Message: msg}
	}
	if result.Status == "" {
		result.Status = models.ResultStatusSuccess
	}
	return &result, nil
}

// ListReports returns the report files the backend has generated so far.
func (c *HTTPClient) ListReports(ctx context.Context) ([]models.ReportFile, error) {
	raw, err := c.get(ctx, "/api/reports")
	if err != nil {
		return nil, err
	}

	// The backend answers either with a bare array or with {"reports": [...]}.
	var files []models.ReportFile
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &files); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	} else {
		var wrapped struct {
			Reports []models.ReportFile `json:"reports"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		files = wrapped.Reports
	}
	if files == nil {
		files = []models.ReportFile{}
	}
	return files, nil
}

// GetReportContent fetches one previously generated report file.
func (c *HTTPClient) GetReportContent(ctx context.Context, filename string) (*models.ReportFile, error) {
	raw, err := c.get(ctx, "/api/report-content/"+url.PathEscape(filename))
	if err != nil {
		if errors.Is(err, ErrBackendRejected) {
			var rej *RejectedError
			if errors.As(err, &rej) && rej.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("%w: %s", ErrReportNotFound, filename)
			}
		}
		return nil, err
	}

	file := models.ReportFile{Filename: filename}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if file.Filename == "" {
			file.Filename = filename
		}
		return &file, nil
	}
	file.Content = string(raw)
	return &file, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// errorMessage pulls "message" (or "error") out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return FallbackMessage
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
}

// UserMessage returns the text to surface for a failed request: the
// backend's own message when it sent one, the generic fallback otherwise.
func UserMessage(err error) string {
	var rej *RejectedError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	return FallbackMessage
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
