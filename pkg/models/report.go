// Package models contains shared data models used across the bizlens codebase.
package models

import "time"

const (
	ResultStatusSuccess = "success"
	ResultStatusError   = "error"
)

// AnalysisRequest is built from form state and sent to the report backend.
// Fields holds the analysis-specific inputs (lists of strings, enums, free text).
type AnalysisRequest struct {
	CompanyName string         `json:"company_name"  yaml:"company_name"`
	Industry    string         `json:"industry"      yaml:"industry"`
	Fields      map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Payload flattens the request into the JSON body the backend expects:
// company_name and industry next to the analysis-specific fields.
func (r AnalysisRequest) Payload() map[string]any {
	body := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		body[k] = v
	}
	body["company_name"] = r.CompanyName
	body["industry"] = r.Industry
	return body
}

// AnalysisResult is the backend's response to a report-generation request.
type AnalysisResult struct {
	Status         string         `json:"status"                    yaml:"status"`
	Message        string         `json:"message,omitempty"         yaml:"message,omitempty"`
	Summary        map[string]any `json:"summary,omitempty"         yaml:"summary,omitempty"`
	AnalysisReport string         `json:"analysis_report"           yaml:"analysis_report"`
}

// AnalysisReport is one entry of the recent-reports list. Entries are never
// mutated once saved.
type AnalysisReport struct {
	ID           int64           `json:"id"            yaml:"id"`
	Timestamp    string          `json:"timestamp"     yaml:"timestamp"`
	AnalysisType string          `json:"analysis_type" yaml:"analysis_type"`
	Company      string          `json:"company"       yaml:"company"`
	Industry     string          `json:"industry"      yaml:"industry"`
	Inputs       AnalysisRequest `json:"inputs"        yaml:"inputs"`
	Result       AnalysisResult  `json:"result"        yaml:"result"`
}

// NewAnalysisReport stamps a report with a timestamp-derived id.
func NewAnalysisReport(analysisType string, req AnalysisRequest, result AnalysisResult, now time.Time) AnalysisReport {
	now = now.UTC()
	return AnalysisReport{
		ID:           now.UnixMilli(),
		Timestamp:    now.Format(time.RFC3339Nano),
		AnalysisType: analysisType,
		Company:      req.CompanyName,
		Industry:     req.Industry,
		Inputs:       req,
		Result:       result,
	}
}

// CurrentReport is the "what's on screen now" slot, independent of the
// recent-reports list.
type CurrentReport struct {
	ReportID  int64           `json:"report_id,omitempty" yaml:"report_id,omitempty"`
	Result    AnalysisResult  `json:"result"              yaml:"result"`
	Inputs    AnalysisRequest `json:"inputs"              yaml:"inputs"`
	Timestamp string          `json:"timestamp"           yaml:"timestamp"`
}

// Current converts a saved report into a current-slot record.
func (r AnalysisReport) Current() CurrentReport {
	return CurrentReport{
		ReportID:  r.ID,
		Result:    r.Result,
		Inputs:    r.Inputs,
		Timestamp: r.Timestamp,
	}
}
