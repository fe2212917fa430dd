package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kiranshivaraju/bizlens/internal/pdf"
	"github.com/kiranshivaraju/bizlens/internal/phase"
)

var ErrUnknownFeature = errors.New("unknown analysis type")

type FieldKind string

const (
	FieldText FieldKind = "text"
	FieldList FieldKind = "list"
	FieldEnum FieldKind = "enum"
)

// Field describes one analysis-specific form input.
type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	MinItems int       `json:"min_items,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Default  any       `json:"default,omitempty"`
	// Message overrides the generic "is required" message.
	Message string `json:"-"`
}

// Feature is one analysis type: where it is sent, what it asks for and how
// its report is styled.
type Feature struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Endpoint         string       `json:"endpoint"`
	ReportType       string       `json:"report_type"`
	IndustryRequired bool         `json:"industry_required"`
	Fields           []Field      `json:"fields"`
	Steps            []phase.Step `json:"steps"`
	Theme            pdf.Theme    `json:"theme"`
	// QueryField names the free-text field used to key per-query cache slots.
	QueryField string `json:"query_field,omitempty"`
}

// Field returns the schema entry for key.
func (f Feature) Field(key string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.Key == key {
			return fd, true
		}
	}
	return Field{}, false
}

// Script returns the step script shown while the feature runs.
func (f Feature) Script() []phase.Step {
	if len(f.Steps) > 0 {
		return f.Steps
	}
	return phase.DefaultScript(strings.ToLower(f.Title))
}

func steps(msgs ...string) []phase.Step {
	out := make([]phase.Step, len(msgs))
	for i, m := range msgs {
		out[i] = phase.Step{Message: m, Duration: 2 * time.Second}
	}
	return out
}

var registry = map[string]Feature{
	"competitorTracking": {
		ID:         "competitorTracking",
		Title:      "Competitor Tracking",
		Endpoint:   "/api/generate-report",
		ReportType: "Competitor Analysis",
		Fields: []Field{
			{Key: "competitors", Label: "Competitors", Kind: FieldList, Required: true, MinItems: 1, Message: "Select at least one competitor"},
			{Key: "focus_areas", Label: "Focus areas", Kind: FieldList, Default: []string{"pricing", "product", "marketing"}},
			{Key: "time_period", Label: "Time period", Kind: FieldEnum, Options: []string{"last_month", "last_quarter", "last_year"}, Default: "last_quarter"},
		},
		Steps: steps(
			"AI Agent is initializing competitor research...",
			"Collecting competitor data...",
			"Comparing pricing and positioning...",
			"Analyzing market share trends...",
			"Generating competitor analysis report...",
		),
		Theme: pdf.ThemeBlue,
	},
	"featurePriority": {
		ID:         "featurePriority",
		Title:      "Feature Priority",
		Endpoint:   "/api/feature-priority",
		ReportType: "Feature Priority",
		Fields: []Field{
			{Key: "features", Label: "Features", Kind: FieldList, Required: true, MinItems: 1, Message: "Add at least one feature to prioritize"},
			{Key: "framework", Label: "Framework", Kind: FieldEnum, Options: []string{"RICE", "MoSCoW", "Kano"}, Default: "RICE"},
			{Key: "goals", Label: "Business goals", Kind: FieldText},
		},
		Steps: steps(
			"AI Agent is reviewing the feature list...",
			"Estimating reach and impact...",
			"Scoring effort and confidence...",
			"Ranking features...",
		),
		Theme: pdf.ThemeIndigo,
	},
	"swot": {
		ID:         "swot",
		Title:      "SWOT Analysis",
		Endpoint:   "/api/swot-analysis",
		ReportType: "SWOT Analysis",
		Fields: []Field{
			{Key: "focus_areas", Label: "Focus areas", Kind: FieldList},
			{Key: "time_horizon", Label: "Time horizon", Kind: FieldEnum, Options: []string{"short_term", "medium_term", "long_term"}, Default: "medium_term"},
		},
		Steps: steps(
			"AI Agent is gathering company data...",
			"Identifying strengths...",
			"Identifying weaknesses...",
			"Scanning opportunities and threats...",
			"Compiling SWOT report...",
		),
		Theme: pdf.ThemeGreen,
	},
	"gapAnalysis": {
		ID:         "gapAnalysis",
		Title:      "Gap Analysis",
		Endpoint:   "/api/gap-analysis",
		ReportType: "Gap Analysis",
		Fields: []Field{
			{Key: "current_state", Label: "Current state", Kind: FieldText, Required: true, Message: "Describe the current state"},
			{Key: "desired_state", Label: "Desired state", Kind: FieldText, Required: true, Message: "Describe the desired state"},
			{Key: "focus_areas", Label: "Focus areas", Kind: FieldList},
		},
		Steps: steps(
			"AI Agent is mapping the current state...",
			"Defining the target state...",
			"Measuring the gaps...",
			"Drafting the action plan...",
		),
		Theme: pdf.ThemeOrange,
	},
	"journeyMapping": {
		ID:         "journeyMapping",
		Title:      "Customer Journey Mapping",
		Endpoint:   "/api/journey-mapping",
		ReportType: "Journey Mapping",
		Fields: []Field{
			{Key: "persona", Label: "Customer persona", Kind: FieldText, Required: true},
			{Key: "touchpoints", Label: "Touchpoints", Kind: FieldList, Required: true, MinItems: 1, Message: "Select at least one touchpoint"},
		},
		Steps: steps(
			"AI Agent is building the persona...",
			"Tracing touchpoints...",
			"Finding pain points...",
			"Generating journey map...",
		),
		Theme: pdf.ThemeTeal,
	},
	"marketAssessment": {
		ID:               "marketAssessment",
		Title:            "Market Assessment",
		Endpoint:         "/api/market-assessment",
		ReportType:       "Market Assessment",
		IndustryRequired: true,
		QueryField:       "query",
		Fields: []Field{
			{Key: "region", Label: "Region", Kind: FieldEnum, Options: []string{"global", "north_america", "europe", "asia_pacific"}, Default: "global"},
			{Key: "query", Label: "Question", Kind: FieldText},
		},
		Steps: steps(
			"AI Agent is sizing the market...",
			"Analyzing growth drivers...",
			"Reviewing the competitive landscape...",
			"Generating market assessment...",
		),
		Theme: pdf.ThemePurple,
	},
	"icpCreation": {
		ID:         "icpCreation",
		Title:      "Ideal Customer Profile",
		Endpoint:   "/api/icp-creation",
		ReportType: "ICP Report",
		Fields: []Field{
			{Key: "product_description", Label: "Product description", Kind: FieldText, Required: true},
			{Key: "company_size", Label: "Target company size", Kind: FieldEnum, Options: []string{"startup", "smb", "mid_market", "enterprise"}, Default: "smb"},
			{Key: "geographies", Label: "Geographies", Kind: FieldList},
		},
		Steps: steps(
			"AI Agent is reviewing your product...",
			"Segmenting target accounts...",
			"Profiling decision makers...",
			"Generating ideal customer profile...",
		),
		Theme: pdf.ThemeRose,
	},
	"feedbackAnalysis": {
		ID:         "feedbackAnalysis",
		Title:      "Feedback Analysis",
		Endpoint:   "/api/feedback-analysis",
		ReportType: "Feedback Analysis",
		Fields: []Field{
			{Key: "feedback_sources", Label: "Feedback sources", Kind: FieldList, Required: true, MinItems: 1, Message: "Select at least one feedback source"},
			{Key: "sentiment_focus", Label: "Sentiment focus", Kind: FieldEnum, Options: []string{"all", "positive", "negative"}, Default: "all"},
		},
		Steps: steps(
			"AI Agent is collecting feedback...",
			"Classifying sentiment...",
			"Extracting recurring themes...",
			"Generating feedback report...",
		),
		Theme: pdf.ThemeSlate,
	},
}

// Lookup returns the feature registered under id.
func Lookup(id string) (Feature, error) {
	f, ok := registry[id]
	if !ok {
		return Feature{}, fmt.Errorf("%w: %q", ErrUnknownFeature, id)
	}
	return f, nil
}

// Features returns every registered feature ordered by id.
func Features() []Feature {
	out := make([]Feature, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
