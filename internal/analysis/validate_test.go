package analysis_test

import (
	"errors"
	"testing"

	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFeature(t *testing.T, id string) analysis.Feature {
	t.Helper()
	f, err := analysis.Lookup(id)
	require.NoError(t, err)
	return f
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var ve *analysis.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Message
}

func TestRegistry_Endpoints(t *testing.T) {
	want := map[string]string{
		"competitorTracking": "/api/generate-report",
		"featurePriority":    "/api/feature-priority",
		"swot":               "/api/swot-analysis",
		"gapAnalysis":        "/api/gap-analysis",
		"journeyMapping":     "/api/journey-mapping",
		"marketAssessment":   "/api/market-assessment",
		"icpCreation":        "/api/icp-creation",
		"feedbackAnalysis":   "/api/feedback-analysis",
	}

	features := analysis.Features()
	require.Len(t, features, len(want))
	for _, f := range features {
		assert.Equal(t, want[f.ID], f.Endpoint, f.ID)
		assert.NotEmpty(t, f.Steps, f.ID)
		assert.NotEmpty(t, f.ReportType, f.ID)
		assert.Positive(t, f.Theme.Margin, f.ID)
	}
	for i := 1; i < len(features); i++ {
		assert.Less(t, features[i-1].ID, features[i].ID)
	}
}

func TestFeature_ScriptFallsBackToDefault(t *testing.T) {
	own := mustFeature(t, "swot")
	assert.Equal(t, own.Steps, own.Script())

	bare := analysis.Feature{ID: "pricing", Title: "Pricing Review"}
	script := bare.Script()
	require.Len(t, script, 5)
	assert.Equal(t, "Gathering pricing review data...", script[1].Message)
}

func TestFeature_Field(t *testing.T) {
	f := mustFeature(t, "competitorTracking")
	fd, ok := f.Field("time_period")
	require.True(t, ok)
	assert.Equal(t, analysis.FieldEnum, fd.Kind)

	_, ok = f.Field("competitor")
	assert.False(t, ok)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := analysis.Lookup("horoscope")
	assert.True(t, errors.Is(err, analysis.ErrUnknownFeature))
}

func TestValidate_CompanyNameRequired(t *testing.T) {
	f := mustFeature(t, "competitorTracking")
	_, err := analysis.Prepare(f, models.AnalysisRequest{
		CompanyName: "   ",
		Fields:      map[string]any{"competitors": []string{"Globex"}},
	})
	assert.Equal(t, "Company name is required", validationMessage(t, err))
}

func TestValidate_AtLeastOneCompetitor(t *testing.T) {
	f := mustFeature(t, "competitorTracking")
	for _, v := range []any{nil, []string{}, []any{" ", ""}, ""} {
		_, err := analysis.Prepare(f, models.AnalysisRequest{
			CompanyName: "Acme",
			Fields:      map[string]any{"competitors": v},
		})
		assert.Equal(t, "Select at least one competitor", validationMessage(t, err), "input %#v", v)
	}
}

func TestValidate_EnumOption(t *testing.T) {
	f := mustFeature(t, "competitorTracking")
	_, err := analysis.Prepare(f, models.AnalysisRequest{
		CompanyName: "Acme",
		Fields:      map[string]any{"competitors": []string{"Globex"}, "time_period": "decade"},
	})
	assert.Equal(t, "Time period must be one of last_month, last_quarter, last_year", validationMessage(t, err))
}

func TestValidate_IndustryRequiredWhereDeclared(t *testing.T) {
	_, err := analysis.Prepare(mustFeature(t, "marketAssessment"), models.AnalysisRequest{CompanyName: "Acme"})
	assert.Equal(t, "Industry is required", validationMessage(t, err))

	_, err = analysis.Prepare(mustFeature(t, "swot"), models.AnalysisRequest{CompanyName: "Acme"})
	assert.NoError(t, err)
}

func TestValidate_RequiredText(t *testing.T) {
	_, err := analysis.Prepare(mustFeature(t, "gapAnalysis"), models.AnalysisRequest{
		CompanyName: "Acme",
		Fields:      map[string]any{"desired_state": "Market leader"},
	})
	assert.Equal(t, "Describe the current state", validationMessage(t, err))

	_, err = analysis.Prepare(mustFeature(t, "icpCreation"), models.AnalysisRequest{CompanyName: "Acme"})
	assert.Equal(t, "Product description is required", validationMessage(t, err))
}

func TestPrepare_AppliesDefaultsAndCoercesLists(t *testing.T) {
	f := mustFeature(t, "competitorTracking")
	got, err := analysis.Prepare(f, models.AnalysisRequest{
		CompanyName: "  Acme ",
		Industry:    "Retail",
		Fields: map[string]any{
			"competitors": "Globex, Initech ,",
			"extra":       42,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, []string{"Globex", "Initech"}, got.Fields["competitors"])
	assert.Equal(t, []string{"pricing", "product", "marketing"}, got.Fields["focus_areas"])
	assert.Equal(t, "last_quarter", got.Fields["time_period"])
	assert.Equal(t, 42, got.Fields["extra"], "unknown keys pass through")
}

func TestDefaults_AreIndependentCopies(t *testing.T) {
	f := mustFeature(t, "competitorTracking")
	a := analysis.Defaults(f)
	a.Fields["focus_areas"].([]string)[0] = "changed"

	b := analysis.Defaults(f)
	assert.Equal(t, "pricing", b.Fields["focus_areas"].([]string)[0])
	assert.Equal(t, "", b.CompanyName)
	assert.Equal(t, []string{}, b.Fields["competitors"])
}
