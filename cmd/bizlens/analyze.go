package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/kiranshivaraju/bizlens/internal/backend"
	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/kiranshivaraju/bizlens/pkg/models"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		company  string
		industry string
		query    string
		fields   []string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze FEATURE",
		Short: "Generate an analysis report",
		Long: `Validate the inputs, submit them to the report backend and store the
report as the newest entry of the feature's recent list.

With --query the question is sent through the agent socket instead, and
answers are cached per question until --refresh is given.

Examples:
  bizlens analyze competitorTracking --company Acme --industry Retail --field competitors=Globex,Initech
  bizlens analyze gapAnalysis --company Acme --field current_state="Manual billing" --field desired_state="Self-serve"
  bizlens analyze marketAssessment --company Acme --industry Retail --query "How big is the EU pet food market?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := analysis.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("%w %q: run 'bizlens features' for the list", err, args[0])
			}
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}
			for key := range parsed {
				if _, ok := f.Field(key); !ok && key != f.QueryField {
					return fmt.Errorf("%s has no field %q: run 'bizlens features' for its inputs", f.ID, key)
				}
			}
			req := models.AnalysisRequest{CompanyName: company, Industry: industry, Fields: parsed}

			ctx := cmd.Context()
			var (
				report *models.AnalysisReport
				cached bool
			)
			if query != "" {
				if err := a.connectAgent(ctx); err != nil {
					return fmt.Errorf("connect agent: %w", err)
				}
				queryField := f.QueryField
				if queryField == "" {
					queryField = "query"
				}
				req.Fields[queryField] = query

				sink, stop := a.progress("Asking the agent...")
				answer, err := a.svc.Ask(ctx, f.ID, req, refresh, sink)
				stop()
				if err != nil {
					return describeError(err)
				}
				report, cached = answer.Report, answer.Cached
			} else {
				sink, stop := a.progress("Submitting " + f.Title + "...")
				report, err = a.svc.Submit(ctx, f.ID, req, sink)
				stop()
				if err != nil {
					return describeError(err)
				}
			}

			if cached {
				a.success("Loaded cached answer")
			} else {
				a.success(f.Title + " complete")
			}
			return display(a.out, a.output, report, func() error {
				printReportHeader(a, report)
				return markdown.NewTerminalRenderer().Render(a.out, report.Result.AnalysisReport)
			})
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&industry, "industry", "", "Industry")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Analysis input as key=value; lists are comma separated (repeatable)")
	cmd.Flags().StringVar(&query, "query", "", "Free-text question for the agent socket")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore a cached answer for --query")
	return cmd
}

// parseFields turns key=value flags into request fields. Repeating a key
// appends to its comma-separated value.
func parseFields(flags []string) (map[string]any, error) {
	out := make(map[string]any, len(flags))
	for _, kv := range flags {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q: expected key=value", kv)
		}
		if prev, exists := out[key]; exists {
			value = prev.(string) + "," + value
		}
		out[key] = value
	}
	return out, nil
}

// describeError turns a failed submission into the message a user should see.
func describeError(err error) error {
	var ve *analysis.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	if errors.Is(err, analysis.ErrSubmissionInFlight) {
		return err
	}
	slog.Debug("analysis failed", "error", err)
	return errors.New(backend.UserMessage(err))
}

func printReportHeader(a *app, r *models.AnalysisReport) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintf(a.out, "%s", r.Company)
	if r.Industry != "" {
		fmt.Fprintf(a.out, " · %s", r.Industry)
	}
	fmt.Fprintf(a.out, "  %s\n\n", color.HiBlackString("#%d %s", r.ID, r.Timestamp))
}
