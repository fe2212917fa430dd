package main

import (
	"fmt"
	"strconv"

	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/kiranshivaraju/bizlens/pkg/models"
	"github.com/spf13/cobra"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse the local report cache",
	}
	cmd.AddCommand(
		newReportsListCmd(a),
		newReportsShowCmd(a),
		newReportsLoadCmd(a),
		newReportsNewCmd(a),
		newReportsClearCmd(a),
	)
	return cmd
}

func newReportsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list FEATURE",
		Short: "List the recent reports of an analysis type, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := a.svc.Reports(args[0])
			if err != nil {
				return err
			}
			list, err := rc.LoadRecent(cmd.Context())
			if err != nil {
				return err
			}
			return display(a.out, a.output, list, func() error {
				if len(list) == 0 {
					fmt.Fprintln(a.out, "No saved reports.")
					return nil
				}
				fmt.Fprintf(a.out, "%-15s  %-24s  %-20s  %s\n", "ID", "TIMESTAMP", "COMPANY", "INDUSTRY")
				for _, r := range list {
					fmt.Fprintf(a.out, "%-15d  %-24s  %-20s  %s\n", r.ID, r.Timestamp, r.Company, r.Industry)
				}
				return nil
			})
		},
	}
}

func newReportsShowCmd(a *app) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:   "show FEATURE [REPORT_ID]",
		Short: "Show a saved report, or the current one when no id is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, report, err := a.lookupReport(cmd, args)
			if err != nil {
				return err
			}
			return display(a.out, a.output, report, func() error {
				if html {
					_, err := fmt.Fprintln(a.out, markdown.Format(text))
					return err
				}
				return markdown.NewTerminalRenderer().Render(a.out, text)
			})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Print the report as HTML")
	return cmd
}

func newReportsLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load FEATURE REPORT_ID",
		Short: "Make a saved report the current one and restore its inputs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[1])
			if err != nil {
				return err
			}
			sess, err := a.svc.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cur, err := sess.LoadSaved(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.success(fmt.Sprintf("Loaded report %d", id))
			return display(a.out, a.output, cur, func() error {
				return markdown.NewTerminalRenderer().Render(a.out, cur.Result.AnalysisReport)
			})
		},
	}
}

func newReportsNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new FEATURE",
		Short: "Clear the current report and reset the inputs; saved reports stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.svc.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := sess.NewAnalysis(cmd.Context()); err != nil {
				return err
			}
			a.success("Started a new analysis")
			return nil
		},
	}
}

func newReportsClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear FEATURE",
		Short: "Delete every saved report and the current one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.svc.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := sess.ClearAll(cmd.Context()); err != nil {
				return err
			}
			a.success("Cleared all " + sess.Feature().Title + " reports")
			return nil
		},
	}
}

// lookupReport resolves FEATURE [REPORT_ID] to report text and the record
// it came from.
func (a *app) lookupReport(cmd *cobra.Command, args []string) (string, any, error) {
	sess, err := a.svc.Session(cmd.Context(), args[0])
	if err != nil {
		return "", nil, err
	}
	if len(args) == 1 {
		cur, err := sess.Reports().LoadCurrent(cmd.Context())
		if err != nil {
			return "", nil, err
		}
		if cur == nil {
			return "", nil, fmt.Errorf("no current %s report: run 'bizlens analyze %s' first", sess.Feature().Title, args[0])
		}
		return cur.Result.AnalysisReport, cur, nil
	}

	id, err := parseReportID(args[1])
	if err != nil {
		return "", nil, err
	}
	r, err := sess.Reports().Get(cmd.Context(), id)
	if err != nil {
		return "", nil, fmt.Errorf("report %d: %w", id, err)
	}
	return r.Result.AnalysisReport, r, nil
}

func parseReportID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid report id %q", s)
	}
	return id, nil
}

func reportInputs(v any) models.AnalysisRequest {
	switch r := v.(type) {
	case *models.CurrentReport:
		return r.Inputs
	case *models.AnalysisReport:
		return r.Inputs
	default:
		return models.AnalysisRequest{}
	}
}
