package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/kiranshivaraju/bizlens/internal/pdf"
	"github.com/spf13/cobra"
)

type exportResult struct {
	File  string `json:"file"  yaml:"file"`
	Pages int    `json:"pages" yaml:"pages"`
	Bytes int    `json:"bytes" yaml:"bytes"`
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export FEATURE [REPORT_ID]",
		Short: "Export a report as PDF",
		Long: `Export a saved report, or the current one when no id is given, as an A4
PDF. The file is named <Company>_<Report_Type>_<date>.pdf unless --out is set.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, record, err := a.lookupReport(cmd, args)
			if err != nil {
				return err
			}
			sess, err := a.svc.Session(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			f := sess.Feature()
			inputs := reportInputs(record)

			var buf bytes.Buffer
			res, err := pdf.NewExporter().Export(&buf, text, pdf.Metadata{
				Title:       f.Title,
				Company:     inputs.CompanyName,
				Industry:    inputs.Industry,
				ReportType:  f.ReportType,
				GeneratedAt: time.Now(),
			}, f.Theme)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = res.Filename
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			result := exportResult{File: path, Pages: res.Pages, Bytes: res.Bytes}
			return display(a.out, a.output, result, func() error {
				a.success(fmt.Sprintf("Saved %s (%d pages)", path, res.Pages))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file path")
	return cmd
}
