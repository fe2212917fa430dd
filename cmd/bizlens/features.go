package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kiranshivaraju/bizlens/internal/analysis"
	"github.com/spf13/cobra"
)

func newFeaturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "List analysis types and their inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			features := analysis.Features()
			return display(a.out, a.output, features, func() error {
				bold := color.New(color.Bold)
				for _, f := range features {
					bold.Fprintf(a.out, "%s", f.ID)
					fmt.Fprintf(a.out, "  %s (%s)\n", f.Title, f.Endpoint)
					for _, fd := range f.Fields {
						fmt.Fprintf(a.out, "    --field %s=...  %s%s\n", fd.Key, fd.Label, fieldHint(fd))
					}
				}
				return nil
			})
		},
	}
}

func fieldHint(fd analysis.Field) string {
	var hints []string
	if fd.Required {
		hints = append(hints, "required")
	}
	switch fd.Kind {
	case analysis.FieldList:
		hints = append(hints, "comma separated")
	case analysis.FieldEnum:
		hints = append(hints, "one of "+strings.Join(fd.Options, "|"))
	}
	if len(hints) == 0 {
		return ""
	}
	return " [" + strings.Join(hints, ", ") + "]"
}
