package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kiranshivaraju/bizlens/internal/markdown"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var html bool
	cmd := &cobra.Command{
		Use:                "render FILE",
		Short:              "Render report markdown to the terminal or to HTML (- reads stdin)",
		Args:               cobra.ExactArgs(1),
		PersistentPreRunE:  func(*cobra.Command, []string) error { return validateOutput(a.output) },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			if html {
				_, err := fmt.Fprintln(a.out, markdown.Format(string(data)))
				return err
			}
			return markdown.NewTerminalRenderer().Render(a.out, string(data))
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Output sanitised HTML")
	return cmd
}
