package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/avi3tal/emflow/internal/classifier"
	"github.com/avi3tal/emflow/internal/timesheet"
)

var graphMermaid bool

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the workflow step graph",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printGraph(cmd.OutOrStdout(), graphMermaid)
	},
}

func init() {
	graphCmd.Flags().BoolVar(&graphMermaid, "mermaid", false, "Render as a mermaid flowchart")
	rootCmd.AddCommand(graphCmd)
}

// printGraph compiles the workflow without a store; no step runs.
func printGraph(w io.Writer, mermaid bool) error {
	ctrl, err := timesheet.NewController(nil, classifier.Static(classifier.CheckPending),
		timesheet.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return err
	}
	if mermaid {
		_, err = fmt.Fprintln(w, ctrl.Mermaid())
		return err
	}
	ctrl.PrintGraph(w)
	return nil
}
