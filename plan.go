package main

import (
	"fmt"
	"io"

	"vodforge/ladder"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newPlanCommand() *cobra.Command {
	var width, height int
	var complexity float64
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the resolution ladder for a source size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 || height <= 0 {
				return fmt.Errorf("--width and --height must be positive")
			}
			writePlan(cmd.OutOrStdout(), ladder.Plan(width, height, complexity))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "Source width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "Source height in pixels")
	cmd.Flags().Float64Var(&complexity, "complexity", 1.0, "Content complexity factor")
	return cmd
}

func writePlan(out io.Writer, plan []ladder.PlannedTier) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Tier", "Resolution", "Bitrate", "CRF", "Dir"})
	for _, t := range plan {
		tw.AppendRow(table.Row{t.Name, t.Resolution(), t.Bitrate, t.CRF, t.Dir()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	tw.Render()
}
