package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/events"
	"github.com/ch-lum/rl-analysis/internal/report"
)

var possessionThreshold float64

var possessionCmd = &cobra.Command{
	Use:   "possession <replay.json>",
	Short: "Compute attacking-possession intervals before each goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPossession,
}

func init() {
	possessionCmd.Flags().Float64Var(&possessionThreshold, "threshold", events.DefaultThreshold,
		"attacking-possession ratio threshold")
}

func runPossession(cmd *cobra.Command, args []string) error {
	a, err := loadAnalysis(args[0], true)
	if err != nil {
		return err
	}

	intervals, err := a.det.PossessionIntervals(possessionThreshold)
	if err != nil {
		return fmt.Errorf("possession intervals: %w", err)
	}
	if len(intervals) == 0 {
		fmt.Fprintln(os.Stdout, "No goals, so no possession intervals.")
		return nil
	}

	report.PrintPossessionTable(os.Stdout, intervals, a.det.FindGoals(), a.cfg.TicksPerSecond)
	return nil
}
