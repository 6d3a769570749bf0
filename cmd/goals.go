package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/report"
)

var goalsCmd = &cobra.Command{
	Use:   "goals <replay.json>",
	Short: "Detect goals and kickoff restarts in a replay trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoals,
}

func runGoals(cmd *cobra.Command, args []string) error {
	a, err := loadAnalysis(args[0], true)
	if err != nil {
		return err
	}

	goals := a.det.FindGoals()
	if len(goals) == 0 {
		fmt.Fprintln(os.Stdout, "No goals detected.")
		return nil
	}
	kickoffs, err := a.det.FindKickoffs()
	if err != nil {
		return fmt.Errorf("find kickoffs: %w", err)
	}

	report.PrintGoalTable(os.Stdout, goals, kickoffs)
	return nil
}
