package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored replays",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	replays, err := db.ListReplays()
	if err != nil {
		return fmt.Errorf("list replays: %w", err)
	}
	if len(replays) == 0 {
		fmt.Fprintln(os.Stdout, "No replays stored yet. Run 'rlmetrics analyze <replay.json>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-20s  %8s  %7s  %6s  %s\n",
		"HASH", "ANALYZED", "FRAMES", "EPOCHS", "SCORE", "PATH")
	fmt.Fprintf(os.Stdout, "%-14s  %-20s  %8s  %7s  %6s  %s\n",
		"──────────────", "────────────────────", "────────", "───────", "──────", "────")
	for _, r := range replays {
		score := fmt.Sprintf("%d-%d", r.Team0Goals, r.Team1Goals)
		fmt.Fprintf(os.Stdout, "%-14s  %-20s  %8d  %7d  %6s  %s\n",
			r.ReplayHash[:12], r.AnalyzedAt, r.FrameCount, r.EpochCount, score, r.Path)
	}
	return nil
}
