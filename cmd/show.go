package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <hash-prefix>",
	Short: "Show stored replay results by hash prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	replay, err := db.GetReplayByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query replay: %w", err)
	}
	if replay == nil {
		fmt.Fprintf(os.Stderr, "No replay found with hash prefix %q\n", prefix)
		return nil
	}
	return showByHash(db, replay.ReplayHash)
}
