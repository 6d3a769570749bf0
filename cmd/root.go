package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/config"
)

var (
	dbPath  string
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "rlmetrics",
	Short: "Rocket League replay analysis tool",
	Long:  "Analyze rattletrap-decoded Rocket League replays: goals, kickoffs, possession intervals and classifier feature datasets.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".rlmetrics", "replays.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to decoder config YAML (default: built-in 3v3 constants)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(possessionCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadDecoderConfig returns the decoder constants, overlaying the YAML
// file from --config when one is given.
func loadDecoderConfig() (*config.Decoder, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
