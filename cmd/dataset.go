package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/events"
	"github.com/ch-lum/rl-analysis/internal/features"
	"github.com/ch-lum/rl-analysis/internal/model"
	"github.com/ch-lum/rl-analysis/internal/report"
	"github.com/ch-lum/rl-analysis/internal/storage"
)

var (
	datasetStride    int
	datasetThreshold float64
	datasetOut       string
	datasetStore     bool
)

var datasetCmd = &cobra.Command{
	Use:   "dataset <replay.json> [replay.json...]",
	Short: "Build a labeled next-scorer feature dataset from replay traces",
	Long: `Sample each attacking-possession interval at a fixed frame stride and
flatten the ball and car physics at every sampled frame into one labeled
row. Rows from all given replays are concatenated into a single CSV.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDataset,
}

func init() {
	datasetCmd.Flags().IntVar(&datasetStride, "stride", features.DefaultStride, "sampling interval in frames")
	datasetCmd.Flags().Float64Var(&datasetThreshold, "threshold", events.DefaultThreshold,
		"attacking-possession ratio threshold")
	datasetCmd.Flags().StringVar(&datasetOut, "out", "", "output CSV path (default: stdout)")
	datasetCmd.Flags().BoolVar(&datasetStore, "store", false, "also store rows in the database")
}

func runDataset(cmd *cobra.Command, args []string) error {
	var all []model.FeatureRow
	var columns []string

	for _, path := range args {
		a, err := loadAnalysis(path, true)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		builder := features.New(a.snap, a.det, a.cfg)
		if columns == nil {
			columns = builder.Columns(true)
		}
		rows, err := builder.Dataset(datasetStride, datasetThreshold)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for i := range rows {
			rows[i].ReplayHash = a.hash
		}
		fmt.Fprintf(os.Stderr, "%s: %d row(s)\n", path, len(rows))
		all = append(all, rows...)
	}

	if datasetStore {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		if err := db.InsertFeatures(all); err != nil {
			return fmt.Errorf("store features: %w", err)
		}
	}

	if err := writeCSV(datasetOut, columns, all); err != nil {
		return err
	}
	report.PrintDatasetSummary(os.Stderr, all)
	return nil
}

func writeCSV(path string, columns []string, rows []model.FeatureRow) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, 0, len(columns))
	for _, r := range rows {
		rec = rec[:0]
		rec = append(rec, strconv.Itoa(r.ScoresNext))
		for _, v := range r.Values {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row at frame %d: %w", r.Frame, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if path != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}
