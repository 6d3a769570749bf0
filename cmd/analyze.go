package cmd

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ch-lum/rl-analysis/internal/config"
	"github.com/ch-lum/rl-analysis/internal/events"
	"github.com/ch-lum/rl-analysis/internal/model"
	"github.com/ch-lum/rl-analysis/internal/physics"
	"github.com/ch-lum/rl-analysis/internal/report"
	"github.com/ch-lum/rl-analysis/internal/storage"
	"github.com/ch-lum/rl-analysis/internal/trace"
)

var (
	analyzeNoInterp  bool
	analyzeThreshold float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <replay.json>",
	Short: "Analyze a decoded replay trace and store the results",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeNoInterp, "no-interpolate", false, "disable gap interpolation of physics frames")
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", events.DefaultThreshold, "attacking-possession ratio threshold")
}

// analysis bundles everything a command needs after decoding one trace.
type analysis struct {
	hash string
	tr   *trace.Trace
	cfg  *config.Decoder
	snap physics.Frames
	det  *events.Detector
}

// loadAnalysis decodes the trace at path and extracts physics snapshots
// under the active decoder config.
func loadAnalysis(path string, interpolate bool) (*analysis, error) {
	cfg, err := loadDecoderConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	tr, err := trace.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}

	snap, err := physics.Extract(tr, cfg, physics.Options{Interpolate: interpolate})
	if err != nil {
		return nil, fmt.Errorf("extract physics: %w", err)
	}

	return &analysis{
		hash: fmt.Sprintf("%x", sha256.Sum256(data)),
		tr:   tr,
		cfg:  cfg,
		snap: snap,
		det:  events.New(tr, snap, cfg),
	}, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	tracePath := args[0]

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "Analyzing %s...\n", tracePath)
	a, err := loadAnalysis(tracePath, !analyzeNoInterp)
	if err != nil {
		return err
	}

	exists, err := db.ReplayExists(a.hash)
	if err != nil {
		return fmt.Errorf("check replay: %w", err)
	}
	if exists {
		fmt.Fprintf(os.Stdout, "Replay %s already stored — showing cached results.\n", a.hash[:12])
		return showByHash(db, a.hash)
	}

	goals := a.det.FindGoals()
	kickoffs, err := a.det.FindKickoffs()
	if err != nil {
		return fmt.Errorf("find kickoffs: %w", err)
	}
	intervals, err := a.det.PossessionIntervals(analyzeThreshold)
	if err != nil {
		return fmt.Errorf("possession intervals: %w", err)
	}

	summary := model.ReplaySummary{
		ReplayHash: a.hash,
		Path:       tracePath,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
		FrameCount: len(a.tr.Frames),
		EpochCount: len(a.tr.KeyFrames),
	}
	for _, g := range goals {
		if g.Team == 0 {
			summary.Team0Goals++
		} else {
			summary.Team1Goals++
		}
	}

	if err := db.InsertReplay(summary); err != nil {
		return fmt.Errorf("insert replay: %w", err)
	}
	if err := db.InsertGoals(a.hash, goals); err != nil {
		return fmt.Errorf("insert goals: %w", err)
	}
	if err := db.InsertKickoffs(a.hash, kickoffs); err != nil {
		return fmt.Errorf("insert kickoffs: %w", err)
	}
	if err := db.InsertIntervals(a.hash, intervals); err != nil {
		return fmt.Errorf("insert intervals: %w", err)
	}

	report.PrintReplaySummary(os.Stdout, summary)
	report.PrintGoalTable(os.Stdout, goals, kickoffs)
	report.PrintPossessionTable(os.Stdout, intervals, goals, a.cfg.TicksPerSecond)
	return nil
}

func showByHash(db *storage.DB, hash string) error {
	replay, err := db.GetReplayByPrefix(hash)
	if err != nil || replay == nil {
		return fmt.Errorf("replay not found: %s", hash)
	}
	goals, err := db.GetGoals(replay.ReplayHash)
	if err != nil {
		return err
	}
	kickoffs, err := db.GetKickoffs(replay.ReplayHash)
	if err != nil {
		return err
	}
	intervals, err := db.GetIntervals(replay.ReplayHash)
	if err != nil {
		return err
	}

	cfg, err := loadDecoderConfig()
	if err != nil {
		return err
	}

	report.PrintReplaySummary(os.Stdout, *replay)
	report.PrintGoalTable(os.Stdout, goals, kickoffs)
	report.PrintPossessionTable(os.Stdout, intervals, goals, cfg.TicksPerSecond)
	return nil
}
