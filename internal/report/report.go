package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gonum.org/v1/gonum/stat"

	"github.com/ch-lum/rl-analysis/internal/model"
)

// PrintReplaySummary prints a one-line summary header for the replay.
func PrintReplaySummary(w io.Writer, s model.ReplaySummary) {
	fmt.Fprintf(w, "\nReplay: %s  |  Frames: %d  |  Epochs: %d  |  Score: %d – %d  |  Analyzed: %s\n\n",
		s.ReplayHash[:12], s.FrameCount, s.EpochCount, s.Team0Goals, s.Team1Goals, s.AnalyzedAt)
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintGoalTable prints each goal with its scoring team and the restart
// frame that followed it. The opening kickoff shows as goal frame 0 with
// no team.
func PrintGoalTable(w io.Writer, goals []model.Goal, kickoffs []model.Kickoff) {
	restartByGoal := make(map[int]int, len(kickoffs))
	for _, k := range kickoffs {
		restartByGoal[k.GoalFrame] = k.Frame
	}

	table := newTable(w)
	table.Header("GOAL_FRAME", "TEAM", "NEXT_KICKOFF")

	if opening, ok := restartByGoal[0]; ok {
		table.Append("0", "—", strconv.Itoa(opening))
	}
	for _, g := range goals {
		restart := "—"
		if r, ok := restartByGoal[g.Frame]; ok {
			restart = strconv.Itoa(r)
		}
		table.Append(
			strconv.Itoa(g.Frame),
			strconv.Itoa(g.Team),
			restart,
		)
	}
	table.Render()
}

// PrintPossessionTable prints the attacking-possession interval before
// each goal, with durations at the configured tick rate and a mean line.
func PrintPossessionTable(w io.Writer, intervals []model.Interval, goals []model.Goal, ticksPerSecond float64) {
	teamByGoal := make(map[int]int, len(goals))
	for _, g := range goals {
		teamByGoal[g.Frame] = g.Team
	}

	table := newTable(w)
	table.Header("START", "GOAL_FRAME", "TEAM", "FRAMES", "SECONDS")

	seconds := make([]float64, 0, len(intervals))
	for _, iv := range intervals {
		secs := iv.Seconds(ticksPerSecond)
		seconds = append(seconds, secs)
		table.Append(
			strconv.Itoa(iv.Start),
			strconv.Itoa(iv.GoalFrame),
			strconv.Itoa(teamByGoal[iv.GoalFrame]),
			strconv.Itoa(iv.Frames()),
			fmt.Sprintf("%.2f", secs),
		)
	}
	table.Render()

	if len(seconds) > 0 {
		fmt.Fprintf(w, "Mean possession before goal: %.2fs over %d goal(s)\n",
			stat.Mean(seconds, nil), len(seconds))
	}
}

// PrintDatasetSummary prints row counts and label balance for a built
// dataset.
func PrintDatasetSummary(w io.Writer, rows []model.FeatureRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "Dataset is empty.")
		return
	}
	team1 := 0
	for _, r := range rows {
		if r.ScoresNext == 1 {
			team1++
		}
	}
	fmt.Fprintf(w, "%d row(s): %d labeled team 0, %d labeled team 1 (%.0f%% team 1)\n",
		len(rows), len(rows)-team1, team1, float64(team1)/float64(len(rows))*100)
}
