// Package model holds the row and summary types shared by the detector,
// storage, and report layers.
package model

// Goal is a detected goal: the frame where the ball crossed the goal
// line, attributed to the scoring team.
type Goal struct {
	Frame int
	Team  int // 0 or 1
}

// Kickoff pairs a goal frame (0 for the opening kickoff) with the frame
// where play restarted.
type Kickoff struct {
	GoalFrame int
	Frame     int
}

// Interval is a half-open possession range [Start, GoalFrame) of
// sustained attacking pressure preceding a goal.
type Interval struct {
	Start     int
	GoalFrame int
}

// Frames returns the interval length in frames.
func (iv Interval) Frames() int { return iv.GoalFrame - iv.Start }

// Seconds converts the interval length to seconds at the given tick rate.
func (iv Interval) Seconds(ticksPerSecond float64) float64 {
	return float64(iv.Frames()) / ticksPerSecond
}

// FeatureRow is one labeled training example sampled from a possession
// interval.
type FeatureRow struct {
	ReplayHash string
	Frame      int
	ScoresNext int
	Values     []float64 // the 91 physics columns, ball first
}

// ReplaySummary is a lightweight catalogue record for list/show commands.
type ReplaySummary struct {
	ReplayHash string
	Path       string
	AnalyzedAt string
	FrameCount int
	EpochCount int
	Team0Goals int
	Team1Goals int
}
