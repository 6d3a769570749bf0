// Package events derives goals, kickoff restarts, and attacking-possession
// intervals from the extracted physics snapshots and the trace's scoring
// marks.
package events

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ch-lum/rl-analysis/internal/config"
	"github.com/ch-lum/rl-analysis/internal/model"
	"github.com/ch-lum/rl-analysis/internal/physics"
	"github.com/ch-lum/rl-analysis/internal/trace"
)

var (
	// ErrInvalidThreshold reports a possession threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold out of bounds")
	// ErrKickoffNotFound reports a goal with no qualifying reset and
	// respawn window anywhere in the remaining trace.
	ErrKickoffNotFound = errors.New("kickoff not found")
)

// DefaultThreshold is the attacking-frame ratio a possession interval
// must sustain.
const DefaultThreshold = 0.95

// resetWindow is the run of consecutive frames that must be empty (all
// entities despawned) and then fully populated (everyone respawned) for
// a kickoff to be recognized.
const resetWindow = 10

// Detector answers event queries over one trace's snapshot collection.
type Detector struct {
	tr    *trace.Trace
	snaps physics.Frames
	cfg   *config.Decoder
}

// New returns a Detector over the given trace and snapshots.
func New(tr *trace.Trace, snaps physics.Frames, cfg *config.Decoder) *Detector {
	return &Detector{tr: tr, snaps: snaps, cfg: cfg}
}

// FindGoals matches each scoring mark to the first frame at or after it
// where the ball sits beyond the goal line. Marks can precede the
// physical crossing frame by a few ticks; matching forward absorbs that.
// Results are ordered by frame.
func (d *Detector) FindGoals() []model.Goal {
	var candidates []int
	for frame, ents := range d.snaps {
		ball, ok := ents[physics.BallKey]
		if !ok {
			continue
		}
		if abs(ball.Location.Y) > d.cfg.GoalLineY {
			candidates = append(candidates, frame)
		}
	}
	sort.Ints(candidates)

	marks := d.scoringMarks()
	byFrame := make(map[int]int)
	for _, m := range marks {
		team := 0
		if m.Value == d.cfg.Team1GoalMark {
			team = 1
		}
		i := sort.SearchInts(candidates, m.Frame)
		if i < len(candidates) {
			byFrame[candidates[i]] = team
		}
	}

	goals := make([]model.Goal, 0, len(byFrame))
	for frame, team := range byFrame {
		goals = append(goals, model.Goal{Frame: frame, Team: team})
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].Frame < goals[j].Frame })
	return goals
}

// scoringMarks returns the trace marks tagged with either team's goal
// value, in chronological order.
func (d *Detector) scoringMarks() []trace.Mark {
	var marks []trace.Mark
	for _, m := range d.tr.Marks {
		if m.Value == d.cfg.Team0GoalMark || m.Value == d.cfg.Team1GoalMark {
			marks = append(marks, m)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].Frame < marks[j].Frame })
	return marks
}

// FindKickoffs locates the restart frame after every goal except the
// last (a goal with no subsequent kickoff in-trace is unresolvable) and
// for the opening kickoff, keyed by goal frame 0. Scanning forward from
// each goal: first a window of resetWindow consecutive frames with no
// snapshots at all, then the first frame opening a run of resetWindow
// fully populated frames; that frame is the kickoff.
func (d *Detector) FindKickoffs() ([]model.Kickoff, error) {
	goals := d.FindGoals()
	starts := make([]int, 0, len(goals))
	if len(goals) > 0 {
		for _, g := range goals[:len(goals)-1] {
			starts = append(starts, g.Frame)
		}
	}
	starts = append(starts, 0)

	out := make([]model.Kickoff, 0, len(starts))
	for _, goalFrame := range starts {
		kickoff, err := d.kickoffAfter(goalFrame)
		if err != nil {
			return nil, fmt.Errorf("goal at frame %d: %w", goalFrame, err)
		}
		out = append(out, model.Kickoff{GoalFrame: goalFrame, Frame: kickoff})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GoalFrame < out[j].GoalFrame })
	return out, nil
}

func (d *Detector) kickoffAfter(goalFrame int) (int, error) {
	reset := false
	for window := goalFrame; window < len(d.tr.Frames); window++ {
		if !reset {
			reset = d.emptyRun(window)
		}
		if reset && d.populatedRun(window) {
			return window, nil
		}
	}
	return 0, ErrKickoffNotFound
}

func (d *Detector) emptyRun(start int) bool {
	for i := start; i < start+resetWindow; i++ {
		if d.snaps.Present(i) {
			return false
		}
	}
	return true
}

func (d *Detector) populatedRun(start int) bool {
	for i := start; i < start+resetWindow; i++ {
		if !d.snaps.Present(i) {
			return false
		}
	}
	return true
}

// PossessionIntervals returns one interval per goal: the frame range of
// sustained attacking pressure preceding it. Scanning backward from the
// goal toward the preceding kickoff, a frame is "attacking" when the
// ball sits in the attacking third or its y-velocity points at the
// scored-on net (signs flipped for team 1, which attacks the negative
// side). The interval start is the furthest-back frame at which the
// running attacking ratio still exceeds threshold.
func (d *Detector) PossessionIntervals(threshold float64) ([]model.Interval, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}

	goals := d.FindGoals()
	out := make([]model.Interval, 0, len(goals))
	for _, g := range goals {
		lastKickoff := d.lastEmptyBefore(g.Frame)

		var attacking []bool
		for frame := g.Frame; frame > lastKickoff; frame-- {
			ball, ok := d.snaps.Snapshot(frame, physics.BallKey)
			if !ok {
				continue
			}
			yLoc := ball.Location.Y
			yVel := ball.LinearVelocity.Y
			if g.Team == 1 {
				yLoc, yVel = -yLoc, -yVel
			}
			attacking = append(attacking, yLoc > d.cfg.AttackLineY || yVel > 0)
		}

		out = append(out, model.Interval{
			Start:     g.Frame - windowSize(attacking, threshold),
			GoalFrame: g.Frame,
		})
	}
	return out, nil
}

// lastEmptyBefore returns the nearest frame before goal with no
// snapshots, or -1 when every preceding frame is populated.
func (d *Detector) lastEmptyBefore(goal int) int {
	for f := goal - 1; f >= 0; f-- {
		if !d.snaps.Present(f) {
			return f
		}
	}
	return -1
}

// windowSize returns how many frames back from the goal the running
// attacking ratio stays above threshold. The sequence is ordered
// nearest-to-goal first; the cumulative sum over it is the original
// cumsum-ratio heuristic.
func windowSize(attacking []bool, threshold float64) int {
	if len(attacking) == 0 {
		return 0
	}
	vals := make([]float64, len(attacking))
	for i, a := range attacking {
		if a {
			vals[i] = 1
		}
	}
	cum := floats.CumSum(make([]float64, len(vals)), vals)
	for i, c := range cum {
		if c/float64(i+1) <= threshold {
			return i
		}
	}
	return len(attacking) - 1
}

// TimeBeforeGoals returns, for each possession interval at the default
// threshold, how many seconds before its goal the attacking pressure
// began. Assumes the configured fixed tick rate.
func (d *Detector) TimeBeforeGoals() ([]float64, error) {
	intervals, err := d.PossessionIntervals(DefaultThreshold)
	if err != nil {
		return nil, err
	}
	times := make([]float64, len(intervals))
	for i, iv := range intervals {
		times[i] = iv.Seconds(d.cfg.TicksPerSecond)
	}
	return times, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
