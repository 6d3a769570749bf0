package features

import (
	"errors"
	"testing"

	"github.com/ch-lum/rl-analysis/internal/config"
	"github.com/ch-lum/rl-analysis/internal/events"
	"github.com/ch-lum/rl-analysis/internal/physics"
	"github.com/ch-lum/rl-analysis/internal/trace"
)

// snap builds a snapshot whose 13 flattened values are base+1..base+13,
// so slices of a feature vector are attributable to one entity.
func snap(base float64) physics.Snapshot {
	return physics.Snapshot{
		AngularVelocity: trace.Vec3{X: base + 1, Y: base + 2, Z: base + 3},
		LinearVelocity:  trace.Vec3{X: base + 4, Y: base + 5, Z: base + 6},
		Location:        trace.Vec3{X: base + 7, Y: base + 8, Z: base + 9},
		Rotation:        trace.Quat{X: base + 10, Y: base + 11, Z: base + 12, W: base + 13},
	}
}

func entityRange(t *testing.T, vec []float64, offset int, base float64) {
	t.Helper()
	for i := 0; i < ValuesPerEntity; i++ {
		if vec[offset+i] != base+float64(i+1) {
			t.Fatalf("value %d: want %v, got %v", offset+i, base+float64(i+1), vec[offset+i])
		}
	}
}

func zeroRange(t *testing.T, vec []float64, from, to int) {
	t.Helper()
	for i := from; i < to; i++ {
		if vec[i] != 0 {
			t.Fatalf("value %d: want padding zero, got %v", i, vec[i])
		}
	}
}

func makeBuilder(snaps physics.Frames) *Builder {
	return New(snaps, nil, config.Default())
}

func TestFeatureUnlabeled(t *testing.T) {
	snaps := physics.Frames{100: {
		physics.BallKey: snap(0),
		"0_car_4":       snap(100),
		"1_car_9":       snap(200),
	}}

	vec, err := makeBuilder(snaps).Feature(100, Unlabeled)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if len(vec) != 91 {
		t.Fatalf("expected 91 values, got %d", len(vec))
	}

	entityRange(t, vec, 0, 0)    // ball
	entityRange(t, vec, 13, 100) // team 0 car, slot 1
	zeroRange(t, vec, 26, 52)    // team 0 empty slots
	entityRange(t, vec, 52, 200) // team 1 car, slot 1
	zeroRange(t, vec, 65, 91)    // team 1 empty slots
}

func TestFeatureLabeled(t *testing.T) {
	snaps := physics.Frames{100: {physics.BallKey: snap(0)}}

	vec, err := makeBuilder(snaps).Feature(100, 1)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if len(vec) != 92 {
		t.Fatalf("expected 92 values, got %d", len(vec))
	}
	if vec[0] != 1 {
		t.Errorf("label: want 1, got %v", vec[0])
	}
	entityRange(t, vec, 1, 0)
}

func TestFeatureTeamOrdering(t *testing.T) {
	// Same-team cars are laid out by ascending actor ID, not map order.
	snaps := physics.Frames{100: {
		physics.BallKey: snap(0),
		"0_car_12":      snap(300),
		"0_car_3":       snap(100),
	}}

	vec, err := makeBuilder(snaps).Feature(100, Unlabeled)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	entityRange(t, vec, 13, 100) // actor 3 first
	entityRange(t, vec, 26, 300) // actor 12 second
}

func TestFeatureInvalidScorer(t *testing.T) {
	snaps := physics.Frames{100: {physics.BallKey: snap(0)}}
	if _, err := makeBuilder(snaps).Feature(100, 2); !errors.Is(err, ErrInvalidScorer) {
		t.Errorf("expected ErrInvalidScorer, got %v", err)
	}
}

func TestFeatureShiftsPastMissingBall(t *testing.T) {
	snaps := physics.Frames{203: {physics.BallKey: snap(40)}}

	vec, err := makeBuilder(snaps).Feature(200, Unlabeled)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if vec == nil {
		t.Fatal("expected the frame to shift forward to 203")
	}
	entityRange(t, vec, 0, 40)
}

func TestFeatureDropsUnusableFrame(t *testing.T) {
	vec, err := makeBuilder(physics.Frames{}).Feature(200, Unlabeled)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if vec != nil {
		t.Errorf("expected nil for a frame with no usable neighbors, got %v", vec)
	}
}

func TestFeatureShiftsPastOverfullTeam(t *testing.T) {
	crowded := map[string]physics.Snapshot{physics.BallKey: snap(0)}
	for _, key := range []string{"0_car_1", "0_car_2", "0_car_3", "0_car_4"} {
		crowded[key] = snap(500)
	}
	snaps := physics.Frames{
		300: crowded,
		301: {physics.BallKey: snap(70)},
	}

	vec, err := makeBuilder(snaps).Feature(300, Unlabeled)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if vec == nil {
		t.Fatal("expected a shifted feature")
	}
	entityRange(t, vec, 0, 70)
}

func TestColumns(t *testing.T) {
	b := makeBuilder(physics.Frames{})

	labeled := b.Columns(true)
	if len(labeled) != 92 {
		t.Fatalf("labeled: expected 92 columns, got %d", len(labeled))
	}
	if labeled[0] != "scores_next" || labeled[1] != "ball_av_x" {
		t.Errorf("unexpected leading columns: %v", labeled[:2])
	}
	if labeled[14] != "0car1_av_x" {
		t.Errorf("column 14: want 0car1_av_x, got %s", labeled[14])
	}
	if labeled[91] != "1car3_rot_w" {
		t.Errorf("last column: want 1car3_rot_w, got %s", labeled[91])
	}

	unlabeled := b.Columns(false)
	if len(unlabeled) != 91 || unlabeled[0] != "ball_av_x" {
		t.Errorf("unlabeled: len=%d first=%s", len(unlabeled), unlabeled[0])
	}
}

func TestFeatureFromExtractedTrace(t *testing.T) {
	// End-to-end over a three-frame epoch: actor 10 spawns as the ball,
	// actor 11 as a team-0 car, and both carry physics at frames 1 and 2.
	tr := &trace.Trace{
		Frames:    make([]trace.Frame, 3),
		KeyFrames: []int{0},
		Objects:   []string{"TAGame.Ball_TA", "TAGame.Car_TA"},
	}
	tr.Frames[0] = trace.Frame{Replications: []trace.Replication{
		{ActorID: 10, ClassName: "TAGame.Ball_TA"},
		{ActorID: 11, ClassName: "TAGame.Car_TA"},
		{ActorID: 11, Updated: []trace.Property{{ID: 66, TeamPaint: &trace.TeamPaint{Team: 0}}}},
	}}
	physAt := func(actorID int, base float64) trace.Replication {
		s := snap(base)
		return trace.Replication{ActorID: actorID, Updated: []trace.Property{{ID: 42, RigidBody: &trace.RigidBody{
			AngularVelocity: &s.AngularVelocity,
			LinearVelocity:  &s.LinearVelocity,
			Location:        s.Location,
			Rotation:        s.Rotation,
		}}}}
	}
	tr.Frames[1] = trace.Frame{Replications: []trace.Replication{physAt(10, 1000), physAt(11, 2000)}}
	tr.Frames[2] = trace.Frame{Replications: []trace.Replication{physAt(10, 3000), physAt(11, 4000)}}

	snaps, err := physics.Extract(tr, config.Default(), physics.DefaultOptions())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	vec, err := makeBuilder(snaps).Feature(1, Unlabeled)
	if err != nil {
		t.Fatalf("Feature: %v", err)
	}
	if len(vec) != 91 {
		t.Fatalf("expected 91 values, got %d", len(vec))
	}
	entityRange(t, vec, 0, 1000)  // ball = actor 10's physics
	entityRange(t, vec, 13, 2000) // team 0 slot 1 = actor 11's physics
	zeroRange(t, vec, 26, 91)     // everything else padded
}

// makeScoringMatch builds a one-goal scenario with the ball attacking
// from the kickoff at frame 10 to the goal at frame 95.
func makeScoringMatch() (physics.Frames, *events.Detector) {
	tr := &trace.Trace{
		Frames:    make([]trace.Frame, 110),
		KeyFrames: []int{0},
		Marks:     []trace.Mark{{Frame: 90, Value: "Team0Goal"}},
	}
	snaps := make(physics.Frames)
	for f := 10; f <= 100; f++ {
		s := snap(0)
		s.Location.Y = 300000
		snaps[f] = map[string]physics.Snapshot{physics.BallKey: s}
	}
	goal := snaps[95][physics.BallKey]
	goal.Location.Y = 520000
	snaps[95][physics.BallKey] = goal
	return snaps, events.New(tr, snaps, config.Default())
}

func TestDataset(t *testing.T) {
	snaps, det := makeScoringMatch()
	b := New(snaps, det, config.Default())

	rows, err := b.Dataset(15, events.DefaultThreshold)
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}

	// Interval [10, 95) sampled every 15 frames.
	wantFrames := []int{10, 25, 40, 55, 70, 85}
	if len(rows) != len(wantFrames) {
		t.Fatalf("expected %d rows, got %d", len(wantFrames), len(rows))
	}
	for i, r := range rows {
		if r.Frame != wantFrames[i] {
			t.Errorf("row %d: want frame %d, got %d", i, wantFrames[i], r.Frame)
		}
		if r.ScoresNext != 0 {
			t.Errorf("row %d: want team 0 label, got %d", i, r.ScoresNext)
		}
		if len(r.Values) != 91 {
			t.Errorf("row %d: want 91 values, got %d", i, len(r.Values))
		}
	}
}

func TestDatasetInvalidStride(t *testing.T) {
	snaps, det := makeScoringMatch()
	b := New(snaps, det, config.Default())

	if _, err := b.Dataset(0, events.DefaultThreshold); err == nil {
		t.Error("expected error for zero stride")
	}
	if _, err := b.Dataset(15, 2.0); !errors.Is(err, events.ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
}
