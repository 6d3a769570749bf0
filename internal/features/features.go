// Package features flattens frame snapshots into fixed-width numeric
// vectors for the next-scorer classifier, and samples possession
// intervals into a labeled dataset.
package features

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ch-lum/rl-analysis/internal/config"
	"github.com/ch-lum/rl-analysis/internal/events"
	"github.com/ch-lum/rl-analysis/internal/model"
	"github.com/ch-lum/rl-analysis/internal/physics"
)

// ValuesPerEntity is the flattened width of one entity's physics state:
// 3 angular velocity + 3 linear velocity + 3 location + 4 rotation.
const ValuesPerEntity = 13

// Unlabeled marks a feature request without a scorer label.
const Unlabeled = -1

// DefaultStride is the sampling interval, in frames, for dataset rows.
const DefaultStride = 15

// maxShift bounds the forward-shift fallback on frames with missing or
// anomalous snapshots. Past it the frame is dropped rather than chased
// across a systematically corrupt region.
const maxShift = 4

// ErrInvalidScorer reports a scorer label other than team 0 or 1.
var ErrInvalidScorer = errors.New("scorer must be team 0 or 1")

// Builder produces feature vectors from one trace's snapshots.
type Builder struct {
	snaps physics.Frames
	det   *events.Detector
	cfg   *config.Decoder
}

// New returns a Builder over the given snapshots and detector.
func New(snaps physics.Frames, det *events.Detector, cfg *config.Decoder) *Builder {
	return &Builder{snaps: snaps, det: det, cfg: cfg}
}

// Feature flattens the entity snapshots at frame into a fixed-length
// vector: optional scorer label, 13 ball values, then 13 × TeamSize per
// team with missing car slots zero-padded. Pass Unlabeled for scorer to
// omit the label. A frame with no ball snapshot or with more cars than
// team slots shifts forward one frame, up to maxShift times; an
// unusable frame yields nil (logged, not an error) so dataset assembly
// can tolerate sparse or corrupt input.
func (b *Builder) Feature(frame, scorer int) ([]float64, error) {
	if scorer != Unlabeled && scorer != 0 && scorer != 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScorer, scorer)
	}
	return b.feature(frame, scorer, 0), nil
}

func (b *Builder) feature(frame, scorer, shifts int) []float64 {
	if shifts > maxShift {
		logrus.Warnf("no usable frame within %d of frame %d, dropping", maxShift, frame-shifts)
		return nil
	}
	ents := b.snaps[frame]
	if _, ok := ents[physics.BallKey]; !ok {
		return b.feature(frame+1, scorer, shifts+1)
	}

	team0, team1 := partitionCars(ents)
	if len(team0) > b.cfg.TeamSize || len(team1) > b.cfg.TeamSize {
		// Replay anomaly: a stale actor survived past its epoch.
		return b.feature(frame+1, scorer, shifts+1)
	}

	want := ValuesPerEntity * (1 + 2*b.cfg.TeamSize)
	vec := make([]float64, 0, want+1)
	if scorer != Unlabeled {
		want++
		vec = append(vec, float64(scorer))
	}

	vec = appendSnapshot(vec, ents[physics.BallKey])
	for _, keys := range [][]string{team0, team1} {
		for _, key := range keys {
			vec = appendSnapshot(vec, ents[key])
		}
		for n := len(keys); n < b.cfg.TeamSize; n++ {
			vec = append(vec, make([]float64, ValuesPerEntity)...)
		}
	}

	if len(vec) != want {
		logrus.Warnf("feature at frame %d has length %d, want %d, dropping", frame, len(vec), want)
		return nil
	}
	return vec
}

// partitionCars splits the frame's car keys by team, each ordered by
// ascending actor ID so vectors are deterministic.
func partitionCars(ents map[string]physics.Snapshot) (team0, team1 []string) {
	for key := range ents {
		team, ok := physics.CarTeam(key)
		if !ok {
			continue
		}
		if team == 0 {
			team0 = append(team0, key)
		} else {
			team1 = append(team1, key)
		}
	}
	sortByActor(team0)
	sortByActor(team1)
	return team0, team1
}

func sortByActor(keys []string) {
	sort.Slice(keys, func(i, j int) bool { return carActor(keys[i]) < carActor(keys[j]) })
}

func carActor(key string) int {
	_, tail, _ := strings.Cut(key, "_car_")
	id, _ := strconv.Atoi(tail)
	return id
}

// appendSnapshot flattens one snapshot in the fixed field order shared
// with Columns. Changing one without the other breaks the column schema.
func appendSnapshot(dst []float64, s physics.Snapshot) []float64 {
	return append(dst,
		s.AngularVelocity.X, s.AngularVelocity.Y, s.AngularVelocity.Z,
		s.LinearVelocity.X, s.LinearVelocity.Y, s.LinearVelocity.Z,
		s.Location.X, s.Location.Y, s.Location.Z,
		s.Rotation.X, s.Rotation.Y, s.Rotation.Z, s.Rotation.W,
	)
}

// fieldSuffixes mirrors appendSnapshot's order.
var fieldSuffixes = []string{
	"av_x", "av_y", "av_z",
	"lv_x", "lv_y", "lv_z",
	"loc_x", "loc_y", "loc_z",
	"rot_x", "rot_y", "rot_z", "rot_w",
}

// Columns returns the column names matching Feature's output order:
// optional scores_next label, ball columns, then team 0 and team 1 car
// slots.
func (b *Builder) Columns(labeled bool) []string {
	var cols []string
	if labeled {
		cols = append(cols, "scores_next")
	}
	for _, s := range fieldSuffixes {
		cols = append(cols, "ball_"+s)
	}
	for team := 0; team <= 1; team++ {
		for slot := 1; slot <= b.cfg.TeamSize; slot++ {
			for _, s := range fieldSuffixes {
				cols = append(cols, fmt.Sprintf("%dcar%d_%s", team, slot, s))
			}
		}
	}
	return cols
}

// Dataset samples every possession interval at the given frame stride,
// labeling each sampled frame with the eventual scorer. Unusable frames
// are dropped silently; rows from all intervals are concatenated.
func (b *Builder) Dataset(stride int, threshold float64) ([]model.FeatureRow, error) {
	if stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", stride)
	}
	intervals, err := b.det.PossessionIntervals(threshold)
	if err != nil {
		return nil, err
	}
	scorerByGoal := make(map[int]int)
	for _, g := range b.det.FindGoals() {
		scorerByGoal[g.Frame] = g.Team
	}

	var rows []model.FeatureRow
	for _, iv := range intervals {
		scorer := scorerByGoal[iv.GoalFrame]
		for f := iv.Start; f < iv.GoalFrame; f += stride {
			vec, err := b.Feature(f, scorer)
			if err != nil {
				return nil, err
			}
			if vec == nil {
				continue
			}
			rows = append(rows, model.FeatureRow{
				Frame:      f,
				ScoresNext: scorer,
				Values:     vec[1:],
			})
		}
	}
	return rows, nil
}
