// Package resolver maps transient actor IDs to entity classes and teams.
// Actor IDs are reused across a replay's lifetime, so every lookup is
// scoped to a spawn epoch and rebuilt on demand; nothing here keeps a
// global actor table.
package resolver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ch-lum/rl-analysis/internal/config"
	"github.com/ch-lum/rl-analysis/internal/trace"
)

var (
	// ErrInvalidEpoch reports an epoch-start frame that is not one of
	// the trace's epoch boundaries.
	ErrInvalidEpoch = errors.New("not an epoch boundary")
	// ErrUnknownClass reports a class name absent from the trace's
	// object catalogue.
	ErrUnknownClass = errors.New("unknown class")
	// ErrInvalidFrame reports a negative frame index.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Resolver answers identity questions about one trace.
type Resolver struct {
	tr  *trace.Trace
	cfg *config.Decoder
}

// New returns a Resolver over the given trace.
func New(tr *trace.Trace, cfg *config.Decoder) *Resolver {
	return &Resolver{tr: tr, cfg: cfg}
}

// SpawnEpochFor returns the largest epoch boundary ≤ frame.
func (r *Resolver) SpawnEpochFor(frame int) (int, error) {
	if frame < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidFrame, frame)
	}
	// KeyFrames is sorted ascending with KeyFrames[0] == 0, so the
	// predecessor always exists.
	i := sort.SearchInts(r.tr.KeyFrames, frame+1)
	return r.tr.KeyFrames[i-1], nil
}

// ResolveEpoch returns the actor_id → class_name mapping established by
// the spawn events at the given epoch boundary.
func (r *Resolver) ResolveEpoch(epochStart int) (map[int]string, error) {
	if !r.isBoundary(epochStart) {
		return nil, fmt.Errorf("%w: frame %d", ErrInvalidEpoch, epochStart)
	}
	classes := make(map[int]string)
	for _, rep := range r.tr.Frames[epochStart].Replications {
		if !rep.Spawned() {
			continue
		}
		classes[rep.ActorID] = rep.ClassName
	}
	return classes, nil
}

// FindActorIDs returns the ascending actor IDs spawned as the given class
// in the epoch starting at epochStart. The IDs are only meaningful within
// that epoch.
func (r *Resolver) FindActorIDs(class string, epochStart int) ([]int, error) {
	if !r.tr.HasObject(class) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	classes, err := r.ResolveEpoch(epochStart)
	if err != nil {
		return nil, err
	}
	var ids []int
	for id, c := range classes {
		if c == class {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// ResolveTeams returns team (0|1) → car actor IDs for the epoch starting
// at epochStart. A car is assigned a team only once a non-spawn update
// replication carries team-paint data for it; spawn replications in the
// boundary frame are skipped.
func (r *Resolver) ResolveTeams(epochStart int) (map[int][]int, error) {
	cars, err := r.FindActorIDs(r.cfg.CarClass, epochStart)
	if err != nil {
		return nil, err
	}
	carSet := make(map[int]bool, len(cars))
	for _, id := range cars {
		carSet[id] = true
	}

	teams := map[int][]int{0: nil, 1: nil}
	for _, rep := range r.tr.Frames[epochStart].Replications {
		if rep.Spawned() || !carSet[rep.ActorID] {
			continue
		}
		for _, p := range rep.Updated {
			if p.ID != r.cfg.TeamPaintProperty || p.TeamPaint == nil {
				continue
			}
			teams[p.TeamPaint.Team] = append(teams[p.TeamPaint.Team], rep.ActorID)
		}
	}
	return teams, nil
}

func (r *Resolver) isBoundary(frame int) bool {
	i := sort.SearchInts(r.tr.KeyFrames, frame)
	return i < len(r.tr.KeyFrames) && r.tr.KeyFrames[i] == frame
}
