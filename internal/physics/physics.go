// Package physics reconstructs per-frame rigid-body state for the ball
// and cars from the sparse replication stream. Output is computed once
// per trace and is read-only afterwards.
package physics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ch-lum/rl-analysis/internal/config"
	"github.com/ch-lum/rl-analysis/internal/resolver"
	"github.com/ch-lum/rl-analysis/internal/trace"
)

// BallKey is the entity key of the singleton ball.
const BallKey = "ball"

// CarKey builds the entity key for a car: "{team}_car_{actorID}".
func CarKey(team, actorID int) string {
	return fmt.Sprintf("%d_car_%d", team, actorID)
}

// CarTeam extracts the team from a car entity key. ok is false for the
// ball key or anything that does not follow the car convention.
func CarTeam(key string) (team int, ok bool) {
	head, _, found := strings.Cut(key, "_car_")
	if !found {
		return 0, false
	}
	team, err := strconv.Atoi(head)
	if err != nil || (team != 0 && team != 1) {
		return 0, false
	}
	return team, true
}

// Snapshot is the rigid-body state of one entity at one frame.
type Snapshot struct {
	AngularVelocity trace.Vec3
	LinearVelocity  trace.Vec3
	Location        trace.Vec3
	Rotation        trace.Quat
}

// Frames maps frame index → entity key → snapshot. Sparse: frames and
// entities without usable physics are simply absent.
type Frames map[int]map[string]Snapshot

// Snapshot returns the snapshot for an entity at a frame, if present.
func (f Frames) Snapshot(frame int, key string) (Snapshot, bool) {
	s, ok := f[frame][key]
	return s, ok
}

// Present reports whether any entity has a snapshot at the frame.
func (f Frames) Present(frame int) bool {
	return len(f[frame]) > 0
}

// MaxFrame returns the highest frame index carrying any snapshot, or -1
// for an empty collection.
func (f Frames) MaxFrame() int {
	max := -1
	for i := range f {
		if i > max {
			max = i
		}
	}
	return max
}

func (f Frames) set(frame int, key string, s Snapshot) {
	m, ok := f[frame]
	if !ok {
		m = make(map[string]Snapshot)
		f[frame] = m
	}
	m[key] = s
}

// Options tunes the extraction pass.
type Options struct {
	// Interpolate back-fills entity gaps of up to four frames with a
	// forward copy of the reappearing snapshot.
	Interpolate bool
}

// DefaultOptions enables interpolation.
func DefaultOptions() Options { return Options{Interpolate: true} }

// maxGap is the longest entity absence (in frames) that back-fill will
// bridge. Longer gaps are genuine absences (unspawned car, match pause).
const maxGap = 4

// Extract walks every frame of the trace and produces the snapshot
// collection. The epoch cursor re-resolves ball/car identities and team
// assignments at every epoch boundary.
func Extract(tr *trace.Trace, cfg *config.Decoder, opts Options) (Frames, error) {
	res := resolver.New(tr, cfg)
	out := make(Frames)

	cursor := 0
	ballSet := make(map[int]bool)
	carTeam := make(map[int]int)

	for i := range tr.Frames {
		if cursor < len(tr.KeyFrames) && i == tr.KeyFrames[cursor] {
			epoch := tr.KeyFrames[cursor]
			if err := rebuildEpoch(res, cfg, epoch, ballSet, carTeam); err != nil {
				return nil, fmt.Errorf("epoch at frame %d: %w", epoch, err)
			}
			cursor++
		}

		for _, rep := range tr.Frames[i].Replications {
			if rep.Spawned() {
				continue
			}
			isBall := ballSet[rep.ActorID]
			team, isCar := carTeam[rep.ActorID]
			if !isBall && !isCar {
				continue
			}

			rb := findRigidBody(rep.Updated, cfg.PhysicsProperty)
			if rb == nil {
				// Entity not physically simulated this tick, e.g. a
				// demolished car.
				continue
			}
			if rb.AngularVelocity == nil || rb.LinearVelocity == nil {
				// Explicit nulls mean no reliable physics, not zero.
				continue
			}

			key := BallKey
			if !isBall {
				key = CarKey(team, rep.ActorID)
			}
			out.set(i, key, Snapshot{
				AngularVelocity: *rb.AngularVelocity,
				LinearVelocity:  *rb.LinearVelocity,
				Location:        rb.Location,
				Rotation:        rb.Rotation,
			})
			if opts.Interpolate {
				backfill(out, i, key)
			}
		}
	}
	return out, nil
}

// rebuildEpoch replaces the tracked-actor tables with the new epoch's
// identities. The tables are the only epoch-scoped state; actor IDs from
// earlier epochs must not leak forward.
func rebuildEpoch(res *resolver.Resolver, cfg *config.Decoder, epoch int, ballSet map[int]bool, carTeam map[int]int) error {
	ballIDs, err := res.FindActorIDs(cfg.BallClass, epoch)
	if err != nil {
		return err
	}
	carIDs, err := res.FindActorIDs(cfg.CarClass, epoch)
	if err != nil {
		return err
	}
	teams, err := res.ResolveTeams(epoch)
	if err != nil {
		return err
	}

	clear(ballSet)
	for _, id := range ballIDs {
		ballSet[id] = true
	}
	clear(carTeam)
	for _, id := range carIDs {
		carTeam[id] = 0
	}
	for _, id := range teams[1] {
		if _, ok := carTeam[id]; ok {
			carTeam[id] = 1
		}
	}
	return nil
}

func findRigidBody(updated []trace.Property, physicsTag int) *trace.RigidBody {
	for _, p := range updated {
		if p.ID == physicsTag && p.RigidBody != nil {
			return p.RigidBody
		}
	}
	return nil
}

// backfill copies the snapshot that just appeared at frame i into the
// immediately preceding gap, provided the gap is 1..maxGap frames long
// and is bounded below by an earlier snapshot. Frame 0 is never filled
// backward; a gap with no preceding snapshot is a genuine absence.
func backfill(out Frames, i int, key string) {
	if i == 0 {
		return
	}
	if _, ok := out.Snapshot(i-1, key); ok {
		return
	}
	gap := 0
	j := i - 1
	for j >= 0 && gap <= maxGap {
		if _, ok := out.Snapshot(j, key); ok {
			break
		}
		gap++
		j--
	}
	if j < 0 || gap > maxGap {
		return
	}
	snap := out[i][key]
	for f := i - gap; f < i; f++ {
		out.set(f, key, snap)
	}
}
