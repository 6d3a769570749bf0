// Package trace loads a decoded replay trace and exposes it as flat,
// immutable frame/replication records. The on-disk shape is the JSON tree
// produced by the external rattletrap decoder; it is converted exactly
// once at load time and never consulted again.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ErrMalformedTrace reports a trace whose epoch-boundary list does not
// start at frame 0.
var ErrMalformedTrace = errors.New("malformed trace")

// Vec3 is a 3-component physics vector.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// RigidBody is the physics payload of an update replication. Velocity
// pointers are nil when the decoder emitted explicit nulls, which the
// extractor treats as "no reliable physics this tick".
type RigidBody struct {
	AngularVelocity *Vec3
	LinearVelocity  *Vec3
	Location        Vec3
	Rotation        Quat
}

// Property is one updated field on an actor. Exactly one of the payload
// pointers is set, selected by the decoder-specific property tag.
type Property struct {
	ID        int
	RigidBody *RigidBody
	TeamPaint *TeamPaint
}

// TeamPaint carries the team assignment of a car actor.
type TeamPaint struct {
	Team int
}

// Replication is one actor-level event within a frame: a spawn
// (ClassName set) or an update (Updated set). ActorID is a transient
// identity, valid only within the spawn epoch that assigned it.
type Replication struct {
	ActorID   int
	ClassName string // non-empty for spawn events
	Updated   []Property
}

// Spawned reports whether this replication introduces a new actor.
func (r Replication) Spawned() bool { return r.ClassName != "" }

// Frame is one simulation tick's worth of replications.
type Frame struct {
	Replications []Replication
}

// Mark is a scoring mark: an annotation frame plus a value tag naming
// which side scored.
type Mark struct {
	Frame int
	Value string
}

// Trace is the full decoded replay. Immutable after Load.
type Trace struct {
	Frames    []Frame
	KeyFrames []int    // epoch boundaries, ascending, first entry is 0
	Objects   []string // catalogue of known actor class names
	Marks     []Mark
}

// HasObject reports whether the class name appears in the trace's
// object catalogue.
func (t *Trace) HasObject(class string) bool {
	for _, o := range t.Objects {
		if o == class {
			return true
		}
	}
	return false
}

// Load reads and converts a rattletrap JSON trace from disk.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return Decode(data)
}

// Decode converts raw rattletrap JSON into a Trace. Fails with
// ErrMalformedTrace when the first epoch boundary is not frame 0.
func Decode(data []byte) (*Trace, error) {
	var w wireTrace
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}

	body := w.Content.Body
	t := &Trace{
		Frames:    make([]Frame, len(body.Frames)),
		KeyFrames: make([]int, len(body.KeyFrames)),
		Objects:   body.Objects,
		Marks:     make([]Mark, len(body.Marks)),
	}

	for i, kf := range body.KeyFrames {
		t.KeyFrames[i] = kf.Frame
	}
	sort.Ints(t.KeyFrames)
	if len(t.KeyFrames) == 0 || t.KeyFrames[0] != 0 {
		return nil, fmt.Errorf("%w: first epoch boundary must be frame 0", ErrMalformedTrace)
	}

	for i, m := range body.Marks {
		t.Marks[i] = Mark{Frame: m.Frame, Value: m.Value}
	}

	for i, wf := range body.Frames {
		frame := Frame{Replications: make([]Replication, 0, len(wf.Replications))}
		for _, wr := range wf.Replications {
			frame.Replications = append(frame.Replications, convertReplication(wr))
		}
		t.Frames[i] = frame
	}
	return t, nil
}

func convertReplication(wr wireReplication) Replication {
	rep := Replication{ActorID: wr.ActorID.Value}
	if wr.Value.Spawned != nil {
		rep.ClassName = wr.Value.Spawned.ClassName
		return rep
	}
	for _, wu := range wr.Value.Updated {
		p := Property{ID: wu.ID.Value}
		if rbs := wu.Value.RigidBodyState; rbs != nil {
			rb := &RigidBody{}
			if rbs.AngularVelocity != nil {
				v := Vec3{rbs.AngularVelocity.X, rbs.AngularVelocity.Y, rbs.AngularVelocity.Z}
				rb.AngularVelocity = &v
			}
			if rbs.LinearVelocity != nil {
				v := Vec3{rbs.LinearVelocity.X, rbs.LinearVelocity.Y, rbs.LinearVelocity.Z}
				rb.LinearVelocity = &v
			}
			if rbs.Location != nil {
				rb.Location = Vec3{rbs.Location.X, rbs.Location.Y, rbs.Location.Z}
			}
			if rbs.Rotation != nil && rbs.Rotation.Quaternion != nil {
				q := rbs.Rotation.Quaternion
				rb.Rotation = Quat{q.X, q.Y, q.Z, q.W}
			}
			p.RigidBody = rb
		}
		if tp := wu.Value.TeamPaint; tp != nil {
			p.TeamPaint = &TeamPaint{Team: tp.Team}
		}
		rep.Updated = append(rep.Updated, p)
	}
	return rep
}

// ---- rattletrap wire format ----

type wireTrace struct {
	Content struct {
		Body struct {
			KeyFrames []wireKeyFrame `json:"key_frames"`
			Frames    []wireFrame    `json:"frames"`
			Objects   []string       `json:"objects"`
			Marks     []wireMark     `json:"marks"`
		} `json:"body"`
	} `json:"content"`
}

type wireKeyFrame struct {
	Frame int `json:"frame"`
}

type wireMark struct {
	Frame int    `json:"frame"`
	Value string `json:"value"`
}

type wireFrame struct {
	Replications []wireReplication `json:"replications"`
}

type wireReplication struct {
	ActorID struct {
		Value int `json:"value"`
	} `json:"actor_id"`
	Value struct {
		Spawned *struct {
			ClassName string `json:"class_name"`
		} `json:"spawned"`
		Updated []wireUpdate `json:"updated"`
	} `json:"value"`
}

type wireUpdate struct {
	ID struct {
		Value int `json:"value"`
	} `json:"id"`
	Value struct {
		RigidBodyState *wireRigidBody `json:"rigid_body_state"`
		TeamPaint      *struct {
			Team int `json:"team"`
		} `json:"team_paint"`
	} `json:"value"`
}

type wireVec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireRigidBody struct {
	Sleeping        bool      `json:"sleeping"`
	AngularVelocity *wireVec3 `json:"angular_velocity"`
	LinearVelocity  *wireVec3 `json:"linear_velocity"`
	Location        *wireVec3 `json:"location"`
	Rotation        *struct {
		Quaternion *struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
			W float64 `json:"w"`
		} `json:"quaternion"`
	} `json:"rotation"`
}
