package simulation

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
	"github.com/zeusync/rigidsim/pkg/generic"
)

var digests = generic.NewPool(xxhash.New, (*xxhash.Digest).Reset)

// Frame is an immutable copy of a scene between two ticks.
type Frame struct {
	Tick        uint64      `json:"tick"`
	Time        float64     `json:"time"`
	Bodies      []BodyState `json:"bodies"`
	Fingerprint uint64      `json:"fingerprint,string"`
}

// BodyState is the copied-out state of one body. Infinite masses cannot be
// encoded in JSON, so they are reported as Immovable with a zero Mass.
type BodyState struct {
	ID          string           `json:"id"`
	Label       string           `json:"label,omitempty"`
	Vertices    []vector.Vector2 `json:"vertices"`
	Centroid    vector.Vector2   `json:"centroid"`
	Velocity    vector.Vector2   `json:"velocity"`
	Orientation float64          `json:"orientation"`
	Color       body.Color       `json:"color"`
	Mass        float64          `json:"mass,omitempty"`
	Immovable   bool             `json:"immovable,omitempty"`
}

// Snapshot copies the current state of every body in s.
func Snapshot[T any](s *scene.Scene[T]) Frame {
	f := Frame{
		Tick:   s.Ticks(),
		Time:   s.Elapsed(),
		Bodies: make([]BodyState, 0, s.BodyCount()),
	}
	for b := range s.Bodies() {
		st := BodyState{
			ID:          b.ID(),
			Label:       label(b.Info()),
			Vertices:    b.Shape(),
			Centroid:    b.Centroid(),
			Velocity:    b.Velocity(),
			Orientation: b.Orientation(),
			Color:       b.Color(),
		}
		if body.IsInfinite(b.Mass()) {
			st.Immovable = true
		} else {
			st.Mass = b.Mass()
		}
		f.Bodies = append(f.Bodies, st)
	}
	f.Fingerprint = Fingerprint(f)
	return f
}

func label(info any) string {
	switch v := info.(type) {
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}

// Fingerprint hashes the kinematic state of a frame: tick, body IDs, vertices,
// velocities and orientations. Two runs of the same scenario with the same
// time step yield the same sequence of fingerprints.
func Fingerprint(f Frame) uint64 {
	return generic.With(digests, func(d *xxhash.Digest) uint64 {
		return fingerprint(d, f)
	})
}

func fingerprint(d *xxhash.Digest, f Frame) uint64 {
	var buf [8]byte
	putUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putFloat := func(v float64) { putUint(math.Float64bits(v)) }

	putUint(f.Tick)
	putFloat(f.Time)
	for _, b := range f.Bodies {
		_, _ = d.WriteString(b.ID)
		for _, v := range b.Vertices {
			putFloat(v.X)
			putFloat(v.Y)
		}
		putFloat(b.Velocity.X)
		putFloat(b.Velocity.Y)
		putFloat(b.Orientation)
	}
	return d.Sum64()
}
