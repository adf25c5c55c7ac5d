// Package collision implements Separating Axis Theorem tests between convex
// polygons.
package collision

import (
	"math"

	"github.com/zeusync/rigidsim/internal/core/physics/polygon"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

// Info describes the outcome of a collision test.
type Info struct {
	Collided bool
	// Axis is the unit contact normal, oriented from the first shape toward
	// the second. Undefined when Collided is false.
	Axis vector.Vector2
	// Depth is the penetration distance along Axis.
	Depth float64
}

// Shape is anything that can hand out its current vertices.
type Shape interface {
	Shape() []vector.Vector2
}

// Find tests two convex, counter-clockwise polygons for overlap. Candidate
// axes are the edge normals of both shapes; the first axis with disjoint
// projections proves separation. Otherwise the axis of minimum overlap is
// returned as the contact normal.
func Find(a, b []vector.Vector2) Info {
	best := math.Inf(1)
	var axis vector.Vector2

	for _, candidate := range axes(a, b) {
		minA, maxA := project(a, candidate)
		minB, maxB := project(b, candidate)
		if maxB < minA || maxA < minB {
			return Info{}
		}
		overlap := math.Min(math.Abs(maxB-minA), math.Abs(maxA-minB))
		if overlap < best {
			best = overlap
			axis = candidate
		}
	}

	if polygon.Centroid(b).Sub(polygon.Centroid(a)).Dot(axis) < 0 {
		axis = axis.Negate()
	}
	return Info{Collided: true, Axis: axis, Depth: best}
}

// Between runs Find on the current shapes of two bodies.
func Between(a, b Shape) Info {
	return Find(a.Shape(), b.Shape())
}

// axes returns the unit normal of every edge of a followed by every edge of
// b. Zero-length edges contribute no axis.
func axes(a, b []vector.Vector2) []vector.Vector2 {
	out := make([]vector.Vector2, 0, len(a)+len(b))
	for _, shape := range [][]vector.Vector2{a, b} {
		n := len(shape)
		for i := 0; i < n; i++ {
			normal := shape[i].Sub(shape[(i+1)%n]).Perp()
			if normal == vector.Zero {
				continue
			}
			out = append(out, normal.Normalize())
		}
	}
	return out
}

func project(shape []vector.Vector2, axis vector.Vector2) (lo, hi float64) {
	lo = shape[0].Dot(axis)
	hi = lo
	for _, v := range shape[1:] {
		p := v.Dot(axis)
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi
}
