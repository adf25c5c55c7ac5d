// Package polygon implements geometry over vertex lists in counter-clockwise
// winding. Vertex slices are mutated in place by Translate and Rotate.
package polygon

import (
	"errors"
	"fmt"

	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

var (
	ErrDegenerate      = errors.New("polygon: zero area")
	ErrTooFewVertices  = errors.New("polygon: fewer than 3 vertices")
	ErrClockwise       = errors.New("polygon: clockwise winding")
	ErrInvalidGeometry = errors.New("polygon: invalid shape parameters")
)

// Area returns the signed shoelace area. It is positive for counter-clockwise
// polygons.
func Area(vertices []vector.Vector2) float64 {
	n := len(vertices)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += vertices[i].Cross(vertices[(i+1)%n])
	}
	return sum / 2
}

// Centroid returns the area-weighted centroid. It panics with ErrDegenerate
// when the polygon has zero area.
func Centroid(vertices []vector.Vector2) vector.Vector2 {
	area := Area(vertices)
	if area == 0 {
		panic(fmt.Errorf("%w: %d vertices", ErrDegenerate, len(vertices)))
	}
	n := len(vertices)
	var cx, cy float64
	for i := 0; i < n; i++ {
		a, b := vertices[i], vertices[(i+1)%n]
		det := a.Cross(b)
		cx += (a.X + b.X) * det
		cy += (a.Y + b.Y) * det
	}
	return vector.New(cx/(6*area), cy/(6*area))
}

// Translate adds delta to every vertex.
func Translate(vertices []vector.Vector2, delta vector.Vector2) {
	for i := range vertices {
		vertices[i] = vertices[i].Add(delta)
	}
}

// Rotate rotates every vertex by angle radians about pivot.
func Rotate(vertices []vector.Vector2, angle float64, pivot vector.Vector2) {
	Translate(vertices, pivot.Negate())
	for i := range vertices {
		vertices[i] = vertices[i].Rotate(angle)
	}
	Translate(vertices, pivot)
}

// Clone returns an independent copy of vertices.
func Clone(vertices []vector.Vector2) []vector.Vector2 {
	out := make([]vector.Vector2, len(vertices))
	copy(out, vertices)
	return out
}

// Validate checks the preconditions the physics core relies on: at least
// three vertices, non-zero area, counter-clockwise winding.
func Validate(vertices []vector.Vector2) error {
	if len(vertices) < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewVertices, len(vertices))
	}
	area := Area(vertices)
	switch {
	case area == 0:
		return ErrDegenerate
	case area < 0:
		return ErrClockwise
	}
	return nil
}
