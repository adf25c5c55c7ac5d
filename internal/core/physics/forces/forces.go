// Package forces provides the built-in force generators and the helpers that
// register them on a scene.
package forces

import (
	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

// MinGravityDistance is the centroid separation at or below which Newtonian
// gravity is not applied.
const MinGravityDistance = 5.0

// Gravity applies G*m1*m2/d^2 along the line between two centroids, equal and
// opposite on both bodies. Pairs involving an infinite mass are skipped since
// the force on the finite body would be unbounded.
type Gravity[T any] struct {
	G           float64
	MinDistance float64
	A, B        *body.Body[T]
}

func (g *Gravity[T]) Apply() {
	if body.IsInfinite(g.A.Mass()) || body.IsInfinite(g.B.Mass()) {
		return
	}
	d := g.B.Centroid().Sub(g.A.Centroid())
	dist := d.Length()
	if dist <= g.MinDistance {
		return
	}
	magnitude := g.G * g.A.Mass() * g.B.Mass() / (dist * dist)
	f := d.Scale(magnitude / dist)
	g.A.AddForce(f)
	g.B.AddForce(f.Negate())
}

// Spring is an undamped Hookean spring of zero rest length between two
// centroids.
type Spring[T any] struct {
	K    float64
	A, B *body.Body[T]
}

func (s *Spring[T]) Apply() {
	f := s.B.Centroid().Sub(s.A.Centroid()).Scale(s.K)
	s.A.AddForce(f)
	s.B.AddForce(f.Negate())
}

// Drag opposes a body's velocity in proportion to it.
type Drag[T any] struct {
	Gamma float64
	Body  *body.Body[T]
}

func (d *Drag[T]) Apply() {
	d.Body.AddForce(d.Body.Velocity().Scale(-d.Gamma))
}

// UniformGravity accelerates a single body by a constant field, e.g. "down".
// Infinite-mass bodies are left alone.
type UniformGravity[T any] struct {
	Acceleration vector.Vector2
	Body         *body.Body[T]
}

func (u *UniformGravity[T]) Apply() {
	if body.IsInfinite(u.Body.Mass()) {
		return
	}
	u.Body.AddForce(u.Acceleration.Scale(u.Body.Mass()))
}

// NewGravity registers Newtonian gravity with constant g between a and b.
func NewGravity[T any](s *scene.Scene[T], g float64, a, b *body.Body[T]) *scene.Generator[T] {
	return s.AddGenerator(&Gravity[T]{G: g, MinDistance: MinGravityDistance, A: a, B: b}, a, b)
}

// NewSpring registers a spring with stiffness k between a and b.
func NewSpring[T any](s *scene.Scene[T], k float64, a, b *body.Body[T]) *scene.Generator[T] {
	return s.AddGenerator(&Spring[T]{K: k, A: a, B: b}, a, b)
}

// NewDrag registers linear drag with coefficient gamma on b.
func NewDrag[T any](s *scene.Scene[T], gamma float64, b *body.Body[T]) *scene.Generator[T] {
	return s.AddGenerator(&Drag[T]{Gamma: gamma, Body: b}, b)
}

// NewUniformGravity registers a constant acceleration field on b.
func NewUniformGravity[T any](s *scene.Scene[T], accel vector.Vector2, b *body.Body[T]) *scene.Generator[T] {
	return s.AddGenerator(&UniformGravity[T]{Acceleration: accel, Body: b}, b)
}
