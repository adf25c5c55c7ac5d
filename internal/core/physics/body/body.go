// Package body defines the rigid polygon entity simulated by a scene.
package body

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/zeusync/rigidsim/internal/core/physics/polygon"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

var (
	ErrInvalidMass  = errors.New("body: mass must be positive")
	ErrInvalidColor = errors.New("body: colour channels must lie in [0, 1]")
)

// InfiniteMass marks a body as immovable: forces and impulses divided by it
// vanish, so the integrator needs no special case.
var InfiniteMass = math.Inf(1)

// IsInfinite reports whether mass is the infinite-mass sentinel.
func IsInfinite(mass float64) bool { return math.IsInf(mass, 1) }

// Body is a convex polygon with physical state. T is the caller-defined info
// tag; the physics core never inspects it.
//
// A Body is not safe for concurrent use. Once added to a scene it belongs to
// that scene and is released when swept after Remove.
type Body[T any] struct {
	id    string
	shape []vector.Vector2

	mass        float64
	color       Color
	centroid    vector.Vector2
	velocity    vector.Vector2
	orientation float64

	force   vector.Vector2
	impulse vector.Vector2

	info     T
	dispose  func(T)
	removed  bool
	disposed bool
}

type Option[T any] func(*Body[T])

// WithInfo attaches the caller's info tag.
func WithInfo[T any](info T) Option[T] {
	return func(b *Body[T]) { b.info = info }
}

// WithDispose registers a release hook for the info tag. It runs once, when
// the owning scene destroys the body.
func WithDispose[T any](dispose func(T)) Option[T] {
	return func(b *Body[T]) { b.dispose = dispose }
}

func WithVelocity[T any](v vector.Vector2) Option[T] {
	return func(b *Body[T]) { b.velocity = v }
}

// WithID overrides the generated identifier.
func WithID[T any](id string) Option[T] {
	return func(b *Body[T]) { b.id = id }
}

// New creates a body that takes ownership of shape. Shape must be a convex,
// counter-clockwise polygon with at least three vertices, mass must be
// positive (InfiniteMass allowed) and every colour channel must lie in
// [0, 1]; New panics otherwise.
func New[T any](shape []vector.Vector2, mass float64, color Color, opts ...Option[T]) *Body[T] {
	if err := polygon.Validate(shape); err != nil {
		panic(fmt.Errorf("body: invalid shape: %w", err))
	}
	checkMass(mass)
	checkColor(color)

	b := &Body[T]{
		id:       uuid.NewString(),
		shape:    shape,
		mass:     mass,
		color:    color,
		centroid: polygon.Centroid(shape),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Body[T]) ID() string { return b.id }

// Shape returns a copy of the current vertices.
func (b *Body[T]) Shape() []vector.Vector2 { return polygon.Clone(b.shape) }

func (b *Body[T]) Mass() float64                { return b.mass }
func (b *Body[T]) Color() Color                 { return b.color }
func (b *Body[T]) Centroid() vector.Vector2     { return b.centroid }
func (b *Body[T]) Velocity() vector.Vector2     { return b.velocity }
func (b *Body[T]) Orientation() float64         { return b.orientation }
func (b *Body[T]) Force() vector.Vector2        { return b.force }
func (b *Body[T]) Impulse() vector.Vector2      { return b.impulse }
func (b *Body[T]) Info() T                      { return b.info }
func (b *Body[T]) IsRemoved() bool              { return b.removed }
func (b *Body[T]) SetVelocity(v vector.Vector2) { b.velocity = v }
func (b *Body[T]) SetInfo(info T)               { b.info = info }

func (b *Body[T]) SetMass(mass float64) {
	checkMass(mass)
	b.mass = mass
}

// SetCentroid moves the body so that its centroid lands on c.
func (b *Body[T]) SetCentroid(c vector.Vector2) {
	polygon.Translate(b.shape, c.Sub(b.centroid))
	b.centroid = c
}

// SetRotation sets the absolute orientation in radians. The shape is rotated
// about the centroid by the difference from the current orientation, so
// repeated calls with the same angle leave the shape untouched.
func (b *Body[T]) SetRotation(angle float64) {
	polygon.Rotate(b.shape, angle-b.orientation, b.centroid)
	b.centroid = polygon.Centroid(b.shape)
	b.orientation = angle
}

// AddForce accumulates a continuous force applied over the next tick.
func (b *Body[T]) AddForce(f vector.Vector2) { b.force = b.force.Add(f) }

// AddImpulse accumulates an instantaneous impulse applied on the next tick.
func (b *Body[T]) AddImpulse(j vector.Vector2) { b.impulse = b.impulse.Add(j) }

// Remove flags the body for removal. The scene sweeps it during its next
// tick; calling Remove again has no further effect.
func (b *Body[T]) Remove() { b.removed = true }

// Tick integrates the accumulated force and impulse over dt using the
// trapezoidal rule for position, then clears both accumulators.
func (b *Body[T]) Tick(dt float64) {
	next := b.velocity.Add(b.force.Scale(dt).Add(b.impulse).Scale(1 / b.mass))
	b.SetCentroid(b.centroid.Add(b.velocity.Add(next).Scale(dt / 2)))
	b.velocity = next
	b.force = vector.Zero
	b.impulse = vector.Zero
}

// Dispose releases the info tag through the registered hook. Only the first
// call has an effect.
func (b *Body[T]) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	if b.dispose != nil {
		b.dispose(b.info)
	}
	var zero T
	b.info = zero
}

// SetColor panics with ErrInvalidColor when a channel leaves [0, 1].
func (b *Body[T]) SetColor(c Color) {
	checkColor(c)
	b.color = c
}

func checkColor(c Color) {
	if !c.Valid() {
		panic(fmt.Errorf("%w: %+v", ErrInvalidColor, c))
	}
}

func checkMass(mass float64) {
	if math.IsNaN(mass) || mass <= 0 {
		panic(fmt.Errorf("%w: %v", ErrInvalidMass, mass))
	}
}
