package forces

import (
	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/internal/core/physics/collision"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

// ContactState tracks whether a pair is currently in contact.
type ContactState uint8

const (
	// ContactIdle: the bodies were apart at the last check.
	ContactIdle ContactState = iota
	// ContactActive: the bodies overlap and the contact has been reported.
	ContactActive
	// ContactResolved: a handler resolved the contact; it stays resolved
	// until the bodies separate.
	ContactResolved
)

func (s ContactState) String() string {
	switch s {
	case ContactActive:
		return "active"
	case ContactResolved:
		return "resolved"
	}
	return "idle"
}

// Contact is passed to collision handlers on every tick the pair overlaps.
type Contact struct {
	// Axis is the unit normal pointing from the first body toward the second.
	Axis  vector.Vector2
	Depth float64
	// Began is true only on the first tick of a contact.
	Began bool
	// Resolved is true once a handler called Resolve during this contact.
	Resolved bool

	resolve func()
}

// Resolve marks the contact as handled until the bodies separate.
func (c Contact) Resolve() {
	if c.resolve != nil {
		c.resolve()
	}
}

// CollisionHandler reacts to an overlap between a and b. Gameplay code plugs
// its own rules in here.
type CollisionHandler[T any] interface {
	HandleCollision(a, b *body.Body[T], contact Contact)
}

type CollisionHandlerFunc[T any] func(a, b *body.Body[T], contact Contact)

func (f CollisionHandlerFunc[T]) HandleCollision(a, b *body.Body[T], contact Contact) {
	f(a, b, contact)
}

// Collision runs a SAT test between two bodies every tick and forwards
// overlaps to Handler.
type Collision[T any] struct {
	A, B    *body.Body[T]
	Handler CollisionHandler[T]

	state ContactState
}

func (c *Collision[T]) Apply() {
	info := collision.Between(c.A, c.B)
	if !info.Collided {
		c.state = ContactIdle
		return
	}
	began := c.state == ContactIdle
	if began {
		c.state = ContactActive
	}
	c.Handler.HandleCollision(c.A, c.B, Contact{
		Axis:     info.Axis,
		Depth:    info.Depth,
		Began:    began,
		Resolved: c.state == ContactResolved,
		resolve:  func() { c.state = ContactResolved },
	})
}

func (c *Collision[T]) State() ContactState { return c.state }

// Dispose releases the handler when it holds resources.
func (c *Collision[T]) Dispose() {
	if d, ok := c.Handler.(scene.Disposer); ok {
		d.Dispose()
	}
}

// Physics resolves a contact with a one-dimensional restitution impulse along
// the contact axis. Elasticity 1 is perfectly elastic, 0 perfectly inelastic.
// The impulse is applied at most once per contact, on the first tick the
// bodies approach each other while overlapping.
type Physics[T any] struct {
	Elasticity float64
}

func (p Physics[T]) HandleCollision(a, b *body.Body[T], contact Contact) {
	if contact.Resolved {
		return
	}
	ua := a.Velocity().Dot(contact.Axis)
	ub := b.Velocity().Dot(contact.Axis)
	if ub-ua >= 0 {
		return
	}
	j := contact.Axis.Scale(Impulse(a.Mass(), b.Mass(), ua, ub, p.Elasticity))
	a.AddImpulse(j)
	b.AddImpulse(j.Negate())
	contact.Resolve()
}

// ReducedMass returns ma*mb/(ma+mb). When one mass is infinite the other is
// returned; when both are, the pair cannot exchange momentum and 0 is
// returned.
func ReducedMass(ma, mb float64) float64 {
	switch infA, infB := body.IsInfinite(ma), body.IsInfinite(mb); {
	case infA && infB:
		return 0
	case infA:
		return mb
	case infB:
		return ma
	}
	return ma * mb / (ma + mb)
}

// Impulse is the scalar impulse applied to the first body along the contact
// axis, given the bodies' velocity components ua and ub on that axis.
func Impulse(ma, mb, ua, ub, elasticity float64) float64 {
	return ReducedMass(ma, mb) * (1 + elasticity) * (ub - ua)
}

// Destroy removes both bodies on contact.
type Destroy[T any] struct{}

func (Destroy[T]) HandleCollision(a, b *body.Body[T], _ Contact) {
	a.Remove()
	b.Remove()
}

// NewCollision registers a collision generator between a and b driving
// handler. If handler implements scene.Disposer it is disposed together with
// the generator.
func NewCollision[T any](s *scene.Scene[T], a, b *body.Body[T], handler CollisionHandler[T]) *scene.Generator[T] {
	return s.AddGenerator(&Collision[T]{A: a, B: b, Handler: handler}, a, b)
}

// NewPhysicsCollision registers an impulse-based collision between a and b.
func NewPhysicsCollision[T any](s *scene.Scene[T], elasticity float64, a, b *body.Body[T]) *scene.Generator[T] {
	return NewCollision(s, a, b, CollisionHandler[T](Physics[T]{Elasticity: elasticity}))
}

// NewDestructiveCollision registers a collision that removes both bodies.
func NewDestructiveCollision[T any](s *scene.Scene[T], a, b *body.Body[T]) *scene.Generator[T] {
	return NewCollision(s, a, b, CollisionHandler[T](Destroy[T]{}))
}
