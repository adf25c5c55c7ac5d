package forces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
	"github.com/zeusync/rigidsim/internal/core/physics/vector/vectortest"
)

type countingHandler struct {
	contacts []Contact
	disposed int
}

func (h *countingHandler) HandleCollision(_, _ *body.Body[string], c Contact) {
	h.contacts = append(h.contacts, c)
}

func (h *countingHandler) Dispose() { h.disposed++ }

func TestCollisionContactState(t *testing.T) {
	a, b := box(0, 0, 1, 1), box(1.5, 0, 1, 1)
	h := &countingHandler{}
	c := &Collision[string]{A: a, B: b, Handler: h}

	c.Apply()
	c.Apply()
	c.Apply()
	require.Len(t, h.contacts, 3)
	assert.True(t, h.contacts[0].Began)
	assert.False(t, h.contacts[1].Began)
	assert.False(t, h.contacts[2].Began)
	assert.Equal(t, ContactActive, c.State())
	vectortest.InDelta(t, vector.New(1, 0), h.contacts[0].Axis, 1e-12)
	assert.InDelta(t, 0.5, h.contacts[0].Depth, 1e-12)

	b.SetCentroid(vector.New(10, 0))
	c.Apply()
	assert.Len(t, h.contacts, 3)
	assert.Equal(t, ContactIdle, c.State())
	assert.Equal(t, "idle", c.State().String())

	b.SetCentroid(vector.New(1.9, 0))
	c.Apply()
	require.Len(t, h.contacts, 4)
	assert.True(t, h.contacts[3].Began)
}

func TestCustomHandlerDisposedWithGenerator(t *testing.T) {
	s := scene.New[string]()
	a, b := box(0, 0, 1, 1), box(5, 0, 1, 1)
	s.AddBody(a)
	s.AddBody(b)
	h := &countingHandler{}
	NewCollision(s, a, b, CollisionHandler[string](h))

	s.Tick(0.01)
	assert.Empty(t, h.contacts)

	b.Remove()
	s.Tick(0.01)
	assert.Equal(t, 0, s.GeneratorCount())
	assert.Equal(t, 1, h.disposed)
}

func TestHandlerFunc(t *testing.T) {
	a, b := box(0, 0, 1, 1), box(1, 1, 1, 1)
	hits := 0
	c := &Collision[string]{A: a, B: b, Handler: CollisionHandlerFunc[string](func(x, y *body.Body[string], _ Contact) {
		assert.Same(t, a, x)
		assert.Same(t, b, y)
		hits++
	})}
	c.Apply()
	assert.Equal(t, 1, hits)
}

func momentum(bs ...*body.Body[string]) vector.Vector2 {
	total := vector.Zero
	for _, b := range bs {
		total = total.Add(b.Velocity().Scale(b.Mass()))
	}
	return total
}

func TestElasticCollisionEqualMassesExchangeVelocities(t *testing.T) {
	s := scene.New[string]()
	a, b := box(0, 0, 1, 2), box(1.9, 0, 1, 2)
	a.SetVelocity(vector.New(3, 0))
	b.SetVelocity(vector.New(-1, 0))
	s.AddBody(a)
	s.AddBody(b)
	NewPhysicsCollision(s, 1, a, b)

	before := momentum(a, b)
	s.Tick(0.001)

	assert.InDelta(t, -1, a.Velocity().X, 1e-9)
	assert.InDelta(t, 3, b.Velocity().X, 1e-9)
	vectortest.InDelta(t, before, momentum(a, b), 1e-9)
}

func TestElasticCollisionConservesMomentum(t *testing.T) {
	s := scene.New[string]()
	a, b := box(0, 0, 1, 1), box(1.8, 0.5, 1, 5)
	a.SetVelocity(vector.New(4, 1))
	b.SetVelocity(vector.New(-0.5, 0))
	s.AddBody(a)
	s.AddBody(b)
	NewPhysicsCollision(s, 1, a, b)

	before := momentum(a, b)
	energy := func() float64 {
		return 0.5*a.Mass()*a.Velocity().Dot(a.Velocity()) + 0.5*b.Mass()*b.Velocity().Dot(b.Velocity())
	}
	e0 := energy()
	s.Tick(0.001)

	vectortest.InDelta(t, before, momentum(a, b), 1e-9)
	assert.InDelta(t, e0, energy(), 1e-9)
	// Tangential components are untouched.
	assert.InDelta(t, 1, a.Velocity().Y, 1e-12)
}

func TestImpulseAppliedOncePerContact(t *testing.T) {
	s := scene.New[string]()
	a, b := box(0, 0, 1, 1), box(1.5, 0, 1, 1)
	a.SetVelocity(vector.New(1, 0))
	s.AddBody(a)
	s.AddBody(b)
	NewPhysicsCollision(s, 1, a, b)

	// Hold b in place against a re-approaching a: without the contact state
	// a second impulse would be applied while the overlap persists.
	s.Tick(0.001)
	assert.InDelta(t, 0, a.Velocity().X, 1e-9)
	assert.InDelta(t, 1, b.Velocity().X, 1e-9)

	a.SetVelocity(vector.New(5, 0))
	b.SetVelocity(vector.Zero)
	s.Tick(0.001)
	assert.InDelta(t, 5, a.Velocity().X, 1e-9)
	assert.InDelta(t, 0, b.Velocity().X, 1e-9)
}

func TestInelasticCollision(t *testing.T) {
	s := scene.New[string]()
	a, b := box(0, 0, 1, 1), box(1.9, 0, 1, 1)
	a.SetVelocity(vector.New(2, 0))
	s.AddBody(a)
	s.AddBody(b)
	NewPhysicsCollision(s, 0, a, b)

	s.Tick(0.001)
	assert.InDelta(t, 1, a.Velocity().X, 1e-9)
	assert.InDelta(t, 1, b.Velocity().X, 1e-9)
}

func TestInfiniteMassReflects(t *testing.T) {
	s := scene.New[string]()
	ball := box(0, 0, 1, 3)
	wall := box(1.9, 0, 1, body.InfiniteMass)
	ball.SetVelocity(vector.New(2, 0.5))
	s.AddBody(ball)
	s.AddBody(wall)
	NewPhysicsCollision(s, 1, ball, wall)

	s.Tick(0.001)
	assert.InDelta(t, -2, ball.Velocity().X, 1e-9)
	assert.InDelta(t, 0.5, ball.Velocity().Y, 1e-9)
	assert.Equal(t, vector.Zero, wall.Velocity())
	vectortest.InDelta(t, vector.New(1.9, 0), wall.Centroid(), 1e-12)
}

func TestSeparatingBodiesGetNoImpulse(t *testing.T) {
	a, b := box(0, 0, 1, 1), box(1.5, 0, 1, 1)
	a.SetVelocity(vector.New(-1, 0))
	b.SetVelocity(vector.New(1, 0))
	c := &Collision[string]{A: a, B: b, Handler: Physics[string]{Elasticity: 1}}
	c.Apply()
	assert.Equal(t, vector.Zero, a.Impulse())
	assert.Equal(t, vector.Zero, b.Impulse())
}

func TestContactStartingApartResolvesOnApproach(t *testing.T) {
	s := scene.New[string]()
	a, b := box(0, 0, 1, 1), box(0.9, 0, 1, 1)
	b.SetVelocity(vector.New(0.5, 0))
	s.AddBody(a)
	s.AddBody(b)
	g := NewPhysicsCollision(s, 1, a, b)
	c := g.Action().(*Collision[string])

	s.Tick(0.01)
	s.Tick(0.01)
	assert.Equal(t, ContactActive, c.State())
	assert.InDelta(t, 0.5, b.Velocity().X, 1e-12)

	b.SetVelocity(vector.New(-2, 0))
	s.Tick(0.01)
	assert.Equal(t, ContactResolved, c.State())
	assert.Equal(t, "resolved", c.State().String())
	assert.InDelta(t, -2, a.Velocity().X, 1e-9)
	assert.InDelta(t, 0, b.Velocity().X, 1e-9)

	for range 200 {
		s.Tick(0.01)
	}
	assert.Less(t, a.Centroid().X, b.Centroid().X-1, "b must not pass through a")
}

func TestResolveIsScopedToOneContact(t *testing.T) {
	a, b := box(0, 0, 1, 1), box(1.5, 0, 1, 1)
	h := CollisionHandlerFunc[string](func(_, _ *body.Body[string], c Contact) { c.Resolve() })
	c := &Collision[string]{A: a, B: b, Handler: h}

	c.Apply()
	assert.Equal(t, ContactResolved, c.State())
	c.Apply()
	assert.Equal(t, ContactResolved, c.State())

	b.SetCentroid(vector.New(10, 0))
	c.Apply()
	assert.Equal(t, ContactIdle, c.State())
	Contact{}.Resolve()
}

func TestDestructiveCollision(t *testing.T) {
	s := scene.New[string]()
	a, b, far := box(0, 0, 1, 1), box(1, 0, 1, 1), box(50, 0, 1, 1)
	s.AddBody(a)
	s.AddBody(b)
	s.AddBody(far)
	NewDestructiveCollision(s, a, b)
	NewDestructiveCollision(s, a, far)
	NewSpring(s, 1, b, far)

	s.Tick(0.01)
	assert.Equal(t, 1, s.BodyCount())
	assert.Same(t, far, s.Body(0))
	assert.Equal(t, 0, s.GeneratorCount())
}
