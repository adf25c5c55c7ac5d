// Package scene owns bodies and force generators and drives the tick loop.
package scene

import (
	"errors"
	"fmt"
	"iter"

	"github.com/zeusync/rigidsim/internal/core/events/bus"
	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/pkg/sequence"
)

// Lifecycle event types published when a bus is attached. Event data is the
// ID of the destroyed body or generator.
const (
	EventBodyRemoved      = "body.removed"
	EventGeneratorRemoved = "generator.removed"
)

const (
	initialBodies     = 10
	initialGenerators = 1
)

var (
	ErrNilBody   = errors.New("scene: nil body")
	ErrNilAction = errors.New("scene: nil action")
)

// Scene exclusively owns its bodies and generators. It is not safe for
// concurrent use; readers must copy state out between ticks.
type Scene[T any] struct {
	bodies     *sequence.List[*body.Body[T]]
	generators *sequence.List[*Generator[T]]

	logger log.Log
	events bus.EventBus

	ticks   uint64
	elapsed float64
}

type options struct {
	logger log.Log
	events bus.EventBus
}

type Option func(*options)

func WithLogger(logger log.Log) Option {
	return func(o *options) { o.logger = logger }
}

// WithBus publishes body and generator removals to events.
func WithBus(events bus.EventBus) Option {
	return func(o *options) { o.events = events }
}

func New[T any](opts ...Option) *Scene[T] {
	o := options{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Scene[T]{
		bodies: sequence.NewList(initialBodies, func(b *body.Body[T]) {
			b.Dispose()
		}),
		generators: sequence.NewList(initialGenerators, func(g *Generator[T]) {
			g.dispose()
		}),
		logger: o.logger,
		events: o.events,
	}
}

// AddBody transfers ownership of b to the scene.
func (s *Scene[T]) AddBody(b *body.Body[T]) {
	if b == nil {
		panic(ErrNilBody)
	}
	s.bodies.Add(b)
}

func (s *Scene[T]) BodyCount() int { return s.bodies.Len() }

// Body returns the body at index. Indices shift whenever a tick sweeps
// removed bodies.
func (s *Scene[T]) Body(index int) *body.Body[T] { return s.bodies.Get(index) }

func (s *Scene[T]) Bodies() iter.Seq[*body.Body[T]] { return s.bodies.Values() }

// FindBody looks a body up by ID.
func (s *Scene[T]) FindBody(id string) (*body.Body[T], bool) {
	i := s.bodies.IndexOf(func(b *body.Body[T]) bool { return b.ID() == id })
	if i < 0 {
		return nil, false
	}
	return s.bodies.Get(i), true
}

// RemoveBody flags the body at index for removal. Repeated calls are no-ops.
func (s *Scene[T]) RemoveBody(index int) { s.bodies.Get(index).Remove() }

// AddGenerator registers action to run every tick. The generator is removed
// automatically as soon as any of deps is removed.
func (s *Scene[T]) AddGenerator(action Action, deps ...*body.Body[T]) *Generator[T] {
	if action == nil {
		panic(ErrNilAction)
	}
	for i, b := range deps {
		if b == nil {
			panic(fmt.Errorf("%w: dependency %d", ErrNilBody, i))
		}
	}
	g := newGenerator(action, deps)
	s.generators.Add(g)
	return g
}

func (s *Scene[T]) GeneratorCount() int { return s.generators.Len() }

func (s *Scene[T]) Generator(index int) *Generator[T] { return s.generators.Get(index) }

func (s *Scene[T]) Generators() iter.Seq[*Generator[T]] { return s.generators.Values() }

// RemoveGenerator flags the generator at index; it is destroyed during the
// next tick.
func (s *Scene[T]) RemoveGenerator(index int) { s.generators.Get(index).Remove() }

// Ticks is the number of completed ticks.
func (s *Scene[T]) Ticks() uint64 { return s.ticks }

// Elapsed is the simulated time in seconds.
func (s *Scene[T]) Elapsed() float64 { return s.elapsed }

// Tick advances the simulation by dt seconds:
//
//  1. run every generator in registration order (generators added during
//     this phase run too);
//  2. flag generators whose dependencies were removed;
//  3. destroy flagged generators;
//  4. destroy flagged bodies;
//  5. integrate the surviving bodies.
//
// The order matters: a generator must never run after a body it depends on
// has been destroyed.
func (s *Scene[T]) Tick(dt float64) {
	for i := 0; i < s.generators.Len(); i++ {
		s.generators.Get(i).action.Apply()
	}

	for g := range s.generators.Values() {
		if !g.removed && g.dependencyRemoved() {
			g.Remove()
		}
	}

	var sweptGenerators, sweptBodies []string
	s.generators.RemoveIf(func(g *Generator[T]) bool {
		if g.removed {
			sweptGenerators = append(sweptGenerators, g.id)
		}
		return g.removed
	})
	s.bodies.RemoveIf(func(b *body.Body[T]) bool {
		if b.IsRemoved() {
			sweptBodies = append(sweptBodies, b.ID())
		}
		return b.IsRemoved()
	})

	for b := range s.bodies.Values() {
		b.Tick(dt)
	}
	s.ticks++
	s.elapsed += dt

	if len(sweptGenerators) > 0 || len(sweptBodies) > 0 {
		s.logger.Debug("swept removed entities",
			log.Uint64("tick", s.ticks),
			log.Strings("bodies", sweptBodies),
			log.Strings("generators", sweptGenerators),
		)
		s.publish(EventGeneratorRemoved, sweptGenerators)
		s.publish(EventBodyRemoved, sweptBodies)
	}
}

// Close destroys every generator and body. The scene must not be used
// afterwards.
func (s *Scene[T]) Close() {
	s.generators.Clear()
	s.bodies.Clear()
}

func (s *Scene[T]) publish(eventType string, ids []string) {
	if s.events == nil {
		return
	}
	for _, id := range ids {
		if err := s.events.Publish(bus.NewEvent(eventType, "scene", id)); err != nil {
			s.logger.Warn("event handler failed",
				log.String("event", eventType),
				log.String("id", id),
				log.Error(err),
			)
		}
	}
}
