package scene

import (
	"slices"

	"github.com/google/uuid"

	"github.com/zeusync/rigidsim/internal/core/physics/body"
)

// Action is the per-tick behaviour of a force generator. Apply may read and
// mutate any body the action captured, including flagging bodies for
// removal.
type Action interface {
	Apply()
}

// ActionFunc adapts a plain function to Action.
type ActionFunc func()

func (f ActionFunc) Apply() { f() }

// Disposer is implemented by actions (and collision handlers) that hold
// resources which must be released when their generator is destroyed.
type Disposer interface {
	Dispose()
}

// Generator is an Action registered on a scene together with the bodies it
// depends on. When any dependency is removed the generator is removed in the
// same tick. A generator without dependencies is only removed explicitly.
type Generator[T any] struct {
	id      string
	action  Action
	deps    []*body.Body[T]
	removed bool
}

func (g *Generator[T]) ID() string { return g.id }

func (g *Generator[T]) Action() Action { return g.action }

// Dependencies returns a copy of the bodies the generator is bound to.
func (g *Generator[T]) Dependencies() []*body.Body[T] { return slices.Clone(g.deps) }

func (g *Generator[T]) DependsOn(b *body.Body[T]) bool { return slices.Contains(g.deps, b) }

// Remove flags the generator; the scene destroys it during its next tick.
func (g *Generator[T]) Remove() { g.removed = true }

func (g *Generator[T]) IsRemoved() bool { return g.removed }

func newGenerator[T any](action Action, deps []*body.Body[T]) *Generator[T] {
	return &Generator[T]{
		id:     uuid.NewString(),
		action: action,
		deps:   slices.Clone(deps),
	}
}

func (g *Generator[T]) dependencyRemoved() bool {
	for _, b := range g.deps {
		if b.IsRemoved() {
			return true
		}
	}
	return false
}

func (g *Generator[T]) dispose() {
	if d, ok := g.action.(Disposer); ok {
		d.Dispose()
	}
	g.deps = nil
}
