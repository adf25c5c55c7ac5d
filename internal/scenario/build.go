package scenario

import (
	"fmt"

	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/internal/core/physics/forces"
	"github.com/zeusync/rigidsim/internal/core/physics/polygon"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

// Build validates the scenario and constructs its scene. Bodies are added in
// declaration order, take their name as ID and are returned by name alongside
// the scene.
func (s *Scenario) Build(opts ...scene.Option) (*scene.Scene[Tag], map[string]*body.Body[Tag], error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	sc := scene.New[Tag](opts...)
	byName := make(map[string]*body.Body[Tag], len(s.Bodies))
	ordered := make([]*body.Body[Tag], 0, len(s.Bodies))
	for i, spec := range s.Bodies {
		b, err := spec.build(i)
		if err != nil {
			sc.Close()
			return nil, nil, fmt.Errorf("%w: body %q: %v", ErrInvalidScenario, spec.Name, err)
		}
		sc.AddBody(b)
		byName[spec.Name] = b
		ordered = append(ordered, b)
	}

	for _, f := range s.Forces {
		targets := ordered
		if len(f.Bodies) > 0 {
			targets = make([]*body.Body[Tag], len(f.Bodies))
			for i, name := range f.Bodies {
				targets[i] = byName[name]
			}
		}
		f.register(sc, targets)
	}
	return sc, byName, nil
}

func (b BodySpec) build(index int) (*body.Body[Tag], error) {
	shape, err := b.vertices()
	if err != nil {
		return nil, err
	}
	color := body.Palette[index%len(body.Palette)]
	if b.Color != nil {
		color = b.Color.Color
	}

	out := body.New(shape, b.Mass.Float64(), color,
		body.WithID[Tag](b.Name),
		body.WithInfo(Tag{Name: b.Name, Role: b.Role}),
		body.WithVelocity[Tag](b.Velocity),
	)
	if b.Kind() == ShapePolygon && b.Position != nil {
		out.SetCentroid(*b.Position)
	}
	if b.Rotation != 0 {
		out.SetRotation(b.Rotation)
	}
	return out, nil
}

// Kind is the shape kind of the body.
func (b BodySpec) Kind() string { return b.Shape.Kind }

func (b BodySpec) vertices() ([]vector.Vector2, error) {
	center := vector.Zero
	if b.Position != nil {
		center = *b.Position
	}

	var (
		shape []vector.Vector2
		err   error
	)
	switch b.Shape.Kind {
	case ShapeRegular:
		shape, err = polygon.Regular(b.Shape.Sides, b.Shape.Radius, center)
	case ShapeRectangle:
		shape, err = polygon.Rectangle(b.Shape.Width, b.Shape.Height, center)
	case ShapePolygon:
		shape = polygon.Clone(b.Shape.Vertices)
	default:
		return nil, fmt.Errorf("unknown shape kind %q", b.Shape.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := polygon.Validate(shape); err != nil {
		return nil, err
	}
	return shape, nil
}

func (f ForceSpec) register(sc *scene.Scene[Tag], targets []*body.Body[Tag]) {
	switch f.Kind {
	case ForceDrag:
		for _, b := range targets {
			forces.NewDrag(sc, f.Constant, b)
		}
		return
	case ForceUniformGravity:
		for _, b := range targets {
			forces.NewUniformGravity(sc, f.Acceleration, b)
		}
		return
	}

	for i := 0; i < len(targets); i++ {
		for j := i + 1; j < len(targets); j++ {
			f.registerPair(sc, targets[i], targets[j])
		}
	}
}

func (f ForceSpec) registerPair(sc *scene.Scene[Tag], a, b *body.Body[Tag]) {
	switch f.Kind {
	case ForceGravity:
		g := forces.NewGravity(sc, f.Constant, a, b)
		if f.MinDistance != nil {
			g.Action().(*forces.Gravity[Tag]).MinDistance = *f.MinDistance
		}
	case ForceSpring:
		forces.NewSpring(sc, f.Constant, a, b)
	case ForcePhysicsCollision:
		forces.NewPhysicsCollision(sc, f.Constant, a, b)
	case ForceDestructiveCollision:
		forces.NewDestructiveCollision(sc, a, b)
	}
}
