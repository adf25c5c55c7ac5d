// Package scenario describes a scene declaratively and builds it.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/rigidsim/internal/core/physics/body"
	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

var ErrInvalidScenario = errors.New("invalid scenario")

// Shape kinds.
const (
	ShapeRegular   = "regular"
	ShapeRectangle = "rectangle"
	ShapePolygon   = "polygon"
)

// Force kinds.
const (
	ForceGravity              = "gravity"
	ForceSpring               = "spring"
	ForceDrag                 = "drag"
	ForceUniformGravity       = "uniform_gravity"
	ForcePhysicsCollision     = "physics_collision"
	ForceDestructiveCollision = "destructive_collision"
)

// Tag is the info attached to every body built from a scenario.
type Tag struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

func (t Tag) String() string {
	if t.Role == "" {
		return t.Name
	}
	return t.Role + ":" + t.Name
}

// Scenario is a unified structure able to describe a scene in JSON or YAML.
type Scenario struct {
	Name   string      `json:"name" yaml:"name"`
	Bodies []BodySpec  `json:"bodies" yaml:"bodies"`
	Forces []ForceSpec `json:"forces,omitempty" yaml:"forces,omitempty"`
}

type BodySpec struct {
	Name  string    `json:"name" yaml:"name"`
	Role  string    `json:"role,omitempty" yaml:"role,omitempty"`
	Shape ShapeSpec `json:"shape" yaml:"shape"`
	// Position is the centre of regular and rectangle shapes. For polygon
	// shapes it is optional and, when set, the centroid is moved onto it.
	Position *vector.Vector2 `json:"position,omitempty" yaml:"position,omitempty"`
	Rotation float64         `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Velocity vector.Vector2  `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Mass     Mass            `json:"mass" yaml:"mass"`
	// Color defaults to the body's slot in body.Palette.
	Color *Color `json:"color,omitempty" yaml:"color,omitempty"`
}

type ShapeSpec struct {
	Kind     string           `json:"kind" yaml:"kind"`
	Sides    int              `json:"sides,omitempty" yaml:"sides,omitempty"`
	Radius   float64          `json:"radius,omitempty" yaml:"radius,omitempty"`
	Width    float64          `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64          `json:"height,omitempty" yaml:"height,omitempty"`
	Vertices []vector.Vector2 `json:"vertices,omitempty" yaml:"vertices,omitempty"`
}

// ForceSpec registers one kind of generator over a set of bodies.
//
// Pair kinds (gravity, spring and the collisions) take exactly two bodies, or
// with Pairwise every unordered pair of the listed bodies. Single-body kinds
// (drag, uniform_gravity) are registered once per listed body. An empty body
// list means every body of the scenario, in declaration order.
type ForceSpec struct {
	Kind string `json:"kind" yaml:"kind"`
	// Constant is G for gravity, k for spring, gamma for drag and the
	// elasticity for physics_collision.
	Constant     float64        `json:"constant,omitempty" yaml:"constant,omitempty"`
	MinDistance  *float64       `json:"min_distance,omitempty" yaml:"min_distance,omitempty"`
	Acceleration vector.Vector2 `json:"acceleration,omitempty" yaml:"acceleration,omitempty"`
	Bodies       []string       `json:"bodies,omitempty" yaml:"bodies,omitempty"`
	Pairwise     bool           `json:"pairwise,omitempty" yaml:"pairwise,omitempty"`
}

// Mass is a positive mass that also accepts "inf" for immovable bodies.
type Mass float64

func (m Mass) Float64() float64 { return float64(m) }

func (m *Mass) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: mass must be a number or \"inf\"", n.Line)
	}
	v, err := parseMass(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*m = v
	return nil
}

func (m *Mass) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	v, err := parseMass(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func parseMass(s string) (Mass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "infinite", "+inf", ".inf":
		return Mass(body.InfiniteMass), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("mass %q is not a number or \"inf\"", s)
	}
	return Mass(v), nil
}

// Color is an RGB colour given either by name ("red") or as an r/g/b mapping.
type Color struct {
	body.Color
}

var namedColors = map[string]body.Color{
	"black":  body.Black,
	"white":  body.White,
	"red":    body.Red,
	"orange": body.Orange,
	"yellow": body.Yellow,
	"green":  body.Green,
	"cyan":   body.Cyan,
	"purple": body.Purple,
	"pink":   body.Pink,
}

func (c *Color) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		return c.setName(n.Value)
	}
	return n.Decode(&c.Color)
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return c.setName(name)
	}
	return json.Unmarshal(data, &c.Color)
}

func (c *Color) setName(name string) error {
	v, ok := namedColors[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown colour %q", name)
	}
	c.Color = v
	return nil
}

// Load reads a scenario file, choosing the decoder from its extension.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}

// LoadJSON loads and validates a scenario from a JSON reader.
func LoadJSON(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadYAML loads and validates a scenario from a YAML reader.
func LoadYAML(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks everything Build would otherwise panic on.
func (s *Scenario) Validate() error {
	if len(s.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidScenario)
	}
	seen := make(map[string]struct{}, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body %d has no name", ErrInvalidScenario, i)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("%w: duplicate body %q", ErrInvalidScenario, b.Name)
		}
		seen[b.Name] = struct{}{}
		if err := b.validate(); err != nil {
			return fmt.Errorf("%w: body %q: %v", ErrInvalidScenario, b.Name, err)
		}
	}
	for i, f := range s.Forces {
		if err := f.validate(seen); err != nil {
			return fmt.Errorf("%w: force %d (%s): %v", ErrInvalidScenario, i, f.Kind, err)
		}
	}
	return nil
}

func (b BodySpec) validate() error {
	if m := float64(b.Mass); math.IsNaN(m) || m <= 0 {
		return fmt.Errorf("mass must be positive, got %v", m)
	}
	if b.Color != nil && !b.Color.Valid() {
		return fmt.Errorf("colour channels must lie in [0, 1], got %+v", b.Color.Color)
	}
	_, err := b.vertices()
	return err
}

func (f ForceSpec) validate(bodies map[string]struct{}) error {
	for _, name := range f.Bodies {
		if _, ok := bodies[name]; !ok {
			return fmt.Errorf("unknown body %q", name)
		}
	}
	if math.IsNaN(f.Constant) || math.IsInf(f.Constant, 0) {
		return fmt.Errorf("constant must be finite")
	}

	switch f.Kind {
	case ForceGravity:
		if f.MinDistance != nil && *f.MinDistance < 0 {
			return fmt.Errorf("min_distance must not be negative")
		}
	case ForceSpring:
		if f.Constant < 0 {
			return fmt.Errorf("stiffness must not be negative")
		}
	case ForcePhysicsCollision:
		if f.Constant < 0 || f.Constant > 1 {
			return fmt.Errorf("elasticity must lie in [0, 1], got %v", f.Constant)
		}
	case ForceDestructiveCollision:
	case ForceDrag:
		if f.Constant < 0 {
			return fmt.Errorf("drag coefficient must not be negative")
		}
		return nil
	case ForceUniformGravity:
		return nil
	default:
		return fmt.Errorf("unknown kind")
	}

	if !f.Pairwise && len(f.Bodies) != 2 {
		return fmt.Errorf("needs exactly two bodies or pairwise, got %d", len(f.Bodies))
	}
	return nil
}
