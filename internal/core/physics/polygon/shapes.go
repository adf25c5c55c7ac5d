package polygon

import (
	"fmt"
	"math"

	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

// Regular builds a regular polygon with the given number of sides whose
// vertices lie on a circle of radius around center. The first vertex sits at
// angle 0 and the rest follow counter-clockwise.
func Regular(sides int, radius float64, center vector.Vector2) ([]vector.Vector2, error) {
	if sides < 3 {
		return nil, fmt.Errorf("%w: %d sides", ErrTooFewVertices, sides)
	}
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidGeometry, radius)
	}
	step := 2 * math.Pi / float64(sides)
	out := make([]vector.Vector2, sides)
	for i := range out {
		out[i] = center.Add(vector.New(radius, 0).Rotate(float64(i) * step))
	}
	return out, nil
}

// Rectangle builds an axis-aligned width x height rectangle centered on center.
func Rectangle(width, height float64, center vector.Vector2) ([]vector.Vector2, error) {
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidGeometry, width, height)
	}
	hw, hh := width/2, height/2
	return []vector.Vector2{
		center.Add(vector.New(-hw, -hh)),
		center.Add(vector.New(hw, -hh)),
		center.Add(vector.New(hw, hh)),
		center.Add(vector.New(-hw, hh)),
	}, nil
}
