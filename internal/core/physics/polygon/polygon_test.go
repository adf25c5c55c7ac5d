package polygon

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/rigidsim/internal/core/physics/vector"
	"github.com/zeusync/rigidsim/internal/core/physics/vector/vectortest"
)

func unitSquare() []vector.Vector2 {
	return []vector.Vector2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

func TestAreaAndCentroid(t *testing.T) {
	sq := unitSquare()
	assert.InDelta(t, 1, Area(sq), 1e-12)

	c := Centroid(sq)
	assert.InDelta(t, 0.5, c.X, 1e-12)
	assert.InDelta(t, 0.5, c.Y, 1e-12)

	// Clockwise winding flips the sign.
	cw := []vector.Vector2{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	assert.InDelta(t, -1, Area(cw), 1e-12)
}

func TestCentroidOfTriangle(t *testing.T) {
	tri := []vector.Vector2{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 0, Y: 3}}
	c := Centroid(tri)
	assert.InDelta(t, 1, c.X, 1e-12)
	assert.InDelta(t, 1, c.Y, 1e-12)
}

func TestCentroidDegeneratePanics(t *testing.T) {
	line := []vector.Vector2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrDegenerate))
	}()
	Centroid(line)
}

func TestTranslateRoundTrip(t *testing.T) {
	sq := unitSquare()
	d := vector.New(2.5, -7)

	Translate(sq, d)
	assert.Equal(t, vector.New(3.5, -7), sq[1])

	Translate(sq, d.Negate())
	for i, v := range unitSquare() {
		vectortest.InDelta(t, v, sq[i], 1e-12)
	}
}

func TestRotateFullTurnIsIdentity(t *testing.T) {
	sq := unitSquare()
	Rotate(sq, 2*math.Pi, vector.New(0.5, 0.5))
	for i, v := range unitSquare() {
		vectortest.InDelta(t, v, sq[i], 1e-9, "vertex %d: %v", i, sq[i])
	}
}

func TestRotateAboutCentroidKeepsCentroid(t *testing.T) {
	sq := unitSquare()
	Rotate(sq, math.Pi/3, Centroid(sq))
	c := Centroid(sq)
	assert.InDelta(t, 0.5, c.X, 1e-9)
	assert.InDelta(t, 0.5, c.Y, 1e-9)
	assert.InDelta(t, 1, Area(sq), 1e-9)
}

func TestClone(t *testing.T) {
	sq := unitSquare()
	cp := Clone(sq)
	cp[0] = vector.New(9, 9)
	assert.Equal(t, vector.Zero, sq[0])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(unitSquare()))
	assert.ErrorIs(t, Validate(unitSquare()[:2]), ErrTooFewVertices)
	assert.ErrorIs(t, Validate([]vector.Vector2{{}, {X: 1, Y: 1}, {X: 2, Y: 2}}), ErrDegenerate)
	assert.ErrorIs(t, Validate([]vector.Vector2{{}, {X: 0, Y: 1}, {X: 1, Y: 0}}), ErrClockwise)
}

func TestRegular(t *testing.T) {
	hex, err := Regular(6, 2, vector.New(10, 10))
	require.NoError(t, err)
	require.Len(t, hex, 6)
	assert.Greater(t, Area(hex), 0.0)

	c := Centroid(hex)
	assert.InDelta(t, 10, c.X, 1e-9)
	assert.InDelta(t, 10, c.Y, 1e-9)
	for _, v := range hex {
		assert.InDelta(t, 2, v.Sub(c).Length(), 1e-9)
	}

	_, err = Regular(2, 1, vector.Zero)
	assert.ErrorIs(t, err, ErrTooFewVertices)
	_, err = Regular(5, 0, vector.Zero)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestRectangle(t *testing.T) {
	r, err := Rectangle(4, 2, vector.New(1, 1))
	require.NoError(t, err)
	assert.InDelta(t, 8, Area(r), 1e-12)
	vectortest.InDelta(t, vector.New(1, 1), Centroid(r), 1e-12)

	_, err = Rectangle(-1, 2, vector.Zero)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}
