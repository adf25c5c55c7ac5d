// Package vectortest provides assertions for vector values in tests.
package vectortest

import (
	"fmt"

	"github.com/stretchr/testify/assert"

	"github.com/zeusync/rigidsim/internal/core/physics/vector"
)

// InDelta asserts that every component of actual lies within delta of
// expected.
func InDelta(t assert.TestingT, expected, actual vector.Vector2, delta float64, msgAndArgs ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if Near(expected, actual, delta) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("vectors differ by more than %v:\n\texpected: %+v\n\tactual:   %+v", delta, expected, actual), msgAndArgs...)
}

// Near reports whether every component of a and b differs by at most delta.
func Near(a, b vector.Vector2, delta float64) bool {
	return assert.InDelta(noopT{}, a.X, b.X, delta) && assert.InDelta(noopT{}, a.Y, b.Y, delta)
}

type noopT struct{}

func (noopT) Errorf(string, ...any) {}
