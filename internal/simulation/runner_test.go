package simulation

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/rigidsim/internal/config"
	"github.com/zeusync/rigidsim/internal/core/events/bus"
	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/scenario"
)

const collide = `
name: collide
bodies:
  - name: wall
    role: wall
    shape: {kind: rectangle, width: 2, height: 20}
    position: {x: 10, y: 0}
    mass: inf
  - name: ball
    role: ball
    shape: {kind: regular, sides: 6, radius: 1}
    position: {x: 0, y: 0}
    velocity: {x: 5, y: 0}
    mass: 1
  - name: bomb
    shape: {kind: rectangle, width: 1, height: 1}
    position: {x: -10, y: 0}
    velocity: {x: -5, y: 0}
    mass: 1
  - name: target
    shape: {kind: rectangle, width: 1, height: 1}
    position: {x: -12, y: 0}
    mass: 1
forces:
  - kind: physics_collision
    constant: 1
    bodies: [wall, ball]
  - kind: destructive_collision
    bodies: [bomb, target]
`

func simConfig() config.SimulationConfig {
	c := config.Default().Simulation
	c.TickRate = 100
	c.BroadcastEvery = 1
	c.StatsInterval = 0
	return c
}

func newRunner(t *testing.T, opts ...RunnerOption) (*Runner[scenario.Tag], bus.EventBus) {
	t.Helper()
	s, err := scenario.LoadYAML(strings.NewReader(collide))
	require.NoError(t, err)
	events := bus.New()
	sc, _, err := s.Build(scene.WithBus(events))
	require.NoError(t, err)
	r, err := NewRunner(sc, simConfig(), append(opts, WithBus(events))...)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, events
}

func TestStepProducesFrames(t *testing.T) {
	r, _ := newRunner(t)

	initial := r.Latest()
	assert.Equal(t, uint64(0), initial.Tick)
	require.Len(t, initial.Bodies, 4)
	assert.Equal(t, "wall", initial.Bodies[0].ID)
	assert.Equal(t, "wall:wall", initial.Bodies[0].Label)
	assert.True(t, initial.Bodies[0].Immovable)
	assert.Zero(t, initial.Bodies[0].Mass)
	assert.Equal(t, 1.0, initial.Bodies[1].Mass)

	frame, err := r.Step()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frame.Tick)
	assert.InDelta(t, 0.01, frame.Time, 1e-12)
	assert.Equal(t, frame, r.Latest())
	assert.NotEqual(t, initial.Fingerprint, frame.Fingerprint)
	assert.Equal(t, Fingerprint(frame), frame.Fingerprint)
}

func TestFramesAreCopies(t *testing.T) {
	r, _ := newRunner(t)
	frame, err := r.Step()
	require.NoError(t, err)
	before := frame.Bodies[1].Vertices[0]

	_, err = r.Step()
	require.NoError(t, err)
	assert.Equal(t, before, frame.Bodies[1].Vertices[0])
}

func TestBallBouncesOffWall(t *testing.T) {
	r, _ := newRunner(t)
	var frame Frame
	var err error
	for range 300 {
		frame, err = r.Step()
		require.NoError(t, err)
	}
	ball := frame.Bodies[1]
	assert.Equal(t, "ball", ball.ID)
	assert.InDelta(t, -5, ball.Velocity.X, 1e-9)
}

func TestDestructiveCollisionIsCounted(t *testing.T) {
	r, _ := newRunner(t)
	for range 100 {
		_, err := r.Step()
		require.NoError(t, err)
	}
	st := r.Stats()
	assert.Equal(t, uint64(100), st.Ticks)
	assert.Equal(t, 2, st.Bodies)
	assert.Equal(t, uint64(2), st.BodiesRemoved)
	assert.Equal(t, uint64(1), st.GeneratorsRemoved)
	assert.Equal(t, 1, st.Generators)
}

func TestRunsAreDeterministic(t *testing.T) {
	a, _ := newRunner(t)
	b, _ := newRunner(t)
	for range 200 {
		fa, err := a.Step()
		require.NoError(t, err)
		fb, err := b.Step()
		require.NoError(t, err)
		require.Equal(t, fa.Fingerprint, fb.Fingerprint, "tick %d", fa.Tick)
	}
}

func TestSubscribersReceiveAndDrop(t *testing.T) {
	r, _ := newRunner(t)

	_, _, err := r.Subscribe(0)
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	id, frames, err := r.Subscribe(2)
	require.NoError(t, err)
	for range 3 {
		_, err := r.Step()
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(1), (<-frames).Tick)
	assert.Equal(t, uint64(2), (<-frames).Tick)
	st := r.Stats()
	assert.Equal(t, 1, st.Subscribers)
	assert.Equal(t, uint64(2), st.FramesSent)
	assert.Equal(t, uint64(1), st.FramesDropped)

	require.NoError(t, r.Unsubscribe(id))
	_, ok := <-frames
	assert.False(t, ok)
	assert.ErrorIs(t, r.Unsubscribe(id), ErrNotSubscribed)
}

func TestBroadcastEvery(t *testing.T) {
	s, err := scenario.LoadYAML(strings.NewReader(collide))
	require.NoError(t, err)
	sc, _, err := s.Build()
	require.NoError(t, err)
	cfg := simConfig()
	cfg.BroadcastEvery = 3
	r, err := NewRunner(sc, cfg)
	require.NoError(t, err)
	defer r.Close()

	_, frames, err := r.Subscribe(10)
	require.NoError(t, err)
	for range 7 {
		_, err := r.Step()
		require.NoError(t, err)
	}
	assert.Len(t, frames, 2)
	assert.Equal(t, uint64(3), (<-frames).Tick)
}

func TestCloseEndsSubscriptions(t *testing.T) {
	r, _ := newRunner(t)
	_, frames, err := r.Subscribe(1)
	require.NoError(t, err)

	r.Close()
	r.Close()
	_, ok := <-frames
	assert.False(t, ok)

	_, err = r.Step()
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = r.Subscribe(1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s, err := scenario.LoadYAML(strings.NewReader(collide))
	require.NoError(t, err)
	sc, _, err := s.Build()
	require.NoError(t, err)

	cfg := simConfig()
	cfg.TickRate = 1000
	cfg.MaxTicks = 5
	r, err := NewRunner(sc, cfg, WithLogger(log.FromZap(zap.New(core), log.LevelInfo)))
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, uint64(5), r.Latest().Tick)
	assert.Equal(t, 1, logs.FilterMessage("simulation finished").Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	r, _ := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Positive(t, r.Latest().Tick)
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := simConfig()
	cfg.TickRate = 0
	_, err := NewRunner(scene.New[scenario.Tag](), cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestFrameJSON(t *testing.T) {
	r, _ := newRunner(t)
	data, err := json.Marshal(r.Latest())
	require.NoError(t, err)

	var decoded Frame
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.Latest(), decoded)
	assert.Contains(t, string(data), `"immovable":true`)
}
