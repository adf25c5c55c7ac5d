// Package simulation drives a scene at a fixed rate and fans frames out to
// subscribers.
package simulation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/rigidsim/internal/config"
	"github.com/zeusync/rigidsim/internal/core/events/bus"
	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
)

var (
	ErrClosed        = errors.New("simulation: runner closed")
	ErrInvalidBuffer = errors.New("simulation: subscriber buffer must be positive")
	ErrNotSubscribed = errors.New("simulation: unknown subscription")
)

// Stats are cumulative counters of a runner.
type Stats struct {
	Ticks             uint64  `json:"ticks"`
	Elapsed           float64 `json:"elapsed"`
	Bodies            int     `json:"bodies"`
	Generators        int     `json:"generators"`
	Subscribers       int     `json:"subscribers"`
	FramesSent        uint64  `json:"frames_sent"`
	FramesDropped     uint64  `json:"frames_dropped"`
	BodiesRemoved     uint64  `json:"bodies_removed"`
	GeneratorsRemoved uint64  `json:"generators_removed"`
}

// Runner owns a scene and advances it by a fixed time step. Step and Run must
// be driven from a single goroutine; Latest, Stats and the subscription
// methods are safe for concurrent use.
type Runner[T any] struct {
	cfg    config.SimulationConfig
	logger log.Log

	mu     sync.Mutex
	scene  *scene.Scene[T]
	latest Frame
	closed bool

	subsMu sync.RWMutex
	subs   map[string]chan Frame

	sent, dropped                    atomic.Uint64
	bodiesRemoved, generatorsRemoved atomic.Uint64
	busSubs                          []bus.Subscription
}

type runnerOptions struct {
	logger log.Log
	events bus.EventBus
}

type RunnerOption func(*runnerOptions)

func WithLogger(logger log.Log) RunnerOption {
	return func(o *runnerOptions) { o.logger = logger }
}

// WithBus counts the removal events the scene publishes on events. The scene
// must have been created with the same bus.
func WithBus(events bus.EventBus) RunnerOption {
	return func(o *runnerOptions) { o.events = events }
}

// NewRunner takes ownership of s. The configuration must be valid.
func NewRunner[T any](s *scene.Scene[T], cfg config.SimulationConfig, opts ...RunnerOption) (*Runner[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := runnerOptions{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Runner[T]{
		cfg:    cfg,
		logger: o.logger.Named("simulation"),
		scene:  s,
		subs:   make(map[string]chan Frame),
	}
	r.latest = Snapshot(s)

	if o.events != nil {
		for eventType, counter := range map[string]*atomic.Uint64{
			scene.EventBodyRemoved:      &r.bodiesRemoved,
			scene.EventGeneratorRemoved: &r.generatorsRemoved,
		} {
			sub, err := o.events.Subscribe(eventType, func(bus.Event) error {
				counter.Add(1)
				return nil
			})
			if err != nil {
				r.unsubscribeBus()
				return nil, err
			}
			r.busSubs = append(r.busSubs, sub)
		}
	}
	return r, nil
}

// TimeStep is the simulated time advanced by each Step.
func (r *Runner[T]) TimeStep() float64 { return r.cfg.TimeStep() }

// Step advances the scene by one time step and returns the resulting frame.
// Every BroadcastEvery ticks the frame is also sent to subscribers.
func (r *Runner[T]) Step() (Frame, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Frame{}, ErrClosed
	}
	r.scene.Tick(r.cfg.TimeStep())
	frame := Snapshot(r.scene)
	r.latest = frame
	r.mu.Unlock()

	if frame.Tick%uint64(r.cfg.BroadcastEvery) == 0 {
		r.broadcast(frame)
	}
	return frame, nil
}

// Run steps the scene on a wall-clock ticker until ctx is done or MaxTicks is
// reached. Both are a normal stop and return nil.
func (r *Runner[T]) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.TickInterval())
	defer ticker.Stop()

	var stats <-chan time.Time
	if r.cfg.StatsInterval > 0 {
		t := time.NewTicker(r.cfg.StatsInterval)
		defer t.Stop()
		stats = t.C
	}

	r.logger.Info("simulation started",
		log.Int("tick_rate", r.cfg.TickRate),
		log.Float64("time_step", r.cfg.TimeStep()),
		log.Uint64("max_ticks", r.cfg.MaxTicks),
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("simulation stopped", log.Uint64("tick", r.Latest().Tick))
			return nil
		case <-stats:
			r.logStats()
		case <-ticker.C:
			frame, err := r.Step()
			if err != nil {
				return err
			}
			if r.cfg.MaxTicks > 0 && frame.Tick >= r.cfg.MaxTicks {
				r.logger.Info("simulation finished", log.Uint64("tick", frame.Tick))
				r.logStats()
				return nil
			}
		}
	}
}

// Latest returns the most recent frame.
func (r *Runner[T]) Latest() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

func (r *Runner[T]) Stats() Stats {
	r.mu.Lock()
	st := Stats{
		Ticks:      r.latest.Tick,
		Elapsed:    r.latest.Time,
		Bodies:     len(r.latest.Bodies),
		Generators: r.scene.GeneratorCount(),
	}
	r.mu.Unlock()

	r.subsMu.RLock()
	st.Subscribers = len(r.subs)
	r.subsMu.RUnlock()

	st.FramesSent = r.sent.Load()
	st.FramesDropped = r.dropped.Load()
	st.BodiesRemoved = r.bodiesRemoved.Load()
	st.GeneratorsRemoved = r.generatorsRemoved.Load()
	return st
}

// Subscribe registers a frame channel holding up to buffer frames. A frame
// that does not fit is dropped for that subscriber only.
func (r *Runner[T]) Subscribe(buffer int) (string, <-chan Frame, error) {
	if buffer <= 0 {
		return "", nil, ErrInvalidBuffer
	}
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if r.subs == nil {
		return "", nil, ErrClosed
	}
	id := uuid.NewString()
	ch := make(chan Frame, buffer)
	r.subs[id] = ch
	return id, ch, nil
}

// Unsubscribe removes a subscription and closes its channel.
func (r *Runner[T]) Unsubscribe(id string) error {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	ch, ok := r.subs[id]
	if !ok {
		return ErrNotSubscribed
	}
	delete(r.subs, id)
	close(ch)
	return nil
}

// Close closes every subscriber channel and destroys the scene. Multiple
// calls are safe.
func (r *Runner[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.scene.Close()
	r.mu.Unlock()

	r.subsMu.Lock()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.subs = nil
	r.subsMu.Unlock()

	r.unsubscribeBus()
}

func (r *Runner[T]) broadcast(frame Frame) {
	r.subsMu.RLock()
	defer r.subsMu.RUnlock()
	for _, ch := range r.subs {
		select {
		case ch <- frame:
			r.sent.Add(1)
		default:
			r.dropped.Add(1)
		}
	}
}

func (r *Runner[T]) unsubscribeBus() {
	for _, sub := range r.busSubs {
		_ = sub.Cancel()
	}
	r.busSubs = nil
}

func (r *Runner[T]) logStats() {
	st := r.Stats()
	r.logger.Info("simulation stats",
		log.Uint64("tick", st.Ticks),
		log.Float64("elapsed", st.Elapsed),
		log.Int("bodies", st.Bodies),
		log.Int("generators", st.Generators),
		log.Int("subscribers", st.Subscribers),
		log.Uint64("frames_sent", st.FramesSent),
		log.Uint64("frames_dropped", st.FramesDropped),
		log.Uint64("bodies_removed", st.BodiesRemoved),
	)
}
