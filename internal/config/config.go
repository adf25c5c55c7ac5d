package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/rigidsim/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// MaxTickRate bounds simulation.tick_rate so the tick interval stays well
// above timer resolution.
const MaxTickRate = 10_000

// Config is the top-level configuration of the simulation server.
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Log        log.Config       `json:"log" yaml:"log"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	// Scenario is the path of the scenario file to load. Relative paths are
	// resolved against the working directory.
	Scenario string `json:"scenario" yaml:"scenario"`
}

// SimulationConfig drives the fixed-step runner.
type SimulationConfig struct {
	// TickRate is the number of ticks per wall-clock second.
	TickRate int `json:"tick_rate" yaml:"tick_rate"`
	// TimeScale multiplies the simulated time advanced per tick
	// (dt = TimeScale / TickRate).
	TimeScale float64 `json:"time_scale" yaml:"time_scale"`
	// MaxTicks stops the runner after that many ticks; 0 runs until cancelled.
	MaxTicks uint64 `json:"max_ticks" yaml:"max_ticks"`
	// BroadcastEvery publishes a frame to subscribers every N ticks.
	BroadcastEvery int `json:"broadcast_every" yaml:"broadcast_every"`
	// StatsInterval is how often the runner logs its counters; 0 disables.
	StatsInterval time.Duration `json:"stats_interval" yaml:"stats_interval"`
}

// TimeStep is the simulated seconds advanced by one tick.
func (c SimulationConfig) TimeStep() float64 {
	return c.TimeScale / float64(c.TickRate)
}

// TickInterval is the wall-clock period between ticks.
func (c SimulationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// ServerConfig configures the snapshot stream server.
type ServerConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	ListenAddr   string        `json:"listen_addr" yaml:"listen_addr"`
	StreamPath   string        `json:"stream_path" yaml:"stream_path"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	// SubscriberBuffer is the number of frames queued per client before
	// frames are dropped for that client.
	SubscriberBuffer int `json:"subscriber_buffer" yaml:"subscriber_buffer"`
}

// Default returns a configuration that runs a 60 Hz simulation in real time
// and serves frames on :8080/ws.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			TickRate:       60,
			TimeScale:      1,
			BroadcastEvery: 1,
			StatsInterval:  10 * time.Second,
		},
		Log: log.Config{
			Level:    "info",
			Encoding: "json",
		},
		Server: ServerConfig{
			Enabled:          true,
			ListenAddr:       ":8080",
			StreamPath:       "/ws",
			WriteTimeout:     time.Second,
			SubscriberBuffer: 8,
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML decodes YAML on top of Default and validates the result. Unknown
// keys are rejected.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log.encoding must be json or console, got %q", ErrInvalidConfig, c.Log.Encoding)
	}
	if c.Server.Enabled {
		if err := c.Server.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c SimulationConfig) Validate() error {
	switch {
	case c.TickRate <= 0 || c.TickRate > MaxTickRate:
		return fmt.Errorf("%w: simulation.tick_rate must lie in [1, %d], got %d", ErrInvalidConfig, MaxTickRate, c.TickRate)
	case !(c.TimeScale > 0):
		return fmt.Errorf("%w: simulation.time_scale must be positive, got %v", ErrInvalidConfig, c.TimeScale)
	case c.BroadcastEvery <= 0:
		return fmt.Errorf("%w: simulation.broadcast_every must be positive, got %d", ErrInvalidConfig, c.BroadcastEvery)
	case c.StatsInterval < 0:
		return fmt.Errorf("%w: simulation.stats_interval must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c ServerConfig) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: server.listen_addr is required", ErrInvalidConfig)
	case len(c.StreamPath) == 0 || c.StreamPath[0] != '/':
		return fmt.Errorf("%w: server.stream_path must start with '/', got %q", ErrInvalidConfig, c.StreamPath)
	case c.WriteTimeout <= 0:
		return fmt.Errorf("%w: server.write_timeout must be positive", ErrInvalidConfig)
	case c.SubscriberBuffer <= 0:
		return fmt.Errorf("%w: server.subscriber_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}
