package injector

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/rigidsim/internal/config"
	"github.com/zeusync/rigidsim/internal/core/events/bus"
	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/core/physics/scene"
	"github.com/zeusync/rigidsim/internal/scenario"
	"github.com/zeusync/rigidsim/internal/server"
	"github.com/zeusync/rigidsim/internal/simulation"
	"github.com/zeusync/rigidsim/pkg/concurrent"
)

var ErrNoScenario = errors.New("no scenario configured")

// ConfigPath is the configuration file to load. Empty means defaults.
type ConfigPath string

type (
	Scene  = scene.Scene[scenario.Tag]
	Runner = simulation.Runner[scenario.Tag]
)

// ProviderSet wires a runnable App from a ConfigPath.
var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	ProvideScenario,
	ProvideScene,
	ProvideRunner,
	ProvideServer,
	NewApp,
)

func ProvideConfig(path ConfigPath) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(string(path))
}

func ProvideLogger(cfg config.Config) (*log.Logger, func(), error) {
	logger, err := log.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideScenario(cfg config.Config) (*scenario.Scenario, error) {
	if cfg.Scenario == "" {
		return nil, ErrNoScenario
	}
	return scenario.Load(cfg.Scenario)
}

func ProvideScene(s *scenario.Scenario, logger log.Log, events bus.EventBus) (*Scene, error) {
	sc, _, err := s.Build(
		scene.WithLogger(logger.Named("scene")),
		scene.WithBus(events),
	)
	if err != nil {
		return nil, fmt.Errorf("build scenario %q: %w", s.Name, err)
	}
	logger.Info("scenario loaded",
		log.String("scenario", s.Name),
		log.Int("bodies", sc.BodyCount()),
		log.Int("generators", sc.GeneratorCount()),
	)
	return sc, nil
}

func ProvideRunner(sc *Scene, cfg config.Config, logger log.Log, events bus.EventBus) (*Runner, func(), error) {
	r, err := simulation.NewRunner(sc, cfg.Simulation,
		simulation.WithLogger(logger),
		simulation.WithBus(events),
	)
	if err != nil {
		sc.Close()
		return nil, nil, err
	}
	return r, r.Close, nil
}

// ProvideServer returns a nil server when serving is disabled.
func ProvideServer(cfg config.Config, runner *Runner, logger log.Log) (*server.Server, func(), error) {
	if !cfg.Server.Enabled {
		return nil, func() {}, nil
	}
	srv, err := server.NewServer(cfg.Server, runner, logger)
	if err != nil {
		return nil, nil, err
	}
	return srv, func() { _ = srv.Close() }, nil
}

// App is the assembled simulation process.
type App struct {
	Config config.Config
	Logger log.Log
	Runner *Runner
	Server *server.Server
}

func NewApp(cfg config.Config, logger log.Log, runner *Runner, srv *server.Server) *App {
	return &App{Config: cfg, Logger: logger, Runner: runner, Server: srv}
}

// Run drives the simulation and, when enabled, the server until ctx is done.
// Reaching the tick limit stops the server too.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := []concurrent.Task{
		func(ctx context.Context) error {
			defer cancel()
			return a.Runner.Run(ctx)
		},
	}
	if a.Server != nil {
		tasks = append(tasks, a.Server.Serve)
	}
	return concurrent.Run(ctx, tasks...)
}
