package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/tickphys/internal/core/config"
	"github.com/zeusync/tickphys/internal/core/observability/log"
	"github.com/zeusync/tickphys/internal/core/spatial"
	"github.com/zeusync/tickphys/internal/feed"
	"github.com/zeusync/tickphys/internal/sim"
)

// ConfigPath is the optional configuration file; empty means defaults.
type ConfigPath string

// App is everything cmd/sandbox needs to run a session.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Simulation *sim.Simulation
	// Feed is nil when telemetry is disabled.
	Feed *feed.Server
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideTree,
	ProvideOptions,
	ProvideSimulation,
	ProvideFeed,
	wire.Struct(new(App), "*"),
)

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(string(path))
}

func ProvideLogger(cfg *config.Config) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := log.NewWithOptions(level, log.Options{Encoding: cfg.Log.Encoding})
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideTree builds the quadtree in the background and waits for it.
func ProvideTree(ctx context.Context, cfg *config.Config) (*spatial.StaticQuadTree, error) {
	return spatial.BuildAsync(ctx, cfg.World.Size(), cfg.World.MaxDepth).Wait(ctx)
}

func ProvideOptions(cfg *config.Config) (sim.Options, error) {
	policy, err := cfg.Physics.Policy()
	if err != nil {
		return sim.Options{}, err
	}
	return sim.Options{
		Tick:    cfg.Physics.Tick(),
		Gravity: cfg.Physics.Gravity,
		Policy:  policy,
	}, nil
}

func ProvideSimulation(tree *spatial.StaticQuadTree, opts sim.Options, logger log.Log) (*sim.Simulation, error) {
	return sim.New(tree, opts, logger)
}

// ProvideFeed attaches a telemetry feed to the simulation when enabled. The
// caller starts and stops it.
func ProvideFeed(cfg *config.Config, s *sim.Simulation, logger log.Log) *feed.Server {
	if !cfg.Feed.Enabled {
		return nil
	}
	server := feed.New(feed.DefaultConfig(cfg.Feed.Addr), logger)
	s.AddObserver(server)
	return server
}
