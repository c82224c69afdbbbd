package injector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/tickphys/internal/core/config"
	"github.com/zeusync/tickphys/internal/core/systems/physics"
)

func TestInitializeAppDefaults(t *testing.T) {
	app, cleanup, err := InitializeApp(context.Background(), "")
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, 4, app.Simulation.Tree().MaxDepth())
	assert.Equal(t, app.Config.Physics.Tick(), app.Simulation.Clock().TickDuration())
	assert.Nil(t, app.Feed)
}

func TestInitializeAppFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.yaml")
	src := "world:\n  max_depth: 2\nlog:\n  level: error\nfeed:\n  enabled: true\n  addr: 127.0.0.1:0\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	app, cleanup, err := InitializeApp(context.Background(), ConfigPath(path))
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, 21, app.Simulation.Tree().Len())
	require.NotNil(t, app.Feed)
}

func TestInitializeAppCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := InitializeApp(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInitializeAppBadConfig(t *testing.T) {
	_, _, err := InitializeApp(context.Background(), "missing.yaml")
	assert.Error(t, err)
}

func TestProvideOptionsRejectsUnknownPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.SummationPolicy = "average"
	_, err := ProvideOptions(cfg)
	assert.Error(t, err)

	cfg.Physics.SummationPolicy = "last-absolute-wins"
	opts, err := ProvideOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, physics.LastAbsoluteWins, opts.Policy)
	assert.Equal(t, cfg.Physics.Tick(), opts.Tick)
}
