package injector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDoc = `
name: pair
bodies:
  - name: a
    shape: {kind: regular, sides: 5, radius: 1}
    mass: 1
  - name: b
    shape: {kind: regular, sides: 5, radius: 1}
    position: {x: 10, y: 0}
    mass: 1
forces:
  - kind: spring
    constant: 1
    bodies: [a, b]
`

func writeConfig(t *testing.T, serverEnabled bool) ConfigPath {
	t.Helper()
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "pair.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(scenarioDoc), 0o600))

	cfg := fmt.Sprintf(`
simulation:
  tick_rate: 1000
  max_ticks: 20
  stats_interval: 0s
log:
  level: error
server:
  enabled: %t
  listen_addr: 127.0.0.1:0
scenario: %s
`, serverEnabled, scenarioPath)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return ConfigPath(path)
}

func TestInitializeAppRunsToTickLimit(t *testing.T) {
	for _, serverEnabled := range []bool{false, true} {
		t.Run(fmt.Sprintf("server=%t", serverEnabled), func(t *testing.T) {
			app, cleanup, err := InitializeApp(writeConfig(t, serverEnabled))
			require.NoError(t, err)
			defer cleanup()

			assert.Equal(t, serverEnabled, app.Server != nil)
			assert.Equal(t, 2, len(app.Runner.Latest().Bodies))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, app.Run(ctx))
			assert.Equal(t, uint64(20), app.Runner.Latest().Tick)
			if app.Server != nil {
				assert.False(t, app.Server.GetStats().Running)
			}
		})
	}
}

func TestInitializeAppErrors(t *testing.T) {
	_, _, err := InitializeApp("")
	assert.ErrorIs(t, err, ErrNoScenario)

	_, _, err = InitializeApp(ConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}
