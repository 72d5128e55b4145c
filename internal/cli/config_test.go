package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fmueller/voxworker/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigPrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queue: from_file
service: file-service
language: DE
prefetch: 4
`), 0o644))

	app := newAppState()
	app.lookupEnv = envLookup(map[string]string{
		config.EnvConfigPath: path,
		config.EnvQueue:      "from_env",
		config.EnvPrefetch:   "2",
	})

	cmd := newWorkerCmd(app)
	require.NoError(t, cmd.ParseFlags([]string{"--prefetch", "3"}))
	require.NoError(t, app.loadConfig(cmd.Flags()))

	cfg := app.config()
	require.Equal(t, "from_env", cfg.Queue, "env beats file")
	require.Equal(t, 3, cfg.Prefetch, "flag beats env")
	require.Equal(t, "file-service", cfg.Service, "file beats default")
	require.Equal(t, "de", cfg.Language)
	require.Equal(t, "base", cfg.Model)
}

func TestLoadConfigExplicitPathWinsOverEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	flagPath := filepath.Join(dir, "flag.yaml")
	require.NoError(t, os.WriteFile(flagPath, []byte("queue: from_flag_file\n"), 0o644))

	app := newAppState()
	app.configPath = flagPath
	app.lookupEnv = envLookup(map[string]string{config.EnvConfigPath: filepath.Join(dir, "missing.yaml")})

	cmd := newWorkerCmd(app)
	require.NoError(t, app.loadConfig(cmd.Flags()))
	require.Equal(t, "from_flag_file", app.config().Queue)
}

func TestLoadConfigUnchangedFlagsKeepFileValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voxworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: tiny\nsilence_gate: false\n"), 0o644))

	app := newAppState()
	app.configPath = path
	app.lookupEnv = envLookup(nil)

	cmd := newWorkerCmd(app)
	require.NoError(t, cmd.ParseFlags([]string{"--queue", "jobs"}))
	require.NoError(t, app.loadConfig(cmd.Flags()))

	cfg := app.config()
	require.Equal(t, "jobs", cfg.Queue)
	require.Equal(t, "tiny", cfg.Model)
	require.False(t, cfg.SilenceGate)
}
