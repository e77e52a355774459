package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmatch/pkg/errors"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	xdg.Reload()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("listen", "", "")
	fs.String("cases-url", "", "")
	fs.Duration("fetch-interval", 0, "")
	fs.CountP("verbose", "v", "")
	fs.StringSlice("builtin-extractors", nil, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, ":7070", cfg.TCP)
	assert.Equal(t, ":9090", cfg.Metrics)
	assert.Equal(t, 30*time.Second, cfg.FetchInterval)
	assert.Equal(t, 0, cfg.Verbose)
	assert.Empty(t, cfg.Extractors)
}

func TestLoadYAMLFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", `
listen: ":18080"
cases: /srv/cases.yaml
fetch_interval: 1m
builtin_extractors: [email, int]
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":18080", cfg.Listen)
	assert.Equal(t, "/srv/cases.yaml", cfg.Cases)
	assert.Equal(t, time.Minute, cfg.FetchInterval)
	assert.Equal(t, []string{"email", "int"}, cfg.Extractors)
	assert.Equal(t, ":7070", cfg.TCP)
}

func TestLoadTOMLFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.toml", `
tcp = ":17070"
verbose = 2
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":17070", cfg.TCP)
	assert.Equal(t, 2, cfg.Verbose)
}

func TestLoadSearchesXDG(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "pmatch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`metrics: ":19090"`), 0o644))
	xdg.Reload()

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":19090", cfg.Metrics)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", `listen: ":18080"`)
	t.Setenv("PMATCH_LISTEN", ":28080")
	t.Setenv("PMATCH_BUILTIN_EXTRACTORS", "trim,lower")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":28080", cfg.Listen)
	assert.Equal(t, []string{"trim", "lower"}, cfg.Extractors)
}

func TestFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PMATCH_LISTEN", ":28080")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{
		"--listen", ":38080",
		"--cases-url", "http://cases.local/set.json",
		"--fetch-interval", "5s",
		"-vv",
		"--builtin-extractors", "email,domain",
	}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, ":38080", cfg.Listen)
	assert.Equal(t, "http://cases.local/set.json", cfg.CasesURL)
	assert.Equal(t, 5*time.Second, cfg.FetchInterval)
	assert.Equal(t, 2, cfg.Verbose)
	assert.Equal(t, []string{"email", "domain"}, cfg.Extractors)
}

func TestUnsetFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", `listen: ":18080"`)

	cfg, err := Load(path, testFlags())
	require.NoError(t, err)
	assert.Equal(t, ":18080", cfg.Listen)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrConfigLoad, errors.GetErrorCode(err))
	})

	t.Run("bad interval", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "cases_url: http://x\nfetch_interval: 0s\n")
		_, err := Load(path, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrConfigLoad, errors.GetErrorCode(err))
	})

	t.Run("no listeners", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "listen: \"\"\ntcp: \"\"\n")
		_, err := Load(path, nil)
		require.Error(t, err)
	})
}
