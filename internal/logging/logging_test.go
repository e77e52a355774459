package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, Level(-1))
	assert.Equal(t, zerolog.WarnLevel, Level(0))
	assert.Equal(t, zerolog.InfoLevel, Level(1))
	assert.Equal(t, zerolog.DebugLevel, Level(2))
	assert.Equal(t, zerolog.TraceLevel, Level(5))
}

func TestSetupWritesLogFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		xdg.Reload()
	})
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	xdg.Reload()

	Setup(1, true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	logger := Component("test")
	logger.Info().Msg("hello from test")

	data, err := os.ReadFile(filepath.Join(state, "pmatch", "pmatch.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), `"component":"test"`)
	require.NoError(t, Close())
}

func TestSetupClosesPreviousLogFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		_ = Close()
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		xdg.Reload()
	})
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	xdg.Reload()

	Setup(1, true)
	first := logFile
	require.NotNil(t, first)

	Setup(1, true)
	second := logFile
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	_, err := first.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	Setup(0, false)
	assert.Nil(t, logFile)
	_, err = second.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)

	require.NoError(t, Close())
}
