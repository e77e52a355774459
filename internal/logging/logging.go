package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFileName = "pmatch/pmatch.log"

var (
	mu        sync.Mutex
	logFile   *os.File
	verbosity int
)

// Level maps a -v count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger. Output goes to stderr, coloured only
// when stderr is a terminal, and, when toFile is set, also to
// $XDG_STATE_HOME/pmatch/pmatch.log. A log file opened by an earlier call
// is closed.
func Setup(v int, toFile bool) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(Level(v))
	verbosity = v

	var (
		path string
		f    *os.File
		err  error
	)
	if toFile {
		path, f, err = openLogFile()
		if err != nil {
			f = nil
		}
	}
	swap(f)

	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to open log file, logging to console only")
	}
	log.Debug().Int("verbosity", v).Str("logFile", path).Msg("logger initialized")
}

// Close detaches and closes the log file, if any. Logging continues on
// stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return swap(nil)
}

// swap installs a global logger writing to stderr and f, then closes the
// previous log file. Callers hold mu.
func swap(f *os.File) error {
	writers := []io.Writer{console(os.Stderr)}
	if f != nil {
		writers = append(writers, f)
	}
	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	prev := logFile
	logFile = f
	if prev == nil {
		return nil
	}
	return prev.Close()
}

func console(f *os.File) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        f,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()),
	}
}

func openLogFile() (string, *os.File, error) {
	path, err := xdg.StateFile(logFileName)
	if err != nil {
		return "", nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	return path, f, err
}

// Component returns a logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
