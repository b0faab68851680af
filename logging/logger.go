package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv overrides the configured log level when set.
const LevelEnv = "GOSTATION_LOG_LEVEL"

// Init configures the global logger. level is one of debug, info, warn,
// error; anything else means info.
func Init(level string) {
	if env := os.Getenv(LevelEnv); env != "" {
		level = env
	}
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Console is the two-channel sink used by the station: Print lines go to
// the operator's terminal, Debug lines only to the structured log.
type Console struct {
	out    io.Writer
	logger zerolog.Logger
}

// NewConsole creates a Console writing operator lines to out. A nil out
// keeps operator lines in the structured log only.
func NewConsole(out io.Writer, name string) *Console {
	return &Console{
		out:    out,
		logger: log.With().Str("sink", name).Logger(),
	}
}

// WithLogger replaces the structured logger, mainly for tests.
func (c *Console) WithLogger(l zerolog.Logger) *Console {
	c.logger = l
	return c
}

// Debug implements entry.Logger.
func (c *Console) Debug(msg string) {
	c.logger.Debug().Msg(msg)
}

// Print implements entry.Logger.
func (c *Console) Print(msg string) {
	if c.out != nil {
		fmt.Fprintln(c.out, msg)
	}
	c.logger.Info().Msg(strings.TrimSpace(msg))
}
