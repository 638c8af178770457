package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// LogLevelFlag is the persistent flag the root command registers.
const LogLevelFlag = "log-level"

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (use debug, info, warn or error)", s)
	}
	return level, nil
}

// newLogger builds the stderr text logger for a command. Commands run
// without the root command log at warn.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f := cmd.Flags().Lookup(LogLevelFlag); f != nil {
		if l, err := ParseLogLevel(f.Value.String()); err == nil {
			level = l
		}
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
