// Package cli provides the command-line interface for mitilog.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/mitilog/internal/cli/commands"
	"github.com/ccollicutt/mitilog/internal/cli/plugins"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:])
}

func run(ctx context.Context, args []string) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)

	// Check if the first argument might be a plugin command
	if len(args) > 0 && isCandidatePlugin(rootCmd, args[0]) {
		if pluginPath, err := plugins.FindPlugin(args[0]); err == nil {
			return plugins.Execute(ctx, pluginPath, args[1:])
		}
	}

	commands.ExitCode = 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if len(args) > 0 && isCandidatePlugin(rootCmd, args[0]) {
			_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), plugins.FormatNotFoundError(args[0]))
			return 2
		}
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// isCandidatePlugin reports whether arg names neither a flag nor a built-in
// command.
func isCandidatePlugin(rootCmd *cobra.Command, arg string) bool {
	return arg != "" && arg[0] != '-' && !isBuiltinCommand(rootCmd, arg)
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	// Also check for special commands like help and completion
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "mitilog",
		Short: "Check mitigation windows in combat event logs",
		Long: `mitilog replays encounter event logs and grades how well timed buffs
were used.

A module opens a capture window while its trigger buff is up, records the
actions or damage that land inside it, and compares each window with what a
well-played window should contain. Shortfalls become graded suggestions.

PLUGINS:
  mitilog supports plugins for extended functionality. Plugins are standalone
  binaries named mitilog-<command> that are automatically discovered and invoked.

  Plugin locations (searched in order):
    1. Same directory as the mitilog binary
    2. ~/.mitilog/plugins/
    3. Anywhere in PATH`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := commands.ParseLogLevel(logLevel)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, commands.LogLevelFlag, "warn", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
