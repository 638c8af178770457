package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/mitilog/pkg/analyzer"
	"github.com/ccollicutt/mitilog/pkg/config"
	"github.com/ccollicutt/mitilog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a mitilog configuration file without running analysis.

Checks:
  - YAML syntax
  - Required fields and module types
  - Presets and evaluator settings
  - Action and status references against the catalog
  - Event log existence per encounter (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Resolves catalog keys for every module.
	a, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Actor:      %s\n", cfg.Actor)
	fmt.Fprintf(out, "  Encounters: %d\n", len(cfg.Encounters))
	fmt.Fprintf(out, "  Modules:    %d\n", len(a.ModuleNames()))
	fmt.Fprintf(out, "  Catalog:    %d actions\n", a.Catalog().Len())

	fmt.Fprintf(out, "\nModules:\n")
	for i, m := range cfg.Modules {
		fmt.Fprintf(out, "  %d. [%s] %s\n", i+1, m.Type, m.Name)
		if m.Title != "" {
			fmt.Fprintf(out, "     %s (trigger: %s %s)\n", m.Title, m.Trigger.Type, m.Trigger.Status)
		}
	}

	fmt.Fprintf(out, "\nEncounters:\n")
	for _, enc := range cfg.Encounters {
		files, err := parser.ExpandGlobs(enc.Sources)
		switch {
		case err != nil:
			fmt.Fprintf(out, "  %s: Warning: error expanding sources: %v\n", enc.Name, err)
		case len(files) == 0:
			fmt.Fprintf(out, "  %s: Warning: no files match %v\n", enc.Name, enc.Sources)
		default:
			fmt.Fprintf(out, "  %s: %d event log(s)\n", enc.Name, len(files))
			for _, f := range files {
				fmt.Fprintf(out, "    - %s\n", f)
			}
		}
	}

	return nil
}
