package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/mitilog/pkg/analyzer"
	"github.com/ccollicutt/mitilog/pkg/config"
	"github.com/ccollicutt/mitilog/pkg/metrics"
	"github.com/ccollicutt/mitilog/pkg/output"
	"github.com/ccollicutt/mitilog/pkg/parser"
	"github.com/ccollicutt/mitilog/pkg/telemetry"
	"github.com/ccollicutt/mitilog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output      string
	Modules     []string
	Verbose     bool
	Quiet       bool
	MetricsFile string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <config-file>",
		Short: "Analyze encounter event logs",
		Long: `Replay every configured encounter through the configured modules.

Each module opens a capture window while its trigger buff is up, records the
matching events, and evaluates the windows once the encounter ends. Encounters
are analysed concurrently.

Exit codes:
  0 - No suggestions emitted
  1 - Suggestions emitted
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringSliceVar(&opts.Modules, "module", nil, "Run specific module(s) only (can be repeated)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show captured actions and run details")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnSuggestions),
		"When to fire webhook (on_suggestions|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cmd)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, "mitilog", Version)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	analyzerOpts := []analyzer.AnalyzerOption{
		analyzer.WithLogger(logger),
		analyzer.WithMetrics(metrics.New(reg)),
	}
	if len(opts.Modules) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithModuleFilter(opts.Modules))
	}

	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	start := time.Now()
	encounters, err := analyzeEncounters(ctx, a, cfg.Encounters)
	if err != nil {
		return err
	}

	report := output.NewReport(configPath, encounters)
	report.Metadata.AnalyzedAt = start
	report.Metadata.Duration = time.Since(start)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	// Send webhooks (errors logged but don't fail analysis)
	sendWebhooks(ctx, logger, cfg, opts, report)

	if report.HasSuggestions() {
		ExitCode = 1
	}

	return nil
}

// analyzeEncounters replays every encounter concurrently. Results keep the
// configured encounter order.
func analyzeEncounters(ctx context.Context, a *analyzer.Analyzer, encounters []config.EncounterConfig) ([]output.Encounter, error) {
	results := make([]output.Encounter, len(encounters))

	g, gctx := errgroup.WithContext(ctx)
	for i, enc := range encounters {
		g.Go(func() error {
			source, err := openEncounter(enc)
			if err != nil {
				return err
			}
			defer source.Close()

			result, err := a.Analyze(gctx, source)
			if err != nil {
				return fmt.Errorf("encounter %s: %w", enc.Name, err)
			}
			results[i] = output.Encounter{Name: enc.Name, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// openEncounter expands an encounter's sources and merges the matched event
// logs by timestamp.
func openEncounter(enc config.EncounterConfig) (parser.EventSource, error) {
	files, err := parser.ExpandGlobs(enc.Sources)
	if err != nil {
		return nil, fmt.Errorf("encounter %s: expanding sources: %w", enc.Name, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("encounter %s: no event logs matched patterns: %v", enc.Name, enc.Sources)
	}

	if len(files) == 1 {
		return parser.NewFileSource(files), nil
	}

	sources := make([]parser.EventSource, len(files))
	for i, file := range files {
		sources[i] = parser.NewFileSource([]string{file})
	}
	return parser.NewMergedSource(sources...), nil
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts *AnalyzeOptions, report *output.Report) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !webhook.ShouldFire(wh.Trigger, report) {
			continue
		}

		resp := client.Send(ctx, report, webhook.OptionsFor(wh))

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			logger.Info("webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
		} else {
			logger.Error("webhook failed", "webhook", name, "error", resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnSuggestions
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
