package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/mitilog/pkg/config"
	"github.com/ccollicutt/mitilog/pkg/data"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/parser"
)

// sampleLines is how many event lines are decoded per file.
const sampleLines = 10

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Event log existence and accessibility
- Event line decoding against actual logs
- Pull records carrying encounter bounds
- Action and status references against the catalog

Example:
  mitilog diagnose config.yaml
  mitilog diagnose -v config.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	results = append(results, checkEncounters(cfg)...)
	results = append(results, checkEventLines(cfg, opts)...)
	results = append(results, checkPullRecords(ctx, cfg)...)
	results = append(results, checkCatalog(cfg, opts)...)
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{"Start from a preset: " + strings.Join(config.Presets(), ", ")}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Encounters: %d", len(cfg.Encounters)),
		fmt.Sprintf("Modules: %d", len(cfg.Modules)),
	}
	return cfg, result
}

func checkEncounters(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	totalFiles := 0
	for _, enc := range cfg.Encounters {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Encounter: %s", enc.Name),
		}

		files, err := parser.ExpandGlobs(enc.Sources)
		switch {
		case err != nil:
			result.Status = "error"
			result.Message = fmt.Sprintf("Invalid source pattern: %v", err)
		case len(files) == 0:
			result.Status = "error"
			result.Message = "Sources match no files"
			result.Details = enc.Sources
			result.Suggests = []string{
				"Check if the event logs exist at this path",
				"Verify the glob pattern syntax",
			}
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Matches %d event log(s)", len(files))
			result.Details = files
			totalFiles += len(files)

			for _, f := range files {
				if info, err := os.Stat(f); err == nil && info.Size() == 0 {
					result.Status = "warning"
					result.Message = fmt.Sprintf("Matches %d event log(s), some empty", len(files))
				}
			}
		}
		results = append(results, result)
	}

	if totalFiles == 0 {
		results = append(results, DiagnosticResult{
			Check:    "Event Logs Summary",
			Status:   "error",
			Message:  "No accessible event logs found",
			Suggests: []string{"Ensure at least one event log exists and is readable"},
		})
	}

	return results
}

var knownKinds = map[event.Kind]bool{
	event.KindAction:       true,
	event.KindDamage:       true,
	event.KindStatusApply:  true,
	event.KindStatusRemove: true,
	event.KindPull:         true,
}

// checkEventLines decodes the first lines of the first log of each encounter.
func checkEventLines(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, enc := range cfg.Encounters {
		files, _ := parser.ExpandGlobs(enc.Sources)
		if len(files) == 0 {
			continue
		}

		logFile := files[0]
		result := DiagnosticResult{
			Check: fmt.Sprintf("Event Lines: %s", logFile),
		}

		lines, err := readSample(logFile, sampleLines)
		if err != nil {
			result.Status = "warning"
			result.Message = fmt.Sprintf("Cannot read file: %v", err)
			results = append(results, result)
			continue
		}

		decoded := 0
		var sampleFail, sampleMatch string
		unknown := map[event.Kind]bool{}
		for _, line := range lines {
			var ev event.Event
			if err := json.Unmarshal([]byte(line), &ev); err != nil || ev.Type == "" {
				if sampleFail == "" {
					sampleFail = line
				}
				continue
			}
			decoded++
			if sampleMatch == "" {
				sampleMatch = line
			}
			if !knownKinds[ev.Type] {
				unknown[ev.Type] = true
			}
		}

		switch {
		case len(lines) == 0:
			result.Status = "warning"
			result.Message = "File has no event lines"
		case decoded == 0:
			result.Status = "error"
			result.Message = "No lines decode as events"
			result.Suggests = []string{
				"Event logs must be JSON lines with at least a \"type\" and \"timestamp\"",
			}
			result.Details = []string{"Sample line that didn't decode:", truncate(sampleFail, 80)}
		case decoded < len(lines):
			result.Status = "warning"
			result.Message = fmt.Sprintf("Decoded %d/%d sample lines", decoded, len(lines))
			result.Details = []string{"Sample line that didn't decode:", truncate(sampleFail, 80)}
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Decoded %d/%d sample lines", decoded, len(lines))
			if opts.Verbose {
				result.Details = []string{"Sample event:", truncate(sampleMatch, 80)}
			}
		}

		for kind := range unknown {
			if result.Status == "ok" {
				result.Status = "warning"
			}
			result.Details = append(result.Details, fmt.Sprintf("Unknown event type %q is ignored by every module", kind))
		}

		results = append(results, result)
	}

	return results
}

// readSample returns up to n non-blank, non-comment lines of a file.
func readSample(path string, n int) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided log paths from config
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() && len(lines) < n {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		lines = append(lines, string(line))
	}
	return lines, scanner.Err()
}

// checkPullRecords reads each encounter fully and reports its pull record.
func checkPullRecords(ctx context.Context, cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, enc := range cfg.Encounters {
		files, _ := parser.ExpandGlobs(enc.Sources)
		if len(files) == 0 {
			continue
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Pull Record: %s", enc.Name),
		}

		src := parser.NewFileSource(files)
		var pulls, events int
		var first, last int64
		var pull event.Event
		var readErr error
		for {
			rec, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				readErr = err
				break
			}
			if rec.Event.Type == event.KindPull {
				if pulls == 0 {
					pull = rec.Event
				}
				pulls++
				continue
			}
			if events == 0 {
				first = rec.Event.Timestamp
			}
			last = rec.Event.Timestamp
			events++
		}
		_ = src.Close()

		switch {
		case readErr != nil:
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot read event logs: %v", readErr)
		case pulls == 0:
			result.Status = "warning"
			result.Message = "No pull record, bounds will be taken from the first and last events"
			result.Details = []string{
				fmt.Sprintf("Inferred duration: %d ms over %d events", last-first, events),
			}
		case pulls > 1:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d pull records, only the first is used", pulls)
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Pull at %d lasting %d ms, %d events", pull.Timestamp, pull.Duration, events)
		}

		if skipped := src.Skipped(); skipped > 0 && readErr == nil {
			result.Details = append(result.Details, fmt.Sprintf("%d undecodable line(s) will be skipped", skipped))
		}

		results = append(results, result)
	}

	return results
}

// checkCatalog resolves every configured status and action reference.
func checkCatalog(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	cat := data.DefaultCatalog()
	catalogResult := DiagnosticResult{Check: "Action Catalog", Status: "ok"}
	if cfg.ActionsFile != "" {
		loaded, err := data.LoadCatalog(cfg.ActionsFile)
		if err != nil {
			catalogResult.Status = "error"
			catalogResult.Message = fmt.Sprintf("Cannot load actions file: %v", err)
			return append(results, catalogResult)
		}
		cat = loaded
		catalogResult.Message = fmt.Sprintf("%s layered over built-in catalog (%d actions)", cfg.ActionsFile, cat.Len())
	} else {
		catalogResult.Message = fmt.Sprintf("Built-in catalog (%d actions)", cat.Len())
	}
	results = append(results, catalogResult)

	for _, m := range cfg.Modules {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Module: %s", m.Name),
		}

		issues := []string{}
		if id, err := cat.ResolveStatusRef(m.Trigger.Status); err != nil {
			issues = append(issues, fmt.Sprintf("trigger status: %v", err))
		} else if _, known := cat.Status(id); !known {
			result.Details = append(result.Details, fmt.Sprintf("Status %d is not in the catalog", id))
		}

		for _, ref := range append(append([]string{}, m.TrackOnly...), m.Ignore...) {
			id, err := cat.ResolveActionRef(ref)
			if err != nil {
				issues = append(issues, fmt.Sprintf("action: %v", err))
				continue
			}
			if _, known := cat.Action(id); !known {
				result.Details = append(result.Details, fmt.Sprintf("Action %d is not in the catalog, its events will be dropped", id))
			}
		}

		switch {
		case len(issues) > 0:
			result.Status = "error"
			result.Message = fmt.Sprintf("%d unresolved reference(s)", len(issues))
			result.Details = append(issues, result.Details...)
			result.Suggests = []string{"Use a catalog key or add the id to actions_file"}
		case len(result.Details) > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(result.Details))
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Type: %s, trigger: %s", m.Type, m.Trigger.Status)
			if opts.Verbose {
				result.Details = []string{fmt.Sprintf("Evaluators: %d", len(m.Evaluators))}
			}
		}

		results = append(results, result)
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== mitilog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", name),
		}

		issues := []string{}
		warnings := []string{}

		if wh.URL == "" {
			issues = append(issues, "Missing url")
		} else {
			u, err := url.Parse(wh.URL)
			if err != nil {
				issues = append(issues, fmt.Sprintf("Invalid URL: %v", err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				issues = append(issues, fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme))
			} else if u.Host == "" {
				issues = append(issues, "URL must have a host")
			}
		}

		if wh.Trigger != "" {
			switch wh.Trigger {
			case config.WebhookTriggerOnSuggestions, config.WebhookTriggerAlways, config.WebhookTriggerNever:
			default:
				issues = append(issues, fmt.Sprintf("Invalid trigger %q (use on_suggestions, always, or never)", wh.Trigger))
			}
		}

		if strings.HasPrefix(wh.Token, "$") {
			warnings = append(warnings, fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token))
		}

		if len(issues) > 0 {
			result.Status = "error"
			result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
			result.Details = issues
		} else if len(warnings) > 0 {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
			if opts.Verbose {
				result.Details = []string{
					fmt.Sprintf("URL: %s", wh.URL),
					fmt.Sprintf("Timeout: %s", wh.Timeout),
				}
				if wh.Token != "" {
					result.Details = append(result.Details, "Token: configured")
				}
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			if wh.URL == "" {
				continue
			}

			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
