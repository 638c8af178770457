package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestNewAnalyzeCommand(t *testing.T) {
	cmd := NewAnalyzeCommand()

	if cmd.Use != "analyze <config-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	flags := []string{"output", "module", "verbose", "quiet", "metrics-file", "webhook-url", "webhook-token", "webhook-trigger"}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	if cmd.Use != "validate <config-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	if !strings.Contains(cmd.Long, "Validate") {
		t.Error("Missing description in Long")
	}
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	if cmd.Use != "version" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if buf.String() != "mitilog "+Version+"\n" {
		t.Errorf("unexpected version output %q", buf.String())
	}
}

func TestRunValidate_Success(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := writeFile(t, tmpDir, "pull.jsonl", pullLog)
	configPath := writeConfig(t, tmpDir, logPath)

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{configPath})

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Configuration valid!",
		"[foe_action] kerachole",
		"Kerachole Uses (trigger: buff KERACHOLE)",
		"pull-1: 1 event log(s)",
		logPath,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\n%s", want, output)
		}
	}
}

func TestRunValidate_NoMatchingLogsIsWarning(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, filepath.Join(tmpDir, "*.jsonl"))

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{configPath})

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Warning: no files match") {
		t.Errorf("Expected warning for unmatched sources\n%s", buf.String())
	}
}

func TestRunValidate_UnknownCatalogKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeFile(t, tmpDir, "config.yaml", `actor: "1"
encounters:
  - name: pull-1
    sources: [pull.jsonl]
modules:
  - name: typo
    type: action
    trigger: {type: buff, status: KERACHOEL}
    evaluators:
      - type: expected_count
`)

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{configPath})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Errorf("Expected unknown status error, got %v", err)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeFile(t, tmpDir, "invalid.yaml", "invalid: yaml: content")

	cmd := NewValidateCommand()
	cmd.SetArgs([]string{configPath})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	cmd := NewValidateCommand()
	cmd.SetArgs([]string{"/nonexistent/config.yaml"})
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_UsesInheritedLevel(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	root.PersistentFlags().String(LogLevelFlag, "warn", "")

	var logs bytes.Buffer
	child := &cobra.Command{
		Use: "child",
		Run: func(cmd *cobra.Command, args []string) {
			newLogger(cmd).Debug("visible")
		},
	}
	root.AddCommand(child)
	root.SetErr(&logs)
	root.SetArgs([]string{"child", "--" + LogLevelFlag, "debug"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(logs.String(), "visible") {
		t.Errorf("debug record not logged: %q", logs.String())
	}
}

func TestNewLogger_DefaultsToWarn(t *testing.T) {
	cmd := &cobra.Command{Use: "standalone"}
	var logs bytes.Buffer
	cmd.SetErr(&logs)

	logger := newLogger(cmd)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(logs.String(), "hidden") || !strings.Contains(logs.String(), "shown") {
		t.Errorf("unexpected log output %q", logs.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestReadSample(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.jsonl", "# comment\n\n{\"a\":1}\n{\"b\":2}\n{\"c\":3}\n")

	lines, err := readSample(path, 2)
	if err != nil {
		t.Fatalf("readSample() error = %v", err)
	}
	if len(lines) != 2 || lines[0] != `{"a":1}` {
		t.Errorf("readSample() = %v", lines)
	}

	if _, err := readSample(filepath.Join(dir, "missing"), 2); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
