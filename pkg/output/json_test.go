package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed struct {
		Summary    Summary `json:"summary"`
		Encounters []struct {
			Name    string `json:"name"`
			Modules []struct {
				Name    string `json:"name"`
				Entries []struct {
					Start       int64 `json:"start"`
					TargetsData map[string]struct {
						Actual   int64  `json:"actual"`
						Expected *int64 `json:"expected"`
						Outcome  string `json:"outcome"`
					} `json:"targets_data"`
				} `json:"entries"`
			} `json:"modules"`
			Suggestions []struct {
				Severity string `json:"severity"`
			} `json:"suggestions"`
		} `json:"encounters"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.Windows != 2 || parsed.Summary.Suggestions != 1 {
		t.Errorf("Summary = %+v", parsed.Summary)
	}
	if len(parsed.Encounters) != 1 {
		t.Fatalf("Encounters = %d, want 1", len(parsed.Encounters))
	}

	enc := parsed.Encounters[0]
	if enc.Name != "pull-1" || enc.Modules[0].Name != "kerachole" {
		t.Errorf("encounter = %+v", enc)
	}
	row := enc.Modules[0].Entries[1].TargetsData["missedgcd"]
	if row.Actual != 0 || row.Expected == nil || *row.Expected != 1 || row.Outcome != "negative" {
		t.Errorf("row = %+v", row)
	}
	if enc.Suggestions[0].Severity != "medium" {
		t.Errorf("Severity = %q, want medium", enc.Suggestions[0].Severity)
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var summary Summary
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if summary.Encounters != 1 || summary.BySeverity["medium"] != 1 {
		t.Errorf("Summary = %+v", summary)
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "text", "json"} {
		if _, err := NewFormatter(name, FormatOptions{}); err != nil {
			t.Errorf("NewFormatter(%q) error = %v", name, err)
		}
	}
	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}

func TestReport_HasSuggestions(t *testing.T) {
	if !createTestReport().HasSuggestions() {
		t.Error("HasSuggestions() = false, want true")
	}
	if NewReport("x", nil).HasSuggestions() {
		t.Error("HasSuggestions() = true for empty report")
	}
}
