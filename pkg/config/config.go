package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/mitilog/pkg/suggestion"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, applies presets and defaults,
// and parses severity tiers. Action and status references are resolved later
// against the catalog.
func Validate(cfg *Config) error {
	if len(cfg.Encounters) == 0 {
		return errors.New("encounters: at least one encounter is required")
	}

	names := make(map[string]bool, len(cfg.Encounters))
	for i := range cfg.Encounters {
		enc := &cfg.Encounters[i]
		if enc.Name == "" {
			enc.Name = fmt.Sprintf("encounter-%d", i+1)
		}
		if names[enc.Name] {
			return fmt.Errorf("encounters[%d] (%s): duplicate name", i, enc.Name)
		}
		names[enc.Name] = true
		if len(enc.Sources) == 0 {
			return fmt.Errorf("encounters[%d] (%s): at least one source is required", i, enc.Name)
		}
	}

	if len(cfg.Modules) == 0 {
		return errors.New("modules: at least one module is required")
	}

	modules := make(map[string]bool, len(cfg.Modules))
	for i := range cfg.Modules {
		m := &cfg.Modules[i]
		if err := validateModule(cfg, m); err != nil {
			return fmt.Errorf("modules[%d] (%s): %w", i, m.Name, err)
		}
		if modules[m.Name] {
			return fmt.Errorf("modules[%d] (%s): duplicate name", i, m.Name)
		}
		modules[m.Name] = true
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateModule(cfg *Config, m *ModuleConfig) error {
	if m.Name == "" {
		return errors.New("name is required")
	}

	if err := applyPreset(m); err != nil {
		return err
	}

	switch m.ModuleTypeEnum() {
	case ModuleTypeAction:
		if cfg.Actor == "" {
			return errors.New("actor is required for action modules")
		}
	case ModuleTypeFoeAction, ModuleTypeDamage:
		if len(cfg.Foes) == 0 {
			return fmt.Errorf("foes are required for %s modules", m.Type)
		}
	default:
		return fmt.Errorf("invalid type %q (must be action, foe_action, or damage)", m.Type)
	}

	if err := validateTrigger(&m.Trigger); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	if len(m.TrackOnly) > 0 && len(m.Ignore) > 0 {
		return errors.New("track_only and ignore are mutually exclusive")
	}

	if len(m.Evaluators) == 0 {
		return errors.New("at least one evaluator is required")
	}

	for i := range m.Evaluators {
		if err := validateEvaluator(m, &m.Evaluators[i]); err != nil {
			return fmt.Errorf("evaluators[%d] (%s): %w", i, m.Evaluators[i].Type, err)
		}
	}

	return nil
}

func validateTrigger(t *TriggerConfig) error {
	if t.Type == "" {
		t.Type = string(TriggerTypeBuff)
	}

	switch TriggerType(t.Type) {
	case TriggerTypeBuff:
		if t.Status == "" {
			return errors.New("status is required for buff triggers")
		}
	default:
		return fmt.Errorf("invalid type %q (must be buff)", t.Type)
	}

	return nil
}

func validateEvaluator(m *ModuleConfig, ev *EvaluatorConfig) error {
	switch ev.EvaluatorTypeEnum() {
	case EvaluatorTypeExpectedCount:
		if m.ModuleTypeEnum() == ModuleTypeDamage {
			return errors.New("expected_count needs an action or foe_action module")
		}
		if ev.Expected < 0 {
			return errors.New("expected must be >= 0")
		}
		if ev.Expected == 0 {
			ev.Expected = DefaultExpectedCount
		}
		switch ev.Count {
		case "":
			ev.Count = CountAll
		case CountAll, CountGCD, CountOGCD:
		default:
			return fmt.Errorf("invalid count %q (must be all, gcd, or ogcd)", ev.Count)
		}

	case EvaluatorTypeDamageTaken:
		if m.ModuleTypeEnum() != ModuleTypeDamage {
			return errors.New("damage_taken needs a damage module")
		}

	default:
		return fmt.Errorf("invalid type %q (must be expected_count or damage_taken)", ev.Type)
	}

	tiers := make(suggestion.Tiers, len(ev.SeverityTiers))
	for threshold, name := range ev.SeverityTiers {
		if threshold < 0 {
			return fmt.Errorf("severity_tiers: negative threshold %v", threshold)
		}
		sev, err := suggestion.ParseSeverity(name)
		if err != nil {
			return fmt.Errorf("severity_tiers: %w", err)
		}
		tiers[threshold] = sev
	}
	ev.tiers = tiers

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnSuggestions, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_suggestions, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnSuggestions
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}
