// Package config provides configuration loading and validation for mitilog.
package config

import (
	"time"

	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Actor is the player whose actions are tracked by action modules.
	Actor string `yaml:"actor"`

	// Foes are the hostile actors tracked by foe_action and damage modules.
	Foes []string `yaml:"foes,omitempty"`

	// ActionsFile is an optional catalog layered over the embedded one.
	ActionsFile string `yaml:"actions_file,omitempty"`

	Encounters []EncounterConfig `yaml:"encounters"`
	Modules    []ModuleConfig    `yaml:"modules"`
	Webhooks   []WebhookConfig   `yaml:"webhooks,omitempty"`
}

// ActorID returns the tracked player as an event actor id.
func (c *Config) ActorID() event.ActorID {
	return event.ActorID(c.Actor)
}

// FoeIDs returns the hostile actors as event actor ids.
func (c *Config) FoeIDs() []event.ActorID {
	ids := make([]event.ActorID, len(c.Foes))
	for i, f := range c.Foes {
		ids[i] = event.ActorID(f)
	}
	return ids
}

// EncounterConfig names one pull and the event logs recorded for it.
// Several sources are merged by timestamp.
type EncounterConfig struct {
	Name    string   `yaml:"name"`
	Sources []string `yaml:"sources"`
}

// ModuleType selects which events a module captures.
type ModuleType string

const (
	ModuleTypeAction    ModuleType = "action"
	ModuleTypeFoeAction ModuleType = "foe_action"
	ModuleTypeDamage    ModuleType = "damage"
)

// ModuleConfig defines one window analyzer.
type ModuleConfig struct {
	Name   string `yaml:"name"`
	Preset string `yaml:"preset,omitempty"`
	Type   string `yaml:"type"`
	Title  string `yaml:"title,omitempty"`

	Trigger TriggerConfig `yaml:"trigger"`

	// TrackOnly and Ignore are action keys or numeric ids. At most one may
	// be set.
	TrackOnly []string `yaml:"track_only,omitempty"`
	Ignore    []string `yaml:"ignore,omitempty"`

	Evaluators []EvaluatorConfig `yaml:"evaluators"`
}

// ModuleTypeEnum returns the module type as a ModuleType.
func (m *ModuleConfig) ModuleTypeEnum() ModuleType {
	return ModuleType(m.Type)
}

// TriggerType selects the window trigger policy.
type TriggerType string

const (
	TriggerTypeBuff TriggerType = "buff"
)

// AnyTarget as a trigger target follows the status on every actor.
const AnyTarget = "*"

// TriggerConfig defines when a module's windows open and close.
type TriggerConfig struct {
	Type string `yaml:"type"`

	// Status is a status key or numeric id.
	Status string `yaml:"status"`

	// Target restricts the status to one actor. Empty means the tracked
	// actor, and AnyTarget matches every actor.
	Target string `yaml:"target,omitempty"`
}

// EvaluatorType selects a window evaluator.
type EvaluatorType string

const (
	EvaluatorTypeExpectedCount EvaluatorType = "expected_count"
	EvaluatorTypeDamageTaken   EvaluatorType = "damage_taken"
)

// CountMode selects which actions an expected_count evaluator counts.
type CountMode string

const (
	CountAll  CountMode = "all"
	CountGCD  CountMode = "gcd"
	CountOGCD CountMode = "ogcd"
)

// EvaluatorConfig defines one evaluator of a module.
type EvaluatorConfig struct {
	Type string `yaml:"type"`

	// expected_count fields
	Expected      int64              `yaml:"expected,omitempty"`
	Count         CountMode          `yaml:"count,omitempty"`
	SeverityTiers map[float64]string `yaml:"severity_tiers,omitempty"`
	Suggestion    SuggestionConfig   `yaml:"suggestion,omitempty"`

	// Shared column identity
	Accessor string `yaml:"accessor,omitempty"`
	Header   string `yaml:"header,omitempty"`

	// damage_taken fields
	Language string `yaml:"language,omitempty"`

	tiers suggestion.Tiers
}

// Tiers returns the parsed severity tiers (populated during validation).
func (e *EvaluatorConfig) Tiers() suggestion.Tiers {
	return e.tiers
}

// EvaluatorTypeEnum returns the evaluator type as an EvaluatorType.
func (e *EvaluatorConfig) EvaluatorTypeEnum() EvaluatorType {
	return EvaluatorType(e.Type)
}

// SuggestionConfig is the text of an evaluator's suggestion.
type SuggestionConfig struct {
	Icon       string `yaml:"icon,omitempty"`
	Content    string `yaml:"content,omitempty"`
	WindowName string `yaml:"window_name,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnSuggestions fires only when suggestions were emitted (default).
	WebhookTriggerOnSuggestions WebhookTrigger = "on_suggestions"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_suggestions" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
