package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultExpectedCount  = 1
)

// Environment variable names.
const (
	EnvActor        = "MITILOG_ACTOR"
	EnvActionsFile  = "MITILOG_ACTIONS_FILE"
	EnvEventSources = "MITILOG_EVENT_SOURCES"
)

// EnvEncounterName names the encounter built from MITILOG_EVENT_SOURCES.
const EnvEncounterName = "env"

// envOverrides are the settings that can be supplied through the environment.
type envOverrides struct {
	Actor        string   `env:"MITILOG_ACTOR"`
	ActionsFile  string   `env:"MITILOG_ACTIONS_FILE"`
	EventSources []string `env:"MITILOG_EVENT_SOURCES" envSeparator:","`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Foes:       []string{},
		Encounters: []EncounterConfig{},
		Modules:    []ModuleConfig{},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// MITILOG_EVENT_SOURCES replaces the configured encounters with a single one.
func (c *Config) applyEnvironmentOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.Actor != "" {
		c.Actor = o.Actor
	}
	if o.ActionsFile != "" {
		c.ActionsFile = o.ActionsFile
	}
	if len(o.EventSources) > 0 {
		c.Encounters = []EncounterConfig{{Name: EnvEncounterName, Sources: o.EventSources}}
	}
	return nil
}
