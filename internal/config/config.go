// Package config loads session settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FORMWIZARD_"

// Config describes how a document is mounted and submitted.
type Config struct {
	FormSelector     string `yaml:"form_selector" env:"FORM_SELECTOR"`
	StepSelector     string `yaml:"step_selector" env:"STEP_SELECTOR"`
	ContinueSelector string `yaml:"continue_selector" env:"CONTINUE_SELECTOR"`
	BackSelector     string `yaml:"back_selector" env:"BACK_SELECTOR"`
	SummarySelector  string `yaml:"summary_selector" env:"SUMMARY_SELECTOR"`
	SubmitSelector   string `yaml:"submit_selector" env:"SUBMIT_SELECTOR"`
	Namespace        string `yaml:"namespace" env:"NAMESPACE"`

	Async            bool `yaml:"async" env:"ASYNC"`
	StrictFieldNames bool `yaml:"strict_field_names" env:"STRICT_FIELD_NAMES"`
	UngatedBack      bool `yaml:"ungated_back" env:"UNGATED_BACK"`
	VisibleOnly      bool `yaml:"visible_only" env:"VISIBLE_ONLY"`

	// Action overrides the form's action attribute when set.
	Action  string        `yaml:"action" env:"ACTION"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	HiddenFields map[string]string `yaml:"hidden_fields" env:"HIDDEN_FIELDS"`
	Headers      map[string]string `yaml:"headers" env:"HEADERS"`
}

// Default returns the settings used when nothing else is configured. The
// selectors match the markup produced by the OpenAPI form builder.
func Default() Config {
	return Config{
		FormSelector:     "form",
		StepSelector:     "[data-step]",
		ContinueSelector: "[data-wizard-continue]",
		BackSelector:     "[data-wizard-back]",
		SummarySelector:  "[data-form-summary]",
		SubmitSelector:   `button[type="submit"]`,
		Namespace:        "data-fw-",
		Timeout:          30 * time.Second,
	}
}

// Load starts from Default, merges the YAML file at path (skipped when path
// is empty) and then the FORMWIZARD_ environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.FormSelector == "" {
		return errors.New("config: form selector is required")
	}
	if c.StepSelector == "" {
		return errors.New("config: step selector is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
