// Package config loads the verifier's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Sett11/dc-verifier-sub001/models"
)

// GeneratorEndpoint is one endpoint of a configured router generator.
type GeneratorEndpoint struct {
	Path           string `yaml:"path"`
	Method         string `yaml:"method"`
	RequestSchema  string `yaml:"request_schema"`
	ResponseSchema string `yaml:"response_schema"`
}

// Generator teaches the backend analyzer about an in-house router factory:
// any call to one of Functions registers all of Endpoints.
type Generator struct {
	Module    string              `yaml:"module"`
	Functions []string            `yaml:"functions"`
	Endpoints []GeneratorEndpoint `yaml:"endpoints"`
}

// Severities overrides the default rule severities; empty values keep the
// defaults.
type Severities struct {
	TypeMismatch  string `yaml:"type_mismatch"`
	MissingField  string `yaml:"missing_field"`
	ExtraField    string `yaml:"extra_field"`
	Unnormalized  string `yaml:"unnormalized_data"`
	MissingSchema string `yaml:"missing_schema"`
}

// Report selects the output renderer.
type Report struct {
	Format string `yaml:"format"` // console, markdown, json
	Output string `yaml:"output"` // file path, empty for stdout
}

// Config is the top-level verifier configuration.
type Config struct {
	Backend       []string    `yaml:"backend"`
	Frontend      []string    `yaml:"frontend"`
	OpenAPI       []string    `yaml:"openapi"` // OpenAPI documents merged as backend routes
	MaxDepth      int         `yaml:"max_depth"`
	StrictImports bool        `yaml:"strict_imports"`
	IncludeTests  bool        `yaml:"include_tests"`
	FailOn        string      `yaml:"fail_on"` // severity that makes the run exit non-zero
	Severities    Severities  `yaml:"severities"`
	Generators    []Generator `yaml:"generators"`
	Report        Report      `yaml:"report"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		FailOn: string(models.SeverityCritical),
		Report: Report{Format: "console"},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Report.Format {
	case "", "console", "markdown", "json":
	default:
		return fmt.Errorf("unknown report format %q", c.Report.Format)
	}
	if _, ok := ParseSeverity(c.FailOn); c.FailOn != "" && !ok {
		return fmt.Errorf("unknown severity %q for fail_on", c.FailOn)
	}
	for _, s := range []string{
		c.Severities.TypeMismatch, c.Severities.MissingField,
		c.Severities.ExtraField, c.Severities.Unnormalized, c.Severities.MissingSchema,
	} {
		if _, ok := ParseSeverity(s); s != "" && !ok {
			return fmt.Errorf("unknown severity %q", s)
		}
	}
	for _, doc := range c.OpenAPI {
		if doc == "" {
			return fmt.Errorf("openapi entries must name a document path")
		}
	}
	for _, g := range c.Generators {
		if g.Module == "" || len(g.Functions) == 0 {
			return fmt.Errorf("generator needs a module and at least one function")
		}
	}
	return nil
}

// ParseSeverity maps a config string to a severity; ok is false for
// unknown values.
func ParseSeverity(s string) (models.Severity, bool) {
	switch s {
	case string(models.SeverityInfo):
		return models.SeverityInfo, true
	case string(models.SeverityWarning):
		return models.SeverityWarning, true
	case string(models.SeverityCritical):
		return models.SeverityCritical, true
	}
	return models.SeverityInfo, false
}
