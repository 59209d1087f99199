package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FileNames are the config files LoadDir looks for, in order.
var FileNames = []string{"chartflow.yml", "chartflow.yaml"}

// Config holds settings loaded from chartflow.yml.
type Config struct {
	Analyst         string                `yaml:"analyst,omitempty"`
	LogLevel        string                `yaml:"logLevel,omitempty"`
	PipelineTimeout string                `yaml:"pipelineTimeout,omitempty"`
	ToolTimeout     string                `yaml:"toolTimeout,omitempty"`
	Tools           map[string]ToolConfig `yaml:"tools,omitempty"`
}

// ToolConfig describes how one tool is reached. A tool with a URL is called
// over HTTP; otherwise Command is spawned once per call.
type ToolConfig struct {
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"`
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDir attempts to read chartflow.yml or chartflow.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func LoadDir(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(path)
	}
	return &Config{}, nil
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := parseDuration(c.PipelineTimeout); err != nil {
		errs = append(errs, fmt.Errorf("pipelineTimeout: %w", err))
	}
	if _, err := parseDuration(c.ToolTimeout); err != nil {
		errs = append(errs, fmt.Errorf("toolTimeout: %w", err))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logLevel: unknown level %q", c.LogLevel))
	}

	for _, name := range c.ToolNames() {
		t := c.Tools[name]
		switch {
		case t.Command == "" && t.URL == "":
			errs = append(errs, fmt.Errorf("tools.%s: command or url is required", name))
		case t.Command != "" && t.URL != "":
			errs = append(errs, fmt.Errorf("tools.%s: command and url are mutually exclusive", name))
		}
		if _, err := parseDuration(t.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("tools.%s.timeout: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ToolNames returns the configured tool names in lexical order.
func (c *Config) ToolNames() []string {
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PipelineTimeoutDuration is the whole-run timeout, zero when unset.
func (c *Config) PipelineTimeoutDuration() time.Duration {
	d, _ := parseDuration(c.PipelineTimeout)
	return d
}

// ToolTimeoutDuration is the default per-call timeout, zero when unset.
func (c *Config) ToolTimeoutDuration() time.Duration {
	d, _ := parseDuration(c.ToolTimeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
