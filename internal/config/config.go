package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all svlink configuration.
// The API key is not part of it: it comes from --api-key or
// SVLINK_API_KEY on each run and is never written to disk.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Export  ExportConfig  `yaml:"export"`
	Handoff HandoffConfig `yaml:"handoff"`
	Usage   UsageConfig   `yaml:"usage"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the batch backend.
type APIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

// ExportConfig configures where exported artifacts are delivered.
type ExportConfig struct {
	Dir  string   `yaml:"dir"`
	Sink string   `yaml:"sink"` // file, s3
	S3   S3Config `yaml:"s3"`
}

// S3Config configures the S3 export sink.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // optional, e.g. MinIO
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// HandoffConfig configures the QR gallery handoff store.
type HandoffConfig struct {
	Path string `yaml:"path"`
	TTL  string `yaml:"ttl"`
}

// UsageConfig configures the local batch usage ledger.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// UIConfig configures the interactive program.
type UIConfig struct {
	Theme    string `yaml:"theme"` // auto, light, dark
	ShowHelp bool   `yaml:"show_help"`
}

// Sink names.
const (
	SinkFile = "file"
	SinkS3   = "s3"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:10000",
			Timeout:   "30s",
			UserAgent: "svlink-batch/1.0",
		},
		Export: ExportConfig{
			Dir:  "exports",
			Sink: SinkFile,
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "svlink/",
			},
		},
		Handoff: HandoffConfig{
			Path: filepath.Join(DirName, "handoff.db"),
			TTL:  "30m",
		},
		Usage: UsageConfig{
			Enabled: true,
			Path:    filepath.Join(DirName, "usage.json"),
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Logging: LoggingConfig{
			Level:     "info",
			File:      "svlink.log",
			DebugMode: false,
		},
	}
}

// DirName is the project-local configuration directory.
const DirName = ".svlink"

// DefaultPath returns the config file path: ./.svlink/config.yaml when the
// directory exists, otherwise ~/.svlink/config.yaml.
func DefaultPath() string {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, DirName)
		if stat, err := os.Stat(local); err == nil && stat.IsDir() {
			return filepath.Join(local, "config.yaml")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, "config.yaml")
	}
	return filepath.Join(home, DirName, "config.yaml")
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults (with environment overrides applied).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SVLINK_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SVLINK_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("SVLINK_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("SVLINK_S3_BUCKET"); v != "" {
		c.Export.S3.Bucket = v
		c.Export.Sink = SinkS3
	}
	if v := os.Getenv("SVLINK_S3_REGION"); v != "" {
		c.Export.S3.Region = v
	}
	if v := os.Getenv("SVLINK_S3_ENDPOINT"); v != "" {
		c.Export.S3.Endpoint = v
	}
	if v := os.Getenv("SVLINK_DEBUG"); v != "" {
		c.Logging.DebugMode = strings.EqualFold(v, "true") || v == "1"
	}
}

// GetAPITimeout returns the backend timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetHandoffTTL returns the handoff lifetime as a duration.
func (c *Config) GetHandoffTTL() time.Duration {
	d, err := time.ParseDuration(c.Handoff.TTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// ValidSinks lists the supported export sinks.
var ValidSinks = []string{SinkFile, SinkS3}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}

	validSink := false
	for _, s := range ValidSinks {
		if c.Export.Sink == s {
			validSink = true
			break
		}
	}
	if !validSink {
		return fmt.Errorf("invalid export.sink: %s (valid: %v)", c.Export.Sink, ValidSinks)
	}
	if c.Export.Sink == SinkS3 && c.Export.S3.Bucket == "" {
		return fmt.Errorf("export.s3.bucket required for s3 sink")
	}

	switch c.UI.Theme {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("invalid ui.theme: %s", c.UI.Theme)
	}
	return nil
}
