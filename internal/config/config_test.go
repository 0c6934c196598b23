package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SVLINK_BASE_URL", "SVLINK_TIMEOUT", "SVLINK_EXPORT_DIR",
		"SVLINK_S3_BUCKET", "SVLINK_S3_REGION", "SVLINK_S3_ENDPOINT", "SVLINK_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.BaseURL != "http://localhost:10000" {
		t.Errorf("expected BaseURL=http://localhost:10000, got %s", cfg.API.BaseURL)
	}
	if cfg.Export.Sink != SinkFile {
		t.Errorf("expected Sink=file, got %s", cfg.Export.Sink)
	}
	if cfg.Logging.DebugMode {
		t.Error("expected debug mode off by default")
	}
	if !cfg.Usage.Enabled || cfg.Usage.Path != filepath.Join(DirName, "usage.json") {
		t.Errorf("unexpected usage defaults: %+v", cfg.Usage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://sv.link"
	cfg.Export.Dir = "/tmp/out"
	cfg.UI.Theme = "dark"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.API.BaseURL != "https://sv.link" {
		t.Errorf("expected BaseURL=https://sv.link, got %s", loaded.API.BaseURL)
	}
	if loaded.Export.Dir != "/tmp/out" {
		t.Errorf("expected Export.Dir=/tmp/out, got %s", loaded.Export.Dir)
	}
	if loaded.UI.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", loaded.UI.Theme)
	}
}

func TestConfig_SaveNeverWritesKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if strings.Contains(strings.ToLower(string(data)), "key") {
		t.Errorf("config file must not carry credentials:\n%s", data)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.Timeout != "30s" {
		t.Errorf("expected default timeout, got %s", cfg.API.Timeout)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  timeout: 5s\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetAPITimeout() != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.GetAPITimeout())
	}
	if cfg.Export.Dir != "exports" {
		t.Errorf("expected default export dir, got %s", cfg.Export.Dir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GetHandoffTTL() != 30*time.Minute {
		t.Errorf("expected 30m, got %v", cfg.GetHandoffTTL())
	}
	cfg.API.Timeout = "garbage"
	cfg.Handoff.TTL = "-1s"
	if cfg.GetAPITimeout() != 30*time.Second {
		t.Errorf("expected fallback 30s, got %v", cfg.GetAPITimeout())
	}
	if cfg.GetHandoffTTL() != 30*time.Minute {
		t.Errorf("expected fallback 30m, got %v", cfg.GetHandoffTTL())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"relative base url", func(c *Config) { c.API.BaseURL = "sv.link" }, false},
		{"unknown sink", func(c *Config) { c.Export.Sink = "ftp" }, false},
		{"s3 without bucket", func(c *Config) { c.Export.Sink = SinkS3 }, false},
		{"s3 with bucket", func(c *Config) { c.Export.Sink = SinkS3; c.Export.S3.Bucket = "b" }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDefaultPath_PrefersLocalDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, DirName), 0755); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	got := DefaultPath()
	if filepath.Base(filepath.Dir(got)) != DirName || filepath.Base(got) != "config.yaml" {
		t.Errorf("unexpected path %s", got)
	}
	resolved, _ := filepath.EvalSymlinks(filepath.Dir(filepath.Dir(got)))
	want, _ := filepath.EvalSymlinks(dir)
	if resolved != want {
		t.Errorf("expected local config under %s, got %s", want, got)
	}
}

// =============================================================================
// LOGGING CONFIG TESTS
// =============================================================================

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{DebugMode: false}
	if c.IsCategoryEnabled("api") {
		t.Error("debug mode off must disable every category")
	}

	c.DebugMode = true
	if !c.IsCategoryEnabled("api") {
		t.Error("nil category map enables everything")
	}

	c.Categories = map[string]bool{"api": false}
	if c.IsCategoryEnabled("api") {
		t.Error("api should be disabled")
	}
	if !c.IsCategoryEnabled("export") {
		t.Error("unlisted category should be enabled")
	}
}

func TestLoggingConfig_Options(t *testing.T) {
	c := LoggingConfig{DebugMode: true, Level: "debug", Format: "json", File: "x.log"}
	o := c.Options("/var/svlink")
	if !o.DebugMode || !o.JSONFormat || o.Dir != "/var/svlink" || o.File != "x.log" || o.Level != "debug" {
		t.Errorf("unexpected options %+v", o)
	}
}
