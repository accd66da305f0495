package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths(filepath.Join(t.TempDir(), "absent.toml"))).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "gdelt-client" {
		t.Errorf("expected app name 'gdelt-client', got %s", cfg.App.Name)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
	if cfg.Files.MaxConcurrentDownloads != 10 {
		t.Errorf("expected default concurrency 10, got %d", cfg.Files.MaxConcurrentDownloads)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("expected default max attempts 5, got %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.Fallback.Enabled {
		t.Error("expected fallback enabled by default")
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[app]
name = "custom-client"
version = "2.0.0"
environment = "staging"

[files]
max_concurrent_downloads = 20

[log]
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-client" {
		t.Errorf("expected app name 'custom-client', got %s", cfg.App.Name)
	}
	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %s", cfg.App.Version)
	}
	if cfg.Files.MaxConcurrentDownloads != 20 {
		t.Errorf("expected concurrency 20, got %d", cfg.Files.MaxConcurrentDownloads)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	os.Setenv("GDELT_APP_NAME", "env-client")
	defer os.Unsetenv("GDELT_APP_NAME")

	cfg, err := NewLoader(WithConfigPaths(filepath.Join(t.TempDir(), "absent.toml"))).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-client" {
		t.Errorf("expected app name 'env-client', got %s", cfg.App.Name)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[app]
name = "file-client"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	os.Setenv("GDELT_APP_NAME", "env-override")
	defer os.Unsetenv("GDELT_APP_NAME")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-override" {
		t.Errorf("expected env override, got %s", cfg.App.Name)
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	os.Setenv("CUSTOM_APP_NAME", "custom-prefix-client")
	defer os.Unsetenv("CUSTOM_APP_NAME")

	cfg, err := NewLoader(
		WithConfigPaths(filepath.Join(t.TempDir(), "absent.toml")),
		WithEnvPrefix("CUSTOM_"),
	).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-prefix-client" {
		t.Errorf("expected 'custom-prefix-client', got %s", cfg.App.Name)
	}
}

func TestLoader_WithOverride(t *testing.T) {
	cfg, err := NewLoader(
		WithConfigPaths(filepath.Join(t.TempDir(), "absent.toml")),
		WithOverride("warehouse.project_id", "gdelt-bq-demo"),
	).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Warehouse.ProjectID != "gdelt-bq-demo" {
		t.Errorf("expected override project id, got %s", cfg.Warehouse.ProjectID)
	}
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config: %v", r)
		}
	}()

	cfg := MustLoad(WithConfigPaths(filepath.Join(t.TempDir(), "absent.toml")))
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.toml")

	configContent := `
[app]
name = "config-env-var-client"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	os.Setenv("GDELT_CONFIG_PATH", configPath)
	defer os.Unsetenv("GDELT_CONFIG_PATH")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "config-env-var-client" {
		t.Errorf("expected 'config-env-var-client', got %s", cfg.App.Name)
	}
}
