package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	if cfg.Export.MaxAttempts != 10 {
		t.Errorf("Default export max_attempts = %d, want 10", cfg.Export.MaxAttempts)
	}

	if cfg.Thumbnails.MaxWidth != 800 || cfg.Thumbnails.MaxHeight != 600 {
		t.Errorf("Default thumbnail bounds = %dx%d, want 800x600", cfg.Thumbnails.MaxWidth, cfg.Thumbnails.MaxHeight)
	}

	if !strings.HasPrefix(cfg.Export.URL, "https://") {
		t.Errorf("Default export url = %q, want https endpoint", cfg.Export.URL)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
portal:
  url: https://portal.example.com
  token: "super-secret"
  timeout_sec: 5
export:
  url: https://print.example.com/execute
  max_attempts: 3
  timeout_sec: 10
  width: 400
  height: 300
  dpi: 96
document:
  theme: obsidian
  file_name_transliterate: true
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Portal.URL != "https://portal.example.com" {
		t.Errorf("Portal URL = %q, want portal.example.com", cfg.Portal.URL)
	}

	if cfg.Export.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Export.MaxAttempts)
	}

	if cfg.Document.Theme != "obsidian" {
		t.Errorf("Theme = %q, want obsidian", cfg.Document.Theme)
	}

	if !cfg.Document.FileNameTransliterate {
		t.Error("Expected FileNameTransliterate to be true")
	}

	// defaults not mentioned in the file must survive
	if cfg.Thumbnails.BlankStdDev != 5.0 {
		t.Errorf("BlankStdDev = %f, want default 5.0", cfg.Thumbnails.BlankStdDev)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unknown.yaml")

	configWithUnknown := `version: 1
unknown_field: value
`

	if err := os.WriteFile(configPath, []byte(configWithUnknown), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for unknown fields")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_values.yaml")

	// Invalid version number
	configWithInvalidVersion := `version: 2
`

	if err := os.WriteFile(configPath, []byte(configWithInvalidVersion), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected validation error for invalid version")
	}
}

func TestLoadConfiguration_BadTheme(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "theme.yaml")

	content := `version: 1
document:
  theme: neon
`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected validation error for unsupported theme")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}

	// Verify it's valid YAML by trying to unmarshal
	cfg := &Config{}
	_, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump_HidesToken(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Portal.Token = "very-private"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	if strings.Contains(string(data), "very-private") {
		t.Error("Dump() leaked portal token")
	}
}

func TestTimeouts(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Portal.Timeout() <= 0 {
		t.Errorf("Portal timeout = %v, want positive", cfg.Portal.Timeout())
	}
	if cfg.Export.Timeout() <= 0 {
		t.Errorf("Export timeout = %v, want positive", cfg.Export.Timeout())
	}
}
