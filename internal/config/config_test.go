package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pncpx/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Output.CheckpointPages != 50 {
		t.Fatalf("unexpected default checkpoint cadence: %d", cfg.Output.CheckpointPages)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.API.BaseURL != "https://pncp.gov.br/api/consulta" {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[api]",
		`base_url = "https://example.test/api/"`,
		"[output]",
		`dir = "` + filepath.Join(dir, "out") + `"`,
		"checkpoint_pages = 10",
		`format = "CSV_BR"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to resolve, got %q exists=%v", path, resolved, exists)
	}
	if cfg.API.BaseURL != "https://example.test/api" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.Output.Format != "csv_br" {
		t.Fatalf("format should be lowercased, got %q", cfg.Output.Format)
	}
	if cfg.Output.CheckpointPages != 10 {
		t.Fatalf("checkpoint_pages not applied: %d", cfg.Output.CheckpointPages)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[output]\nformat = \"xlsx\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unknown format")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly, err=%v exists=%v", err, exists)
	}
}
