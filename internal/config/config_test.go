package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Council.MaxRounds != 3 {
		t.Errorf("expected default max_rounds 3, got %d", cfg.Council.MaxRounds)
	}
	if cfg.Trade.MaxPerTrade != 5.0 {
		t.Errorf("expected default max_per_trade 5.0, got %.1f", cfg.Trade.MaxPerTrade)
	}
	if cfg.Scanner.MinHolders != 50 {
		t.Errorf("expected default min_holders 50, got %d", cfg.Scanner.MinHolders)
	}
	if cfg.DataSource.CallSpacingMS != 750 {
		t.Errorf("expected default call spacing 750ms, got %d", cfg.DataSource.CallSpacingMS)
	}
	if cfg.Database.SQLitePath == "" {
		t.Error("expected a default sqlite path")
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
data_source:
  base_url: "https://screener.test"
council:
  max_rounds: 5
trade:
  max_per_trade: 2.5
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCREENER_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "env-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.BaseURL != "https://screener.test" {
		t.Errorf("unexpected base url: %s", cfg.DataSource.BaseURL)
	}
	if cfg.Council.MaxRounds != 5 {
		t.Errorf("expected max_rounds 5 from file, got %d", cfg.Council.MaxRounds)
	}
	if cfg.Trade.MaxPerTrade != 2.5 {
		t.Errorf("expected max_per_trade 2.5 from file, got %.1f", cfg.Trade.MaxPerTrade)
	}
	if cfg.DataSource.APIKey != "env-key" {
		t.Errorf("expected env override for api key, got %q", cfg.DataSource.APIKey)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("expected env override for model, got %q", cfg.LLM.Model)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to require data_source.base_url")
	}

	cfg.DataSource.BaseURL = "https://screener.test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}

	cfg.Council.MaxRounds = 99
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to reject max_rounds 99")
	}
	cfg.Council.MaxRounds = 3

	cfg.Trade.MinTrade = 10
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to reject min_trade above max_per_trade")
	}
}
