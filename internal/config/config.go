package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		CallSpacingMS int    `yaml:"call_spacing_ms"`
	} `yaml:"data_source"`
	LLM struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`
	Council struct {
		MaxRounds int   `yaml:"max_rounds"`
		Seed      int64 `yaml:"seed"` // 0 means time-seeded
	} `yaml:"council"`
	Trade struct {
		StateFile   string  `yaml:"state_file"`
		MinBalance  float64 `yaml:"min_balance"`
		MinTrade    float64 `yaml:"min_trade"`
		MaxPerTrade float64 `yaml:"max_per_trade"`
	} `yaml:"trade"`
	Scanner struct {
		Cron            string  `yaml:"cron"`
		MinLiquidity    float64 `yaml:"min_liquidity"`
		MinHolders      int     `yaml:"min_holders"`
		CooldownMinutes int     `yaml:"cooldown_minutes"`
		TrendingLimit   int     `yaml:"trending_limit"`
	} `yaml:"scanner"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SCREENER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SCREENER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Scanner.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("COUNCIL_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Council.Seed = seed
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.CallSpacingMS == 0 {
		cfg.DataSource.CallSpacingMS = 750
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Council.MaxRounds == 0 {
		cfg.Council.MaxRounds = 3
	}
	if cfg.Trade.StateFile == "" {
		cfg.Trade.StateFile = "data/paper_state.json"
	}
	if cfg.Trade.MinBalance == 0 {
		cfg.Trade.MinBalance = 1.0
	}
	if cfg.Trade.MinTrade == 0 {
		cfg.Trade.MinTrade = 0.5
	}
	if cfg.Trade.MaxPerTrade == 0 {
		cfg.Trade.MaxPerTrade = 5.0
	}
	if cfg.Scanner.Cron == "" {
		cfg.Scanner.Cron = "0 */2 * * * *"
	}
	if cfg.Scanner.MinLiquidity == 0 {
		cfg.Scanner.MinLiquidity = 10000
	}
	if cfg.Scanner.MinHolders == 0 {
		cfg.Scanner.MinHolders = 50
	}
	if cfg.Scanner.CooldownMinutes == 0 {
		cfg.Scanner.CooldownMinutes = 60
	}
	if cfg.Scanner.TrendingLimit == 0 {
		cfg.Scanner.TrendingLimit = 20
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/token_council.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required")
	}
	if c.Council.MaxRounds < 1 || c.Council.MaxRounds > 10 {
		return fmt.Errorf("council.max_rounds must be between 1 and 10")
	}
	if c.Trade.MinTrade > c.Trade.MaxPerTrade {
		return fmt.Errorf("trade.min_trade exceeds trade.max_per_trade")
	}
	return nil
}
