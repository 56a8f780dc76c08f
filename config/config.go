package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/peakguard/core/metrics"
	"github.com/kilianp07/peakguard/core/shaving"
	"github.com/kilianp07/peakguard/core/solar"
	"github.com/kilianp07/peakguard/core/tariff"
	"github.com/kilianp07/peakguard/infra/mqtt"
)

// BuildingConfig describes the monitored site and its supply contract.
type BuildingConfig struct {
	Site            string  `json:"site"`
	PrimaryUse      string  `json:"primary_use"`
	SquareFeet      float64 `json:"square_feet"`
	YearBuilt       int     `json:"year_built"`
	FloorCount      int     `json:"floor_count"`
	ContractLimitKW float64 `json:"contract_limit_kw"`
}

// SetDefaults applies a generic office profile.
func (c *BuildingConfig) SetDefaults() {
	if c.Site == "" {
		c.Site = "default"
	}
	if c.PrimaryUse == "" {
		c.PrimaryUse = "Office"
	}
	if c.SquareFeet == 0 {
		c.SquareFeet = 50000
	}
	if c.ContractLimitKW == 0 {
		c.ContractLimitKW = 500
	}
}

// Validate checks mandatory fields.
func (c BuildingConfig) Validate() error {
	if c.ContractLimitKW <= 0 {
		return fmt.Errorf("contract_limit_kw must be positive")
	}
	return nil
}

// ForecastConfig tunes the baseline provider.
type ForecastConfig struct {
	// HistoryWindow is the number of observations kept for regression fits.
	HistoryWindow int `json:"history_window"`
}

// SetDefaults keeps a week of hourly observations.
func (c *ForecastConfig) SetDefaults() {
	if c.HistoryWindow == 0 {
		c.HistoryWindow = 168
	}
}

// APIConfig defines the HTTP surface exposed to the dashboard.
type APIConfig struct {
	Enabled        bool     `json:"enabled"`
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults applies the default listen address.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Config is the root configuration document.
type Config struct {
	Building   BuildingConfig  `json:"building"`
	Tariff     tariff.Schedule `json:"tariff"`
	Mitigation shaving.Config  `json:"mitigation"`
	Solar      solar.Config    `json:"solar"`
	Forecast   ForecastConfig  `json:"forecast"`
	MQTT       mqtt.Config     `json:"mqtt"`
	Metrics    metrics.Config  `json:"metrics"`
	API        APIConfig       `json:"api"`
}

// Load reads the configuration file and applies PG_ environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("PG_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pg_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Building.SetDefaults()
	cfg.Tariff.SetDefaults()
	cfg.Mitigation.SetDefaults()
	cfg.Solar.SetDefaults()
	cfg.Forecast.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Building.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Tariff.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Mitigation.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Solar.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
