// Package config holds runtime settings for the PinVault CLI.
package config

import "time"

// Config holds runtime settings for the vault client.
//
// Fields:
//   - DatabaseDSN: path/DSN of the local SQLite vault database.
//   - RiskEndpointAddr: base URL of the phishing-risk scoring service.
//   - SessionTTL: how long an unlock lasts without activity.
//   - ExtendInterval: how often an active session is re-extended.
type Config struct {
	DatabaseDSN      string
	RiskEndpointAddr string
	SessionTTL       time.Duration
	ExtendInterval   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "pinvault.db"
	c.RiskEndpointAddr = "http://127.0.0.1:5000"
	c.SessionTTL = 30 * time.Minute
	c.ExtendInterval = 60 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
