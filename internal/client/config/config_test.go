package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	require.Equal(t, "pinvault.db", cfg.DatabaseDSN)
	require.Equal(t, "http://127.0.0.1:5000", cfg.RiskEndpointAddr)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 60*time.Second, cfg.ExtendInterval)
}

func TestJsonConfig_Unmarshal(t *testing.T) {
	data := []byte(`{
		"database_dsn": "test.db",
		"risk_endpoint_addr": "http://risk:5000",
		"session_ttl": "15m",
		"extend_interval": "30s"
	}`)

	var jc JsonConfig
	require.NoError(t, json.Unmarshal(data, &jc))
	require.Equal(t, "test.db", jc.DatabaseDSN)
	require.Equal(t, "http://risk:5000", jc.RiskEndpointAddr)
	require.Equal(t, 15*time.Minute, jc.SessionTTL.Duration)
	require.Equal(t, 30*time.Second, jc.ExtendInterval.Duration)
}

func TestParseJson_OverlaysOnlyProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_dsn":"other.db"}`), 0o600))

	oldArgs := os.Args
	os.Args = []string{"pinvault", "-c", path}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	require.Equal(t, "other.db", cfg.DatabaseDSN)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL, "unset json fields keep defaults")
}

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"pinvault", "-d", "flag.db", "-t", "10"}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	require.Equal(t, "flag.db", cfg.DatabaseDSN)
	require.Equal(t, 10*time.Minute, cfg.SessionTTL)
	require.Equal(t, 60*time.Second, cfg.ExtendInterval, "untouched flags keep defaults")
}
