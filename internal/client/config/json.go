package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/flagx"
	"github.com/dmitrijs2005/pinvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30m"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	DatabaseDSN      string         `json:"database_dsn"`
	RiskEndpointAddr string         `json:"risk_endpoint_addr"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	ExtendInterval   timex.Duration `json:"extend_interval"`
}

// parseJson overlays Config with values loaded from a JSON file named by the
// -c/-config flag. Missing flag means no JSON is loaded. Panics on read or
// unmarshal errors (caller should recover if desired). Intended usage is:
// defaults -> parseJson -> parseFlags, where later stages override earlier
// ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RiskEndpointAddr != "" {
		cfg.RiskEndpointAddr = jc.RiskEndpointAddr
	}
	if jc.SessionTTL.Duration > 0 {
		cfg.SessionTTL = time.Duration(jc.SessionTTL.Duration)
	}
	if jc.ExtendInterval.Duration > 0 {
		cfg.ExtendInterval = time.Duration(jc.ExtendInterval.Duration)
	}
}
