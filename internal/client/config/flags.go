package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path of the local vault database
//	-r string   base URL of the risk scoring service
//	-t int      session ttl in minutes
//	-i int      session auto-extend interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path of the local vault database")
	fs.StringVar(&cfg.RiskEndpointAddr, "r", cfg.RiskEndpointAddr, "base URL of the risk scoring service")
	sessionTTL := fs.Int("t", int(cfg.SessionTTL.Minutes()), "session ttl (in minutes)")
	extendInterval := fs.Int("i", int(cfg.ExtendInterval.Seconds()), "auto-extend interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	cfg.ExtendInterval = time.Duration(*extendInterval) * time.Second
}
