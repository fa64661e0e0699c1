package engine

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ConfigFromEnv overlays DefaultConfig with any of the recognized
// environment variables spec.md §6 names, leaving defaults in place for
// anything unset or unparsable. Parse failures are ignored in favor of the
// default rather than failing startup — matching the teacher's preference
// for a running process over a fatal config error.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("MATCHD_MAKER_FEE_BPS"); ok {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.MakerFeeBps = d
		}
	}
	if v, ok := os.LookupEnv("MATCHD_TAKER_FEE_BPS"); ok {
		if d, err := decimal.NewFromString(v); err == nil {
			cfg.TakerFeeBps = d
		}
	}
	if v, ok := os.LookupEnv("MATCHD_RECENT_TRADES_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RecentTradesLimit = n
		}
	}
	if v, ok := os.LookupEnv("MATCHD_PERSIST_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PersistInterval = d
		}
	}
	if v, ok := os.LookupEnv("MATCHD_PERSIST_PATH"); ok && v != "" {
		cfg.PersistPath = v
	}

	return cfg
}
