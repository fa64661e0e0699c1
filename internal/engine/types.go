package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"coreforge/internal/money"
)

// Config holds the enumerated engine-wide configuration spec.md §6 names:
// fee schedule, recent-trade retention, snapshot cadence/path and the
// price/quantity precision limits. Replaces the teacher's engine/types.go
// AssetType scaffold, which the spec never calls for (symbols are plain
// strings, not an asset-class taxonomy) — see DESIGN.md.
type Config struct {
	MakerFeeBps decimal.Decimal
	TakerFeeBps decimal.Decimal

	RecentTradesLimit int

	PersistInterval time.Duration
	PersistPath     string

	Limits money.Limits
}

// DefaultConfig mirrors the defaults enumerated in spec.md §6.
func DefaultConfig() Config {
	return Config{
		MakerFeeBps:       decimal.RequireFromString("-1.0"),
		TakerFeeBps:       decimal.RequireFromString("2.5"),
		RecentTradesLimit: 1000,
		PersistInterval:   5 * time.Second,
		PersistPath:       "./state/state.json",
		Limits:            money.DefaultLimits(),
	}
}
