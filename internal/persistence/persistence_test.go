package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coreforge/internal/api"
	"coreforge/internal/common"
	"coreforge/internal/engine"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// TestSnapshotRoundTrip covers P7/S7: a snapshot written from a live engine
// and loaded into a fresh one reproduces the same BBO and bid-side L2, and
// still holds the parked trigger order.
func TestSnapshotRoundTrip(t *testing.T) {
	cfg := engine.DefaultConfig()
	eng := engine.New(cfg)

	eng.Submit(api.OrderRequest{Symbol: "BTC-USD", Side: common.Sell, Type: common.Limit, Price: decPtr("30000"), Quantity: dec("2")})
	eng.Submit(api.OrderRequest{Symbol: "BTC-USD", Side: common.Buy, Type: common.Limit, Price: decPtr("29900"), Quantity: dec("1")})
	eng.Submit(api.OrderRequest{Symbol: "BTC-USD", Side: common.Buy, Type: common.Limit, Price: decPtr("30000"), Quantity: dec("1")})
	eng.Submit(api.OrderRequest{
		Symbol:    "BTC-USD",
		Side:      common.Sell,
		Type:      common.Stop,
		StopPrice: decPtr("29800"),
		Quantity:  dec("1"),
	})

	path := filepath.Join(t.TempDir(), "state.json")
	snapshots := []engine.SymbolSnapshot{eng.SnapshotSymbol("BTC-USD")}
	require.NoError(t, writeAtomic(path, buildDocument(snapshots)))

	_, err := os.Stat(path)
	require.NoError(t, err)

	restored := engine.New(cfg)
	Load(restored, path)

	originalBBO := eng.BBO("BTC-USD")
	restoredBBO := restored.BBO("BTC-USD")
	require.NotNil(t, restoredBBO.Bid)
	require.NotNil(t, restoredBBO.Ask)
	assert.True(t, originalBBO.Bid.Equal(*restoredBBO.Bid))
	assert.True(t, originalBBO.Ask.Equal(*restoredBBO.Ask))

	originalL2 := eng.L2("BTC-USD", 10)
	restoredL2 := restored.L2("BTC-USD", 10)
	require.Equal(t, len(originalL2.Bids), len(restoredL2.Bids))
	for i := range originalL2.Bids {
		assert.True(t, originalL2.Bids[i].Price.Equal(restoredL2.Bids[i].Price))
		assert.True(t, originalL2.Bids[i].Quantity.Equal(restoredL2.Bids[i].Quantity))
	}

	// The parked stop order must still be cancellable post-recovery,
	// proving the trigger table round-tripped.
	snap := restored.SnapshotSymbol("BTC-USD")
	require.Len(t, snap.Triggers, 1)
	result := restored.Cancel(snap.Triggers[0].OrderID)
	assert.True(t, result.OK)
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	eng := engine.New(engine.DefaultConfig())
	Load(eng, filepath.Join(t.TempDir(), "does-not-exist.json"))

	bbo := eng.BBO("BTC-USD")
	assert.Nil(t, bbo.Bid)
	assert.Nil(t, bbo.Ask)
}

func TestLoad_CorruptFileStartsEmptyAndDoesNotPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	eng := engine.New(engine.DefaultConfig())
	assert.NotPanics(t, func() { Load(eng, path) })

	bbo := eng.BBO("BTC-USD")
	assert.Nil(t, bbo.Bid)
}
