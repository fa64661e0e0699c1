package engine

import "coreforge/internal/common"

// recentTrades is a bounded FIFO of the most recent trades for one symbol,
// oldest evicted first. Read by the persistence snapshot writer and by
// RecentTrades queries; always cloned out under the symbol lock so readers
// never observe a torn slice (spec.md §5).
type recentTrades struct {
	limit int
	buf   []common.Trade
}

func newRecentTrades(limit int) *recentTrades {
	return &recentTrades{limit: limit}
}

// add appends a trade, evicting the oldest entry once limit is exceeded.
func (r *recentTrades) add(t common.Trade) {
	r.buf = append(r.buf, t)
	if over := len(r.buf) - r.limit; over > 0 {
		r.buf = r.buf[over:]
	}
}

// snapshot returns an independent copy of the retained window, oldest
// first.
func (r *recentTrades) snapshot() []common.Trade {
	out := make([]common.Trade, len(r.buf))
	copy(out, r.buf)
	return out
}

// since returns trades with TradeID strictly after sinceTradeID, oldest
// first. If sinceTradeID is empty or not found, the full retained window
// is returned (spec.md §6 recent_trades incremental semantics).
func (r *recentTrades) since(sinceTradeID string) []common.Trade {
	if sinceTradeID == "" {
		return r.snapshot()
	}
	for i, t := range r.buf {
		if t.TradeID == sinceTradeID {
			return append([]common.Trade(nil), r.buf[i+1:]...)
		}
	}
	return r.snapshot()
}

// restore replaces the buffer wholesale, used by snapshot recovery.
func (r *recentTrades) restore(trades []common.Trade) {
	r.buf = append([]common.Trade(nil), trades...)
	if over := len(r.buf) - r.limit; over > 0 {
		r.buf = r.buf[over:]
	}
}
