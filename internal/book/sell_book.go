package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// Asks is the sell-side ladder: price levels sorted best-first, i.e.
// ascending by price. Adapted from the teacher's sell_book.go in the same
// way Bids adapts buy_book.go.
type Asks struct {
	tree *btree.BTreeG[*PriceLevel]
}

func newAsks() *Asks {
	return &Asks{
		tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.Price.LessThan(b.Price)
		}),
	}
}

func (a *Asks) best() (*PriceLevel, bool) { return a.tree.Min() }

func (a *Asks) get(price decimal.Decimal) (*PriceLevel, bool) {
	return a.tree.Get(&PriceLevel{Price: price})
}

func (a *Asks) set(level *PriceLevel)    { a.tree.Set(level) }
func (a *Asks) delete(level *PriceLevel) { a.tree.Delete(level) }
func (a *Asks) len() int                 { return a.tree.Len() }

// levels returns price levels best-to-worst (ascending price).
func (a *Asks) levels(depth int) []*PriceLevel {
	hint := depth
	if hint < 0 {
		hint = 0
	}
	out := make([]*PriceLevel, 0, hint)
	a.tree.Scan(func(level *PriceLevel) bool {
		out = append(out, level)
		return depth <= 0 || len(out) < depth
	})
	return out
}
