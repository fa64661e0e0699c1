package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// Bids is the buy-side ladder: price levels sorted best-first, i.e.
// descending by price. Adapted from the teacher's buy_book.go, whose
// Less() compared highest-price-first for a container/heap.Interface;
// here the same ordering drives a github.com/tidwall/btree.BTreeG so
// best-price peek and ordered traversal are both cheap.
type Bids struct {
	tree *btree.BTreeG[*PriceLevel]
}

func newBids() *Bids {
	return &Bids{
		tree: btree.NewBTreeG(func(a, b *PriceLevel) bool {
			return a.Price.GreaterThan(b.Price)
		}),
	}
}

func (b *Bids) best() (*PriceLevel, bool) { return b.tree.Min() }

func (b *Bids) get(price decimal.Decimal) (*PriceLevel, bool) {
	return b.tree.Get(&PriceLevel{Price: price})
}

func (b *Bids) set(level *PriceLevel)    { b.tree.Set(level) }
func (b *Bids) delete(level *PriceLevel) { b.tree.Delete(level) }
func (b *Bids) len() int                 { return b.tree.Len() }

// levels returns price levels best-to-worst (descending price).
func (b *Bids) levels(depth int) []*PriceLevel {
	hint := depth
	if hint < 0 {
		hint = 0
	}
	out := make([]*PriceLevel, 0, hint)
	b.tree.Scan(func(level *PriceLevel) bool {
		out = append(out, level)
		return depth <= 0 || len(out) < depth
	})
	return out
}
