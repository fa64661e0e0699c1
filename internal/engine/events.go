package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coreforge/internal/api"
)

// subscriberQueueSize bounds the per-subscriber channel. A slow subscriber
// that falls behind is dropped rather than allowed to backpressure
// matching (spec.md §5, §7 SubscriberError).
const subscriberQueueSize = 1024

// eventBus fans out trade/book-changed events per symbol. Grounded on the
// non-teacher pack repo DimaJoyti-ai-agentic-crypto-browser's
// internal/hft/orderbook_engine.go Subscribe/broadcastUpdate: buffered
// channels per subscriber, non-blocking send, drop on full rather than
// block the matching loop.
type eventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan api.Event
}

func newEventBus() *eventBus {
	return &eventBus{subscribers: make(map[string][]chan api.Event)}
}

// Subscribe returns a receive-only channel of events for symbol.
func (b *eventBus) Subscribe(symbol string) <-chan api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.Event, subscriberQueueSize)
	b.subscribers[symbol] = append(b.subscribers[symbol], ch)
	return ch
}

// publish delivers ev to every subscriber of ev.Symbol. Never blocks: a
// subscriber whose channel is full is dropped (its channel is closed and
// removed) rather than stalling the caller, which is always holding the
// symbol lock.
func (b *eventBus) publish(ev api.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[ev.Symbol]
	kept := subs[:0]
	for _, ch := range subs {
		select {
		case ch <- ev:
			kept = append(kept, ch)
		default:
			close(ch)
			log.Warn().
				Str("symbol", ev.Symbol).
				Time("ts", time.Now()).
				Msg("dropping slow subscriber")
		}
	}
	b.subscribers[ev.Symbol] = kept
}
