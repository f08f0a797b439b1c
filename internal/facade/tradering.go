package facade

import "github.com/abdoElHodaky/auctioncore/internal/types"

// tradeRing is a fixed-capacity circular buffer of the most recent trades
// for one symbol, per SPEC_FULL §4.6's "Recent-trades retention" note:
// the WAL is the durable record, this ring is a read-back cache.
type tradeRing struct {
	buf   []types.Trade
	start int
	count int
}

func newTradeRing(capacity int) *tradeRing {
	return &tradeRing{buf: make([]types.Trade, capacity)}
}

func (r *tradeRing) push(t types.Trade) {
	if len(r.buf) == 0 {
		return
	}
	idx := (r.start + r.count) % len(r.buf)
	if r.count < len(r.buf) {
		r.buf[idx] = t
		r.count++
		return
	}
	r.buf[r.start] = t
	r.start = (r.start + 1) % len(r.buf)
}

// recent returns up to limit trades, most recent first. limit <= 0 means
// no cap (return everything retained).
func (r *tradeRing) recent(limit int) []types.Trade {
	if limit <= 0 || limit > r.count {
		limit = r.count
	}
	out := make([]types.Trade, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.start + r.count - 1 - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
