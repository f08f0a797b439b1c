// Package eventbus implements the post-commit notification surface from
// SPEC_FULL §4.8: after a trade (or a rest/cancel/delta) is durably
// recorded, the facade publishes it here for any registered listener.
// Delivery is synchronous best-effort and must never roll back or delay
// matching — a listener that wants async processing hands off to its own
// queue, which is exactly the shape ThreeDotsLabs/watermill's in-memory
// GoChannel pub/sub provides. watermill is a direct teacher dependency
// (pulled in for its original NATS transport, now out of scope per
// DESIGN.md); only its GoChannel implementation is wired here, since this
// module ships as a single process with no external broker in scope.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// Kind identifies the shape of an Envelope's payload, per SPEC_FULL §4.8's
// `(TradeExecuted | OrderRested | OrderCancelled | BookDelta)` union.
type Kind uint8

const (
	TradeExecuted Kind = iota
	OrderRested
	OrderCancelled
	BookDelta
)

func (k Kind) topic() string {
	switch k {
	case TradeExecuted:
		return "trade.executed"
	case OrderRested:
		return "order.rested"
	case OrderCancelled:
		return "order.cancelled"
	case BookDelta:
		return "book.delta"
	default:
		return "unknown"
	}
}

// Envelope wraps one notification with a delivery id distinct from the
// WAL sequence number, per §4.8: a collaborator's own retry/ack cycle
// operates on a different identity space than replay.
type Envelope struct {
	DeliveryID    string `json:"delivery_id"`
	Kind          Kind   `json:"kind"`
	Symbol        types.Symbol `json:"symbol"`
	TimestampNano int64  `json:"timestamp_nano"`

	Trade *types.Trade `json:"trade,omitempty"`
	Order *types.Order `json:"order,omitempty"`

	// BestBid/BestAsk are populated for BookDelta envelopes only.
	BestBid string `json:"best_bid,omitempty"`
	BestAsk string `json:"best_ask,omitempty"`
}

// Bus is a thin facade over a GoChannel publisher/subscriber, scoped to
// this process.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *zap.Logger
}

// New constructs a Bus over a GoChannel with no persisted history, a
// 256-message buffer per subscriber, and publishing that does not wait for
// subscriber acks, so a slow listener does not hold up the matching path
// (§4.8).
func New(logger *zap.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish sends env to every subscriber of its kind's topic. A
// marshaling failure is logged and swallowed, not propagated, since a
// bus failure must never unwind a completed match — per §4.8.
func (b *Bus) Publish(env Envelope) {
	if env.DeliveryID == "" {
		env.DeliveryID = ksuid.New().String()
	}
	payload, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("eventbus: marshal envelope failed", zap.Error(err), zap.String("kind", env.Kind.topic()))
		return
	}

	msg := message.NewMessage(env.DeliveryID, payload)
	if err := b.pubsub.Publish(env.Kind.topic(), msg); err != nil {
		b.logger.Error("eventbus: publish failed", zap.Error(err), zap.String("kind", env.Kind.topic()))
	}
}

// PublishTrade is a convenience wrapper building a TradeExecuted envelope.
func (b *Bus) PublishTrade(symbol types.Symbol, trade types.Trade, nowNano int64) {
	b.Publish(Envelope{Kind: TradeExecuted, Symbol: symbol, Trade: &trade, TimestampNano: nowNano})
}

// PublishOrderRested is a convenience wrapper for an OrderRested envelope.
func (b *Bus) PublishOrderRested(symbol types.Symbol, order types.Order, nowNano int64) {
	b.Publish(Envelope{Kind: OrderRested, Symbol: symbol, Order: &order, TimestampNano: nowNano})
}

// PublishOrderCancelled is a convenience wrapper for an OrderCancelled
// envelope.
func (b *Bus) PublishOrderCancelled(symbol types.Symbol, order types.Order, nowNano int64) {
	b.Publish(Envelope{Kind: OrderCancelled, Symbol: symbol, Order: &order, TimestampNano: nowNano})
}

// PublishBookDelta is a convenience wrapper for a BookDelta envelope.
func (b *Bus) PublishBookDelta(symbol types.Symbol, bestBid, bestAsk string, nowNano int64) {
	b.Publish(Envelope{Kind: BookDelta, Symbol: symbol, BestBid: bestBid, BestAsk: bestAsk, TimestampNano: nowNano})
}

// Subscribe registers a new listener channel for kind. The returned
// channel is closed when ctx is cancelled or Close is called.
func (b *Bus) Subscribe(ctx context.Context, kind Kind) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, kind.topic())
	if err != nil {
		return nil, fmt.Errorf("eventbus: subscribe %s: %w", kind.topic(), err)
	}
	return ch, nil
}

// Close shuts down the underlying pub/sub, closing every subscriber
// channel.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DrainTimeout is a two-second drain budget; Close does not use it and
// nothing else in this module reads it.
const DrainTimeout = 2 * time.Second
