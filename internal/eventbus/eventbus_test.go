package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

func TestPublishTradeDeliversToSubscriber(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, TradeExecuted)
	require.NoError(t, err)

	trade := types.Trade{
		ID:            ids.NewTradeID(),
		Symbol:        "BTCUSD",
		Price:         money.MustFromString("100"),
		Quantity:      money.MustFromString("1"),
		BuyerOrderID:  ids.NewOrderID(),
		SellerOrderID: ids.NewOrderID(),
	}
	bus.PublishTrade("BTCUSD", trade, 42)

	select {
	case msg := <-ch:
		require.NotEmpty(t, msg.UUID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestPublishDoesNotBlockWithoutSubscribers(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		bus.PublishOrderCancelled("BTCUSD", types.Order{ID: ids.NewOrderID(), Symbol: "BTCUSD"}, 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish with no subscribers must not block")
	}
}

func TestEnvelopeGetsDeliveryIDWhenUnset(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, BookDelta)
	require.NoError(t, err)

	bus.PublishBookDelta("BTCUSD", "100.00000000", "101.00000000", 7)

	select {
	case msg := <-ch:
		require.NotEmpty(t, msg.UUID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestDistinctKindsUseDistinctTopics(t *testing.T) {
	require.NotEqual(t, TradeExecuted.topic(), OrderRested.topic())
	require.NotEqual(t, OrderRested.topic(), OrderCancelled.topic())
	require.NotEqual(t, OrderCancelled.topic(), BookDelta.topic())
}
