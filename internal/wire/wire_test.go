package wire

import (
	"testing"

	"github.com/google/uuid"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

func testOrder() types.Order {
	return types.Order{
		ID:            ids.OrderID(uuid.New()),
		Symbol:        "BTCUSD",
		Side:          types.Buy,
		OrderType:     types.Limit,
		Price:         money.MustFromString("50000.12345678"),
		HasPrice:      true,
		Quantity:      money.MustFromString("1.50000000"),
		TIF:           types.GTC,
		TimestampNano: 1234567890,
	}
}

func TestMessageSizeIs52Bytes(t *testing.T) {
	m := FromOrder(testOrder())
	if got := len(m.Encode()); got != MessageSize {
		t.Fatalf("encoded size = %d, want %d", got, MessageSize)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	order := testOrder()
	m := FromOrder(order)

	decoded, err := Decode(m.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Side != m.Side || decoded.OrderType != m.OrderType {
		t.Fatalf("side/order_type mismatch: got %+v, want %+v", decoded, m)
	}
	if decoded.PriceScaled != m.PriceScaled || decoded.QuantityScaled != m.QuantityScaled {
		t.Fatalf("price/quantity mismatch: got %+v, want %+v", decoded, m)
	}
	if decoded.OrderID != m.OrderID {
		t.Fatalf("order id mismatch: got %x, want %x", decoded.OrderID, m.OrderID)
	}
}

func TestFramedCodecRoundTrip(t *testing.T) {
	m := FromOrder(testOrder())
	framed := EncodeFramed(m)
	if len(framed) != 2+MessageSize {
		t.Fatalf("framed size = %d, want %d", len(framed), 2+MessageSize)
	}

	decoded, consumed, ok, err := DecodeFramed(framed)
	if err != nil {
		t.Fatalf("decode framed: %v", err)
	}
	if !ok {
		t.Fatal("expected a complete frame")
	}
	if consumed != len(framed) {
		t.Fatalf("consumed = %d, want %d", consumed, len(framed))
	}
	if decoded.OrderID != m.OrderID {
		t.Fatal("order id mismatch after framed round-trip")
	}
}

func TestDecodeFramedIncompleteReturnsNotOK(t *testing.T) {
	framed := EncodeFramed(FromOrder(testOrder()))
	_, _, ok, err := DecodeFramed(framed[:len(framed)-1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected incomplete frame to report ok=false")
	}
}

func TestSymbolTruncation(t *testing.T) {
	order := testOrder()
	order.Symbol = "VERYLONGSYMBOL"
	m := FromOrder(order)

	got := string(m.Symbol[:])
	if len(got) > symbolWidth {
		t.Fatalf("symbol field exceeds %d bytes: %q", symbolWidth, got)
	}
}

func TestToOrderPreservesFixedPointPrice(t *testing.T) {
	order := testOrder()
	m := FromOrder(order)
	back := m.ToOrder()

	if !back.Price.Equal(order.Price) {
		t.Fatalf("price round-trip mismatch: got %s, want %s", back.Price, order.Price)
	}
}

func TestMarketOrderHasNoPrice(t *testing.T) {
	order := testOrder()
	order.OrderType = types.Market
	order.HasPrice = false
	order.Price = money.Zero

	m := FromOrder(order)
	if m.PriceScaled != 0 {
		t.Fatalf("market order should encode zero price, got %d", m.PriceScaled)
	}
	back := m.ToOrder()
	if back.HasPrice {
		t.Fatal("market order should decode with HasPrice=false")
	}
}
