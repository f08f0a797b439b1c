// Package wire implements SPEC_FULL §6's binary wire message for optional
// direct clients: a 52-byte packed, big-endian order message framed with a
// u16 length prefix. Grounded on
// original_source/src/protocol/binary.rs's BinaryOrderMessage/FramedCodec
// (PRICE_SCALE = 10^8, the exact field order and sizes), re-expressed over
// stdlib encoding/binary + bytes.Buffer rather than the source's `bytes`
// crate — see DESIGN.md's C12 entry for why this one piece stays on the
// standard library.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// MessageType tags the wire message's purpose, per the source's
// MessageType enum.
type MessageType uint8

const (
	MsgNewOrder           MessageType = 1
	MsgCancelOrder        MessageType = 2
	MsgModifyOrder        MessageType = 3
	MsgExecutionReport    MessageType = 4
	MsgOrderBookSnapshot  MessageType = 5
	MsgTrade              MessageType = 6
	MsgHeartbeat          MessageType = 255
)

// MessageSize is the fixed packed size of an OrderMessage body, not
// counting the 2-byte length frame.
const MessageSize = 52

// symbolWidth is the NUL-padded symbol field width on the wire; SPEC_FULL
// §6's module-wide symbol limit (16 bytes) is wider than this legacy
// wire format's 8-byte field, so callers must keep symbols that cross
// this wire short or expect truncation, exactly as the source's
// from_order does.
const symbolWidth = 8

// OrderMessage is the 52-byte packed order message from SPEC_FULL §6:
// `msg_type | side | order_type | tif | price×10^8 | quantity×10^8 |
// symbol[8] | order_id[16] | timestamp_ns`.
type OrderMessage struct {
	MsgType       MessageType
	Side          types.Side
	OrderType     types.OrderType
	TIF           types.TimeInForce
	PriceScaled   int64
	QuantityScaled int64
	Symbol        [symbolWidth]byte
	OrderID       [16]byte
	TimestampNano uint64
}

// FromOrder builds an OrderMessage from a domain Order, per the source's
// from_order: the symbol is truncated (not rejected) at 8 bytes, and an
// unset price (a Market order) encodes as zero.
func FromOrder(o types.Order) OrderMessage {
	var symbol [symbolWidth]byte
	sb := []byte(o.Symbol)
	n := len(sb)
	if n > symbolWidth {
		n = symbolWidth
	}
	copy(symbol[:], sb[:n])

	var priceScaled int64
	if o.HasPrice {
		priceScaled = o.Price.Int64Scaled()
	}

	return OrderMessage{
		MsgType:        MsgNewOrder,
		Side:           o.Side,
		OrderType:      o.OrderType,
		TIF:            o.TIF,
		PriceScaled:    priceScaled,
		QuantityScaled: o.Quantity.Int64Scaled(),
		Symbol:         symbol,
		OrderID:        uuid.UUID(o.ID),
		TimestampNano:  uint64(o.TimestampNano),
	}
}

// ToOrder converts m back into a domain Order, per the source's to_order:
// a Limit order's price is Some, a Market order's is unset; user_id has no
// wire representation and is left blank for the caller to fill in from
// session context, matching the source's "binary" placeholder convention
// only in spirit (this engine leaves it for the caller rather than
// inventing a fake identity).
func (m OrderMessage) ToOrder() types.Order {
	order := types.Order{
		ID:            ids.OrderID(m.OrderID),
		Symbol:        types.Symbol(trimTrailingNUL(m.Symbol[:])),
		Side:          m.Side,
		OrderType:     m.OrderType,
		Quantity:      money.FromInt64Scaled(m.QuantityScaled),
		Status:        types.StatusNew,
		TimestampNano: int64(m.TimestampNano),
		TIF:           m.TIF,
	}
	if m.OrderType == types.Limit {
		order.Price = money.FromInt64Scaled(m.PriceScaled)
		order.HasPrice = true
	}
	return order
}

func trimTrailingNUL(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return string(b[:i])
}

// Encode serializes m as the 52-byte packed, big-endian body, per
// SPEC_FULL §6.
func (m OrderMessage) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(MessageSize)
	buf.WriteByte(byte(m.MsgType))
	buf.WriteByte(byte(m.Side))
	buf.WriteByte(byte(m.OrderType))
	buf.WriteByte(byte(m.TIF))
	binary.Write(&buf, binary.BigEndian, m.PriceScaled)
	binary.Write(&buf, binary.BigEndian, m.QuantityScaled)
	buf.Write(m.Symbol[:])
	buf.Write(m.OrderID[:])
	binary.Write(&buf, binary.BigEndian, m.TimestampNano)
	return buf.Bytes()
}

// Decode parses a 52-byte packed body into an OrderMessage.
func Decode(data []byte) (OrderMessage, error) {
	if len(data) < MessageSize {
		return OrderMessage{}, fmt.Errorf("wire: incomplete message: got %d bytes, want %d", len(data), MessageSize)
	}
	r := bytes.NewReader(data[:MessageSize])

	var m OrderMessage
	msgType, _ := r.ReadByte()
	side, _ := r.ReadByte()
	orderType, _ := r.ReadByte()
	tif, _ := r.ReadByte()
	m.MsgType = MessageType(msgType)
	m.Side = types.Side(side)
	m.OrderType = types.OrderType(orderType)
	m.TIF = types.TimeInForce(tif)

	if err := binary.Read(r, binary.BigEndian, &m.PriceScaled); err != nil {
		return OrderMessage{}, fmt.Errorf("wire: read price: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.QuantityScaled); err != nil {
		return OrderMessage{}, fmt.Errorf("wire: read quantity: %w", err)
	}
	if _, err := r.Read(m.Symbol[:]); err != nil {
		return OrderMessage{}, fmt.Errorf("wire: read symbol: %w", err)
	}
	if _, err := r.Read(m.OrderID[:]); err != nil {
		return OrderMessage{}, fmt.Errorf("wire: read order id: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.TimestampNano); err != nil {
		return OrderMessage{}, fmt.Errorf("wire: read timestamp: %w", err)
	}
	return m, nil
}

// EncodeFramed prefixes m's encoding with a u16 big-endian length, per
// SPEC_FULL §6's "Framed with length:u16 prefix."
func EncodeFramed(m OrderMessage) []byte {
	body := m.Encode()
	out := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(out, uint16(len(body)))
	copy(out[2:], body)
	return out
}

// DecodeFramed reads one length-prefixed message from the front of buf,
// returning the message, the number of bytes consumed, and whether a
// complete message was available. Mirrors the source's FramedCodec's
// partial-read tolerance: an incomplete buffer returns ok=false with no
// error, so a stream reader can simply wait for more bytes.
func DecodeFramed(buf []byte) (msg OrderMessage, consumed int, ok bool, err error) {
	if len(buf) < 2 {
		return OrderMessage{}, 0, false, nil
	}
	length := int(binary.BigEndian.Uint16(buf[:2]))
	if len(buf) < 2+length {
		return OrderMessage{}, 0, false, nil
	}
	msg, err = Decode(buf[2 : 2+length])
	if err != nil {
		return OrderMessage{}, 0, false, err
	}
	return msg, 2 + length, true, nil
}
