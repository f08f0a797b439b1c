// Package ids mints the opaque 128-bit identifiers SPEC_FULL §3 requires
// for orders, trades, and stop orders, plus a small clock abstraction so
// matching-path code never calls time.Now() directly.
package ids

import (
	"time"

	"github.com/google/uuid"
)

// OrderID is a stable, globally unique 128-bit token with no ordering
// semantics, per SPEC_FULL §3.
type OrderID uuid.UUID

func (id OrderID) String() string { return uuid.UUID(id).String() }

// TradeID identifies a single executed trade.
type TradeID uuid.UUID

func (id TradeID) String() string { return uuid.UUID(id).String() }

// StopOrderID identifies a pending conditional order.
type StopOrderID uuid.UUID

func (id StopOrderID) String() string { return uuid.UUID(id).String() }

// NewOrderID mints a fresh, random OrderID.
func NewOrderID() OrderID { return OrderID(uuid.New()) }

// NewTradeID mints a fresh, random TradeID.
func NewTradeID() TradeID { return TradeID(uuid.New()) }

// NewStopOrderID mints a fresh, random StopOrderID.
func NewStopOrderID() StopOrderID { return StopOrderID(uuid.New()) }

// Clock supplies the monotonic nanosecond timestamps the matching and
// trigger engines stamp onto orders and WAL records. Production code uses
// SystemClock; tests inject a FixedClock or a manually-advanced one so
// ordering assertions ("timestamps differing by 1 ns") are deterministic.
type Clock interface {
	NowNano() int64
}

// SystemClock reads the OS monotonic/wall clock via time.Now.
type SystemClock struct{}

func (SystemClock) NowNano() int64 { return time.Now().UnixNano() }

// FixedClock always returns the same instant; useful for golden-output
// tests that must not depend on wall-clock time.
type FixedClock struct{ Nanos int64 }

func (c FixedClock) NowNano() int64 { return c.Nanos }

// SequenceClock returns strictly increasing nanosecond values starting at
// Base+1, incrementing by 1 on every call. Useful for property tests that
// need many distinct, ordered timestamps without sleeping.
type SequenceClock struct {
	Base    int64
	counter int64
}

func (c *SequenceClock) NowNano() int64 {
	c.counter++
	return c.Base + c.counter
}
