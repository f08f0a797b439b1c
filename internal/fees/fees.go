// Package fees computes maker/taker fees for an executed trade from a
// per-symbol (or default) basis-point schedule, per SPEC_FULL §4.13:
// bookkeeping attached to an already-decided trade, never an input to
// matching. Grounded on the original engine's maker/taker fee model
// (original_source/src/models/trade.rs computes maker_fee/taker_fee
// inline on trade construction); here it is pulled out into its own
// collaborator so the matching engine stays free of pricing policy.
package fees

import (
	"strconv"

	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// bpsDivisor converts basis points (1/100 of a percent) to a fraction.
var bpsDivisor = money.MustFromString("10000")

// Schedule computes maker/taker fees from basis-point rates, with an
// optional per-symbol override of the default rates.
type Schedule struct {
	defaultMakerBps money.Decimal
	defaultTakerBps money.Decimal
	perSymbolMaker  map[types.Symbol]money.Decimal
	perSymbolTaker  map[types.Symbol]money.Decimal
}

// New builds a Schedule from the default maker/taker basis-point rates,
// per SPEC_FULL §6's `fees.maker_bps`/`fees.taker_bps` (default 10/20).
func New(makerBps, takerBps int) *Schedule {
	return &Schedule{
		defaultMakerBps: bpsDecimal(makerBps),
		defaultTakerBps: bpsDecimal(takerBps),
		perSymbolMaker:  make(map[types.Symbol]money.Decimal),
		perSymbolTaker:  make(map[types.Symbol]money.Decimal),
	}
}

// SetSymbolRates overrides the maker/taker basis-point rates for symbol.
func (s *Schedule) SetSymbolRates(symbol types.Symbol, makerBps, takerBps int) {
	s.perSymbolMaker[symbol] = bpsDecimal(makerBps)
	s.perSymbolTaker[symbol] = bpsDecimal(takerBps)
}

func bpsDecimal(bps int) money.Decimal {
	return money.MustFromString(strconv.Itoa(bps))
}

func (s *Schedule) makerRate(symbol types.Symbol) money.Decimal {
	if r, ok := s.perSymbolMaker[symbol]; ok {
		return r
	}
	return s.defaultMakerBps
}

func (s *Schedule) takerRate(symbol types.Symbol) money.Decimal {
	if r, ok := s.perSymbolTaker[symbol]; ok {
		return r
	}
	return s.defaultTakerBps
}

// notional is price * quantity, the base the fee basis points apply to.
func notional(price, quantity money.Decimal) money.Decimal {
	return price.Mul(quantity)
}

// Apply computes and sets trade.MakerFee and trade.TakerFee in place from
// this schedule's rates for trade.Symbol.
func (s *Schedule) Apply(trade *types.Trade) {
	base := notional(trade.Price, trade.Quantity)
	trade.MakerFee = base.Mul(s.makerRate(trade.Symbol)).Div(bpsDivisor)
	trade.TakerFee = base.Mul(s.takerRate(trade.Symbol)).Div(bpsDivisor)
}
