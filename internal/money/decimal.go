// Package money wraps shopspring/decimal with the scale conventions this
// engine requires: price and quantity are both carried at 8 decimal places,
// arithmetic is exact, and division rounds half-to-even.
package money

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by price and quantity
// fields on the wire and in the WAL, matching the ×10^8 convention in
// SPEC_FULL §6's binary wire message.
const Scale = 8

// Decimal is a fixed-point signed number with at least 18 significant
// digits. Never construct one from a float64 literal in application code;
// go through FromString/MustFromString or FromInt64Scaled.
type Decimal struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Decimal{d: decimal.Zero}

// FromString parses a decimal literal such as "100.00" or "-3.5".
func FromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// MustFromString panics on malformed input; intended for literals in tests
// and default configuration, never for untrusted request data.
func MustFromString(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromInt64Scaled builds a Decimal from an integer mantissa already scaled
// by 10^Scale, the representation used on the binary wire (§6).
func FromInt64Scaled(mantissa int64) Decimal {
	return Decimal{d: decimal.New(mantissa, -Scale)}
}

// Int64Scaled returns the value as an integer mantissa scaled by 10^Scale,
// rounding half-to-even if the value carries more precision than the wire
// format supports.
func (d Decimal) Int64Scaled() int64 {
	return d.d.Shift(Scale).RoundBank(0).IntPart()
}

func (d Decimal) Add(o Decimal) Decimal { return Decimal{d: d.d.Add(o.d)} }
func (d Decimal) Sub(o Decimal) Decimal { return Decimal{d: d.d.Sub(o.d)} }
func (d Decimal) Mul(o Decimal) Decimal { return Decimal{d: d.d.Mul(o.d)} }

// Div performs exact division rounded half-to-even at Scale decimal places,
// per SPEC_FULL §3 ("division rounds half-to-even").
func (d Decimal) Div(o Decimal) Decimal {
	// QuoRem truncates the quotient at Scale places; round it half-to-even
	// by comparing 2*|r|*10^Scale with |o| and checking the last digit.
	q, r := d.d.QuoRem(o.d, Scale)
	c := r.Abs().Mul(decimal.New(2, Scale)).Cmp(o.d.Abs())
	odd := new(big.Int).Abs(q.Shift(Scale).BigInt()).Bit(0) == 1
	if c < 0 || (c == 0 && !odd) {
		return Decimal{d: q}
	}
	step := decimal.New(1, -Scale)
	if d.d.Sign()*o.d.Sign() < 0 {
		return Decimal{d: q.Sub(step)}
	}
	return Decimal{d: q.Add(step)}
}

func (d Decimal) Cmp(o Decimal) int      { return d.d.Cmp(o.d) }
func (d Decimal) Equal(o Decimal) bool   { return d.d.Equal(o.d) }
func (d Decimal) GreaterThan(o Decimal) bool { return d.d.GreaterThan(o.d) }
func (d Decimal) LessThan(o Decimal) bool    { return d.d.LessThan(o.d) }
func (d Decimal) GreaterThanOrEqual(o Decimal) bool { return d.d.GreaterThanOrEqual(o.d) }
func (d Decimal) LessThanOrEqual(o Decimal) bool    { return d.d.LessThanOrEqual(o.d) }
func (d Decimal) IsZero() bool           { return d.d.IsZero() }
func (d Decimal) IsPositive() bool       { return d.d.IsPositive() }
func (d Decimal) IsNegative() bool       { return d.d.IsNegative() }

// Min returns the smaller of two Decimals.
func Min(a, b Decimal) Decimal {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// Max returns the larger of two Decimals.
func Max(a, b Decimal) Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}

func (d Decimal) String() string { return d.d.StringFixed(Scale) }

// MarshalBinary encodes the decimal as sign+scale+little-endian mantissa
// bytes, the representation SPEC_FULL §6 requires for WAL payloads.
func (d Decimal) MarshalBinary() ([]byte, error) {
	coeff := d.d.Coefficient()
	exp := d.d.Exponent()
	sign := byte(0)
	if coeff.Sign() < 0 {
		sign = 1
		coeff = new(big.Int).Abs(coeff)
	}
	raw := coeff.Bytes() // big-endian
	reverse(raw)
	out := make([]byte, 0, 2+len(raw))
	out = append(out, sign, byte(int8(exp)))
	out = append(out, raw...)
	return out, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (d *Decimal) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("money: truncated decimal payload")
	}
	sign := data[0]
	exp := int32(int8(data[1]))
	raw := append([]byte(nil), data[2:]...)
	reverse(raw) // back to big-endian for big.Int.SetBytes
	coeff := new(big.Int).SetBytes(raw)
	if sign == 1 {
		coeff.Neg(coeff)
	}
	d.d = decimal.NewFromBigInt(coeff, exp)
	return nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
