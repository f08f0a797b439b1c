// Package validation implements SPEC_FULL §7's Validation category: the
// request-level checks that reject before any WAL append. ValidateOrder and
// ValidateStopOrder check fields directly; the go-playground/validator/v10
// instance carries a "symbol" tag for struct validation, following the
// teacher's NewValidator/custom-tag-registration shape from
// its own account/order request validators, generalized here to domain
// structs instead of HTTP request bodies.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	validate "github.com/go-playground/validator/v10"

	"github.com/abdoElHodaky/auctioncore/internal/apperrors"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,16}$`)

// Validator wraps a configured go-playground/validator instance with the
// custom tag functions this domain needs.
type Validator struct {
	v *validate.Validate
}

// New constructs a Validator with the "symbol" custom validation tag
// registered.
func New() *Validator {
	v := validate.New()
	v.RegisterValidation("symbol", validateSymbolTag)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{v: v}
}

func validateSymbolTag(fl validate.FieldLevel) bool {
	return symbolPattern.MatchString(fl.Field().String())
}

// ValidateSymbol checks a Symbol against SPEC_FULL §3's opaque-key shape.
func (val *Validator) ValidateSymbol(symbol types.Symbol) error {
	if !symbolPattern.MatchString(string(symbol)) {
		return apperrors.InvalidSymbol(string(symbol))
	}
	return nil
}

// ValidateOrder runs every Validation-category check SPEC_FULL §7 lists for
// an incoming order: invalid price, invalid quantity, invalid expire time,
// invalid symbol. It does not check duplicate-id (that is the dedupe
// cache's responsibility, since it requires engine state this package
// does not have).
func (val *Validator) ValidateOrder(o *types.Order) error {
	if err := val.ValidateSymbol(o.Symbol); err != nil {
		return err
	}
	if !o.Quantity.IsPositive() {
		return apperrors.InvalidQuantity("quantity must be positive")
	}
	if o.OrderType == types.Limit {
		if !o.HasPrice {
			return apperrors.InvalidPrice("limit order requires a price")
		}
		if !o.Price.IsPositive() {
			return apperrors.InvalidPrice("price must be positive")
		}
	}
	if o.Iceberg != nil && !o.Iceberg.Valid() {
		return apperrors.InvalidQuantity("iceberg display/hidden split is inconsistent with total quantity")
	}
	if o.TIF == types.GTD && !o.HasExpireTime {
		return apperrors.InvalidExpireTime("GTD orders require an expire time")
	}
	if o.HasExpireTime && o.ExpireTimeNano <= o.TimestampNano {
		return apperrors.InvalidExpireTime("expire time must be after submission time")
	}
	return nil
}

// ValidateStopOrder runs the Validation-category checks for a conditional
// order, mirroring ValidateOrder's shape for StopOrder's extra fields.
func (val *Validator) ValidateStopOrder(s *types.StopOrder) error {
	if err := val.ValidateSymbol(s.Symbol); err != nil {
		return err
	}
	if !s.Quantity.IsPositive() {
		return apperrors.InvalidQuantity("quantity must be positive")
	}
	if !s.TriggerPrice.IsPositive() {
		return apperrors.InvalidPrice("trigger price must be positive")
	}
	if s.StopType == types.StopLimit && (!s.HasLimitPrice || !s.LimitPrice.IsPositive()) {
		return apperrors.InvalidPrice("stop-limit order requires a positive limit price")
	}
	if s.StopType == types.TrailingStop {
		if s.HasTrailAmount == s.HasTrailPercent {
			return apperrors.InvalidQuantity("trailing stop requires exactly one of trail amount or trail percent")
		}
		if s.HasTrailAmount && !s.TrailAmount.IsPositive() {
			return apperrors.InvalidQuantity("trail amount must be positive")
		}
		if s.HasTrailPercent && !s.TrailPercent.IsPositive() {
			return apperrors.InvalidQuantity("trail percent must be positive")
		}
	}
	if s.HasExpireTime && s.ExpireTimeNano <= s.CreatedAtNano {
		return apperrors.InvalidExpireTime("expire time must be after creation time")
	}
	return nil
}
