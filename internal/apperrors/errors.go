// Package apperrors implements SPEC_FULL §7's four-category error
// taxonomy (Validation, State, Trading, Internal) as a single structured
// error type inspectable via errors.Is/errors.As, generalized from this
// lineage's own service/validation/repository error-wrapper style into one
// package that covers the matching engine's categories instead of an
// HTTP-service-shaped set.
package apperrors

import (
	"fmt"
	"time"
)

// Category is one of the four buckets SPEC_FULL §7 defines. Category
// membership, not the specific Code, drives propagation decisions (a
// Validation or State error never reaches the WAL; a Trading outcome is
// always a successful call; an Internal error trips the circuit breaker).
type Category string

const (
	Validation Category = "VALIDATION"
	State      Category = "STATE"
	Trading    Category = "TRADING"
	Internal   Category = "INTERNAL"
)

// Code identifies a specific error condition within its Category.
type Code string

const (
	// Validation — request rejected, no state change.
	CodeInvalidPrice      Code = "INVALID_PRICE"
	CodeInvalidQuantity   Code = "INVALID_QUANTITY"
	CodeInvalidExpireTime Code = "INVALID_EXPIRE_TIME"
	CodeInvalidSymbol     Code = "INVALID_SYMBOL"
	CodeDuplicateOrderID  Code = "DUPLICATE_ORDER_ID"

	// State — fails without mutation.
	CodeOrderNotFound  Code = "ORDER_NOT_FOUND"
	CodeOrderNotActive Code = "ORDER_NOT_ACTIVE"
	CodeStopNotFound   Code = "STOP_NOT_FOUND"

	// Trading — matched partially or not at all, by design.
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodePostOnlyWouldCross    Code = "POST_ONLY_WOULD_CROSS"
	CodeSelfTradeHalted       Code = "SELF_TRADE_HALTED"

	// Internal — indicates a bug or environment failure.
	CodeMatchingInvariantViolation Code = "MATCHING_INVARIANT_VIOLATION"
	CodeWALWriteFailure            Code = "WAL_WRITE_FAILURE"
	CodeReplayCorruption           Code = "REPLAY_CORRUPTION"
	CodeCascadeDepthExceeded       Code = "CASCADE_DEPTH_EXCEEDED"
	CodeEngineUnavailable          Code = "ENGINE_UNAVAILABLE"
)

// Error is the single structured error type every package in this module
// returns for a domain-level failure.
type Error struct {
	Category Category
	Code     Code
	Message  string
	Details  map[string]interface{}
	At       time.Time
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s: %s (caused by: %v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s/%s: %s", e.Category, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithDetail attaches a key/value to the error for structured logging.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(cat Category, code Code, message string) *Error {
	return &Error{Category: cat, Code: code, Message: message, At: time.Now()}
}

// New constructs an Error in the given category/code.
func New(cat Category, code Code, message string) *Error { return newError(cat, code, message) }

// Newf is New with a formatted message.
func Newf(cat Category, code Code, format string, args ...interface{}) *Error {
	return newError(cat, code, fmt.Sprintf(format, args...))
}

// Wrap attaches cause to a new Error; returns nil if cause is nil, so call
// sites can write `return apperrors.Wrap(err, ...)` unconditionally.
func Wrap(cause error, cat Category, code Code, message string) *Error {
	if cause == nil {
		return nil
	}
	e := newError(cat, code, message)
	e.Cause = cause
	return e
}

// --- Validation constructors -------------------------------------------

func InvalidPrice(detail string) *Error {
	return New(Validation, CodeInvalidPrice, "invalid price: "+detail)
}

func InvalidQuantity(detail string) *Error {
	return New(Validation, CodeInvalidQuantity, "invalid quantity: "+detail)
}

func InvalidExpireTime(detail string) *Error {
	return New(Validation, CodeInvalidExpireTime, "invalid expire time: "+detail)
}

func InvalidSymbol(symbol string) *Error {
	return Newf(Validation, CodeInvalidSymbol, "invalid symbol %q", symbol)
}

func DuplicateOrderID(id string) *Error {
	return Newf(Validation, CodeDuplicateOrderID, "order id %s already used", id)
}

// --- State constructors --------------------------------------------------

func OrderNotFound(id string) *Error {
	return Newf(State, CodeOrderNotFound, "order %s not found", id)
}

func OrderNotActive(id string) *Error {
	return Newf(State, CodeOrderNotActive, "order %s is not active", id)
}

func StopNotFound(id string) *Error {
	return Newf(State, CodeStopNotFound, "stop order %s not found", id)
}

// --- Trading constructors (never propagate as call errors: the facade
// reports a Trading outcome through the order's status; nothing in this
// module calls these constructors) ------------------------------------------

func InsufficientLiquidity() *Error {
	return New(Trading, CodeInsufficientLiquidity, "insufficient reachable liquidity")
}

func PostOnlyWouldCross() *Error {
	return New(Trading, CodePostOnlyWouldCross, "post-only order would have crossed the book")
}

func SelfTradeHalted() *Error {
	return New(Trading, CodeSelfTradeHalted, "self-trade prevention halted matching")
}

// --- Internal constructors ------------------------------------------------

func MatchingInvariantViolation(detail string) *Error {
	return New(Internal, CodeMatchingInvariantViolation, detail)
}

func WALWriteFailure(cause error) *Error {
	return Wrap(cause, Internal, CodeWALWriteFailure, "write-ahead log append failed")
}

func ReplayCorruption(detail string) *Error {
	return New(Internal, CodeReplayCorruption, detail)
}

func CascadeDepthExceeded(depth int) *Error {
	return Newf(Internal, CodeCascadeDepthExceeded, "stop-trigger cascade exceeded max depth %d", depth)
}

func EngineUnavailable() *Error {
	return New(Internal, CodeEngineUnavailable, "engine is refusing submissions after repeated WAL failures")
}

// Is reports whether err is an *Error with the given Code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Code == code
}

// CategoryOf extracts err's Category, or "" if err is not an *Error.
func CategoryOf(err error) Category {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ""
}

// IsRetryable reports whether a caller may reasonably retry the operation
// that produced err — true only for the Internal category's transient
// codes, never for Validation/State/Trading outcomes, which are
// deterministic given the same input.
func IsRetryable(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Category == Internal && (e.Code == CodeWALWriteFailure || e.Code == CodeEngineUnavailable)
}
