// Package units converts between human decimal amounts, integer token base
// units and market tick units. All arithmetic is exact decimal arithmetic.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxDecimals is the largest number of fractional digits a token may use.
	MaxDecimals = 18

	// DefaultNumTicks is the tick count of binary (yes/no) markets.
	DefaultNumTicks = 10000

	// PriceDecimals is the number of fractional digits kept for derived prices.
	PriceDecimals = 18

	// tickScale is the base-unit exponent that tick amounts are expressed in.
	tickScale = 18

	// maxScale bounds the decimal exponent of any input, in both directions.
	maxScale = 96
)

var (
	ErrNonNumeric         = errors.New("non-numeric input")
	ErrDecimalsOutOfRange = errors.New("decimals out of range")
	ErrInvalidNumTicks    = errors.New("num ticks must be positive")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrOutOfRange         = errors.New("exponent out of range")
)

// ArithmeticError reports a conversion that could not be carried out.
type ArithmeticError struct {
	Op    string
	Input string
	Err   error
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s(%q): %v", e.Op, e.Input, e.Err)
}

func (e *ArithmeticError) Unwrap() error {
	return e.Err
}

// ParseAmount parses a decimal amount such as "1.25" or "1e-3".
func ParseAmount(s string) (decimal.Decimal, error) {
	return parse("parse_amount", s)
}

// ToBaseUnits renders amount as an integer string of base units for a token
// with the given number of decimals. Digits beyond decimals are rounded half
// to even.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (string, error) {
	if err := checkScale("to_base_units", amount); err != nil {
		return "", err
	}
	if err := checkDecimals("to_base_units", amount.String(), decimals); err != nil {
		return "", err
	}
	if amount.IsZero() {
		return "0", nil
	}

	fixed := amount.StringFixedBank(decimals)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	integerPart, fractionalPart, _ := strings.Cut(fixed, ".")
	digits := strings.TrimLeft(integerPart+fractionalPart, "0")
	if digits == "" {
		return "0", nil
	}
	if negative {
		return "-" + digits, nil
	}
	return digits, nil
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(baseUnits string, decimals int32) (decimal.Decimal, error) {
	if err := checkDecimals("from_base_units", baseUnits, decimals); err != nil {
		return decimal.Zero, err
	}

	s := strings.TrimSpace(baseUnits)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if !isDigits(s) {
		return decimal.Zero, &ArithmeticError{Op: "from_base_units", Input: baseUnits, Err: ErrNonNumeric}
	}
	if strings.Trim(s, "0") == "" {
		return decimal.Zero, nil
	}

	if len(s) <= int(decimals) {
		s = strings.Repeat("0", int(decimals)-len(s)+1) + s
	}
	if decimals > 0 {
		split := len(s) - int(decimals)
		s = s[:split] + "." + s[split:]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ArithmeticError{Op: "from_base_units", Input: baseUnits, Err: err}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// AmountToTicks converts a share amount into tick units:
// round_half_even(amount * 10^18 / numTicks). A zero numTicks selects
// DefaultNumTicks.
func AmountToTicks(amount decimal.Decimal, numTicks int64) (string, error) {
	n, err := tickCount("amount_to_ticks", numTicks)
	if err != nil {
		return "", err
	}
	if err := checkScale("amount_to_ticks", amount); err != nil {
		return "", err
	}
	ticks, err := DivHalfEven(amount.Shift(tickScale), n, 0)
	if err != nil {
		return "", &ArithmeticError{Op: "amount_to_ticks", Input: amount.String(), Err: err}
	}
	return ticks.String(), nil
}

// TicksToAmount converts tick units back into a share amount.
func TicksToAmount(ticks string, numTicks int64) (decimal.Decimal, error) {
	n, err := tickCount("ticks_to_amount", numTicks)
	if err != nil {
		return decimal.Zero, err
	}
	t, err := parse("ticks_to_amount", ticks)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Shift(-tickScale).Mul(n), nil
}

// PriceToTicks converts a price in [0, 1] into an integer tick price.
func PriceToTicks(price decimal.Decimal, numTicks int64) (string, error) {
	n, err := tickCount("price_to_ticks", numTicks)
	if err != nil {
		return "", err
	}
	if err := checkScale("price_to_ticks", price); err != nil {
		return "", err
	}
	return price.Mul(n).RoundBank(0).String(), nil
}

// TicksToPrice converts an integer tick price into a price in [0, 1].
func TicksToPrice(ticks string, numTicks int64) (decimal.Decimal, error) {
	n, err := tickCount("ticks_to_price", numTicks)
	if err != nil {
		return decimal.Zero, err
	}
	t, err := parse("ticks_to_price", ticks)
	if err != nil {
		return decimal.Zero, err
	}
	return DivHalfEven(t, n, PriceDecimals)
}

// DivHalfEven returns a/b rounded half to even at the given number of
// fractional places. The quotient is rounded exactly once.
func DivHalfEven(a, b decimal.Decimal, places int32) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}

	// q is truncated toward zero and r carries the sign of a.
	q, r := a.QuoRem(b, places)
	if r.IsZero() {
		return q, nil
	}

	ulp := decimal.New(1, -places)
	cmp := r.Abs().Mul(decimal.NewFromInt(2)).Cmp(b.Abs().Mul(ulp))
	if cmp < 0 || (cmp == 0 && !lastDigitOdd(q, places)) {
		return q, nil
	}
	if a.Sign()*b.Sign() < 0 {
		return q.Sub(ulp), nil
	}
	return q.Add(ulp), nil
}

func lastDigitOdd(q decimal.Decimal, places int32) bool {
	n := q.Shift(places).BigInt()
	return n.Abs(n).Bit(0) == 1
}

func parse(op, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &ArithmeticError{Op: op, Input: s, Err: ErrNonNumeric}
	}
	if err := checkScale(op, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// checkScale rejects values whose exponent would make formatting, rounding
// or rescaling run for a long time, such as "1e-2000000000".
func checkScale(op string, d decimal.Decimal) error {
	if d.Exponent() < -maxScale || d.NumDigits()+int(d.Exponent()) > maxScale {
		input := fmt.Sprintf("%se%d", d.Coefficient(), d.Exponent())
		return &ArithmeticError{Op: op, Input: input, Err: ErrOutOfRange}
	}
	return nil
}

func checkDecimals(op, input string, decimals int32) error {
	if decimals < 0 || decimals > MaxDecimals {
		return &ArithmeticError{
			Op:    op,
			Input: input,
			Err:   fmt.Errorf("%w: %d not in [0, %d]", ErrDecimalsOutOfRange, decimals, MaxDecimals),
		}
	}
	return nil
}

func tickCount(op string, numTicks int64) (decimal.Decimal, error) {
	if numTicks == 0 {
		numTicks = DefaultNumTicks
	}
	if numTicks < 0 {
		return decimal.Zero, &ArithmeticError{Op: op, Input: fmt.Sprint(numTicks), Err: ErrInvalidNumTicks}
	}
	return decimal.NewFromInt(numTicks), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
