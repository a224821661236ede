package engine

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"strings"
)

// Rate is an exact production rate in units per tick.
//
// Rates are kept as a reduced fraction so accrual over any number of ticks
// is exact: 0.2 units/tick yields exactly 20 units over 100 ticks.
type Rate struct {
	num int64
	den int64
}

// NewRate returns num/den units per tick. The rate must be > 0.
func NewRate(num, den int64) (Rate, error) {
	if den == 0 {
		return Rate{}, newConfigError(ErrCodeInvalidRate, "", "rate denominator must be non-zero")
	}
	r := new(big.Rat).SetFrac64(num, den)
	return rateFromRat(r)
}

// ParseRate parses a decimal ("0.2") or fraction ("1/5") rate.
func ParseRate(s string) (Rate, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Rate{}, newConfigError(ErrCodeInvalidRate, "", "invalid rate %q", s)
	}
	return rateFromRat(r)
}

// MustRate is like ParseRate but panics on error. Intended for tests and
// fixed wiring.
func MustRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func rateFromRat(r *big.Rat) (Rate, error) {
	if r.Sign() <= 0 {
		return Rate{}, newConfigError(ErrCodeInvalidRate, "", "rate must be > 0, got %s", r.RatString())
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Rate{}, newConfigError(ErrCodeInvalidRate, "", "rate %s out of range", r.RatString())
	}
	return Rate{num: r.Num().Int64(), den: r.Denom().Int64()}, nil
}

// IsZero reports whether r is the zero value (not a valid rate).
func (r Rate) IsZero() bool {
	return r.den == 0
}

// Units returns floor(ticks * r), the whole units accrued over ticks. The
// product is taken at 128 bits; a result beyond int64 saturates.
func (r Rate) Units(ticks int64) int64 {
	if r.den == 0 || ticks <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(ticks), uint64(r.num))
	if hi >= uint64(r.den) {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(r.den))
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// Float64 returns an approximation of r for display.
func (r Rate) Float64() float64 {
	if r.den == 0 {
		return 0
	}
	return float64(r.num) / float64(r.den)
}

// String renders r as "num/den", or "num" when whole.
func (r Rate) String() string {
	if r.den == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.den)
}
