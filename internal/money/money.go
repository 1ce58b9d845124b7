// internal/money/money.go
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Money is an amount of GBP held as a whole number of pence. Keeping the
// internal representation integral means additions and comparisons are
// exact; only multiplication by a percentage ever needs rounding.
type Money int64

var ErrInvalidAmount = errors.New("invalid monetary amount")

// Parse converts a decimal string such as "1234.56" into Money. At most
// two fraction digits are accepted.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	pence := d.Shift(2)
	if !pence.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than two fraction digits", ErrInvalidAmount, s)
	}
	if !pence.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Money(pence.IntPart()), nil
}

// FromPounds builds a Money from a whole number of pounds.
func FromPounds(pounds int64) Money {
	return Money(pounds * 100)
}

// FromPence builds a Money from a number of pence.
func FromPence(pence int64) Money {
	return Money(pence)
}

func (m Money) Add(o Money) Money { return m + o }

func (m Money) Sub(o Money) Money { return m - o }

func (m Money) IsPositive() bool { return m > 0 }

func (m Money) IsNegative() bool { return m < 0 }

// MulPercent returns m scaled by a whole percentage, rounded to the
// nearest penny with banker's rounding (round half to even).
func (m Money) MulPercent(pct int64) Money {
	scaled := decimal.NewFromInt(int64(m)).
		Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(100)).
		RoundBank(0)
	return Money(scaled.IntPart())
}

// Split applies each percentage to m and returns the rounded parts
// together with the remainder, so that sum(parts) + remainder == m
// exactly. The remainder carries both rounding drift and any share of m
// the percentages do not allocate.
func Split(m Money, percents []int64) (parts []Money, remainder Money) {
	parts = make([]Money, len(percents))
	var distributed Money
	for i, pct := range percents {
		parts[i] = m.MulPercent(pct)
		distributed += parts[i]
	}
	return parts, m - distributed
}

// Sum adds a list of amounts.
func Sum(amounts []Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// String renders the amount with exactly two fraction digits.
func (m Money) String() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Tolerate bare JSON numbers from older clients.
		s = string(b)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores the amount as a BIGINT count of pence.
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case int64:
		*m = Money(v)
		return nil
	case []byte:
		return m.scanPence(string(v))
	case string:
		return m.scanPence(v)
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
}

func (m *Money) scanPence(s string) error {
	pence, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("money: cannot scan %q: %w", s, err)
	}
	*m = Money(pence)
	return nil
}
