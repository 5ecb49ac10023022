package fine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy determines the amount charged when a loan is returned late:
// base + rate * daysLate, rounded to two decimals. With a zero daily
// rate this degrades to a flat fee per overdue return, which is the
// default behavior.
type Policy struct {
	Base      decimal.Decimal
	DailyRate decimal.Decimal
}

// DefaultPolicy charges a flat 5.00 per overdue return.
func DefaultPolicy() Policy {
	return Policy{
		Base:      decimal.NewFromFloat(5.00),
		DailyRate: decimal.Zero,
	}
}

// ParsePolicy builds a policy from decimal strings, typically read from
// the environment. The resulting base must be positive so that every
// generated fine satisfies the amount > 0 invariant.
func ParsePolicy(base, dailyRate string) (Policy, error) {
	b, err := decimal.NewFromString(base)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid base amount %q: %w", base, err)
	}
	r, err := decimal.NewFromString(dailyRate)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid daily rate %q: %w", dailyRate, err)
	}
	if !b.IsPositive() {
		return Policy{}, fmt.Errorf("base amount must be positive, got %s", b)
	}
	if r.IsNegative() {
		return Policy{}, fmt.Errorf("daily rate must not be negative, got %s", r)
	}
	return Policy{Base: b, DailyRate: r}, nil
}

// Amount computes the fine for a return daysLate days past the due
// date. A late return always counts at least one day.
func (p Policy) Amount(daysLate int) decimal.Decimal {
	if daysLate < 1 {
		daysLate = 1
	}
	return p.Base.Add(p.DailyRate.Mul(decimal.NewFromInt(int64(daysLate)))).Round(2)
}
