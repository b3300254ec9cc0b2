// Package fines computes late-return penalties.
package fines

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRatePerHour is charged for every started hour past the due instant.
var DefaultRatePerHour = decimal.RequireFromString("0.1")

// Calculator maps an overdue duration to a monetary amount.
type Calculator struct {
	ratePerHour decimal.Decimal
}

// NewCalculator returns a calculator charging ratePerHour. A non-positive rate
// falls back to DefaultRatePerHour.
func NewCalculator(ratePerHour decimal.Decimal) Calculator {
	if !ratePerHour.IsPositive() {
		ratePerHour = DefaultRatePerHour
	}
	return Calculator{ratePerHour: ratePerHour}
}

// RatePerHour returns the configured hourly rate.
func (c Calculator) RatePerHour() decimal.Decimal {
	return c.ratePerHour
}

// Fine returns zero when now is not after due, otherwise the number of started
// hours late (measured in milliseconds) times the hourly rate.
func (c Calculator) Fine(due, now time.Time) decimal.Decimal {
	return c.ratePerHour.Mul(decimal.NewFromInt(HoursLate(due, now)))
}

// Fine uses DefaultRatePerHour.
func Fine(due, now time.Time) decimal.Decimal {
	return NewCalculator(DefaultRatePerHour).Fine(due, now)
}

// HoursLate is the number of started hours between due and now; partial
// hours round up and anything up to due is zero.
func HoursLate(due, now time.Time) int64 {
	lateMs := now.Sub(due).Milliseconds()
	if lateMs <= 0 {
		return 0
	}
	hourMs := time.Hour.Milliseconds()
	return (lateMs + hourMs - 1) / hourMs
}
