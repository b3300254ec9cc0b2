package lending

import (
	"time"

	"github.com/mrlokans/librarydesk/internal/calendar"
	"github.com/mrlokans/librarydesk/internal/fines"
)

const (
	DefaultLoanPeriodDays    = 14
	DefaultCardValidityYears = 1
)

// Policy holds the circulation rules.
type Policy struct {
	LoanPeriodDays    int
	CardValidityYears int
	Location          *time.Location
	Fines             fines.Calculator
	// FineGrace delays fine accrual past the start of the due date. Zero
	// charges from midnight of the due date.
	FineGrace         time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		LoanPeriodDays:    DefaultLoanPeriodDays,
		CardValidityYears: DefaultCardValidityYears,
		Location:          time.UTC,
		Fines:             fines.NewCalculator(fines.DefaultRatePerHour),
	}
}

func (p Policy) normalized() Policy {
	if p.LoanPeriodDays <= 0 {
		p.LoanPeriodDays = DefaultLoanPeriodDays
	}
	if p.CardValidityYears <= 0 {
		p.CardValidityYears = DefaultCardValidityYears
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.FineGrace < 0 {
		p.FineGrace = 0
	}
	if !p.Fines.RatePerHour().IsPositive() {
		p.Fines = fines.NewCalculator(fines.DefaultRatePerHour)
	}
	return p
}

// DueDate is the last day of a loan issued on issueDate.
func (p Policy) DueDate(issueDate calendar.Date) calendar.Date {
	return issueDate.AddDays(p.LoanPeriodDays)
}

// DueInstant is when fines start accruing: midnight of the due date in the
// library's time zone, pushed back by FineGrace.
func (p Policy) DueInstant(dueDate calendar.Date) time.Time {
	return dueDate.Midnight(p.Location).Add(p.FineGrace)
}
