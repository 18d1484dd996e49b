package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Amortization calculator errors
var (
	ErrInvalidPrincipal = errors.New("principal must be greater than zero")
	ErrInvalidRate      = errors.New("annual interest rate must be greater than zero")
	ErrInvalidTenure    = errors.New("tenure months must be between 1 and 600")
)

// MaxTenureMonths is the upper bound accepted by the calculator
const MaxTenureMonths = 600

var one = decimal.NewFromInt(1)

// Installment is one row of a reducing-balance amortization schedule.
type Installment struct {
	EmiNumber          int
	EmiAmount          decimal.Decimal
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal
	DueDate            time.Time
	OutstandingBalance decimal.Decimal
}

// GenerateAmortizationSchedule computes a standard reducing-balance EMI
// schedule.
//
// monthlyRate = annualRatePercent / 12 / 100
// emi         = P * r * (1+r)^n / ((1+r)^n - 1), rounded to 2 dp half-up
//
// Each row splits the installment into an interest component (balance * r,
// 2 dp) and a principal component (emi - interest). The final row's
// principal component is set to the remaining balance and its amount
// adjusted so the schedule closes at exactly zero; this absorbs the
// accumulated rounding drift of the earlier rows.
//
// Due dates advance one calendar month per row, preserving the start date's
// day-of-month and clamping to the last day of shorter months.
//
// Inputs outside their bounds are rejected, never clamped.
func GenerateAmortizationSchedule(
	principal decimal.Decimal,
	annualRatePercent decimal.Decimal,
	tenureMonths int,
	startDate time.Time,
) ([]Installment, error) {
	if !principal.IsPositive() {
		return nil, ErrInvalidPrincipal
	}
	if !annualRatePercent.IsPositive() {
		return nil, ErrInvalidRate
	}
	if tenureMonths < 1 || tenureMonths > MaxTenureMonths {
		return nil, ErrInvalidTenure
	}

	r := annualRatePercent.Div(decimal.NewFromInt(1200))
	pow := one.Add(r).Pow(decimal.NewFromInt(int64(tenureMonths)))
	emi := principal.Mul(r).Mul(pow).Div(pow.Sub(one)).Round(2)

	schedule := make([]Installment, 0, tenureMonths)
	balance := principal

	for n := 1; n <= tenureMonths; n++ {
		interest := balance.Mul(r).Round(2)

		var principalPart, amount decimal.Decimal
		if n == tenureMonths {
			// Last-installment correction
			principalPart = balance
			amount = principalPart.Add(interest)
			balance = decimal.Zero
		} else {
			principalPart = emi.Sub(interest)
			amount = emi
			balance = balance.Sub(principalPart)
		}

		schedule = append(schedule, Installment{
			EmiNumber:          n,
			EmiAmount:          amount.Round(2),
			PrincipalComponent: principalPart.Round(2),
			InterestComponent:  interest,
			DueDate:            addMonthsClamped(startDate, n),
			OutstandingBalance: balance.Round(2),
		})
	}

	return schedule, nil
}

// addMonthsClamped adds calendar months keeping the day-of-month, clamped to
// the last day of the target month (Jan 31 + 1 month = Feb 28/29). Plain
// time.AddDate would overflow into the following month instead.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, time.UTC)
}
