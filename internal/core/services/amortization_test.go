package services_test

import (
	"testing"
	"time"

	"loansuite/internal/core/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestGenerateAmortizationSchedule(t *testing.T) {
	start := date(2024, time.January, 15)

	t.Run("Standard 12 Month Loan", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("120000"), d("10"), 12, start)
		require.NoError(t, err)
		require.Len(t, rows, 12)

		// First installment
		first := rows[0]
		assert.Equal(t, 1, first.EmiNumber)
		assert.True(t, first.EmiAmount.Equal(d("10549.91")), "emi = %s", first.EmiAmount)
		assert.True(t, first.InterestComponent.Equal(d("1000.00")), "interest = %s", first.InterestComponent)
		assert.True(t, first.PrincipalComponent.Equal(d("9549.91")), "principal = %s", first.PrincipalComponent)
		assert.True(t, first.OutstandingBalance.Equal(d("110450.09")), "balance = %s", first.OutstandingBalance)

		// Last installment absorbs the rounding drift
		last := rows[11]
		assert.Equal(t, 12, last.EmiNumber)
		assert.True(t, last.EmiAmount.Equal(d("10549.88")), "emi = %s", last.EmiAmount)
		assert.True(t, last.InterestComponent.Equal(d("87.19")), "interest = %s", last.InterestComponent)
		assert.True(t, last.PrincipalComponent.Equal(d("10462.69")), "principal = %s", last.PrincipalComponent)
		assert.True(t, last.OutstandingBalance.IsZero(), "balance = %s", last.OutstandingBalance)
	})

	t.Run("Principal Components Sum To Principal", func(t *testing.T) {
		principal := d("120000")
		rows, err := services.GenerateAmortizationSchedule(principal, d("10"), 12, start)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, row := range rows {
			sum = sum.Add(row.PrincipalComponent)
		}
		assert.True(t, sum.Equal(principal), "sum = %s", sum)
	})

	t.Run("Constant EMI Except Final Row", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("50000"), d("8.5"), 6, start)
		require.NoError(t, err)
		require.Len(t, rows, 6)

		for _, row := range rows[:5] {
			assert.True(t, row.EmiAmount.Equal(d("8541.15")), "row %d emi = %s", row.EmiNumber, row.EmiAmount)
		}
		assert.True(t, rows[5].EmiAmount.Equal(d("8541.13")), "final emi = %s", rows[5].EmiAmount)
		assert.True(t, rows[5].OutstandingBalance.IsZero())
	})

	t.Run("Balance Strictly Decreases", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("120000"), d("10"), 12, start)
		require.NoError(t, err)

		prev := d("120000")
		for _, row := range rows {
			assert.True(t, row.OutstandingBalance.LessThan(prev),
				"row %d balance %s not below %s", row.EmiNumber, row.OutstandingBalance, prev)
			prev = row.OutstandingBalance
		}
	})

	t.Run("Interest Plus Principal Equals Installment", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("75000"), d("11.25"), 24, start)
		require.NoError(t, err)

		for _, row := range rows {
			split := row.PrincipalComponent.Add(row.InterestComponent)
			assert.True(t, split.Equal(row.EmiAmount),
				"row %d split %s != emi %s", row.EmiNumber, split, row.EmiAmount)
		}
	})

	t.Run("Single Installment", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("10000"), d("12"), 1, start)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		row := rows[0]
		assert.True(t, row.EmiAmount.Equal(d("10100.00")), "emi = %s", row.EmiAmount)
		assert.True(t, row.PrincipalComponent.Equal(d("10000.00")))
		assert.True(t, row.InterestComponent.Equal(d("100.00")))
		assert.True(t, row.OutstandingBalance.IsZero())
	})
}

func TestGenerateAmortizationScheduleDueDates(t *testing.T) {
	t.Run("Monthly Cadence", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("12000"), d("10"), 3, date(2024, time.March, 15))
		require.NoError(t, err)

		assert.Equal(t, date(2024, time.April, 15), rows[0].DueDate)
		assert.Equal(t, date(2024, time.May, 15), rows[1].DueDate)
		assert.Equal(t, date(2024, time.June, 15), rows[2].DueDate)
	})

	t.Run("Month End Clamping", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("12000"), d("10"), 4, date(2024, time.January, 31))
		require.NoError(t, err)

		assert.Equal(t, date(2024, time.February, 29), rows[0].DueDate) // leap year
		assert.Equal(t, date(2024, time.March, 31), rows[1].DueDate)
		assert.Equal(t, date(2024, time.April, 30), rows[2].DueDate)
		assert.Equal(t, date(2024, time.May, 31), rows[3].DueDate)
	})

	t.Run("Non Leap February", func(t *testing.T) {
		rows, err := services.GenerateAmortizationSchedule(d("12000"), d("10"), 1, date(2025, time.January, 30))
		require.NoError(t, err)

		assert.Equal(t, date(2025, time.February, 28), rows[0].DueDate)
	})
}

func TestGenerateAmortizationScheduleValidation(t *testing.T) {
	start := date(2024, time.January, 1)

	tests := []struct {
		name      string
		principal decimal.Decimal
		rate      decimal.Decimal
		tenure    int
		wantErr   error
	}{
		{"Zero Principal", d("0"), d("10"), 12, services.ErrInvalidPrincipal},
		{"Negative Principal", d("-5000"), d("10"), 12, services.ErrInvalidPrincipal},
		{"Zero Rate", d("10000"), d("0"), 12, services.ErrInvalidRate},
		{"Negative Rate", d("10000"), d("-1"), 12, services.ErrInvalidRate},
		{"Zero Tenure", d("10000"), d("10"), 0, services.ErrInvalidTenure},
		{"Tenure Above Cap", d("10000"), d("10"), 601, services.ErrInvalidTenure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := services.GenerateAmortizationSchedule(tt.principal, tt.rate, tt.tenure, start)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
