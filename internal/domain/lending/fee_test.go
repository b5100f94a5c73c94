package lending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
)

func TestLateFeeTiers(t *testing.T) {
	due := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name         string
		daysLate     int
		expectedDays int
		expectedFee  money.Cents
	}{
		{"on due date", 0, 0, 0},
		{"one day", 1, 1, 50},
		{"full first tier", 7, 7, 350},
		{"second tier starts", 8, 8, 450},
		{"ten days", 10, 10, 650},
		{"just below cap", 18, 18, 1450},
		{"at cap", 19, 19, 1500},
		{"beyond cap", 120, 120, 1500},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			asOf := due.AddDate(0, 0, tt.daysLate)
			days, fee := LateFee(due, asOf)
			assert.Equal(t, tt.expectedDays, days)
			assert.Equal(t, tt.expectedFee, fee)
		})
	}
}

func TestLateFeeBeforeDueDate(t *testing.T) {
	due := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	days, fee := LateFee(due, due.AddDate(0, 0, -3))
	assert.Zero(t, days)
	assert.Zero(t, fee)
}

func TestLateFeeCalendarDays(t *testing.T) {
	// Returning late in the evening of the due date costs nothing; crossing
	// midnight costs a day regardless of the hour.
	due := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	days, fee := LateFee(due, time.Date(2026, time.March, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, 0, days)
	assert.Equal(t, money.Cents(0), fee)

	days, fee = LateFee(due, time.Date(2026, time.March, 2, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, 1, days)
	assert.Equal(t, money.Cents(50), fee)
}

func TestLateFeeZeroDueDateDegrades(t *testing.T) {
	days, fee := LateFee(time.Time{}, time.Now())
	assert.Zero(t, days)
	assert.Zero(t, fee)
}

func TestLateFeeMonotonic(t *testing.T) {
	due := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	prev := money.Cents(-1)
	for d := 0; d <= 60; d++ {
		_, fee := LateFee(due, due.AddDate(0, 0, d))
		assert.GreaterOrEqual(t, fee, prev, "fee must never decrease with more overdue days (day %d)", d)
		assert.LessOrEqual(t, fee, MaxLateFee)
		prev = fee
	}
}
