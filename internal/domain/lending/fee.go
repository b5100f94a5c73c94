package lending

import (
	"time"

	"github.com/Zhima-Mochi/library-lending/internal/domain/money"
)

// Late-fee tiers: 50 cents per day for the first week overdue, a dollar per
// day after that, capped at $15.00 total.
const (
	feeFirstTierDays = 7
	feeFirstTierRate = money.Cents(50)
	feeLaterRate     = money.Cents(100)
	// MaxLateFee is the ceiling on any single late fee, and therefore the
	// maximum amount a late-fee refund may carry.
	MaxLateFee = money.Cents(1500)
)

// LateFee computes whole days overdue and the resulting fee for a loan due
// at dueDate, evaluated as of asOf. Overdue days are calendar days: both
// instants are truncated to midnight before diffing, so returning late on
// the due date itself costs nothing.
//
// A zero dueDate is treated as missing data, not a fault: the result is
// (0, 0) so callers can degrade to "no late fee".
func LateFee(dueDate, asOf time.Time) (daysOverdue int, fee money.Cents) {
	if dueDate.IsZero() || asOf.IsZero() {
		return 0, 0
	}

	days := int(startOfDay(asOf).Sub(startOfDay(dueDate)) / (24 * time.Hour))
	if days <= 0 {
		return 0, 0
	}

	firstDays := days
	if firstDays > feeFirstTierDays {
		firstDays = feeFirstTierDays
	}
	fee = money.Cents(firstDays)*feeFirstTierRate + money.Cents(days-firstDays)*feeLaterRate
	if fee > MaxLateFee {
		fee = MaxLateFee
	}
	return days, fee
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
