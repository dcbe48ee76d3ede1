package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Earnings credited up to the end of CutoffWeekday are paid on the
// following PayoutWeekday; anything later rolls to the next week.
const (
	CutoffWeekday = time.Tuesday
	PayoutWeekday = time.Friday
)

// CivilDate strips the clock from t, keeping its calendar date as midnight UTC.
// Calendar dates are compared and stored in this form.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the calendar date of t as observed in loc.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CivilDate(t.In(loc))
}

// PayoutDateFor returns the Friday on which a credit earned at t is paid.
// Mon, Tue, Sat and Sun map to the coming Friday; Wed, Thu and Fri to the
// Friday after that.
func PayoutDateFor(t time.Time, loc *time.Location) time.Time {
	day := LocalDate(t, loc)
	toCutoff := (int(CutoffWeekday) - int(day.Weekday()) + 7) % 7
	cutoff := day.AddDate(0, 0, toCutoff)
	return cutoff.AddDate(0, 0, (int(PayoutWeekday)-int(CutoffWeekday)+7)%7)
}

// NextPayoutDate returns the coming Friday, or today when today is a Friday.
func NextPayoutDate(now time.Time, loc *time.Location) time.Time {
	day := LocalDate(now, loc)
	return day.AddDate(0, 0, (int(PayoutWeekday)-int(day.Weekday())+7)%7)
}

// IsPayoutDay reports whether t falls on a payout weekday in loc.
func IsPayoutDay(t time.Time, loc *time.Location) bool {
	return LocalDate(t, loc).Weekday() == PayoutWeekday
}

// WithdrawalBuckets splits a wallet's unsettled credits by when they pay out.
type WithdrawalBuckets struct {
	Withdrawable     decimal.Decimal // payable on or before today
	NextPayoutDate   time.Time
	NextPayoutAmount decimal.Decimal // payable by the next payout date, includes Withdrawable
	Pending          decimal.Decimal // payable after the next payout date
}

// ComputeWithdrawalBuckets sums unsettled credits into payout buckets at now.
// Debits and settled credits are ignored.
func ComputeWithdrawalBuckets(txns []*Transaction, now time.Time, loc *time.Location) WithdrawalBuckets {
	today := LocalDate(now, loc)
	next := NextPayoutDate(now, loc)

	buckets := WithdrawalBuckets{
		Withdrawable:     decimal.Zero,
		NextPayoutDate:   next,
		NextPayoutAmount: decimal.Zero,
		Pending:          decimal.Zero,
	}

	for _, txn := range txns {
		if txn.Type != TransactionCredit || txn.Settled() {
			continue
		}
		on := CivilDate(txn.AvailableOn)
		if !on.After(today) {
			buckets.Withdrawable = buckets.Withdrawable.Add(txn.Amount)
		}
		if !on.After(next) {
			buckets.NextPayoutAmount = buckets.NextPayoutAmount.Add(txn.Amount)
		} else {
			buckets.Pending = buckets.Pending.Add(txn.Amount)
		}
	}

	return buckets
}

// PayableBy returns the unsettled credits that are due on or before runDate.
func PayableBy(txns []*Transaction, runDate time.Time) []*Transaction {
	cutoff := CivilDate(runDate)
	var due []*Transaction
	for _, txn := range txns {
		if txn.Type == TransactionCredit && !txn.Settled() && !CivilDate(txn.AvailableOn).After(cutoff) {
			due = append(due, txn)
		}
	}
	return due
}
