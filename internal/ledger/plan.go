package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlanItem is one scheduled partial payment in a plan request.
type PlanItem struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// sumTolerance is the maximum absolute difference allowed between the
// requested total and the sum of the schedule amounts (currency rounding).
var sumTolerance = decimal.NewFromFloat(0.01)

// ValidatePlan checks a plan schedule against the requested total. The
// schedule must be non-empty, every amount positive, due dates
// non-decreasing, and the amounts must sum to the total within 0.01.
func ValidatePlan(total decimal.Decimal, items []PlanItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: schedule is empty", ErrValidation)
	}
	if total.Sign() <= 0 {
		return fmt.Errorf("%w: total must be positive", ErrValidation)
	}

	sum := decimal.Zero
	for i, item := range items {
		if item.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: installment %d amount must be positive", ErrValidation, i+1)
		}
		if item.DueDate.IsZero() {
			return fmt.Errorf("%w: installment %d is missing a due date", ErrValidation, i+1)
		}
		if i > 0 && item.DueDate.Before(items[i-1].DueDate) {
			return fmt.Errorf("%w: installment %d due date precedes installment %d", ErrValidation, i+1, i)
		}
		sum = sum.Add(item.Amount)
	}

	if sum.Sub(total).Abs().GreaterThan(sumTolerance) {
		return fmt.Errorf("%w: schedule sums to %s, expected %s", ErrValidation, sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// EqualSplit divides total into n amounts rounded to cents. The last
// amount absorbs the rounding remainder so the parts always sum exactly
// to the total. Returns nil when n is not positive.
func EqualSplit(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	per := total.DivRound(decimal.NewFromInt(int64(n)), 2)
	amounts := make([]decimal.Decimal, n)
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		amounts[i] = per
		running = running.Add(per)
	}
	amounts[n-1] = total.Sub(running)
	return amounts
}

// MonthlySchedule builds an equal-split plan of n installments, the first
// due on firstDue and each subsequent one a calendar month later. Days past
// the end of a shorter month clamp to its last day, so a plan starting
// Jan 31 collects on Feb 28 rather than skipping February.
func MonthlySchedule(total decimal.Decimal, n int, firstDue time.Time) []PlanItem {
	amounts := EqualSplit(total, n)
	items := make([]PlanItem, len(amounts))
	for i, amount := range amounts {
		items[i] = PlanItem{
			Amount:  amount,
			DueDate: addMonthsClamped(firstDue, i),
		}
	}
	return items
}

// addMonthsClamped advances t by whole months, clamping the day of month
// to the target month's last day instead of letting time.AddDate roll a
// Jan 31 + 1 month over into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	day := t.Day()
	if last := firstOfTarget.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
