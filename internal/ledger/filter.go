package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Filter narrows the reconciliation listing. All provided fields are
// combined as a conjunction. Status matches the stored value only; it does
// not recompute overdue (that derivation happens per row at read time).
type Filter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    models.InstallmentStatus
	MinAmount *decimal.Decimal
	TourID    uint
	Page      int
	PageSize  int
}

// Normalize fills pagination defaults and caps the page size.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	return f
}

// Validate rejects filters that can never match anything meaningful.
func (f Filter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return fmt.Errorf("%w: end_date precedes start_date", ErrValidation)
	}
	if f.MinAmount != nil && f.MinAmount.Sign() < 0 {
		return fmt.Errorf("%w: min_amount must not be negative", ErrValidation)
	}
	switch f.Status {
	case "", models.InstallmentStatusPending, models.InstallmentStatusPaid, models.InstallmentStatusCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return nil
}

// ReconciliationRow is the read-only join the back office filters and bulk
// acts on. It is assembled from preloaded records, never persisted.
type ReconciliationRow struct {
	Installment     models.Installment       `json:"installment"`
	Reservation     models.Reservation       `json:"reservation"`
	Tour            models.Tour              `json:"tour"`
	Buyer           models.User              `json:"buyer"`
	EffectiveStatus models.InstallmentStatus `json:"effective_status"`
}

// ReconciliationPage is one page of reconciliation rows.
type ReconciliationPage struct {
	Rows       []ReconciliationRow `json:"rows"`
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// CalendarDay groups reconciliation rows sharing one due date.
type CalendarDay struct {
	Date      string              `json:"date"`
	TotalDue  decimal.Decimal     `json:"total_due"`
	Rows      []ReconciliationRow `json:"rows"`
	PaidCount int                 `json:"paid_count"`
}

// newRow builds a reconciliation row from a preloaded installment.
func newRow(inst models.Installment, now time.Time) ReconciliationRow {
	row := ReconciliationRow{
		Installment:     inst,
		Reservation:     inst.Reservation,
		Tour:            inst.Reservation.Tour,
		Buyer:           inst.Reservation.Buyer,
		EffectiveStatus: EffectiveStatus(inst, now),
	}
	// Detach the preloaded associations from the embedded copies so the
	// JSON payload does not repeat them at every level.
	row.Installment.Reservation = models.Reservation{}
	row.Reservation.Tour = models.Tour{}
	row.Reservation.Buyer = models.User{}
	row.Reservation.Installments = nil
	return row
}

// groupByDueDate folds rows into per-day calendar buckets ordered by date.
// Rows are expected to arrive ordered by due date, which the reconciliation
// query guarantees.
func groupByDueDate(rows []ReconciliationRow) []CalendarDay {
	var days []CalendarDay
	index := make(map[string]int)

	for _, row := range rows {
		date := row.Installment.DueDate.Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, CalendarDay{Date: date, TotalDue: decimal.Zero})
		}
		days[i].Rows = append(days[i].Rows, row)
		days[i].TotalDue = days[i].TotalDue.Add(row.Installment.AmountDue)
		if row.Installment.Status == models.InstallmentStatusPaid {
			days[i].PaidCount++
		}
	}
	return days
}
