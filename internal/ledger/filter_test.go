package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

func TestFilterNormalize(t *testing.T) {
	tests := []struct {
		name         string
		in           Filter
		wantPage     int
		wantPageSize int
	}{
		{name: "zero value gets defaults", in: Filter{}, wantPage: 1, wantPageSize: 50},
		{name: "negative page clamped", in: Filter{Page: -3, PageSize: 20}, wantPage: 1, wantPageSize: 20},
		{name: "oversized page size capped", in: Filter{Page: 2, PageSize: 1000}, wantPage: 2, wantPageSize: 200},
		{name: "valid values untouched", in: Filter{Page: 4, PageSize: 25}, wantPage: 4, wantPageSize: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Page != tt.wantPage || got.PageSize != tt.wantPageSize {
				t.Errorf("Normalize() = page %d size %d; want page %d size %d",
					got.Page, got.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 1, 31)
	negative := decimal.RequireFromString("-1")
	zero := decimal.Zero

	tests := []struct {
		name    string
		in      Filter
		wantErr bool
	}{
		{name: "empty filter", in: Filter{}},
		{name: "valid range", in: Filter{StartDate: &start, EndDate: &end}},
		{name: "inverted range", in: Filter{StartDate: &end, EndDate: &start}, wantErr: true},
		{name: "stored status pending", in: Filter{Status: models.InstallmentStatusPending}},
		{name: "stored status paid", in: Filter{Status: models.InstallmentStatusPaid}},
		{name: "overdue is not a stored status", in: Filter{Status: models.InstallmentStatusOverdue}, wantErr: true},
		{name: "unknown status", in: Filter{Status: "refunded"}, wantErr: true},
		{name: "negative min amount", in: Filter{MinAmount: &negative}, wantErr: true},
		{name: "zero min amount", in: Filter{MinAmount: &zero}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGroupByDueDate(t *testing.T) {
	row := func(day int, amount string, status models.InstallmentStatus) ReconciliationRow {
		return ReconciliationRow{
			Installment: models.Installment{
				DueDate:   date(2026, 3, day),
				AmountDue: decimal.RequireFromString(amount),
				Status:    status,
			},
		}
	}

	rows := []ReconciliationRow{
		row(1, "100.00", models.InstallmentStatusPaid),
		row(1, "250.50", models.InstallmentStatusPending),
		row(5, "75.25", models.InstallmentStatusPending),
		row(9, "300.00", models.InstallmentStatusPaid),
	}

	days := groupByDueDate(rows)

	if len(days) != 3 {
		t.Fatalf("groupByDueDate() returned %d days; want 3", len(days))
	}

	wantDates := []string{"2026-03-01", "2026-03-05", "2026-03-09"}
	wantTotals := []string{"350.50", "75.25", "300.00"}
	wantPaid := []int{1, 0, 1}
	wantRows := []int{2, 1, 1}

	for i, day := range days {
		if day.Date != wantDates[i] {
			t.Errorf("day[%d].Date = %s; want %s", i, day.Date, wantDates[i])
		}
		if !day.TotalDue.Equal(decimal.RequireFromString(wantTotals[i])) {
			t.Errorf("day[%d].TotalDue = %s; want %s", i, day.TotalDue, wantTotals[i])
		}
		if day.PaidCount != wantPaid[i] {
			t.Errorf("day[%d].PaidCount = %d; want %d", i, day.PaidCount, wantPaid[i])
		}
		if len(day.Rows) != wantRows[i] {
			t.Errorf("day[%d] has %d rows; want %d", i, len(day.Rows), wantRows[i])
		}
	}
}

func TestGroupByDueDateEmpty(t *testing.T) {
	if days := groupByDueDate(nil); len(days) != 0 {
		t.Errorf("groupByDueDate(nil) returned %d days; want 0", len(days))
	}
}
