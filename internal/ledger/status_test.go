package ledger

import (
	"testing"
	"time"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

func TestEffectiveStatus(t *testing.T) {
	now := date(2024, 2, 1)

	tests := []struct {
		name     string
		status   models.InstallmentStatus
		dueDate  time.Time
		expected models.InstallmentStatus
	}{
		{
			name:     "pending past due reads overdue",
			status:   models.InstallmentStatusPending,
			dueDate:  date(2024, 1, 1),
			expected: models.InstallmentStatusOverdue,
		},
		{
			name:     "pending before due stays pending",
			status:   models.InstallmentStatusPending,
			dueDate:  date(2024, 3, 1),
			expected: models.InstallmentStatusPending,
		},
		{
			name:     "pending due exactly now stays pending",
			status:   models.InstallmentStatusPending,
			dueDate:  now,
			expected: models.InstallmentStatusPending,
		},
		{
			name:     "paid past due stays paid",
			status:   models.InstallmentStatusPaid,
			dueDate:  date(2024, 1, 1),
			expected: models.InstallmentStatusPaid,
		},
		{
			name:     "cancelled past due stays cancelled",
			status:   models.InstallmentStatusCancelled,
			dueDate:  date(2024, 1, 1),
			expected: models.InstallmentStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := models.Installment{Status: tt.status, DueDate: tt.dueDate}
			if got := EffectiveStatus(inst, now); got != tt.expected {
				t.Errorf("EffectiveStatus() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestEffectiveStatusIsPure(t *testing.T) {
	inst := models.Installment{
		Status:  models.InstallmentStatusPending,
		DueDate: date(2024, 1, 15),
	}

	if got := EffectiveStatus(inst, date(2024, 1, 10)); got != models.InstallmentStatusPending {
		t.Errorf("before due: got %q; want pending", got)
	}
	if got := EffectiveStatus(inst, date(2024, 1, 20)); got != models.InstallmentStatusOverdue {
		t.Errorf("after due: got %q; want overdue", got)
	}
	if inst.Status != models.InstallmentStatusPending {
		t.Errorf("stored status mutated to %q", inst.Status)
	}
}
