package ledger

import (
	"time"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

// EffectiveStatus derives the status an installment should display at the
// given reference time. A pending installment whose due date has passed
// reads as overdue; every other state reads as stored. The derivation is
// pure and never persisted, so the same row can read pending now and
// overdue an hour later without any write in between.
func EffectiveStatus(inst models.Installment, now time.Time) models.InstallmentStatus {
	if inst.Status == models.InstallmentStatusPending && inst.DueDate.Before(now) {
		return models.InstallmentStatusOverdue
	}
	return inst.Status
}
