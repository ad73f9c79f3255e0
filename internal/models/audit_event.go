package models

import "time"

// Audit event names written by the ledger and admin actions
const (
	AuditEventReservationCreated   = "reservation.created"
	AuditEventReservationApproved  = "reservation.approved"
	AuditEventReservationConfirmed = "reservation.confirmed"
	AuditEventReservationCancelled = "reservation.cancelled"
	AuditEventPlanCreated          = "installment.plan_created"
	AuditEventInstallmentPaid      = "installment.paid"
)

// AuditEvent is an append-only timeline entry for a reservation. Rows are
// never updated or deleted.
type AuditEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ReservationID uint   `gorm:"index" json:"reservation_id"`
	InstallmentID *uint  `gorm:"index" json:"installment_id,omitempty"`
	Event         string `gorm:"type:varchar(100);index" json:"event"`
	Detail        string `gorm:"type:text" json:"detail"`
	Actor         string `gorm:"type:varchar(255)" json:"actor"`
}
