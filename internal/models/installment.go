package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InstallmentStatus represents the stored state of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "pending"
	InstallmentStatusPaid      InstallmentStatus = "paid"
	InstallmentStatusCancelled InstallmentStatus = "cancelled"

	// InstallmentStatusOverdue is derived at read time from DueDate and is
	// never written to the database.
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// Installment represents one scheduled partial payment owed against a
// reservation's total price. Version is the optimistic token checked by
// mark-paid when the caller presents the version it last read.
type Installment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ReservationID    uint              `gorm:"index" json:"reservation_id"`
	UUID             string            `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Sequence         int               `json:"sequence"`
	AmountDue        decimal.Decimal   `gorm:"type:decimal(15,2)" json:"amount_due"`
	DueDate          time.Time         `gorm:"index" json:"due_date"`
	Status           InstallmentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentMethod    string            `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentReference string            `gorm:"type:varchar(100)" json:"payment_reference"`
	PaidAt           *time.Time        `json:"paid_at"`
	Version          int               `gorm:"default:1" json:"version"`

	// Relationships
	Reservation Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`
}
