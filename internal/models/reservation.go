package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusApproved  ReservationStatus = "approved"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation represents a booking of N passengers against one Departure.
// Approving a reservation establishes its installment plan; it is promoted
// to confirmed once every installment is paid.
type Reservation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UUID        string            `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	BuyerID     uint              `gorm:"index" json:"buyer_id"`
	TourID      uint              `gorm:"index" json:"tour_id"`
	DepartureID uint              `gorm:"index" json:"departure_id"`
	Passengers  int               `gorm:"default:1" json:"passengers"`
	TotalPrice  decimal.Decimal   `gorm:"type:decimal(15,2)" json:"total_price"`
	Status      ReservationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentLink string            `gorm:"type:text" json:"payment_link"`

	// Relationships
	Buyer        User          `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Tour         Tour          `gorm:"foreignKey:TourID" json:"tour,omitempty"`
	Departure    Departure     `gorm:"foreignKey:DepartureID" json:"departure,omitempty"`
	Installments []Installment `gorm:"foreignKey:ReservationID" json:"installments,omitempty"`
	AuditEvents  []AuditEvent  `gorm:"foreignKey:ReservationID" json:"audit_events,omitempty"`
}
