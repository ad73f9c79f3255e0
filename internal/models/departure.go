package models

import (
	"time"

	"gorm.io/gorm"
)

// Departure represents a dated occurrence of a Tour with a seat capacity
type Departure struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TourID        uint      `gorm:"index" json:"tour_id"`
	DepartureDate time.Time `gorm:"index" json:"departure_date"`
	Capacity      int       `json:"capacity"`
	SeatsTaken    int       `gorm:"default:0" json:"seats_taken"`

	// Relationships
	Tour         Tour          `gorm:"foreignKey:TourID" json:"tour,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:DepartureID" json:"reservations,omitempty"`
}

// SeatsLeft returns the remaining bookable seats on this departure
func (d Departure) SeatsLeft() int {
	left := d.Capacity - d.SeatsTaken
	if left < 0 {
		return 0
	}
	return left
}
