package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tour represents a catalog entry that buyers can book departures against
type Tour struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string          `gorm:"type:varchar(255)" json:"name"`
	Slug         string          `gorm:"type:varchar(255);uniqueIndex" json:"slug"`
	Description  string          `gorm:"type:text" json:"description"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(15,2)" json:"base_price"`
	DurationDays int             `gorm:"default:1" json:"duration_days"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	Departures []Departure `gorm:"foreignKey:TourID" json:"departures,omitempty"`
}
