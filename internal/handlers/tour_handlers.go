package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

type TourHandler struct {
	db *gorm.DB
}

func NewTourHandler(db *gorm.DB) *TourHandler {
	return &TourHandler{db: db}
}

// ListTours returns the active catalog with upcoming departures
func (h *TourHandler) ListTours(c echo.Context) error {
	var tours []models.Tour
	err := h.db.Where("is_active = ?", true).
		Preload("Departures", "departure_date >= ?", time.Now()).
		Order("name asc").
		Find(&tours).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch tours")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tours": tours})
}

// GetTour returns one tour by slug with its departures
func (h *TourHandler) GetTour(c echo.Context) error {
	slug := c.Param("slug")

	var tour models.Tour
	err := h.db.Where("slug = ? AND is_active = ?", slug, true).
		Preload("Departures", "departure_date >= ?", time.Now()).
		First(&tour).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch tour")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tour": tour})
}

type tourRequest struct {
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"base_price"`
	DurationDays int             `json:"duration_days"`
	IsActive     *bool           `json:"is_active"`
}

// AdminListTours returns the full catalog including inactive tours
func (h *TourHandler) AdminListTours(c echo.Context) error {
	var tours []models.Tour
	if err := h.db.Preload("Departures").Order("name asc").Find(&tours).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch tours")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tours": tours})
}

// CreateTour creates a catalog entry
func (h *TourHandler) CreateTour(c echo.Context) error {
	var req tourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.Name == "" || req.Slug == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and slug are required")
	}

	tour := models.Tour{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		BasePrice:    req.BasePrice,
		DurationDays: req.DurationDays,
		IsActive:     true,
	}
	if req.IsActive != nil {
		tour.IsActive = *req.IsActive
	}

	if err := h.db.Create(&tour).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create tour")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"tour": tour})
}

// UpdateTour updates a catalog entry
func (h *TourHandler) UpdateTour(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var tour models.Tour
	if err := h.db.First(&tour, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
	}

	var req tourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	if req.Name != "" {
		tour.Name = req.Name
	}
	if req.Slug != "" {
		tour.Slug = req.Slug
	}
	if req.Description != "" {
		tour.Description = req.Description
	}
	if !req.BasePrice.IsZero() {
		tour.BasePrice = req.BasePrice
	}
	if req.DurationDays > 0 {
		tour.DurationDays = req.DurationDays
	}
	if req.IsActive != nil {
		tour.IsActive = *req.IsActive
	}

	if err := h.db.Save(&tour).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update tour")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tour": tour})
}

type departureRequest struct {
	DepartureDate string `json:"departure_date"`
	Capacity      int    `json:"capacity"`
}

// CreateDeparture adds a dated departure to a tour
func (h *TourHandler) CreateDeparture(c echo.Context) error {
	tourID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var tour models.Tour
	if err := h.db.First(&tour, tourID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Tour not found")
	}

	var req departureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	date, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid departure_date, expected YYYY-MM-DD")
	}
	if req.Capacity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be positive")
	}

	departure := models.Departure{
		TourID:        tour.ID,
		DepartureDate: date,
		Capacity:      req.Capacity,
	}
	if err := h.db.Create(&departure).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create departure")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"departure": departure})
}
