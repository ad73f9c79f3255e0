package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/services"
)

// DashboardHandler serves the back-office summary numbers
type DashboardHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewDashboardHandler(db *gorm.DB, cache *services.RedisCache) *DashboardHandler {
	return &DashboardHandler{db: db, cache: cache}
}

// DashboardStats is the cached summary payload
type DashboardStats struct {
	PendingReservations int64  `json:"pending_reservations"`
	ActiveReservations  int64  `json:"active_reservations"`
	PendingInstallments int64  `json:"pending_installments"`
	OverdueInstallments int64  `json:"overdue_installments"`
	DueThisMonth        string `json:"due_this_month"`
	CollectedThisMonth  string `json:"collected_this_month"`
}

// Dashboard returns summary stats, cached for a minute. The ledger drops
// the cache entry on every write, so the numbers lag at most one poll.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	load := func() (DashboardStats, error) { return h.computeStats() }

	var stats DashboardStats
	var err error
	if h.cache != nil {
		stats, err = services.GetOrSet(h.cache, ctx, ledger.DashboardCacheKey, time.Minute, load)
	} else {
		stats, err = load()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute dashboard stats")
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) computeStats() (DashboardStats, error) {
	var stats DashboardStats
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := firstOfMonth.AddDate(0, 1, 0)

	if err := h.db.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusPending).
		Count(&stats.PendingReservations).Error; err != nil {
		return stats, err
	}
	if err := h.db.Model(&models.Reservation{}).
		Where("status IN ?", []models.ReservationStatus{
			models.ReservationStatusApproved, models.ReservationStatusConfirmed,
		}).
		Count(&stats.ActiveReservations).Error; err != nil {
		return stats, err
	}
	if err := h.db.Model(&models.Installment{}).
		Where("status = ?", models.InstallmentStatusPending).
		Count(&stats.PendingInstallments).Error; err != nil {
		return stats, err
	}
	if err := h.db.Model(&models.Installment{}).
		Where("status = ? AND due_date < ?", models.InstallmentStatusPending, now).
		Count(&stats.OverdueInstallments).Error; err != nil {
		return stats, err
	}

	type sumRow struct {
		Total string
	}
	var due, collected sumRow
	if err := h.db.Model(&models.Installment{}).
		Select("COALESCE(SUM(amount_due), 0)::text AS total").
		Where("status = ? AND due_date >= ? AND due_date < ?",
			models.InstallmentStatusPending, firstOfMonth, nextMonth).
		Scan(&due).Error; err != nil {
		return stats, err
	}
	if err := h.db.Model(&models.Installment{}).
		Select("COALESCE(SUM(amount_due), 0)::text AS total").
		Where("status = ? AND paid_at >= ? AND paid_at < ?",
			models.InstallmentStatusPaid, firstOfMonth, nextMonth).
		Scan(&collected).Error; err != nil {
		return stats, err
	}
	stats.DueThisMonth = due.Total
	stats.CollectedThisMonth = collected.Total

	return stats, nil
}
