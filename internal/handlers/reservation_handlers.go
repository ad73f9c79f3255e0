package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

type ReservationHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func NewReservationHandler(db *gorm.DB, l *ledger.Ledger) *ReservationHandler {
	return &ReservationHandler{db: db, ledger: l}
}

type createReservationRequest struct {
	BuyerName   string `json:"buyer_name"`
	BuyerEmail  string `json:"buyer_email"`
	BuyerPhone  string `json:"buyer_phone"`
	DepartureID uint   `json:"departure_id"`
	Passengers  int    `json:"passengers"`
}

// CreateReservation books seats on a departure for a buyer. The buyer
// record is upserted by email; seats are taken with a guarded update so a
// concurrent booking cannot oversell the departure.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.BuyerName == "" || req.BuyerEmail == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "buyer_name and buyer_email are required")
	}
	if req.Passengers < 1 {
		req.Passengers = 1
	}

	var departure models.Departure
	if err := h.db.Preload("Tour").First(&departure, req.DepartureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Departure not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch departure")
	}

	var reservation models.Reservation
	err := h.db.Transaction(func(tx *gorm.DB) error {
		// Upsert buyer by email
		var buyer models.User
		err := tx.Where("email = ?", req.BuyerEmail).First(&buyer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			buyer = models.User{
				Name:     req.BuyerName,
				Email:    req.BuyerEmail,
				Phone:    req.BuyerPhone,
				UserType: models.UserTypeBuyer,
			}
			if err := tx.Create(&buyer).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// Take seats only while capacity allows
		result := tx.Model(&models.Departure{}).
			Where("id = ? AND seats_taken + ? <= capacity", departure.ID, req.Passengers).
			Update("seats_taken", gorm.Expr("seats_taken + ?", req.Passengers))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return echo.NewHTTPError(http.StatusConflict, "Not enough seats left on this departure")
		}

		reservation = models.Reservation{
			UUID:        uuid.New().String(),
			BuyerID:     buyer.ID,
			TourID:      departure.TourID,
			DepartureID: departure.ID,
			Passengers:  req.Passengers,
			TotalPrice:  departure.Tour.BasePrice.Mul(decimal.NewFromInt(int64(req.Passengers))),
			Status:      models.ReservationStatusPending,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}

		event := models.AuditEvent{
			ReservationID: reservation.ID,
			Event:         models.AuditEventReservationCreated,
			Detail:        fmt.Sprintf("%d passengers on %s", req.Passengers, departure.Tour.Name),
			Actor:         req.BuyerEmail,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create reservation")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"reservation": reservation})
}

// AdminListReservations returns reservations with filtering and pagination
func (h *ReservationHandler) AdminListReservations(c echo.Context) error {
	status := c.QueryParam("status")
	tourID := queryUint(c, "tour_id")
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := 20

	query := h.db.Model(&models.Reservation{}).
		Preload("Buyer").Preload("Tour").Preload("Departure")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if tourID > 0 {
		query = query.Where("tour_id = ?", tourID)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count reservations")
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	var reservations []models.Reservation
	err := query.Order("created_at desc").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&reservations).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reservations")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"total_count":  totalCount,
		"page":         page,
		"total_pages":  totalPages,
	})
}

type scheduleItemRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date"`
}

type approveReservationRequest struct {
	// Explicit schedule, or an equal monthly split when Installments is set
	Schedule     []scheduleItemRequest `json:"schedule"`
	Installments int                   `json:"installments"`
	FirstDueDate string                `json:"first_due_date"`
}

// ApproveReservation approves a pending reservation and establishes its
// installment plan in one step. The plan is created first so a plan
// failure leaves the reservation untouched.
func (h *ReservationHandler) ApproveReservation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var reservation models.Reservation
	if err := h.db.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Reservation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reservation")
	}
	if reservation.Status != models.ReservationStatusPending {
		return echo.NewHTTPError(http.StatusConflict, "Only pending reservations can be approved")
	}

	var req approveReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	var items []ledger.PlanItem
	if len(req.Schedule) > 0 {
		items = make([]ledger.PlanItem, len(req.Schedule))
		for i, s := range req.Schedule {
			due, err := time.Parse("2006-01-02", s.DueDate)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid due_date on schedule item %d", i+1))
			}
			items[i] = ledger.PlanItem{Amount: s.Amount, DueDate: due}
		}
	} else if req.Installments > 0 {
		firstDue, err := time.Parse("2006-01-02", req.FirstDueDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid first_due_date, expected YYYY-MM-DD")
		}
		items = ledger.MonthlySchedule(reservation.TotalPrice, req.Installments, firstDue)
	} else {
		return echo.NewHTTPError(http.StatusBadRequest, "Provide either a schedule or an installments count")
	}

	actor := actorFromContext(c)
	installments, err := h.ledger.CreatePlan(c.Request().Context(), reservation.ID, reservation.TotalPrice, items, actor)
	if err != nil {
		return err
	}

	result := h.db.Model(&models.Reservation{}).
		Where("id = ? AND status = ?", reservation.ID, models.ReservationStatusPending).
		Update("status", models.ReservationStatusApproved)
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to approve reservation")
	}
	if result.RowsAffected > 0 {
		h.db.Create(&models.AuditEvent{
			ReservationID: reservation.ID,
			Event:         models.AuditEventReservationApproved,
			Detail:        fmt.Sprintf("payment plan of %d installments", len(installments)),
			Actor:         actor,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reservation_id": reservation.ID,
		"status":         models.ReservationStatusApproved,
		"installments":   installments,
	})
}

// CancelReservation cancels a reservation, voids its unpaid installments
// and releases the seats it held.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var reservation models.Reservation
	if err := h.db.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Reservation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reservation")
	}

	actor := actorFromContext(c)
	err = h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Reservation{}).
			Where("id = ? AND status IN ?", reservation.ID,
				[]models.ReservationStatus{models.ReservationStatusPending, models.ReservationStatusApproved}).
			Update("status", models.ReservationStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return echo.NewHTTPError(http.StatusConflict, "Reservation cannot be cancelled in its current state")
		}

		// Void unpaid installments
		if err := tx.Model(&models.Installment{}).
			Where("reservation_id = ? AND status = ?", reservation.ID, models.InstallmentStatusPending).
			Updates(map[string]interface{}{
				"status":  models.InstallmentStatusCancelled,
				"version": gorm.Expr("version + 1"),
			}).Error; err != nil {
			return err
		}

		// Release the held seats
		if err := tx.Model(&models.Departure{}).
			Where("id = ?", reservation.DepartureID).
			Update("seats_taken", gorm.Expr("GREATEST(seats_taken - ?, 0)", reservation.Passengers)).Error; err != nil {
			return err
		}

		return tx.Create(&models.AuditEvent{
			ReservationID: reservation.ID,
			Event:         models.AuditEventReservationCancelled,
			Actor:         actor,
		}).Error
	})
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to cancel reservation")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"reservation_id": reservation.ID,
		"status":         models.ReservationStatusCancelled,
	})
}

// GetInstallments lists one reservation's installments in plan order
func (h *ReservationHandler) GetInstallments(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	installments, effective, err := h.ledger.ListForReservation(c.Request().Context(), id)
	if err != nil {
		return err
	}

	rows := make([]map[string]interface{}, len(installments))
	for i, inst := range installments {
		rows[i] = map[string]interface{}{
			"installment":      inst,
			"effective_status": effective[i],
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"installments": rows})
}

// GetTimeline returns the reservation's audit trail oldest first
func (h *ReservationHandler) GetTimeline(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var reservation models.Reservation
	if err := h.db.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Reservation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reservation")
	}

	var events []models.AuditEvent
	if err := h.db.Where("reservation_id = ?", id).Order("created_at asc, id asc").Find(&events).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch timeline")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"events": events})
}
