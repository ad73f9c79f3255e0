package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/services"
)

// PaymentHandler serves the public payment surface: the per-installment
// payment page data addressed by UUID, checkout session creation and the
// gateway notification endpoint.
type PaymentHandler struct {
	db             *gorm.DB
	ledger         *ledger.Ledger
	paymentService *services.PaymentService
}

func NewPaymentHandler(db *gorm.DB, l *ledger.Ledger, paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{db: db, ledger: l, paymentService: paymentService}
}

func (h *PaymentHandler) findByUUID(c echo.Context, preload bool) (*models.Installment, error) {
	uuid := c.Param("uuid")
	if uuid == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid installment UUID")
	}

	query := h.db
	if preload {
		query = query.Preload("Reservation").
			Preload("Reservation.Buyer").
			Preload("Reservation.Tour").
			Preload("Reservation.Departure")
	}

	var inst models.Installment
	if err := query.Where("uuid = ?", uuid).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Installment not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch installment")
	}
	return &inst, nil
}

// ShowInstallment returns the public payment page data for one installment
func (h *PaymentHandler) ShowInstallment(c echo.Context) error {
	inst, err := h.findByUUID(c, true)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"installment":      inst,
		"effective_status": h.effectiveStatus(*inst),
		"tour":             inst.Reservation.Tour,
		"departure":        inst.Reservation.Departure,
		"buyer_name":       inst.Reservation.Buyer.Name,
	})
}

func (h *PaymentHandler) effectiveStatus(inst models.Installment) models.InstallmentStatus {
	return ledger.EffectiveStatus(inst, timeNow())
}

// InitiatePayment creates or resumes a checkout session for an installment
func (h *PaymentHandler) InitiatePayment(c echo.Context) error {
	inst, err := h.findByUUID(c, true)
	if err != nil {
		return err
	}

	if inst.Status == models.InstallmentStatusPaid {
		return echo.NewHTTPError(http.StatusConflict, "Installment is already paid")
	}
	if inst.Status == models.InstallmentStatusCancelled {
		return echo.NewHTTPError(http.StatusConflict, "Installment is cancelled")
	}

	forceNew := c.QueryParam("force_new") == "true"
	callbackURL := getEnv("APP_URL", "http://localhost:8080") + "/p/" + inst.UUID

	result, err := h.paymentService.InitiatePayment(inst, forceNew, callbackURL)
	if err != nil {
		if errors.Is(err, services.ErrAlreadySettled) {
			return echo.NewHTTPError(http.StatusConflict, "Payment is already made. Please check the status.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to initiate payment: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// CheckStatus re-verifies the installment against the gateway and reports
// the current stored and effective status
func (h *PaymentHandler) CheckStatus(c echo.Context) error {
	inst, err := h.findByUUID(c, false)
	if err != nil {
		return err
	}

	if err := h.paymentService.VerifyPaymentStatus(c.Request().Context(), inst.ID); err != nil {
		// Report the stored status even when the gateway check fails
		log.Printf("Failed to verify payment status for installment %d: %v", inst.ID, err)
	}

	if err := h.db.First(inst, inst.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch installment")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           inst.Status,
		"effective_status": h.effectiveStatus(*inst),
		"paid_at":          inst.PaidAt,
	})
}

// MidtransCallback handles gateway notifications. The gateway retries
// until it sees 200, so any handled outcome answers ok.
func (h *PaymentHandler) MidtransCallback(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	if err := h.paymentService.HandleCallback(c.Request().Context(), payload); err != nil {
		log.Printf("Midtrans callback failed: %v", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Notification rejected")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
