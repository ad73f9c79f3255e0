package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

type InstallmentHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func NewInstallmentHandler(db *gorm.DB, l *ledger.Ledger) *InstallmentHandler {
	return &InstallmentHandler{db: db, ledger: l}
}

// Reconciliation returns one page of reconciliation rows. All query
// filters combine as a conjunction; status matches the stored value.
func (h *InstallmentHandler) Reconciliation(c echo.Context) error {
	startDate, err := queryDate(c, "start_date")
	if err != nil {
		return err
	}
	endDate, err := queryDate(c, "end_date")
	if err != nil {
		return err
	}
	minAmount, err := queryDecimal(c, "min_amount")
	if err != nil {
		return err
	}

	page, err := h.ledger.ListForReconciliation(c.Request().Context(), ledger.Filter{
		StartDate: startDate,
		EndDate:   endDate,
		Status:    models.InstallmentStatus(c.QueryParam("status")),
		MinAmount: minAmount,
		TourID:    queryUint(c, "tour_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Calendar returns reconciliation rows grouped by due date. Defaults to
// the current month when no range is given.
func (h *InstallmentHandler) Calendar(c echo.Context) error {
	startDate, err := queryDate(c, "start_date")
	if err != nil {
		return err
	}
	endDate, err := queryDate(c, "end_date")
	if err != nil {
		return err
	}

	now := time.Now()
	if startDate == nil {
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		startDate = &firstOfMonth
	}
	if endDate == nil {
		lastOfMonth := startDate.AddDate(0, 1, -1)
		endDate = &lastOfMonth
	}

	days, err := h.ledger.Calendar(c.Request().Context(), *startDate, *endDate)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"days": days})
}

type markPaidRequest struct {
	Method    string `json:"method"`
	Reference string `json:"reference"`
	Version   *int   `json:"version"`
}

// MarkPaid transitions a single installment to paid
func (h *InstallmentHandler) MarkPaid(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req markPaidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	inst, err := h.ledger.MarkPaid(c.Request().Context(), id, ledger.MarkPaidInput{
		Method:    req.Method,
		Reference: req.Reference,
		Version:   req.Version,
		Actor:     actorFromContext(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"installment": inst})
}

type bulkMarkPaidRequest struct {
	Items []ledger.BulkItem `json:"items"`
}

// BulkMarkPaid marks a batch of installments paid, each independently.
// Responds 200 when every item succeeded, 207 on mixed outcomes, so the
// admin UI can report exactly which ids failed.
func (h *InstallmentHandler) BulkMarkPaid(c echo.Context) error {
	var req bulkMarkPaidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if len(req.Items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "items must not be empty")
	}

	results := h.ledger.BulkMarkPaid(c.Request().Context(), req.Items, actorFromContext(c))

	status := http.StatusOK
	if !ledger.AllSucceeded(results) {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, map[string]interface{}{"results": results})
}
