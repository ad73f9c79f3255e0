package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

// Event routing keys published on ledger transitions.
const (
	EventPlanCreated     = "installment.plan_created"
	EventInstallmentPaid = "installment.paid"
)

// EventPublisher pushes ledger lifecycle events to interested consumers.
// Publication is best effort; a publish failure never fails the operation.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// CacheInvalidator drops cached read models that a write made stale.
type CacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// DashboardCacheKey is the cache entry invalidated on every ledger write.
const DashboardCacheKey = "dashboard:summary"

// Ledger tracks due/paid state of payment installments and exposes the
// filtered views the back office reconciles against.
type Ledger struct {
	db     *gorm.DB
	events EventPublisher
	cache  CacheInvalidator

	// now is swappable in tests
	now func() time.Time
}

// New creates a Ledger. events and cache may be nil.
func New(db *gorm.DB, events EventPublisher, cache CacheInvalidator) *Ledger {
	return &Ledger{db: db, events: events, cache: cache, now: time.Now}
}

// CreatePlan establishes the installment plan for a reservation: an ordered
// sequence of pending installments whose amounts sum to the reservation
// total within rounding tolerance. A reservation can hold one plan.
func (l *Ledger) CreatePlan(ctx context.Context, reservationID uint, total decimal.Decimal, items []PlanItem, actor string) ([]models.Installment, error) {
	if err := ValidatePlan(total, items); err != nil {
		return nil, err
	}

	var reservation models.Reservation
	if err := l.db.WithContext(ctx).First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %d", ErrNotFound, reservationID)
		}
		return nil, err
	}

	switch reservation.Status {
	case models.ReservationStatusPending, models.ReservationStatusApproved:
	default:
		return nil, fmt.Errorf("%w: reservation %d is %s", ErrInvalidState, reservationID, reservation.Status)
	}

	var existing int64
	if err := l.db.WithContext(ctx).Model(&models.Installment{}).
		Where("reservation_id = ? AND status <> ?", reservationID, models.InstallmentStatusCancelled).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: reservation %d already has a payment plan", ErrInvalidState, reservationID)
	}

	installments := make([]models.Installment, len(items))
	for i, item := range items {
		installments[i] = models.Installment{
			ReservationID: reservationID,
			UUID:          uuid.New().String(),
			Sequence:      i + 1,
			AmountDue:     item.Amount,
			DueDate:       item.DueDate,
			Status:        models.InstallmentStatusPending,
		}
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&installments).Error; err != nil {
			return err
		}
		event := models.AuditEvent{
			ReservationID: reservationID,
			Event:         models.AuditEventPlanCreated,
			Detail:        fmt.Sprintf("%d installments totalling %s", len(installments), total.StringFixed(2)),
			Actor:         actor,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, EventPlanCreated, map[string]interface{}{
		"reservation_id": reservationID,
		"installments":   len(installments),
		"total":          total.StringFixed(2),
	})
	l.invalidate(ctx)

	return installments, nil
}

// MarkPaidInput carries the payment details for a mark-paid transition.
// Version, when set, is the optimistic token the caller last read; a stale
// token fails with ErrVersionConflict instead of overwriting.
type MarkPaidInput struct {
	Method    string
	Reference string
	Version   *int
	Actor     string
}

// MarkPaid transitions a single installment from pending to paid, stamps
// paid_at and records method/reference. The transition is a guarded update
// so two concurrent calls can never both record a payment: exactly one
// wins, the other observes ErrAlreadyPaid or ErrVersionConflict.
func (l *Ledger) MarkPaid(ctx context.Context, installmentID uint, in MarkPaidInput) (*models.Installment, error) {
	method := in.Method
	if method == "" {
		method = string(models.PaymentGatewayManual)
	}

	now := l.now()
	updates := map[string]interface{}{
		"status":            models.InstallmentStatusPaid,
		"payment_method":    method,
		"payment_reference": in.Reference,
		"paid_at":           &now,
		"version":           gorm.Expr("version + 1"),
	}

	query := l.db.WithContext(ctx).Model(&models.Installment{}).
		Where("id = ? AND status = ?", installmentID, models.InstallmentStatusPending)
	if in.Version != nil {
		query = query.Where("version = ?", *in.Version)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, l.explainMarkPaidFailure(ctx, installmentID, in.Version)
	}

	var inst models.Installment
	if err := l.db.WithContext(ctx).First(&inst, installmentID).Error; err != nil {
		return nil, err
	}

	event := models.AuditEvent{
		ReservationID: inst.ReservationID,
		InstallmentID: &inst.ID,
		Event:         models.AuditEventInstallmentPaid,
		Detail:        fmt.Sprintf("installment %d/%s paid via %s (%s)", inst.Sequence, inst.AmountDue.StringFixed(2), method, in.Reference),
		Actor:         in.Actor,
	}
	if err := l.db.WithContext(ctx).Create(&event).Error; err != nil {
		log.Printf("Failed to record audit event for installment %d: %v", inst.ID, err)
	}

	if err := l.maybeConfirmReservation(ctx, inst.ReservationID, in.Actor); err != nil {
		log.Printf("Failed to check reservation %d for confirmation: %v", inst.ReservationID, err)
	}

	l.publish(ctx, EventInstallmentPaid, map[string]interface{}{
		"installment_id": inst.ID,
		"reservation_id": inst.ReservationID,
		"amount":         inst.AmountDue.StringFixed(2),
		"method":         method,
		"reference":      in.Reference,
	})
	l.invalidate(ctx)

	return &inst, nil
}

// explainMarkPaidFailure disambiguates a zero-row guarded update.
func (l *Ledger) explainMarkPaidFailure(ctx context.Context, installmentID uint, version *int) error {
	var inst models.Installment
	err := l.db.WithContext(ctx).First(&inst, installmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: installment %d", ErrNotFound, installmentID)
	}
	if err != nil {
		return err
	}

	switch inst.Status {
	case models.InstallmentStatusPaid:
		return fmt.Errorf("%w: installment %d", ErrAlreadyPaid, installmentID)
	case models.InstallmentStatusCancelled:
		return fmt.Errorf("%w: installment %d is cancelled", ErrInvalidState, installmentID)
	}
	if version != nil && inst.Version != *version {
		return fmt.Errorf("%w: installment %d is at version %d, caller presented %d", ErrVersionConflict, installmentID, inst.Version, *version)
	}
	return fmt.Errorf("%w: installment %d", ErrInvalidState, installmentID)
}

// maybeConfirmReservation promotes an approved reservation to confirmed
// once none of its installments remain unpaid.
func (l *Ledger) maybeConfirmReservation(ctx context.Context, reservationID uint, actor string) error {
	var unpaid int64
	if err := l.db.WithContext(ctx).Model(&models.Installment{}).
		Where("reservation_id = ? AND status = ?", reservationID, models.InstallmentStatusPending).
		Count(&unpaid).Error; err != nil {
		return err
	}
	if unpaid > 0 {
		return nil
	}

	result := l.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND status = ?", reservationID, models.ReservationStatusApproved).
		Update("status", models.ReservationStatusConfirmed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		event := models.AuditEvent{
			ReservationID: reservationID,
			Event:         models.AuditEventReservationConfirmed,
			Detail:        "all installments paid",
			Actor:         actor,
		}
		return l.db.WithContext(ctx).Create(&event).Error
	}
	return nil
}

// ListForReconciliation returns one page of reconciliation rows matching
// the filter. Filtering is a conjunction over stored values; the derived
// overdue state is attached per row but never filtered on here.
func (l *Ledger) ListForReconciliation(ctx context.Context, f Filter) (*ReconciliationPage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f = f.Normalize()

	query := l.db.WithContext(ctx).Model(&models.Installment{}).
		Joins("JOIN reservations ON reservations.id = installments.reservation_id")

	if f.StartDate != nil {
		query = query.Where("installments.due_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("installments.due_date <= ?", *f.EndDate)
	}
	if f.Status != "" {
		query = query.Where("installments.status = ?", f.Status)
	}
	if f.MinAmount != nil {
		query = query.Where("installments.amount_due >= ?", *f.MinAmount)
	}
	if f.TourID > 0 {
		query = query.Where("reservations.tour_id = ?", f.TourID)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	totalPages := int((totalCount + int64(f.PageSize) - 1) / int64(f.PageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	if f.Page > totalPages {
		f.Page = totalPages
	}
	offset := (f.Page - 1) * f.PageSize

	var installments []models.Installment
	err := query.
		Preload("Reservation").
		Preload("Reservation.Tour").
		Preload("Reservation.Buyer").
		Order("installments.due_date asc, installments.id asc").
		Limit(f.PageSize).Offset(offset).
		Find(&installments).Error
	if err != nil {
		return nil, err
	}

	now := l.now()
	rows := make([]ReconciliationRow, len(installments))
	for i, inst := range installments {
		rows[i] = newRow(inst, now)
	}

	return &ReconciliationPage{
		Rows:       rows,
		TotalCount: totalCount,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Calendar returns reconciliation rows between start and end grouped by
// due date for the back-office calendar view. The per-day totals cover the
// whole range: the listing is paged through until every row is consumed,
// so a busy month never understates its liabilities.
func (l *Ledger) Calendar(ctx context.Context, start, end time.Time) ([]CalendarDay, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date precedes start_date", ErrValidation)
	}

	var rows []ReconciliationRow
	for page := 1; ; page++ {
		p, err := l.ListForReconciliation(ctx, Filter{
			StartDate: &start,
			EndDate:   &end,
			Page:      page,
			PageSize:  maxPageSize,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, p.Rows...)
		if len(p.Rows) == 0 || page >= p.TotalPages {
			break
		}
	}
	return groupByDueDate(rows), nil
}

// ListForReservation returns all installments of one reservation in plan
// order, each annotated with its effective status.
func (l *Ledger) ListForReservation(ctx context.Context, reservationID uint) ([]models.Installment, []models.InstallmentStatus, error) {
	var reservation models.Reservation
	if err := l.db.WithContext(ctx).First(&reservation, reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: reservation %d", ErrNotFound, reservationID)
		}
		return nil, nil, err
	}

	var installments []models.Installment
	if err := l.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("sequence asc").
		Find(&installments).Error; err != nil {
		return nil, nil, err
	}

	now := l.now()
	effective := make([]models.InstallmentStatus, len(installments))
	for i, inst := range installments {
		effective[i] = EffectiveStatus(inst, now)
	}
	return installments, effective, nil
}

func (l *Ledger) publish(ctx context.Context, routingKey string, payload interface{}) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("Failed to publish %s event: %v", routingKey, err)
	}
}

func (l *Ledger) invalidate(ctx context.Context) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, DashboardCacheKey); err != nil {
		log.Printf("Failed to invalidate dashboard cache: %v", err)
	}
}
