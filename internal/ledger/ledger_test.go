package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.Reservation{},
		&models.Installment{},
		&models.AuditEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return New(db, nil, nil), db
}

func seedReservation(t *testing.T, db *gorm.DB, status models.ReservationStatus, total string) models.Reservation {
	t.Helper()

	buyer := models.User{
		Name:     "Ana",
		Email:    "buyer-" + uuid.New().String() + "@example.com",
		UserType: models.UserTypeBuyer,
	}
	if err := db.Create(&buyer).Error; err != nil {
		t.Fatalf("failed to seed buyer: %v", err)
	}

	tour := models.Tour{
		Name:      "Copper Canyon Express",
		Slug:      "copper-canyon-" + uuid.New().String()[:8],
		BasePrice: decimal.RequireFromString(total),
		IsActive:  true,
	}
	if err := db.Create(&tour).Error; err != nil {
		t.Fatalf("failed to seed tour: %v", err)
	}

	reservation := models.Reservation{
		UUID:       uuid.New().String(),
		BuyerID:    buyer.ID,
		TourID:     tour.ID,
		Passengers: 1,
		TotalPrice: decimal.RequireFromString(total),
		Status:     status,
	}
	if err := db.Create(&reservation).Error; err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}
	return reservation
}

func seedInstallment(t *testing.T, db *gorm.DB, reservationID uint, amount string, dueDate time.Time, status models.InstallmentStatus) models.Installment {
	t.Helper()

	inst := models.Installment{
		ReservationID: reservationID,
		UUID:          uuid.New().String(),
		Sequence:      1,
		AmountDue:     decimal.RequireFromString(amount),
		DueDate:       dueDate,
		Status:        status,
		Version:       1,
	}
	if err := db.Create(&inst).Error; err != nil {
		t.Fatalf("failed to seed installment: %v", err)
	}
	return inst
}

func TestCreatePlanPersists(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusPending, "3000.00")

	items := MonthlySchedule(reservation.TotalPrice, 3, date(2026, 4, 15))
	installments, err := l.CreatePlan(ctx, reservation.ID, reservation.TotalPrice, items, "admin@agency.test")
	if err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}
	if len(installments) != 3 {
		t.Fatalf("CreatePlan() returned %d installments; want 3", len(installments))
	}

	var stored []models.Installment
	if err := db.Where("reservation_id = ?", reservation.ID).Order("sequence asc").Find(&stored).Error; err != nil {
		t.Fatalf("failed to reload installments: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d installments; want 3", len(stored))
	}
	for i, inst := range stored {
		if inst.Status != models.InstallmentStatusPending {
			t.Errorf("installment %d status = %q; want pending", i+1, inst.Status)
		}
		if inst.Version != 1 {
			t.Errorf("installment %d version = %d; want 1", i+1, inst.Version)
		}
	}

	var events int64
	db.Model(&models.AuditEvent{}).
		Where("reservation_id = ? AND event = ?", reservation.ID, models.AuditEventPlanCreated).
		Count(&events)
	if events != 1 {
		t.Errorf("plan_created audit events = %d; want 1", events)
	}

	// A reservation holds one plan
	_, err = l.CreatePlan(ctx, reservation.ID, reservation.TotalPrice, items, "admin@agency.test")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("second CreatePlan() error = %v; want ErrInvalidState", err)
	}
}

func TestMarkPaidThenRepeatRejected(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "1000.00")
	inst := seedInstallment(t, db, reservation.ID, "1000.00", date(2026, 5, 1), models.InstallmentStatusPending)

	paid, err := l.MarkPaid(ctx, inst.ID, MarkPaidInput{Reference: "TRX-1", Actor: "admin@agency.test"})
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if paid.Status != models.InstallmentStatusPaid {
		t.Errorf("status = %q; want paid", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Error("PaidAt not stamped")
	}
	if paid.Version != 2 {
		t.Errorf("version = %d; want 2", paid.Version)
	}
	if paid.PaymentMethod != string(models.PaymentGatewayManual) {
		t.Errorf("payment method = %q; want manual default", paid.PaymentMethod)
	}

	// A second mark-paid is an explicit conflict, never a silent no-op
	_, err = l.MarkPaid(ctx, inst.ID, MarkPaidInput{Reference: "TRX-2", Actor: "admin@agency.test"})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("repeat MarkPaid() error = %v; want ErrAlreadyPaid", err)
	}

	var reloaded models.Installment
	if err := db.First(&reloaded, inst.ID).Error; err != nil {
		t.Fatalf("failed to reload installment: %v", err)
	}
	if reloaded.PaymentReference != "TRX-1" {
		t.Errorf("reference = %q; the rejected repeat must not overwrite TRX-1", reloaded.PaymentReference)
	}
	if reloaded.Version != 2 {
		t.Errorf("version = %d after rejected repeat; want 2", reloaded.Version)
	}
}

func TestMarkPaidVersionToken(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "500.00")
	inst := seedInstallment(t, db, reservation.ID, "500.00", date(2026, 5, 1), models.InstallmentStatusPending)

	stale := 7
	_, err := l.MarkPaid(ctx, inst.ID, MarkPaidInput{Version: &stale, Actor: "admin@agency.test"})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale-version MarkPaid() error = %v; want ErrVersionConflict", err)
	}

	var untouched models.Installment
	if err := db.First(&untouched, inst.ID).Error; err != nil {
		t.Fatalf("failed to reload installment: %v", err)
	}
	if untouched.Status != models.InstallmentStatusPending {
		t.Errorf("status = %q after version conflict; want pending", untouched.Status)
	}

	current := untouched.Version
	if _, err := l.MarkPaid(ctx, inst.ID, MarkPaidInput{Version: &current, Actor: "admin@agency.test"}); err != nil {
		t.Fatalf("current-version MarkPaid() error = %v", err)
	}
}

func TestMarkPaidInvalidTargets(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "500.00")
	cancelled := seedInstallment(t, db, reservation.ID, "500.00", date(2026, 5, 1), models.InstallmentStatusCancelled)

	if _, err := l.MarkPaid(ctx, 9999, MarkPaidInput{Actor: "admin@agency.test"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id error = %v; want ErrNotFound", err)
	}
	if _, err := l.MarkPaid(ctx, cancelled.ID, MarkPaidInput{Actor: "admin@agency.test"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cancelled installment error = %v; want ErrInvalidState", err)
	}
}

func TestMarkPaidConfirmsReservation(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "1000.00")

	items := []PlanItem{
		{Amount: decimal.RequireFromString("500"), DueDate: date(2026, 6, 1)},
		{Amount: decimal.RequireFromString("500"), DueDate: date(2026, 7, 1)},
	}
	installments, err := l.CreatePlan(ctx, reservation.ID, reservation.TotalPrice, items, "admin@agency.test")
	if err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}

	for _, inst := range installments {
		if _, err := l.MarkPaid(ctx, inst.ID, MarkPaidInput{Actor: "admin@agency.test"}); err != nil {
			t.Fatalf("MarkPaid(%d) error = %v", inst.ID, err)
		}
	}

	var reloaded models.Reservation
	if err := db.First(&reloaded, reservation.ID).Error; err != nil {
		t.Fatalf("failed to reload reservation: %v", err)
	}
	if reloaded.Status != models.ReservationStatusConfirmed {
		t.Errorf("reservation status = %q after full payment; want confirmed", reloaded.Status)
	}
}

func TestBulkMarkPaidPartialFailure(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "900.00")

	pending := seedInstallment(t, db, reservation.ID, "300.00", date(2026, 5, 1), models.InstallmentStatusPending)
	alreadyPaid := seedInstallment(t, db, reservation.ID, "300.00", date(2026, 6, 1), models.InstallmentStatusPaid)

	results := l.BulkMarkPaid(ctx, []BulkItem{
		{ID: pending.ID, Reference: "TRX-A"},
		{ID: 9999},
		{ID: alreadyPaid.ID},
	}, "admin@agency.test")

	wantStatuses := []BulkResultStatus{BulkStatusPaid, BulkStatusNotFound, BulkStatusAlreadyPaid}
	if len(results) != len(wantStatuses) {
		t.Fatalf("BulkMarkPaid() returned %d results; want %d", len(results), len(wantStatuses))
	}
	for i, want := range wantStatuses {
		if results[i].Status != want {
			t.Errorf("result[%d].Status = %q; want %q", i, results[i].Status, want)
		}
	}
	if AllSucceeded(results) {
		t.Error("AllSucceeded() = true for a mixed batch")
	}

	// The failing siblings never roll back the successful item
	var persisted models.Installment
	if err := db.First(&persisted, pending.ID).Error; err != nil {
		t.Fatalf("failed to reload installment: %v", err)
	}
	if persisted.Status != models.InstallmentStatusPaid {
		t.Errorf("sibling status = %q; want paid persisted despite batch failures", persisted.Status)
	}
	if persisted.PaymentReference != "TRX-A" {
		t.Errorf("sibling reference = %q; want TRX-A", persisted.PaymentReference)
	}
}

func TestListForReconciliationFilters(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "600.00")

	seedInstallment(t, db, reservation.ID, "50.00", date(2026, 3, 5), models.InstallmentStatusPending)
	seedInstallment(t, db, reservation.ID, "150.00", date(2026, 3, 10), models.InstallmentStatusPending)
	seedInstallment(t, db, reservation.ID, "400.00", date(2026, 4, 2), models.InstallmentStatusPaid)

	minAmount := decimal.RequireFromString("100")
	page, err := l.ListForReconciliation(ctx, Filter{MinAmount: &minAmount})
	if err != nil {
		t.Fatalf("ListForReconciliation() error = %v", err)
	}
	if page.TotalCount != 2 {
		t.Errorf("min_amount filter matched %d rows; want 2", page.TotalCount)
	}

	start := date(2026, 3, 1)
	end := date(2026, 3, 31)
	page, err = l.ListForReconciliation(ctx, Filter{
		StartDate: &start,
		EndDate:   &end,
		Status:    models.InstallmentStatusPending,
		MinAmount: &minAmount,
	})
	if err != nil {
		t.Fatalf("ListForReconciliation() error = %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("conjunction filter matched %d rows; want 1", page.TotalCount)
	}
	if !page.Rows[0].Installment.AmountDue.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("matched amount = %s; want 150.00", page.Rows[0].Installment.AmountDue)
	}
}

func TestCalendarCoversRangesBeyondOnePage(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()
	reservation := seedReservation(t, db, models.ReservationStatusApproved, "2500.00")

	const count = 250
	installments := make([]models.Installment, count)
	for i := 0; i < count; i++ {
		installments[i] = models.Installment{
			ReservationID: reservation.ID,
			UUID:          uuid.New().String(),
			Sequence:      i + 1,
			AmountDue:     decimal.RequireFromString("10.00"),
			DueDate:       date(2026, 3, i%28+1),
			Status:        models.InstallmentStatusPending,
			Version:       1,
		}
	}
	if err := db.CreateInBatches(installments, 50).Error; err != nil {
		t.Fatalf("failed to seed installments: %v", err)
	}

	days, err := l.Calendar(ctx, date(2026, 3, 1), date(2026, 3, 31))
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}

	totalRows := 0
	totalDue := decimal.Zero
	for _, day := range days {
		totalRows += len(day.Rows)
		totalDue = totalDue.Add(day.TotalDue)
	}
	if totalRows != count {
		t.Errorf("calendar covers %d rows; want all %d in range", totalRows, count)
	}
	if want := decimal.RequireFromString("2500.00"); !totalDue.Equal(want) {
		t.Errorf("calendar total due = %s; want %s", totalDue, want)
	}
}
