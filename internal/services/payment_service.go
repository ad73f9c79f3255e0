package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
)

// Gateway is the slice of the Midtrans client the payment service needs.
// MidtransService satisfies it.
type Gateway interface {
	CreateTransaction(orderID string, amount int64, param *snap.Request) (*snap.Response, error)
	CheckTransaction(orderID string) (*coreapi.TransactionStatusResponse, error)
	CancelTransaction(orderID string) error
	VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool
}

// PaymentService drives the gateway side of installment collection: snap
// session creation/reuse, notification handling and status verification.
type PaymentService struct {
	db             *gorm.DB
	midtransClient Gateway
	ledger         *ledger.Ledger
}

func NewPaymentService(db *gorm.DB, midtransClient Gateway, l *ledger.Ledger) *PaymentService {
	return &PaymentService{
		db:             db,
		midtransClient: midtransClient,
		ledger:         l,
	}
}

// BuildOrderID formats the gateway order id for an installment attempt.
// Format: installment-{id}-{unix_ts}.
func BuildOrderID(installmentID uint, ts int64) string {
	return fmt.Sprintf("installment-%d-%d", installmentID, ts)
}

// ParseOrderID extracts the installment id from a gateway order id.
func ParseOrderID(orderID string) (uint, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) < 3 || parts[0] != "installment" {
		return 0, fmt.Errorf("invalid order id format: %q", orderID)
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid installment id in order id %q: %w", orderID, err)
	}
	return uint(id), nil
}

// CheckActiveSession returns the most recent active session for the
// installment, or nil when none exists.
func (s *PaymentService) CheckActiveSession(installmentID uint) (*models.PaymentSession, error) {
	var existingSession models.PaymentSession
	err := s.db.Where("installment_id = ? AND is_active = ?", installmentID, true).
		Order("created_at desc").First(&existingSession).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &existingSession, nil
}

// InitiatePaymentResult holds the result of an initiation attempt
type InitiatePaymentResult struct {
	Token       string
	RedirectURL string
	IsExisting  bool
}

// ErrAlreadySettled signals that the gateway already settled this
// installment and no new checkout session should be opened.
var ErrAlreadySettled = errors.New("payment already made")

// InitiatePayment starts or resumes a checkout session for an installment.
// The installment must arrive with Reservation, Reservation.Buyer and
// Reservation.Tour preloaded.
func (s *PaymentService) InitiatePayment(inst *models.Installment, forceNew bool, callbackURL string) (*InitiatePaymentResult, error) {
	// 1. Check for existing active session
	existingSession, err := s.CheckActiveSession(inst.ID)
	if err != nil {
		return nil, err
	}

	if existingSession != nil {
		statusResp, err := s.midtransClient.CheckTransaction(existingSession.OrderID)
		if err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				return nil, ErrAlreadySettled
			case "deny", "expire", "cancel", "failure":
				s.retireSession(existingSession)
				// Proceed to create new
			default:
				// Pending at the gateway
				if forceNew {
					if err := s.midtransClient.CancelTransaction(existingSession.OrderID); err != nil {
						log.Printf("Failed to cancel gateway transaction %s: %v", existingSession.OrderID, err)
					}
					s.retireSession(existingSession)
					// Proceed to create new
				} else {
					var midtransResp snap.Response
					if err := json.Unmarshal(existingSession.ResponseMetadata, &midtransResp); err == nil {
						return &InitiatePaymentResult{
							Token:       midtransResp.Token,
							RedirectURL: midtransResp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// Stored response unreadable, treat the session as broken
					s.retireSession(existingSession)
				}
			}
		} else {
			// Status check failed, assume the session is broken locally
			s.retireSession(existingSession)
		}
	}

	// 2. Create a new transaction
	orderID := BuildOrderID(inst.ID, time.Now().Unix())
	grossAmt := inst.AmountDue.Round(0).IntPart()

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: grossAmt,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: inst.Reservation.Buyer.Name,
			Email: inst.Reservation.Buyer.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("reservation-%d", inst.ReservationID),
				Name:  fmt.Sprintf("Installment %d for %s", inst.Sequence, inst.Reservation.Tour.Name),
				Price: grossAmt,
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.midtransClient.CreateTransaction(orderID, grossAmt, req)
	if err != nil {
		return nil, err
	}

	// 3. Record the session
	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	session := models.PaymentSession{
		ReservationID:    inst.ReservationID,
		InstallmentID:    inst.ID,
		PaymentGateway:   models.PaymentGatewayMidtrans,
		OrderID:          orderID,
		IsActive:         true,
		RequestMetadata:  reqBytes,
		ResponseMetadata: respBytes,
	}
	// The session record drives reuse and deactivation; losing it would
	// leave the gateway transaction untracked, so a failed write fails
	// the initiation.
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment session for order %s: %w", orderID, err)
	}

	return &InitiatePaymentResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		IsExisting:  false,
	}, nil
}

// HandleCallback processes a gateway notification payload. The raw payload
// is always archived first. A settlement marks the installment paid through
// the ledger; a redelivered settlement for an already-paid installment is
// absorbed here, since gateways retry notifications.
func (s *PaymentService) HandleCallback(ctx context.Context, payload map[string]interface{}) error {
	raw, _ := json.Marshal(payload)
	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayMidtrans,
		Metadata:       raw,
	}

	orderID, _ := payload["order_id"].(string)
	history.OrderID = orderID
	if err := s.db.WithContext(ctx).Create(&history).Error; err != nil {
		log.Printf("Failed to archive callback for order %s: %v", orderID, err)
	}

	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signatureKey, _ := payload["signature_key"].(string)
	if !s.midtransClient.VerifySignature(orderID, statusCode, grossAmount, signatureKey) {
		return fmt.Errorf("invalid notification signature for order %q", orderID)
	}

	installmentID, err := ParseOrderID(orderID)
	if err != nil {
		return err
	}

	transactionStatus, _ := payload["transaction_status"].(string)
	fraudStatus, _ := payload["fraud_status"].(string)
	paymentType, _ := payload["payment_type"].(string)
	transactionID, _ := payload["transaction_id"].(string)

	settled := transactionStatus == "settlement" ||
		(transactionStatus == "capture" && fraudStatus == "accept")

	if settled {
		_, err := s.ledger.MarkPaid(ctx, installmentID, ledger.MarkPaidInput{
			Method:    paymentType,
			Reference: transactionID,
			Actor:     string(models.PaymentGatewayMidtrans),
		})
		if err != nil && !errors.Is(err, ledger.ErrAlreadyPaid) {
			return err
		}
		s.deactivateSessions(ctx, installmentID)
		return nil
	}

	switch transactionStatus {
	case "deny", "expire", "cancel", "failure":
		s.deactivateSessions(ctx, installmentID)
	}
	return nil
}

// VerifyPaymentStatus re-checks an installment's active session against the
// gateway and settles it locally if the gateway already did.
func (s *PaymentService) VerifyPaymentStatus(ctx context.Context, installmentID uint) error {
	session, err := s.CheckActiveSession(installmentID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}

	statusResp, err := s.midtransClient.CheckTransaction(session.OrderID)
	if err != nil {
		return err
	}

	switch statusResp.TransactionStatus {
	case "settlement", "capture":
		_, err := s.ledger.MarkPaid(ctx, installmentID, ledger.MarkPaidInput{
			Method:    statusResp.PaymentType,
			Reference: statusResp.TransactionID,
			Actor:     string(models.PaymentGatewayMidtrans),
		})
		if err != nil && !errors.Is(err, ledger.ErrAlreadyPaid) {
			return err
		}
		s.deactivateSessions(ctx, installmentID)
	case "deny", "expire", "cancel", "failure":
		s.deactivateSessions(ctx, installmentID)
	}
	return nil
}

// retireSession marks one session inactive so the next initiation opens a
// fresh gateway transaction instead of resuming a dead one.
func (s *PaymentService) retireSession(session *models.PaymentSession) {
	session.IsActive = false
	if err := s.db.Save(session).Error; err != nil {
		log.Printf("Failed to deactivate payment session %s: %v", session.OrderID, err)
	}
}

func (s *PaymentService) deactivateSessions(ctx context.Context, installmentID uint) {
	err := s.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("installment_id = ? AND is_active = ?", installmentID, true).
		Update("is_active", false).Error
	if err != nil {
		log.Printf("Failed to deactivate sessions for installment %d: %v", installmentID, err)
	}
}
