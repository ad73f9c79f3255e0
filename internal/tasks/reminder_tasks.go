package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/models"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/services"
)

// DefaultReminderTemplate is used when the task arguments carry no
// custom template.
const DefaultReminderTemplate = "Hola $name, your installment of $amount " +
	"for $tour_name is due on $due_date. Pay here: $payment_link"

// DefaultOverdueTemplate is used for installments already past due.
const DefaultOverdueTemplate = "Hola $name, your installment of $amount " +
	"for $tour_name was due on $due_date and is still unpaid. " +
	"Pay here: $payment_link"

// ReminderData is the placeholder set available to reminder templates.
type ReminderData struct {
	Name        string
	TourName    string
	Amount      string
	DueDate     string
	PaymentLink string
}

// RenderReminder substitutes the $-placeholders of a reminder template.
func RenderReminder(template string, data ReminderData) string {
	return strings.NewReplacer(
		"$name", data.Name,
		"$tour_name", data.TourName,
		"$amount", data.Amount,
		"$due_date", data.DueDate,
		"$payment_link", data.PaymentLink,
	).Replace(template)
}

// InstallmentReminderArgs defines the arguments for the reminder sweep.
// InstallmentIDs restricts a retry run to the installments that failed on
// the previous attempt; a fresh sweep leaves it empty.
type InstallmentReminderArgs struct {
	WindowDays     int    `json:"window_days"`
	Template       string `json:"template"`
	Subject        string `json:"subject"`
	InstallmentIDs []uint `json:"installment_ids"`
	AttemptCount   int    `json:"attempt_count"`
}

// InstallmentReminderTaskDef sweeps pending installments that are due
// within a window (or overdue) and notifies each buyer on their preferred
// channel. Failed deliveries are retried through a rescheduled one-time
// task, bounded by the task's max attempts.
type InstallmentReminderTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *InstallmentReminderTaskDef) TaskID() string {
	return "installment_reminder"
}

// CreateTask builds a ScheduledTask record for this task
func (t *InstallmentReminderTaskDef) CreateTask(args InstallmentReminderArgs, due time.Time, recurringInterval *string) (*models.ScheduledTask, error) {
	taskType := models.ScheduledTaskTypeOneTime
	if recurringInterval != nil {
		taskType = models.ScheduledTaskTypeRecurring
	}
	return BuildScheduledTask(t.TaskID(), args, due, recurringInterval, taskType, 3)
}

// HandleExecution runs the reminder sweep
func (t *InstallmentReminderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	argsBytes, err := json.Marshal(task.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var args InstallmentReminderArgs
	if err := json.Unmarshal(argsBytes, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	if args.WindowDays <= 0 {
		args.WindowDays = 3
	}

	now := time.Now()
	horizon := now.AddDate(0, 0, args.WindowDays)

	query := db.WithContext(ctx).
		Preload("Reservation").
		Preload("Reservation.Buyer").
		Preload("Reservation.Tour").
		Where("status = ? AND due_date <= ?", models.InstallmentStatusPending, horizon)
	if len(args.InstallmentIDs) > 0 {
		query = query.Where("id IN ?", args.InstallmentIDs)
	}

	var installments []models.Installment
	if err := query.Order("due_date asc").Find(&installments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch due installments: %w", err)
	}

	emailService := services.NewEmailService()
	wahaService := services.NewWahaService()
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	total := len(installments)
	successCount := 0
	skippedCount := 0
	failureCount := 0
	var failures []string
	var failedIDs []uint

	for _, inst := range installments {
		buyer := inst.Reservation.Buyer

		var pref models.UserNotifPreference
		err := db.Where("user_id = ?", buyer.ID).First(&pref).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				// Default to email when the buyer never set a preference
				pref = models.UserNotifPreference{Channel: models.NotificationChannelEmail}
			} else {
				log.Printf("Error fetching preference for %s: %v", buyer.Email, err)
				failureCount++
				failures = append(failures, fmt.Sprintf("installment %d: db error", inst.ID))
				failedIDs = append(failedIDs, inst.ID)
				continue
			}
		}

		template := args.Template
		if template == "" {
			if ledger.EffectiveStatus(inst, now) == models.InstallmentStatusOverdue {
				template = DefaultOverdueTemplate
			} else {
				template = DefaultReminderTemplate
			}
		}

		msg := RenderReminder(template, ReminderData{
			Name:        buyer.Name,
			TourName:    inst.Reservation.Tour.Name,
			Amount:      inst.AmountDue.StringFixed(2),
			DueDate:     inst.DueDate.Format("2006-01-02"),
			PaymentLink: appURL + "/p/" + inst.UUID,
		})

		var sendErr error
		switch pref.Channel {
		case models.NotificationChannelEmail:
			subject := args.Subject
			if subject == "" {
				subject = "Payment reminder"
			}
			sendErr = emailService.SendEmail([]string{buyer.Email}, subject, msg)
		case models.NotificationChannelWhatsapp:
			chatID := buyer.Phone
			if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup {
				chatID = pref.WhatsappGroupID
			}
			if chatID == "" {
				log.Printf("Skipping WhatsApp reminder for %s: no target", buyer.Email)
				skippedCount++
				continue
			}
			sendErr = wahaService.SendMessage(chatID, msg)
		case models.NotificationChannelNone:
			skippedCount++
			continue
		default:
			log.Printf("Unsupported notification channel %s for %s", pref.Channel, buyer.Email)
			skippedCount++
			continue
		}

		if sendErr != nil {
			log.Printf("Failed to send reminder for installment %d to %s: %v", inst.ID, buyer.Email, sendErr)
			failureCount++
			failures = append(failures, fmt.Sprintf("installment %d: %v", inst.ID, sendErr))
			failedIDs = append(failedIDs, inst.ID)
		} else {
			successCount++
		}
	}

	result := map[string]interface{}{
		"total":   total,
		"success": successCount,
		"skipped": skippedCount,
		"failure": failureCount,
	}

	if failureCount > 0 {
		result["errors"] = failures

		attempt := args.AttemptCount
		maxRetries := task.MaxAttempt

		if attempt < maxRetries {
			log.Printf("Partial failure: %d reminders failed. Rescheduling for attempt %d", len(failedIDs), attempt+1)

			retryArgs := args
			retryArgs.InstallmentIDs = failedIDs
			retryArgs.AttemptCount = attempt + 1

			nextRun := time.Now().Add(5 * time.Minute)
			retryTask, err := BuildScheduledTask(t.TaskID(), retryArgs, nextRun, nil, models.ScheduledTaskTypeOneTime, maxRetries)
			if err == nil {
				db.Create(retryTask)
			} else {
				log.Printf("Failed to create retry task: %v", err)
			}
		} else {
			log.Printf("Max attempts (%d) reached for %d failed reminders.", maxRetries, len(failedIDs))
			return result, fmt.Errorf("max attempts reached, failed to deliver %d reminders", len(failedIDs))
		}
	}

	return result, nil
}

// InstallmentReminderTask is the singleton instance of InstallmentReminderTaskDef
var InstallmentReminderTask = &InstallmentReminderTaskDef{}
