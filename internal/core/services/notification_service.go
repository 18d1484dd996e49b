package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"loansuite/internal/adapters/persistence/models"
	"loansuite/internal/config"

	"github.com/shopspring/decimal"
)

// NotificationService delivers fire-and-forget webhook notifications.
// Every send is best-effort: failures are logged and never surface to the
// operation that triggered them, and the HTTP client carries a bounded
// timeout so a slow collaborator cannot stall a payment or a sweep.
type NotificationService struct {
	webhookURL string
	client     *http.Client
	enabled    bool
}

// NewNotificationService creates a new notification service. An empty
// webhook URL disables sending entirely.
func NewNotificationService(cfg config.NotifyConfig) *NotificationService {
	return &NotificationService{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		enabled:    cfg.WebhookURL != "",
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// send posts one event payload to the webhook
func (s *NotificationService) send(event string, payload map[string]interface{}) {
	if !s.enabled {
		return
	}

	body := map[string]interface{}{
		"event":   event,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
		"payload": payload,
	}

	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("❌ Notification marshal failed [%s]: %v", event, err)
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		log.Printf("❌ Notification send failed [%s]: %v", event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("❌ Notification rejected [%s]: status %d", event, resp.StatusCode)
	}
}

// NotifyScheduleGenerated announces a freshly generated EMI schedule
func (s *NotificationService) NotifyScheduleGenerated(loanID uint, installments int, emiAmount decimal.Decimal) {
	s.send("emi.schedule_generated", map[string]interface{}{
		"loan_id":      loanID,
		"installments": installments,
		"emi_amount":   emiAmount,
	})
}

// NotifyPaymentReceived announces a recorded installment payment
func (s *NotificationService) NotifyPaymentReceived(payment *models.EmiPayment) {
	s.send("emi.payment_received", map[string]interface{}{
		"emi_schedule_id": payment.EmiScheduleID,
		"loan_id":         payment.LoanID,
		"amount":          payment.Amount,
		"method":          payment.Method,
		"overpaid":        payment.Overpaid,
	})
}

// NotifyOverdueFlagged announces the result of an overdue sweep
func (s *NotificationService) NotifyOverdueFlagged(count int64) {
	s.send("emi.overdue_flagged", map[string]interface{}{
		"count": count,
	})
}

// NotifyEmiDueSoon reminds about an upcoming installment
func (s *NotificationService) NotifyEmiDueSoon(row *models.EmiSchedule) {
	s.send("emi.due_soon", map[string]interface{}{
		"emi_schedule_id": row.ID,
		"loan_id":         row.LoanID,
		"customer_id":     row.CustomerID,
		"emi_number":      row.EmiNumber,
		"emi_amount":      row.EmiAmount,
		"due_date":        row.DueDate.Format("2006-01-02"),
	})
}

// NotifyLoanDecision announces an approval or rejection
func (s *NotificationService) NotifyLoanDecision(loan *models.Loan, approved bool) {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	s.send(fmt.Sprintf("loan.%s", decision), map[string]interface{}{
		"loan_id":     loan.ID,
		"customer_id": loan.CustomerID,
		"principal":   loan.Principal,
		"remark":      loan.Remark,
	})
}

// NotifyLoanClosed announces a fully settled loan
func (s *NotificationService) NotifyLoanClosed(loan *models.Loan) {
	s.send("loan.closed", map[string]interface{}{
		"loan_id":     loan.ID,
		"customer_id": loan.CustomerID,
		"settled_at":  loan.SettledAt,
	})
}
