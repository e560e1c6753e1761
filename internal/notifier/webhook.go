// Package notifier delivers invoice notifications to an external webhook.
// Delivery is best-effort by contract: callers log failures and move on,
// they never roll back state changes because a webhook was unreachable.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// IntentType distinguishes the two notification kinds raised by the sweep.
type IntentType string

const (
	IntentOverdue  IntentType = "overdue"
	IntentReminder IntentType = "reminder"
)

// Intent is a notification the core has decided to raise. It carries
// everything the message needs; delivery transport is the notifier's
// concern.
type Intent struct {
	Type          IntentType
	InvoiceNumber string
	ClientName    string
	DueDate       domain.Date
	TotalAmount   float64
}

// Notifier sends notification intents to a delivery channel.
type Notifier interface {
	Send(ctx context.Context, webhookURL string, intent Intent) error
	SendTest(ctx context.Context, webhookURL string) error
}

// WebhookNotifier posts messages to a chat-style webhook (Discord-compatible
// payload: a single "content" field).
type WebhookNotifier struct {
	client *http.Client
}

// NewWebhookNotifier creates a notifier with the given request timeout.
func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
	}
}

// Send formats and delivers one intent.
func (n *WebhookNotifier) Send(ctx context.Context, webhookURL string, intent Intent) error {
	return n.post(ctx, webhookURL, formatMessage(intent))
}

// SendTest delivers a fixed test message so users can verify their webhook
// configuration.
func (n *WebhookNotifier) SendTest(ctx context.Context, webhookURL string) error {
	return n.post(ctx, webhookURL, "**Test Notification**\nThis is a test message from the invoice service.")
}

func formatMessage(intent Intent) string {
	switch intent.Type {
	case IntentOverdue:
		return fmt.Sprintf(
			"**OVERDUE INVOICE ALERT**\nInvoice **#%s** for **%s** was due on **%s** and is unpaid.\nTotal Amount: US$%.2f",
			intent.InvoiceNumber, intent.ClientName, intent.DueDate, intent.TotalAmount,
		)
	default:
		return fmt.Sprintf(
			"**Invoice Reminder**\nInvoice **#%s** for **%s** is due **today** (%s) and is unpaid.\nTotal Amount: US$%.2f",
			intent.InvoiceNumber, intent.ClientName, intent.DueDate, intent.TotalAmount,
		)
	}
}

func (n *WebhookNotifier) post(ctx context.Context, webhookURL, content string) error {
	if webhookURL == "" {
		return fmt.Errorf("%w: no webhook URL configured", domain.ErrDelivery)
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned status %d", domain.ErrDelivery, resp.StatusCode)
	}
	return nil
}
