package domain

import "fmt"

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft   Status = "Draft"
	StatusSent    Status = "Sent"
	StatusOverdue Status = "Overdue"
	StatusPaid    Status = "Paid"
)

// ParseStatus validates a status string coming from the API or an import
// payload.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSent, StatusOverdue, StatusPaid:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// LineItem is a single billable line. Items are owned exclusively by their
// parent invoice and cascade with it.
type LineItem struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"` // quantity * rate, derived
}

// Invoice is the core billing entity. TotalAmount is a cached derivation of
// the item amounts: it is recomputed wholesale on every item-set mutation,
// never patched incrementally.
type Invoice struct {
	ID              int64      `json:"id"`
	ClientID        int64      `json:"client_id"`
	InvoiceNumber   string     `json:"invoice_number"` // globally unique
	DateIssued      Date       `json:"date_issued"`
	DueDate         Date       `json:"due_date"` // >= DateIssued
	Status          Status     `json:"status"`
	TotalAmount     float64    `json:"total_amount"`
	VatExempt       bool       `json:"vat_exempt"`
	VatExemptReason string     `json:"vat_exempt_reason"`
	Items           []LineItem `json:"line_items,omitempty"`
}
