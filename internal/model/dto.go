// Package model holds the HTTP transfer types exchanged with API clients.
package model

import (
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// ErrorDetail pinpoints a single field problem inside an error response.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// MessageResponse is a minimal acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// InvoiceResponse is an invoice as returned by the API, with the client
// name denormalized for list views.
type InvoiceResponse struct {
	ID              int64             `json:"id"`
	ClientID        int64             `json:"client_id"`
	ClientName      string            `json:"client_name,omitempty"`
	InvoiceNumber   string            `json:"invoice_number"`
	DateIssued      domain.Date       `json:"date_issued"`
	DueDate         domain.Date       `json:"due_date"`
	Status          domain.Status     `json:"status"`
	TotalAmount     float64           `json:"total_amount"`
	VatExempt       bool              `json:"vat_exempt"`
	VatExemptReason string            `json:"vat_exempt_reason,omitempty"`
	Items           []domain.LineItem `json:"line_items,omitempty"`
}

// InvoiceFromDomain converts a domain invoice to its response form.
func InvoiceFromDomain(inv *domain.Invoice, clientName string) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID,
		ClientID:        inv.ClientID,
		ClientName:      clientName,
		InvoiceNumber:   inv.InvoiceNumber,
		DateIssued:      inv.DateIssued,
		DueDate:         inv.DueDate,
		Status:          inv.Status,
		TotalAmount:     inv.TotalAmount,
		VatExempt:       inv.VatExempt,
		VatExemptReason: inv.VatExemptReason,
		Items:           inv.Items,
	}
}

// NextNumberResponse carries the advisory next invoice number for a client.
type NextNumberResponse struct {
	InvoiceNumber string `json:"invoice_number"`
}

// TotalsPreviewRequest asks for a financial breakdown of a prospective
// item set.
type TotalsPreviewRequest struct {
	Items []TotalsPreviewItem `json:"items"`
	// VatExempt zeroes the effective VAT rate for the preview.
	VatExempt bool `json:"vat_exempt"`
}

// TotalsPreviewItem is one line of a totals preview request.
type TotalsPreviewItem struct {
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate"`
}

// StatusUpdateRequest carries a target lifecycle status.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// WebhookTestRequest carries the URL to send a test notification to.
type WebhookTestRequest struct {
	WebhookURL string `json:"webhook_url"`
}

// SweepResponse reports the outcome of a manually triggered overdue sweep.
type SweepResponse struct {
	NewlyOverdue []string `json:"newly_overdue"`
	DueToday     []string `json:"due_today"`
}
