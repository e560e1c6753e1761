// Package backup serializes the whole billing dataset to and from a
// portable JSON document. Identifiers are preserved exactly so that
// client/invoice/item relationships survive a round trip; import is a
// destructive replace performed by the dataset repository.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// ClientRecord is the portable form of a client. CreatedAt is ISO 8601.
type ClientRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
}

// InvoiceRecord is the portable form of an invoice. Dates are YYYY-MM-DD.
type InvoiceRecord struct {
	ID              int64   `json:"id"`
	ClientID        int64   `json:"client_id"`
	InvoiceNumber   string  `json:"invoice_number"`
	DateIssued      string  `json:"date_issued"`
	DueDate         string  `json:"due_date"`
	Status          string  `json:"status"`
	TotalAmount     float64 `json:"total_amount"`
	VatExempt       bool    `json:"vat_exempt"`
	VatExemptReason string  `json:"vat_exempt_reason,omitempty"`
}

// ItemRecord is the portable form of a line item.
type ItemRecord struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// SettingRecord is one settings key/value pair.
type SettingRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dataset is the complete exported state of a deployment.
type Dataset struct {
	Clients  []ClientRecord  `json:"clients"`
	Invoices []InvoiceRecord `json:"invoices"`
	Items    []ItemRecord    `json:"invoice_items"`
	Settings []SettingRecord `json:"settings"`
}

// Encode renders the dataset as an indented JSON document.
func Encode(ds *Dataset) ([]byte, error) {
	raw, err := json.MarshalIndent(ds, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return raw, nil
}

// Decode parses a JSON export and validates it. Any malformed record or
// broken reference fails the whole decode; partial datasets are never
// returned.
func Decode(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("%w: malformed export document: %v", domain.ErrValidation, err)
	}
	if err := Validate(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks internal consistency: unique identifiers, resolvable
// foreign keys, known statuses and parseable dates. Insertion order during
// import relies on these holding.
func Validate(ds *Dataset) error {
	clientIDs := make(map[int64]bool, len(ds.Clients))
	for _, c := range ds.Clients {
		if clientIDs[c.ID] {
			return fmt.Errorf("%w: duplicate client id %d", domain.ErrIntegrity, c.ID)
		}
		clientIDs[c.ID] = true
		if c.Name == "" {
			return fmt.Errorf("%w: client %d has no name", domain.ErrValidation, c.ID)
		}
		if c.CreatedAt != "" {
			if _, err := time.Parse(time.RFC3339, c.CreatedAt); err != nil {
				return fmt.Errorf("%w: client %d: bad created_at %q", domain.ErrValidation, c.ID, c.CreatedAt)
			}
		}
	}

	invoiceIDs := make(map[int64]bool, len(ds.Invoices))
	numbers := make(map[string]bool, len(ds.Invoices))
	for _, inv := range ds.Invoices {
		if invoiceIDs[inv.ID] {
			return fmt.Errorf("%w: duplicate invoice id %d", domain.ErrIntegrity, inv.ID)
		}
		invoiceIDs[inv.ID] = true
		if !clientIDs[inv.ClientID] {
			return fmt.Errorf("%w: invoice %s references unknown client %d", domain.ErrIntegrity, inv.InvoiceNumber, inv.ClientID)
		}
		if inv.InvoiceNumber == "" {
			return fmt.Errorf("%w: invoice %d has no number", domain.ErrValidation, inv.ID)
		}
		if numbers[inv.InvoiceNumber] {
			return fmt.Errorf("%w: duplicate invoice number %s", domain.ErrIntegrity, inv.InvoiceNumber)
		}
		numbers[inv.InvoiceNumber] = true
		if _, err := domain.ParseStatus(inv.Status); err != nil {
			return fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, err)
		}
		for _, d := range []string{inv.DateIssued, inv.DueDate} {
			if d == "" {
				continue
			}
			if _, err := domain.ParseDate(d); err != nil {
				return fmt.Errorf("%w: invoice %s: bad date %q", domain.ErrValidation, inv.InvoiceNumber, d)
			}
		}
	}

	itemIDs := make(map[int64]bool, len(ds.Items))
	for _, item := range ds.Items {
		if itemIDs[item.ID] {
			return fmt.Errorf("%w: duplicate line item id %d", domain.ErrIntegrity, item.ID)
		}
		itemIDs[item.ID] = true
		if !invoiceIDs[item.InvoiceID] {
			return fmt.Errorf("%w: line item %d references unknown invoice %d", domain.ErrIntegrity, item.ID, item.InvoiceID)
		}
	}

	for _, s := range ds.Settings {
		if s.Key == "" {
			return fmt.Errorf("%w: settings entry with empty key", domain.ErrValidation)
		}
	}
	return nil
}

// FromDomain builds the portable records from domain entities.
func FromDomain(clients []domain.Client, invoices []domain.Invoice, settings domain.Settings) *Dataset {
	ds := &Dataset{
		Clients:  make([]ClientRecord, 0, len(clients)),
		Invoices: make([]InvoiceRecord, 0, len(invoices)),
		Items:    []ItemRecord{},
		Settings: make([]SettingRecord, 0, len(settings)),
	}
	for _, c := range clients {
		createdAt := ""
		if !c.CreatedAt.IsZero() {
			createdAt = c.CreatedAt.UTC().Format(time.RFC3339)
		}
		ds.Clients = append(ds.Clients, ClientRecord{
			ID:        c.ID,
			Name:      c.Name,
			Address:   c.Address,
			Email:     c.Email,
			Phone:     c.Phone,
			Category:  c.Category,
			CreatedAt: createdAt,
		})
	}
	for _, inv := range invoices {
		ds.Invoices = append(ds.Invoices, InvoiceRecord{
			ID:              inv.ID,
			ClientID:        inv.ClientID,
			InvoiceNumber:   inv.InvoiceNumber,
			DateIssued:      inv.DateIssued.String(),
			DueDate:         inv.DueDate.String(),
			Status:          string(inv.Status),
			TotalAmount:     inv.TotalAmount,
			VatExempt:       inv.VatExempt,
			VatExemptReason: inv.VatExemptReason,
		})
		for _, item := range inv.Items {
			ds.Items = append(ds.Items, ItemRecord{
				ID:          item.ID,
				InvoiceID:   item.InvoiceID,
				Description: item.Description,
				Quantity:    item.Quantity,
				Rate:        item.Rate,
				Amount:      item.Amount,
			})
		}
	}
	// Deterministic settings order keeps exports diffable.
	for _, key := range domain.KnownSettingKeys {
		if value, ok := settings[key]; ok {
			ds.Settings = append(ds.Settings, SettingRecord{Key: key, Value: value})
		}
	}
	return ds
}

// ToDomainClient converts a portable client record.
func (r ClientRecord) ToDomainClient() (domain.Client, error) {
	c := domain.Client{
		ID:       r.ID,
		Name:     r.Name,
		Address:  r.Address,
		Email:    r.Email,
		Phone:    r.Phone,
		Category: r.Category,
	}
	if r.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, r.CreatedAt)
		if err != nil {
			return domain.Client{}, fmt.Errorf("%w: client %d: bad created_at", domain.ErrValidation, r.ID)
		}
		c.CreatedAt = t
	}
	return c, nil
}

// ToDomainInvoice converts a portable invoice record (without items).
func (r InvoiceRecord) ToDomainInvoice() (domain.Invoice, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv := domain.Invoice{
		ID:              r.ID,
		ClientID:        r.ClientID,
		InvoiceNumber:   r.InvoiceNumber,
		Status:          status,
		TotalAmount:     r.TotalAmount,
		VatExempt:       r.VatExempt,
		VatExemptReason: r.VatExemptReason,
	}
	if r.DateIssued != "" {
		if inv.DateIssued, err = domain.ParseDate(r.DateIssued); err != nil {
			return domain.Invoice{}, fmt.Errorf("%w: invoice %s: bad date_issued", domain.ErrValidation, r.InvoiceNumber)
		}
	}
	if r.DueDate != "" {
		if inv.DueDate, err = domain.ParseDate(r.DueDate); err != nil {
			return domain.Invoice{}, fmt.Errorf("%w: invoice %s: bad due_date", domain.ErrValidation, r.InvoiceNumber)
		}
	}
	return inv, nil
}
