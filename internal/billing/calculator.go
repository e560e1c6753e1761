// Package billing contains the pure financial core: line and invoice
// arithmetic, tax back-calculation from tax-inclusive totals, the invoice
// numbering scheme, and the lifecycle rules applied by the overdue sweep.
// Nothing in this package touches storage or the clock.
package billing

import (
	"fmt"
	"math"

	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

// Totals is the computed financial breakdown of an invoice.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	VatPercent float64 `json:"vat_percent"` // effective rate, 0 when exempt
	VatAmount  float64 `json:"vat_amount"`
	Total      float64 `json:"total"`
}

// LineAmount computes quantity * rate. Negative values are permitted and
// represent credits. Non-finite inputs are rejected.
func LineAmount(quantity, rate float64) (float64, error) {
	if !isFinite(quantity) {
		return 0, fmt.Errorf("%w: quantity must be a finite number", domain.ErrValidation)
	}
	if !isFinite(rate) {
		return 0, fmt.Errorf("%w: rate must be a finite number", domain.ErrValidation)
	}
	return quantity * rate, nil
}

// InvoiceTotal sums the line amounts of all items. An empty slice yields
// zero; rejecting empty item sets at invoice creation is the caller's job.
func InvoiceTotal(items []domain.LineItem) (float64, error) {
	var total float64
	for i, item := range items {
		amount, err := LineAmount(item.Quantity, item.Rate)
		if err != nil {
			return 0, fmt.Errorf("item[%d]: %w", i, err)
		}
		total += amount
	}
	return total, nil
}

// TaxBreakdown derives the VAT-exclusive subtotal and the VAT amount from a
// tax-inclusive total. When exempt, the whole total is the subtotal and VAT
// is zero regardless of the rate. Guarantees subtotal+vat == total.
func TaxBreakdown(total, vatPercent float64, exempt bool) (subtotal, vatAmount float64) {
	if exempt {
		return total, 0
	}
	subtotal = total / (1 + vatPercent/100)
	vatAmount = total - subtotal
	return subtotal, vatAmount
}

// ComputeTotals builds the full breakdown for an item set under the given
// tax regime.
func ComputeTotals(items []domain.LineItem, vatPercent float64, exempt bool) (Totals, error) {
	if !isFinite(vatPercent) || vatPercent < 0 {
		return Totals{}, fmt.Errorf("%w: vat percent must be a non-negative finite number", domain.ErrValidation)
	}
	total, err := InvoiceTotal(items)
	if err != nil {
		return Totals{}, err
	}
	effective := vatPercent
	if exempt {
		effective = 0
	}
	subtotal, vat := TaxBreakdown(total, vatPercent, exempt)
	return Totals{
		Subtotal:   subtotal,
		VatPercent: effective,
		VatAmount:  vat,
		Total:      total,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
