package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karimfarra/invoice-billing-service/internal/billing"
	"github.com/karimfarra/invoice-billing-service/internal/domain"
)

const (
	documentTitle = "INVOICE"
	currencyLabel = "USD"

	paymentHeading    = "Payment Instructions:"
	paymentIntro      = "Please remit payment via international wire transfer to the following account:"
	paymentDisclaimer = "Please note that all transfer fees should be covered by the sender."
)

// BuildDocument assembles the layout tree for an invoice. It is a pure
// function of its inputs: identical invoice, client and settings always
// yield an identical tree.
func BuildDocument(inv domain.Invoice, client domain.Client, settings domain.Settings) Document {
	return Document{
		Header:  buildHeader(inv, settings),
		Parties: buildParties(inv, client, settings),
		Items:   buildItems(inv),
		Totals:  buildTotals(inv, settings),
		Payment: buildPayment(settings),
	}
}

func buildHeader(inv domain.Invoice, settings domain.Settings) HeaderRegion {
	return HeaderRegion{
		Sender: []Line{
			{Text: settings.Get(domain.SettingSenderName), Bold: true},
			{Text: settings.Get(domain.SettingSenderAddressLine1)},
			{Text: settings.Get(domain.SettingSenderAddressLine2)},
			{Text: settings.Get(domain.SettingSenderAddressLine3)},
			{Text: "Email: " + settings.Get(domain.SettingSenderEmail)},
			{Text: "Phone Number: " + settings.Get(domain.SettingSenderPhone)},
		},
		Title:  documentTitle,
		Number: "#" + inv.InvoiceNumber,
	}
}

func buildParties(inv domain.Invoice, client domain.Client, settings domain.Settings) PartiesRegion {
	return PartiesRegion{
		BillTo: BillToBlock{
			Label:        "Bill To:",
			Name:         client.Name,
			AddressLines: strings.Split(client.Address, "\n"),
		},
		Details: []DetailRow{
			{Label: "Invoice Date:", Value: inv.DateIssued.String()},
			{Label: "Due Date:", Value: inv.DueDate.String()},
			{Label: "Tax Identification Number:", Value: settings.Get(domain.SettingTaxID)},
			{Label: "Balance Due:", Value: formatMoney(inv.TotalAmount), Highlight: true},
		},
	}
}

func buildItems(inv domain.Invoice) ItemsRegion {
	region := ItemsRegion{
		Columns: []string{"Item", "Quantity", "Rate", "Amount"},
		Rows:    make([]ItemRow, 0, len(inv.Items)),
	}
	for _, item := range inv.Items {
		region.Rows = append(region.Rows, ItemRow{
			Description: item.Description,
			Quantity:    formatQuantity(item.Quantity),
			Rate:        formatMoney(item.Rate),
			Amount:      formatMoney(item.Amount),
		})
	}
	return region
}

func buildTotals(inv domain.Invoice, settings domain.Settings) TotalsRegion {
	vatPercent := settings.VatPercent()
	effective := vatPercent
	if inv.VatExempt {
		effective = 0
	}
	subtotal, vatAmount := billing.TaxBreakdown(inv.TotalAmount, vatPercent, inv.VatExempt)

	region := TotalsRegion{
		Rows: []DetailRow{
			{Label: "Subtotal:", Value: formatMoney(subtotal)},
			{Label: fmt.Sprintf("VAT (%s%%):", formatPercent(effective)), Value: formatMoney(vatAmount)},
			{Label: "Total:", Value: formatMoney(inv.TotalAmount), Highlight: true},
		},
	}
	if inv.VatExempt {
		reason := inv.VatExemptReason
		if reason == "" {
			reason = settings.Get(domain.SettingDefaultVatExemptReason)
		}
		region.ExemptionNote = reason
	}
	return region
}

func buildPayment(settings domain.Settings) PaymentRegion {
	// The account holder falls back to the sender name when unset.
	holder := settings.Get(domain.SettingBankAccountHolder)
	if holder == "" {
		holder = settings.Get(domain.SettingSenderName)
	}
	return PaymentRegion{
		Heading: paymentHeading,
		Intro:   paymentIntro,
		Lines: []string{
			"Account Holder Name: " + holder,
			"IBAN: " + settings.Get(domain.SettingBankIBAN),
			"Currency Code: " + currencyLabel,
			"Swift code: " + settings.Get(domain.SettingBankSwift),
		},
		Disclaimer: paymentDisclaimer,
	}
}

// formatMoney renders a monetary value with the fixed currency prefix and
// exactly two decimal places.
func formatMoney(v float64) string {
	return fmt.Sprintf("US$%.2f", v)
}

// formatQuantity renders a quantity without trailing zeros (2 not 2.0,
// 1.5 stays 1.5).
func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// formatPercent renders a VAT rate without trailing zeros.
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
