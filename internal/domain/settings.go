package domain

import "strconv"

// DefaultVatPercent applies when the vat_percentage setting is unset or
// unparseable.
const DefaultVatPercent = 11.0

// Settings keys recognized by the application. Unknown keys are rejected on
// update so typos don't silently accumulate in the store.
const (
	SettingSenderName             = "sender_name"
	SettingSenderAddressLine1     = "sender_address_line1"
	SettingSenderAddressLine2     = "sender_address_line2"
	SettingSenderAddressLine3     = "sender_address_line3"
	SettingSenderEmail            = "sender_email"
	SettingSenderPhone            = "sender_phone"
	SettingBankAccountHolder      = "bank_account_holder"
	SettingBankIBAN               = "bank_iban"
	SettingBankSwift              = "bank_swift"
	SettingVatPercentage          = "vat_percentage"
	SettingTaxID                  = "tax_id"
	SettingDefaultVatExemptReason = "default_vat_exempt_reason"
	SettingWebhookURL             = "notification_webhook_url"
)

// KnownSettingKeys lists every key the application reads or writes.
var KnownSettingKeys = []string{
	SettingSenderName,
	SettingSenderAddressLine1,
	SettingSenderAddressLine2,
	SettingSenderAddressLine3,
	SettingSenderEmail,
	SettingSenderPhone,
	SettingBankAccountHolder,
	SettingBankIBAN,
	SettingBankSwift,
	SettingVatPercentage,
	SettingTaxID,
	SettingDefaultVatExemptReason,
	SettingWebhookURL,
}

// Settings is the deployment-wide key/value configuration (sender identity,
// bank details, tax parameters, webhook target). A single instance is passed
// explicitly into every computation; there is no ambient lookup.
type Settings map[string]string

// Get returns the value for key, falling back to the empty string for keys
// that were never set. Absent keys never propagate as nulls into
// computations.
func (s Settings) Get(key string) string {
	if s == nil {
		return ""
	}
	return s[key]
}

// VatPercent parses the configured VAT percentage, falling back to
// DefaultVatPercent when the key is unset or not a non-negative number.
func (s Settings) VatPercent() float64 {
	raw := s.Get(SettingVatPercentage)
	if raw == "" {
		return DefaultVatPercent
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p < 0 {
		return DefaultVatPercent
	}
	return p
}

// IsKnownSettingKey reports whether key is one the application understands.
func IsKnownSettingKey(key string) bool {
	for _, k := range KnownSettingKeys {
		if k == key {
			return true
		}
	}
	return false
}
