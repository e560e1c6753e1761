package billing

import (
	"fmt"
	"strings"
)

// NextInvoiceNumber derives the next sequential number for a client within a
// calendar year, formatted as PREFIX-clientID-SEQ-YEAR (e.g. ACM-7-003-2025).
// The prefix is the first three runes of the client name uppercased; shorter
// names are used whole without padding. The sequence is zero-padded to three
// digits and grows naturally past 999.
//
// The scheme is advisory only. Two concurrent creations for the same client
// can compute the same candidate; the store's unique index on invoice_number
// is the authoritative guard and the resulting conflict is retryable.
func NextInvoiceNumber(clientName string, clientID int64, priorCountForYear, year int) string {
	runes := []rune(clientName)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	prefix := strings.ToUpper(string(runes))
	return fmt.Sprintf("%s-%d-%03d-%d", prefix, clientID, priorCountForYear+1, year)
}
