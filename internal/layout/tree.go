// Package layout builds the encoding-independent description of the invoice
// document. The tree is the deterministic input handed to a downstream
// renderer (PDF, HTML); it fixes region order, text content and styling
// hints, but knows nothing about fonts, pages or output bytes.
package layout

// Document is the full layout tree for one invoice, regions in render order.
type Document struct {
	Header  HeaderRegion  `json:"header"`
	Parties PartiesRegion `json:"parties"`
	Items   ItemsRegion   `json:"items"`
	Totals  TotalsRegion  `json:"totals"`
	Payment PaymentRegion `json:"payment"`
}

// Line is a single line of text with styling hints for the renderer.
type Line struct {
	Text  string `json:"text"`
	Bold  bool   `json:"bold,omitempty"`
	Muted bool   `json:"muted,omitempty"`
}

// HeaderRegion holds the sender identity block (left) and the document title
// with the invoice number (right).
type HeaderRegion struct {
	Sender []Line `json:"sender"`
	Title  string `json:"title"`
	Number string `json:"number"`
}

// PartiesRegion pairs the bill-to block with the invoice detail rows.
type PartiesRegion struct {
	BillTo  BillToBlock `json:"bill_to"`
	Details []DetailRow `json:"details"`
}

// BillToBlock identifies the invoiced client. Address lines are split on
// embedded newlines by the builder.
type BillToBlock struct {
	Label        string   `json:"label"`
	Name         string   `json:"name"`
	AddressLines []string `json:"address_lines"`
}

// DetailRow is one label/value pair in the details block. Highlight marks
// the balance-due row.
type DetailRow struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Highlight bool   `json:"highlight,omitempty"`
}

// ItemsRegion is the line-item table. Description cells hold unbounded free
// text and must wrap, never truncate.
type ItemsRegion struct {
	Columns []string  `json:"columns"`
	Rows    []ItemRow `json:"rows"`
}

// ItemRow is one rendered line item. Rate and Amount are preformatted money
// strings.
type ItemRow struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

// TotalsRegion holds the subtotal/VAT/total rows and, for exempt invoices,
// the exemption-reason annotation.
type TotalsRegion struct {
	Rows          []DetailRow `json:"rows"`
	ExemptionNote string      `json:"exemption_note,omitempty"`
}

// PaymentRegion is the wire-transfer instruction block.
type PaymentRegion struct {
	Heading    string   `json:"heading"`
	Intro      string   `json:"intro"`
	Lines      []string `json:"lines"`
	Disclaimer string   `json:"disclaimer"`
}
