// Package withdrawals implements the withdrawal requester: it validates the
// request, reserves the amount against the affiliate's balance through the
// ledger's atomic primitive, and lets the back office complete payouts.
package withdrawals

// Request is a withdrawal request as received from the SPA. The invoice
// fields reference an artifact already uploaded to external storage; this
// service treats them as opaque strings.
// Amount carries no binding tag: zero and negative values must reach the
// service's own validation, which answers with the invalid-amount message.
type Request struct {
	Amount          int64  `json:"amount"`
	InvoiceURL      string `json:"invoice_url"`
	InvoiceFilename string `json:"invoice_filename"`
}
