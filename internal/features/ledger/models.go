// Package ledger owns the affiliate_transactions table and the atomic
// balance-update primitive that every money mutation in the service goes
// through. Transactions are append-only facts: the only update the package
// ever performs on a row is the pending→completed status transition of a
// withdrawal; corrections are made with new offsetting rows.
package ledger

import "time"

// Transaction types.
const (
	TypeCommission = "commission"
	TypeWithdrawal = "withdrawal"
)

// Transaction statuses.
const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
)

// Transaction is one ledger entry. Amount is always positive, in centavos;
// the type determines the direction of the balance effect.
type Transaction struct {
	ID              int64     `json:"id"`
	AffiliateID     int64     `json:"affiliate_id"`
	ReferredUserID  *int64    `json:"referred_user_id,omitempty"`
	Amount          int64     `json:"amount"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Description     string    `json:"description"`
	InvoiceURL      *string   `json:"invoice_url,omitempty"`
	InvoiceFilename *string   `json:"invoice_filename,omitempty"`
	WithdrawalCode  *string   `json:"withdrawal_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreditEntry describes a commission credit: a completed transaction plus a
// balance and total_earned increase.
type CreditEntry struct {
	AffiliateID    int64
	ReferredUserID int64
	Amount         int64
	Description    string
}

// ReserveEntry describes a withdrawal reservation: a pending transaction plus
// a balance decrease. The invoice fields are opaque references into external
// storage; this service never dereferences them.
type ReserveEntry struct {
	AffiliateID     int64
	Amount          int64
	Description     string
	InvoiceURL      string
	InvoiceFilename string
	WithdrawalCode  string
}
