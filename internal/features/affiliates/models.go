// Package affiliates manages the affiliate records of the referral program:
// registration with a unique referral code, referral tracking, and the
// read-only dashboard queries used by the SPA.
package affiliates

import "time"

// Affiliate statuses. Affiliates are never hard-deleted; deactivation is a
// status change so the ledger history stays attributable.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Referral statuses.
const (
	ReferralPending = "pending"
	ReferralActive  = "active"
)

// Affiliate is a DocSafe user enrolled in the referral program. The balance
// figures are centavos and are only ever mutated through the ledger's atomic
// balance primitive.
type Affiliate struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ReferralCode string    `json:"referral_code"`
	Status       string    `json:"status"`
	Balance      int64     `json:"balance"`
	TotalEarned  int64     `json:"total_earned"`
	TotalPaid    int64     `json:"total_paid"`
	PixKey       *string   `json:"pix_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Referral links an affiliate to a user who signed up under their code.
// Created once at signup; only the status transitions afterwards.
type Referral struct {
	ID             int64     `json:"id"`
	AffiliateID    int64     `json:"affiliate_id"`
	ReferredUserID int64     `json:"referred_user_id"`
	ReferredEmail  string    `json:"referred_email"`
	PlanID         *int64    `json:"plan_id,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats is the dashboard summary for one affiliate.
type Stats struct {
	TotalReferred  int64 `json:"total_referred"`
	ActiveReferred int64 `json:"active_referred"`
	Balance        int64 `json:"balance"`
	TotalEarned    int64 `json:"total_earned"`
	TotalPaid      int64 `json:"total_paid"`
}
