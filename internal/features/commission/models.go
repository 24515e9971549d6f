package commission

// EligibleReferral is one row of the batch working set: an active referral
// whose referred user has an active subscription and whose affiliate is
// still active.
type EligibleReferral struct {
	ReferralID     int64
	AffiliateID    int64
	ReferredUserID int64
	ReferredEmail  string
	PlanID         int64
	PlanName       string
	PlanPrice      int64
}

// BatchFailure records one referred user the batch could not process.
// The batch keeps going; failures only show up in the report.
type BatchFailure struct {
	ReferredUserID int64  `json:"referred_user_id"`
	Reason         string `json:"reason"`
}

// BatchReport summarizes one commission batch run.
// Examined = Processed + Skipped + Failed.
type BatchReport struct {
	RunID                 string         `json:"run_id"`
	Examined              int            `json:"examined"`
	Processed             int            `json:"processed"`
	Skipped               int            `json:"skipped"`
	Failed                int            `json:"failed"`
	TotalCreditedCentavos int64          `json:"total_credited_centavos"`
	Failures              []BatchFailure `json:"failures,omitempty"`
}
