// Package commission computes and records affiliate commissions: a pure
// tier calculator plus the recorder that runs monthly in batch or on demand
// for a single referral.
package commission

import (
	"math"
	"strings"
)

// Commission rate tiers. The tier is derived from the plan name at
// computation time, never stored.
const (
	RateEnterprise   = 0.30
	RateProfessional = 0.25
	RateDefault      = 0.20
)

// Rate selects the commission rate for a plan name. Matching is a
// case-insensitive substring check; "empresarial" is tested before
// "profissional" so a name matching both gets the higher tier.
func Rate(planName string) float64 {
	name := strings.ToLower(planName)
	switch {
	case strings.Contains(name, "empresarial"):
		return RateEnterprise
	case strings.Contains(name, "profissional"):
		return RateProfessional
	default:
		return RateDefault
	}
}

// Amount returns the commission in centavos for a plan price and name,
// rounded to the nearest centavo. A zero or negative price yields zero;
// callers treat that as "no commission", not an error.
func Amount(priceCentavos int64, planName string) int64 {
	if priceCentavos <= 0 {
		return 0
	}
	return int64(math.Round(float64(priceCentavos) * Rate(planName)))
}
