package commission

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository holds the batch working-set query. All ledger writes go through
// the ledger repository; this one only reads.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a commission repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EligibleReferrals returns every referral the monthly batch should consider:
// referral active, referred user's subscription active, affiliate active.
// The plan is the user's current one, not the one chosen at signup.
func (r *Repository) EligibleReferrals(ctx context.Context) ([]*EligibleReferral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.affiliate_id, r.referred_user_id, u.email,
		       p.id, p.name, p.price_centavos
		FROM referrals r
		JOIN users u      ON u.id = r.referred_user_id
		JOIN plans p      ON p.id = u.plan_id
		JOIN affiliates a ON a.id = r.affiliate_id
		WHERE r.status = 'active'
		  AND u.subscription_status = 'active'
		  AND a.status = 'active'
		ORDER BY r.id
	`)
	if err != nil {
		return nil, fmt.Errorf("selecting eligible referrals: %w", err)
	}
	defer rows.Close()

	var out []*EligibleReferral
	for rows.Next() {
		var e EligibleReferral
		if err := rows.Scan(
			&e.ReferralID, &e.AffiliateID, &e.ReferredUserID, &e.ReferredEmail,
			&e.PlanID, &e.PlanName, &e.PlanPrice,
		); err != nil {
			return nil, fmt.Errorf("scanning eligible referral: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
