package affiliates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"docsafe.com.br/affiliate-service/internal/common"
)

// errCodeTaken signals a referral-code unique violation so the service can
// retry with a fresh code. Never leaves the package.
var errCodeTaken = errors.New("referral code already taken")

// Repository reads and writes affiliates and referrals. Balance columns are
// off limits here; they belong to the ledger's atomic primitive.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates an affiliate repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const affiliateColumns = `
	id, user_id, referral_code, status, balance, total_earned, total_paid,
	pix_key, created_at, updated_at
`

func scanAffiliate(row pgx.Row) (*Affiliate, error) {
	var a Affiliate
	err := row.Scan(
		&a.ID, &a.UserID, &a.ReferralCode, &a.Status,
		&a.Balance, &a.TotalEarned, &a.TotalPaid,
		&a.PixKey, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new affiliate with a zero balance. A user_id conflict means
// the user is already enrolled; a referral_code conflict is reported as
// errCodeTaken for the bounded retry in the service.
func (r *Repository) Create(ctx context.Context, userID int64, code string, pixKey *string) (*Affiliate, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO affiliates (user_id, referral_code, status, pix_key)
		VALUES ($1, $2, $3, $4)
		RETURNING `+affiliateColumns,
		userID, code, StatusActive, pixKey)

	a, err := scanAffiliate(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "affiliates_user_id_key":
				return nil, common.ErrAlreadyAffiliate
			case "affiliates_referral_code_key":
				return nil, errCodeTaken
			}
		}
		return nil, fmt.Errorf("creating affiliate for user %d: %w", userID, err)
	}
	return a, nil
}

// GetByUserID resolves the calling user to their affiliate record.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Affiliate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+affiliateColumns+` FROM affiliates WHERE user_id = $1`, userID)
	a, err := scanAffiliate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching affiliate for user %d: %w", userID, err)
	}
	return a, nil
}

// GetByID returns one affiliate by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Affiliate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+affiliateColumns+` FROM affiliates WHERE id = $1`, id)
	a, err := scanAffiliate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching affiliate %d: %w", id, err)
	}
	return a, nil
}

// GetByCode resolves a referral code to its active affiliate.
func (r *Repository) GetByCode(ctx context.Context, code string) (*Affiliate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+affiliateColumns+` FROM affiliates WHERE referral_code = $1 AND status = $2`,
		code, StatusActive)
	a, err := scanAffiliate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching affiliate by code: %w", err)
	}
	return a, nil
}

// CreateReferral links a referred signup to the affiliate. A referred_user_id
// conflict means the user was already referred by someone.
func (r *Repository) CreateReferral(ctx context.Context, affiliateID, referredUserID int64, planID *int64) (*Referral, error) {
	var ref Referral
	err := r.db.QueryRow(ctx, `
		INSERT INTO referrals (affiliate_id, referred_user_id, plan_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, affiliate_id, referred_user_id, plan_id, status, created_at
	`, affiliateID, referredUserID, planID, ReferralPending).Scan(
		&ref.ID, &ref.AffiliateID, &ref.ReferredUserID, &ref.PlanID, &ref.Status, &ref.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrAlreadyReferred
		}
		return nil, fmt.Errorf("creating referral: %w", err)
	}
	return &ref, nil
}

// GetReferral returns one referral with the referred user's e-mail.
func (r *Repository) GetReferral(ctx context.Context, id int64) (*Referral, error) {
	var ref Referral
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.affiliate_id, r.referred_user_id, u.email, r.plan_id, r.status, r.created_at
		FROM referrals r
		JOIN users u ON u.id = r.referred_user_id
		WHERE r.id = $1
	`, id).Scan(
		&ref.ID, &ref.AffiliateID, &ref.ReferredUserID, &ref.ReferredEmail,
		&ref.PlanID, &ref.Status, &ref.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrReferralNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching referral %d: %w", id, err)
	}
	return &ref, nil
}

// ListReferrals returns the affiliate's referrals, newest first.
func (r *Repository) ListReferrals(ctx context.Context, affiliateID int64) ([]*Referral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.affiliate_id, r.referred_user_id, u.email, r.plan_id, r.status, r.created_at
		FROM referrals r
		JOIN users u ON u.id = r.referred_user_id
		WHERE r.affiliate_id = $1
		ORDER BY r.created_at DESC
	`, affiliateID)
	if err != nil {
		return nil, fmt.Errorf("listing referrals: %w", err)
	}
	defer rows.Close()

	var out []*Referral
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(
			&ref.ID, &ref.AffiliateID, &ref.ReferredUserID, &ref.ReferredEmail,
			&ref.PlanID, &ref.Status, &ref.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning referral: %w", err)
		}
		out = append(out, &ref)
	}
	return out, rows.Err()
}

// Stats aggregates the dashboard summary in one round trip.
func (r *Repository) Stats(ctx context.Context, affiliateID int64) (*Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM referrals WHERE affiliate_id = a.id),
			(SELECT COUNT(*) FROM referrals WHERE affiliate_id = a.id AND status = $2),
			a.balance, a.total_earned, a.total_paid
		FROM affiliates a
		WHERE a.id = $1
	`, affiliateID, ReferralActive).Scan(
		&s.TotalReferred, &s.ActiveReferred, &s.Balance, &s.TotalEarned, &s.TotalPaid,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("aggregating stats for affiliate %d: %w", affiliateID, err)
	}
	return &s, nil
}
