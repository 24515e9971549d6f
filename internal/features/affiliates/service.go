package affiliates

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/config"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
)

// store is the slice of Repository the service needs. Narrowed to an
// interface so tests can drive the bounded-retry path without a database.
type store interface {
	Create(ctx context.Context, userID int64, code string, pixKey *string) (*Affiliate, error)
	GetByUserID(ctx context.Context, userID int64) (*Affiliate, error)
	GetByCode(ctx context.Context, code string) (*Affiliate, error)
	CreateReferral(ctx context.Context, affiliateID, referredUserID int64, planID *int64) (*Referral, error)
	ListReferrals(ctx context.Context, affiliateID int64) ([]*Referral, error)
	Stats(ctx context.Context, affiliateID int64) (*Stats, error)
}

type ledgerStore interface {
	ListByAffiliate(ctx context.Context, affiliateID int64, limit int) ([]*ledger.Transaction, error)
}

// Service implements affiliate enrollment and the dashboard reads.
type Service struct {
	repo   store
	ledger ledgerStore
	cfg    *config.Config
}

// NewService creates the affiliate service.
func NewService(repo store, ledgerRepo ledgerStore, cfg *config.Config) *Service {
	return &Service{repo: repo, ledger: ledgerRepo, cfg: cfg}
}

// Register enrolls a user into the program, generating a unique referral
// code. Code collisions are retried up to the configured attempt count and
// then reported as ErrCodeGenerationExhausted, never retried unboundedly.
func (s *Service) Register(ctx context.Context, userID int64, pixKey string) (*Affiliate, error) {
	var pix *string
	if pixKey != "" {
		pix = &pixKey
	}

	for attempt := 1; attempt <= s.cfg.ReferralCodeMaxAttempts; attempt++ {
		code, err := NewReferralCode(s.cfg.ReferralCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generating referral code: %w", err)
		}

		a, err := s.repo.Create(ctx, userID, code, pix)
		if errors.Is(err, errCodeTaken) {
			log.WithFields(log.Fields{"user_id": userID, "attempt": attempt}).
				Warn("referral code collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{"user_id": userID, "affiliate_id": a.ID}).
			Info("affiliate registered")
		return a, nil
	}

	return nil, common.ErrCodeGenerationExhausted
}

// Resolve maps the calling user to their affiliate record, translating
// absence into the Unauthorized taxonomy: a user who is not enrolled has no
// business on any affiliate endpoint.
func (s *Service) Resolve(ctx context.Context, userID int64) (*Affiliate, error) {
	a, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, common.ErrAffiliateNotFound) {
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// TrackSignup links a signup made under a referral code to its affiliate.
// Called by the main backend when a new user registers with a code.
func (s *Service) TrackSignup(ctx context.Context, code string, referredUserID int64, planID *int64) (*Referral, error) {
	a, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	ref, err := s.repo.CreateReferral(ctx, a.ID, referredUserID, planID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"affiliate_id":     a.ID,
		"referred_user_id": referredUserID,
		"referral_id":      ref.ID,
	}).Info("referral tracked")
	return ref, nil
}

// Stats returns the dashboard summary for the calling user.
func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	a, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.Stats(ctx, a.ID)
}

// Referrals returns the calling user's referral list.
func (s *Service) Referrals(ctx context.Context, userID int64) ([]*Referral, error) {
	a, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListReferrals(ctx, a.ID)
}

// Transactions returns the calling user's recent ledger history.
func (s *Service) Transactions(ctx context.Context, userID int64, limit int) ([]*ledger.Transaction, error) {
	a, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.ledger.ListByAffiliate(ctx, a.ID, limit)
}
