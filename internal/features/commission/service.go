package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/features/affiliates"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
	"docsafe.com.br/affiliate-service/internal/features/plans"
	"docsafe.com.br/affiliate-service/internal/monitoring"
)

type referralSource interface {
	EligibleReferrals(ctx context.Context) ([]*EligibleReferral, error)
}

type ledgerStore interface {
	HasCommissionInMonth(ctx context.Context, referredUserID int64, from, to time.Time) (bool, error)
	Credit(ctx context.Context, e ledger.CreditEntry) (*ledger.Transaction, error)
}

type affiliateStore interface {
	GetByID(ctx context.Context, id int64) (*affiliates.Affiliate, error)
	GetReferral(ctx context.Context, id int64) (*affiliates.Referral, error)
}

type planStore interface {
	GetByID(ctx context.Context, id int64) (*plans.Plan, error)
}

// Service is the commission recorder. Both entry points enforce the same
// idempotency rule: at most one commission transaction per referred user per
// calendar month, with month boundaries evaluated in the service timezone.
type Service struct {
	repo       referralSource
	ledger     ledgerStore
	affiliates affiliateStore
	plans      planStore
	loc        *time.Location
	now        func() time.Time
}

// NewService creates the commission recorder.
func NewService(repo referralSource, ledgerRepo ledgerStore, affStore affiliateStore, planRepo planStore, loc *time.Location) *Service {
	return &Service{
		repo:       repo,
		ledger:     ledgerRepo,
		affiliates: affStore,
		plans:      planRepo,
		loc:        loc,
		now:        time.Now,
	}
}

// monthWindow returns the [start, end) bounds of the calendar month
// containing t, in the service timezone.
func (s *Service) monthWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(s.loc)
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.loc)
	return from, from.AddDate(0, 1, 0)
}

// RunBatch records this month's commission for every eligible referral.
// Referred users already credited this month are skipped silently; per-user
// failures are collected into the report and never abort the run.
func (s *Service) RunBatch(ctx context.Context) (*BatchReport, error) {
	report := &BatchReport{RunID: uuid.NewString()}
	runLog := log.WithField("run_id", report.RunID)

	eligible, err := s.repo.EligibleReferrals(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading batch working set: %w", err)
	}
	report.Examined = len(eligible)
	from, to := s.monthWindow(s.now())

	for _, e := range eligible {
		amount := Amount(e.PlanPrice, e.PlanName)
		if amount == 0 {
			// Zero-priced plan: no rate exists, commission is a no-op.
			report.Skipped++
			continue
		}

		exists, err := s.ledger.HasCommissionInMonth(ctx, e.ReferredUserID, from, to)
		if err != nil {
			s.recordFailure(report, runLog, e.ReferredUserID, err)
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		entry := ledger.CreditEntry{
			AffiliateID:    e.AffiliateID,
			ReferredUserID: e.ReferredUserID,
			Amount:         amount,
			Description: fmt.Sprintf("Comissão de %s sobre o plano %s (%s)",
				common.FormatBRL(amount), e.PlanName, e.ReferredEmail),
		}
		if _, err := s.ledger.Credit(ctx, entry); err != nil {
			// A concurrent recorder may win the month between the check and
			// the insert; the unique month index reports that as a duplicate.
			if errors.Is(err, common.ErrCommissionAlreadyRecorded) {
				report.Skipped++
				continue
			}
			s.recordFailure(report, runLog, e.ReferredUserID, err)
			continue
		}

		report.Processed++
		report.TotalCreditedCentavos += amount
		monitoring.CommissionsRecordedTotal.Inc()
		monitoring.CommissionCentavosTotal.Add(float64(amount))
	}

	runLog.WithFields(log.Fields{
		"examined":  report.Examined,
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"credited":  common.FormatBRL(report.TotalCreditedCentavos),
	}).Info("commission batch finished")
	return report, nil
}

// RecordOne records the commission for a single referral and plan. Unlike the
// batch, every failed step (missing referral, missing affiliate, missing
// plan, zero price, already recorded this month) is a terminal error.
func (s *Service) RecordOne(ctx context.Context, referralID, planID int64) (*ledger.Transaction, error) {
	ref, err := s.affiliates.GetReferral(ctx, referralID)
	if err != nil {
		return nil, err
	}
	if _, err := s.affiliates.GetByID(ctx, ref.AffiliateID); err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	amount := Amount(plan.PriceCentavos, plan.Name)
	if amount == 0 {
		return nil, common.ErrPlanWithoutCommission
	}

	from, to := s.monthWindow(s.now())
	exists, err := s.ledger.HasCommissionInMonth(ctx, ref.ReferredUserID, from, to)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrCommissionAlreadyRecorded
	}

	tx, err := s.ledger.Credit(ctx, ledger.CreditEntry{
		AffiliateID:    ref.AffiliateID,
		ReferredUserID: ref.ReferredUserID,
		Amount:         amount,
		Description: fmt.Sprintf("Comissão de %s sobre o plano %s",
			common.FormatBRL(amount), plan.Name),
	})
	if err != nil {
		return nil, err
	}

	monitoring.CommissionsRecordedTotal.Inc()
	monitoring.CommissionCentavosTotal.Add(float64(amount))
	log.WithFields(log.Fields{
		"referral_id":    referralID,
		"affiliate_id":   ref.AffiliateID,
		"transaction_id": tx.ID,
		"amount":         amount,
	}).Info("commission recorded")
	return tx, nil
}

func (s *Service) recordFailure(report *BatchReport, runLog *log.Entry, referredUserID int64, err error) {
	report.Failed++
	report.Failures = append(report.Failures, BatchFailure{
		ReferredUserID: referredUserID,
		Reason:         err.Error(),
	})
	monitoring.CommissionBatchFailures.Inc()
	level := runLog.WithField("referred_user_id", referredUserID).WithError(err)
	if errors.Is(err, common.ErrInconsistency) {
		level.Error("commission credit left the ledger inconsistent")
		return
	}
	level.Warn("commission skipped due to failure")
}
