package commission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/features/affiliates"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
	"docsafe.com.br/affiliate-service/internal/features/plans"
)

type fakeReferralSource struct {
	list []*EligibleReferral
	err  error
}

func (f *fakeReferralSource) EligibleReferrals(_ context.Context) ([]*EligibleReferral, error) {
	return f.list, f.err
}

// fakeLedger mimics the store's money rule: a credit writes the transaction
// and moves balance and total_earned by the same amount, together.
type fakeLedger struct {
	recorded    map[int64]bool  // referred user id → commission exists this month
	hasErr      map[int64]error // referred user id → error on the idempotency check
	creditErr   map[int64]error // referred user id → error on credit
	credits     []ledger.CreditEntry
	balances    map[int64]int64 // affiliate id → balance
	totalEarned map[int64]int64 // affiliate id → total_earned
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		recorded:    make(map[int64]bool),
		hasErr:      make(map[int64]error),
		creditErr:   make(map[int64]error),
		balances:    make(map[int64]int64),
		totalEarned: make(map[int64]int64),
	}
}

func (f *fakeLedger) HasCommissionInMonth(_ context.Context, referredUserID int64, _, _ time.Time) (bool, error) {
	if err := f.hasErr[referredUserID]; err != nil {
		return false, err
	}
	return f.recorded[referredUserID], nil
}

func (f *fakeLedger) Credit(_ context.Context, e ledger.CreditEntry) (*ledger.Transaction, error) {
	if err := f.creditErr[e.ReferredUserID]; err != nil {
		return nil, err
	}
	f.credits = append(f.credits, e)
	f.recorded[e.ReferredUserID] = true
	f.balances[e.AffiliateID] += e.Amount
	f.totalEarned[e.AffiliateID] += e.Amount
	return &ledger.Transaction{
		ID:          int64(len(f.credits)),
		AffiliateID: e.AffiliateID,
		Amount:      e.Amount,
		Type:        ledger.TypeCommission,
		Status:      ledger.StatusCompleted,
	}, nil
}

type fakeAffiliateStore struct {
	affs map[int64]*affiliates.Affiliate
	refs map[int64]*affiliates.Referral
}

func (f *fakeAffiliateStore) GetByID(_ context.Context, id int64) (*affiliates.Affiliate, error) {
	if a, ok := f.affs[id]; ok {
		return a, nil
	}
	return nil, common.ErrAffiliateNotFound
}

func (f *fakeAffiliateStore) GetReferral(_ context.Context, id int64) (*affiliates.Referral, error) {
	if r, ok := f.refs[id]; ok {
		return r, nil
	}
	return nil, common.ErrReferralNotFound
}

type fakePlanStore struct {
	plans map[int64]*plans.Plan
}

func (f *fakePlanStore) GetByID(_ context.Context, id int64) (*plans.Plan, error) {
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, common.ErrPlanNotFound
}

func newTestService(src *fakeReferralSource, led *fakeLedger, affs *fakeAffiliateStore, pl *fakePlanStore) *Service {
	s := NewService(src, led, affs, pl, time.UTC)
	s.now = func() time.Time { return time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func eligible(referralID, affiliateID, userID int64, planName string, price int64) *EligibleReferral {
	return &EligibleReferral{
		ReferralID:     referralID,
		AffiliateID:    affiliateID,
		ReferredUserID: userID,
		ReferredEmail:  "cliente@exemplo.com.br",
		PlanName:       planName,
		PlanPrice:      price,
	}
}

func TestRunBatchRecordsCommissions(t *testing.T) {
	src := &fakeReferralSource{list: []*EligibleReferral{
		eligible(1, 10, 100, "Plano Profissional", 20000),
		eligible(2, 11, 101, "Plano Empresarial", 49900),
	}}
	led := newFakeLedger()
	svc := newTestService(src, led, &fakeAffiliateStore{}, &fakePlanStore{})

	report, err := svc.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, int64(5000+14970), report.TotalCreditedCentavos)
	assert.NotEmpty(t, report.RunID)

	require.Len(t, led.credits, 2)
	assert.Equal(t, int64(10), led.credits[0].AffiliateID)
	assert.Equal(t, int64(5000), led.credits[0].Amount)
	assert.Contains(t, led.credits[0].Description, "Plano Profissional")

	// Each credit moved balance and total_earned by the commission amount.
	assert.Equal(t, int64(5000), led.balances[10])
	assert.Equal(t, int64(5000), led.totalEarned[10])
	assert.Equal(t, int64(14970), led.balances[11])
	assert.Equal(t, int64(14970), led.totalEarned[11])
}

func TestRunBatchIsIdempotentWithinMonth(t *testing.T) {
	src := &fakeReferralSource{list: []*EligibleReferral{
		eligible(1, 10, 100, "Plano Profissional", 20000),
	}}
	led := newFakeLedger()
	svc := newTestService(src, led, &fakeAffiliateStore{}, &fakePlanStore{})

	first, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	second, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 1, second.Skipped)

	// Exactly one commission transaction and one balance increase.
	assert.Len(t, led.credits, 1)
	assert.Equal(t, int64(5000), led.balances[10])
	assert.Equal(t, int64(5000), led.totalEarned[10])
}

func TestRunBatchContinuesAfterPerUserFailure(t *testing.T) {
	src := &fakeReferralSource{list: []*EligibleReferral{
		eligible(1, 10, 100, "Plano Básico", 9900),
		eligible(2, 11, 101, "Plano Básico", 9900),
		eligible(3, 12, 102, "Plano Básico", 9900),
	}}
	led := newFakeLedger()
	led.creditErr[101] = errors.New("connection reset")
	svc := newTestService(src, led, &fakeAffiliateStore{}, &fakePlanStore{})

	report, err := svc.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Examined)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, int64(101), report.Failures[0].ReferredUserID)
	assert.Contains(t, report.Failures[0].Reason, "connection reset")
}

func TestRunBatchTreatsConcurrentDuplicateAsSkip(t *testing.T) {
	src := &fakeReferralSource{list: []*EligibleReferral{
		eligible(1, 10, 100, "Plano Básico", 9900),
		eligible(2, 11, 101, "Plano Básico", 9900),
	}}
	led := newFakeLedger()
	// Another recorder won the month between the check and the insert; the
	// store reports the unique-index hit as an already-recorded commission.
	led.creditErr[100] = common.ErrCommissionAlreadyRecorded
	svc := newTestService(src, led, &fakeAffiliateStore{}, &fakePlanStore{})

	report, err := svc.RunBatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Failures)
	assert.Equal(t, int64(0), led.balances[10])
}

func TestRunBatchSkipsZeroPricePlans(t *testing.T) {
	src := &fakeReferralSource{list: []*EligibleReferral{
		eligible(1, 10, 100, "Plano Gratuito", 0),
	}}
	led := newFakeLedger()
	svc := newTestService(src, led, &fakeAffiliateStore{}, &fakePlanStore{})

	report, err := svc.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, led.credits)
}

func TestRecordOne(t *testing.T) {
	affs := &fakeAffiliateStore{
		affs: map[int64]*affiliates.Affiliate{10: {ID: 10, UserID: 1}},
		refs: map[int64]*affiliates.Referral{5: {ID: 5, AffiliateID: 10, ReferredUserID: 100}},
	}
	pl := &fakePlanStore{plans: map[int64]*plans.Plan{
		2: {ID: 2, Name: "Plano Profissional", PriceCentavos: 20000},
	}}

	t.Run("records commission and credits balance", func(t *testing.T) {
		led := newFakeLedger()
		svc := newTestService(&fakeReferralSource{}, led, affs, pl)

		tx, err := svc.RecordOne(context.Background(), 5, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), tx.Amount)
		assert.Equal(t, ledger.TypeCommission, tx.Type)
		require.Len(t, led.credits, 1)
		assert.Equal(t, int64(10), led.credits[0].AffiliateID)
		assert.Equal(t, int64(100), led.credits[0].ReferredUserID)
		assert.Equal(t, int64(5000), led.balances[10])
		assert.Equal(t, int64(5000), led.totalEarned[10])
	})

	t.Run("already recorded this month is terminal", func(t *testing.T) {
		led := newFakeLedger()
		led.recorded[100] = true
		svc := newTestService(&fakeReferralSource{}, led, affs, pl)

		_, err := svc.RecordOne(context.Background(), 5, 2)
		assert.ErrorIs(t, err, common.ErrCommissionAlreadyRecorded)
		assert.Empty(t, led.credits)
	})

	t.Run("missing referral", func(t *testing.T) {
		svc := newTestService(&fakeReferralSource{}, newFakeLedger(), affs, pl)
		_, err := svc.RecordOne(context.Background(), 99, 2)
		assert.ErrorIs(t, err, common.ErrReferralNotFound)
	})

	t.Run("missing referrer", func(t *testing.T) {
		orphan := &fakeAffiliateStore{
			affs: map[int64]*affiliates.Affiliate{},
			refs: map[int64]*affiliates.Referral{5: {ID: 5, AffiliateID: 77, ReferredUserID: 100}},
		}
		svc := newTestService(&fakeReferralSource{}, newFakeLedger(), orphan, pl)
		_, err := svc.RecordOne(context.Background(), 5, 2)
		assert.ErrorIs(t, err, common.ErrAffiliateNotFound)
	})

	t.Run("missing plan", func(t *testing.T) {
		svc := newTestService(&fakeReferralSource{}, newFakeLedger(), affs, pl)
		_, err := svc.RecordOne(context.Background(), 5, 42)
		assert.ErrorIs(t, err, common.ErrPlanNotFound)
	})

	t.Run("zero-price plan", func(t *testing.T) {
		free := &fakePlanStore{plans: map[int64]*plans.Plan{
			3: {ID: 3, Name: "Plano Gratuito", PriceCentavos: 0},
		}}
		svc := newTestService(&fakeReferralSource{}, newFakeLedger(), affs, free)
		_, err := svc.RecordOne(context.Background(), 5, 3)
		assert.ErrorIs(t, err, common.ErrPlanWithoutCommission)
	})
}

func TestMonthWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	svc := NewService(&fakeReferralSource{}, newFakeLedger(), &fakeAffiliateStore{}, &fakePlanStore{}, loc)

	// 2026-08-31 23:30 local is still August in São Paulo even though it is
	// already September in UTC.
	now := time.Date(2026, time.August, 31, 23, 30, 0, 0, loc)
	from, to := svc.monthWindow(now)

	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, loc), to)
	assert.True(t, now.After(from) && now.Before(to))
}
