package affiliates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/config"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
)

type fakeStore struct {
	collisions int // Create fails with errCodeTaken this many times
	creates    int
	byUser     map[int64]*Affiliate
	byCode     map[string]*Affiliate
	referrals  []*Referral
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byUser: make(map[int64]*Affiliate),
		byCode: make(map[string]*Affiliate),
	}
}

func (f *fakeStore) Create(_ context.Context, userID int64, code string, pixKey *string) (*Affiliate, error) {
	f.creates++
	if f.creates <= f.collisions {
		return nil, errCodeTaken
	}
	if _, ok := f.byUser[userID]; ok {
		return nil, common.ErrAlreadyAffiliate
	}
	a := &Affiliate{ID: int64(len(f.byUser) + 1), UserID: userID, ReferralCode: code, Status: StatusActive, PixKey: pixKey}
	f.byUser[userID] = a
	f.byCode[code] = a
	return a, nil
}

func (f *fakeStore) GetByUserID(_ context.Context, userID int64) (*Affiliate, error) {
	if a, ok := f.byUser[userID]; ok {
		return a, nil
	}
	return nil, common.ErrAffiliateNotFound
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (*Affiliate, error) {
	if a, ok := f.byCode[code]; ok {
		return a, nil
	}
	return nil, common.ErrAffiliateNotFound
}

func (f *fakeStore) CreateReferral(_ context.Context, affiliateID, referredUserID int64, planID *int64) (*Referral, error) {
	for _, r := range f.referrals {
		if r.ReferredUserID == referredUserID {
			return nil, common.ErrAlreadyReferred
		}
	}
	ref := &Referral{ID: int64(len(f.referrals) + 1), AffiliateID: affiliateID, ReferredUserID: referredUserID, PlanID: planID, Status: ReferralPending}
	f.referrals = append(f.referrals, ref)
	return ref, nil
}

func (f *fakeStore) ListReferrals(_ context.Context, affiliateID int64) ([]*Referral, error) {
	var out []*Referral
	for _, r := range f.referrals {
		if r.AffiliateID == affiliateID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Stats(_ context.Context, affiliateID int64) (*Stats, error) {
	return &Stats{TotalReferred: int64(len(f.referrals))}, nil
}

type fakeLedgerStore struct{}

func (fakeLedgerStore) ListByAffiliate(_ context.Context, _ int64, limit int) ([]*ledger.Transaction, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{ReferralCodeLength: 8, ReferralCodeMaxAttempts: 3}
}

func TestRegister(t *testing.T) {
	t.Run("assigns a referral code", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store, fakeLedgerStore{}, testConfig())

		a, err := svc.Register(context.Background(), 1, "chave@pix.com.br")
		require.NoError(t, err)
		assert.Len(t, a.ReferralCode, 8)
		require.NotNil(t, a.PixKey)
		assert.Equal(t, "chave@pix.com.br", *a.PixKey)
	})

	t.Run("retries on code collision", func(t *testing.T) {
		store := newFakeStore()
		store.collisions = 2
		svc := NewService(store, fakeLedgerStore{}, testConfig())

		a, err := svc.Register(context.Background(), 1, "")
		require.NoError(t, err)
		assert.Equal(t, 3, store.creates)
		assert.Nil(t, a.PixKey)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		store := newFakeStore()
		store.collisions = 99
		svc := NewService(store, fakeLedgerStore{}, testConfig())

		_, err := svc.Register(context.Background(), 1, "")
		assert.ErrorIs(t, err, common.ErrCodeGenerationExhausted)
		assert.Equal(t, 3, store.creates)
	})

	t.Run("rejects double enrollment", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store, fakeLedgerStore{}, testConfig())

		_, err := svc.Register(context.Background(), 1, "")
		require.NoError(t, err)
		_, err = svc.Register(context.Background(), 1, "")
		assert.ErrorIs(t, err, common.ErrAlreadyAffiliate)
	})
}

func TestResolveMapsAbsenceToUnauthorized(t *testing.T) {
	svc := NewService(newFakeStore(), fakeLedgerStore{}, testConfig())

	_, err := svc.Resolve(context.Background(), 42)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestTrackSignup(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, fakeLedgerStore{}, testConfig())

	a, err := svc.Register(context.Background(), 1, "")
	require.NoError(t, err)

	planID := int64(2)
	ref, err := svc.TrackSignup(context.Background(), a.ReferralCode, 100, &planID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, ref.AffiliateID)
	assert.Equal(t, ReferralPending, ref.Status)

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.TrackSignup(context.Background(), "NOPE1234", 101, nil)
		assert.ErrorIs(t, err, common.ErrAffiliateNotFound)
	})

	t.Run("user already referred", func(t *testing.T) {
		_, err := svc.TrackSignup(context.Background(), a.ReferralCode, 100, nil)
		assert.ErrorIs(t, err, common.ErrAlreadyReferred)
	})
}
