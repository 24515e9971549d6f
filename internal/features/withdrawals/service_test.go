package withdrawals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/features/affiliates"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
)

type fakeResolver struct {
	byUser map[int64]*affiliates.Affiliate
}

func (f *fakeResolver) GetByUserID(_ context.Context, userID int64) (*affiliates.Affiliate, error) {
	if a, ok := f.byUser[userID]; ok {
		return a, nil
	}
	return nil, common.ErrAffiliateNotFound
}

// fakeLedger mimics the store-side atomicity rule: the balance check and the
// decrement happen together, and a pending transaction only exists when the
// reservation went through.
type fakeLedger struct {
	balances map[int64]int64
	pending  []ledger.Transaction
}

func (f *fakeLedger) Reserve(_ context.Context, e ledger.ReserveEntry) (*ledger.Transaction, error) {
	balance, ok := f.balances[e.AffiliateID]
	if !ok {
		return nil, common.ErrAffiliateNotFound
	}
	if balance < e.Amount {
		return nil, common.ErrInsufficientBalance
	}
	f.balances[e.AffiliateID] = balance - e.Amount
	tx := ledger.Transaction{
		ID:              int64(len(f.pending) + 1),
		AffiliateID:     e.AffiliateID,
		Amount:          e.Amount,
		Type:            ledger.TypeWithdrawal,
		Status:          ledger.StatusPending,
		Description:     e.Description,
		InvoiceURL:      &e.InvoiceURL,
		InvoiceFilename: &e.InvoiceFilename,
		WithdrawalCode:  &e.WithdrawalCode,
	}
	f.pending = append(f.pending, tx)
	return &tx, nil
}

func (f *fakeLedger) CompleteWithdrawal(_ context.Context, txID int64) (*ledger.Transaction, error) {
	for i := range f.pending {
		if f.pending[i].ID == txID {
			if f.pending[i].Status != ledger.StatusPending {
				return nil, common.ErrWithdrawalNotPending
			}
			f.pending[i].Status = ledger.StatusCompleted
			return &f.pending[i], nil
		}
	}
	return nil, common.ErrTransactionNotFound
}

func newTestService(balance int64) (*Service, *fakeLedger) {
	resolver := &fakeResolver{byUser: map[int64]*affiliates.Affiliate{
		1: {ID: 10, UserID: 1, Balance: balance},
	}}
	led := &fakeLedger{balances: map[int64]int64{10: balance}}
	return NewService(resolver, led), led
}

func validRequest(amount int64) Request {
	return Request{
		Amount:          amount,
		InvoiceURL:      "https://storage.docsafe.com.br/invoices/nf-0042.pdf",
		InvoiceFilename: "nf-0042.pdf",
	}
}

func TestRequestSucceeds(t *testing.T) {
	// Balance R$ 300,00, withdrawal R$ 250,00 → resulting balance R$ 50,00.
	svc, led := newTestService(30000)

	tx, err := svc.Request(context.Background(), 1, validRequest(25000))
	require.NoError(t, err)

	assert.Equal(t, int64(25000), tx.Amount)
	assert.Equal(t, ledger.TypeWithdrawal, tx.Type)
	assert.Equal(t, ledger.StatusPending, tx.Status)
	require.NotNil(t, tx.WithdrawalCode)
	assert.NotEmpty(t, *tx.WithdrawalCode)
	require.NotNil(t, tx.InvoiceURL)
	assert.Contains(t, *tx.InvoiceURL, "nf-0042")

	assert.Equal(t, int64(5000), led.balances[10])
	assert.Len(t, led.pending, 1)
}

func TestRequestInsufficientBalance(t *testing.T) {
	// Balance R$ 100,00, withdrawal R$ 250,00 → fails, balance untouched.
	svc, led := newTestService(10000)

	_, err := svc.Request(context.Background(), 1, validRequest(25000))
	assert.ErrorIs(t, err, common.ErrInsufficientBalance)

	assert.Equal(t, int64(10000), led.balances[10])
	assert.Empty(t, led.pending)
}

func TestRequestUnresolvableCaller(t *testing.T) {
	svc, led := newTestService(30000)

	_, err := svc.Request(context.Background(), 999, validRequest(1000))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Empty(t, led.pending)
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero amount", validRequest(0), common.ErrInvalidAmount},
		{"negative amount", validRequest(-500), common.ErrInvalidAmount},
		{"missing invoice", Request{Amount: 1000}, common.ErrMissingInvoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, led := newTestService(30000)
			_, err := svc.Request(context.Background(), 1, tt.req)
			assert.ErrorIs(t, err, tt.want)
			// Validation happens before any mutation.
			assert.Equal(t, int64(30000), led.balances[10])
			assert.Empty(t, led.pending)
		})
	}
}

func TestRepeatedRequestsAreNotDeduplicated(t *testing.T) {
	svc, led := newTestService(30000)

	_, err := svc.Request(context.Background(), 1, validRequest(10000))
	require.NoError(t, err)
	_, err = svc.Request(context.Background(), 1, validRequest(10000))
	require.NoError(t, err)

	// Two identical requests mean two withdrawals and two deductions;
	// preventing double submission is the caller's job.
	assert.Len(t, led.pending, 2)
	assert.Equal(t, int64(10000), led.balances[10])
}

func TestComplete(t *testing.T) {
	svc, led := newTestService(30000)

	tx, err := svc.Request(context.Background(), 1, validRequest(25000))
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, done.Status)

	// Completing again is a conflict, not a double payout.
	_, err = svc.Complete(context.Background(), tx.ID)
	assert.ErrorIs(t, err, common.ErrWithdrawalNotPending)

	// Balance was reserved at request time; completion does not touch it.
	assert.Equal(t, int64(5000), led.balances[10])

	_, err = svc.Complete(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrTransactionNotFound)
}
