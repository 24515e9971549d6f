package withdrawals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/features/affiliates"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
	"docsafe.com.br/affiliate-service/internal/monitoring"
)

type affiliateResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*affiliates.Affiliate, error)
}

type ledgerStore interface {
	Reserve(ctx context.Context, e ledger.ReserveEntry) (*ledger.Transaction, error)
	CompleteWithdrawal(ctx context.Context, txID int64) (*ledger.Transaction, error)
}

// Service validates withdrawal requests and drives the ledger reservation.
type Service struct {
	affiliates affiliateResolver
	ledger     ledgerStore
}

// NewService creates the withdrawal service.
func NewService(affStore affiliateResolver, ledgerRepo ledgerStore) *Service {
	return &Service{affiliates: affStore, ledger: ledgerRepo}
}

// Request reserves a withdrawal. Preconditions are checked in order and the
// first failure wins, before anything is written: the caller must resolve to
// an affiliate, the amount must be positive, the invoice reference must be
// present, and the balance must cover the amount (the balance check runs
// inside the store's atomic primitive, not here).
//
// Repeated identical requests are not de-duplicated: each one creates its
// own pending withdrawal and reservation.
func (s *Service) Request(ctx context.Context, userID int64, req Request) (*ledger.Transaction, error) {
	a, err := s.affiliates.GetByUserID(ctx, userID)
	if errors.Is(err, common.ErrAffiliateNotFound) {
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if req.Amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if req.InvoiceURL == "" {
		return nil, common.ErrMissingInvoice
	}

	code := uuid.NewString()
	tx, err := s.ledger.Reserve(ctx, ledger.ReserveEntry{
		AffiliateID:     a.ID,
		Amount:          req.Amount,
		Description:     fmt.Sprintf("Saque de %s - NF %s", common.FormatBRL(req.Amount), req.InvoiceFilename),
		InvoiceURL:      req.InvoiceURL,
		InvoiceFilename: req.InvoiceFilename,
		WithdrawalCode:  code,
	})
	if err != nil {
		return nil, err
	}

	monitoring.WithdrawalsRequestedTotal.Inc()
	log.WithFields(log.Fields{
		"affiliate_id":    a.ID,
		"transaction_id":  tx.ID,
		"amount":          req.Amount,
		"withdrawal_code": code,
	}).Info("withdrawal reserved")
	return tx, nil
}

// Complete marks a pending withdrawal as paid out. Back office only; the
// amount was reserved at request time, so this moves it into total_paid
// without touching the balance.
func (s *Service) Complete(ctx context.Context, txID int64) (*ledger.Transaction, error) {
	tx, err := s.ledger.CompleteWithdrawal(ctx, txID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"affiliate_id":   tx.AffiliateID,
		"transaction_id": tx.ID,
		"amount":         tx.Amount,
	}).Info("withdrawal completed")
	return tx, nil
}
