package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/common"
	"docsafe.com.br/affiliate-service/internal/monitoring"
)

// Repository performs all reads and writes on affiliate_transactions and all
// balance mutations on affiliates. Both legs of every money operation run in
// one database transaction, so concurrent commissions and withdrawals against
// the same affiliate serialize on the row lock and can never lose an update.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a ledger repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Credit records a completed commission transaction and increases the
// affiliate's balance and total_earned by the same amount, atomically.
func (r *Repository) Credit(ctx context.Context, e CreditEntry) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning credit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	entry := Transaction{
		AffiliateID:    e.AffiliateID,
		ReferredUserID: &e.ReferredUserID,
		Amount:         e.Amount,
		Type:           TypeCommission,
		Status:         StatusCompleted,
		Description:    e.Description,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO affiliate_transactions
			(affiliate_id, referred_user_id, amount, type, status, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.AffiliateID, e.ReferredUserID, e.Amount, TypeCommission, StatusCompleted, e.Description).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		// The unique month index serializes two recorders crediting the same
		// referred user; the loser sees a duplicate, not a failure.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" &&
			pgErr.ConstraintName == "idx_aff_tx_commission_month" {
			return nil, common.ErrCommissionAlreadyRecorded
		}
		// First leg failed: clean abort, nothing was written.
		return nil, fmt.Errorf("inserting commission transaction: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE affiliates
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE id = $1
	`, e.AffiliateID, e.Amount)
	if err != nil || tag.RowsAffected() == 0 {
		return nil, r.inconsistency("credit", entry.ID, e.AffiliateID, e.Amount, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing credit: %w", err)
	}
	return &entry, nil
}

// Reserve checks the balance and, if sufficient, records a pending withdrawal
// transaction and decrements the balance. The check and the decrement happen
// under the same FOR UPDATE row lock, so two concurrent reservations can never
// jointly overdraw the affiliate.
func (r *Repository) Reserve(ctx context.Context, e ReserveEntry) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning reserve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM affiliates WHERE id = $1 FOR UPDATE
	`, e.AffiliateID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrAffiliateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking affiliate %d: %w", e.AffiliateID, err)
	}
	if balance < e.Amount {
		return nil, common.ErrInsufficientBalance
	}

	entry := Transaction{
		AffiliateID:     e.AffiliateID,
		Amount:          e.Amount,
		Type:            TypeWithdrawal,
		Status:          StatusPending,
		Description:     e.Description,
		InvoiceURL:      &e.InvoiceURL,
		InvoiceFilename: &e.InvoiceFilename,
		WithdrawalCode:  &e.WithdrawalCode,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO affiliate_transactions
			(affiliate_id, amount, type, status, description,
			 invoice_url, invoice_filename, withdrawal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, e.AffiliateID, e.Amount, TypeWithdrawal, StatusPending, e.Description,
		e.InvoiceURL, e.InvoiceFilename, e.WithdrawalCode).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting withdrawal transaction: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE affiliates
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1
	`, e.AffiliateID, e.Amount)
	if err != nil || tag.RowsAffected() == 0 {
		return nil, r.inconsistency("reserve", entry.ID, e.AffiliateID, -e.Amount, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing reserve: %w", err)
	}
	return &entry, nil
}

// CompleteWithdrawal transitions a pending withdrawal to completed and adds
// its amount to total_paid. The balance was already reserved at request time
// and is not touched here.
func (r *Repository) CompleteWithdrawal(ctx context.Context, txID int64) (*Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning completion tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var entry Transaction
	err = tx.QueryRow(ctx, `
		SELECT id, affiliate_id, referred_user_id, amount, type, status, description,
		       invoice_url, invoice_filename, withdrawal_code, created_at
		FROM affiliate_transactions
		WHERE id = $1
		FOR UPDATE
	`, txID).Scan(
		&entry.ID, &entry.AffiliateID, &entry.ReferredUserID, &entry.Amount,
		&entry.Type, &entry.Status, &entry.Description,
		&entry.InvoiceURL, &entry.InvoiceFilename, &entry.WithdrawalCode, &entry.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking transaction %d: %w", txID, err)
	}
	if entry.Type != TypeWithdrawal || entry.Status != StatusPending {
		return nil, common.ErrWithdrawalNotPending
	}

	if _, err := tx.Exec(ctx, `
		UPDATE affiliate_transactions SET status = $2 WHERE id = $1
	`, txID, StatusCompleted); err != nil {
		return nil, fmt.Errorf("completing withdrawal %d: %w", txID, err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE affiliates
		SET total_paid = total_paid + $2, updated_at = NOW()
		WHERE id = $1
	`, entry.AffiliateID, entry.Amount)
	if err != nil || tag.RowsAffected() == 0 {
		return nil, r.inconsistency("complete", entry.ID, entry.AffiliateID, entry.Amount, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing completion: %w", err)
	}
	entry.Status = StatusCompleted
	return &entry, nil
}

// HasCommissionInMonth reports whether a commission transaction already exists
// for the referred user inside the [from, to) window. Used by the recorder to
// guarantee at most one commission per referred user per calendar month.
func (r *Repository) HasCommissionInMonth(ctx context.Context, referredUserID int64, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM affiliate_transactions
			WHERE referred_user_id = $1
			  AND type = $2
			  AND created_at >= $3
			  AND created_at < $4
		)
	`, referredUserID, TypeCommission, from, to).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking month commission for user %d: %w", referredUserID, err)
	}
	return exists, nil
}

// ListByAffiliate returns the affiliate's most recent ledger entries.
func (r *Repository) ListByAffiliate(ctx context.Context, affiliateID int64, limit int) ([]*Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, affiliate_id, referred_user_id, amount, type, status, description,
		       invoice_url, invoice_filename, withdrawal_code, created_at
		FROM affiliate_transactions
		WHERE affiliate_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, affiliateID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.AffiliateID, &t.ReferredUserID, &t.Amount,
			&t.Type, &t.Status, &t.Description,
			&t.InvoiceURL, &t.InvoiceFilename, &t.WithdrawalCode, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// CountPending returns the number of pending withdrawals across all
// affiliates. Used by the daily ops visibility job.
func (r *Repository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM affiliate_transactions
		WHERE type = $1 AND status = $2
	`, TypeWithdrawal, StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pending withdrawals: %w", err)
	}
	return n, nil
}

// inconsistency is the reporting path for a balance leg that failed after the
// transaction insert succeeded. The enclosing database transaction still rolls
// back, but the event is logged with everything reconciliation needs and
// surfaced distinctly from clean validation failures.
func (r *Repository) inconsistency(op string, txID, affiliateID, delta int64, cause error) error {
	monitoring.LedgerInconsistenciesTotal.Inc()
	log.WithFields(log.Fields{
		"op":             op,
		"transaction_id": txID,
		"affiliate_id":   affiliateID,
		"delta":          delta,
	}).WithError(cause).Error("balance update failed after transaction insert")
	if cause != nil {
		return fmt.Errorf("%w: %s tx %d afiliado %d: %s", common.ErrInconsistency, op, txID, affiliateID, cause)
	}
	return fmt.Errorf("%w: %s tx %d afiliado %d: saldo não encontrado", common.ErrInconsistency, op, txID, affiliateID)
}
