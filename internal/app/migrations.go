package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/db/postgres"
)

// runMigrations applies every migration in order. The SQL is embedded in the
// binary to keep the deploy a single artifact.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001UsersPlans},
		{2, migration002Affiliates},
		{3, migration003Referrals},
		{4, migration004Transactions},
		{5, migration005CommissionMonthIndex},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	log.Infof("migrations up to date (%d)", len(migrations))
	return nil
}

// users and plans are read models of the main DocSafe database, synced by the
// backend. Plan prices are centavos.
var migration001UsersPlans = `
CREATE TABLE IF NOT EXISTS plans (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    code VARCHAR(50) UNIQUE NOT NULL,
    price_centavos BIGINT NOT NULL,
    is_active BOOLEAN DEFAULT TRUE,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    plan_id BIGINT REFERENCES plans(id),
    subscription_status VARCHAR(20) DEFAULT 'active',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_plan_id ON users(plan_id);

INSERT INTO plans (name, code, price_centavos)
SELECT v.name, v.code, v.price FROM (VALUES
    ('Plano Básico', 'basico', 9900),
    ('Plano Profissional', 'profissional', 20000),
    ('Plano Empresarial', 'empresarial', 49900)
) AS v(name, code, price)
WHERE NOT EXISTS (SELECT 1 FROM plans);
`

var migration002Affiliates = `
CREATE TABLE IF NOT EXISTS affiliates (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES users(id),
    referral_code VARCHAR(16) UNIQUE NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    balance BIGINT NOT NULL DEFAULT 0,
    total_earned BIGINT NOT NULL DEFAULT 0,
    total_paid BIGINT NOT NULL DEFAULT 0,
    pix_key VARCHAR(140),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_affiliates_referral_code ON affiliates(referral_code);
`

var migration003Referrals = `
CREATE TABLE IF NOT EXISTS referrals (
    id BIGSERIAL PRIMARY KEY,
    affiliate_id BIGINT NOT NULL REFERENCES affiliates(id),
    referred_user_id BIGINT UNIQUE NOT NULL REFERENCES users(id),
    plan_id BIGINT REFERENCES plans(id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_referrals_affiliate_id ON referrals(affiliate_id);
`

var migration004Transactions = `
CREATE TABLE IF NOT EXISTS affiliate_transactions (
    id BIGSERIAL PRIMARY KEY,
    affiliate_id BIGINT NOT NULL REFERENCES affiliates(id),
    referred_user_id BIGINT REFERENCES users(id),
    amount BIGINT NOT NULL CHECK (amount > 0),
    type VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    invoice_url TEXT,
    invoice_filename TEXT,
    withdrawal_code VARCHAR(40),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_aff_tx_affiliate ON affiliate_transactions(affiliate_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_aff_tx_referred_month ON affiliate_transactions(referred_user_id, type, created_at);
CREATE INDEX IF NOT EXISTS idx_aff_tx_pending ON affiliate_transactions(status) WHERE status = 'pending';
`

// At most one commission per referred user per calendar month, enforced at
// the table so concurrent recorders cannot both pass the read check.
var migration005CommissionMonthIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_aff_tx_commission_month
    ON affiliate_transactions (referred_user_id, date_trunc('month', created_at))
    WHERE type = 'commission';
`
