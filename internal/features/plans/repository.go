package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docsafe.com.br/affiliate-service/internal/common"
)

// Repository reads the plans table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a plan repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByID returns one plan. A missing row is common.ErrPlanNotFound;
// anything else is a store failure.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Plan, error) {
	query := `
		SELECT id, name, code, price_centavos, is_active, created_at
		FROM plans
		WHERE id = $1
	`
	var p Plan
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Code, &p.PriceCentavos, &p.IsActive, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching plan %d: %w", id, err)
	}
	return &p, nil
}

// ListActive returns the active catalogue in display order.
func (r *Repository) ListActive(ctx context.Context) ([]*Plan, error) {
	query := `
		SELECT id, name, code, price_centavos, is_active, created_at
		FROM plans
		WHERE is_active
		ORDER BY price_centavos
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []*Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.PriceCentavos, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
