package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// DealRepo implements ports.DealRepository with pgx.
type DealRepo struct {
	db *DB
}

// NewDealRepo creates a new DealRepo.
func NewDealRepo(db *DB) *DealRepo {
	return &DealRepo{db: db}
}

// PendingTransitions lists deals whose stored status disagrees with their window at now.
func (r *DealRepo) PendingTransitions(ctx context.Context, now time.Time) ([]domain.DealTransition, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, business_id, status, starts_at, ends_at
		FROM deals
		WHERE status <> 'Expired' OR ends_at IS NULL OR ends_at > $1
		ORDER BY id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var out []domain.DealTransition
	for rows.Next() {
		var (
			d          domain.Deal
			businessID int64
		)
		if err := rows.Scan(&d.ID, &businessID, &d.Status, &d.StartsAt, &d.EndsAt); err != nil {
			return nil, err
		}
		if to := d.StatusAt(now); to != d.Status {
			out = append(out, domain.DealTransition{DealID: d.ID, BusinessID: businessID, From: d.Status, To: to})
		}
	}
	return out, rows.Err()
}

// SetStatus moves a deal from one status to another. It reports false when
// the deal was no longer in the from status.
func (r *DealRepo) SetStatus(ctx context.Context, dealID int64, from, to domain.DealStatus) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE deals SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, dealID, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
