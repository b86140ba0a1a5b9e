package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

// DealRepo implements ports.DealRepository on SQLite.
type DealRepo struct {
	db *DB
}

// NewDealRepo creates a new DealRepo.
func NewDealRepo(db *DB) *DealRepo {
	return &DealRepo{db: db}
}

// PendingTransitions lists deals whose stored status disagrees with their window at now.
func (r *DealRepo) PendingTransitions(ctx context.Context, now time.Time) ([]domain.DealTransition, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT id, business_id, title, status, starts_at, ends_at
		FROM deals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var out []domain.DealTransition
	for rows.Next() {
		d, businessID, err := scanDeal(rows)
		if err != nil {
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
	res, err := r.db.db.ExecContext(ctx,
		`UPDATE deals SET status = ? WHERE id = ? AND status = ?`, string(to), dealID, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
