package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
)

// BusinessRepo implements ports.BusinessProvider and ports.ViewCounter with pgx.
type BusinessRepo struct {
	db *DB
}

// NewBusinessRepo creates a new BusinessRepo.
func NewBusinessRepo(db *DB) *BusinessRepo {
	return &BusinessRepo{db: db}
}

const businessColumns = `
	b.id, b.name, b.address, b.categories, b.city, b.district, b.lat, b.lon,
	b.rating, b.review_count, b.view_count, b.verified, b.featured,
	b.opening_hours, b.joined_at,
	COALESCE((
		SELECT json_agg(json_build_object(
			'id', d.id, 'title', d.title, 'status', d.status,
			'starts_at', d.starts_at, 'ends_at', d.ends_at) ORDER BY d.id)
		FROM deals d WHERE d.business_id = b.id
	), '[]'::json)`

const businessFilter = `
	WHERE ($1 = '' OR b.name ILIKE $2 ESCAPE '\' OR b.address ILIKE $2 ESCAPE '\')
	  AND ($3 = '' OR $3 = ANY(b.categories))
	  AND ($4 = '' OR b.city = $4)
	  AND ($5 = '' OR b.district = $5)`

// Query returns one page of businesses matching q, ordered by id.
func (r *BusinessRepo) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	args := []any{q.Search, LikePattern(q.Search), q.Category, q.City, q.District}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+businessColumns+`, count(*) OVER() FROM businesses b`+businessFilter+`
		ORDER BY b.id LIMIT $6 OFFSET $7`,
		append(args, size, (page-1)*size)...)
	if err != nil {
		return ports.ProviderResult{}, fmt.Errorf("query businesses: %w", err)
	}
	defer rows.Close()

	res := ports.ProviderResult{Items: []domain.BusinessSummary{}}
	for rows.Next() {
		var total int
		b, err := scanBusiness(rows, &total)
		if err != nil {
			return ports.ProviderResult{}, err
		}
		res.TotalCount = total
		res.Items = append(res.Items, *b)
	}
	if err := rows.Err(); err != nil {
		return ports.ProviderResult{}, err
	}

	// Past the last page the window count is unavailable.
	if len(res.Items) == 0 && page > 1 {
		err := r.db.Pool.QueryRow(ctx,
			`SELECT count(*) FROM businesses b`+businessFilter, args...,
		).Scan(&res.TotalCount)
		if err != nil {
			return ports.ProviderResult{}, fmt.Errorf("count businesses: %w", err)
		}
	}
	return res, nil
}

// GetByID returns a business by id or domain.ErrNotFound.
func (r *BusinessRepo) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses b WHERE b.id = $1`, id)
	b, err := scanBusiness(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// IncrementViews bumps the view counter of a business.
func (r *BusinessRepo) IncrementViews(ctx context.Context, businessID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE businesses SET view_count = view_count + 1 WHERE id = $1`, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBusiness(row pgx.Row, extra ...any) (*domain.BusinessSummary, error) {
	var (
		b        domain.BusinessSummary
		lat, lon *float64
		hours    []byte
		deals    []byte
	)
	dest := []any{
		&b.ID, &b.Name, &b.Address, &b.Categories, &b.City, &b.District, &lat, &lon,
		&b.Rating, &b.ReviewCount, &b.ViewCount, &b.Verified, &b.Featured,
		&hours, &b.JoinedAt, &deals,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		b.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &b.OpeningHours); err != nil {
			return nil, fmt.Errorf("business %d opening hours: %w", b.ID, err)
		}
	}
	if err := json.Unmarshal(deals, &b.Deals); err != nil {
		return nil, fmt.Errorf("business %d deals: %w", b.ID, err)
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	return &b, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps s for a substring LIKE match with wildcards escaped.
func LikePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
