package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samirrijal/diadiem/internal/core/domain"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/pkg/textfold"
)

// BusinessRepo implements ports.BusinessProvider and ports.ViewCounter on SQLite.
type BusinessRepo struct {
	db *DB
}

// NewBusinessRepo creates a new BusinessRepo.
func NewBusinessRepo(db *DB) *BusinessRepo {
	return &BusinessRepo{db: db}
}

const businessColumns = `id, name, address, categories, city, district, lat, lon,
	rating, review_count, view_count, verified, featured, opening_hours, joined_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func filterClause(q ports.ProviderQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if kw := textfold.Fold(q.Search); kw != "" {
		conds = append(conds, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(kw)+"%")
	}
	if q.Category != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM json_each(businesses.categories) WHERE json_each.value = ?)`)
		args = append(args, q.Category)
	}
	if q.City != "" {
		conds = append(conds, `city = ?`)
		args = append(args, q.City)
	}
	if q.District != "" {
		conds = append(conds, `district = ?`)
		args = append(args, q.District)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Query returns one page of businesses matching q, ordered by id.
func (r *BusinessRepo) Query(ctx context.Context, q ports.ProviderQuery) (ports.ProviderResult, error) {
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	where, args := filterClause(q)

	res := ports.ProviderResult{Items: []domain.BusinessSummary{}}
	if err := r.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses`+where, args...).Scan(&res.TotalCount); err != nil {
		return ports.ProviderResult{}, fmt.Errorf("count businesses: %w", err)
	}
	if res.TotalCount == 0 {
		return res, nil
	}

	rows, err := r.db.db.QueryContext(ctx,
		`SELECT `+businessColumns+` FROM businesses`+where+` ORDER BY id LIMIT ? OFFSET ?`,
		append(args, size, (page-1)*size)...)
	if err != nil {
		return ports.ProviderResult{}, fmt.Errorf("query businesses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return ports.ProviderResult{}, err
		}
		res.Items = append(res.Items, *b)
	}
	if err := rows.Err(); err != nil {
		return ports.ProviderResult{}, err
	}

	if err := r.attachDeals(ctx, res.Items); err != nil {
		return ports.ProviderResult{}, err
	}
	return res, nil
}

// GetByID returns a business by id or domain.ErrNotFound.
func (r *BusinessRepo) GetByID(ctx context.Context, id int64) (*domain.BusinessSummary, error) {
	row := r.db.db.QueryRowContext(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)
	b, err := scanBusiness(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items := []domain.BusinessSummary{*b}
	if err := r.attachDeals(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// IncrementViews bumps the view counter of a business.
func (r *BusinessRepo) IncrementViews(ctx context.Context, businessID int64) error {
	res, err := r.db.db.ExecContext(ctx, `UPDATE businesses SET view_count = view_count + 1 WHERE id = ?`, businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Insert stores b and its deals, setting the assigned IDs on b.
func (r *BusinessRepo) Insert(ctx context.Context, b *domain.BusinessSummary) error {
	cats, err := json.Marshal(nonNil(b.Categories))
	if err != nil {
		return err
	}
	hours, err := json.Marshal(b.OpeningHours)
	if err != nil {
		return err
	}
	if b.OpeningHours == nil {
		hours = []byte("{}")
	}
	var lat, lon sql.NullFloat64
	if b.Location != nil {
		lat = sql.NullFloat64{Float64: b.Location.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: b.Location.Lon, Valid: true}
	}

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO businesses (name, address, categories, city, district, lat, lon,
			rating, review_count, view_count, verified, featured, opening_hours, joined_at, search_text)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.Name, b.Address, string(cats), b.City, b.District, lat, lon,
		b.Rating, b.ReviewCount, b.ViewCount, b.Verified, b.Featured, string(hours),
		formatTime(b.JoinedAt), textfold.Fold(b.Name+" "+b.Address),
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	for i := range b.Deals {
		d := &b.Deals[i]
		if d.Status == "" {
			d.Status = domain.DealScheduled
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO deals (business_id, title, status, starts_at, ends_at) VALUES (?,?,?,?,?)`,
			b.ID, d.Title, string(d.Status), formatNullTime(d.StartsAt), formatNullTime(d.EndsAt))
		if err != nil {
			return fmt.Errorf("insert deal: %w", err)
		}
		if d.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *BusinessRepo) attachDeals(ctx context.Context, items []domain.BusinessSummary) error {
	if len(items) == 0 {
		return nil
	}
	index := make(map[int64]int, len(items))
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i := range items {
		index[items[i].ID] = i
		placeholders[i] = "?"
		args[i] = items[i].ID
	}

	rows, err := r.db.db.QueryContext(ctx,
		`SELECT id, business_id, title, status, starts_at, ends_at FROM deals
		WHERE business_id IN (`+strings.Join(placeholders, ",")+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, businessID, err := scanDeal(rows)
		if err != nil {
			return err
		}
		if i, ok := index[businessID]; ok {
			items[i].Deals = append(items[i].Deals, d)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row scanner) (*domain.BusinessSummary, error) {
	var (
		b           domain.BusinessSummary
		cats, hours string
		joined      string
		lat, lon    sql.NullFloat64
	)
	err := row.Scan(&b.ID, &b.Name, &b.Address, &cats, &b.City, &b.District, &lat, &lon,
		&b.Rating, &b.ReviewCount, &b.ViewCount, &b.Verified, &b.Featured, &hours, &joined)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		b.Location = &domain.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
	}
	if err := json.Unmarshal([]byte(cats), &b.Categories); err != nil {
		return nil, fmt.Errorf("business %d categories: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(hours), &b.OpeningHours); err != nil {
		return nil, fmt.Errorf("business %d opening hours: %w", b.ID, err)
	}
	if b.JoinedAt, err = parseTime(joined); err != nil {
		return nil, fmt.Errorf("business %d joined_at: %w", b.ID, err)
	}
	b.Categories = nonNil(b.Categories)
	return &b, nil
}

func scanDeal(row scanner) (domain.Deal, int64, error) {
	var (
		d            domain.Deal
		businessID   int64
		status       string
		starts, ends sql.NullString
	)
	if err := row.Scan(&d.ID, &businessID, &d.Title, &status, &starts, &ends); err != nil {
		return d, 0, err
	}
	d.Status = domain.DealStatus(status)
	var err error
	if d.StartsAt, err = parseNullTime(starts); err != nil {
		return d, 0, fmt.Errorf("deal %d starts_at: %w", d.ID, err)
	}
	if d.EndsAt, err = parseNullTime(ends); err != nil {
		return d, 0, fmt.Errorf("deal %d ends_at: %w", d.ID, err)
	}
	return d, businessID, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
