package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/valyala/fasthttp"

	natsadapter "github.com/samirrijal/diadiem/internal/adapters/nats"
	"github.com/samirrijal/diadiem/internal/adapters/postgres"
	"github.com/samirrijal/diadiem/internal/pkg/config"
	"github.com/samirrijal/diadiem/internal/pkg/logging"
)

const batchSize = 500

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <businesses.csv | https://...>")
	}
	source := os.Args[1]

	cfg, err := config.Load("diadiem-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("importer requires the postgres driver, got %q", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	data, err := load(source)
	if err != nil {
		log.Fatalf("load %s: %v", source, err)
	}
	rows, rowErrs, err := readBusinesses(bytes.NewReader(data))
	if err != nil {
		log.Fatalf("parse %s: %v", source, err)
	}
	for _, e := range rowErrs {
		slog.Warn("skipping row", "error", e)
	}
	slog.Info("importing businesses", "source", source, "rows", len(rows), "skipped", len(rowErrs))

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var ids []int64
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		got, err := upsertBatch(ctx, db, rows[start:end])
		if err != nil {
			log.Fatalf("rows %d-%d: %v", rows[start].Line, rows[end-1].Line, err)
		}
		ids = append(ids, got...)
	}
	slog.Info("import complete", "upserted", len(ids))

	// Existing rows changed, so cached search pages must go.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, caches expire by TTL", "error", err)
		return
	}
	defer pub.Close()
	for _, id := range ids {
		if err := pub.PublishBusinessUpdated(ctx, id); err != nil {
			slog.Warn("publish business updated", "business_id", id, "error", err)
		}
	}
}

// load reads a local file or downloads an http(s) URL.
func load(source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.SetRequestURI(source)

	client := &fasthttp.Client{MaxResponseBodySize: 64 << 20}
	if err := client.DoTimeout(req, resp, 2*time.Minute); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode(), source)
	}
	return io.ReadAll(bytes.NewReader(resp.Body()))
}

func upsertBatch(ctx context.Context, db *postgres.DB, rows []Row) ([]int64, error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		b := r.Business
		hours, err := json.Marshal(b.OpeningHours)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.Line, err)
		}
		if b.OpeningHours == nil {
			hours = []byte("{}")
		}
		var lat, lon *float64
		if b.Location != nil {
			lat, lon = &b.Location.Lat, &b.Location.Lon
		}
		batch.Queue(`
			INSERT INTO businesses (name, address, categories, city, district, lat, lon,
				rating, review_count, verified, featured, opening_hours)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (name, address, city) DO UPDATE
			SET categories = EXCLUDED.categories, district = EXCLUDED.district,
			    lat = EXCLUDED.lat, lon = EXCLUDED.lon,
			    rating = EXCLUDED.rating, review_count = EXCLUDED.review_count,
			    verified = EXCLUDED.verified, featured = EXCLUDED.featured,
			    opening_hours = EXCLUDED.opening_hours
			RETURNING id
		`, b.Name, b.Address, b.Categories, b.City, b.District, lat, lon,
			b.Rating, b.ReviewCount, b.Verified, b.Featured, hours)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.Line, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
