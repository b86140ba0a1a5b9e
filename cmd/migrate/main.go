package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/diadiem/internal/adapters/sqlite"
	"github.com/samirrijal/diadiem/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|seed>")
	}

	cfg, err := config.Load("diadiem-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	if cfg.Database.Driver == "sqlite" {
		migrateSQLite(ctx, cfg.Database.SQLitePath, os.Args[1])
		return
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool, upFiles())
	case "down":
		runMigrations(ctx, pool, downFiles())
	case "seed":
		runMigrations(ctx, pool, []string{"migrations/002_seed.sql"})
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func upFiles() []string {
	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatalf("glob migrations: %v", err)
	}
	var out []string
	for _, f := range files {
		if strings.HasSuffix(f, ".down.sql") || strings.HasSuffix(f, "_seed.sql") {
			continue
		}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func downFiles() []string {
	files, err := filepath.Glob("migrations/*.down.sql")
	if err != nil {
		log.Fatalf("glob migrations: %v", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

func migrateSQLite(ctx context.Context, path, cmd string) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		log.Fatalf("sqlite: %v", err)
	}
	defer db.Close()

	switch cmd {
	case "up":
		// Open already applied the schema.
		fmt.Printf("OK  %s\n", path)
	case "down":
		if err := db.Drop(ctx); err != nil {
			log.Fatalf("drop: %v", err)
		}
		fmt.Printf("OK  dropped %s\n", path)
	case "seed":
		if err := sqlite.Seed(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
		fmt.Printf("OK  seeded %s\n", path)
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}
