// Command explore is the terminal directory client. It runs one explore
// session in-process against the configured database, or against a running
// API when search.provider_url is set.
//
// Usage:
//
//	explore ["keyword=pho&location=Hà Nội"]
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/samirrijal/diadiem/internal/adapters/httpprovider"
	"github.com/samirrijal/diadiem/internal/adapters/postgres"
	"github.com/samirrijal/diadiem/internal/adapters/sqlite"
	"github.com/samirrijal/diadiem/internal/core/filter"
	"github.com/samirrijal/diadiem/internal/core/ports"
	"github.com/samirrijal/diadiem/internal/core/schedule"
	"github.com/samirrijal/diadiem/internal/core/usecases"
	"github.com/samirrijal/diadiem/internal/pkg/config"
	"github.com/samirrijal/diadiem/internal/pkg/logging"
	"github.com/samirrijal/diadiem/internal/tui"
)

func main() {
	cfg, err := config.Load("diadiem-explore")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// The screen belongs to the client; logs go to a file.
	logFile, err := os.OpenFile("explore.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	logging.SetupTo(logFile, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, closeProvider, err := openProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("provider: %v", err)
	}
	defer closeProvider()

	query := ""
	if len(os.Args) > 1 {
		query = os.Args[1]
	}
	// Start from the canonical form of whatever was typed.
	loc := filter.NewMemoryLocation(filter.ParseQuery(query).Encode())

	feed := tui.NewFeed()
	session := usecases.NewExploreSession(provider, loc, feed.Put, usecases.ExploreConfig{
		PageSize:    cfg.Search.PageSize,
		Debounce:    cfg.Search.Debounce(),
		StallAfter:  cfg.Search.StallAfter(),
		OpenRefresh: cfg.Search.OpenRefresh(),
		Locale:      cfg.Search.Locale,
		Schedule:    schedule.NewEvaluator(cfg.Search.Timezone),
	})
	go session.Run(ctx)

	runErr := tui.Run(session, feed)
	session.Close()
	<-session.Done()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "explore: %v\n", runErr)
		os.Exit(1)
	}
}

func openProvider(ctx context.Context, cfg *config.Config) (ports.BusinessProvider, func(), error) {
	if cfg.Search.ProviderURL != "" {
		c, err := httpprovider.New(cfg.Search.ProviderURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using remote provider", "url", cfg.Search.ProviderURL)
		return c, func() {}, nil
	}

	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Seed(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewBusinessRepo(db), func() { db.Close() }, nil
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewBusinessRepo(db), db.Close, nil
	}
}
