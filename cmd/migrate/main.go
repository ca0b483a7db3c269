package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samirrijal/arnav/internal/adapters/memory"
	"github.com/samirrijal/arnav/internal/adapters/postgres"
	"github.com/samirrijal/arnav/internal/adapters/sqlite"
	"github.com/samirrijal/arnav/internal/core/ports"
	"github.com/samirrijal/arnav/internal/pkg/config"
	"github.com/samirrijal/arnav/internal/pkg/logging"
	"github.com/samirrijal/arnav/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|seed [file]>")
	}

	cfg, err := config.Load("arnav-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text", "arnav-migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "up":
		if cfg.Catalog.Backend != config.BackendPostgres {
			log.Fatalf("migrate up needs catalog.backend=postgres, got %s", cfg.Catalog.Backend)
		}
		db := connect(ctx, cfg)
		defer db.Close()
		runMigrations(ctx, db)

	case "seed":
		path := ""
		if len(os.Args) > 2 {
			path = os.Args[2]
		}
		runSeed(ctx, cfg, path)

	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func connect(ctx context.Context, cfg *config.Config) *postgres.DB {
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	return db
}

func runMigrations(ctx context.Context, db *postgres.DB) {
	all, err := migrations.All()
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	for _, m := range all {
		if _, err := db.Pool.Exec(ctx, m.SQL); err != nil {
			log.Fatalf("exec %s: %v", m.Name, err)
		}
		fmt.Printf("OK  %s\n", m.Name)
	}

	log.Println("all migrations applied")
}

// runSeed replaces the configured catalog with the seed file, or with the
// built-in store layout when path is empty.
func runSeed(ctx context.Context, cfg *config.Config, path string) {
	seed := memory.DefaultSeed()
	if path != "" {
		var err error
		if seed, err = memory.LoadSeedFile(path); err != nil {
			log.Fatalf("seed file: %v", err)
		}
	}

	var seeder ports.CatalogSeeder
	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		db := connect(ctx, cfg)
		defer db.Close()
		seeder = postgres.NewCatalogRepo(db)
	case config.BackendSQLite:
		cat, err := sqlite.Open(ctx, cfg.Catalog.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		defer cat.Close()
		seeder = cat
	default:
		log.Fatalf("seed needs a persistent catalog backend, got %s", cfg.Catalog.Backend)
	}

	if err := seeder.SeedCatalog(ctx, seed); err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("OK  %d destinations, %d queues\n", len(seed.Destinations), len(seed.Queues))
}
