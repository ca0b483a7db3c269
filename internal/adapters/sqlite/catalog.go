// Package sqlite stores the catalog in a local SQLite file for devices that
// run the engine without network access.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/samirrijal/arnav/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS destinations (
	name     TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	lat      REAL NOT NULL,
	lon      REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_destinations_position ON destinations (position);

CREATE TABLE IF NOT EXISTS queues (
	id  INTEGER PRIMARY KEY,
	lat REAL NOT NULL,
	lon REAL NOT NULL
);
`

// Catalog implements ports.CatalogRepository and ports.CatalogSeeder.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway catalog.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	slog.Info("sqlite catalog ready", "path", path)
	return &Catalog{db: db}, nil
}

// Ping is used by the readiness probe.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, lat, lon FROM destinations ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dests []domain.Destination
	for rows.Next() {
		var d domain.Destination
		if err := rows.Scan(&d.Name, &d.Location.Lat, &d.Location.Lon); err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	return dests, rows.Err()
}

func (c *Catalog) GetDestination(ctx context.Context, name string) (*domain.Destination, error) {
	var d domain.Destination
	err := c.db.QueryRowContext(ctx, `SELECT name, lat, lon FROM destinations WHERE name = ?`, name).
		Scan(&d.Name, &d.Location.Lat, &d.Location.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("destination %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Catalog) ListQueues(ctx context.Context) ([]domain.QueuePoint, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, lat, lon FROM queues ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queues []domain.QueuePoint
	for rows.Next() {
		var q domain.QueuePoint
		if err := rows.Scan(&q.ID, &q.Location.Lat, &q.Location.Lon); err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}
	return queues, rows.Err()
}

func (c *Catalog) GetQueue(ctx context.Context, id int) (*domain.QueuePoint, error) {
	var q domain.QueuePoint
	err := c.db.QueryRowContext(ctx, `SELECT id, lat, lon FROM queues WHERE id = ?`, id).
		Scan(&q.ID, &q.Location.Lat, &q.Location.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Catalog) UpsertDestination(ctx context.Context, position int, d *domain.Destination) error {
	if !d.Location.Valid() {
		return fmt.Errorf("destination %q: %w", d.Name, domain.ErrInvalidLocation)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO destinations (name, position, lat, lon) VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET position = excluded.position, lat = excluded.lat, lon = excluded.lon
	`, d.Name, position, d.Location.Lat, d.Location.Lon)
	return err
}

func (c *Catalog) UpsertQueue(ctx context.Context, q *domain.QueuePoint) error {
	if !q.Location.Valid() {
		return fmt.Errorf("queue %d: %w", q.ID, domain.ErrInvalidLocation)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO queues (id, lat, lon) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET lat = excluded.lat, lon = excluded.lon
	`, q.ID, q.Location.Lat, q.Location.Lon)
	return err
}

// SeedCatalog replaces both tables in one transaction.
func (c *Catalog) SeedCatalog(ctx context.Context, seed domain.CatalogSeed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM destinations; DELETE FROM queues;`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	for i, d := range seed.Destinations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO destinations (name, position, lat, lon) VALUES (?, ?, ?, ?)`,
			d.Name, i, d.Location.Lat, d.Location.Lon); err != nil {
			return fmt.Errorf("insert destination %q: %w", d.Name, err)
		}
	}
	for _, q := range seed.Queues {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO queues (id, lat, lon) VALUES (?, ?, ?)`,
			q.ID, q.Location.Lat, q.Location.Lon); err != nil {
			return fmt.Errorf("insert queue %d: %w", q.ID, err)
		}
	}
	return tx.Commit()
}

// Empty reports whether no destinations have been stored yet.
func (c *Catalog) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM destinations`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}
