package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// CatalogRepo implements ports.CatalogRepository with pgx and PostGIS.
type CatalogRepo struct {
	db *DB
}

// NewCatalogRepo creates a new CatalogRepo.
func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// ListDestinations returns destinations in catalog order.
func (r *CatalogRepo) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon
		FROM destinations
		ORDER BY position, name
	`)
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

// GetDestination returns a destination by exact (case-sensitive) name.
func (r *CatalogRepo) GetDestination(ctx context.Context, name string) (*domain.Destination, error) {
	var d domain.Destination
	err := r.db.Pool.QueryRow(ctx, `
		SELECT name,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon
		FROM destinations WHERE name = $1
	`, name).Scan(&d.Name, &d.Location.Lat, &d.Location.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListQueues returns queues ordered by id.
func (r *CatalogRepo) ListQueues(ctx context.Context) ([]domain.QueuePoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon
		FROM queues
		ORDER BY id
	`)
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

// GetQueue returns a queue by id.
func (r *CatalogRepo) GetQueue(ctx context.Context, id int) (*domain.QueuePoint, error) {
	var q domain.QueuePoint
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon
		FROM queues WHERE id = $1
	`, id).Scan(&q.ID, &q.Location.Lat, &q.Location.Lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpsertDestination inserts or moves a destination to position.
func (r *CatalogRepo) UpsertDestination(ctx context.Context, position int, d *domain.Destination) error {
	if !d.Location.Valid() {
		return fmt.Errorf("destination %q: %w", d.Name, domain.ErrInvalidLocation)
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO destinations (name, position, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography)
		ON CONFLICT (name) DO UPDATE
		SET position = EXCLUDED.position, location = EXCLUDED.location, updated_at = now()
	`, d.Name, position, d.Location.Lon, d.Location.Lat)
	return err
}

// UpsertQueue inserts or updates a queue.
func (r *CatalogRepo) UpsertQueue(ctx context.Context, q *domain.QueuePoint) error {
	if !q.Location.Valid() {
		return fmt.Errorf("queue %d: %w", q.ID, domain.ErrInvalidLocation)
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO queues (id, location)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
		ON CONFLICT (id) DO UPDATE
		SET location = EXCLUDED.location, updated_at = now()
	`, q.ID, q.Location.Lon, q.Location.Lat)
	return err
}

// SeedCatalog replaces both catalogs in one transaction using pgx.Batch.
func (r *CatalogRepo) SeedCatalog(ctx context.Context, seed domain.CatalogSeed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM destinations`)
	batch.Queue(`DELETE FROM queues`)
	for i, d := range seed.Destinations {
		batch.Queue(`
			INSERT INTO destinations (name, position, location)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography)
		`, d.Name, i, d.Location.Lon, d.Location.Lat)
	}
	for _, q := range seed.Queues {
		batch.Queue(`
			INSERT INTO queues (id, location)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
		`, q.ID, q.Location.Lon, q.Location.Lat)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch exec %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("batch close: %w", err)
	}
	return tx.Commit(ctx)
}
