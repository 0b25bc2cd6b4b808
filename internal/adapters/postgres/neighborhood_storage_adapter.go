package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// PostgresNeighborhoodStorage реализует NeighborhoodStoragePort.
type PostgresNeighborhoodStorage struct {
	pool DB
	log  zerolog.Logger
}

// NewPostgresNeighborhoodStorage создает новый экземпляр адаптера.
func NewPostgresNeighborhoodStorage(pool DB, log zerolog.Logger) (*PostgresNeighborhoodStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	return &PostgresNeighborhoodStorage{
		pool: pool,
		log:  log.With().Str("component", "pg_neighborhood_storage").Logger(),
	}, nil
}

// SaveNeighborhoods добавляет районы города одним батчем. Повторная
// синхронизация только обновляет updated_at у существующих строк.
func (a *PostgresNeighborhoodStorage) SaveNeighborhoods(ctx context.Context, city string, names []string) error {
	const query = `
        INSERT INTO neighborhoods (city, name, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (city, name) DO UPDATE SET updated_at = EXCLUDED.updated_at
    `
	city = strings.TrimSpace(city)
	if city == "" || len(names) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range names {
		batch.Queue(query, city, n)
	}

	if err := a.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert neighborhoods for city '%s': %w", city, err)
	}

	a.log.Info().Str("city", city).Int("count", len(names)).Msg("Neighborhoods saved")
	return nil
}

// CREATE TABLE IF NOT EXISTS neighborhoods (
//     city       VARCHAR(255) NOT NULL,
//     name       VARCHAR(255) NOT NULL,
//     updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//     PRIMARY KEY (city, name)
// );

// -- Поиск идет по lower(city)
// CREATE INDEX IF NOT EXISTS idx_neighborhoods_city_lower ON neighborhoods(lower(city));
