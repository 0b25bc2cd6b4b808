package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// PostgresSyncRunRepository реализует SyncRunRepositoryPort: хранит время
// последней синхронизации справочника по каждому городу.
type PostgresSyncRunRepository struct {
	dbPool DB
	log    zerolog.Logger
}

// NewPostgresSyncRunRepository создает новый экземпляр PostgresSyncRunRepository.
func NewPostgresSyncRunRepository(dbPool DB, log zerolog.Logger) (*PostgresSyncRunRepository, error) {
	if dbPool == nil {
		return nil, fmt.Errorf("postgres sync run repository: db cannot be nil")
	}
	return &PostgresSyncRunRepository{
		dbPool: dbPool,
		log:    log.With().Str("component", "pg_sync_runs").Logger(),
	}, nil
}

// GetLastSync возвращает нулевое время, если город еще не синхронизировался.
func (r *PostgresSyncRunRepository) GetLastSync(ctx context.Context, city string) (time.Time, error) {
	var last time.Time
	query := `SELECT last_synced_at FROM catalog_sync_runs WHERE city = $1`

	err := r.dbPool.QueryRow(ctx, query, city).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Debug().Str("city", city).Msg("No previous sync")
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("error querying last sync for city '%s': %w", city, err)
	}
	return last, nil
}

// SetLastSync устанавливает или обновляет время последней синхронизации.
func (r *PostgresSyncRunRepository) SetLastSync(ctx context.Context, city string, t time.Time) error {
	query := `
        INSERT INTO catalog_sync_runs (city, last_synced_at)
        VALUES ($1, $2)
        ON CONFLICT (city) DO UPDATE SET last_synced_at = EXCLUDED.last_synced_at
    `
	if _, err := r.dbPool.Exec(ctx, query, city, t); err != nil {
		return fmt.Errorf("error setting last sync for city '%s': %w", city, err)
	}
	r.log.Debug().Str("city", city).Time("at", t).Msg("Last sync updated")
	return nil
}

// CREATE TABLE IF NOT EXISTS catalog_sync_runs (
//     city VARCHAR(255) PRIMARY KEY,
//     last_synced_at TIMESTAMPTZ NOT NULL
// );
