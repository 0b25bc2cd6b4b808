package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// PostgresNeighborhoodCatalog реализует NeighborhoodCatalogPort поверх таблицы neighborhoods.
type PostgresNeighborhoodCatalog struct {
	pool DB
	log  zerolog.Logger
}

// NewPostgresNeighborhoodCatalog создает новый экземпляр адаптера.
func NewPostgresNeighborhoodCatalog(pool DB, log zerolog.Logger) (*PostgresNeighborhoodCatalog, error) {
	if pool == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	return &PostgresNeighborhoodCatalog{
		pool: pool,
		log:  log.With().Str("component", "pg_neighborhood_catalog").Logger(),
	}, nil
}

// ListNeighborhoods читает районы города. Сбой базы не пробрасывается:
// он логируется, а город считается неизвестным.
func (a *PostgresNeighborhoodCatalog) ListNeighborhoods(ctx context.Context, city string) map[string]struct{} {
	const query = `SELECT name FROM neighborhoods WHERE lower(city) = lower(btrim($1)) ORDER BY name`

	out := make(map[string]struct{})
	rows, err := a.pool.Query(ctx, query, city)
	if err != nil {
		a.log.Error().Err(err).Str("city", city).Msg("Failed to query neighborhoods")
		return out
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		a.log.Error().Err(err).Str("city", city).Msg("Failed to read neighborhoods")
		return out
	}

	for _, n := range names {
		out[n] = struct{}{}
	}
	a.log.Debug().Str("city", city).Int("count", len(out)).Msg("Neighborhoods loaded")
	return out
}
