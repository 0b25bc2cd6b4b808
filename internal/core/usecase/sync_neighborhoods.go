package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nadlan-parser/internal/core/port"

	"github.com/rs/zerolog"
)

// SyncNeighborhoodsUseCase обновляет справочник районов из внешнего источника.
type SyncNeighborhoodsUseCase struct {
	fetcher     port.NeighborhoodFetcherPort
	storage     port.NeighborhoodStoragePort
	runs        port.SyncRunRepositoryPort // может быть nil
	minInterval time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

// NewSyncNeighborhoodsUseCase создает новый экземпляр use case. Город,
// синхронизированный менее minInterval назад, пропускается.
func NewSyncNeighborhoodsUseCase(
	fetcher port.NeighborhoodFetcherPort,
	storage port.NeighborhoodStoragePort,
	runs port.SyncRunRepositoryPort,
	minInterval time.Duration,
	log zerolog.Logger,
) *SyncNeighborhoodsUseCase {
	return &SyncNeighborhoodsUseCase{
		fetcher:     fetcher,
		storage:     storage,
		runs:        runs,
		minInterval: minInterval,
		now:         time.Now,
		log:         log.With().Str("component", "sync_neighborhoods").Logger(),
	}
}

// Execute синхронизирует каждый город независимо; ошибки по городам собираются вместе.
func (uc *SyncNeighborhoodsUseCase) Execute(ctx context.Context, cities []string) error {
	var errs []error
	synced := 0

	for _, city := range cities {
		city = strings.TrimSpace(city)
		if city == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		done, err := uc.syncCity(ctx, city)
		if err != nil {
			uc.log.Error().Err(err).Str("city", city).Msg("City sync failed")
			errs = append(errs, err)
			continue
		}
		if done {
			synced++
		}
	}

	uc.log.Info().Int("cities", len(cities)).Int("synced", synced).Int("failed", len(errs)).Msg("Catalog sync finished")
	return errors.Join(errs...)
}

func (uc *SyncNeighborhoodsUseCase) syncCity(ctx context.Context, city string) (bool, error) {
	log := uc.log.With().Str("city", city).Logger()

	if uc.runs != nil && uc.minInterval > 0 {
		last, err := uc.runs.GetLastSync(ctx, city)
		if err != nil {
			log.Warn().Err(err).Msg("Could not read last sync, syncing anyway")
		} else if !last.IsZero() && uc.now().Sub(last) < uc.minInterval {
			log.Debug().Time("last_sync", last).Msg("Synced recently, skipping")
			return false, nil
		}
	}

	names, err := uc.fetcher.FetchNeighborhoods(ctx, city)
	if err != nil {
		return false, fmt.Errorf("fetch neighborhoods for %s: %w", city, err)
	}
	if len(names) == 0 {
		// Пустая страница скорее означает смену разметки, чем отсутствие районов.
		log.Warn().Msg("Source returned no neighborhoods, keeping existing entries")
		return false, nil
	}

	if err := uc.storage.SaveNeighborhoods(ctx, city, names); err != nil {
		return false, fmt.Errorf("save neighborhoods for %s: %w", city, err)
	}

	if uc.runs != nil {
		if err := uc.runs.SetLastSync(ctx, city, uc.now().UTC()); err != nil {
			log.Warn().Err(err).Msg("Could not record sync time")
		}
	}
	return true, nil
}
