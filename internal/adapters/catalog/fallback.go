package catalog

import (
	"context"

	"nadlan-parser/internal/core/port"

	"github.com/rs/zerolog"
)

// FallbackCatalog опрашивает основной справочник, а при пустом ответе - резервный.
// Так город из встроенного списка остается известным, пока таблица не заполнена синхронизацией.
type FallbackCatalog struct {
	primary  port.NeighborhoodCatalogPort
	fallback port.NeighborhoodCatalogPort
	log      zerolog.Logger
}

func NewFallbackCatalog(primary, fallback port.NeighborhoodCatalogPort, log zerolog.Logger) *FallbackCatalog {
	return &FallbackCatalog{
		primary:  primary,
		fallback: fallback,
		log:      log.With().Str("component", "fallback_catalog").Logger(),
	}
}

func (c *FallbackCatalog) ListNeighborhoods(ctx context.Context, city string) map[string]struct{} {
	if set := c.primary.ListNeighborhoods(ctx, city); len(set) > 0 {
		return set
	}
	c.log.Debug().Str("city", city).Msg("Primary catalog has no entries, using fallback")
	return c.fallback.ListNeighborhoods(ctx, city)
}
