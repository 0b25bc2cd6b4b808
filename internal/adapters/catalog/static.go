package catalog

import (
	"context"
	"strings"
)

// StaticCatalog - встроенный справочник районов, неизменяемый после создания.
type StaticCatalog struct {
	byCity map[string]map[string]struct{}
}

// NewStaticCatalog строит справочник из карты город -> районы.
// Ключи городов нормализуются, пустые названия отбрасываются.
func NewStaticCatalog(seed map[string][]string) *StaticCatalog {
	byCity := make(map[string]map[string]struct{}, len(seed))
	for city, names := range seed {
		key := NormalizeCity(city)
		set, ok := byCity[key]
		if !ok {
			set = make(map[string]struct{}, len(names))
			byCity[key] = set
		}
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	return &StaticCatalog{byCity: byCity}
}

// ListNeighborhoods возвращает копию множества, вызывающий может ее менять.
func (c *StaticCatalog) ListNeighborhoods(_ context.Context, city string) map[string]struct{} {
	src := c.byCity[NormalizeCity(city)]
	out := make(map[string]struct{}, len(src))
	for n := range src {
		out[n] = struct{}{}
	}
	return out
}

// NormalizeCity приводит название города к ключу поиска.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}
