package port

import "context"

// NeighborhoodCatalogPort - справочник районов по городу, только чтение.
// Для неизвестного города возвращается пустое множество, ошибок нет.
type NeighborhoodCatalogPort interface {
	ListNeighborhoods(ctx context.Context, city string) map[string]struct{}
}
