package port

import "context"

// NeighborhoodStoragePort определяет контракт для сохранения
// справочника районов, полученного синхронизацией.
type NeighborhoodStoragePort interface {
	SaveNeighborhoods(ctx context.Context, city string, names []string) error
}
