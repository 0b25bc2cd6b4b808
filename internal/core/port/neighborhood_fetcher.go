package port

import "context"

// NeighborhoodFetcherPort извлекает список районов города из внешнего источника.
type NeighborhoodFetcherPort interface {
	FetchNeighborhoods(ctx context.Context, city string) ([]string, error)
}
