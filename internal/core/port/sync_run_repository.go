package port

import (
	"context"
	"time"
)

// SyncRunRepositoryPort хранит время последней синхронизации справочника по городу.
type SyncRunRepositoryPort interface {
	GetLastSync(ctx context.Context, city string) (time.Time, error)
	SetLastSync(ctx context.Context, city string, t time.Time) error
}
