package port

import (
	"context"
	"nadlan-parser/internal/core/domain"
)

// ResultQueuePort определяет контракт для отправки готового результата в очередь.
type ResultQueuePort interface {
	Enqueue(ctx context.Context, result domain.AcquisitionResult) error
}
