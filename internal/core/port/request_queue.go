package port

import (
	"context"
	"nadlan-parser/internal/core/domain"
)

// RequestQueuePort ставит запрос на асинхронное выполнение.
type RequestQueuePort interface {
	Enqueue(ctx context.Context, requestID string, req domain.AcquisitionRequest) error
}
