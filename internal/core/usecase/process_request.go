package usecase

import (
	"context"
	"errors"
	"fmt"

	"nadlan-parser/internal/core/domain"
	"nadlan-parser/internal/core/port"

	"github.com/rs/zerolog"
)

// ProcessRequestUseCase обрабатывает запрос из очереди: получение
// сделок и отправка результата в очередь ответов.
type ProcessRequestUseCase struct {
	acquire     *AcquireTransactionsUseCase
	resultQueue port.ResultQueuePort
	log         zerolog.Logger
}

// NewProcessRequestUseCase создает новый экземпляр use case.
func NewProcessRequestUseCase(acquire *AcquireTransactionsUseCase, queue port.ResultQueuePort, log zerolog.Logger) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{
		acquire:     acquire,
		resultQueue: queue,
		log:         log.With().Str("component", "process_request").Logger(),
	}
}

// Execute выполняет запрос. Некорректные критерии отвечаются результатом
// с описанием ошибки и считаются обработанными. Прочие ошибки возвращаются
// наверх, чтобы обработчик RabbitMQ решил, повторять ли сообщение.
func (uc *ProcessRequestUseCase) Execute(ctx context.Context, requestID string, criteria domain.SearchCriteria) error {
	log := uc.log.With().Str("request_id", requestID).Logger()

	result, err := uc.acquire.ExecuteWithID(ctx, requestID, criteria)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCriteria) {
			return fmt.Errorf("failed to acquire transactions for request %s: %w", requestID, err)
		}
		log.Warn().Err(err).Msg("Replying with rejection")
		result.Status = "Rejected: " + err.Error()
	}

	if err := uc.resultQueue.Enqueue(ctx, result); err != nil {
		return fmt.Errorf("failed to enqueue result for request %s: %w", requestID, err)
	}

	log.Info().Int("records", len(result.Records)).Msg("Result enqueued")
	return nil
}
