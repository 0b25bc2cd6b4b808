package usecase

import (
	"context"
	"fmt"
	"strings"

	"nadlan-parser/internal/core/domain"
	"nadlan-parser/internal/core/filter"
	"nadlan-parser/internal/core/port"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AcquireTransactionsUseCase - единая точка входа: проверка района,
// выбор источника по режиму, фильтрация и сортировка.
type AcquireTransactionsUseCase struct {
	catalog  port.NeighborhoodCatalogPort
	sources  map[domain.Mode]port.CandidateSourcePort
	pipeline *filter.Pipeline
	log      zerolog.Logger
}

// NewAcquireTransactionsUseCase создает новый экземпляр use case.
// Источник для режима может отсутствовать, тогда запрос в этом режиме завершится ошибкой.
func NewAcquireTransactionsUseCase(
	catalog port.NeighborhoodCatalogPort,
	sources map[domain.Mode]port.CandidateSourcePort,
	pipeline *filter.Pipeline,
	log zerolog.Logger,
) *AcquireTransactionsUseCase {
	return &AcquireTransactionsUseCase{
		catalog:  catalog,
		sources:  sources,
		pipeline: pipeline,
		log:      log.With().Str("component", "acquire_transactions").Logger(),
	}
}

// Execute выполняет запрос под новым идентификатором.
func (uc *AcquireTransactionsUseCase) Execute(ctx context.Context, criteria domain.SearchCriteria) (domain.AcquisitionResult, error) {
	return uc.ExecuteWithID(ctx, uuid.NewString(), criteria)
}

// ExecuteWithID выполняет запрос под заданным идентификатором (например, correlation id из очереди).
// "Нет данных" и деградация извлечения - не ошибки: они отражаются в Status.
// Ошибка возвращается для некорректных критериев и непредвиденных сбоев источника.
func (uc *AcquireTransactionsUseCase) ExecuteWithID(ctx context.Context, requestID string, criteria domain.SearchCriteria) (domain.AcquisitionResult, error) {
	result := domain.AcquisitionResult{
		RequestID: requestID,
		Mode:      criteria.Mode,
		Records:   domain.Batch{},
	}
	log := uc.log.With().
		Str("request_id", requestID).
		Str("mode", string(criteria.Mode)).
		Str("city", criteria.City).
		Str("neighborhood", criteria.Neighborhood).
		Logger()

	if err := criteria.Validate(); err != nil {
		log.Warn().Err(err).Msg("Rejected malformed criteria")
		return result, err
	}

	city := strings.TrimSpace(criteria.City)
	if city == "" {
		result.Status = "City is required; no transactions returned."
		log.Info().Msg("Empty city, returning empty result")
		return result, nil
	}
	criteria.City = city

	if !criteria.AllNeighborhoodsRequested() {
		neighborhood := strings.TrimSpace(criteria.Neighborhood)
		if !uc.knownNeighborhood(ctx, city, neighborhood) {
			result.Status = fmt.Sprintf("Neighborhood %q is not known for %s; no transactions returned.", neighborhood, city)
			log.Info().Msg("Unknown neighborhood, returning empty result")
			return result, nil
		}
		criteria.Neighborhood = neighborhood
	}

	source, ok := uc.sources[criteria.Mode]
	if !ok || source == nil {
		return result, fmt.Errorf("acquire transactions: %w: %s", domain.ErrSourceNotConfigured, criteria.Mode)
	}

	log.Info().Time("start", criteria.Start).Time("end", criteria.End).Msg("Acquiring transactions")
	candidates, err := source.ProduceCandidates(ctx, criteria)
	if err != nil {
		log.Error().Err(err).Msg("Candidate source failed")
		return result, fmt.Errorf("acquire transactions (%s): %w", criteria.Mode, err)
	}

	result.Records = uc.pipeline.Apply(criteria, candidates.Records)
	result.Diagnostics = candidates.Diagnostics
	result.Degraded = len(candidates.Diagnostics) > 0
	result.Status = statusMessage(len(result.Records), result.Degraded)

	log.Info().
		Int("candidates", len(candidates.Records)).
		Int("returned", len(result.Records)).
		Bool("degraded", result.Degraded).
		Msg("Acquisition finished")
	return result, nil
}

// knownNeighborhood сравнивает без учета регистра: справочник и ввод пользователя
// расходятся в написании.
func (uc *AcquireTransactionsUseCase) knownNeighborhood(ctx context.Context, city, neighborhood string) bool {
	known := uc.catalog.ListNeighborhoods(ctx, city)
	if _, ok := known[neighborhood]; ok {
		return true
	}
	for name := range known {
		if strings.EqualFold(name, neighborhood) {
			return true
		}
	}
	return false
}

func statusMessage(n int, degraded bool) string {
	var msg string
	switch n {
	case 0:
		msg = "No transactions found for the given criteria."
	case 1:
		msg = "Found 1 transaction."
	default:
		msg = fmt.Sprintf("Found %d transactions.", n)
	}
	if degraded {
		msg += " Live extraction was degraded, results may be incomplete."
	}
	return msg
}
