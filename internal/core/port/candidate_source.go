package port

import (
	"context"
	"nadlan-parser/internal/core/domain"
)

// CandidateSourcePort - общий контракт обоих путей получения данных
// (живое извлечение и синтетический генератор). Фильтрация и оркестратор
// зависят только от него.
type CandidateSourcePort interface {
	// ProduceCandidates возвращает сырую выборку до фильтрации.
	// Ошибка означает непредвиденный сбой; частичное извлечение
	// отражается в Candidates.Diagnostics.
	ProduceCandidates(ctx context.Context, criteria domain.SearchCriteria) (domain.Candidates, error)
}
