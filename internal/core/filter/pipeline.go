// Package filter содержит общий для всех источников конвейер очистки выборки.
package filter

import (
	"math"
	"slices"

	"nadlan-parser/internal/core/domain"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// OutlierSigmas - ширина коридора отбраковки в стандартных отклонениях.
const OutlierSigmas = 2.0

// Pipeline применяет одинаковые фильтры к выборке любого происхождения.
type Pipeline struct {
	log zerolog.Logger
}

// NewPipeline создает конвейер фильтрации.
func NewPipeline(log zerolog.Logger) *Pipeline {
	return &Pipeline{log: log.With().Str("component", "filter_pipeline").Logger()}
}

// Apply фильтрует по диапазонам, при необходимости отбраковывает выбросы
// и сортирует по дате от новых к старым. Входной срез не изменяется.
func (p *Pipeline) Apply(criteria domain.SearchCriteria, records []domain.TransactionRecord) domain.Batch {
	kept := FilterRanges(criteria, records)
	inRange := len(kept)

	if criteria.ExcludeAbnormal {
		kept = RejectOutliers(kept, OutlierSigmas)
	}
	SortByDateDesc(kept)

	p.log.Debug().
		Int("candidates", len(records)).
		Int("in_range", inRange).
		Int("kept", len(kept)).
		Bool("exclude_abnormal", criteria.ExcludeAbnormal).
		Msg("Filter pipeline applied")

	return domain.Batch(kept)
}

// FilterRanges оставляет записи внутри запрошенных интервалов комнат,
// этажа, площади и дат. Открытые интервалы не проверяются.
func FilterRanges(criteria domain.SearchCriteria, records []domain.TransactionRecord) []domain.TransactionRecord {
	checkRooms := !criteria.RoomsRange.IsOpen()
	checkFloor := !criteria.FloorRange.IsOpen()
	checkArea := !criteria.AreaRange.IsOpen()
	checkDates := !criteria.Start.IsZero() && !criteria.End.IsZero()

	kept := make([]domain.TransactionRecord, 0, len(records))
	for _, rec := range records {
		if checkRooms && !criteria.RoomsRange.Contains(rec.Rooms) {
			continue
		}
		if checkFloor && !criteria.FloorRange.Contains(float64(rec.Floor)) {
			continue
		}
		if checkArea && !criteria.AreaRange.Contains(float64(rec.AreaSqm)) {
			continue
		}
		if checkDates && !criteria.InDateRange(rec.Date) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

// RejectOutliers оставляет записи, у которых цена за метр лежит в
// [μ - k·σ, μ + k·σ] (σ - выборочное стандартное отклонение).
// Проход повторяется, пока выборка не перестанет меняться, поэтому
// результат уже удовлетворяет условию относительно собственных μ и σ
// и повторный вызов ничего не меняет. Цена этого: после удаления грубого
// выброса σ сужается, и следующие проходы отсекают записи, которые лежали
// внутри 2σ исходной выборки. На синтетике это около 5% выборки против
// одного прохода.
// При размере выборки <= 1 σ не определена и шаг пропускается.
func RejectOutliers(records []domain.TransactionRecord, k float64) []domain.TransactionRecord {
	kept := slices.Clone(records)
	for len(kept) > 1 {
		lo, hi, ok := pricePerSqmBounds(kept, k)
		if !ok {
			break
		}
		next := kept[:0:0]
		for _, rec := range kept {
			v := float64(rec.PricePerSqm)
			if v >= lo && v <= hi {
				next = append(next, rec)
			}
		}
		if len(next) == len(kept) {
			break
		}
		kept = next
	}
	return kept
}

func pricePerSqmBounds(records []domain.TransactionRecord, k float64) (lo, hi float64, ok bool) {
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = float64(rec.PricePerSqm)
	}
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) || math.IsNaN(mean) {
		return 0, 0, false
	}
	return mean - k*std, mean + k*std, true
}

// SortByDateDesc упорядочивает записи по дате, от новых к старым.
// Сортировка устойчивая: записи с одной датой сохраняют исходный порядок.
func SortByDateDesc(records []domain.TransactionRecord) {
	slices.SortStableFunc(records, func(a, b domain.TransactionRecord) int {
		return b.Date.Compare(a.Date)
	})
}
