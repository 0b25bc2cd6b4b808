package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// AllNeighborhoods - значение-маркер "все районы".
const AllNeighborhoods = "all"

// Mode выбирает источник данных для одного вызова.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSynthetic Mode = "synthetic"
)

// ParseMode разбирает строковое значение режима (регистр не важен).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive:
		return ModeLive, nil
	case ModeSynthetic:
		return ModeSynthetic, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidCriteria, s)
}

// Range - замкнутый числовой интервал [Min, Max]. Нулевое значение Range{}
// открыто: границы действуют только у интервала из NewRange, поэтому
// SearchCriteria, собранный литералом, ничего не отсекает.
type Range struct {
	Min float64
	Max float64

	bounded bool
}

// OpenRange возвращает полностью открытый интервал (значение по умолчанию).
func OpenRange() Range {
	return Range{Min: math.Inf(-1), Max: math.Inf(1)}
}

// NewRange собирает интервал; пропущенная граница задаётся бесконечностью.
// NewRange(0, 0) - честный интервал из одной точки, а не открытый.
func NewRange(min, max float64) Range {
	return Range{Min: min, Max: max, bounded: true}
}

// IsOpen - интервал ничего не отсекает.
func (r Range) IsOpen() bool {
	return !r.bounded || (math.IsInf(r.Min, -1) && math.IsInf(r.Max, 1))
}

// Contains проверяет принадлежность значения интервалу (границы включены).
func (r Range) Contains(v float64) bool {
	if !r.bounded {
		return true
	}
	return v >= r.Min && v <= r.Max
}

func (r Range) valid() bool {
	if !r.bounded {
		return true
	}
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) && r.Min <= r.Max
}

// SearchCriteria - параметры одного вызова получения сделок.
type SearchCriteria struct {
	City            string
	Neighborhood    string
	Start           time.Time
	End             time.Time
	RoomsRange      Range
	FloorRange      Range
	AreaRange       Range
	ExcludeAbnormal bool
	Mode            Mode
}

// NewSearchCriteria заполняет диапазоны значениями по умолчанию.
func NewSearchCriteria(city, neighborhood string, start, end time.Time, mode Mode) SearchCriteria {
	return SearchCriteria{
		City:         city,
		Neighborhood: neighborhood,
		Start:        start,
		End:          end,
		RoomsRange:   OpenRange(),
		FloorRange:   OpenRange(),
		AreaRange:    OpenRange(),
		Mode:         mode,
	}
}

// AllNeighborhoodsRequested - район не задан или задан маркер "all".
func (c SearchCriteria) AllNeighborhoodsRequested() bool {
	n := strings.TrimSpace(c.Neighborhood)
	return n == "" || strings.EqualFold(n, AllNeighborhoods)
}

// InDateRange проверяет, что календарная дата t лежит в [Start, End].
func (c SearchCriteria) InDateRange(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(c.Start)) && !d.After(DateOf(c.End))
}

// Validate отлавливает только некорректно сформированные критерии.
// Пустой город и неизвестный район - не ошибки, а пустой результат.
func (c SearchCriteria) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidCriteria)
	}
	if DateOf(c.Start).After(DateOf(c.End)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidCriteria,
			c.Start.Format(time.DateOnly), c.End.Format(time.DateOnly))
	}
	ranges := map[string]Range{"rooms": c.RoomsRange, "floor": c.FloorRange, "area": c.AreaRange}
	for name, r := range ranges {
		if !r.valid() {
			return fmt.Errorf("%w: %s range [%v, %v] is malformed", ErrInvalidCriteria, name, r.Min, r.Max)
		}
	}
	if c.Mode != ModeLive && c.Mode != ModeSynthetic {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidCriteria, c.Mode)
	}
	return nil
}
