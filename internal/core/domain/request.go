package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultLookback - окно дат по умолчанию, если начало не задано.
const DefaultLookback = 30 * 24 * time.Hour

// AcquisitionRequest - внешнее (JSON) представление критериев поиска,
// общее для очереди запросов и HTTP API. Даты в формате YYYY-MM-DD,
// пропущенная граница интервала означает "без ограничения".
type AcquisitionRequest struct {
	City            string   `json:"city"`
	Neighborhood    string   `json:"neighborhood,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	RoomsMin        *float64 `json:"rooms_min,omitempty"`
	RoomsMax        *float64 `json:"rooms_max,omitempty"`
	FloorMin        *float64 `json:"floor_min,omitempty"`
	FloorMax        *float64 `json:"floor_max,omitempty"`
	AreaMin         *float64 `json:"area_min,omitempty"`
	AreaMax         *float64 `json:"area_max,omitempty"`
	ExcludeAbnormal bool     `json:"exclude_abnormal,omitempty"`
	Mode            string   `json:"mode,omitempty"`
}

// ToCriteria переводит запрос в SearchCriteria. Пустой конец окна - сегодня
// (по now), пустое начало - конец минус DefaultLookback, пустой режим - синтетика.
// Ошибки разбора оборачивают ErrInvalidCriteria.
func (r AcquisitionRequest) ToCriteria(now time.Time) (SearchCriteria, error) {
	end := DateOf(now)
	if s := strings.TrimSpace(r.EndDate); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return SearchCriteria{}, fmt.Errorf("%w: end_date %q: expected YYYY-MM-DD", ErrInvalidCriteria, r.EndDate)
		}
		end = t
	}
	start := DateOf(end.Add(-DefaultLookback))
	if s := strings.TrimSpace(r.StartDate); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return SearchCriteria{}, fmt.Errorf("%w: start_date %q: expected YYYY-MM-DD", ErrInvalidCriteria, r.StartDate)
		}
		start = t
	}

	mode := ModeSynthetic
	if strings.TrimSpace(r.Mode) != "" {
		m, err := ParseMode(r.Mode)
		if err != nil {
			return SearchCriteria{}, err
		}
		mode = m
	}

	c := NewSearchCriteria(r.City, r.Neighborhood, start, end, mode)
	c.RoomsRange = rangeOf(r.RoomsMin, r.RoomsMax)
	c.FloorRange = rangeOf(r.FloorMin, r.FloorMax)
	c.AreaRange = rangeOf(r.AreaMin, r.AreaMax)
	c.ExcludeAbnormal = r.ExcludeAbnormal
	return c, nil
}

// RequestFromCriteria - обратное преобразование, для публикации в очередь.
func RequestFromCriteria(c SearchCriteria) AcquisitionRequest {
	r := AcquisitionRequest{
		City:            c.City,
		Neighborhood:    c.Neighborhood,
		ExcludeAbnormal: c.ExcludeAbnormal,
		Mode:            string(c.Mode),
	}
	if !c.Start.IsZero() {
		r.StartDate = c.Start.Format(time.DateOnly)
	}
	if !c.End.IsZero() {
		r.EndDate = c.End.Format(time.DateOnly)
	}
	r.RoomsMin, r.RoomsMax = boundsOf(c.RoomsRange)
	r.FloorMin, r.FloorMax = boundsOf(c.FloorRange)
	r.AreaMin, r.AreaMax = boundsOf(c.AreaRange)
	return r
}

func rangeOf(min, max *float64) Range {
	if min == nil && max == nil {
		return OpenRange()
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	return NewRange(lo, hi)
}

func boundsOf(r Range) (min, max *float64) {
	if r.IsOpen() {
		return nil, nil
	}
	if !math.IsInf(r.Min, 0) {
		v := r.Min
		min = &v
	}
	if !math.IsInf(r.Max, 0) {
		v := r.Max
		max = &v
	}
	return min, max
}
