package filter

import (
	"testing"
	"time"

	"nadlan-parser/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func mustRecord(t *testing.T, day int, rooms float64, floor, area, price int) domain.TransactionRecord {
	t.Helper()
	rec, err := domain.NewTransactionRecord(domain.RecordParams{
		Date:           jan1.AddDate(0, 0, day-1),
		City:           "X",
		Neighborhood:   "Ramot",
		Rooms:          rooms,
		Floor:          floor,
		AreaSqm:        area,
		Price:          price,
		SourcePlatform: "test",
	})
	require.NoError(t, err)
	return rec
}

func criteria() domain.SearchCriteria {
	return domain.NewSearchCriteria("X", domain.AllNeighborhoods, jan1, jan31, domain.ModeSynthetic)
}

func TestFilterRanges(t *testing.T) {
	records := []domain.TransactionRecord{
		mustRecord(t, 1, 2, 0, 50, 500_000),
		mustRecord(t, 2, 3, 2, 80, 800_000),
		mustRecord(t, 3, 3.5, 5, 90, 900_000),
		mustRecord(t, 4, 3, -1, 75, 750_000),
		mustRecord(t, 5, 5, 12, 140, 1_400_000),
	}

	tests := []struct {
		name   string
		mutate func(c *domain.SearchCriteria)
		want   []int // дни оставшихся записей
	}{
		{name: "open ranges pass everything", mutate: func(c *domain.SearchCriteria) {}, want: []int{1, 2, 3, 4, 5}},
		{name: "rooms exactly three", mutate: func(c *domain.SearchCriteria) { c.RoomsRange = domain.NewRange(3, 3) }, want: []int{2, 4}},
		{name: "basement only", mutate: func(c *domain.SearchCriteria) { c.FloorRange = domain.NewRange(-5, -1) }, want: []int{4}},
		{name: "area inclusive bounds", mutate: func(c *domain.SearchCriteria) { c.AreaRange = domain.NewRange(80, 90) }, want: []int{2, 3}},
		{name: "zero-value ranges pass everything", mutate: func(c *domain.SearchCriteria) {
			c.RoomsRange, c.FloorRange, c.AreaRange = domain.Range{}, domain.Range{}, domain.Range{}
		}, want: []int{1, 2, 3, 4, 5}},
		{name: "ground floor only", mutate: func(c *domain.SearchCriteria) { c.FloorRange = domain.NewRange(0, 0) }, want: []int{1}},
		{name: "date window", mutate: func(c *domain.SearchCriteria) {
			c.Start = jan1.AddDate(0, 0, 1)
			c.End = jan1.AddDate(0, 0, 2)
		}, want: []int{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := criteria()
			tt.mutate(&c)
			got := FilterRanges(c, records)
			days := make([]int, 0, len(got))
			for _, rec := range got {
				days = append(days, rec.Date.Day())
			}
			assert.Equal(t, tt.want, days)
		})
	}
}

func TestRejectOutliers_DropsInjectedOutlier(t *testing.T) {
	var records []domain.TransactionRecord
	for day := 1; day <= 9; day++ {
		records = append(records, mustRecord(t, day, 4, 3, 100, 1_500_000))
	}
	outlier := mustRecord(t, 10, 4, 3, 100, 3_000_000)
	records = append(records, outlier)

	kept := RejectOutliers(records, OutlierSigmas)

	assert.Len(t, kept, 9)
	for _, rec := range kept {
		assert.NotEqual(t, outlier.Price, rec.Price)
	}
	assert.Len(t, records, 10, "input must not be modified")
}

func TestRejectOutliers_SmallBatches(t *testing.T) {
	assert.Empty(t, RejectOutliers(nil, OutlierSigmas))

	single := []domain.TransactionRecord{mustRecord(t, 1, 3, 1, 80, 800_000)}
	assert.Equal(t, single, RejectOutliers(single, OutlierSigmas))

	pair := []domain.TransactionRecord{
		mustRecord(t, 1, 3, 1, 80, 800_000),
		mustRecord(t, 2, 3, 1, 80, 8_000_000),
	}
	assert.Len(t, RejectOutliers(pair, OutlierSigmas), 2)
}

func TestRejectOutliers_Idempotent(t *testing.T) {
	var records []domain.TransactionRecord
	prices := []int{900_000, 950_000, 1_000_000, 1_020_000, 1_050_000, 1_100_000, 1_150_000, 2_400_000, 400_000, 1_000_000, 980_000, 1_010_000}
	for i, price := range prices {
		records = append(records, mustRecord(t, i+1, 3, 2, 80, price))
	}

	once := RejectOutliers(records, OutlierSigmas)
	twice := RejectOutliers(once, OutlierSigmas)
	assert.Equal(t, once, twice)

	values := make([]float64, len(once))
	for i, rec := range once {
		values[i] = float64(rec.PricePerSqm)
	}
	mean, std := stat.MeanStdDev(values, nil)
	for _, v := range values {
		assert.GreaterOrEqual(t, v, mean-2*std)
		assert.LessOrEqual(t, v, mean+2*std)
	}
}

func TestRejectOutliers_TrimsBeyondSinglePass(t *testing.T) {
	// 20 ровных записей, умеренный (13 000/м²) и грубый (40 000/м²) выбросы
	var records []domain.TransactionRecord
	for day := 1; day <= 20; day++ {
		records = append(records, mustRecord(t, day, 3, 1, 100, 1_000_000))
	}
	mild := mustRecord(t, 21, 3, 1, 100, 1_300_000)
	gross := mustRecord(t, 22, 3, 1, 100, 4_000_000)
	records = append(records, mild, gross)

	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = float64(rec.PricePerSqm)
	}
	mean, std := stat.MeanStdDev(values, nil)
	hi := mean + OutlierSigmas*std
	require.Less(t, float64(mild.PricePerSqm), hi, "one pass keeps the mild outlier")
	require.Greater(t, float64(gross.PricePerSqm), hi)

	kept := RejectOutliers(records, OutlierSigmas)

	require.Len(t, kept, 20)
	for _, rec := range kept {
		assert.Equal(t, 10_000, rec.PricePerSqm)
	}
}

func TestPipeline_Apply(t *testing.T) {
	records := []domain.TransactionRecord{
		mustRecord(t, 3, 3, 1, 80, 800_000),
		mustRecord(t, 10, 3, 1, 80, 810_000),
		mustRecord(t, 1, 3, 1, 80, 790_000),
		mustRecord(t, 7, 6, 1, 160, 2_000_000),
	}
	c := criteria()
	c.RoomsRange = domain.NewRange(2, 4)

	p := NewPipeline(zerolog.Nop())
	batch := p.Apply(c, records)

	require.Len(t, batch, 3)
	for i := 1; i < len(batch); i++ {
		assert.False(t, batch[i].Date.After(batch[i-1].Date), "batch must be sorted by date descending")
	}
	assert.Equal(t, 10, batch[0].Date.Day())
	assert.Equal(t, 1, batch[2].Date.Day())
	assert.Equal(t, 3, records[0].Date.Day(), "input order must be preserved")
}

func TestPipeline_ApplyExcludeAbnormal(t *testing.T) {
	var records []domain.TransactionRecord
	for day := 1; day <= 12; day++ {
		records = append(records, mustRecord(t, day, 3, 2, 80, 1_200_000))
	}
	records = append(records, mustRecord(t, 20, 3, 2, 80, 2_400_000))

	c := criteria()
	c.ExcludeAbnormal = true
	batch := NewPipeline(zerolog.Nop()).Apply(c, records)

	assert.Len(t, batch, 12)
	for _, rec := range batch {
		assert.Equal(t, 15000, rec.PricePerSqm)
	}
}
