package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"nadlan-parser/internal/core/domain"
	"nadlan-parser/internal/core/filter"
	"nadlan-parser/internal/core/port"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog map[string]map[string]struct{}

func (f fakeCatalog) ListNeighborhoods(_ context.Context, city string) map[string]struct{} {
	if set, ok := f[city]; ok {
		return set
	}
	return map[string]struct{}{}
}

type fakeSource struct {
	out      domain.Candidates
	err      error
	calls    int
	received domain.SearchCriteria
}

func (f *fakeSource) ProduceCandidates(_ context.Context, c domain.SearchCriteria) (domain.Candidates, error) {
	f.calls++
	f.received = c
	return f.out, f.err
}

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func record(t *testing.T, day int, rooms float64, price int) domain.TransactionRecord {
	t.Helper()
	rec, err := domain.NewTransactionRecord(domain.RecordParams{
		Date:           time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		City:           "Beer Sheva",
		Neighborhood:   "Ramot",
		Rooms:          rooms,
		Floor:          2,
		AreaSqm:        100,
		Price:          price,
		SourcePlatform: "test",
	})
	require.NoError(t, err)
	return rec
}

func newUseCase(live, synthetic port.CandidateSourcePort) *AcquireTransactionsUseCase {
	catalog := fakeCatalog{"Beer Sheva": {"Ramot": {}, "Neve Zeev": {}}}
	sources := map[domain.Mode]port.CandidateSourcePort{}
	if live != nil {
		sources[domain.ModeLive] = live
	}
	if synthetic != nil {
		sources[domain.ModeSynthetic] = synthetic
	}
	return NewAcquireTransactionsUseCase(catalog, sources, filter.NewPipeline(zerolog.Nop()), zerolog.Nop())
}

func TestAcquire_DispatchesByModeAndFilters(t *testing.T) {
	live := &fakeSource{out: domain.Candidates{Records: []domain.TransactionRecord{
		record(t, 3, 3, 1_000_000),
		record(t, 20, 4, 1_200_000),
		record(t, 10, 5, 1_500_000),
	}}}
	synthetic := &fakeSource{}
	uc := newUseCase(live, synthetic)

	c := domain.NewSearchCriteria(" Beer Sheva ", "ramot", jan1, jan31, domain.ModeLive)
	c.RoomsRange = domain.NewRange(4, 5)

	res, err := uc.Execute(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1, live.calls)
	assert.Zero(t, synthetic.calls)
	assert.Equal(t, "Beer Sheva", live.received.City)
	assert.Equal(t, "ramot", live.received.Neighborhood)

	require.Len(t, res.Records, 2)
	assert.Equal(t, 20, res.Records[0].Date.Day())
	assert.Equal(t, 10, res.Records[1].Date.Day())
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, domain.ModeLive, res.Mode)
	assert.False(t, res.Degraded)
	assert.Equal(t, "Found 2 transactions.", res.Status)
}

func TestAcquire_UnknownNeighborhoodSkipsSource(t *testing.T) {
	src := &fakeSource{out: domain.Candidates{Records: []domain.TransactionRecord{record(t, 3, 3, 1_000_000)}}}
	uc := newUseCase(src, src)

	for _, mode := range []domain.Mode{domain.ModeLive, domain.ModeSynthetic} {
		c := domain.NewSearchCriteria("Beer Sheva", "Atlantis", jan1, jan31, mode)
		res, err := uc.Execute(context.Background(), c)

		require.NoError(t, err)
		assert.Empty(t, res.Records)
		assert.NotNil(t, res.Records)
		assert.Contains(t, res.Status, "Atlantis")
	}
	assert.Zero(t, src.calls)
}

func TestAcquire_EmptyCity(t *testing.T) {
	src := &fakeSource{}
	uc := newUseCase(src, src)

	res, err := uc.Execute(context.Background(), domain.NewSearchCriteria("   ", "", jan1, jan31, domain.ModeSynthetic))
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Contains(t, res.Status, "City is required")
	assert.Zero(t, src.calls)
}

func TestAcquire_AllNeighborhoodsSkipsCatalog(t *testing.T) {
	src := &fakeSource{out: domain.Candidates{Records: []domain.TransactionRecord{record(t, 3, 3, 1_000_000)}}}
	uc := newUseCase(nil, src)

	res, err := uc.Execute(context.Background(), domain.NewSearchCriteria("X", domain.AllNeighborhoods, jan1, jan31, domain.ModeSynthetic))
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 1, src.calls)
}

func TestAcquire_InvalidCriteria(t *testing.T) {
	src := &fakeSource{}
	uc := newUseCase(src, src)

	inverted := domain.NewSearchCriteria("Beer Sheva", "", jan31, jan1, domain.ModeSynthetic)
	_, err := uc.Execute(context.Background(), inverted)
	assert.ErrorIs(t, err, domain.ErrInvalidCriteria)

	badRange := domain.NewSearchCriteria("Beer Sheva", "", jan1, jan31, domain.ModeSynthetic)
	badRange.AreaRange = domain.NewRange(100, 50)
	_, err = uc.Execute(context.Background(), badRange)
	assert.ErrorIs(t, err, domain.ErrInvalidCriteria)

	assert.Zero(t, src.calls)
}

func TestAcquire_DegradedExtraction(t *testing.T) {
	live := &fakeSource{out: domain.Candidates{Diagnostics: []string{"results table did not appear"}}}
	uc := newUseCase(live, nil)

	res, err := uc.Execute(context.Background(), domain.NewSearchCriteria("Beer Sheva", "", jan1, jan31, domain.ModeLive))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Records)
	assert.Equal(t, []string{"results table did not appear"}, res.Diagnostics)
	assert.Contains(t, res.Status, "degraded")
}

func TestAcquire_SourceFailure(t *testing.T) {
	live := &fakeSource{err: domain.ErrSessionUnavailable}
	uc := newUseCase(live, nil)

	_, err := uc.Execute(context.Background(), domain.NewSearchCriteria("Beer Sheva", "", jan1, jan31, domain.ModeLive))
	assert.ErrorIs(t, err, domain.ErrSessionUnavailable)
}

func TestAcquire_ModeWithoutSource(t *testing.T) {
	uc := newUseCase(nil, &fakeSource{})

	_, err := uc.Execute(context.Background(), domain.NewSearchCriteria("Beer Sheva", "", jan1, jan31, domain.ModeLive))
	assert.ErrorIs(t, err, domain.ErrSourceNotConfigured)
}

func TestAcquire_ExecuteWithIDKeepsID(t *testing.T) {
	uc := newUseCase(nil, &fakeSource{})

	res, err := uc.ExecuteWithID(context.Background(), "corr-1", domain.NewSearchCriteria("X", "", jan1, jan31, domain.ModeSynthetic))
	require.NoError(t, err)
	assert.Equal(t, "corr-1", res.RequestID)
	assert.Equal(t, "No transactions found for the given criteria.", res.Status)
}

type fakeResultQueue struct {
	results []domain.AcquisitionResult
	err     error
}

func (f *fakeResultQueue) Enqueue(_ context.Context, r domain.AcquisitionResult) error {
	if f.err != nil {
		return f.err
	}
	f.results = append(f.results, r)
	return nil
}

func TestProcessRequest(t *testing.T) {
	src := &fakeSource{out: domain.Candidates{Records: []domain.TransactionRecord{record(t, 3, 3, 1_000_000)}}}
	queue := &fakeResultQueue{}
	uc := NewProcessRequestUseCase(newUseCase(src, src), queue, zerolog.Nop())

	err := uc.Execute(context.Background(), "req-1", domain.NewSearchCriteria("Beer Sheva", "Ramot", jan1, jan31, domain.ModeSynthetic))
	require.NoError(t, err)
	require.Len(t, queue.results, 1)
	assert.Equal(t, "req-1", queue.results[0].RequestID)
	assert.Len(t, queue.results[0].Records, 1)
}

func TestProcessRequest_InvalidCriteriaIsAnswered(t *testing.T) {
	queue := &fakeResultQueue{}
	uc := NewProcessRequestUseCase(newUseCase(nil, &fakeSource{}), queue, zerolog.Nop())

	err := uc.Execute(context.Background(), "req-2", domain.NewSearchCriteria("X", "", jan31, jan1, domain.ModeSynthetic))
	require.NoError(t, err)
	require.Len(t, queue.results, 1)
	assert.Contains(t, queue.results[0].Status, "Rejected")
	assert.Empty(t, queue.results[0].Records)
}

func TestProcessRequest_Errors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		queue := &fakeResultQueue{}
		uc := NewProcessRequestUseCase(newUseCase(&fakeSource{err: errors.New("boom")}, nil), queue, zerolog.Nop())

		err := uc.Execute(context.Background(), "req-3", domain.NewSearchCriteria("X", "", jan1, jan31, domain.ModeLive))
		assert.Error(t, err)
		assert.Empty(t, queue.results)
	})

	t.Run("publish failure", func(t *testing.T) {
		queue := &fakeResultQueue{err: errors.New("channel closed")}
		uc := NewProcessRequestUseCase(newUseCase(nil, &fakeSource{}), queue, zerolog.Nop())

		err := uc.Execute(context.Background(), "req-4", domain.NewSearchCriteria("X", "", jan1, jan31, domain.ModeSynthetic))
		assert.ErrorContains(t, err, "channel closed")
	})
}
