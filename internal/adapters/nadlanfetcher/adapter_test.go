package nadlanfetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"nadlan-parser/internal/constants"
	"nadlan-parser/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage проигрывает заранее заданный сценарий страницы.
type fakePage struct {
	failOn    map[string]error // селектор или "navigate" -> ошибка
	rows      [][]string
	rowsErr   error
	typedText string
	clicks    []string
}

func (p *fakePage) fail(key string) error {
	if err, ok := p.failOn[key]; ok {
		return err
	}
	return nil
}

func (p *fakePage) Navigate(url string, _ time.Duration) error { return p.fail("navigate") }
func (p *fakePage) WaitVisible(sel string, _ time.Duration) error {
	return p.fail(sel)
}
func (p *fakePage) SendKeys(sel, text string, _ time.Duration) error {
	p.typedText = text
	return nil
}
func (p *fakePage) Click(sel string, _ time.Duration) error {
	p.clicks = append(p.clicks, sel)
	return p.fail("click " + sel)
}
func (p *fakePage) Text(sel string, _ time.Duration) (string, error) { return "באר שבע", nil }
func (p *fakePage) TableRows(sel string, _ time.Duration) ([][]string, error) {
	return p.rows, p.rowsErr
}

type fakeBrowser struct {
	page     *fakePage
	openErr  error
	released int
}

func (b *fakeBrowser) Open(ctx context.Context) (Page, func(), error) {
	if b.openErr != nil {
		return nil, nil, b.openErr
	}
	return b.page, func() { b.released++ }, nil
}

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func sampleRows() [][]string {
	return [][]string{
		{}, // заголовок таблицы без td
		{"15/01/2024", "Rager 12, Ramot", "דירה", "4", "3", "98", "1,500,000"},
		{"20/01/2024", "Hanesiim 5, Neve Zeev", "דירה", "3.5", "-1", "80", "1,100,000"},
		{"21/01/2024", "Ramot", "דירה", "3"},                         // 4 ячейки
		{"22/01/2024", "Ramot", "דירה", "3", "1"},                    // 5 ячеек
		{"25/01/2024", "Ramot", "דירה", "4", "קרקע", "100", "1,600,000"}, // этаж не число
	}
}

func newAdapter(b Browser) *NadlanFetcherAdapter {
	return NewNadlanFetcherAdapter(b, DefaultConfig(), zerolog.Nop())
}

func TestProduceCandidates_DecodesValidRowsAndSkipsShortOnes(t *testing.T) {
	page := &fakePage{rows: sampleRows()}
	browser := &fakeBrowser{page: page}

	c := domain.NewSearchCriteria("Beer Sheva", domain.AllNeighborhoods, jan1, jan31, domain.ModeLive)
	out, err := newAdapter(browser).ProduceCandidates(context.Background(), c)

	require.NoError(t, err)
	assert.Empty(t, out.Diagnostics)
	require.Len(t, out.Records, 3)
	assert.Equal(t, 1, browser.released)
	assert.Equal(t, "Beer Sheva", page.typedText)
	assert.Equal(t, []string{constants.SelectorFirstSuggestion, constants.SelectorSearchButton}, page.clicks)

	first := out.Records[0]
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "Beer Sheva", first.City)
	assert.Equal(t, "Rager 12, Ramot", first.Neighborhood)
	assert.Equal(t, 4.0, first.Rooms)
	assert.Equal(t, 3, first.Floor)
	assert.Equal(t, 98, first.AreaSqm)
	assert.Equal(t, 1_500_000, first.Price)
	assert.Equal(t, 15306, first.PricePerSqm)
	assert.Equal(t, domain.OwnershipFull, first.OwnershipShare)
	assert.Equal(t, constants.SourceLive, first.SourcePlatform)

	assert.Equal(t, -1, out.Records[1].Floor)
	assert.Equal(t, 3.5, out.Records[1].Rooms)
	assert.Equal(t, 0, out.Records[2].Floor)
}

func TestProduceCandidates_SpecificNeighborhood(t *testing.T) {
	browser := &fakeBrowser{page: &fakePage{rows: sampleRows()}}

	c := domain.NewSearchCriteria("Beer Sheva", "ramot", jan1, jan31, domain.ModeLive)
	out, err := newAdapter(browser).ProduceCandidates(context.Background(), c)

	require.NoError(t, err)
	require.Len(t, out.Records, 2)
	for _, rec := range out.Records {
		assert.Equal(t, "ramot", rec.Neighborhood)
	}
}

func TestProduceCandidates_InteractionFailuresDegrade(t *testing.T) {
	sel := DefaultConfig().Selectors
	tests := []struct {
		name    string
		failOn  map[string]error
		wantErr error
	}{
		{name: "page load timeout", failOn: map[string]error{"navigate": context.DeadlineExceeded}, wantErr: domain.ErrPageLoad},
		{name: "search input missing", failOn: map[string]error{sel.SearchInput: context.DeadlineExceeded}, wantErr: domain.ErrSelectorMissing},
		{name: "no suggestions", failOn: map[string]error{sel.Suggestions: context.DeadlineExceeded}, wantErr: domain.ErrSuggestionsTimeout},
		{name: "no results table", failOn: map[string]error{sel.ResultsTable: context.DeadlineExceeded}, wantErr: domain.ErrResultsTimeout},
		{name: "search click fails", failOn: map[string]error{"click " + sel.SearchButton: errors.New("node not visible")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := &fakeBrowser{page: &fakePage{failOn: tt.failOn, rows: sampleRows()}}
			c := domain.NewSearchCriteria("X", "", jan1, jan31, domain.ModeLive)

			out, err := newAdapter(browser).ProduceCandidates(context.Background(), c)

			require.NoError(t, err, "interaction failures must not surface as errors")
			assert.Empty(t, out.Records)
			require.Len(t, out.Diagnostics, 1)
			assert.Equal(t, 1, browser.released, "session must be released on failure")
			if tt.wantErr != nil {
				assert.Contains(t, out.Diagnostics[0], tt.wantErr.Error())
			}
		})
	}
}

func TestProduceCandidates_PartialRowsKept(t *testing.T) {
	page := &fakePage{
		rows:    sampleRows()[:3],
		rowsErr: context.DeadlineExceeded,
	}
	browser := &fakeBrowser{page: page}

	out, err := newAdapter(browser).ProduceCandidates(context.Background(),
		domain.NewSearchCriteria("X", "", jan1, jan31, domain.ModeLive))

	require.NoError(t, err)
	assert.Len(t, out.Records, 2)
	assert.Len(t, out.Diagnostics, 1)
	assert.Equal(t, 1, browser.released)
}

func TestProduceCandidates_SessionUnavailable(t *testing.T) {
	browser := &fakeBrowser{openErr: errors.New("exec: chrome not found")}

	_, err := newAdapter(browser).ProduceCandidates(context.Background(),
		domain.NewSearchCriteria("X", "", jan1, jan31, domain.ModeLive))

	assert.ErrorIs(t, err, domain.ErrSessionUnavailable)
	assert.Equal(t, 0, browser.released)
}
