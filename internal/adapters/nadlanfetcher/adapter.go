package nadlanfetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nadlan-parser/internal/constants"
	"nadlan-parser/internal/core/domain"

	"github.com/rs/zerolog"
)

// Page - одна вкладка браузера. Каждое действие ограничено своим таймаутом.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	SendKeys(selector, text string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	Text(selector string, timeout time.Duration) (string, error)
	// TableRows возвращает тексты ячеек каждой строки таблицы.
	// При ошибке может вернуть уже прочитанные строки.
	TableRows(selector string, timeout time.Duration) ([][]string, error)
}

// Browser выдает сессию во владение одному вызову. release обязателен
// к вызову и освобождает вкладку и процесс браузера.
type Browser interface {
	Open(ctx context.Context) (page Page, release func(), err error)
}

// Selectors - хрупкие селекторы страницы поиска.
type Selectors struct {
	SearchInput     string
	Suggestions     string
	FirstSuggestion string
	SearchButton    string
	ResultsTable    string
}

// Config - адрес страницы и таймауты шагов протокола.
type Config struct {
	URL                string
	PageTimeout        time.Duration
	InteractionTimeout time.Duration
	ResultsTimeout     time.Duration
	Selectors          Selectors
}

// DefaultConfig возвращает настройки для nadlan.gov.il.
func DefaultConfig() Config {
	return Config{
		URL:                constants.NadlanURL,
		PageTimeout:        60 * time.Second,
		InteractionTimeout: 15 * time.Second,
		ResultsTimeout:     45 * time.Second,
		Selectors: Selectors{
			SearchInput:     constants.SelectorSearchInput,
			Suggestions:     constants.SelectorSuggestionList,
			FirstSuggestion: constants.SelectorFirstSuggestion,
			SearchButton:    constants.SelectorSearchButton,
			ResultsTable:    constants.SelectorResultsTable,
		},
	}
}

// NadlanFetcherAdapter - живой источник сделок. Реализует CandidateSourcePort.
type NadlanFetcherAdapter struct {
	browser Browser
	cfg     Config
	log     zerolog.Logger
}

// NewNadlanFetcherAdapter создает адаптер поверх браузера.
func NewNadlanFetcherAdapter(browser Browser, cfg Config, log zerolog.Logger) *NadlanFetcherAdapter {
	return &NadlanFetcherAdapter{
		browser: browser,
		cfg:     cfg,
		log:     log.With().Str("component", "nadlan_fetcher").Logger(),
	}
}

// ProduceCandidates выполняет поиск на странице и разбирает таблицу результатов.
// Сбои взаимодействия не возвращаются ошибкой: результат содержит уже
// разобранные строки и диагностическое сообщение. Ошибка возвращается
// только если не удалось получить браузерную сессию.
func (a *NadlanFetcherAdapter) ProduceCandidates(ctx context.Context, criteria domain.SearchCriteria) (domain.Candidates, error) {
	log := a.log.With().Str("city", criteria.City).Logger()

	page, release, err := a.browser.Open(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Could not open browser session")
		return domain.Candidates{}, fmt.Errorf("nadlan adapter: %w: %v", domain.ErrSessionUnavailable, err)
	}
	defer func() {
		release()
		log.Debug().Msg("Browser session released")
	}()

	var out domain.Candidates
	rows, searchErr := a.search(page, criteria.City, log)
	out.Records = a.decodeRows(rows, criteria, log)

	if searchErr != nil {
		log.Warn().Err(searchErr).Int("rows_parsed", len(out.Records)).Msg("Live extraction degraded")
		out.Note("live extraction stopped early: %v", searchErr)
	}
	return out, nil
}

// search - протокол взаимодействия со страницей. Каждый шаг выполняется один раз.
func (a *NadlanFetcherAdapter) search(page Page, city string, log zerolog.Logger) ([][]string, error) {
	sel := a.cfg.Selectors

	log.Info().Str("url", a.cfg.URL).Msg("Opening search page")
	if err := page.Navigate(a.cfg.URL, a.cfg.PageTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPageLoad, err)
	}

	if err := page.WaitVisible(sel.SearchInput, a.cfg.InteractionTimeout); err != nil {
		return nil, fmt.Errorf("%w (%s): %v", domain.ErrSelectorMissing, sel.SearchInput, err)
	}
	if err := page.SendKeys(sel.SearchInput, city, a.cfg.InteractionTimeout); err != nil {
		return nil, fmt.Errorf("typing city: %w", err)
	}

	if err := page.WaitVisible(sel.Suggestions, a.cfg.InteractionTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSuggestionsTimeout, err)
	}
	// Берется первая подсказка, одноименные населенные пункты не различаются.
	if suggestion, err := page.Text(sel.FirstSuggestion, a.cfg.InteractionTimeout); err == nil {
		log.Info().Str("suggestion", strings.TrimSpace(suggestion)).Msg("Selecting first autocomplete suggestion")
	}
	if err := page.Click(sel.FirstSuggestion, a.cfg.InteractionTimeout); err != nil {
		return nil, fmt.Errorf("selecting suggestion: %w", err)
	}

	if err := page.Click(sel.SearchButton, a.cfg.InteractionTimeout); err != nil {
		return nil, fmt.Errorf("triggering search: %w", err)
	}
	if err := page.WaitVisible(sel.ResultsTable, a.cfg.ResultsTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResultsTimeout, err)
	}

	rows, err := page.TableRows(sel.ResultsTable, a.cfg.ResultsTimeout)
	if err != nil {
		return rows, fmt.Errorf("reading result rows: %w", err)
	}
	log.Info().Int("rows", len(rows)).Msg("Result rows read")
	return rows, nil
}

// decodeRows превращает сырые строки в записи, пропуская неразборчивые.
func (a *NadlanFetcherAdapter) decodeRows(rows [][]string, criteria domain.SearchCriteria, log zerolog.Logger) []domain.TransactionRecord {
	records := make([]domain.TransactionRecord, 0, len(rows))
	skipped, foreign := 0, 0

	for _, cells := range rows {
		params, ok := decodeRow(cells)
		if !ok {
			skipped++
			continue
		}
		if !criteria.AllNeighborhoodsRequested() {
			if !containsFold(params.Neighborhood, criteria.Neighborhood) {
				foreign++
				continue
			}
			params.Neighborhood = criteria.Neighborhood
		}
		params.City = criteria.City
		params.SourcePlatform = constants.SourceLive

		rec, err := domain.NewTransactionRecord(params)
		if err != nil {
			log.Debug().Err(err).Strs("cells", cells).Msg("Row rejected")
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("Skipped undecodable rows")
	}
	if foreign > 0 {
		log.Debug().Int("other_neighborhoods", foreign).Msg("Dropped rows from other neighborhoods")
	}
	return records
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}
