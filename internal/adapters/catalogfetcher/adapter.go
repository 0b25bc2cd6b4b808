package catalogfetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/rs/zerolog"
)

// CityPlaceholder подставляется в SourceURL экранированным названием города.
const CityPlaceholder = "{city}"

// Config описывает страницу-индекс районов.
type Config struct {
	SourceURL      string // например "https://example.org/neighborhoods?city={city}"
	ItemSelector   string // CSS-селектор элемента с названием района
	RandomDelay    time.Duration
	RequestTimeout time.Duration
}

// CatalogFetcherAdapter собирает названия районов со страницы-индекса.
// Реализует NeighborhoodFetcherPort.
type CatalogFetcherAdapter struct {
	// Родительский коллектор хранит лимиты, клоны разделяют их через общий backend
	collector *colly.Collector
	cfg       Config
	log       zerolog.Logger
}

// NewCatalogFetcherAdapter проверяет конфигурацию и настраивает коллектор.
func NewCatalogFetcherAdapter(cfg Config, log zerolog.Logger) (*CatalogFetcherAdapter, error) {
	if cfg.ItemSelector == "" {
		return nil, fmt.Errorf("catalog fetcher: item selector is required")
	}
	probe, err := url.Parse(strings.ReplaceAll(cfg.SourceURL, CityPlaceholder, "x"))
	if err != nil || probe.Hostname() == "" {
		return nil, fmt.Errorf("catalog fetcher: invalid source URL %q", cfg.SourceURL)
	}
	host := probe.Hostname()

	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.AllowURLRevisit(),
	)
	// Параллелизм 1: синхронизация редкая, сайт-источник не нагружаем.
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("catalog fetcher: failed to set limit rule: %w", err)
	}
	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}

	return &CatalogFetcherAdapter{
		collector: c,
		cfg:       cfg,
		log:       log.With().Str("component", "catalog_fetcher").Str("host", host).Logger(),
	}, nil
}

// FetchNeighborhoods возвращает уникальные названия в порядке появления на странице.
func (a *CatalogFetcherAdapter) FetchNeighborhoods(ctx context.Context, city string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	targetURL := strings.ReplaceAll(a.cfg.SourceURL, CityPlaceholder, url.QueryEscape(strings.TrimSpace(city)))

	// Обработчики не копируются при Clone, расширения навешиваем на клон.
	collector := a.collector.Clone()
	extensions.RandomUserAgent(collector)
	extensions.Referer(collector)

	log := a.log.With().Str("city", city).Logger()
	seen := make(map[string]struct{})
	var names []string

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		log.Debug().Str("url", r.URL.String()).Msg("Making request")
	})
	collector.OnHTML(a.cfg.ItemSelector, func(e *colly.HTMLElement) {
		name := strings.Join(strings.Fields(e.Text), " ")
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	collector.OnError(func(r *colly.Response, err error) {
		log.Warn().Err(err).Int("status", r.StatusCode).Str("url", r.Request.URL.String()).Msg("Request failed")
	})

	if err := collector.Visit(targetURL); err != nil {
		return nil, fmt.Errorf("catalog fetcher: failed to visit URL %s: %w", targetURL, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info().Int("count", len(names)).Msg("Neighborhoods fetched")
	return names, nil
}
