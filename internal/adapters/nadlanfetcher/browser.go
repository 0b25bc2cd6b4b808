package nadlanfetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// ChromeBrowser открывает headless Chrome через chromedp.
// Установка самого браузера - внешний шаг, здесь он считается выполненным.
type ChromeBrowser struct {
	headless bool
	locale   string
	log      zerolog.Logger
}

// NewChromeBrowser создает фабрику браузерных сессий.
func NewChromeBrowser(headless bool, locale string, log zerolog.Logger) *ChromeBrowser {
	return &ChromeBrowser{
		headless: headless,
		locale:   locale,
		log:      log.With().Str("component", "chrome_browser").Logger(),
	}
}

// Open запускает отдельный процесс браузера на вызов: сессии не делятся
// между параллельными запросами.
func (b *ChromeBrowser) Open(ctx context.Context) (Page, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("lang", b.locale),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			b.log.Debug().Msgf(format, args...)
		}),
	)
	release := func() {
		cancelTab()
		cancelAlloc()
	}

	// Пустой Run запускает браузер на долгоживущем контексте вкладки,
	// а не на контексте первого шага с таймаутом.
	if err := chromedp.Run(tabCtx); err != nil {
		release()
		return nil, nil, fmt.Errorf("start chrome: %w", err)
	}
	return &chromePage{ctx: tabCtx}, release, nil
}

type chromePage struct {
	ctx context.Context
}

func (p *chromePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (p *chromePage) Navigate(url string, timeout time.Duration) error {
	return p.run(timeout, chromedp.Navigate(url))
}

func (p *chromePage) WaitVisible(selector string, timeout time.Duration) error {
	return p.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (p *chromePage) SendKeys(selector, text string, timeout time.Duration) error {
	return p.run(timeout, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (p *chromePage) Click(selector string, timeout time.Duration) error {
	return p.run(timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (p *chromePage) Text(selector string, timeout time.Duration) (string, error) {
	var text string
	err := p.run(timeout, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible))
	return text, err
}

// rowsScript собирает innerText всех td построчно; заголовок без td дает пустую строку.
const rowsScript = `Array.from(document.querySelectorAll(%q)).map(r => Array.from(r.querySelectorAll("td")).map(c => c.innerText))`

func (p *chromePage) TableRows(selector string, timeout time.Duration) ([][]string, error) {
	var rows [][]string
	err := p.run(timeout, chromedp.Evaluate(fmt.Sprintf(rowsScript, selector+" tr"), &rows))
	return rows, err
}
