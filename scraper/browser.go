package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"deal-scout/config"
	"deal-scout/models"
	"deal-scout/scraper/sites"
	"deal-scout/utils"
)

// blockedResources are aborted on every page load.
var blockedResources = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeFont:       true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypeMedia:      true,
}

// stealthScript hides the usual automation fingerprints before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
window.chrome = { runtime: {} };
const originalQuery = window.navigator.permissions.query;
window.navigator.permissions.query = (parameters) => (
	parameters.name === 'notifications' ?
		Promise.resolve({ state: Notification.permission }) :
		originalQuery(parameters)
);
`

// extractScript reads listing fields for every container match, up to a limit.
// %s is the JSON-encoded selector set, %d the limit.
const extractScript = `
(function() {
	var sel = %s;
	var limit = %d;
	function text(card, q) {
		if (!q) return '';
		var el = card.querySelector(q);
		return el ? (el.innerText || el.textContent || '').trim() : '';
	}
	function attr(card, q, names) {
		if (!q) return '';
		var el = card.querySelector(q);
		if (!el) return '';
		for (var i = 0; i < names.length; i++) {
			var v = el.getAttribute(names[i]);
			if (v) return v;
		}
		return '';
	}
	var cards = document.querySelectorAll(sel.Container);
	var results = [];
	for (var i = 0; i < cards.length && results.length < limit; i++) {
		var card = cards[i];
		results.push({
			title:         text(card, sel.Title),
			price:         text(card, sel.Price),
			originalPrice: text(card, sel.OriginalPrice),
			image:         attr(card, sel.Image, ['src', 'data-src']),
			link:          attr(card, sel.Link, ['href']),
			availability:  text(card, sel.Availability)
		});
	}
	return results;
})()
`

type cardData struct {
	Title         string `json:"title"`
	Price         string `json:"price"`
	OriginalPrice string `json:"originalPrice"`
	Image         string `json:"image"`
	Link          string `json:"link"`
	Availability  string `json:"availability"`
}

// BrowserFetcher drives one shared headless Chrome instance for sites that
// render results with JavaScript. Start must be called before Fetch and
// Close after the run.
type BrowserFetcher struct {
	cfg     *config.Config
	proxies *ProxyRotator
	logger  *utils.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewBrowserFetcher creates an unstarted BrowserFetcher.
func NewBrowserFetcher(cfg *config.Config, proxies *ProxyRotator, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{cfg: cfg, proxies: proxies, logger: logger}
}

// Start launches the browser. Calling Start on a running browser is a no-op.
func (b *BrowserFetcher) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return nil
	}

	chromeBin := b.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	b.logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(randomUserAgent()),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}
	if b.proxies != nil {
		if proxy, ok := b.proxies.Next(ctx); ok {
			b.logger.Info("[browser] Routing through proxy %s", proxy)
			opts = append(opts, chromedp.ProxyServer(proxy))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("browser: launch: %w", err)
	}

	b.browserCtx = browserCtx
	b.cancelAlloc = cancelAlloc
	b.cancelBrowser = cancelBrowser
	b.logger.Info("[browser] Started")
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (b *BrowserFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx == nil {
		return nil
	}
	b.cancelBrowser()
	b.cancelAlloc()
	b.browserCtx = nil
	b.logger.Info("[browser] Closed")
	return nil
}

func (b *BrowserFetcher) parent() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browserCtx == nil {
		return nil, errors.New("browser: not started")
	}
	return b.browserCtx, nil
}

// Fetch opens a fresh tab, loads pageURL with a randomized fingerprint and
// returns up to MaxListingsPerPage raw listings. The tab is always closed.
func (b *BrowserFetcher) Fetch(ctx context.Context, site sites.SiteProfile, pageURL string) ([]*models.RawExtraction, error) {
	parent, err := b.parent()
	if err != nil {
		return nil, err
	}

	tabCtx, closeTab := chromedp.NewContext(parent)
	defer closeTab()

	// Tie the tab's lifetime to the caller's context as well.
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	blockResources(tabCtx)

	ua := randomUserAgent()
	vp := randomViewport()
	b.logger.Debug("[browser] %s: UA=%q viewport=%dx%d", site.Name, ua, vp.Width, vp.Height)

	if err := chromedp.Run(tabCtx,
		fetch.Enable(),
		emulation.SetUserAgentOverride(ua).WithAcceptLanguage("en-US,en;q=0.9"),
		chromedp.EmulateViewport(vp.Width, vp.Height),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("browser: prepare tab: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, b.pageTimeout())
	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(pageURL))
	cancelNav()
	if err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if resp != nil && (resp.Status < 200 || resp.Status > 299) {
		return nil, fmt.Errorf("browser: %s: %w: %d", pageURL, ErrBadStatus, resp.Status)
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, b.selectorTimeout())
	err = chromedp.Run(waitCtx, chromedp.WaitReady(site.Selectors.Container, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		return nil, fmt.Errorf("browser: %s: %w: %s (%v)", site.Name, ErrSelectorNotFound, site.Selectors.Container, err)
	}

	selJSON, err := json.Marshal(site.Selectors)
	if err != nil {
		return nil, fmt.Errorf("browser: encode selectors: %w", err)
	}

	var cards []cardData
	evalCtx, cancelEval := context.WithTimeout(tabCtx, b.pageTimeout())
	err = chromedp.Run(evalCtx,
		chromedp.Evaluate(fmt.Sprintf(extractScript, selJSON, MaxListingsPerPage), &cards),
	)
	cancelEval()
	if err != nil {
		return nil, fmt.Errorf("browser: extract %s: %w", site.Name, err)
	}

	b.logger.Debug("[browser] %s: found %d cards", site.Name, len(cards))

	now := time.Now()
	out := make([]*models.RawExtraction, 0, len(cards))
	for _, c := range cards {
		out = append(out, &models.RawExtraction{
			Site:              site.Name,
			Title:             collapse(c.Title),
			PriceText:         collapse(c.Price),
			OriginalPriceText: collapse(c.OriginalPrice),
			Image:             c.Image,
			Link:              c.Link,
			Availability:      collapse(c.Availability),
			ScrapedAt:         now,
		})
	}
	return out, nil
}

// blockResources aborts image, font, stylesheet and media requests on the tab.
// fetch.Enable must run on the same tab for requests to be paused.
func blockResources(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if blockedResources[paused.ResourceType] {
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})
}

func (b *BrowserFetcher) pageTimeout() time.Duration {
	if b.cfg.PageTimeout > 0 {
		return b.cfg.PageTimeout
	}
	return 30 * time.Second
}

func (b *BrowserFetcher) selectorTimeout() time.Duration {
	if b.cfg.SelectorTimeout > 0 {
		return b.cfg.SelectorTimeout
	}
	return 15 * time.Second
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
