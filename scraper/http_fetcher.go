package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"deal-scout/models"
	"deal-scout/scraper/sites"
	"deal-scout/utils"
)

// HTTPFetcher issues a single GET per page and reads listings with goquery.
// It suits sites that render their results server-side.
type HTTPFetcher struct {
	proxies *ProxyRotator
	timeout time.Duration
	logger  *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher. proxies may be nil for direct connections.
func NewHTTPFetcher(proxies *ProxyRotator, timeout time.Duration, logger *utils.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{proxies: proxies, timeout: timeout, logger: logger}
}

func (f *HTTPFetcher) client(ctx context.Context) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if f.proxies != nil {
		if proxy, ok := f.proxies.Next(ctx); ok {
			if u, err := url.Parse(proxy); err == nil {
				transport.Proxy = http.ProxyURL(u)
				f.logger.Debug("[http] Using proxy %s", proxy)
			}
		}
	}
	return &http.Client{Transport: transport, Timeout: f.timeout}
}

// Fetch downloads pageURL and extracts up to MaxListingsPerPage listings.
func (f *HTTPFetcher) Fetch(ctx context.Context, site sites.SiteProfile, pageURL string) ([]*models.RawExtraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	for k, v := range browserHeaders(randomUserAgent()) {
		req.Header.Set(k, v)
	}

	resp, err := f.client(ctx).Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http: %s: %w: %d", pageURL, ErrBadStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: parse HTML: %w", err)
	}

	return ExtractDocument(doc, site)
}

// ExtractDocument pulls raw listing fields out of a parsed results page.
func ExtractDocument(doc *goquery.Document, site sites.SiteProfile) ([]*models.RawExtraction, error) {
	sel := site.Selectors
	containers := doc.Find(sel.Container)
	if containers.Length() == 0 {
		return nil, fmt.Errorf("%s: %w: %s", site.Name, ErrSelectorNotFound, sel.Container)
	}

	now := time.Now()
	var out []*models.RawExtraction
	containers.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		out = append(out, &models.RawExtraction{
			Site:              site.Name,
			Title:             firstText(card, sel.Title),
			PriceText:         firstText(card, sel.Price),
			OriginalPriceText: firstText(card, sel.OriginalPrice),
			Image:             firstAttr(card, sel.Image, "src", "data-src"),
			Link:              firstAttr(card, sel.Link, "href"),
			Availability:      firstText(card, sel.Availability),
			ScrapedAt:         now,
		})
		return len(out) < MaxListingsPerPage
	})
	return out, nil
}

func firstText(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return collapse(card.Find(selector).First().Text())
}

func firstAttr(card *goquery.Selection, selector string, attrs ...string) string {
	if selector == "" {
		return ""
	}
	node := card.Find(selector).First()
	for _, a := range attrs {
		if v, ok := node.Attr(a); ok && v != "" {
			return v
		}
	}
	return ""
}
