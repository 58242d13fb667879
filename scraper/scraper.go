package scraper

import (
	"context"
	"fmt"
	"time"

	"deal-scout/config"
	"deal-scout/models"
	"deal-scout/scraper/sites"
	"deal-scout/services"
	"deal-scout/utils"
)

// RawSink records raw extractions before they are normalized.
type RawSink interface {
	WriteRaw(listings []*models.RawExtraction) error
}

// Scraper walks the selected sites one after another, fetching each with
// the strategy its profile asks for and normalizing what it finds.
type Scraper struct {
	logger     *utils.Logger
	registry   *sites.Registry
	http       Fetcher
	browser    Browser
	normalizer *services.Normalizer
	retry      *utils.RetryConfig
	siteDelay  time.Duration
	rawSink    RawSink
}

// New creates a Scraper from explicit parts. browser may be nil when no
// selected site needs one.
func New(cfg *config.Config, logger *utils.Logger, registry *sites.Registry, httpFetcher Fetcher, browser Browser, normalizer *services.Normalizer) *Scraper {
	return &Scraper{
		logger:     logger,
		registry:   registry,
		http:       httpFetcher,
		browser:    browser,
		normalizer: normalizer,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
		},
		siteDelay: cfg.SiteDelay,
	}
}

// NewDefault wires the production fetchers: goquery over HTTP and a shared
// chromedp browser, both behind one proxy rotator.
func NewDefault(cfg *config.Config, logger *utils.Logger, normalizer *services.Normalizer) *Scraper {
	var proxies *ProxyRotator
	if len(cfg.ProxyURLs) > 0 {
		proxies = NewProxyRotator(cfg.ProxyURLs, cfg.ProxyCheckURL, logger)
	}
	return New(cfg, logger, sites.Default(),
		NewHTTPFetcher(proxies, cfg.PageTimeout, logger),
		NewBrowserFetcher(cfg, proxies, logger),
		normalizer,
	)
}

// WithRawSink makes the scraper hand every site's raw extractions to sink.
func (s *Scraper) WithRawSink(sink RawSink) *Scraper {
	s.rawSink = sink
	return s
}

// Registry exposes the site profiles the scraper chooses from.
func (s *Scraper) Registry() *sites.Registry {
	return s.registry
}

// Scrape searches every named site (all sites when names is empty) for
// query. A site that still fails after retries is recorded in FailedSites
// and the run moves on. The browser, if started, is always closed before
// Scrape returns.
func (s *Scraper) Scrape(ctx context.Context, query string, siteNames []string) *models.ScrapeResult {
	profiles := s.registry.Select(siteNames)
	result := &models.ScrapeResult{
		Query:       query,
		FailedSites: make(map[string]error),
		Started:     time.Now(),
	}

	s.logger.Info("[scraper] Starting scrape for %q across %d sites", query, len(profiles))

	browserStarted := false
	defer func() {
		if browserStarted {
			if err := s.browser.Close(); err != nil {
				s.logger.Warn("[scraper] Browser close failed: %v", err)
			}
		}
	}()

	for i, site := range profiles {
		if i > 0 && s.siteDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.siteDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			result.FailedSites[site.Name] = err
			continue
		}

		fetcher := s.http
		if site.RequiresBrowser {
			if s.browser == nil {
				result.FailedSites[site.Name] = fmt.Errorf("%s requires a browser but none is configured", site.Name)
				s.logger.Error("[scraper] %v", result.FailedSites[site.Name])
				continue
			}
			if !browserStarted {
				if err := s.browser.Start(ctx); err != nil {
					result.FailedSites[site.Name] = err
					s.logger.Error("[scraper] %s skipped, browser unavailable: %v", site.Name, err)
					continue
				}
				browserStarted = true
			}
			fetcher = s.browser
		}

		deals, err := s.scrapeSite(ctx, fetcher, site, query)
		if err != nil {
			result.FailedSites[site.Name] = err
			s.logger.Error("[scraper] %s failed: %v", site.Name, err)
			continue
		}

		result.Deals = append(result.Deals, deals...)
		s.logger.Info("[scraper] %s done: %d deals (total %d)", site.Name, len(deals), len(result.Deals))
	}

	result.Finished = time.Now()
	s.logger.Info("[scraper] Scrape complete: %d deals, %d/%d sites failed in %v",
		len(result.Deals), len(result.FailedSites), len(profiles), result.Finished.Sub(result.Started).Round(time.Millisecond))
	return result
}

func (s *Scraper) scrapeSite(ctx context.Context, fetcher Fetcher, site sites.SiteProfile, query string) ([]*models.Deal, error) {
	pageURL := site.SearchURL(query)
	s.logger.Info("[scraper] Scraping %s: %s", site.Name, pageURL)

	var raws []*models.RawExtraction
	err := s.retry.Do(ctx, "scrape-"+site.Name, func() error {
		r, err := fetcher.Fetch(ctx, site, pageURL)
		if err != nil {
			return err
		}
		raws = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.rawSink != nil && len(raws) > 0 {
		if err := s.rawSink.WriteRaw(raws); err != nil {
			s.logger.Warn("[scraper] Raw sink write failed for %s: %v", site.Name, err)
		}
	}

	return s.normalizer.Normalize(site, raws), nil
}
