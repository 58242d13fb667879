package scraper

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"deal-scout/models"
	"deal-scout/scraper/sites"
)

// MaxListingsPerPage bounds how many listings a single page load yields.
const MaxListingsPerPage = 20

var (
	// ErrSelectorNotFound means the site's product container never appeared.
	ErrSelectorNotFound = errors.New("product container selector not found")
	// ErrBadStatus means the server answered with a non-2xx status.
	ErrBadStatus = errors.New("unexpected HTTP status")
)

// Fetcher loads one results page and returns the raw listing fields found on it.
type Fetcher interface {
	Fetch(ctx context.Context, site sites.SiteProfile, pageURL string) ([]*models.RawExtraction, error)
}

// Browser is a Fetcher backed by a long-lived resource that must be started
// before the first Fetch and closed after the run.
type Browser interface {
	Fetcher
	Start(ctx context.Context) error
	Close() error
}

type viewport struct {
	Width, Height int64
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

var viewports = []viewport{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1280, 720},
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

func randomViewport() viewport {
	return viewports[rand.Intn(len(viewports))]
}

// browserHeaders are sent by the HTTP fetcher so requests resemble a real browser.
func browserHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Cache-Control":             "no-cache",
		"Pragma":                    "no-cache",
		"Upgrade-Insecure-Requests": "1",
		"Connection":                "keep-alive",
	}
}

// collapse trims and squeezes internal whitespace.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
