package services

import (
	"math"
	"net/url"
	"strings"
	"unicode"

	"deal-scout/models"
	"deal-scout/scraper/sites"
	"deal-scout/utils"
)

// DefaultDiscountFloor is the discount below which a listing carries no signal.
const DefaultDiscountFloor = 10

// Normalizer transforms RawExtractions into Deals.
type Normalizer struct {
	logger *utils.Logger
	floor  int
}

// NewNormalizer creates a Normalizer that drops listings discounted less
// than floor percent.
func NewNormalizer(logger *utils.Logger, floor int) *Normalizer {
	return &Normalizer{logger: logger, floor: floor}
}

// FloorFor picks the extraction floor for a caller's minimum discount: the
// default floor, lowered when the caller asks for smaller discounts.
func FloorFor(minDiscount int) int {
	if minDiscount < DefaultDiscountFloor {
		if minDiscount < 0 {
			return 0
		}
		return minDiscount
	}
	return DefaultDiscountFloor
}

// Normalize converts one site's raw listings into deals. Listings without a
// title or a positive price, or below the discount floor, are skipped.
func (n *Normalizer) Normalize(site sites.SiteProfile, raw []*models.RawExtraction) []*models.Deal {
	parse := site.ParsePrice
	if parse == nil {
		parse = sites.ParsePrice
	}
	base, _ := url.Parse(site.BaseURL)

	result := make([]*models.Deal, 0, len(raw))
	for _, r := range raw {
		title := normaliseText(r.Title)
		if title == "" {
			n.logger.Debug("[normalizer] %s: skipping listing without title", site.Name)
			continue
		}

		current, ok := parse(r.PriceText)
		if !ok || current <= 0 {
			n.logger.Debug("[normalizer] %s: unparseable price %q for %q", site.Name, r.PriceText, title)
			continue
		}

		var original *float64
		if op, ok := parse(r.OriginalPriceText); ok && op > 0 {
			original = models.Float(op)
		}

		discount := DiscountPercent(original, current)
		if discount < n.floor {
			n.logger.Debug("[normalizer] %s: %d%% below floor for %q", site.Name, discount, title)
			continue
		}

		result = append(result, &models.Deal{
			Title:              title,
			OriginalPrice:      original,
			CurrentPrice:       current,
			DiscountPercentage: discount,
			URL:                resolveURL(base, r.Link),
			Image:              resolveURL(base, r.Image),
			Site:               site.Name,
			Availability:       normaliseText(r.Availability),
			ScrapedAt:          r.ScrapedAt,
		})
	}

	n.logger.Info("[normalizer] %s: normalized %d → %d deals (dropped %d)",
		site.Name, len(raw), len(result), len(raw)-len(result))
	return result
}

// DiscountPercent is round(100*(original-current)/original) when original
// exceeds current, otherwise 0.
func DiscountPercent(original *float64, current float64) int {
	if original == nil || *original <= current || *original <= 0 {
		return 0
	}
	return int(math.Round(100 * (*original - current) / *original))
}

// resolveURL makes ref absolute against base. Protocol-relative and data
// URLs are returned unchanged.
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
