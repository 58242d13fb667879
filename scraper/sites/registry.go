package sites

import (
	"net/url"
	"strings"
)

// Selectors are the CSS queries used to pull raw fields out of a results page.
// Every field selector is evaluated relative to one Container match.
type Selectors struct {
	Container     string
	Title         string
	Price         string
	OriginalPrice string
	Image         string
	Link          string
	Availability  string
}

// SiteProfile describes how to search and read one retailer. Profiles are
// compiled in and never mutated.
type SiteProfile struct {
	Name            string
	BaseURL         string
	RequiresBrowser bool
	Selectors       Selectors
	SearchURL       func(query string) string
	ParsePrice      func(text string) (float64, bool)
}

// Registry is an ordered, read-only set of site profiles.
type Registry struct {
	profiles []SiteProfile
	byName   map[string]int
}

// NewRegistry builds a registry; later profiles with a duplicate name win.
func NewRegistry(profiles ...SiteProfile) *Registry {
	r := &Registry{byName: make(map[string]int, len(profiles))}
	for _, p := range profiles {
		key := strings.ToLower(p.Name)
		if i, ok := r.byName[key]; ok {
			r.profiles[i] = p
			continue
		}
		r.byName[key] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}
	return r
}

// Lookup returns the profile for name, case-insensitively.
func (r *Registry) Lookup(name string) (SiteProfile, bool) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return SiteProfile{}, false
	}
	return r.profiles[i], true
}

// Select returns the profiles named in names, in registry order. Unknown
// names are dropped silently. An empty list selects every profile.
func (r *Registry) Select(names []string) []SiteProfile {
	if len(names) == 0 {
		return r.All()
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	var out []SiteProfile
	for _, p := range r.profiles {
		if want[strings.ToLower(p.Name)] {
			out = append(out, p)
		}
	}
	return out
}

// All returns a copy of every profile in registry order.
func (r *Registry) All() []SiteProfile {
	out := make([]SiteProfile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Names lists the profile names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		names[i] = p.Name
	}
	return names
}

func searchURL(base, path, param string) func(string) string {
	return func(query string) string {
		return base + path + "?" + param + "=" + url.QueryEscape(strings.TrimSpace(query))
	}
}

// Default returns the built-in retailer profiles.
func Default() *Registry {
	return NewRegistry(
		SiteProfile{
			Name:            "amazon",
			BaseURL:         "https://www.amazon.com",
			RequiresBrowser: true,
			Selectors: Selectors{
				Container:     `[data-component-type="s-search-result"]`,
				Title:         `h2 span`,
				Price:         `.a-price:not(.a-text-price) .a-offscreen`,
				OriginalPrice: `.a-price.a-text-price .a-offscreen`,
				Image:         `img.s-image`,
				Link:          `h2 a, a.a-link-normal.s-no-outline`,
				Availability:  `.a-color-price, .a-size-base.a-color-secondary`,
			},
			SearchURL:  searchURL("https://www.amazon.com", "/s", "k"),
			ParsePrice: ParsePrice,
		},
		SiteProfile{
			Name:            "walmart",
			BaseURL:         "https://www.walmart.com",
			RequiresBrowser: true,
			Selectors: Selectors{
				Container:     `[data-item-id]`,
				Title:         `[data-automation-id="product-title"]`,
				Price:         `[data-automation-id="product-price"] .f2, [data-automation-id="product-price"] div`,
				OriginalPrice: `[data-automation-id="product-price"] .strike`,
				Image:         `img[data-testid="productTileImage"]`,
				Link:          `a[link-identifier]`,
				Availability:  `[data-automation-id="fulfillment-badge"]`,
			},
			SearchURL:  searchURL("https://www.walmart.com", "/search", "q"),
			ParsePrice: ParsePrice,
		},
		SiteProfile{
			Name:            "target",
			BaseURL:         "https://www.target.com",
			RequiresBrowser: true,
			Selectors: Selectors{
				Container:     `[data-test="@web/site-top-of-funnel/ProductCardWrapper"]`,
				Title:         `[data-test="product-title"]`,
				Price:         `[data-test="current-price"]`,
				OriginalPrice: `[data-test="comparison-price"]`,
				Image:         `picture img`,
				Link:          `a[data-test="product-title"]`,
				Availability:  `[data-test="LPFulfillmentSectionShippingFA_standardShippingMessage"]`,
			},
			SearchURL:  searchURL("https://www.target.com", "/s", "searchTerm"),
			ParsePrice: ParsePrice,
		},
		SiteProfile{
			Name:            "bestbuy",
			BaseURL:         "https://www.bestbuy.com",
			RequiresBrowser: true,
			Selectors: Selectors{
				Container:     `li.sku-item`,
				Title:         `h4.sku-title a, h4.sku-header a`,
				Price:         `.priceView-customer-price span:first-child`,
				OriginalPrice: `.pricing-price__regular-price`,
				Image:         `img.product-image`,
				Link:          `h4.sku-title a, h4.sku-header a`,
				Availability:  `.fulfillment-fulfillment-summary`,
			},
			SearchURL:  searchURL("https://www.bestbuy.com", "/site/searchpage.jsp", "st"),
			ParsePrice: ParsePrice,
		},
		SiteProfile{
			Name:            "newegg",
			BaseURL:         "https://www.newegg.com",
			RequiresBrowser: false,
			Selectors: Selectors{
				Container:     `.item-cell`,
				Title:         `a.item-title`,
				Price:         `li.price-current`,
				OriginalPrice: `li.price-was .price-was-data`,
				Image:         `a.item-img img`,
				Link:          `a.item-title`,
				Availability:  `p.item-promo`,
			},
			SearchURL:  searchURL("https://www.newegg.com", "/p/pl", "d"),
			ParsePrice: ParsePrice,
		},
		SiteProfile{
			Name:            "ebay",
			BaseURL:         "https://www.ebay.com",
			RequiresBrowser: false,
			Selectors: Selectors{
				Container:     `li.s-item`,
				Title:         `.s-item__title`,
				Price:         `.s-item__price`,
				OriginalPrice: `.s-item__trending-price .STRIKETHROUGH, .s-item__discount .STRIKETHROUGH`,
				Image:         `.s-item__image-wrapper img`,
				Link:          `a.s-item__link`,
				Availability:  `.s-item__quantitySold, .s-item__hotness`,
			},
			SearchURL:  searchURL("https://www.ebay.com", "/sch/i.html", "_nkw"),
			ParsePrice: ParsePrice,
		},
	)
}
