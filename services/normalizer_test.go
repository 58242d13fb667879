package services

import (
	"testing"
	"time"

	"deal-scout/models"
	"deal-scout/scraper/sites"
	"deal-scout/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

var testSite = sites.SiteProfile{
	Name:       "shop",
	BaseURL:    "https://shop.example.com",
	ParsePrice: sites.ParsePrice,
}

func TestDiscountPercent(t *testing.T) {
	tests := []struct {
		original *float64
		current  float64
		want     int
	}{
		{models.Float(100), 40, 60},
		{models.Float(100), 8, 92},
		{models.Float(29.99), 19.99, 33},
		{models.Float(100), 100, 0},
		{models.Float(50), 80, 0},
		{nil, 10, 0},
	}
	for _, tt := range tests {
		if got := DiscountPercent(tt.original, tt.current); got != tt.want {
			t.Errorf("DiscountPercent(%v, %.2f) = %d; want %d", tt.original, tt.current, got, tt.want)
		}
	}
}

func TestNormalizeDropsLowDiscounts(t *testing.T) {
	n := NewNormalizer(newTestLogger(), DefaultDiscountFloor)
	raw := []*models.RawExtraction{
		{Title: "Cable A", PriceText: "$9.50", OriginalPriceText: "$10.00"},
		{Title: "Cable B", PriceText: "$19.99", OriginalPriceText: "$20.99"},
		{Title: "Laptop", PriceText: "$80.00", OriginalPriceText: "$1,000.00", ScrapedAt: time.Now()},
	}

	deals := n.Normalize(testSite, raw)
	if len(deals) != 1 {
		t.Fatalf("expected 1 deal, got %d", len(deals))
	}
	if deals[0].DiscountPercentage != 92 {
		t.Errorf("discount: got %d, want 92", deals[0].DiscountPercentage)
	}
	if deals[0].Site != "shop" {
		t.Errorf("site: got %q", deals[0].Site)
	}
}

func TestNormalizeSkipsMissingTitleOrPrice(t *testing.T) {
	n := NewNormalizer(newTestLogger(), 0)
	raw := []*models.RawExtraction{
		{Title: "   ", PriceText: "$5"},
		{Title: "No price", PriceText: "call for price"},
		{Title: "Zero", PriceText: "$0.00"},
		{Title: "Keeps", PriceText: "$5"},
	}

	deals := n.Normalize(testSite, raw)
	if len(deals) != 1 || deals[0].Title != "Keeps" {
		t.Fatalf("expected only 'Keeps', got %+v", deals)
	}
	if deals[0].OriginalPrice != nil {
		t.Errorf("original price should be nil when absent")
	}
	if deals[0].DiscountPercentage != 0 {
		t.Errorf("discount without original: got %d, want 0", deals[0].DiscountPercentage)
	}
}

func TestNormalizeResolvesURLs(t *testing.T) {
	n := NewNormalizer(newTestLogger(), 0)
	raw := []*models.RawExtraction{
		{Title: "Relative", PriceText: "$5", Link: "/dp/123", Image: "img/a.jpg"},
		{Title: "Protocol relative", PriceText: "$5", Link: "//cdn.example.com/p", Image: "data:image/png;base64,AAA"},
		{Title: "Absolute", PriceText: "$5", Link: "https://other.example.com/x"},
	}

	deals := n.Normalize(testSite, raw)
	if len(deals) != 3 {
		t.Fatalf("expected 3 deals, got %d", len(deals))
	}

	want := []struct{ url, image string }{
		{"https://shop.example.com/dp/123", "https://shop.example.com/img/a.jpg"},
		{"//cdn.example.com/p", "data:image/png;base64,AAA"},
		{"https://other.example.com/x", ""},
	}
	for i, w := range want {
		if deals[i].URL != w.url {
			t.Errorf("deal %d URL: got %q, want %q", i, deals[i].URL, w.url)
		}
		if deals[i].Image != w.image {
			t.Errorf("deal %d Image: got %q, want %q", i, deals[i].Image, w.image)
		}
	}
}

func TestFloorFor(t *testing.T) {
	tests := []struct{ min, want int }{
		{50, 10},
		{10, 10},
		{5, 5},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := FloorFor(tt.min); got != tt.want {
			t.Errorf("FloorFor(%d) = %d; want %d", tt.min, got, tt.want)
		}
	}
}

func TestNormaliseText(t *testing.T) {
	if got := normaliseText("  Big \n\t Sale  "); got != "Big Sale" {
		t.Errorf("normaliseText: got %q", got)
	}
}
