package services

import (
	"strings"
	"testing"

	"deal-scout/models"
)

func TestDetectSuspicious(t *testing.T) {
	tests := []struct {
		name string
		deal *models.Deal
		want []string // flag prefixes, in order
	}{
		{
			name: "clean deal",
			deal: &models.Deal{Title: "Stainless Steel Water Bottle", CurrentPrice: 12.5, OriginalPrice: models.Float(30), DiscountPercentage: 58},
			want: nil,
		},
		{
			name: "penny pricing",
			deal: &models.Deal{Title: "Wireless Gaming Mouse", CurrentPrice: 0.01, OriginalPrice: models.Float(59.99)},
			want: []string{"price under $1", "penny pricing"},
		},
		{
			name: "round price on expensive item",
			deal: &models.Deal{Title: "Robot Vacuum Cleaner", CurrentPrice: 9.99, OriginalPrice: models.Float(349.99)},
			want: []string{"suspiciously round price"},
		},
		{
			name: "round price on cheap item is fine",
			deal: &models.Deal{Title: "Robot Vacuum Filter", CurrentPrice: 9.99, OriginalPrice: models.Float(29.99)},
			want: nil,
		},
		{
			name: "premium brand too cheap",
			deal: &models.Deal{Title: "Sony WH-1000XM5 Headphones", CurrentPrice: 15, OriginalPrice: models.Float(399)},
			want: []string{"premium brand"},
		},
		{
			name: "brand token must be a whole word",
			deal: &models.Deal{Title: "Appleton Garden Hose 50ft", CurrentPrice: 15, OriginalPrice: models.Float(40)},
			want: nil,
		},
		{
			name: "short and corrupted titles",
			deal: &models.Deal{Title: "12345678901", CurrentPrice: 30},
			want: []string{"title contains long digit run"},
		},
		{
			name: "short title",
			deal: &models.Deal{Title: "Mug", CurrentPrice: 30},
			want: []string{"title too short"},
		},
		{
			name: "limited stock on huge discount",
			deal: &models.Deal{Title: "Espresso Machine Deluxe", CurrentPrice: 25, OriginalPrice: models.Float(400), DiscountPercentage: 94, Availability: "Limited stock"},
			want: []string{"limited availability"},
		},
	}

	for _, tt := range tests {
		got := DetectSuspicious(tt.deal)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got flags %v, want %d flags", tt.name, got, len(tt.want))
			continue
		}
		for i, prefix := range tt.want {
			if !strings.HasPrefix(got[i], prefix) {
				t.Errorf("%s: flag %d = %q; want prefix %q", tt.name, i, got[i], prefix)
			}
		}
	}
}
