package sites

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"$1,299.99", 1299.99, true},
		{"99 99", 99.99, true},
		{"$10 - $20", 10, true},
		{"$10 to $20", 10, true},
		{"50", 50, true},
		{"$24.99", 24.99, true},
		{"Now $5.49", 5.49, true},
		{"$ 1,049 99", 1049.99, true},
		{"$12,500", 12500, true},
		{"0.01", 0.01, true},
		{"$49 (40% off)", 49, true},
		{"Now $49 Was $99", 49, true},
		{"2 for $10", 10, true},
		{"$25 Save 30%", 25, true},
		{"$49 99%", 49, true},
		{"$19 99 each", 19.99, true},
		{"", 0, false},
		{"See price in cart", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("ParsePrice(%q) ok = %v; want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrice(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}
