package services

import (
	"fmt"
	"regexp"
	"strings"

	"deal-scout/models"
)

var (
	// longDigitRun spots titles with ten or more consecutive digits.
	longDigitRun = regexp.MustCompile(`\d{10,}`)

	suspiciousRoundPrices = []float64{1, 5, 9.99, 10, 19.99, 99, 99.99}

	premiumBrands = []string{
		"apple", "iphone", "ipad", "macbook", "samsung", "sony", "bose", "dyson",
		"nike", "adidas", "rolex", "gucci", "louis vuitton", "canon", "nikon",
		"microsoft", "nintendo", "playstation", "xbox", "lg", "dell", "lenovo",
	}

	brandRegexps = compileBrands(premiumBrands)
)

func compileBrands(brands []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(brands))
	for i, b := range brands {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(b) + `\b`)
	}
	return out
}

// DetectSuspicious returns rule-based warning signs for a deal. No single
// flag disqualifies a deal; each costs score.
func DetectSuspicious(d *models.Deal) []string {
	var flags []string
	price := d.CurrentPrice

	if price < 1 {
		flags = append(flags, fmt.Sprintf("price under $1 ($%.2f)", price))
	}
	if price == 0.01 {
		flags = append(flags, "penny pricing ($0.01)")
	}
	if d.Original() > 100 {
		for _, p := range suspiciousRoundPrices {
			if price == p {
				flags = append(flags, fmt.Sprintf("suspiciously round price $%.2f against $%.2f original", price, d.Original()))
				break
			}
		}
	}

	lower := strings.ToLower(d.Title)
	if price < 20 {
		for i, re := range brandRegexps {
			if re.MatchString(lower) {
				flags = append(flags, fmt.Sprintf("premium brand %q under $20", premiumBrands[i]))
				break
			}
		}
	}

	if len([]rune(strings.TrimSpace(d.Title))) < 10 {
		flags = append(flags, "title too short")
	}
	if longDigitRun.MatchString(d.Title) {
		flags = append(flags, "title contains long digit run")
	}
	if strings.Contains(strings.ToLower(d.Availability), "limited") && d.DiscountPercentage > 90 {
		flags = append(flags, "limited availability on >90% discount")
	}

	return flags
}
