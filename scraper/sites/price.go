package sites

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// rangeSep splits "$10 - $20" / "$10 to $20" style ranges.
	rangeSep = regexp.MustCompile(`\s*(?:-|–|—|\bto\b)\s*`)
	// numberRegexp captures unsigned numbers with an optional decimal part.
	numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// groupedRegexp matches thousands-grouped numbers such as 1,299 or 12,500.99.
	groupedRegexp = regexp.MustCompile(`\d{1,3}(?:,\d{3})+`)
	// dollarRegexp finds the first currency-marked amount.
	dollarRegexp = regexp.MustCompile(`\$\s*\d`)
	// centsRegexp matches a cents token separated from the dollars by
	// whitespace only. A following digit, % or separator disqualifies it.
	centsRegexp = regexp.MustCompile(`^\s+(\d{2})(?:[^\d%.,]|$)`)
)

// ParsePrice converts scraped price text into a number in the unit currency.
// It understands thousands separators, split dollar/cents tokens ("99 99"),
// ranges (lower bound wins) and whole-dollar prices. ok is false when no
// price can be read.
func ParsePrice(text string) (price float64, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	if loc := rangeSep.FindStringIndex(text); loc != nil && loc[0] > 0 {
		if head := text[:loc[0]]; numberRegexp.MatchString(head) && numberRegexp.MatchString(text[loc[1]:]) {
			text = head
		}
	}

	text = groupedRegexp.ReplaceAllStringFunc(text, func(s string) string {
		return strings.ReplaceAll(s, ",", "")
	})

	// "2 for $10": the marked amount is the price, not the leading count.
	if loc := dollarRegexp.FindStringIndex(text); loc != nil {
		text = text[loc[0]:]
	}

	loc := numberRegexp.FindStringIndex(text)
	if loc == nil {
		return 0, false
	}

	number := text[loc[0]:loc[1]]
	if !strings.Contains(number, ".") {
		if m := centsRegexp.FindStringSubmatch(text[loc[1]:]); m != nil {
			number = number + "." + m[1]
		}
	}

	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, false
	}
	return round2(v), true
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
