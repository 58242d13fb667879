package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"deal-scout/models"
)

// ErrNoJSON means a response held no parseable JSON object.
var ErrNoJSON = errors.New("ai: no JSON object in response")

const (
	defaultConfidence = 50.0
	defaultGlitch     = 0.0
)

// ParseVerdict reads the first balanced JSON object in text, tolerating
// prose around it. Out-of-range numbers are clamped and missing or invalid
// fields take defaults; only a response without any usable object fails.
func ParseVerdict(text string) (*models.AIVerdict, error) {
	fields, err := firstObject(text)
	if err != nil {
		return nil, err
	}

	v := &models.AIVerdict{
		IsLegitimate:             asBool(fields["isLegitimate"]),
		ConfidenceScore:          asScore(fields["confidenceScore"], defaultConfidence),
		PricingGlitchProbability: asScore(fields["pricingGlitchProbability"], defaultGlitch),
		Analysis:                 asString(fields["analysis"]),
		SuspiciousFactors:        asStrings(fields["suspiciousFactors"]),
		Recommendation:           models.ParseRecommendation(asString(fields["recommendation"])),
	}
	return v, nil
}

// firstObject scans for balanced {...} substrings and decodes the first
// one that is valid JSON.
func firstObject(text string) (map[string]any, error) {
	for from := 0; from < len(text); {
		i := strings.IndexByte(text[from:], '{')
		if i < 0 {
			break
		}
		start := from + i
		end := matchBrace(text, start)
		if end < 0 {
			// an unbalanced brace in prose may still precede a real object
			from = start + 1
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err == nil {
			return fields, nil
		}
		from = start + 1
	}
	return nil, fmt.Errorf("%w: %q", ErrNoJSON, truncate(text, 120))
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON strings are ignored.
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

func asScore(v any, fallback float64) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) {
		return fallback
	}
	return math.Max(0, math.Min(100, f))
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func asStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
