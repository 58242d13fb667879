package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-scout/models"
)

func TestParseVerdictWithSurroundingProse(t *testing.T) {
	text := "Sure! Here is my analysis:\n```json\n" + `{
		"isLegitimate": true,
		"confidenceScore": 85,
		"pricingGlitchProbability": 12,
		"analysis": "Normal clearance {sale} pricing.",
		"suspiciousFactors": ["none major"],
		"recommendation": "high"
	}` + "\n```\nLet me know if you need more."

	v, err := ParseVerdict(text)
	require.NoError(t, err)

	assert.True(t, v.IsLegitimate)
	assert.Equal(t, 85.0, v.ConfidenceScore)
	assert.Equal(t, 12.0, v.PricingGlitchProbability)
	assert.Equal(t, "Normal clearance {sale} pricing.", v.Analysis)
	assert.Equal(t, []string{"none major"}, v.SuspiciousFactors)
	assert.Equal(t, models.RecommendHigh, v.Recommendation)
}

func TestParseVerdictDefaultsAndClamps(t *testing.T) {
	v, err := ParseVerdict(`{"confidenceScore": 180, "pricingGlitchProbability": -4, "recommendation": "AMAZING", "suspiciousFactors": "odd"}`)
	require.NoError(t, err)

	assert.False(t, v.IsLegitimate)
	assert.Equal(t, 100.0, v.ConfidenceScore)
	assert.Equal(t, 0.0, v.PricingGlitchProbability)
	assert.Equal(t, models.RecommendMedium, v.Recommendation)
	assert.Equal(t, []string{"odd"}, v.SuspiciousFactors)
}

func TestParseVerdictMissingFields(t *testing.T) {
	v, err := ParseVerdict(`{"analysis": "thin"}`)
	require.NoError(t, err)

	assert.Equal(t, 50.0, v.ConfidenceScore)
	assert.Equal(t, 0.0, v.PricingGlitchProbability)
	assert.Equal(t, models.RecommendMedium, v.Recommendation)
	assert.NotNil(t, v.SuspiciousFactors)
	assert.Empty(t, v.SuspiciousFactors)
}

func TestParseVerdictStringNumbers(t *testing.T) {
	v, err := ParseVerdict(`{"isLegitimate": "true", "confidenceScore": "72", "pricingGlitchProbability": "80%", "suspiciousFactors": [1, "real", ""]}`)
	require.NoError(t, err)

	assert.True(t, v.IsLegitimate)
	assert.Equal(t, 72.0, v.ConfidenceScore)
	assert.Equal(t, 80.0, v.PricingGlitchProbability)
	assert.Equal(t, []string{"real"}, v.SuspiciousFactors)
}

func TestParseVerdictSkipsBrokenObject(t *testing.T) {
	v, err := ParseVerdict(`{not json} then {"confidenceScore": 33}`)
	require.NoError(t, err)
	assert.Equal(t, 33.0, v.ConfidenceScore)

	v, err = ParseVerdict(`Note: the { character aside, here it is: {"confidenceScore": 80}`)
	require.NoError(t, err)
	assert.Equal(t, 80.0, v.ConfidenceScore)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate(strings.Repeat("é", 10), 6)
	assert.Equal(t, "ééé...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "short", truncate("short", 6))
}

func TestParseVerdictNoJSON(t *testing.T) {
	for _, text := range []string{"", "I cannot help with that.", `{"unterminated": true`} {
		_, err := ParseVerdict(text)
		assert.ErrorIs(t, err, ErrNoJSON, text)
	}
}
