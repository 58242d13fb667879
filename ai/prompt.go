package ai

import (
	"fmt"
	"strings"

	"deal-scout/models"
)

const promptTemplate = `You are an e-commerce pricing analyst. Decide whether the listing below is a legitimate deal, a retailer pricing glitch, or misleading.

Listing:
- Title: %s
- Site: %s
- Current price: $%.2f
- Original price: %s
- Reported discount: %d%%
- Discount computed from prices: %.1f%%
- Availability: %s

Analyse these five axes:
1. Price math validity: do the prices support the reported discount?
2. Market realism: is the current price plausible for this product in the current market?
3. Glitch likelihood: does the price look like a retailer mistake rather than an intentional promotion?
4. Title legitimacy: is the title a coherent, real product name rather than spam or corrupted text?
5. Discount plausibility: is a discount of this size believable for this category and retailer?

Respond with strict JSON only, no prose, in exactly this shape:
{
  "isLegitimate": true,
  "confidenceScore": 0,
  "pricingGlitchProbability": 0,
  "analysis": "one or two sentences",
  "suspiciousFactors": ["..."],
  "recommendation": "HIGH"
}
confidenceScore and pricingGlitchProbability are integers from 0 to 100. recommendation is one of HIGH, MEDIUM, LOW.`

// BuildPrompt renders the legitimacy prompt for a deal.
func BuildPrompt(d *models.Deal, actualDiscount float64) string {
	original := "unknown"
	if d.OriginalPrice != nil {
		original = fmt.Sprintf("$%.2f", *d.OriginalPrice)
	}
	availability := strings.TrimSpace(d.Availability)
	if availability == "" {
		availability = "not stated"
	}
	return fmt.Sprintf(promptTemplate,
		d.Title, d.Site, d.CurrentPrice, original, d.DiscountPercentage, actualDiscount, availability)
}
