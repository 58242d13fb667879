package services

import (
	"fmt"
	"math"

	"deal-scout/models"
)

const (
	baseScore            = 50.0
	maxDiscountBonus     = 30.0
	invalidMathPenalty   = 20.0
	aiConfidenceWeight   = 40.0
	perSuspicionPenalty  = 5.0
	maxSuspicionPenalty  = 30.0
	glitchBonus          = 20.0
	glitchBonusThreshold = 70.0
)

// GlitchAcceptThreshold admits a deal on glitch probability alone.
const GlitchAcceptThreshold = 70.0

// Score blends math validity, AI confidence and suspicion into [0,100].
func Score(m MathResult, v *models.AIVerdict, suspiciousCount int) float64 {
	score := baseScore

	if m.Valid {
		score += math.Min(maxDiscountBonus, m.ActualDiscount*0.3)
	} else {
		score -= invalidMathPenalty
	}

	score += v.ConfidenceScore / 100 * aiConfidenceWeight
	score -= math.Min(maxSuspicionPenalty, float64(suspiciousCount)*perSuspicionPenalty)

	if v.PricingGlitchProbability > glitchBonusThreshold {
		score += glitchBonus
	}

	return clamp(score, 0, 100)
}

// Decision is the acceptance outcome for one deal.
type Decision struct {
	Accepted bool
	Glitch   bool
	Reason   string
}

// Decide applies the caller's thresholds. A deal passes on discount or on
// glitch probability, and in either case needs score >= minConfidence.
func Decide(actualDiscount, glitchProbability, score float64, minDiscount int, minConfidence float64) Decision {
	glitch := glitchProbability >= GlitchAcceptThreshold
	qualifies := actualDiscount >= float64(minDiscount) || glitch

	d := Decision{
		Accepted: qualifies && score >= minConfidence,
		Glitch:   glitch,
	}
	if glitch {
		d.Reason = fmt.Sprintf("Pricing glitch (%.0f%% probability)", glitchProbability)
	} else {
		d.Reason = fmt.Sprintf("High discount deal (%.0f%% off)", actualDiscount)
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
