package models

import (
	"strings"
	"time"
)

// Recommendation is the AI's coarse verdict on how strongly to surface a deal.
type Recommendation string

const (
	RecommendHigh   Recommendation = "HIGH"
	RecommendMedium Recommendation = "MEDIUM"
	RecommendLow    Recommendation = "LOW"
)

// ParseRecommendation maps free text onto a Recommendation, defaulting to MEDIUM.
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(strings.ToUpper(strings.TrimSpace(s))) {
	case RecommendHigh:
		return RecommendHigh
	case RecommendLow:
		return RecommendLow
	default:
		return RecommendMedium
	}
}

// AIVerdict is the structured answer of a legitimacy judge.
type AIVerdict struct {
	IsLegitimate             bool           `json:"isLegitimate"`
	ConfidenceScore          float64        `json:"confidenceScore"`
	PricingGlitchProbability float64        `json:"pricingGlitchProbability"`
	Analysis                 string         `json:"analysis"`
	SuspiciousFactors        []string       `json:"suspiciousFactors"`
	Recommendation           Recommendation `json:"recommendation"`
	Provider                 string         `json:"provider"`
}

// FilteredDeal is a Deal that passed filtering, plus decision metadata.
type FilteredDeal struct {
	Deal
	Hash                     string         `json:"hash"`
	ActualDiscount           float64        `json:"actualDiscount"`
	ConfidenceScore          float64        `json:"confidenceScore"`
	PricingGlitchProbability float64        `json:"pricingGlitchProbability"`
	FilteringReason          string         `json:"filteringReason"`
	ValidationFlags          []string       `json:"validationFlags"`
	AIAnalysis               string         `json:"aiAnalysis"`
	SuspiciousFactors        []string       `json:"suspiciousFactors"`
	RecommendationLevel      Recommendation `json:"recommendationLevel"`
	RunID                    string         `json:"runId,omitempty"`
	UpdatedAt                time.Time      `json:"updatedAt"`
}

// RankKey orders accepted deals: higher confidence first, glitches boosted.
func (f *FilteredDeal) RankKey() float64 {
	return f.ConfidenceScore + 0.5*f.PricingGlitchProbability
}

// DealQuery describes a read against the deal store.
type DealQuery struct {
	Site                 string
	MinDiscount          int
	MinConfidence        float64
	MinGlitchProbability float64
	Recommendation       Recommendation
	Since                time.Time
	Limit                int
	SortBy               string // discount | confidence | glitch | updated
}
