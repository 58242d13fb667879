package models

// InsightReport holds the computed analytics over one run's accepted deals.
type InsightReport struct {
	TotalDeals      int
	GlitchDeals     int
	AverageDiscount float64
	AverageScore    float64
	BestDiscount    *FilteredDeal
	TopRanked       []*FilteredDeal
	DealsBySite     map[string]int
	FailedSites     []string
}
