package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"deal-scout/models"
	"deal-scout/utils"
)

const topRankedCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarizes one run's accepted deals. failed carries the sites
// the scraper gave up on and may be nil.
func (s *InsightService) Generate(deals []*models.FilteredDeal, failed map[string]error) *models.InsightReport {
	report := &models.InsightReport{
		DealsBySite: make(map[string]int),
	}
	for site := range failed {
		report.FailedSites = append(report.FailedSites, site)
	}
	sort.Strings(report.FailedSites)

	if len(deals) == 0 {
		return report
	}

	report.TotalDeals = len(deals)

	var discountTotal, scoreTotal float64
	for _, d := range deals {
		discountTotal += d.ActualDiscount
		scoreTotal += d.ConfidenceScore
		report.DealsBySite[d.Site]++
		if d.PricingGlitchProbability >= GlitchAcceptThreshold {
			report.GlitchDeals++
		}
		if report.BestDiscount == nil || d.ActualDiscount > report.BestDiscount.ActualDiscount {
			report.BestDiscount = d
		}
	}
	report.AverageDiscount = round2(discountTotal / float64(len(deals)))
	report.AverageScore = round2(scoreTotal / float64(len(deals)))

	ranked := make([]*models.FilteredDeal, len(deals))
	copy(ranked, deals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RankKey() > ranked[j].RankKey()
	})
	if len(ranked) > topRankedCount {
		ranked = ranked[:topRankedCount]
	}
	report.TopRanked = ranked

	s.logger.Debug("[insights] %d deals, %d glitches, %d failed sites",
		report.TotalDeals, report.GlitchDeals, len(report.FailedSites))
	return report
}

// Print writes the report to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	s.Fprint(os.Stdout, r)
}

func (s *InsightService) Fprint(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏷  DEAL SCOUT RUN INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Accepted deals   : \033[1m%d\033[0m\n", r.TotalDeals)
	fmt.Fprintf(w, "  Pricing glitches : \033[1m%d\033[0m\n", r.GlitchDeals)
	if r.TotalDeals > 0 {
		fmt.Fprintf(w, "  Average discount : \033[1;32m%.2f%%\033[0m\n", r.AverageDiscount)
		fmt.Fprintf(w, "  Average score    : \033[1;32m%.2f\033[0m\n", r.AverageScore)
	}
	if len(r.FailedSites) > 0 {
		fmt.Fprintf(w, "  Failed sites     : \033[1;31m%s\033[0m\n", strings.Join(r.FailedSites, ", "))
	}
	fmt.Fprintln(w)

	if r.BestDiscount != nil {
		b := r.BestDiscount
		fmt.Fprintf(w, "\033[1;33m  Deepest Discount\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(b.Title, 50))
		fmt.Fprintf(w, "  Site  : %s\n", b.Site)
		fmt.Fprintf(w, "  Price : \033[1;31m$%.2f\033[0m (was $%.2f, %.1f%% off)\n", b.CurrentPrice, b.Original(), b.ActualDiscount)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Top %d Ranked Deals\033[0m\n", topRankedCount)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRanked) == 0 {
		fmt.Fprintf(w, "  No deals passed filtering\n")
	} else {
		for i, d := range r.TopRanked {
			marker := ""
			if d.PricingGlitchProbability >= GlitchAcceptThreshold {
				marker = " \033[1;31m⚡\033[0m"
			}
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-36s \033[1;32m%5.1f\033[0m %3d%% off%s\n",
				i+1, truncate(d.Title, 34), d.ConfidenceScore, d.DiscountPercentage, marker)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Deals by Site\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.DealsBySite) == 0 {
		fmt.Fprintf(w, "  No site data\n")
	} else {
		type siteCount struct {
			site  string
			count int
		}
		var counts []siteCount
		for site, cnt := range r.DealsBySite {
			counts = append(counts, siteCount{site, cnt})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].site < counts[j].site
		})
		for _, sc := range counts {
			bar := strings.Repeat("█", sc.count)
			fmt.Fprintf(w, "  %-12s %s (%d)\n", sc.site, bar, sc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
