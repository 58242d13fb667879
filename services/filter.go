package services

import (
	"context"
	"sort"
	"time"

	"deal-scout/models"
	"deal-scout/utils"
)

// Judge gives an AI verdict on a deal.
type Judge interface {
	Judge(ctx context.Context, d *models.Deal, actualDiscount float64) (*models.AIVerdict, error)
}

// FilterOptions are the caller's per-run thresholds.
type FilterOptions struct {
	MinDiscount   int
	MinConfidence float64
	MaxResults    int
}

// DealFilter runs each deal through dedup, math validation, heuristics,
// the AI judge and scoring. Its dedup set lives as long as the filter.
type DealFilter struct {
	judge      Judge
	seen       *utils.HashSet
	logger     *utils.Logger
	pauseEvery int
	pause      time.Duration
}

// NewDealFilter creates a filter with a fresh dedup set. Every pauseEvery
// judged deals it sleeps for pause to stay under provider rate limits.
func NewDealFilter(judge Judge, logger *utils.Logger, pauseEvery int, pause time.Duration) *DealFilter {
	return &DealFilter{
		judge:      judge,
		seen:       utils.NewHashSet(),
		logger:     logger,
		pauseEvery: pauseEvery,
		pause:      pause,
	}
}

// Seen exposes the dedup registry, mainly so callers can Reset it between runs.
func (f *DealFilter) Seen() *utils.HashSet {
	return f.seen
}

// Filter returns the accepted deals ranked by score plus half the glitch
// probability, truncated to opts.MaxResults. Per-deal failures are logged
// and skipped.
func (f *DealFilter) Filter(ctx context.Context, deals []*models.Deal, opts FilterOptions) []*models.FilteredDeal {
	f.logger.Info("[filter] Filtering %d deals (min discount %d%%, min confidence %.0f, max %d)",
		len(deals), opts.MinDiscount, opts.MinConfidence, opts.MaxResults)

	var accepted []*models.FilteredDeal
	judged := 0
	stats := struct{ dup, rejected, aiFailed, declined int }{}

	for _, d := range deals {
		if ctx.Err() != nil {
			f.logger.Warn("[filter] Stopping early: %v", ctx.Err())
			break
		}

		hash := d.Hash()
		if f.seen.Contains(hash) {
			stats.dup++
			f.logger.Debug("[filter] Duplicate skipped: %s", d.Title)
			continue
		}

		m := ValidateMath(d)
		if m.Rejected {
			f.seen.Add(hash)
			stats.rejected++
			f.logger.Debug("[filter] Rejected %q: %v", d.Title, m.Flags)
			continue
		}

		suspicious := DetectSuspicious(d)

		if judged > 0 && f.pauseEvery > 0 && judged%f.pauseEvery == 0 && f.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(f.pause):
			}
		}
		judged++

		// Unjudged deals stay out of the seen set so a later call retries them.
		verdict, err := f.judge.Judge(ctx, d, m.ActualDiscount)
		if err != nil {
			stats.aiFailed++
			f.logger.Error("[filter] AI judgement failed for %q: %v", d.Title, err)
			continue
		}
		f.seen.Add(hash)

		factors := mergeFactors(suspicious, verdict.SuspiciousFactors)
		score := Score(m, verdict, len(factors))
		decision := Decide(m.ActualDiscount, verdict.PricingGlitchProbability, score, opts.MinDiscount, opts.MinConfidence)
		if !decision.Accepted {
			stats.declined++
			f.logger.Debug("[filter] Declined %q: score %.1f, discount %.1f%%, glitch %.0f%%",
				d.Title, score, m.ActualDiscount, verdict.PricingGlitchProbability)
			continue
		}

		flags := append([]string{}, m.Flags...)
		if !verdict.IsLegitimate {
			flags = append(flags, "ai: not judged legitimate")
		}

		accepted = append(accepted, &models.FilteredDeal{
			Deal:                     *d,
			Hash:                     hash,
			ActualDiscount:           m.ActualDiscount,
			ConfidenceScore:          score,
			PricingGlitchProbability: verdict.PricingGlitchProbability,
			FilteringReason:          decision.Reason,
			ValidationFlags:          flags,
			AIAnalysis:               verdict.Analysis,
			SuspiciousFactors:        factors,
			RecommendationLevel:      verdict.Recommendation,
			UpdatedAt:                time.Now(),
		})
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].RankKey() > accepted[j].RankKey()
	})
	if opts.MaxResults > 0 && len(accepted) > opts.MaxResults {
		accepted = accepted[:opts.MaxResults]
	}

	f.logger.Info("[filter] Accepted %d of %d (duplicates %d, math-rejected %d, AI failures %d, below thresholds %d)",
		len(accepted), len(deals), stats.dup, stats.rejected, stats.aiFailed, stats.declined)
	return accepted
}

// mergeFactors combines heuristic and AI suspicion factors, dropping repeats.
func mergeFactors(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, f := range list {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
