package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-scout/models"
)

// stubJudge answers from a per-title table, defaulting to a confident verdict.
type stubJudge struct {
	verdicts map[string]*models.AIVerdict
	fail     map[string]bool
	calls    int
}

func (s *stubJudge) Judge(_ context.Context, d *models.Deal, _ float64) (*models.AIVerdict, error) {
	s.calls++
	if s.fail[d.Title] {
		return nil, errors.New("providers down")
	}
	if v, ok := s.verdicts[d.Title]; ok {
		copied := *v
		return &copied, nil
	}
	return &models.AIVerdict{IsLegitimate: true, ConfidenceScore: 80, Recommendation: models.RecommendHigh}, nil
}

func newStubJudge() *stubJudge {
	return &stubJudge{verdicts: map[string]*models.AIVerdict{}, fail: map[string]bool{}}
}

func testDeal(title string, original, current float64) *models.Deal {
	return &models.Deal{
		Title:              title,
		Site:               "shop",
		OriginalPrice:      models.Float(original),
		CurrentPrice:       current,
		DiscountPercentage: DiscountPercent(models.Float(original), current),
	}
}

var defaultOpts = FilterOptions{MinDiscount: 50, MinConfidence: 60, MaxResults: 10}

func TestFilterAcceptsHighDiscount(t *testing.T) {
	f := NewDealFilter(newStubJudge(), newTestLogger(), 0, 0)

	out := f.Filter(context.Background(), []*models.Deal{testDeal("Cordless Drill Kit 20V", 250, 20)}, defaultOpts)

	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0].FilteringReason, "High discount deal"), out[0].FilteringReason)
	assert.Equal(t, models.RecommendHigh, out[0].RecommendationLevel)
	assert.Equal(t, out[0].Deal.Hash(), out[0].Hash)
	assert.GreaterOrEqual(t, out[0].ConfidenceScore, 60.0)
	assert.LessOrEqual(t, out[0].ConfidenceScore, 100.0)
}

func TestFilterDropsDuplicates(t *testing.T) {
	judge := newStubJudge()
	f := NewDealFilter(judge, newTestLogger(), 0, 0)

	a := testDeal("Cordless Drill Kit 20V", 250, 20)
	b := testDeal("  cordless drill KIT 20v ", 250, 20)

	out := f.Filter(context.Background(), []*models.Deal{a, b}, defaultOpts)
	assert.Len(t, out, 1)
	assert.Equal(t, 1, judge.calls)

	// the dedup set outlives a single call
	out = f.Filter(context.Background(), []*models.Deal{a}, defaultOpts)
	assert.Empty(t, out)

	f.Seen().Reset()
	out = f.Filter(context.Background(), []*models.Deal{a}, defaultOpts)
	assert.Len(t, out, 1)
}

func TestFilterGlitchPath(t *testing.T) {
	judge := newStubJudge()
	judge.verdicts["Gaming Laptop RTX"] = &models.AIVerdict{ConfidenceScore: 60, PricingGlitchProbability: 75}
	judge.verdicts["Plain Desk Lamp LED"] = &models.AIVerdict{ConfidenceScore: 60, PricingGlitchProbability: 40}
	f := NewDealFilter(judge, newTestLogger(), 0, 0)

	deals := []*models.Deal{
		testDeal("Gaming Laptop RTX", 1000, 510), // 49% off
		testDeal("Plain Desk Lamp LED", 100, 51), // 49% off
	}
	out := f.Filter(context.Background(), deals, defaultOpts)

	require.Len(t, out, 1)
	assert.Equal(t, "Gaming Laptop RTX", out[0].Title)
	assert.True(t, strings.HasPrefix(out[0].FilteringReason, "Pricing glitch (75% probability)"))
}

func TestFilterSkipsAIFailuresAndFabrications(t *testing.T) {
	judge := newStubJudge()
	judge.fail["Broken Provider Item"] = true
	f := NewDealFilter(judge, newTestLogger(), 0, 0)

	fabricated := testDeal("Fabricated Claim Item", 100, 70)
	fabricated.DiscountPercentage = 95

	deals := []*models.Deal{
		testDeal("Broken Provider Item", 300, 30),
		fabricated,
		testDeal("Working Item Deluxe", 300, 30),
	}
	out := f.Filter(context.Background(), deals, defaultOpts)

	require.Len(t, out, 1)
	assert.Equal(t, "Working Item Deluxe", out[0].Title)
	assert.Equal(t, 2, judge.calls, "fabricated claim never reaches the judge")
}

func TestFilterRetriesDealsWhoseJudgementFailed(t *testing.T) {
	judge := newStubJudge()
	judge.fail["Flaky Provider Item"] = true
	f := NewDealFilter(judge, newTestLogger(), 0, 0)
	deal := testDeal("Flaky Provider Item", 300, 30)

	out := f.Filter(context.Background(), []*models.Deal{deal}, defaultOpts)
	assert.Empty(t, out)
	assert.False(t, f.Seen().Contains(deal.Hash()))

	judge.fail["Flaky Provider Item"] = false
	out = f.Filter(context.Background(), []*models.Deal{deal}, defaultOpts)
	require.Len(t, out, 1)
	assert.Equal(t, 2, judge.calls)
	assert.True(t, f.Seen().Contains(deal.Hash()))
}

func TestFilterRanksAndTruncates(t *testing.T) {
	judge := newStubJudge()
	judge.verdicts["Item Alpha Standard"] = &models.AIVerdict{ConfidenceScore: 70, PricingGlitchProbability: 0}
	judge.verdicts["Item Bravo Glitchy"] = &models.AIVerdict{ConfidenceScore: 70, PricingGlitchProbability: 90}
	judge.verdicts["Item Charlie Solid"] = &models.AIVerdict{ConfidenceScore: 95, PricingGlitchProbability: 0}
	f := NewDealFilter(judge, newTestLogger(), 0, 0)

	deals := []*models.Deal{
		testDeal("Item Alpha Standard", 100, 40),
		testDeal("Item Bravo Glitchy", 100, 40),
		testDeal("Item Charlie Solid", 100, 40),
	}
	out := f.Filter(context.Background(), deals, FilterOptions{MinDiscount: 50, MinConfidence: 0, MaxResults: 2})

	require.Len(t, out, 2)
	assert.Equal(t, "Item Bravo Glitchy", out[0].Title)
	assert.Equal(t, "Item Charlie Solid", out[1].Title)
	assert.GreaterOrEqual(t, out[0].RankKey(), out[1].RankKey())
}

func TestFilterMergesSuspicionFactors(t *testing.T) {
	judge := newStubJudge()
	judge.verdicts["Sony Headphones Pro"] = &models.AIVerdict{
		ConfidenceScore:   90,
		SuspiciousFactors: []string{"unusually low for brand"},
	}
	f := NewDealFilter(judge, newTestLogger(), 0, 0)

	out := f.Filter(context.Background(), []*models.Deal{testDeal("Sony Headphones Pro", 350, 15)},
		FilterOptions{MinDiscount: 50, MinConfidence: 0, MaxResults: 5})

	require.Len(t, out, 1)
	assert.Len(t, out[0].SuspiciousFactors, 2)
	assert.Contains(t, out[0].SuspiciousFactors, "unusually low for brand")
}

func TestFilterPausesBetweenBatches(t *testing.T) {
	f := NewDealFilter(newStubJudge(), newTestLogger(), 2, 30*time.Millisecond)

	var deals []*models.Deal
	for _, title := range []string{"Batch Item One", "Batch Item Two", "Batch Item Three", "Batch Item Four", "Batch Item Five"} {
		deals = append(deals, testDeal(title, 100, 30))
	}

	start := time.Now()
	out := f.Filter(context.Background(), deals, defaultOpts)
	assert.Len(t, out, 5)
	// pauses after the 2nd and 4th judged deal
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestMergeFactors(t *testing.T) {
	got := mergeFactors([]string{"a", "b"}, []string{"b", "", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.NotNil(t, mergeFactors())
}
