package services

import (
	"fmt"
	"math"

	"deal-scout/models"
)

const (
	// DiscountTolerance is how far, in percentage points, a reported
	// discount may drift from the price-derived one before it is flagged.
	DiscountTolerance = 5.0

	// MinValidDiscount is the smallest price-derived discount that counts as valid.
	MinValidDiscount = 50.0

	// ExtremeDiscount marks price-derived discounts worth flagging on their own.
	ExtremeDiscount = 95.0
)

// MathResult is the outcome of recomputing a deal's discount from its prices.
type MathResult struct {
	// Valid means the prices are coherent and the real discount is at least MinValidDiscount.
	Valid bool

	// Rejected means the deal must not proceed at all.
	Rejected       bool
	ActualDiscount float64
	Flags          []string
}

// ValidateMath recomputes the discount from the deal's prices and compares
// it with the reported one.
func ValidateMath(d *models.Deal) MathResult {
	var res MathResult

	original := d.Original()
	switch {
	case original <= 0:
		res.Flags = append(res.Flags, "missing original price")
		return res
	case d.CurrentPrice <= 0:
		res.Flags = append(res.Flags, "non-positive current price")
		return res
	case d.CurrentPrice >= original:
		res.Flags = append(res.Flags, "current price not below original price")
		return res
	}

	res.ActualDiscount = 100 * (original - d.CurrentPrice) / original
	reported := float64(d.DiscountPercentage)

	if math.Abs(res.ActualDiscount-reported) > DiscountTolerance {
		res.Flags = append(res.Flags, fmt.Sprintf("discount mismatch: reported %d%%, actual %.1f%%",
			d.DiscountPercentage, res.ActualDiscount))
	}

	if reported >= 90 && res.ActualDiscount < MinValidDiscount {
		res.Rejected = true
		res.Flags = append(res.Flags, fmt.Sprintf("fabricated discount claim: reported %d%%, actual %.1f%%",
			d.DiscountPercentage, res.ActualDiscount))
		return res
	}

	if res.ActualDiscount > ExtremeDiscount {
		res.Flags = append(res.Flags, fmt.Sprintf("extreme discount %.1f%%", res.ActualDiscount))
	}

	res.Valid = res.ActualDiscount >= MinValidDiscount
	if !res.Valid {
		res.Flags = append(res.Flags, fmt.Sprintf("discount %.1f%% below %.0f%%", res.ActualDiscount, MinValidDiscount))
	}
	return res
}
