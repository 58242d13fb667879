package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// RawExtraction holds unprocessed text pulled from a single listing on a
// results page, before any numeric parsing. It is discarded after
// normalization unless a raw sink records it.
type RawExtraction struct {
	Site              string
	Title             string
	PriceText         string
	OriginalPriceText string
	Image             string
	Link              string
	Availability      string
	ScrapedAt         time.Time
}

// Deal is a normalized listing with pricing and discount data.
// CurrentPrice is always > 0. DiscountPercentage is the reported value.
type Deal struct {
	Title              string    `json:"title"`
	OriginalPrice      *float64  `json:"originalPrice"`
	CurrentPrice       float64   `json:"currentPrice"`
	DiscountPercentage int       `json:"discountPercentage"`
	URL                string    `json:"url"`
	Image              string    `json:"image,omitempty"`
	Site               string    `json:"site"`
	Availability       string    `json:"availability"`
	ScrapedAt          time.Time `json:"scrapedAt"`
}

// Original returns the original price, or 0 when unknown.
func (d *Deal) Original() float64 {
	if d.OriginalPrice == nil {
		return 0
	}
	return *d.OriginalPrice
}

// Hash returns the deal's identity hash.
func (d *Deal) Hash() string {
	return IdentityHash(d.Site, d.Title, d.CurrentPrice)
}

// IdentityHash derives the dedup key from site, lowercased trimmed title and
// current price. Storage upserts on the same key.
func IdentityHash(site, title string, currentPrice float64) string {
	key := strings.ToLower(strings.TrimSpace(site)) + "|" +
		strings.Join(strings.Fields(strings.ToLower(title)), " ") + "|" +
		strconv.FormatFloat(currentPrice, 'f', 2, 64)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Float returns a pointer to v; handy for optional prices.
func Float(v float64) *float64 {
	return &v
}

// ScrapeResult is the outcome of one multi-site scrape.
type ScrapeResult struct {
	Query       string
	Deals       []*Deal
	FailedSites map[string]error
	Started     time.Time
	Finished    time.Time
}
