package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"deal-scout/models"
)

// PostgresStore persists filtered deals to PostgreSQL, one row per identity hash.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS deals (
			id                         SERIAL PRIMARY KEY,
			hash                       CHAR(64)      UNIQUE NOT NULL,
			site                       VARCHAR(50)   NOT NULL,
			title                      TEXT          NOT NULL,
			original_price             NUMERIC(12,2),
			current_price              NUMERIC(12,2) NOT NULL,
			discount_percentage        INTEGER       NOT NULL DEFAULT 0,
			actual_discount            NUMERIC(5,2)  NOT NULL DEFAULT 0,
			url                        TEXT          NOT NULL DEFAULT '',
			image                      TEXT          NOT NULL DEFAULT '',
			availability               TEXT          NOT NULL DEFAULT '',
			confidence_score           NUMERIC(5,2)  NOT NULL DEFAULT 0,
			pricing_glitch_probability NUMERIC(5,2)  NOT NULL DEFAULT 0,
			filtering_reason           TEXT          NOT NULL DEFAULT '',
			validation_flags           TEXT[]        NOT NULL DEFAULT '{}',
			ai_analysis                TEXT          NOT NULL DEFAULT '',
			suspicious_factors         TEXT[]        NOT NULL DEFAULT '{}',
			recommendation_level       VARCHAR(10)   NOT NULL DEFAULT 'MEDIUM',
			run_id                     TEXT          NOT NULL DEFAULT '',
			scraped_at                 TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at                 TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_deals_site       ON deals(site);
		CREATE INDEX IF NOT EXISTS idx_deals_discount   ON deals(discount_percentage);
		CREATE INDEX IF NOT EXISTS idx_deals_confidence ON deals(confidence_score);
		CREATE INDEX IF NOT EXISTS idx_deals_glitch     ON deals(pricing_glitch_probability);
		CREATE INDEX IF NOT EXISTS idx_deals_updated    ON deals(updated_at);
	`)
	return err
}

const upsertDeal = `
	INSERT INTO deals (
		hash, site, title, original_price, current_price, discount_percentage,
		actual_discount, url, image, availability, confidence_score,
		pricing_glitch_probability, filtering_reason, validation_flags,
		ai_analysis, suspicious_factors, recommendation_level, run_id,
		scraped_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,NOW())
	ON CONFLICT (hash) DO UPDATE SET
		original_price             = EXCLUDED.original_price,
		discount_percentage        = EXCLUDED.discount_percentage,
		actual_discount            = EXCLUDED.actual_discount,
		url                        = EXCLUDED.url,
		image                      = EXCLUDED.image,
		availability               = EXCLUDED.availability,
		confidence_score           = EXCLUDED.confidence_score,
		pricing_glitch_probability = EXCLUDED.pricing_glitch_probability,
		filtering_reason           = EXCLUDED.filtering_reason,
		validation_flags           = EXCLUDED.validation_flags,
		ai_analysis                = EXCLUDED.ai_analysis,
		suspicious_factors         = EXCLUDED.suspicious_factors,
		recommendation_level       = EXCLUDED.recommendation_level,
		run_id                     = EXCLUDED.run_id,
		scraped_at                 = EXCLUDED.scraped_at,
		updated_at                 = NOW()
`

// SaveDeal upserts d by its identity hash. Saving the same deal twice
// leaves one row whose updated_at moved forward.
func (ps *PostgresStore) SaveDeal(ctx context.Context, d *models.FilteredDeal) error {
	hash := d.Hash
	if hash == "" {
		hash = d.Deal.Hash()
	}
	var original sql.NullFloat64
	if d.OriginalPrice != nil {
		original = sql.NullFloat64{Float64: *d.OriginalPrice, Valid: true}
	}
	scrapedAt := d.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	_, err := ps.db.ExecContext(ctx, upsertDeal,
		hash, d.Site, d.Title, original, d.CurrentPrice, d.DiscountPercentage,
		d.ActualDiscount, d.URL, d.Image, d.Availability, d.ConfidenceScore,
		d.PricingGlitchProbability, d.FilteringReason, pq.Array(nonNil(d.ValidationFlags)),
		d.AIAnalysis, pq.Array(nonNil(d.SuspiciousFactors)), string(d.RecommendationLevel), d.RunID,
		scrapedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save deal %q: %w", d.Title, err)
	}
	return nil
}

// GetDeals returns stored deals matching q.
func (ps *PostgresStore) GetDeals(ctx context.Context, q models.DealQuery) ([]*models.FilteredDeal, error) {
	query, args := buildDealQuery(q)
	rows, err := ps.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: get deals: %w", err)
	}
	defer rows.Close()

	var deals []*models.FilteredDeal
	for rows.Next() {
		d := &models.FilteredDeal{}
		var (
			original sql.NullFloat64
			rec      string
		)
		if err := rows.Scan(
			&d.Hash, &d.Site, &d.Title, &original, &d.CurrentPrice, &d.DiscountPercentage,
			&d.ActualDiscount, &d.URL, &d.Image, &d.Availability, &d.ConfidenceScore,
			&d.PricingGlitchProbability, &d.FilteringReason, pq.Array(&d.ValidationFlags),
			&d.AIAnalysis, pq.Array(&d.SuspiciousFactors), &rec, &d.RunID,
			&d.ScrapedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if original.Valid {
			d.OriginalPrice = models.Float(original.Float64)
		}
		d.RecommendationLevel = models.ParseRecommendation(rec)
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// GetTopDeals returns the highest-discount deals at or above minDiscount.
func (ps *PostgresStore) GetTopDeals(ctx context.Context, minDiscount, limit int) ([]*models.FilteredDeal, error) {
	return ps.GetDeals(ctx, models.DealQuery{MinDiscount: minDiscount, Limit: limit, SortBy: "discount"})
}

// GetPricingGlitches returns deals whose glitch probability is at least minProbability.
func (ps *PostgresStore) GetPricingGlitches(ctx context.Context, minProbability float64, limit int) ([]*models.FilteredDeal, error) {
	return ps.GetDeals(ctx, models.DealQuery{MinGlitchProbability: minProbability, Limit: limit, SortBy: "glitch"})
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

const selectDeals = `SELECT hash, site, title, original_price, current_price, discount_percentage,
	actual_discount, url, image, availability, confidence_score,
	pricing_glitch_probability, filtering_reason, validation_flags,
	ai_analysis, suspicious_factors, recommendation_level, run_id,
	scraped_at, updated_at
	FROM deals`

var sortColumns = map[string]string{
	"discount":   "discount_percentage DESC, confidence_score DESC",
	"confidence": "confidence_score DESC, discount_percentage DESC",
	"glitch":     "pricing_glitch_probability DESC, confidence_score DESC",
	"updated":    "updated_at DESC",
}

// buildDealQuery renders q as a parameterized SELECT.
func buildDealQuery(q models.DealQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.Site != "" {
		add("LOWER(site) = LOWER($%d)", q.Site)
	}
	if q.MinDiscount > 0 {
		add("discount_percentage >= $%d", q.MinDiscount)
	}
	if q.MinConfidence > 0 {
		add("confidence_score >= $%d", q.MinConfidence)
	}
	if q.MinGlitchProbability > 0 {
		add("pricing_glitch_probability >= $%d", q.MinGlitchProbability)
	}
	if q.Recommendation != "" {
		add("recommendation_level = $%d", string(q.Recommendation))
	}
	if !q.Since.IsZero() {
		add("updated_at >= $%d", q.Since)
	}

	var b strings.Builder
	b.WriteString(selectDeals)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	order, ok := sortColumns[q.SortBy]
	if !ok {
		order = sortColumns["confidence"]
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
