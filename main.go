package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"deal-scout/ai"
	"deal-scout/config"
	"deal-scout/models"
	"deal-scout/scraper"
	"deal-scout/scraper/sites"
	"deal-scout/services"
	"deal-scout/storage"
	"deal-scout/utils"
)

func main() {
	logger := utils.NewLogger()

	app := &cli.App{
		Name:  "deal-scout",
		Usage: "discover, validate and rank unusually large e-commerce discounts",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "scrape the target sites, filter the results and store accepted deals",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search query (default SEARCH_QUERY)"},
					&cli.StringFlag{Name: "sites", Usage: "comma-separated site names (default all)"},
					&cli.IntFlag{Name: "min-discount", Usage: "minimum discount percent"},
					&cli.Float64Flag{Name: "min-confidence", Usage: "minimum score 0-100"},
					&cli.IntFlag{Name: "max-results", Usage: "maximum accepted deals"},
					&cli.BoolFlag{Name: "dry-run", Usage: "skip PostgreSQL and only print the report"},
				},
				Action: func(c *cli.Context) error { return runAction(c, logger) },
			},
			{
				Name:  "top",
				Usage: "list the highest-discount stored deals",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "min-discount", Value: 50},
					&cli.IntFlag{Name: "limit", Value: 10},
				},
				Action: func(c *cli.Context) error {
					return withStore(c.Context, func(store storage.DealStore) error {
						deals, err := store.GetTopDeals(c.Context, c.Int("min-discount"), c.Int("limit"))
						if err != nil {
							return err
						}
						printDeals(deals)
						return nil
					})
				},
			},
			{
				Name:  "glitches",
				Usage: "list stored deals that look like pricing errors",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "min-probability", Value: services.GlitchAcceptThreshold},
					&cli.IntFlag{Name: "limit", Value: 10},
				},
				Action: func(c *cli.Context) error {
					return withStore(c.Context, func(store storage.DealStore) error {
						deals, err := store.GetPricingGlitches(c.Context, c.Float64("min-probability"), c.Int("limit"))
						if err != nil {
							return err
						}
						printDeals(deals)
						return nil
					})
				},
			},
			{
				Name:  "sites",
				Usage: "list the supported site profiles",
				Action: func(c *cli.Context) error {
					for _, p := range sites.Default().All() {
						strategy := "http"
						if p.RequiresBrowser {
							strategy = "browser"
						}
						fmt.Printf("  %-10s %-8s %s\n", p.Name, strategy, p.BaseURL)
					}
					return nil
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context, logger *utils.Logger) error {
	ctx := c.Context
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(c, cfg)

	runID := uuid.New().String()
	logger.Info("=== deal-scout run %s starting ===", runID)
	logger.Info("Config: query %q | sites %v | min discount %d%% | min confidence %.0f | max %d",
		cfg.SearchQuery, cfg.TargetSites, cfg.MinDiscount, cfg.MinConfidence, cfg.MaxResults)

	if !cfg.HasAIProvider() {
		return ai.ErrNoProviders
	}

	providers, err := ai.NewProviders(ctx, cfg)
	if err != nil {
		return err
	}
	judge, err := ai.NewJudge(logger, providers...)
	if err != nil {
		return err
	}
	defer judge.Close()

	var store storage.DealStore
	if !c.Bool("dry-run") {
		pg, err := storage.NewPostgresStore(ctx, cfg.DSN())
		if err != nil {
			logger.Error("Make sure PostgreSQL is running or pass --dry-run")
			return err
		}
		defer pg.Close()
		store = pg
	}

	normalizer := services.NewNormalizer(logger, services.FloorFor(cfg.MinDiscount))
	sc := scraper.NewDefault(cfg, logger, normalizer)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Warn("Raw CSV disabled: %v", err)
	} else {
		defer csvWriter.Close()
		sc.WithRawSink(csvWriter)
	}

	result := sc.Scrape(ctx, cfg.SearchQuery, cfg.TargetSites)
	if len(result.Deals) == 0 {
		logger.Warn("No candidate deals found")
	}

	filter := services.NewDealFilter(judge, logger, cfg.AIPauseEvery, cfg.AIPause)
	accepted := filter.Filter(ctx, result.Deals, services.FilterOptions{
		MinDiscount:   cfg.MinDiscount,
		MinConfidence: cfg.MinConfidence,
		MaxResults:    cfg.MaxResults,
	})

	if store != nil {
		saved := 0
		for _, d := range accepted {
			d.RunID = runID
			if err := store.SaveDeal(ctx, d); err != nil {
				logger.Error("Save failed: %v", err)
				continue
			}
			saved++
		}
		logger.Info("Stored %d/%d accepted deals in PostgreSQL (table: deals)", saved, len(accepted))
	}

	insights := services.NewInsightService(logger)
	insights.Print(insights.Generate(accepted, result.FailedSites))

	fmt.Printf("  Done. Run %s | Raw CSV → %s\n\n", runID, cfg.CSVOutputPath)
	return nil
}

// applyFlags lets explicitly set CLI flags override env and file config.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("query") {
		cfg.SearchQuery = c.String("query")
	}
	if c.IsSet("sites") {
		cfg.TargetSites = nil
		for _, s := range strings.Split(c.String("sites"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.TargetSites = append(cfg.TargetSites, s)
			}
		}
	}
	if c.IsSet("min-discount") {
		cfg.MinDiscount = c.Int("min-discount")
	}
	if c.IsSet("min-confidence") {
		cfg.MinConfidence = c.Float64("min-confidence")
	}
	if c.IsSet("max-results") {
		cfg.MaxResults = c.Int("max-results")
	}
}

func withStore(ctx context.Context, fn func(storage.DealStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := storage.NewPostgresStore(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printDeals(deals []*models.FilteredDeal) {
	if len(deals) == 0 {
		fmt.Println("  No stored deals match")
		return
	}
	for i, d := range deals {
		fmt.Printf("  %2d. [%s] %-40.40s $%8.2f  %3d%% off  score %5.1f  glitch %3.0f%%  %s\n",
			i+1, d.Site, d.Title, d.CurrentPrice, d.DiscountPercentage,
			d.ConfidenceScore, d.PricingGlitchProbability, d.UpdatedAt.Format(time.DateTime))
		if d.URL != "" {
			fmt.Printf("      %s\n", d.URL)
		}
	}
}
