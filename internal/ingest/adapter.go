package ingest

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/eosguide/relief-finder/internal/models"
	"go.uber.org/zap"
)

// Adapter runs one configured source behind a failure boundary. Scrape
// never raises past it: a panic or error inside the strategy is logged
// and the adapter contributes whatever it had accumulated, possibly
// nothing. Adapters hold no state across invocations.
type Adapter struct {
	cfg      SourceConfig
	strategy ScrapeStrategy
	deps     Deps
}

func NewAdapter(cfg SourceConfig, factory *StrategyFactory, deps Deps) (*Adapter, error) {
	strategy, err := factory.Get(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.ID, err)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Adapter{cfg: cfg, strategy: strategy, deps: deps}, nil
}

// Source returns the domain emitted on this adapter's records.
func (a *Adapter) Source() string { return a.cfg.Domain }

// Name returns the registry id of the source.
func (a *Adapter) Name() string { return a.cfg.ID }

// Scrape collects up to maxItems normalized records. maxItems <= 0
// selects the configured per-source default.
func (a *Adapter) Scrape(ctx context.Context, maxItems int) (out []models.Opportunity) {
	logger := a.deps.Logger.With(zap.String("source", a.Name()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("adapter panicked", zap.Any("panic", r))
			out = nil
		}
	}()

	if maxItems <= 0 {
		maxItems = a.cfg.MaxItems
	}

	opps, err := a.strategy.Run(ctx, a.cfg, a.deps, maxItems)
	if err != nil {
		logger.Error("scrape failed", zap.Error(err), zap.Int("salvaged", len(opps)))
	}
	logger.Info("scrape finished", zap.Int("records", len(opps)))
	return opps
}

// ListingStrategy implements the single-page listing flow shared by the
// CPSC and FTC sources: fetch, locate content blocks, extract one
// record per block. Blocks without a usable title (or, for FTC, titles
// failing the relevance filter) are skipped, not errors.
type ListingStrategy struct{}

func (s *ListingStrategy) Run(ctx context.Context, cfg SourceConfig, deps Deps, maxItems int) ([]models.Opportunity, error) {
	rules, err := cfg.CompileLocator()
	if err != nil {
		return nil, err
	}

	fetched, err := deps.Fetcher.Fetch(ctx, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(fetched.Body)
	fetched.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.BaseURL, err)
	}

	blocks := Locate(doc, rules, maxItems)
	deps.Logger.Debug("blocks located",
		zap.String("source", cfg.ID),
		zap.Int("count", len(blocks)))

	out := make([]models.Opportunity, 0, len(blocks))
	for _, block := range blocks {
		opp, ok := extractListingItem(block, cfg)
		if !ok {
			continue
		}
		out = append(out, opp)
	}
	return out, nil
}

// extractListingItem turns one content block into a record, applying
// the source's rule table. ok=false means the block is skipped.
func extractListingItem(block *goquery.Selection, cfg SourceConfig) (models.Opportunity, bool) {
	f := cfg.Fields

	title := extractTitle(block)
	if title == "" {
		return models.Opportunity{}, false
	}
	if len(f.RelevanceWords) > 0 && !containsAnyFold(title, f.RelevanceWords) {
		return models.Opportunity{}, false
	}

	link := resolveLink(block, cfg.Origin, cfg.BaseURL)

	// Full description text: the remedy keywords may sit past the
	// output cap, so derivation happens before truncation.
	description := extractDescription(block, f.FallbackDescription)

	category := f.Category
	if len(f.CategoryBuckets) > 0 {
		category = categorize(title, f.CategoryBuckets, f.Category)
	}

	amount := "Varies"
	switch {
	case f.DeriveRemedy:
		amount = deriveRemedy(description)
	case f.DeriveAmount:
		amount = deriveAmount(block.Text())
	}

	return models.Opportunity{
		// Identity is computed over the unprefixed title so it stays
		// stable if the display prefix convention ever changes.
		ID:          OpportunityID(title, link),
		Title:       f.TitlePrefix + title,
		Category:    category,
		Amount:      amount,
		Deadline:    f.Deadline,
		Difficulty:  f.Difficulty,
		Description: truncateDescription(description),
		URL:         link,
		DetailsURL:  link,
		State:       defaultState,
		Urgency:     f.Urgency,
		UrgencyDays: f.UrgencyDays,
		Value:       f.Value,
		Featured:    false,
		Source:      cfg.Domain,
	}, true
}
