// Package aggregate merges per-source scrape results into the final
// deduplicated dataset with its breakdown statistics.
package aggregate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eosguide/relief-finder/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyAggregate reports that every source came back empty. It is
// the only condition surfaced as an overall run failure: nothing gets
// persisted and the process exits non-zero.
var ErrEmptyAggregate = errors.New("no opportunities collected from any source")

// Scraper is the boundary the aggregator runs sources behind. Scrape
// must not raise: it returns whatever records it accumulated, possibly
// none. A maxItems of zero selects the scraper's configured default.
type Scraper interface {
	Source() string
	Scrape(ctx context.Context, maxItems int) []models.Opportunity
}

// Run executes every scraper inside its own failure boundary and builds
// the aggregate. Scrapers run concurrently, but results land in fixed
// per-scraper slots and are merged in argument order, so the
// first-occurrence-wins dedup below is reproducible regardless of
// completion order.
func Run(ctx context.Context, scrapers []Scraper, logger *zap.Logger) (*models.AggregateResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([][]models.Opportunity, len(scrapers))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range scrapers {
		g.Go(func() error {
			defer func() {
				// Scrapers promise not to panic; a broken one still
				// must not take down its siblings.
				if r := recover(); r != nil {
					logger.Error("scraper panicked",
						zap.String("source", s.Source()),
						zap.Any("panic", r))
				}
			}()
			results[i] = s.Scrape(gctx, 0)
			return nil
		})
	}
	_ = g.Wait()

	var merged []models.Opportunity
	for _, records := range results {
		merged = append(merged, records...)
	}

	unique := Dedup(merged, logger)
	if len(unique) == 0 {
		return nil, ErrEmptyAggregate
	}

	known := make([]string, 0, len(scrapers))
	for _, s := range scrapers {
		known = append(known, s.Source())
	}

	return &models.AggregateResult{
		Opportunities: unique,
		Metadata:      buildMetadata(unique, known, time.Now()),
	}, nil
}

// Dedup drops records whose normalized title (lower-cased, trimmed) was
// already seen. The first occurrence wins, so the caller's ordering
// decides which copy survives. Applying Dedup to its own output is a
// no-op.
func Dedup(opps []models.Opportunity, logger *zap.Logger) []models.Opportunity {
	seen := make(map[string]struct{}, len(opps))
	unique := make([]models.Opportunity, 0, len(opps))
	for _, opp := range opps {
		key := strings.ToLower(strings.TrimSpace(opp.Title))
		if _, dup := seen[key]; dup {
			logger.Debug("duplicate dropped",
				zap.String("title", opp.Title),
				zap.String("source", opp.Source))
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, opp)
	}
	return unique
}

func buildMetadata(opps []models.Opportunity, knownSources []string, now time.Time) models.Metadata {
	md := models.Metadata{
		LastUpdated: now.Format(time.RFC3339),
		TotalCount:  len(opps),
		Sources:     make(map[string]int, len(knownSources)),
		ByCategory:  make(map[string]int),
		ByState:     make(map[string]int),
	}
	for _, source := range knownSources {
		md.Sources[source] = 0
	}
	for _, opp := range opps {
		md.Sources[opp.Source]++
		md.ByCategory[opp.Category]++
		md.ByState[opp.State]++
	}
	return md
}
