package ingest

import (
	"context"
	"fmt"

	"github.com/eosguide/relief-finder/internal/models"
)

// ScrapeStrategy executes the fetch→locate→extract flow for one source.
// A strategy may return records alongside an error: whatever was
// accumulated before the failure is still usable.
type ScrapeStrategy interface {
	Run(ctx context.Context, cfg SourceConfig, deps Deps, maxItems int) ([]models.Opportunity, error)
}

// StrategyFactory maps strategy IDs (from sources.yaml) to
// implementations.
type StrategyFactory struct {
	strategies map[string]ScrapeStrategy
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{strategies: make(map[string]ScrapeStrategy)}
}

func (f *StrategyFactory) Register(id string, strategy ScrapeStrategy) {
	f.strategies[id] = strategy
}

func (f *StrategyFactory) Get(id string) (ScrapeStrategy, error) {
	strategy, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return strategy, nil
}

// DefaultFactory returns a factory with the built-in strategies
// registered.
func DefaultFactory() *StrategyFactory {
	f := NewStrategyFactory()
	f.Register("listing", &ListingStrategy{})
	f.Register("settlement_detail", &SettlementDetailStrategy{})
	return f
}
