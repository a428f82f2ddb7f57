package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/eosguide/relief-finder/internal/aggregate"
	"github.com/eosguide/relief-finder/internal/ingest"
	"github.com/eosguide/relief-finder/internal/models"
	"github.com/eosguide/relief-finder/internal/sink"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScrapeCmd(debug *bool) *cobra.Command {
	var (
		out            string
		maxSettlements int
		maxPrograms    int
		maxRecalls     int
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run all source adapters and write the aggregated dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*debug)
			if err != nil {
				return err
			}
			defer logger.Sync()
			logger = logger.With(zap.String("run_id", uuid.NewString()))

			reg, err := ingest.LoadRegistry("")
			if err != nil {
				return fmt.Errorf("load source registry: %w", err)
			}

			// CLI overrides for the per-source item caps.
			limits := map[string]int{
				"topclassactions": maxSettlements,
				"ftc":             maxPrograms,
				"cpsc":            maxRecalls,
			}

			fetcher := ingest.NewHTTPFetcher(0, ingest.NewHostLimiter(0.5, 1))
			factory := ingest.DefaultFactory()
			deps := ingest.Deps{Fetcher: fetcher, Logger: logger}

			scrapers := make([]aggregate.Scraper, 0, len(reg.Sources))
			for _, cfg := range reg.Sources {
				if n, ok := limits[cfg.ID]; ok && n > 0 {
					cfg.MaxItems = n
				}
				adapter, err := ingest.NewAdapter(cfg, factory, deps)
				if err != nil {
					return err
				}
				scrapers = append(scrapers, adapter)
			}

			start := time.Now()
			result, err := aggregate.Run(cmd.Context(), scrapers, logger)
			if err != nil {
				// Nothing is persisted when every source came back empty.
				return err
			}

			if err := sink.WriteFile(out, result); err != nil {
				return err
			}
			logger.Info("dataset written",
				zap.String("path", out),
				zap.Int("total", result.Metadata.TotalCount),
				zap.Duration("took", time.Since(start)))

			renderSummary(os.Stdout, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "data/opportunities.json", "output path for the aggregated dataset")
	cmd.Flags().IntVar(&maxSettlements, "max-settlements", 0, "cap TopClassActions settlements (0 = registry default)")
	cmd.Flags().IntVar(&maxPrograms, "max-programs", 0, "cap FTC refund programs (0 = registry default)")
	cmd.Flags().IntVar(&maxRecalls, "max-recalls", 0, "cap CPSC recalls (0 = registry default)")
	return cmd
}

// renderSummary prints per-source and per-category counts for the
// operator running the scrape by hand.
func renderSummary(w io.Writer, result *models.AggregateResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Source", "Records"})
	for _, source := range sortedKeys(result.Metadata.Sources) {
		t.AppendRow(table.Row{source, result.Metadata.Sources[source]})
	}
	t.AppendFooter(table.Row{"Total", result.Metadata.TotalCount})
	t.Render()

	c := table.NewWriter()
	c.SetOutputMirror(w)
	c.AppendHeader(table.Row{"Category", "Records"})
	for _, category := range sortedKeys(result.Metadata.ByCategory) {
		c.AppendRow(table.Row{category, result.Metadata.ByCategory[category]})
	}
	c.Render()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
