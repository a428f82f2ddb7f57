package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/eosguide/relief-finder/internal/models"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const (
	settlementsPerPage = 20
	maxListingPages    = 5
)

// SettlementDetailStrategy implements the two-phase TopClassActions
// flow: enumerate candidate settlement URLs across a bounded number of
// listing pages, then fetch each settlement's own page and derive the
// record from its unstructured text. Requests to the host are spaced by
// the configured politeness delay; that spacing is an ordering
// constraint, not an optimization.
type SettlementDetailStrategy struct{}

func (s *SettlementDetailStrategy) Run(ctx context.Context, cfg SourceConfig, deps Deps, maxItems int) ([]models.Opportunity, error) {
	logger := deps.Logger.With(zap.String("source", cfg.ID))

	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// Hostname plus host:port so test servers on loopback ports pass
	// the domain filter too.
	domains := []string{parsed.Hostname()}
	if parsed.Host != parsed.Hostname() {
		domains = append(domains, parsed.Host)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(domains...),
		colly.UserAgent(userAgent),
		colly.DetectCharset(),
	)
	collector.SetRequestTimeout(defaultFetchTimeout)

	delay := time.Duration(cfg.PolitenessDelaySeconds) * time.Second
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	}); err != nil {
		return nil, err
	}

	urls := s.enumerateSettlementURLs(ctx, collector, cfg, maxItems, logger)
	logger.Info("settlement urls collected", zap.Int("count", len(urls)))

	detail := collector.Clone()
	now := time.Now()
	out := make([]models.Opportunity, 0, len(urls))
	for _, pageURL := range urls {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		opp, err := s.scrapeSettlementPage(detail, pageURL, cfg, now)
		if err != nil {
			// One bad detail page must not abort the rest.
			logger.Warn("settlement page skipped", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		out = append(out, opp)
	}
	return out, nil
}

// enumerateSettlementURLs walks the open-settlements listing pages and
// collects candidate detail URLs, skipping ones already seen and
// stopping early once maxItems are in hand.
func (s *SettlementDetailStrategy) enumerateSettlementURLs(ctx context.Context, collector *colly.Collector, cfg SourceConfig, maxItems int, logger *zap.Logger) []string {
	seen := make(map[string]bool)
	var urls []string

	c := collector.Clone()
	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(urls) >= maxItems {
			return
		}
		href, ok := e.DOM.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		abs := e.Request.AbsoluteURL(strings.TrimSpace(href))
		if !strings.Contains(abs, cfg.Claim.ListingLinkContains) {
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})
	c.OnError(func(r *colly.Response, err error) {
		logger.Warn("listing page failed", zap.String("url", r.Request.URL.String()), zap.Error(err))
	})

	pages := listingPageCount(maxItems)
	for page := 1; page <= pages; page++ {
		if ctx.Err() != nil {
			break
		}
		pageURL := listingPageURL(cfg.BaseURL, page)
		if err := c.Visit(pageURL); err != nil {
			logger.Warn("listing page failed", zap.String("url", pageURL), zap.Error(err))
			break
		}
		c.Wait()
		if len(urls) >= maxItems {
			break
		}
	}

	if len(urls) > maxItems {
		urls = urls[:maxItems]
	}
	return urls
}

// listingPageCount bounds enumeration at five listing pages, fewer when
// the requested maximum fits in less (about twenty settlements a page).
func listingPageCount(maxItems int) int {
	pages := maxItems/settlementsPerPage + 1
	if pages > maxListingPages {
		pages = maxListingPages
	}
	return pages
}

// listingPageURL returns the Nth open-settlements listing page.
func listingPageURL(baseURL string, page int) string {
	if page <= 1 {
		return baseURL
	}
	return fmt.Sprintf("%s/page/%d/", strings.TrimRight(baseURL, "/"), page)
}

// scrapeSettlementPage fetches one settlement's own page and extracts
// its record. An error means no record for that URL.
func (s *SettlementDetailStrategy) scrapeSettlementPage(collector *colly.Collector, pageURL string, cfg SourceConfig, now time.Time) (models.Opportunity, error) {
	var (
		opp       models.Opportunity
		scrapeErr error
		scraped   bool
	)

	clone := collector.Clone()
	clone.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			scrapeErr = err
			return
		}
		opp = extractSettlement(doc, pageURL, cfg, now)
		scraped = true
	})
	clone.OnError(func(_ *colly.Response, err error) {
		scrapeErr = err
	})

	if err := clone.Visit(pageURL); err != nil {
		return opp, err
	}
	clone.Wait()

	if scrapeErr != nil {
		return opp, scrapeErr
	}
	if !scraped {
		return opp, fmt.Errorf("no response received for %s", pageURL)
	}
	return opp, nil
}

// extractSettlement derives a record from a settlement detail page:
// title from the top-level heading, amount and deadline from the raw
// page text, actionable link via claim-URL resolution.
func extractSettlement(doc *goquery.Document, pageURL string, cfg SourceConfig, now time.Time) models.Opportunity {
	f := cfg.Fields

	title := cleanText(doc.Find("h1").First().Text())
	if title == "" {
		title = "Unknown"
	}

	pageText := doc.Text()
	amount := deriveAmount(pageText)
	deadline := deriveDeadline(pageText)

	claimURL := ResolveClaimURL(doc, cfg.Domain, cfg.Claim)
	if claimURL == "" {
		claimURL = pageURL
	}

	// Nominal validity window unless a real date was parsed.
	urgencyDays := f.UrgencyDays
	if days, ok := daysUntil(deadline, now); ok {
		urgencyDays = days
	}

	return models.Opportunity{
		ID:          OpportunityID(title, pageURL),
		Title:       title,
		Category:    f.Category,
		Amount:      amount,
		Deadline:    deadline,
		Difficulty:  f.Difficulty,
		Description: truncateDescription(f.FallbackDescription),
		URL:         claimURL,
		DetailsURL:  pageURL,
		State:       defaultState,
		Urgency:     f.Urgency,
		UrgencyDays: urgencyDays,
		Value:       f.Value,
		Featured:    false,
		Source:      cfg.Domain,
	}
}

// ResolveClaimURL picks the actionable external claim link on a
// settlement detail page. Anchors pointing back at the source's own
// domain are skipped; the first anchor whose href contains a configured
// settlement-site suffix and whose visible text contains an action verb
// wins. Empty means nothing qualified and the caller should fall back
// to the detail page itself.
func ResolveClaimURL(doc *goquery.Document, ownDomain string, claim ClaimConfig) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		hrefLower := strings.ToLower(strings.TrimSpace(href))
		if hrefLower == "" || strings.Contains(hrefLower, ownDomain) {
			return true
		}

		suffixHit := false
		for _, suffix := range claim.DomainSuffixes {
			if strings.Contains(hrefLower, strings.ToLower(suffix)) {
				suffixHit = true
				break
			}
		}
		if !suffixHit {
			return true
		}

		if containsAnyFold(a.Text(), claim.ActionWords) {
			found = strings.TrimSpace(href)
			return false
		}
		return true
	})
	return found
}
