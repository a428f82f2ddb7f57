package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	descriptionLimit = 200
	defaultState     = "Nationwide"
)

var (
	// Monetary mentions: dollar sign, digit groups with optional
	// thousands separators and cents, optional million/billion suffix.
	amountPattern = regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?(?:\s*(?:million|billion))?`)

	// Labeled filing deadlines, e.g. "Deadline: 12/31/2026".
	deadlinePattern = regexp.MustCompile(`(?i)(?:deadline|file by)[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)
)

// OpportunityID derives the stable 12-hex-character identity of a
// record from its title and resolved URL. Re-running an adapter against
// unchanged input yields the same id, which is what makes dedup across
// re-scrapes possible. Collisions are accepted as a rare non-fatal risk.
func OpportunityID(title, url string) string {
	sum := md5.Sum([]byte(title + url))
	return hex.EncodeToString(sum[:])[:12]
}

// extractTitle returns the first heading-or-link text of a block,
// trimmed. Empty means the block carries no usable item.
func extractTitle(block *goquery.Selection) string {
	return cleanText(block.Find("h2, h3, h4, a").First().Text())
}

// resolveLink picks the first anchor's href, absolutized against the
// source origin when site-relative. A block without anchors falls back
// to the listing page itself.
func resolveLink(block *goquery.Selection, origin, listingURL string) string {
	href, ok := block.Find("a[href]").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return listingURL
	}
	if strings.HasPrefix(href, "/") {
		return origin + href
	}
	return href
}

// extractDescription returns the first paragraph's sanitized text, or
// the source's canned sentence. The text is untruncated: remedy
// derivation reads the full description, only the emitted record is
// capped.
func extractDescription(block *goquery.Selection, fallback string) string {
	desc := sanitizeText(block.Find("p").First().Text())
	if desc == "" {
		desc = fallback
	}
	return desc
}

// truncateDescription caps a description at 200 characters plus an
// ellipsis marker. The cap applies to the text itself, not the marker,
// and counts characters, never bytes: multi-byte text must not be cut
// short or split mid-rune.
func truncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionLimit {
		return s
	}
	return string(runes[:descriptionLimit]) + "..."
}

// deriveAmount takes the first currency mention in the text, "Varies"
// when there is none.
func deriveAmount(text string) string {
	if m := amountPattern.FindString(text); m != "" {
		return m
	}
	return "Varies"
}

// deriveDeadline takes the first labeled MM/DD/YYYY date, "TBD" when
// there is none.
func deriveDeadline(text string) string {
	if m := deadlinePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return "TBD"
}

// categorize resolves a title against an ordered keyword bucket table.
// The first bucket whose keyword list intersects the lower-cased title
// wins; bucket order is therefore part of the contract. No match falls
// back to the source's default category.
func categorize(title string, buckets []CategoryBucket, fallback string) string {
	lower := strings.ToLower(title)
	for _, bucket := range buckets {
		for _, kw := range bucket.Keywords {
			if strings.Contains(lower, kw) {
				return bucket.Name
			}
		}
	}
	return fallback
}

// deriveRemedy picks the canned remedy phrase a recall description
// implies. "refund" beats "replacement" when both appear.
func deriveRemedy(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "refund"):
		return "Full refund available"
	case strings.Contains(lower, "replacement"):
		return "Free replacement available"
	}
	return "Refund or replacement available"
}

// daysUntil returns the whole days left before an M/D/YYYY deadline,
// clamped at zero. Unparseable input reports ok=false so callers keep
// the source's nominal validity window instead.
func daysUntil(deadline string, now time.Time) (int, bool) {
	t, err := time.Parse("1/2/2006", deadline)
	if err != nil {
		return 0, false
	}
	days := int(t.Sub(now).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true
}
