package ingest

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockTags are the elements treated as content-block boundaries.
const blockTags = "div, article"

// Locate finds candidate content blocks on a listing page. The primary
// tier selects blocks whose class attribute matches the source's keyword
// pattern. When that yields nothing (upstream markup drifts independently
// of our releases), a fallback tier searches for anchors matching the
// source's URL shape and recovers each anchor's nearest block ancestor,
// trading precision for resilience. Both tiers cap results at max.
func Locate(doc *goquery.Document, rules LocatorRules, max int) []*goquery.Selection {
	if max <= 0 {
		return nil
	}
	blocks := locateByClass(doc, rules, max)
	if len(blocks) == 0 {
		blocks = locateByHref(doc, rules, max)
	}
	return blocks
}

func locateByClass(doc *goquery.Document, rules LocatorRules, max int) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find(blockTags).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, ok := sel.Attr("class")
		if !ok || !rules.BlockClass.MatchString(class) {
			return true
		}
		out = append(out, sel)
		return len(out) < max
	})
	return out
}

func locateByHref(doc *goquery.Document, rules LocatorRules, max int) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var out []*goquery.Selection
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !rules.FallbackHref.MatchString(href) {
			return true
		}
		block := a.Closest(blockTags)
		if block.Length() == 0 {
			return true
		}
		// Two anchors inside one block must not yield it twice.
		node := block.Get(0)
		if seen[node] {
			return true
		}
		seen[node] = true
		out = append(out, block)
		return len(out) < max
	})
	return out
}
