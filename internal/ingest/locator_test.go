package ingest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return doc
}

func mustRules(t *testing.T, classPattern, hrefPattern string) LocatorRules {
	t.Helper()
	cfg := SourceConfig{
		ID: "test",
		Locator: LocatorConfig{
			BlockClassPattern:   classPattern,
			FallbackHrefPattern: hrefPattern,
		},
	}
	rules, err := cfg.CompileLocator()
	if err != nil {
		t.Fatalf("compile locator: %v", err)
	}
	return rules
}

func TestLocate_PrimaryClassMatch(t *testing.T) {
	doc := mustDoc(t, `
	<html><body>
	<div class="recall-item"><h3>Recall One</h3></div>
	<article class="ProductCard"><h3>Recall Two</h3></article>
	<div class="sidebar"><h3>Not a recall</h3></div>
	</body></html>`)

	rules := mustRules(t, `recall|product`, `/Recalls/\d{4}/`)

	blocks := Locate(doc, rules, 50)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	// Class matching is case-insensitive.
	if title := blocks[1].Find("h3").Text(); title != "Recall Two" {
		t.Errorf("expected second block to be the ProductCard article, got %q", title)
	}
}

func TestLocate_FallbackActivation(t *testing.T) {
	// No class attribute matches the primary query; only the href
	// shape identifies the recall blocks.
	doc := mustDoc(t, `
	<html><body>
	<div class="views-row">
	  <h3><a href="/Recalls/2026/acme-toy">ACME Toy</a></h3>
	  <p>Hazard description.</p>
	</div>
	<div class="views-row">
	  <a href="/Recalls/2026/beta-heater">Beta Heater</a>
	  <a href="/Recalls/2026/beta-heater#details">Details</a>
	</div>
	<div class="views-row"><a href="/about">About us</a></div>
	</body></html>`)

	rules := mustRules(t, `recall|product`, `/Recalls/\d{4}/`)

	blocks := Locate(doc, rules, 50)
	if len(blocks) != 2 {
		t.Fatalf("expected fallback to recover 2 blocks, got %d", len(blocks))
	}
	if !strings.Contains(blocks[0].Text(), "ACME Toy") {
		t.Errorf("first fallback block missing expected anchor text: %q", blocks[0].Text())
	}
}

func TestLocate_CapsResults(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		sb.WriteString(`<div class="recall-listing"><h3>Item</h3></div>`)
	}
	sb.WriteString("</body></html>")

	rules := mustRules(t, `recall|product`, `/Recalls/\d{4}/`)

	if got := len(Locate(mustDoc(t, sb.String()), rules, 10)); got != 10 {
		t.Fatalf("primary tier must cap at max, got %d", got)
	}
	if got := len(Locate(mustDoc(t, sb.String()), rules, 0)); got != 0 {
		t.Fatalf("non-positive max yields nothing, got %d", got)
	}
}
