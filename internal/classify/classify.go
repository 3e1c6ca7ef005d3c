package classify

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Status is the outcome of checking a single SKU against the storefront.
type Status string

const (
	StatusListed   Status = "Listed"
	StatusDelisted Status = "Delisted"
	StatusError    Status = "Error"
	// StatusUnknown marks a page that produced no delisting phrase, no
	// product tiles and no "no results" title. The site never renders such a
	// page for a finished search, so it usually means a partially loaded or
	// interstitial page. It is reported as its own outcome rather than being
	// folded into Delisted.
	StatusUnknown Status = "Unknown"
)

// productSelector matches the product tiles and product links the search
// page renders when at least one item is on sale.
const productSelector = ".product-item, .product-card, .product-tile, a[href*=\"/product/\"]"

const (
	noResultsBanner  = "No Search Results"
	noResultsTitle   = "no search results"
	addToCartControl = "Add to Cart"
	addToBagControl  = "Add to Bag"
)

// delistedPhrases are probed against the lowercased page text.
var delistedPhrases = []string{
	"no products were found",
	"no search results for",
}

// Page is the rendered content of one search-results page.
type Page struct {
	HTML  string
	Title string
}

// Evidence is everything the decision list in Classify looks at, extracted
// once from a rendered page.
type Evidence struct {
	// PageText is the lowercased visible text of the whole document.
	PageText string
	// PageTitle is the document title as reported by the browser.
	PageTitle string
	// NoResultsBanner is true when some element's text carries the literal
	// "No Search Results" banner, case preserved.
	NoResultsBanner bool
	// MatchingElements is true when the page has at least one product tile,
	// product link, or an Add to Cart / Add to Bag control.
	MatchingElements bool
}

// CollectEvidence parses the page HTML and derives the inputs to Classify.
func CollectEvidence(p Page) (Evidence, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return Evidence{}, fmt.Errorf("failed to parse page: %w", err)
	}

	title := p.Title
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	text := doc.Text()

	return Evidence{
		PageText:        strings.ToLower(text),
		PageTitle:       title,
		NoResultsBanner: strings.Contains(text, noResultsBanner),
		MatchingElements: doc.Find(productSelector).Length() > 0 ||
			strings.Contains(text, addToCartControl) ||
			strings.Contains(text, addToBagControl),
	}, nil
}

// Classify applies the decision list to the collected evidence. First match
// wins, no backtracking:
//
//  1. "No Search Results" banner present        -> Delisted
//  2. delisting phrase in the page text         -> Delisted
//  3. product tiles or add-to-cart controls     -> Listed
//  4. "no search results" in the page title     -> Delisted
//  5. otherwise                                 -> Unknown
func Classify(ev Evidence) Status {
	if ev.NoResultsBanner {
		return StatusDelisted
	}

	for _, phrase := range delistedPhrases {
		if strings.Contains(ev.PageText, phrase) {
			return StatusDelisted
		}
	}

	if ev.MatchingElements {
		return StatusListed
	}

	if strings.Contains(strings.ToLower(ev.PageTitle), noResultsTitle) {
		return StatusDelisted
	}

	return StatusUnknown
}

// ClassifyPage is the one-shot path from rendered page to status. A page
// that cannot be inspected classifies as Error.
func ClassifyPage(p Page) Status {
	ev, err := CollectEvidence(p)
	if err != nil {
		return StatusError
	}
	return Classify(ev)
}
