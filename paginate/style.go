package paginate

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Style is how a listing exposes its next page.
type Style string

const (
	// StyleNone means no pagination was detected; one page only.
	StyleNone Style = "none"

	// StyleTraditional means numbered pages reachable by URL.
	StyleTraditional Style = "traditional"

	// StyleLoadMore means a button appends the next batch in place.
	StyleLoadMore Style = "load_more"

	// StyleInfiniteScroll means scrolling triggers the next batch.
	StyleInfiniteScroll Style = "infinite_scroll"

	// StyleAPICursor means a JSON API with a cursor or next link.
	StyleAPICursor Style = "api_cursor"
)

// pageParams are query parameters that carry a page number, checked in order.
var pageParams = []string{"page", "p", "pg", "paged", "page_no"}

// loadMoreSelectors locate a load-more control, most specific first.
var loadMoreSelectors = []string{
	"button[class*='load-more']",
	"a[class*='load-more']",
	"button[class*='loadmore']",
	"[id*='load-more']",
	"button[class*='show-more']",
	"a[class*='show-more']",
	"button[class*='view-more']",
	"[data-load-more]",
}

// infiniteScrollMarkers are attributes and classes that scroll-loading
// frameworks leave in the markup.
var infiniteScrollMarkers = []string{
	"[data-infinite-scroll]",
	"[class*='infinite-scroll']",
	"[class*='infinite_scroll']",
	"[data-endless]",
	"[class*='lazy-load-container']",
}

// Classification is the outcome of inspecting the first page.
type Classification struct {
	Style Style

	// LoadMoreSelector is set when Style is StyleLoadMore.
	LoadMoreSelector string
}

// Classify inspects the first fetched page and decides the pagination style.
// JSON responses are always cursor-style APIs. For HTML the precedence is
// traditional over load-more over infinite scroll, since URL-addressable
// pages are the cheapest to traverse when a site offers both.
func Classify(content []byte, contentType, pageURL string) Classification {
	if strings.Contains(strings.ToLower(contentType), "application/json") {
		return Classification{Style: StyleAPICursor}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return Classification{Style: StyleNone}
	}

	if hasTraditional(doc, pageURL) {
		return Classification{Style: StyleTraditional}
	}

	for _, sel := range loadMoreSelectors {
		if doc.Find(sel).Length() > 0 {
			return Classification{Style: StyleLoadMore, LoadMoreSelector: sel}
		}
	}
	if sel := loadMoreByText(doc); sel != "" {
		return Classification{Style: StyleLoadMore, LoadMoreSelector: sel}
	}

	for _, sel := range infiniteScrollMarkers {
		if doc.Find(sel).Length() > 0 {
			return Classification{Style: StyleInfiniteScroll}
		}
	}

	return Classification{Style: StyleNone}
}

func hasTraditional(doc *goquery.Document, pageURL string) bool {
	if doc.Find("a[rel='next'], link[rel='next']").Length() > 0 {
		return true
	}
	if doc.Find(".pagination, .pager, nav[aria-label*='agination'], ul[class*='pagination']").Length() > 0 {
		return true
	}
	if u, err := url.Parse(pageURL); err == nil {
		q := u.Query()
		for _, p := range pageParams {
			if q.Get(p) != "" {
				return true
			}
		}
	}
	return false
}

// loadMoreByText finds buttons labelled "load more" / "show more" that
// carry no recognizable class, and returns a selector reaching them.
func loadMoreByText(doc *goquery.Document) string {
	found := ""
	doc.Find("button, a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if text == "load more" || text == "show more" || text == "view more" {
			if id, ok := s.Attr("id"); ok && id != "" {
				found = "#" + id
				return false
			}
			if class, ok := s.Attr("class"); ok && class != "" {
				first := strings.Fields(class)[0]
				found = goquery.NodeName(s) + "." + first
				return false
			}
		}
		return true
	})
	return found
}
