package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/aurora/models"
)

// containerLadder is tried in order; the first selector that yields usable
// records on a page wins. Ordered from explicit product markup down to
// generic card patterns.
var containerLadder = []string{
	"[data-asin]",
	"[data-product-id]",
	"[data-sku]",
	".product",
	".product-item",
	".product-card",
	"li.s-result-item",
	"[class*='product-']",
	"[class*='listing-item']",
	"article",
}

// titleLadder is tried inside each container.
var titleLadder = []string{
	"h1", "h2", "h3", "h4",
	".title", ".name",
	"[class*='title']", "[class*='name']",
}

var (
	priceRe   = regexp.MustCompile(`(?:₹|Rs\.?\s?|\$|£|€)\s*[\d,]+(?:\.\d{1,2})?`)
	ratingRe  = regexp.MustCompile(`(\d(?:\.\d)?)\s*(?:out of|stars?|★)`)
	reviewsRe = regexp.MustCompile(`([\d,]+)\s*(?:reviews?|ratings?)`)
	numRe     = regexp.MustCompile(`[\d,]+(?:\.\d{1,2})?`)
)

// Products extracts product records from listing-page HTML. The page number
// is stamped on every record; pageURL resolves relative product links.
// At most maxPerPage records are returned (0 means no cap).
func Products(htmlContent []byte, pageURL string, page, maxPerPage int) []models.ProductRecord {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(pageURL)

	for _, sel := range containerLadder {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}

		records := collectFromContainers(nodes, base, page, maxPerPage)
		if len(records) > 0 {
			return records
		}
	}

	// No container selector matched; fall back to price-bearing blocks.
	return collectFromPriceBlocks(doc, base, page, maxPerPage)
}

func collectFromContainers(nodes *goquery.Selection, base *url.URL, page, maxPerPage int) []models.ProductRecord {
	var records []models.ProductRecord
	seen := make(map[string]struct{})

	nodes.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rec, ok := recordFromContainer(s, base, page)
		if !ok {
			return true
		}
		key := rec.Title + "|" + rec.Price
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		records = append(records, rec)
		return maxPerPage <= 0 || len(records) < maxPerPage
	})

	return records
}

func recordFromContainer(s *goquery.Selection, base *url.URL, page int) (models.ProductRecord, bool) {
	rec := models.ProductRecord{Page: page}

	for _, sel := range titleLadder {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			rec.Title = collapseSpaces(t)
			break
		}
	}
	if rec.Title == "" {
		// Image alt text is often the only label on compact cards.
		if alt, ok := s.Find("img[alt]").First().Attr("alt"); ok {
			rec.Title = collapseSpaces(alt)
		}
	}
	if len(rec.Title) < 3 {
		return rec, false
	}

	text := s.Text()

	prices := priceRe.FindAllString(text, 2)
	if len(prices) > 0 {
		rec.Price = collapseSpaces(prices[0])
	}
	if len(prices) > 1 {
		first, second := priceValue(prices[0]), priceValue(prices[1])
		// Listings show the sale price first and the struck-through
		// original second; only trust that ordering when it holds.
		if second > first && first > 0 {
			rec.OriginalPrice = collapseSpaces(prices[1])
			rec.Discount = fmt.Sprintf("%d%%", int((second-first)/second*100))
		}
	}

	if m := ratingRe.FindStringSubmatch(text); m != nil {
		rec.Rating = m[1]
	}
	if m := reviewsRe.FindStringSubmatch(text); m != nil {
		rec.ReviewsCount = m[1]
	}

	if img := s.Find("img").First(); img.Length() > 0 {
		src, ok := img.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			src, _ = img.Attr("data-src")
		}
		rec.ImageURL = resolveURL(base, src)
	}

	if href, ok := s.Find("a[href]").First().Attr("href"); ok {
		rec.ProductURL = resolveURL(base, href)
	}

	rec.Keywords = titleKeywords(rec.Title)

	return rec, true
}

// collectFromPriceBlocks is the last-resort pass for pages with no
// recognizable product markup: any small element containing a price and
// nearby text becomes a candidate record.
func collectFromPriceBlocks(doc *goquery.Document, base *url.URL, page, maxPerPage int) []models.ProductRecord {
	var records []models.ProductRecord
	seen := make(map[string]struct{})

	doc.Find("div, li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 10 {
			return true
		}
		text := collapseSpaces(s.Text())
		if len(text) > 300 {
			return true
		}
		price := priceRe.FindString(text)
		if price == "" {
			return true
		}
		title := collapseSpaces(strings.TrimSpace(strings.Replace(text, price, "", 1)))
		if len(title) < 3 {
			return true
		}
		if len(title) > 120 {
			cut := 120
			for cut > 0 && !utf8.RuneStart(title[cut]) {
				cut--
			}
			title = title[:cut]
		}
		key := title + "|" + price
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		records = append(records, models.ProductRecord{
			Title:    title,
			Price:    collapseSpaces(price),
			Keywords: titleKeywords(title),
			Page:     page,
		})
		return maxPerPage <= 0 || len(records) < maxPerPage
	})

	return records
}

// Text returns the visible text of an HTML document with scripts and styles
// removed, collapsed to single spaces.
func Text(htmlContent []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return collapseSpaces(doc.Text())
}

func titleKeywords(title string) []string {
	var kws []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,;:()[]\"'")
		if len(w) > 3 {
			kws = append(kws, w)
		}
		if len(kws) == 5 {
			break
		}
	}
	return kws
}

func priceValue(price string) float64 {
	m := numRe.FindString(price)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
