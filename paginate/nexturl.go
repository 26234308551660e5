package paginate

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// nextLinkLabels are anchor texts that mean "next page".
var nextLinkLabels = map[string]struct{}{
	"next": {}, "next »": {}, "next ›": {},
	">": {}, "›": {}, "»": {}, "→": {},
}

// NextPageURL resolves the URL of the next page in a traditional listing.
// Preference order: an explicit rel=next link, an anchor labelled with the
// next page number or a next marker, and finally a synthesized page query
// parameter. Returns "" when no next page can be derived.
func NextPageURL(content []byte, pageURL string, nextPage int) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return synthesizePageURL(base, nextPage)
	}

	if href, ok := doc.Find("a[rel='next']").First().Attr("href"); ok && href != "" {
		return resolveRef(base, href)
	}
	if href, ok := doc.Find("link[rel='next']").First().Attr("href"); ok && href != "" {
		return resolveRef(base, href)
	}

	// An anchor whose text is the next page number, scoped to pagination
	// containers first so footer year links and the like don't match.
	want := strconv.Itoa(nextPage)
	scopes := []string{".pagination a", ".pager a", "ul[class*='pagination'] a", "a"}
	for _, scope := range scopes {
		found := ""
		doc.Find(scope).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.ToLower(strings.TrimSpace(s.Text()))
			_, isNextLabel := nextLinkLabels[text]
			if text != want && !isNextLabel {
				return true
			}
			if href, ok := s.Attr("href"); ok && href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
				found = resolveRef(base, href)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	return synthesizePageURL(base, nextPage)
}

// synthesizePageURL rewrites or appends a page parameter on the listing URL.
// Sites that paginate by URL nearly always honor ?page=N even when the
// first page omits it.
func synthesizePageURL(base *url.URL, nextPage int) string {
	u := *base
	q := u.Query()
	for _, p := range pageParams {
		if q.Get(p) != "" {
			q.Set(p, strconv.Itoa(nextPage))
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	q.Set("page", strconv.Itoa(nextPage))
	u.RawQuery = q.Encode()
	return u.String()
}

// cursorKeys carry the next cursor token in API responses, checked in order.
var cursorKeys = []string{"next_cursor", "cursor", "next_page_token"}

// nextURLKeys carry a full or relative next-page URL.
var nextURLKeys = []string{"next", "next_url", "next_page", "next_page_url"}

// NextCursorURL derives the next request URL from a JSON API response.
// It understands both full next links and bare cursor tokens (applied as a
// cursor query parameter on the current URL). Returns "" when the response
// indicates the final page.
func NextCursorURL(content []byte, pageURL string) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(content, &envelope); err != nil {
		return ""
	}

	// Pagination metadata is sometimes nested one level down.
	for _, nested := range []string{"pagination", "meta", "paging"} {
		if raw, ok := envelope[nested]; ok {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(raw, &inner); err == nil {
				for k, v := range inner {
					if _, exists := envelope[k]; !exists {
						envelope[k] = v
					}
				}
			}
		}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	for _, key := range nextURLKeys {
		if s := stringField(envelope, key); s != "" {
			return resolveRef(base, s)
		}
	}
	for _, key := range cursorKeys {
		if s := stringField(envelope, key); s != "" {
			u := *base
			q := u.Query()
			q.Set("cursor", s)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return ""
}

func stringField(envelope map[string]json.RawMessage, key string) string {
	raw, ok := envelope[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func resolveRef(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
