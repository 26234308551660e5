package paginate

import (
	"strings"

	"github.com/use-agent/aurora/simhash"
)

// ActionKind is what the traversal loop should do next.
type ActionKind int

const (
	// Stop ends the traversal; Reason says why.
	Stop ActionKind = iota

	// NextURL fetches Action.URL as the next page.
	NextURL

	// ClickLoadMore clicks Action.Selector in the live session.
	ClickLoadMore

	// Scroll scrolls the live session to load the next batch.
	Scroll
)

// Stop reasons.
const (
	ReasonMaxPages     = "max_pages"
	ReasonExhausted    = "exhausted"
	ReasonLoopDetected = "loop_detected"
)

// Action tells the traversal loop how to reach the next page.
type Action struct {
	Kind     ActionKind
	URL      string
	Selector string
	Reason   string
}

// Driver decides, page by page, how to advance through a listing. The
// style is classified once on the first page and stays pinned; loop
// detection compares consecutive page fingerprints so a broken "next"
// that re-serves the same content stops the run instead of spinning.
type Driver struct {
	maxPages     int
	loopGuard    bool
	loopDistance int

	classification Classification
	classified     bool
	pagesSeen      int
	lastFP         uint64
	hasFP          bool
}

// NewDriver creates a Driver. maxPages bounds the total pages visited,
// loopDistance is the fingerprint distance at or under which consecutive
// pages count as duplicates (ignored when loopGuard is false).
func NewDriver(maxPages int, loopGuard bool, loopDistance int) *Driver {
	return &Driver{
		maxPages:     maxPages,
		loopGuard:    loopGuard,
		loopDistance: loopDistance,
	}
}

// Style returns the pinned pagination style, or StyleNone before the
// first page is observed.
func (d *Driver) Style() Style {
	return d.classification.Style
}

// Next consumes the page just fetched and returns the action that reaches
// the following one. content/contentType/pageURL describe the page the
// caller already has.
func (d *Driver) Next(content []byte, contentType, pageURL string) Action {
	d.pagesSeen++

	if !d.classified {
		d.classification = Classify(content, contentType, pageURL)
		d.classified = true
	}

	if d.loopGuard && isHTML(contentType) {
		fp := simhash.FingerprintPage(content)
		if d.hasFP && simhash.Similar(fp, d.lastFP, d.loopDistance) {
			return Action{Kind: Stop, Reason: ReasonLoopDetected}
		}
		d.lastFP = fp
		d.hasFP = true
	}

	if d.pagesSeen >= d.maxPages {
		return Action{Kind: Stop, Reason: ReasonMaxPages}
	}

	switch d.classification.Style {
	case StyleAPICursor:
		next := NextCursorURL(content, pageURL)
		if next == "" {
			return Action{Kind: Stop, Reason: ReasonExhausted}
		}
		return Action{Kind: NextURL, URL: next}

	case StyleTraditional:
		next := NextPageURL(content, pageURL, d.pagesSeen+1)
		if next == "" {
			return Action{Kind: Stop, Reason: ReasonExhausted}
		}
		return Action{Kind: NextURL, URL: next}

	case StyleLoadMore:
		return Action{Kind: ClickLoadMore, Selector: d.classification.LoadMoreSelector}

	case StyleInfiniteScroll:
		return Action{Kind: Scroll}

	default:
		return Action{Kind: Stop, Reason: ReasonExhausted}
	}
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
