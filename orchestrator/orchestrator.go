// Package orchestrator runs one extraction end to end: it probes fetch
// strategies for the first page, pins the winner, drives pagination, and
// escalates to screenshot OCR when structural extraction is not delivering.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/use-agent/aurora/browser"
	"github.com/use-agent/aurora/config"
	"github.com/use-agent/aurora/engine"
	"github.com/use-agent/aurora/extract"
	"github.com/use-agent/aurora/metrics"
	"github.com/use-agent/aurora/models"
	"github.com/use-agent/aurora/selector"
)

// Session is one live browser page, held for the duration of a run so
// scroll and load-more state survives between pages.
type Session interface {
	EngineName() string
	Fetch(ctx context.Context, url string) (*engine.FetchResult, error)
	Snapshot(ctx context.Context) (*engine.FetchResult, error)
	ScrollStep(ctx context.Context, maxWait time.Duration) (bool, error)
	ClickLoadMore(ctx context.Context, selector string) (bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close()
}

// SessionProvider hands out browser sessions. blockResources must be false
// for sessions that will be screenshotted.
type SessionProvider interface {
	Acquire(ctx context.Context, stealth, blockResources bool) (Session, error)
}

// OCRExtractor turns a page screenshot into product records.
type OCRExtractor interface {
	Enabled() bool
	ExtractFromScreenshot(ctx context.Context, png []byte, pageURL string, page int) ([]models.ProductRecord, error)
}

// Orchestrator executes extraction tasks. Safe for concurrent use; each
// Execute call keeps its own state.
type Orchestrator struct {
	static   engine.Engine
	sessions SessionProvider
	sel      *selector.Selector
	ocr      OCRExtractor
	cfg      config.ExtractionConfig
	met      *metrics.Metrics
}

// New wires an Orchestrator. static handles the "static" strategy; browser
// strategies go through sessions. ocr may be a disabled client.
func New(static engine.Engine, sessions SessionProvider, sel *selector.Selector, ocr OCRExtractor, cfg config.ExtractionConfig, met *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		static:   static,
		sessions: sessions,
		sel:      sel,
		ocr:      ocr,
		cfg:      cfg,
		met:      met,
	}
}

// browserProvider adapts *browser.Browser to the SessionProvider interface.
type browserProvider struct {
	b *browser.Browser
}

// NewBrowserProvider wraps a live browser as a SessionProvider.
func NewBrowserProvider(b *browser.Browser) SessionProvider {
	return browserProvider{b: b}
}

func (p browserProvider) Acquire(ctx context.Context, stealth, blockResources bool) (Session, error) {
	s, err := p.b.Acquire(ctx, stealth, blockResources)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// extractRecords dispatches on content type: JSON payloads go through the
// catalog API mapper, everything else through the HTML selector ladder.
func (o *Orchestrator) extractRecords(res *engine.FetchResult, page int) []models.ProductRecord {
	if strings.Contains(strings.ToLower(res.ContentType), "application/json") {
		return extract.ProductsFromJSON(res.Content, page, o.cfg.MaxRecordsPerPage)
	}
	return extract.Products(res.Content, res.FinalURL, page, o.cfg.MaxRecordsPerPage)
}

func (o *Orchestrator) ocrEnabled() bool {
	return o.ocr != nil && o.ocr.Enabled()
}
