package browser

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/aurora/engine"
	"github.com/use-agent/aurora/models"
	"github.com/ysmood/gson"
)

// Session is one borrowed browser page. A pagination run holds a single
// Session so scroll and click state survives between pages. Not safe for
// concurrent use; Close must be called exactly once.
type Session struct {
	owner   *Browser
	page    *rod.Page
	router  *rod.HijackRouter
	stealth bool
}

// EngineName reports which fetch strategy this session represents.
func (s *Session) EngineName() string {
	if s.stealth {
		return "stealth"
	}
	return "rendered"
}

// Fetch navigates to the URL and returns the rendered document.
//
// Order matters here: extra headers are installed before Navigate so the
// first request already carries them, and the DOM-stable wait runs after
// Navigate so lazy-rendered listings settle before extraction.
func (s *Session) Fetch(ctx context.Context, target string) (*engine.FetchResult, error) {
	// A Google referer makes the visit look like organic search traffic,
	// which several storefronts require before serving full listings.
	headers := map[string]string{}
	if u, err := url.Parse(target); err == nil {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	if len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(headers),
		}.Call(s.page)
	}

	p := s.page.Context(ctx)

	if err := p.Navigate(target); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}

	return s.snapshot(p, target)
}

// Snapshot returns the current document without navigating. Call after
// ScrollStep or ClickLoadMore to pick up newly rendered items.
func (s *Session) Snapshot(ctx context.Context) (*engine.FetchResult, error) {
	p := s.page.Context(ctx)
	return s.snapshot(p, "")
}

func (s *Session) snapshot(p *rod.Page, fallbackURL string) (*engine.FetchResult, error) {
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	// Status code via the navigation performance entry. CDP network event
	// listeners conflict with the hijack router on Chromium 145+, so this
	// JS read is the reliable path.
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = fallbackURL
	}

	return &engine.FetchResult{
		Content:     []byte(rawHTML),
		ContentType: "text/html",
		Title:       title,
		StatusCode:  statusCode,
		FinalURL:    finalURL,
		EngineName:  s.EngineName(),
	}, nil
}

// ScrollStep scrolls to the bottom of the document and waits up to maxWait
// for the document to grow. Returns false when no new content appeared,
// which means the infinite scroll feed is exhausted.
func (s *Session) ScrollStep(ctx context.Context, maxWait time.Duration) (bool, error) {
	p := s.page.Context(ctx)

	before, err := scrollHeight(p)
	if err != nil {
		return false, categorizeError(err, "failed to read scroll height")
	}

	if _, err := p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return false, categorizeError(err, "scroll failed")
	}

	// Poll for growth; feeds load in bursts so a fixed sleep either wastes
	// time or gives up too early.
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, categorizeError(ctx.Err(), "scroll wait canceled")
		case <-time.After(250 * time.Millisecond):
		}

		after, err := scrollHeight(p)
		if err != nil {
			return false, categorizeError(err, "failed to read scroll height")
		}
		if after > before {
			// Give the new batch a moment to finish rendering.
			_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
			return true, nil
		}
	}

	return false, nil
}

// ClickLoadMore clicks the load-more button matching the selector and waits
// for the DOM to settle. Returns false when no such button is present or it
// is no longer clickable, meaning the listing is exhausted.
func (s *Session) ClickLoadMore(ctx context.Context, selector string) (bool, error) {
	p := s.page.Context(ctx)

	has, el, err := p.Has(selector)
	if err != nil {
		return false, categorizeError(err, "load-more lookup failed")
	}
	if !has {
		return false, nil
	}

	if err := el.ScrollIntoView(); err != nil {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		// Buttons often become disabled or detach on the last page.
		return false, nil
	}

	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable after load-more did not converge",
			"error", err,
		)
	}
	return true, nil
}

// Screenshot captures the current viewport as PNG for OCR extraction.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	p := s.page.Context(ctx)
	img, err := p.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, categorizeError(err, "screenshot capture failed")
	}
	return img, nil
}

// Close resets the page and returns it to the pool. Navigating to
// about:blank drops the old DOM so pooled pages don't accumulate memory.
func (s *Session) Close() {
	if s.router != nil {
		_ = s.router.Stop()
	}
	if err := s.page.Navigate("about:blank"); err != nil {
		slog.Warn("cleanup: failed to navigate to about:blank",
			"error", err,
		)
	}
	s.owner.pagePool.Put(s.page)
	s.owner.activePages.Add(-1)
}

func scrollHeight(p *rod.Page) (int, error) {
	res, err := p.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed TaskErrors so callers can map
// them to error codes and the escalation logic can tell timeouts apart.
func categorizeError(err error, msg string) *models.TaskError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewTaskError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewTaskError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewTaskError(models.ErrCodeFetchFailure, msg, err)
	}
}
