package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/aurora/engine"
	"github.com/use-agent/aurora/models"
	"github.com/use-agent/aurora/paginate"
	"github.com/use-agent/aurora/selector"
)

// OCR escalation trigger reasons.
const (
	escalateZeroRecords   = "zero_records"
	escalateLatencyBudget = "latency_budget"
	escalateError         = "extraction_error"
	escalateTravelSite    = "travel_site"
)

// run holds the state of one extraction.
type run struct {
	o       *Orchestrator
	task    *models.Task
	publish func(*models.Progress)

	started   time.Time
	strategy  models.Strategy
	session   Session
	escalated bool
	ocrErr    error

	result *models.Result
	seen   map[string]struct{}
}

// Execute runs the task to completion. publish is called with progress
// snapshots as pages complete; it may be nil. The returned Result is
// final and projected into tabular form.
func (o *Orchestrator) Execute(ctx context.Context, task *models.Task, publish func(*models.Progress)) (*models.Result, error) {
	if publish == nil {
		publish = func(*models.Progress) {}
	}
	r := &run{
		o:       o,
		task:    task,
		publish: publish,
		started: time.Now(),
		result:  &models.Result{},
		seen:    make(map[string]struct{}),
	}
	defer r.release()

	// Travel fare pages render prices in scripted widgets the selector
	// ladder can't read; go straight to the screenshot path.
	if task.Config.UseOCR && o.ocrEnabled() && selector.IsTravelSite(task.URL) {
		o.met.IncEscalation(escalateTravelSite)
		return r.ocrOnly(ctx)
	}

	first, err := r.probe(ctx)
	if err != nil {
		if rec, ok := r.tryEscalate(ctx, escalateError, task.URL, 1); ok {
			r.appendRecords(rec)
			return r.finalize(1), nil
		}
		if r.ocrErr != nil {
			return nil, r.ocrFailure()
		}
		return nil, err
	}
	r.result.ExtractionMethod = string(r.strategy)

	driver := paginate.NewDriver(task.Config.MaxPages, o.cfg.LoopGuard, o.cfg.LoopGuardDistance)

	current := first
	pageNo := 1
	for {
		records := o.extractRecords(current, pageNo)
		added := r.appendRecords(records)
		r.recordPage(pageNo, current, added)
		r.publishProgress(pageNo)

		if reason := r.escalationTrigger(len(records)); reason != "" {
			if rec, ok := r.tryEscalate(ctx, reason, current.FinalURL, pageNo); ok {
				r.appendRecords(rec)
				break
			}
			if r.ocrErr != nil {
				break
			}
		}

		action := driver.Next(current.Content, current.ContentType, pageURLOf(current, task.URL))
		if action.Kind == paginate.Stop {
			slog.Debug("pagination stopped",
				"task", task.ID, "page", pageNo, "reason", action.Reason)
			break
		}

		if err := r.interPageDelay(ctx); err != nil {
			break
		}

		next, err := r.advance(ctx, action)
		if err != nil {
			if rec, ok := r.tryEscalate(ctx, escalateError, pageURLOf(current, task.URL), pageNo); ok {
				r.appendRecords(rec)
			}
			break
		}
		if next == nil {
			// The listing is exhausted (no growth on scroll, no button left).
			break
		}
		current = next
		pageNo++
	}

	// A spent escalation that errored is terminal even when structural
	// extraction collected records along the way.
	if r.ocrErr != nil {
		return nil, r.ocrFailure()
	}
	return r.finalize(pageNo), nil
}

// probe tries each planned strategy on the first page until one yields
// records. A strategy that fetches cleanly but extracts nothing is kept as
// a fallback so the run still has content to paginate or OCR from.
func (r *run) probe(ctx context.Context) (*engine.FetchResult, error) {
	plan := r.o.sel.Plan(r.task.URL)

	var (
		fallback      *engine.FetchResult
		fallbackStrat models.Strategy
		fallbackSess  Session
		firstErr      error
	)

	for _, st := range plan {
		res, sess, err := r.fetchFirst(ctx, st)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			slog.Debug("strategy probe failed",
				"task", r.task.ID, "strategy", st, "error", err)
			continue
		}
		if engine.Blocked(res.Content, res.Title) {
			slog.Info("strategy blocked by bot protection",
				"task", r.task.ID, "strategy", st)
			if sess != nil {
				sess.Close()
			}
			continue
		}

		if recs := r.o.extractRecords(res, 1); len(recs) > 0 {
			if fallbackSess != nil {
				fallbackSess.Close()
			}
			r.strategy = st
			r.session = sess
			r.o.sel.Pin(r.task.URL, st)
			return res, nil
		}

		if fallbackSess != nil {
			fallbackSess.Close()
		}
		fallback, fallbackStrat, fallbackSess = res, st, sess
	}

	if fallback != nil {
		r.strategy = fallbackStrat
		r.session = fallbackSess
		return fallback, nil
	}

	if firstErr != nil {
		return nil, models.NewTaskError(models.ErrCodeFetchFailure, "all fetch strategies failed", firstErr)
	}
	return nil, models.NewTaskError(models.ErrCodeFetchFailure, "all fetch strategies were blocked", nil)
}

// fetchFirst performs the initial fetch for a strategy. Browser strategies
// acquire a session that the caller owns on success.
func (r *run) fetchFirst(ctx context.Context, st models.Strategy) (*engine.FetchResult, Session, error) {
	start := time.Now()
	defer func() { r.o.met.ObserveFetch(time.Since(start)) }()

	if st == models.StrategyStatic {
		res, err := r.o.static.Fetch(ctx, &engine.FetchRequest{URL: r.task.URL})
		if err != nil {
			return nil, nil, err
		}
		r.o.met.IncPage(string(st))
		return res, nil, nil
	}

	sess, err := r.o.sessions.Acquire(ctx, st == models.StrategyStealth, true)
	if err != nil {
		return nil, nil, err
	}
	res, err := sess.Fetch(ctx, r.task.URL)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	r.o.met.IncPage(string(st))
	return res, sess, nil
}

// advance executes a pagination action and returns the next page, or nil
// when the listing is exhausted.
func (r *run) advance(ctx context.Context, action paginate.Action) (*engine.FetchResult, error) {
	switch action.Kind {
	case paginate.NextURL:
		return r.fetchNext(ctx, action.URL)

	case paginate.Scroll:
		if r.session == nil {
			// The static strategy has no live page to scroll.
			return nil, nil
		}
		grew, err := r.session.ScrollStep(ctx, r.o.cfg.ScrollMaxWait)
		if err != nil {
			return nil, err
		}
		if !grew {
			return nil, nil
		}
		return r.session.Snapshot(ctx)

	case paginate.ClickLoadMore:
		if r.session == nil {
			return nil, nil
		}
		clicked, err := r.session.ClickLoadMore(ctx, action.Selector)
		if err != nil {
			return nil, err
		}
		if !clicked {
			return nil, nil
		}
		return r.session.Snapshot(ctx)

	default:
		return nil, nil
	}
}

func (r *run) fetchNext(ctx context.Context, url string) (*engine.FetchResult, error) {
	start := time.Now()
	defer func() { r.o.met.ObserveFetch(time.Since(start)) }()

	var res *engine.FetchResult
	var err error
	if r.session != nil {
		res, err = r.session.Fetch(ctx, url)
	} else {
		res, err = r.o.static.Fetch(ctx, &engine.FetchRequest{URL: url})
	}
	if err != nil {
		return nil, err
	}
	if engine.Blocked(res.Content, res.Title) {
		return nil, models.NewTaskError(models.ErrCodeFetchFailure, "page blocked by bot protection", nil)
	}
	r.o.met.IncPage(string(r.strategy))
	return res, nil
}

// escalationTrigger decides whether the page just processed warrants an
// OCR escalation. Returns "" when structural extraction should continue.
// pageRecords is the raw per-page extraction count; a page that re-serves
// items already collected is not an empty page.
func (r *run) escalationTrigger(pageRecords int) string {
	if pageRecords == 0 {
		return escalateZeroRecords
	}
	if time.Since(r.started) > r.o.cfg.LatencyBudget {
		return escalateLatencyBudget
	}
	return ""
}

// tryEscalate performs the one-shot OCR fallback. It reports false when
// OCR is disabled, not requested, already spent, or failed; a failure is
// remembered in r.ocrErr and fails the run once the loop unwinds.
func (r *run) tryEscalate(ctx context.Context, reason, pageURL string, pageNo int) ([]models.ProductRecord, bool) {
	if r.escalated || !r.task.Config.UseOCR || !r.o.ocrEnabled() {
		return nil, false
	}
	r.escalated = true
	r.o.met.IncEscalation(reason)
	slog.Info("escalating to OCR",
		"task", r.task.ID, "reason", reason, "page", pageNo)

	records, err := r.ocrPage(ctx, pageURL, pageNo)
	if err != nil {
		slog.Warn("OCR escalation failed",
			"task", r.task.ID, "error", err)
		r.ocrErr = err
		return nil, false
	}

	r.result.OCRUsed = true
	if len(r.result.Records) == 0 {
		r.result.ExtractionMethod = "ocr"
	}
	r.recordOCRPage(pageNo, pageURL, len(records))
	return records, true
}

// ocrPage renders the page in a fresh session with resource blocking off
// so the screenshot actually shows products, then runs vision extraction.
func (r *run) ocrPage(ctx context.Context, pageURL string, pageNo int) ([]models.ProductRecord, error) {
	if pageURL == "" {
		pageURL = r.task.URL
	}
	sess, err := r.o.sessions.Acquire(ctx, r.strategy == models.StrategyStealth, false)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if _, err := sess.Fetch(ctx, pageURL); err != nil {
		return nil, err
	}
	png, err := sess.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	return r.o.ocr.ExtractFromScreenshot(ctx, png, pageURL, pageNo)
}

func (r *run) ocrFailure() error {
	return models.NewTaskError(models.ErrCodeOCRFailure, "OCR fallback failed", r.ocrErr)
}

// ocrOnly is the direct screenshot path for sites where structural
// extraction is known not to work.
func (r *run) ocrOnly(ctx context.Context) (*models.Result, error) {
	r.escalated = true
	r.result.ExtractionMethod = "ocr"
	r.result.OCRUsed = true

	records, err := r.ocrPage(ctx, r.task.URL, 1)
	if err != nil {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "OCR extraction failed", err)
	}
	r.appendRecords(records)
	r.recordOCRPage(1, r.task.URL, len(records))
	r.publishProgress(1)
	return r.finalize(1), nil
}

// appendRecords deduplicates against everything collected so far; growing
// documents (scroll, load-more) re-serve earlier items on every snapshot.
func (r *run) appendRecords(records []models.ProductRecord) int {
	added := 0
	for _, rec := range records {
		key := rec.Title + "|" + rec.Price
		if _, dup := r.seen[key]; dup {
			continue
		}
		r.seen[key] = struct{}{}
		r.result.Records = append(r.result.Records, rec)
		added++
	}
	r.o.met.AddProducts(added)
	return added
}

func (r *run) recordPage(pageNo int, res *engine.FetchResult, added int) {
	r.result.Pages = append(r.result.Pages, models.PageMeta{
		Page:    pageNo,
		Method:  string(r.strategy),
		Records: added,
		URL:     pageURLOf(res, r.task.URL),
	})
}

func (r *run) recordOCRPage(pageNo int, pageURL string, added int) {
	r.result.Pages = append(r.result.Pages, models.PageMeta{
		Page:    pageNo,
		Method:  "ocr",
		Records: added,
		URL:     pageURL,
	})
}

func (r *run) publishProgress(pageNo int) {
	method := string(r.strategy)
	if r.escalated {
		method = "ocr"
	}
	r.publish(&models.Progress{
		CurrentPage:  pageNo,
		PagesFetched: pageNo,
		Method:       method,
	})
}

func (r *run) interPageDelay(ctx context.Context) error {
	d := r.task.Config.InterPageDelay
	if d <= 0 {
		d = r.o.cfg.InterPageDelay
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (r *run) finalize(totalPages int) *models.Result {
	r.result.TotalPages = totalPages
	r.result.Project()
	return r.result
}

func (r *run) release() {
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
}

func pageURLOf(res *engine.FetchResult, fallback string) string {
	if res.FinalURL != "" {
		return res.FinalURL
	}
	return fallback
}
