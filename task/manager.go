package task

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/use-agent/aurora/config"
	"github.com/use-agent/aurora/metrics"
	"github.com/use-agent/aurora/models"
	"github.com/use-agent/aurora/webhook"
)

// Runner executes one extraction task. Implemented by the orchestrator;
// faked in tests.
type Runner interface {
	Execute(ctx context.Context, task *models.Task, publish func(*models.Progress)) (*models.Result, error)
}

// Manager owns the task lifecycle. Submitted tasks run in background
// goroutines; clients poll status and fetch results by ID. Safe for
// concurrent use.
type Manager struct {
	store  *Store
	runner Runner
	cfg    config.ExtractionConfig
	met    *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewManager creates a Manager. Close must be called on shutdown to stop
// in-flight tasks and wait for their goroutines.
func NewManager(runner Runner, cfg config.ExtractionConfig, met *metrics.Metrics) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:   NewStore(),
		runner:  runner,
		cfg:     cfg,
		met:     met,
		ctx:     ctx,
		cancel:  cancel,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Submit validates the request, registers a pending task, and starts it in
// the background. The returned task is a snapshot taken at registration.
func (m *Manager) Submit(req *models.SubmitRequest) (*models.Task, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}

	maxPages := req.MaxPages
	if maxPages == 0 {
		maxPages = 1
	}
	if maxPages < 1 || maxPages > m.cfg.MaxPagesCap {
		return nil, models.NewTaskError(models.ErrCodeInvalidInput,
			"max_pages must be between 1 and the configured cap", nil)
	}

	t := &models.Task{
		ID:  "task-" + randomID(),
		URL: req.URL,
		Config: models.TaskConfig{
			MaxPages: maxPages,
			// Infinite scroll feeds confuse structural extraction often
			// enough that requesting one opts into the OCR fallback.
			UseOCR:         req.UseOCR || req.InfiniteScroll,
			InfiniteScroll: req.InfiniteScroll,
			InterPageDelay: m.cfg.InterPageDelay,
			WebhookURL:     req.WebhookURL,
			WebhookSecret:  req.WebhookSecret,
		},
		Status:    models.TaskPending,
		CreatedAt: time.Now(),
	}
	m.store.Put(t)
	m.met.IncSubmitted()

	runCtx, cancelRun := context.WithCancel(m.ctx)
	m.mu.Lock()
	m.cancels[t.ID] = cancelRun
	m.mu.Unlock()

	// Snapshot before the goroutine starts mutating the stored task.
	snapshot := t.Clone()

	m.wg.Add(1)
	go m.run(runCtx, t.ID)

	slog.Info("task submitted",
		"task_id", t.ID, "url", t.URL, "max_pages", maxPages, "use_ocr", t.Config.UseOCR)
	return snapshot, nil
}

// Status returns a snapshot of the task.
func (m *Manager) Status(id string) (*models.Task, error) {
	t, ok := m.store.Get(id)
	if !ok {
		return nil, models.NewTaskError(models.ErrCodeTaskNotFound, "no such task: "+id, nil)
	}
	return t, nil
}

// Result returns the task once it has reached a terminal state. Pending
// and running tasks yield a TASK_NOT_READY error so the API can tell
// clients to keep polling.
func (m *Manager) Result(id string) (*models.Task, error) {
	t, ok := m.store.Get(id)
	if !ok {
		return nil, models.NewTaskError(models.ErrCodeTaskNotFound, "no such task: "+id, nil)
	}
	if !t.Status.Terminal() {
		return nil, models.NewTaskError(models.ErrCodeTaskNotReady,
			"task is still "+string(t.Status), nil)
	}
	return t, nil
}

// Cancel stops a pending or running task. The task transitions to failed
// with a cancellation error; terminal tasks are left untouched.
func (m *Manager) Cancel(id string) (*models.Task, error) {
	t, ok := m.store.Get(id)
	if !ok {
		return nil, models.NewTaskError(models.ErrCodeTaskNotFound, "no such task: "+id, nil)
	}
	if t.Status.Terminal() {
		return t, nil
	}

	m.mu.Lock()
	cancelRun, ok := m.cancels[id]
	m.mu.Unlock()
	if ok {
		cancelRun()
	}
	slog.Info("task canceled", "task_id", id)

	t, _ = m.store.Get(id)
	return t, nil
}

// List returns snapshots of all tasks in submission order.
func (m *Manager) List() []*models.Task {
	return m.store.List()
}

// Stats summarizes the registry for the health endpoint.
func (m *Manager) Stats() models.TaskStats {
	return m.store.Stats()
}

// Close cancels all running tasks and waits for their goroutines to exit.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, id string) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.cancels, id)
		m.mu.Unlock()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("task panicked", "task_id", id, "panic", rec)
			m.finish(id, nil, models.NewTaskError(models.ErrCodeInternal,
				"internal error during extraction", nil))
		}
	}()

	var snapshot *models.Task
	m.store.Update(id, func(t *models.Task) {
		t.Status = models.TaskRunning
		t.StartedAt = time.Now()
		snapshot = t.Clone()
	})
	if snapshot == nil {
		return
	}

	publish := func(p *models.Progress) {
		m.store.Update(id, func(t *models.Task) {
			t.Progress = p
		})
	}

	result, err := m.runner.Execute(ctx, snapshot, publish)
	if ctx.Err() != nil && err == nil {
		err = models.NewTaskError(models.ErrCodeTimeout, "task canceled", ctx.Err())
	}
	m.finish(id, result, err)
}

// finish applies the terminal transition and fires the webhook, if any.
func (m *Manager) finish(id string, result *models.Result, err error) {
	var final *models.Task
	m.store.Update(id, func(t *models.Task) {
		if t.Status.Terminal() {
			final = nil
			return
		}
		t.EndedAt = time.Now()
		if err != nil {
			t.Status = models.TaskFailed
			t.Error = err.Error()
		} else {
			t.Status = models.TaskCompleted
			t.Result = result
		}
		final = t.Clone()
	})
	if final == nil {
		return
	}

	m.met.IncFinished(string(final.Status))
	slog.Info("task finished",
		"task_id", id, "status", final.Status, "duration", final.Duration().String())

	if final.Config.WebhookURL == "" {
		return
	}
	event := &webhook.Event{
		TaskID:    id,
		Timestamp: time.Now().Unix(),
	}
	if final.Status == models.TaskCompleted {
		event.Type = "task.completed"
		event.Data = map[string]any{
			"total_products":    final.Result.TotalProducts,
			"total_pages":       final.Result.TotalPages,
			"extraction_method": final.Result.ExtractionMethod,
			"ocr_used":          final.Result.OCRUsed,
		}
	} else {
		event.Type = "task.failed"
		event.Data = map[string]any{"error": final.Error}
	}
	webhook.DeliverAsync(final.Config.WebhookURL, final.Config.WebhookSecret, event)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewTaskError(models.ErrCodeInvalidInput,
			"url must be an absolute http or https URL", err)
	}
	return nil
}

// randomID generates a short random hex string for task IDs.
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
