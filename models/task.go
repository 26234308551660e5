package models

import "time"

// Strategy identifies one page retrieval method.
type Strategy string

const (
	StrategyStatic   Strategy = "static"
	StrategyRendered Strategy = "rendered"
	StrategyStealth  Strategy = "stealth"
)

// Strategies lists all retrieval methods in default (cheapest-first) order.
func Strategies() []Strategy {
	return []Strategy{StrategyStatic, StrategyRendered, StrategyStealth}
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether the status is final. Terminal tasks are never
// mutated again.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskConfig is the per-task extraction configuration captured at submit.
type TaskConfig struct {
	MaxPages       int           `json:"max_pages"`
	UseOCR         bool          `json:"use_ocr"`
	InfiniteScroll bool          `json:"infinite_scroll,omitempty"`
	InterPageDelay time.Duration `json:"-"`
	WebhookURL     string        `json:"-"`
	WebhookSecret  string        `json:"-"`
}

// Progress marks how far a running extraction has advanced.
type Progress struct {
	CurrentPage  int    `json:"current_page"`
	PagesFetched int    `json:"pages_fetched"`
	Method       string `json:"method,omitempty"`
}

// Task is one tracked extraction job. The store mutates its canonical copy
// under a lock and hands out clones, so a reader never observes a torn
// state.
type Task struct {
	ID        string
	URL       string
	Config    TaskConfig
	Status    TaskStatus
	Progress  *Progress
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
	Error     string
	Result    *Result
}

// Clone returns a copy safe to mutate before publishing as the next
// snapshot. Result is shared by pointer: it is only ever set once, on the
// terminal transition, and never mutated afterwards.
func (t *Task) Clone() *Task {
	n := *t
	if t.Progress != nil {
		p := *t.Progress
		n.Progress = &p
	}
	return &n
}

// Duration is the elapsed run time, or zero if the task has not started.
func (t *Task) Duration() time.Duration {
	if t.StartedAt.IsZero() {
		return 0
	}
	if t.EndedAt.IsZero() {
		return time.Since(t.StartedAt)
	}
	return t.EndedAt.Sub(t.StartedAt)
}
