package models

// SubmitRequest is the payload for POST /api/v1/tasks.
type SubmitRequest struct {
	// URL is the listing page to extract. Must be an absolute http(s) URL.
	URL string `json:"url" binding:"required"`

	// MaxPages bounds pagination traversal. Default: 1. Max: configured cap (50).
	MaxPages int `json:"max_pages,omitempty"`

	// UseOCR permits the screenshot+vision fallback when structural
	// extraction comes up empty, errors, or overruns the latency budget.
	UseOCR bool `json:"use_ocr,omitempty"`

	// InfiniteScroll marks the target as an endless-feed site. Implies UseOCR.
	InfiniteScroll bool `json:"infinite_scroll,omitempty"`

	// WebhookURL, when set, receives a signed task.completed / task.failed
	// event once the task reaches a terminal state.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}
