package models

// ErrorResponse is the envelope for every non-2xx API response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// SubmitResponse is the immediate response for POST /api/v1/tasks.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`

	// EstimatedTime is a rough completion estimate in seconds, shown by
	// polling clients while they wait.
	EstimatedTime int `json:"estimated_time"`
}

// ResultSummary is the results block embedded in a status response once the
// task has completed.
type ResultSummary struct {
	TotalProducts    int       `json:"total_products"`
	TotalPages       int       `json:"total_pages"`
	ExtractionMethod string    `json:"extraction_method"`
	OCRUsed          bool      `json:"ocr_used"`
	TableData        TableData `json:"table_data"`
}

// StatusResponse is the response for GET /api/v1/tasks/:id.
type StatusResponse struct {
	TaskID    string         `json:"task_id"`
	URL       string         `json:"url"`
	Status    TaskStatus     `json:"status"`
	MaxPages  int            `json:"max_pages"`
	UseOCR    bool           `json:"use_ocr"`
	StartTime string         `json:"start_time,omitempty"`
	EndTime   string         `json:"end_time,omitempty"`
	Duration  string         `json:"duration,omitempty"`
	Progress  *Progress      `json:"progress,omitempty"`
	Error     string         `json:"error,omitempty"`
	Results   *ResultSummary `json:"results,omitempty"`
}

// TaskSummary is one row in the GET /api/v1/tasks listing.
type TaskSummary struct {
	TaskID    string     `json:"task_id"`
	URL       string     `json:"url"`
	Status    TaskStatus `json:"status"`
	StartTime string     `json:"start_time,omitempty"`
	EndTime   string     `json:"end_time,omitempty"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// TaskStats summarizes the task registry for the health endpoint.
type TaskStats struct {
	Total   int `json:"total"`
	Running int `json:"running"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string    `json:"status"` // "healthy" or "degraded"
	Uptime  string    `json:"uptime"`
	Tasks   TaskStats `json:"tasks"`
	Pool    PoolStats `json:"pool_stats"`
	Version string    `json:"version"`
}
