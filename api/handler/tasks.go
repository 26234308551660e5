package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aurora/export"
	"github.com/use-agent/aurora/models"
	"github.com/use-agent/aurora/task"
)

// Completion estimates shown to polling clients, in seconds. OCR runs
// render and screenshot pages, so they take considerably longer.
const (
	estimateOCR        = 120
	estimateStructural = 30
)

// SubmitTask returns a handler for POST /api/v1/tasks.
//
// The task is accepted immediately and runs in the background; clients
// poll GET /tasks/:id until it reaches a terminal state.
func SubmitTask(m *task.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid request body: " + err.Error(),
				},
			})
			return
		}

		t, err := m.Submit(&req)
		if err != nil {
			writeError(c, err)
			return
		}

		estimate := estimateStructural
		if t.Config.UseOCR {
			estimate = estimateOCR
		}
		c.JSON(http.StatusAccepted, models.SubmitResponse{
			TaskID:        t.ID,
			Status:        string(t.Status),
			EstimatedTime: estimate,
		})
	}
}

// GetTask returns a handler for GET /api/v1/tasks/:id.
func GetTask(m *task.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := m.Status(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, statusResponse(t))
	}
}

// ListTasks returns a handler for GET /api/v1/tasks.
func ListTasks(m *task.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks := m.List()
		summaries := make([]models.TaskSummary, 0, len(tasks))
		for _, t := range tasks {
			summaries = append(summaries, models.TaskSummary{
				TaskID:    t.ID,
				URL:       t.URL,
				Status:    t.Status,
				StartTime: formatTime(t.StartedAt),
				EndTime:   formatTime(t.EndedAt),
			})
		}
		c.JSON(http.StatusOK, gin.H{"tasks": summaries, "count": len(summaries)})
	}
}

// GetResult returns a handler for GET /api/v1/tasks/:id/result.
//
// Responds 409 while the task is still pending or running so clients know
// to keep polling rather than treat it as a hard failure.
func GetResult(m *task.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := m.Result(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if t.Status == models.TaskFailed {
			c.JSON(http.StatusOK, gin.H{
				"task_id": t.ID,
				"status":  t.Status,
				"error":   t.Error,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"task_id": t.ID,
			"status":  t.Status,
			"result":  t.Result,
		})
	}
}

// DownloadResult returns a handler for GET /api/v1/tasks/:id/download.
// The format query parameter selects csv or json (default).
func DownloadResult(m *task.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		t, err := m.Result(id)
		if err != nil {
			writeError(c, err)
			return
		}
		if t.Status != models.TaskCompleted {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeTaskNotReady,
					Message: "task failed, nothing to download",
				},
			})
			return
		}

		switch c.DefaultQuery("format", "json") {
		case "csv":
			c.Header("Content-Disposition", `attachment; filename="`+id+`.csv"`)
			c.Header("Content-Type", "text/csv")
			c.Status(http.StatusOK)
			_ = export.WriteCSV(c.Writer, t.Result)
		case "json":
			c.Header("Content-Disposition", `attachment; filename="`+id+`.json"`)
			c.Header("Content-Type", "application/json")
			c.Status(http.StatusOK)
			_ = export.WriteJSON(c.Writer, t.Result)
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "format must be csv or json",
				},
			})
		}
	}
}

// CancelTask returns a handler for DELETE /api/v1/tasks/:id.
func CancelTask(m *task.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := m.Cancel(c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"task_id": t.ID,
			"status":  t.Status,
		})
	}
}

func statusResponse(t *models.Task) models.StatusResponse {
	resp := models.StatusResponse{
		TaskID:    t.ID,
		URL:       t.URL,
		Status:    t.Status,
		MaxPages:  t.Config.MaxPages,
		UseOCR:    t.Config.UseOCR,
		StartTime: formatTime(t.StartedAt),
		EndTime:   formatTime(t.EndedAt),
		Progress:  t.Progress,
		Error:     t.Error,
	}
	if d := t.Duration(); d > 0 {
		resp.Duration = d.Round(time.Millisecond).String()
	}
	if t.Result != nil {
		resp.Results = &models.ResultSummary{
			TotalProducts:    t.Result.TotalProducts,
			TotalPages:       t.Result.TotalPages,
			ExtractionMethod: t.Result.ExtractionMethod,
			OCRUsed:          t.Result.OCRUsed,
			TableData:        t.Result.TableData,
		}
	}
	return resp
}

// writeError maps internal error codes onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch models.CodeOf(err) {
	case models.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case models.ErrCodeTaskNotFound:
		status = http.StatusNotFound
	case models.ErrCodeTaskNotReady:
		status = http.StatusConflict
	case models.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case models.ErrCodeRateLimited:
		status = http.StatusTooManyRequests
	}

	var te *models.TaskError
	if errors.As(err, &te) {
		c.JSON(status, models.ErrorResponse{Error: te.ToDetail()})
		return
	}
	c.JSON(status, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()},
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
