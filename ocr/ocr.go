// Package ocr extracts product records from page screenshots using an
// OpenAI-compatible vision model. It is the fallback path when structural
// extraction comes up empty.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/aurora/config"
	"github.com/use-agent/aurora/extract"
	"github.com/use-agent/aurora/models"
)

// Client talks to an OpenAI-compatible vision API with net/http directly.
type Client struct {
	httpClient *http.Client
	cfg        config.OCRConfig
}

// NewClient creates a vision OCR client. Pass nil to use a default
// http.Client with the configured timeout.
func NewClient(httpClient *http.Client, cfg config.OCRConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

// Enabled reports whether OCR can run. Without an API key every
// escalation is skipped.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

const visionPrompt = `You are reading a screenshot of an e-commerce product listing page.
Extract every product visible in the image and return a JSON array. Each element must be an object with these keys:
"title", "price", "original_price", "discount", "description", "category", "image_url", "product_url", "rating", "reviews_count".
Use empty strings for values not visible in the image.
Return ONLY the JSON array, no markdown fences or explanation.`

// chatRequest is the OpenAI chat completion request body with vision content.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the minimal chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse captures an API error from the vision provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ExtractFromScreenshot sends a PNG screenshot to the vision model and
// parses the returned product array. The page number is stamped on every
// record.
func (c *Client) ExtractFromScreenshot(ctx context.Context, png []byte, pageURL string, page int) ([]models.ProductRecord, error) {
	if !c.Enabled() {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "OCR is not configured", nil)
	}

	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: visionPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		MaxTokens: c.cfg.MaxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "vision request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "failed to read vision response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "failed to parse vision response", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "vision model returned no choices", nil)
	}

	raw := extractJSONArray(chatResp.Choices[0].Message.Content)
	if raw == "" {
		return nil, models.NewTaskError(models.ErrCodeOCRFailure, "vision model returned no JSON array", nil)
	}

	// raw is a valid JSON array at this point; an empty result just means
	// no products were visible in the viewport.
	records := extract.ProductsFromJSON([]byte(raw), page, 0)
	for i := range records {
		if records[i].ProductURL == "" {
			records[i].ProductURL = pageURL
		}
	}
	return records, nil
}

// extractJSONArray pulls the outermost JSON array out of the model output.
// Models occasionally wrap the array in markdown fences or prose despite
// the prompt, so we scan for the bracket span instead of trusting the
// whole string.
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return ""
	}
	candidate := content[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return ""
	}
	return candidate
}

// classifyError maps HTTP status codes from the vision API to task errors.
func classifyError(statusCode int, body []byte) *models.TaskError {
	var errResp chatErrorResponse
	msg := "vision API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewTaskError(models.ErrCodeOCRFailure, "vision API auth failed: "+msg, nil)
	case http.StatusTooManyRequests:
		return models.NewTaskError(models.ErrCodeOCRFailure, "vision API rate limited: "+msg, nil)
	default:
		return models.NewTaskError(models.ErrCodeOCRFailure, fmt.Sprintf("vision API returned %d: %s", statusCode, msg), nil)
	}
}
