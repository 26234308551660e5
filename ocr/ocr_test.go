package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/use-agent/aurora/config"
	"github.com/use-agent/aurora/models"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(nil, config.OCRConfig{
		BaseURL:   "https://vision.example.com/v1",
		APIKey:    "test-key",
		Model:     "gpt-4o",
		MaxTokens: 2000,
		Timeout:   5 * time.Second,
	})
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func chatReply(content string) httpmock.Responder {
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	return httpmock.NewJsonResponderOrPanic(200, body)
}

func TestExtractFromScreenshot(t *testing.T) {
	c := testClient(t)
	httpmock.RegisterResponder("POST", "https://vision.example.com/v1/chat/completions",
		func(req *http.Request) (*http.Response, error) {
			if auth := req.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("Authorization = %q", auth)
			}
			var body chatRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if body.Model != "gpt-4o" {
				t.Errorf("model = %q", body.Model)
			}
			parts := body.Messages[0].Content
			if len(parts) != 2 || parts[1].ImageURL == nil ||
				!strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
				t.Errorf("request missing the base64 image part: %+v", parts)
			}
			return chatReply(`[{"title":"Wireless Mouse","price":"$24.99","rating":"4.3"},{"title":"USB Hub","price":"$15.00","product_url":"https://shop.example.com/hub"}]`)(req)
		})

	records, err := c.ExtractFromScreenshot(context.Background(), []byte("png-bytes"), "https://shop.example.com/w", 2)
	if err != nil {
		t.Fatalf("ExtractFromScreenshot: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Title != "Wireless Mouse" || records[0].Price != "$24.99" {
		t.Fatalf("record 0 = %+v", records[0])
	}
	if records[0].Page != 2 {
		t.Fatalf("Page = %d, want 2", records[0].Page)
	}
	// Records without their own link get the page URL.
	if records[0].ProductURL != "https://shop.example.com/w" {
		t.Fatalf("ProductURL = %q, want the page URL", records[0].ProductURL)
	}
	if records[1].ProductURL != "https://shop.example.com/hub" {
		t.Fatalf("ProductURL = %q, want the record's own link", records[1].ProductURL)
	}
}

func TestExtractFromScreenshot_MarkdownFences(t *testing.T) {
	c := testClient(t)
	httpmock.RegisterResponder("POST", "https://vision.example.com/v1/chat/completions",
		chatReply("Here are the products:\n```json\n[{\"title\":\"Desk Lamp\",\"price\":\"$12.00\"}]\n```"))

	records, err := c.ExtractFromScreenshot(context.Background(), []byte("png"), "https://shop.example.com", 1)
	if err != nil {
		t.Fatalf("ExtractFromScreenshot: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Desk Lamp" {
		t.Fatalf("records = %+v", records)
	}
}

func TestExtractFromScreenshot_EmptyArray(t *testing.T) {
	c := testClient(t)
	httpmock.RegisterResponder("POST", "https://vision.example.com/v1/chat/completions",
		chatReply("[]"))

	records, err := c.ExtractFromScreenshot(context.Background(), []byte("png"), "https://shop.example.com", 1)
	if err != nil {
		t.Fatalf("an empty viewport is not an error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}

func TestExtractFromScreenshot_NoArray(t *testing.T) {
	c := testClient(t)
	httpmock.RegisterResponder("POST", "https://vision.example.com/v1/chat/completions",
		chatReply("I cannot see any structured data in this image."))

	_, err := c.ExtractFromScreenshot(context.Background(), []byte("png"), "https://shop.example.com", 1)
	if !models.IsCode(err, models.ErrCodeOCRFailure) {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeOCRFailure)
	}
}

func TestExtractFromScreenshot_APIError(t *testing.T) {
	c := testClient(t)
	httpmock.RegisterResponder("POST", "https://vision.example.com/v1/chat/completions",
		httpmock.NewStringResponder(429, `{"error":{"message":"Rate limit reached","type":"requests"}}`))

	_, err := c.ExtractFromScreenshot(context.Background(), []byte("png"), "https://shop.example.com", 1)
	if !models.IsCode(err, models.ErrCodeOCRFailure) {
		t.Fatalf("err = %v, want %s", err, models.ErrCodeOCRFailure)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want a rate limit message", err)
	}
}

func TestEnabled(t *testing.T) {
	if NewClient(nil, config.OCRConfig{}).Enabled() {
		t.Fatal("Enabled() without an API key")
	}
	if !NewClient(nil, config.OCRConfig{APIKey: "k"}).Enabled() {
		t.Fatal("not Enabled() with an API key")
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare", `[{"title":"x"}]`, `[{"title":"x"}]`},
		{"fenced", "```json\n[1,2]\n```", "[1,2]"},
		{"prose around", `Sure! [true] Hope that helps.`, `[true]`},
		{"no array", "nothing here", ""},
		{"invalid json", `[{"title":}]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONArray(tt.content); got != tt.want {
				t.Fatalf("extractJSONArray() = %q, want %q", got, tt.want)
			}
		})
	}
}
