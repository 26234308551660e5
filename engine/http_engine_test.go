package engine

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newTestEngine(t *testing.T) *HTTPEngine {
	t.Helper()
	e := NewHTTPEngine(5 * time.Second)
	httpmock.ActivateNonDefault(e.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return e
}

func registerPage(url, contentType, body string, status int) {
	httpmock.RegisterResponder("GET", url, func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, body)
		resp.Header.Set("Content-Type", contentType)
		resp.Request = req
		return resp, nil
	})
}

func TestFetch_HTML(t *testing.T) {
	e := newTestEngine(t)
	page := `<html><head><title>Acme Store</title></head><body><div class="product">x</div></body></html>`
	registerPage("https://shop.example.com/widgets", "text/html; charset=utf-8", page, 200)

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://shop.example.com/widgets"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Content) != page {
		t.Fatal("content mismatch")
	}
	if res.Title != "Acme Store" {
		t.Fatalf("Title = %q, want Acme Store", res.Title)
	}
	if res.StatusCode != 200 {
		t.Fatalf("StatusCode = %d", res.StatusCode)
	}
	if res.FinalURL != "https://shop.example.com/widgets" {
		t.Fatalf("FinalURL = %q", res.FinalURL)
	}
	if res.EngineName != "static" {
		t.Fatalf("EngineName = %q", res.EngineName)
	}
}

func TestFetch_JSON(t *testing.T) {
	e := newTestEngine(t)
	registerPage("https://api.example.com/products", "application/json", `{"items":[]}`, 200)

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://api.example.com/products"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Title != "" {
		t.Fatalf("Title = %q, want empty for JSON", res.Title)
	}
	if !strings.Contains(res.ContentType, "application/json") {
		t.Fatalf("ContentType = %q", res.ContentType)
	}
}

func TestFetch_ErrorStatus(t *testing.T) {
	e := newTestEngine(t)
	registerPage("https://shop.example.com/gone", "text/html", "not found", 404)

	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://shop.example.com/gone"}); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestFetch_BinaryContentType(t *testing.T) {
	e := newTestEngine(t)
	registerPage("https://shop.example.com/logo.png", "image/png", "\x89PNG", 200)

	if _, err := e.Fetch(context.Background(), &FetchRequest{URL: "https://shop.example.com/logo.png"}); err == nil {
		t.Fatal("expected an error for a binary response")
	}
}

func TestFetch_CustomHeaders(t *testing.T) {
	e := newTestEngine(t)
	httpmock.RegisterResponder("GET", "https://shop.example.com/w", func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("X-Session-Token"); got != "abc123" {
			t.Errorf("X-Session-Token = %q, want abc123", got)
		}
		if ua := req.Header.Get("User-Agent"); !strings.Contains(ua, "Chrome") {
			t.Errorf("User-Agent = %q, want a Chrome-like default", ua)
		}
		resp := httpmock.NewStringResponse(200, "<html><body>ok</body></html>")
		resp.Header.Set("Content-Type", "text/html")
		resp.Request = req
		return resp, nil
	})

	if _, err := e.Fetch(context.Background(), &FetchRequest{
		URL:     "https://shop.example.com/w",
		Headers: map[string]string{"X-Session-Token": "abc123"},
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestIsUsableContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"text/html; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/json", true},
		{"text/plain", true},
		{"image/png", false},
		{"application/pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isUsableContentType(tt.ct); got != tt.want {
			t.Errorf("isUsableContentType(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", `<html><head><title>Store</title></head></html>`, "Store"},
		{"whitespace", `<title>  Padded  </title>`, "Padded"},
		{"missing", `<html><body><h1>Heading</h1></body></html>`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTitle(tt.html); got != tt.want {
				t.Fatalf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlocked(t *testing.T) {
	tests := []struct {
		name    string
		content string
		title   string
		want    bool
	}{
		{"cloudflare title", "<html></html>", "Just a moment...", true},
		{"captcha in body", "<html><body>Please solve the CAPTCHA to continue</body></html>", "", true},
		{"browser check", "<html><body>Checking your browser before accessing</body></html>", "Shop", true},
		{"clean listing", "<html><body><div class='product'>Widget</div></body></html>", "Acme Store", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Blocked([]byte(tt.content), tt.title); got != tt.want {
				t.Fatalf("Blocked() = %v, want %v", got, tt.want)
			}
		})
	}
}
