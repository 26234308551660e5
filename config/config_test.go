package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
	if cfg.Fetch.HTTPTimeout != 10*time.Second || cfg.Fetch.PageTimeout != 30*time.Second {
		t.Fatalf("fetch defaults = %+v", cfg.Fetch)
	}
	if cfg.Extraction.MaxPagesCap != 50 {
		t.Fatalf("MaxPagesCap = %d, want 50", cfg.Extraction.MaxPagesCap)
	}
	if cfg.Extraction.LatencyBudget != 45*time.Second {
		t.Fatalf("LatencyBudget = %v, want 45s", cfg.Extraction.LatencyBudget)
	}
	if !cfg.Extraction.LoopGuard {
		t.Fatal("LoopGuard should default to on")
	}
	if cfg.OCR.Model != "gpt-4o" || cfg.OCR.APIKey != "" {
		t.Fatalf("OCR defaults = %+v", cfg.OCR)
	}
	if want := []string{"Image", "Stylesheet", "Font", "Media"}; !reflect.DeepEqual(cfg.Browser.BlockedResourceTypes, want) {
		t.Fatalf("BlockedResourceTypes = %v", cfg.Browser.BlockedResourceTypes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AURORA_PORT", "9090")
	t.Setenv("AURORA_LATENCY_BUDGET", "90s")
	t.Setenv("AURORA_LOOP_GUARD", "false")
	t.Setenv("AURORA_OCR_API_KEY", "sk-test")
	t.Setenv("AURORA_API_KEYS", "key-a, key-b,")
	t.Setenv("AURORA_RATE_RPS", "2.5")

	cfg := Load()
	if cfg.Server.Port != 9090 {
		t.Fatalf("Port = %d", cfg.Server.Port)
	}
	if cfg.Extraction.LatencyBudget != 90*time.Second {
		t.Fatalf("LatencyBudget = %v", cfg.Extraction.LatencyBudget)
	}
	if cfg.Extraction.LoopGuard {
		t.Fatal("LoopGuard not overridden")
	}
	if cfg.OCR.APIKey != "sk-test" {
		t.Fatalf("APIKey = %q", cfg.OCR.APIKey)
	}
	if want := []string{"key-a", "key-b"}; !reflect.DeepEqual(cfg.Auth.APIKeys, want) {
		t.Fatalf("APIKeys = %v", cfg.Auth.APIKeys)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Fatalf("RequestsPerSecond = %v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("AURORA_PORT", "not-a-number")
	t.Setenv("AURORA_LATENCY_BUDGET", "soon")
	t.Setenv("AURORA_LOOP_GUARD", "maybe")

	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Fatalf("Port = %d, want the default on a bad value", cfg.Server.Port)
	}
	if cfg.Extraction.LatencyBudget != 45*time.Second {
		t.Fatalf("LatencyBudget = %v, want the default", cfg.Extraction.LatencyBudget)
	}
	if !cfg.Extraction.LoopGuard {
		t.Fatal("LoopGuard should fall back to on")
	}
}
