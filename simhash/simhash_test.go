package simhash

import (
	"testing"
)

func TestFingerprint_IdenticalTexts(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	fp1 := Fingerprint(text)
	fp2 := Fingerprint(text)

	if fp1 != fp2 {
		t.Errorf("identical texts produced different fingerprints: %064b vs %064b", fp1, fp2)
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	text1 := "the quick brown fox jumps over the lazy dog"
	text2 := "the quick brown fox leaps over the lazy dog"

	fp1 := Fingerprint(text1)
	fp2 := Fingerprint(text2)

	dist := Distance(fp1, fp2)
	if dist > 10 {
		t.Errorf("similar texts have too large distance: %d (fingerprints: %064b, %064b)", dist, fp1, fp2)
	}
}

func TestFingerprint_EmptyInput(t *testing.T) {
	fp := Fingerprint("")
	if fp != 0 {
		t.Errorf("empty input should produce fingerprint 0, got: %064b", fp)
	}
}

func TestFingerprint_WhitespaceOnly(t *testing.T) {
	fp := Fingerprint("   \t\n  ")
	if fp != 0 {
		t.Errorf("whitespace-only input should produce fingerprint 0, got: %064b", fp)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
		{"zero zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox")
	fp2 := Fingerprint("the quick brown fox")

	if !Similar(fp1, fp2, 0) {
		t.Error("identical fingerprints should be similar at threshold 0")
	}

	fp3 := Fingerprint("a completely different text about nothing related")
	dist := Distance(fp1, fp3)

	if Similar(fp1, fp3, dist-1) {
		t.Errorf("different texts should not be similar at threshold %d (distance is %d)", dist-1, dist)
	}
	if !Similar(fp1, fp3, dist) {
		t.Errorf("should be similar at threshold equal to distance (%d)", dist)
	}
}

func TestFingerprintPage_SamePage(t *testing.T) {
	page := []byte(`<html><body><div class="product"><h2>Widget A</h2><span>$19.99</span></div><div class="product"><h2>Widget B</h2><span>$29.99</span></div></body></html>`)

	fp1 := FingerprintPage(page)
	fp2 := FingerprintPage(page)

	if fp1 != fp2 {
		t.Errorf("same page produced different fingerprints: %064b vs %064b", fp1, fp2)
	}
}

func TestFingerprintPage_IgnoresScripts(t *testing.T) {
	page1 := []byte(`<html><body><script>var nonce = "abc123";</script><div class="product"><h2>Widget A</h2><span>$19.99</span></div></body></html>`)
	page2 := []byte(`<html><body><script>var nonce = "xyz789";</script><div class="product"><h2>Widget A</h2><span>$19.99</span></div></body></html>`)

	fp1 := FingerprintPage(page1)
	fp2 := FingerprintPage(page2)

	if fp1 != fp2 {
		t.Errorf("pages differing only in script content should hash the same, distance: %d", Distance(fp1, fp2))
	}
}

func TestFingerprintPage_DifferentListings(t *testing.T) {
	page1 := []byte(`<html><body><div><h2>Widget A</h2><span>$19.99</span></div><div><h2>Widget B</h2><span>$29.99</span></div></body></html>`)
	page2 := []byte(`<html><body><div><h2>Gadget X</h2><span>$5.00</span></div><div><h2>Gadget Y</h2><span>$7.50</span></div></body></html>`)

	fp1 := FingerprintPage(page1)
	fp2 := FingerprintPage(page2)

	if Distance(fp1, fp2) < 3 {
		t.Errorf("different listings should have larger distance, got: %d", Distance(fp1, fp2))
	}
}

func TestFingerprintPage_Empty(t *testing.T) {
	if fp := FingerprintPage(nil); fp != 0 {
		t.Errorf("empty page should produce fingerprint 0, got: %064b", fp)
	}
}

func TestFingerprintPage_FewWords(t *testing.T) {
	fp := FingerprintPage([]byte(`<p>hello world</p>`))
	if fp == 0 {
		t.Error("short page should still produce a non-zero fingerprint")
	}
}

func TestExtractWords(t *testing.T) {
	htmlStr := `<html><head><title>Shop</title><style>body { color: red; }</style></head><body><p>Widget A</p><script>track();</script><p>Widget B</p></body></html>`
	words := extractWords(htmlStr)

	expected := []string{"Shop", "Widget", "A", "Widget", "B"}
	if len(words) != len(expected) {
		t.Fatalf("expected %d words, got %d: %v", len(expected), len(words), words)
	}

	for i, w := range words {
		if w != expected[i] {
			t.Errorf("word[%d] = %q, want %q", i, w, expected[i])
		}
	}
}

func TestMakeShingles(t *testing.T) {
	tokens := []string{"a", "b", "c", "d"}

	shingles := makeShingles(tokens, 3)
	expected := []string{"a_b_c", "b_c_d"}

	if len(shingles) != len(expected) {
		t.Fatalf("expected %d shingles, got %d: %v", len(expected), len(shingles), shingles)
	}

	for i, s := range shingles {
		if s != expected[i] {
			t.Errorf("shingle[%d] = %q, want %q", i, s, expected[i])
		}
	}
}

func TestMakeShingles_TooFewTokens(t *testing.T) {
	shingles := makeShingles([]string{"a", "b"}, 3)
	if shingles != nil {
		t.Errorf("expected nil for fewer tokens than n, got: %v", shingles)
	}
}
