package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

// FingerprintPage computes a SimHash fingerprint of a page's visible text.
// Script and style content is skipped so two listing pages that render the
// same items hash the same even when inline scripts differ. Used to detect
// pagination loops, where "next" keeps serving the same page.
func FingerprintPage(content []byte) uint64 {
	words := extractWords(string(content))
	if len(words) == 0 {
		return 0
	}

	shingles := makeShingles(words, 3)
	if len(shingles) == 0 {
		// Too few words for shingles; hash the word sequence directly.
		return Fingerprint(strings.Join(words, " "))
	}

	return Fingerprint(strings.Join(shingles, " "))
}

// extractWords walks HTML with the tokenizer and collects text words in
// document order, skipping script and style bodies.
func extractWords(htmlStr string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	var words []string
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return words
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if name := string(tn); name == "script" || name == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if name := string(tn); (name == "script" || name == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			words = append(words, strings.Fields(string(tokenizer.Text()))...)
		}
	}
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
