package engine

import "strings"

// blockSignals are phrases that bot-protection interstitials put in the
// page title or body. Lowercase; matched with strings.Contains.
var blockSignals = []string{
	"just a moment",
	"checking your browser",
	"attention required",
	"verify you are human",
	"are you a robot",
	"access denied",
	"captcha",
	"cf-browser-verification",
	"challenge-platform",
	"ddos protection by",
}

// Blocked reports whether a fetched page looks like a bot-protection or
// captcha interstitial rather than real content. The title is checked in
// full; only the first few KB of the body are scanned since interstitials
// are small and front-load their markers.
func Blocked(content []byte, title string) bool {
	lowerTitle := strings.ToLower(title)
	for _, sig := range blockSignals {
		if lowerTitle != "" && strings.Contains(lowerTitle, sig) {
			return true
		}
	}

	const scanLimit = 16 << 10
	body := content
	if len(body) > scanLimit {
		body = body[:scanLimit]
	}
	lowerBody := strings.ToLower(string(body))
	for _, sig := range blockSignals {
		if strings.Contains(lowerBody, sig) {
			return true
		}
	}
	return false
}
