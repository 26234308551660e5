// Package selector decides which fetch strategies to try for a site and in
// what order, remembering what worked per domain.
package selector

import (
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/use-agent/aurora/models"
)

// difficultDomains are storefronts known to serve empty shells to plain
// HTTP clients. Starting them on a browser strategy saves a wasted probe.
var difficultDomains = []string{
	"amazon.",
	"flipkart.",
	"myntra.",
	"ajio.",
	"nykaa.",
	"walmart.",
	"bestbuy.",
}

// travelKeywords mark travel booking sites, which render fares in heavily
// scripted widgets that structural extraction can't read. Runs against
// them go straight to screenshot OCR.
var travelKeywords = []string{
	"makemytrip", "goibibo", "cleartrip", "yatra", "ixigo",
	"booking.com", "agoda", "expedia", "skyscanner", "kayak",
	"flight", "hotel",
}

const memorySize = 1024

// Selector plans the fetch strategy order for a URL. Winning strategies
// are pinned per domain with a TTL so repeat extractions of the same site
// skip the probing ladder.
type Selector struct {
	memory *expirable.LRU[string, models.Strategy]
}

// New creates a Selector whose domain memory expires after ttl.
func New(ttl time.Duration) *Selector {
	return &Selector{
		memory: expirable.NewLRU[string, models.Strategy](memorySize, nil, ttl),
	}
}

// Plan returns the strategies to try for the URL, cheapest first. A
// remembered winner for the domain is moved to the front; known-difficult
// domains skip the static probe entirely.
func (s *Selector) Plan(rawURL string) []models.Strategy {
	plan := models.Strategies()

	domain := domainOf(rawURL)
	if domain == "" {
		return plan
	}

	if isDifficult(domain) {
		plan = []models.Strategy{models.StrategyRendered, models.StrategyStealth}
	}

	if winner, ok := s.memory.Get(domain); ok {
		plan = frontload(plan, winner)
	}
	return plan
}

// Pin records the strategy that produced records for the URL's domain.
func (s *Selector) Pin(rawURL string, strategy models.Strategy) {
	if domain := domainOf(rawURL); domain != "" {
		s.memory.Add(domain, strategy)
	}
}

// Forget drops the pinned strategy for the URL's domain, used when a
// previously winning strategy starts failing.
func (s *Selector) Forget(rawURL string) {
	if domain := domainOf(rawURL); domain != "" {
		s.memory.Remove(domain)
	}
}

// IsTravelSite reports whether the URL belongs to a travel booking site.
func IsTravelSite(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, kw := range travelKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func frontload(plan []models.Strategy, winner models.Strategy) []models.Strategy {
	out := make([]models.Strategy, 0, len(plan))
	out = append(out, winner)
	for _, st := range plan {
		if st != winner {
			out = append(out, st)
		}
	}
	return out
}

func isDifficult(domain string) bool {
	for _, d := range difficultDomains {
		if strings.Contains(domain, d) {
			return true
		}
	}
	return false
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
