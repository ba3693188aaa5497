// Package ideas produces candidate content topics from fixed seasonal,
// market, and product-category theme tables. The generator is deterministic:
// the same date yields the same candidate set, and ideas are persisted
// idempotently by topic text.
package ideas

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/storage"
)

// Priority scores per theme. Market insights outrank seasonal content, which
// outranks evergreen product guides. Ties break by insertion order.
const (
	prioritySeasonal = 0.8
	priorityMarket   = 0.9
	priorityProduct  = 0.7
)

var seasonalTopics = map[string][]string{
	"winter": {"heating efficiency", "winter prep", "holiday decor", "energy savings"},
	"spring": {"spring cleaning", "garden prep", "home maintenance", "allergy solutions"},
	"summer": {"cooling solutions", "outdoor living", "energy efficiency", "vacation prep"},
	"fall":   {"fall maintenance", "winterization", "holiday prep", "cozy decor"},
}

var marketTopics = []string{
	"Virginia housing market trends",
	"first-time buyer programs",
	"interest rate impacts",
	"regional market analysis",
	"investment opportunities",
}

var productTopics = []string{
	"smart home essentials",
	"security systems",
	"kitchen appliances",
	"home tools",
	"decor ideas",
	"energy efficiency",
}

// IdeaStore persists generated ideas.
type IdeaStore interface {
	SaveIdea(storage.Idea) error
}

// Generator builds and persists content ideas for the current season.
type Generator struct {
	store IdeaStore
	clock clock.Clock
}

// NewGenerator creates a Generator. A nil clk defaults to the system clock.
func NewGenerator(store IdeaStore, clk clock.Clock) *Generator {
	if clk == nil {
		clk = clock.System{}
	}
	return &Generator{store: store, clock: clk}
}

// Season maps a date to its meteorological-ish season:
// Dec-Feb winter, Mar-May spring, Jun-Aug summer, Sep-Nov fall.
func Season(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

// Generate builds ideas for the current season across all theme tables,
// persists every one (duplicates on topic are ignored by the store), and
// returns at most count of them. Candidates beyond count are persisted but
// not returned.
func (g *Generator) Generate(count int) ([]storage.Idea, error) {
	now := g.clock.Now()
	season := Season(now)

	var candidates []storage.Idea

	for _, topic := range seasonalTopics[season] {
		candidates = append(candidates, storage.Idea{
			Topic:             fmt.Sprintf("%s Guide for Virginia Homeowners", titleCase(topic)),
			Category:          "seasonal",
			Keywords:          append(strings.Fields(topic), "Virginia", "homeowners", season),
			SeasonalRelevance: season,
			PriorityScore:     prioritySeasonal,
			TargetAudience:    "New homeowners",
			ContentType:       "guide",
			CreatedAt:         now,
		})
	}

	monthLabel := now.Format("January 2006")
	for _, topic := range marketTopics {
		candidates = append(candidates, storage.Idea{
			Topic:             fmt.Sprintf("%s: %s Update", titleCase(topic), monthLabel),
			Category:          "market-insights",
			Keywords:          append(strings.Fields(topic), "Virginia"),
			SeasonalRelevance: "year-round",
			PriorityScore:     priorityMarket,
			TargetAudience:    "Prospective buyers",
			ContentType:       "general",
			CreatedAt:         now,
		})
	}

	for _, category := range productTopics {
		candidates = append(candidates, storage.Idea{
			Topic:             fmt.Sprintf("Best %s for New Virginia Homeowners", titleCase(category)),
			Category:          "product-guide",
			Keywords:          append(strings.Fields(category), "Virginia", "new homeowners", "buying guide"),
			SeasonalRelevance: "year-round",
			PriorityScore:     priorityProduct,
			TargetAudience:    "New homeowners",
			ContentType:       "review",
			CreatedAt:         now,
		})
	}

	// Persist everything before truncating so nothing generated is lost.
	for _, idea := range candidates {
		if err := g.store.SaveIdea(idea); err != nil {
			return nil, fmt.Errorf("saving idea %q: %w", idea.Topic, err)
		}
	}

	if count > 0 && len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
