package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tidewater/homepress/internal/clock"
)

const (
	// searchLimit is how many products each keyword search keeps.
	searchLimit = 5
	// refreshConcurrency bounds in-flight keyword searches.
	refreshConcurrency = 4
	// trendingCutoff marks a product as trending on the website export.
	trendingCutoff = 0.7
	// exportPerCategory is how many products the website export lists
	// per category.
	exportPerCategory = 8
)

// Tracker refreshes product data and watches prices.
type Tracker struct {
	store  *Store
	source Source
	clock  clock.Clock
}

// NewTracker creates a Tracker. A nil clk defaults to the system clock.
func NewTracker(store *Store, source Source, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.System{}
	}
	return &Tracker{store: store, source: source, clock: clk}
}

// Refresh searches every keyword of the given category (or of all categories
// when category is empty), scores the results, and upserts them with a price
// history entry. Keyword searches run concurrently; a failed keyword is
// logged and skipped so the other keywords' products still land, with the
// collected failures joined into the returned error. Only a store failure
// aborts the refresh. Returns the number of products stored.
func (t *Tracker) Refresh(ctx context.Context, category string) (int, error) {
	targets := Categories
	if category != "" {
		keywords, ok := Categories[category]
		if !ok {
			return 0, fmt.Errorf("unknown category %q", category)
		}
		targets = map[string][]string{category: keywords}
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	var fetched []Product
	var failures []error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for _, name := range names {
		for _, keyword := range targets[name] {
			name, keyword := name, keyword
			g.Go(func() error {
				found, err := t.source.Search(ctx, keyword, name, searchLimit)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					slog.Error("keyword search failed", "keyword", keyword, "category", name, "error", err)
					failures = append(failures, fmt.Errorf("searching %q: %w", keyword, err))
					return nil
				}
				fetched = append(fetched, found...)
				return nil
			})
		}
	}
	g.Wait()

	stored := 0
	for _, p := range fetched {
		p.TrendingScore = TrendingScore(p.Rating, p.ReviewCount, p.PrimeEligible)
		if err := t.store.Upsert(p); err != nil {
			return stored, err
		}
		stored++
	}
	slog.Info("product refresh complete", "category", category, "stored", stored, "failed_keywords", len(failures))
	return stored, errors.Join(failures...)
}

// MonitorPriceChanges reports products whose price moved at least
// thresholdPercent against their last recorded price older than one day.
// Same-day history is skipped so a refresh does not mask the move it just
// recorded.
func (t *Tracker) MonitorPriceChanges(thresholdPercent float64) ([]Alert, error) {
	cutoff := t.clock.Now().AddDate(0, 0, -1)
	return t.store.PriceAlerts(thresholdPercent, cutoff)
}

// siteProduct matches the shape the website's product grid consumes.
type siteProduct struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       string  `json:"price"`
	Rating      float64 `json:"rating"`
	Reviews     string  `json:"reviews"`
	Image       string  `json:"image"`
	AmazonURL   string  `json:"amazonUrl"`
	Category    string  `json:"category"`
	Trending    bool    `json:"trending"`
}

// WriteSiteExport writes assets/products.json under siteDir: the top
// products per category with display-formatted prices and a trending flag.
func (t *Tracker) WriteSiteExport(siteDir string) error {
	export := make(map[string][]siteProduct)
	for name := range Categories {
		trending, err := t.store.Trending(name, exportPerCategory)
		if err != nil {
			return fmt.Errorf("loading %s products: %w", name, err)
		}
		slug := strings.ReplaceAll(name, "_", "-")
		entries := make([]siteProduct, 0, len(trending))
		for _, p := range trending {
			entries = append(entries, siteProduct{
				ID:          productID(p.ASIN),
				Title:       p.Title,
				Description: describe(p),
				Price:       fmt.Sprintf("$%.2f", p.Price),
				Rating:      p.Rating,
				Reviews:     groupThousands(p.ReviewCount),
				Image:       p.ImageURL,
				AmazonURL:   p.AffiliateURL,
				Category:    slug,
				Trending:    p.TrendingScore > trendingCutoff,
			})
		}
		export[slug] = entries
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding product export: %w", err)
	}
	dir := filepath.Join(siteDir, "assets")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating assets directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "products.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing products.json: %w", err)
	}
	return nil
}

var categoryBlurbs = map[string]string{
	"smart_home": "Perfect for automating your new Virginia home with smart technology",
	"security":   "Essential security solution for protecting your new home and family",
	"kitchen":    "Must-have kitchen appliance for new homeowners starting their culinary journey",
	"tools":      "Essential tool for DIY projects and home maintenance tasks",
	"decor":      "Beautiful home decor item to personalize your new living space",
	"seasonal":   "Seasonal essential for Virginia's changing weather conditions",
}

func describe(p Product) string {
	blurb, ok := categoryBlurbs[p.Category]
	if !ok {
		blurb = "Great addition to any new home"
	}
	if p.PrimeEligible {
		blurb += " - Prime eligible for fast delivery"
	}
	if p.Rating >= 4.5 {
		blurb += " - Highly rated by customers"
	}
	return blurb
}

// productID maps an ASIN to the small numeric id the website uses as a
// stable DOM key.
func productID(asin string) int {
	id := 0
	for _, r := range asin {
		id = (id*31 + int(r)) % 10000
	}
	return id
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
