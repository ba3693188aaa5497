package products

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/tidewater/homepress/internal/clock"
)

// Source finds products for a search keyword. The production implementation
// would sit on the Amazon Product Advertising API; the Catalog below serves
// curated research data in the meantime.
type Source interface {
	Search(ctx context.Context, keyword, category string, limit int) ([]Product, error)
}

type catalogItem struct {
	title         string
	price         float64
	rating        float64
	reviewCount   int
	primeEligible bool
}

// catalog holds researched picks per keyword. Keywords without an entry
// return no products, which the tracker treats as a normal empty result.
var catalog = map[string][]catalogItem{
	"smart thermostat": {
		{"Nest Learning Thermostat - Smart WiFi Thermostat", 249.99, 4.3, 67543, true},
		{"Ecobee SmartThermostat with Voice Control", 199.99, 4.4, 45678, true},
	},
	"smart doorbell": {
		{"Ring Video Doorbell - 1080p HD Video", 99.99, 4.4, 156789, true},
		{"Arlo Essential Video Doorbell - Wire-Free", 149.99, 4.2, 34567, true},
	},
	"instant pot": {
		{"Instant Pot Duo 7-in-1 Electric Pressure Cooker", 79.95, 4.7, 234567, true},
		{"Instant Pot Pro 10-in-1 Pressure Cooker", 129.95, 4.6, 89012, true},
	},
	"drill set": {
		{"BLACK+DECKER 20V MAX Cordless Drill", 49.99, 4.3, 45678, true},
		{"DEWALT 20V MAX Cordless Drill/Driver Kit", 99.99, 4.6, 78901, true},
	},
}

// Catalog is a Source backed by the static catalog above.
type Catalog struct {
	associateTag string
	clock        clock.Clock
}

// NewCatalog creates a Catalog stamping affiliate URLs with tag. A nil clk
// defaults to the system clock.
func NewCatalog(tag string, clk clock.Clock) *Catalog {
	if clk == nil {
		clk = clock.System{}
	}
	return &Catalog{associateTag: tag, clock: clk}
}

// Search returns up to limit catalog entries for the keyword.
func (c *Catalog) Search(ctx context.Context, keyword, category string, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := catalog[keyword]
	if len(items) > limit {
		items = items[:limit]
	}

	now := c.clock.Now()
	out := make([]Product, 0, len(items))
	for i, item := range items {
		asin := catalogASIN(keyword, i)
		out = append(out, Product{
			ASIN:          asin,
			Title:         item.title,
			Price:         item.price,
			Rating:        item.rating,
			ReviewCount:   item.reviewCount,
			Category:      category,
			ImageURL:      fmt.Sprintf("https://images.unsplash.com/photo-%d?w=400&h=400", 1500000000+i),
			AffiliateURL:  fmt.Sprintf("https://amazon.com/dp/%s?tag=%s", asin, c.associateTag),
			LastUpdated:   now,
			Availability:  "In Stock",
			PrimeEligible: item.primeEligible,
		})
	}
	return out, nil
}

// catalogASIN derives a stable placeholder ASIN so repeated refreshes update
// the same rows instead of inserting new ones.
func catalogASIN(keyword string, index int) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s/%d", keyword, index)
	return fmt.Sprintf("B%09d", h.Sum32()%1_000_000_000)
}
