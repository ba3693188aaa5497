// Package products tracks affiliate products: refresh from a product source,
// trending scores, price history, and the website product export.
package products

import (
	"math"
	"time"
)

// Product is one tracked affiliate product.
type Product struct {
	ASIN          string
	Title         string
	Price         float64
	Rating        float64
	ReviewCount   int
	Category      string
	ImageURL      string
	AffiliateURL  string
	LastUpdated   time.Time
	TrendingScore float64
	Availability  string
	PrimeEligible bool
}

// Alert types reported by MonitorPriceChanges.
const (
	AlertPriceDrop     = "price_drop"
	AlertPriceIncrease = "price_increase"
)

// Alert describes a price move that crossed the monitoring threshold.
type Alert struct {
	ASIN          string  `json:"asin"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	PercentChange float64 `json:"price_change_percent"`
	Type          string  `json:"alert_type"`
}

// Categories maps each tracked product category to the search keywords
// refreshed for it. Picked for new Virginia homeowners.
var Categories = map[string][]string{
	"smart_home": {
		"smart thermostat", "smart doorbell", "smart locks", "smart lights",
		"smart plugs", "smart speakers", "home automation", "smart security",
	},
	"security": {
		"home security system", "security cameras", "motion sensors",
		"door sensors", "window alarms", "smart locks", "doorbell camera",
	},
	"kitchen": {
		"instant pot", "air fryer", "coffee maker", "blender", "food processor",
		"kitchen appliances", "cookware set", "kitchen tools",
	},
	"tools": {
		"drill set", "tool kit", "screwdriver set", "hammer", "measuring tape",
		"level", "utility knife", "toolbox", "home repair tools",
	},
	"decor": {
		"wall art", "throw pillows", "curtains", "rugs", "lighting",
		"storage solutions", "shelving", "home decor",
	},
	"seasonal": {
		"humidifier", "dehumidifier", "space heater", "fan", "air purifier",
		"seasonal decor", "outdoor furniture", "garden tools",
	},
}

// TrendingScore weighs rating (40%), review volume capped at 100k (40%),
// Prime eligibility (10%) and a 10% base, rounded to two decimals.
func TrendingScore(rating float64, reviewCount int, prime bool) float64 {
	ratingScore := rating / 5.0
	reviewScore := math.Min(float64(reviewCount)/100000, 1.0)
	primeScore := 0.0
	if prime {
		primeScore = 0.1
	}
	return round2(ratingScore*0.4 + reviewScore*0.4 + primeScore + 0.1)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
