package products

import (
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleProduct(asin, category string, price float64, updated time.Time) Product {
	return Product{
		ASIN:          asin,
		Title:         "Product " + asin,
		Price:         price,
		Rating:        4.5,
		ReviewCount:   1000,
		Category:      category,
		AffiliateURL:  "https://amazon.com/dp/" + asin + "?tag=test-20",
		LastUpdated:   updated,
		TrendingScore: 0.5,
		Availability:  "In Stock",
		PrimeEligible: true,
	}
}

func TestUpsertReplacesByASIN(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	p := sampleProduct("B000000001", "kitchen", 99.99, now)
	if err := store.Upsert(p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p.Price = 89.99
	p.LastUpdated = now.AddDate(0, 0, 1)
	if err := store.Upsert(p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.Trending("kitchen", 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if got[0].Price != 89.99 {
		t.Errorf("price = %v, want updated 89.99", got[0].Price)
	}
}

func TestTrendingOrderAndCategoryFilter(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	low := sampleProduct("B000000001", "kitchen", 50, now)
	low.TrendingScore = 0.4
	high := sampleProduct("B000000002", "kitchen", 60, now)
	high.TrendingScore = 0.9
	other := sampleProduct("B000000003", "tools", 70, now)
	other.TrendingScore = 0.95
	for _, p := range []Product{low, high, other} {
		if err := store.Upsert(p); err != nil {
			t.Fatalf("upsert %s: %v", p.ASIN, err)
		}
	}

	kitchen, err := store.Trending("kitchen", 10)
	if err != nil {
		t.Fatalf("trending kitchen: %v", err)
	}
	if len(kitchen) != 2 || kitchen[0].ASIN != "B000000002" {
		t.Fatalf("kitchen results wrong: %+v", kitchen)
	}

	all, err := store.Trending("", 2)
	if err != nil {
		t.Fatalf("trending all: %v", err)
	}
	if len(all) != 2 || all[0].ASIN != "B000000003" {
		t.Fatalf("unfiltered results wrong: %+v", all)
	}
}

func TestPriceAlertsThresholdAndDirection(t *testing.T) {
	store := openTestStore(t)
	dayOld := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	today := dayOld.AddDate(0, 0, 2)

	// Rose 15%: alert.
	up := sampleProduct("B000000001", "kitchen", 100, dayOld)
	if err := store.Upsert(up); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	up.Price = 115
	up.LastUpdated = today
	if err := store.Upsert(up); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Dropped 5%: below threshold.
	flat := sampleProduct("B000000002", "kitchen", 100, dayOld)
	if err := store.Upsert(flat); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	flat.Price = 95
	flat.LastUpdated = today
	if err := store.Upsert(flat); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Dropped 20%: alert.
	down := sampleProduct("B000000003", "tools", 100, dayOld)
	if err := store.Upsert(down); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	down.Price = 80
	down.LastUpdated = today
	if err := store.Upsert(down); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	alerts, err := store.PriceAlerts(10, today.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("price alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2: %+v", len(alerts), alerts)
	}
	if alerts[0].ASIN != "B000000001" || alerts[0].Type != AlertPriceIncrease || alerts[0].PercentChange != 15.0 {
		t.Errorf("increase alert wrong: %+v", alerts[0])
	}
	if alerts[1].ASIN != "B000000003" || alerts[1].Type != AlertPriceDrop || alerts[1].PercentChange != -20.0 {
		t.Errorf("drop alert wrong: %+v", alerts[1])
	}
}

func TestPriceAlertsIgnoreFreshHistory(t *testing.T) {
	store := openTestStore(t)
	today := time.Date(2026, time.April, 3, 12, 0, 0, 0, time.UTC)

	p := sampleProduct("B000000001", "kitchen", 100, today)
	if err := store.Upsert(p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p.Price = 50
	if err := store.Upsert(p); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	alerts, err := store.PriceAlerts(10, today.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("price alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("got %d alerts from same-day history, want 0", len(alerts))
	}
}
