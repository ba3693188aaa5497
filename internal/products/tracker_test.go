package products

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidewater/homepress/internal/clock"
)

func TestTrendingScore(t *testing.T) {
	cases := []struct {
		rating  float64
		reviews int
		prime   bool
		want    float64
	}{
		{5.0, 100000, true, 1.0},
		{5.0, 200000, true, 1.0}, // review volume caps at 100k
		{4.5, 50000, true, 0.76},
		{4.5, 50000, false, 0.66},
		{0, 0, false, 0.1},
	}
	for _, tc := range cases {
		if got := TrendingScore(tc.rating, tc.reviews, tc.prime); got != tc.want {
			t.Errorf("TrendingScore(%v, %d, %v) = %v, want %v", tc.rating, tc.reviews, tc.prime, got, tc.want)
		}
	}
}

func TestRefreshStoresScoredProducts(t *testing.T) {
	store := openTestStore(t)
	clk := clock.NewFake(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	tracker := NewTracker(store, NewCatalog("vahome-20", clk), clk)

	n, err := tracker.Refresh(context.Background(), "kitchen")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored %d products, want 2", n)
	}

	got, err := store.Trending("kitchen", 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d products, want 2", len(got))
	}
	// Instant Pot Duo: 4.7 stars, 234k reviews, Prime.
	if got[0].TrendingScore != 0.98 {
		t.Errorf("top score = %v, want 0.98", got[0].TrendingScore)
	}
	if !strings.Contains(got[0].AffiliateURL, "tag=vahome-20") {
		t.Errorf("affiliate url missing associate tag: %s", got[0].AffiliateURL)
	}
}

func TestRefreshAllCategoriesIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	clk := clock.NewFake(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	tracker := NewTracker(store, NewCatalog("vahome-20", clk), clk)

	first, err := tracker.Refresh(context.Background(), "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if first == 0 {
		t.Fatal("refresh stored nothing")
	}

	second, err := tracker.Refresh(context.Background(), "")
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if second != first {
		t.Fatalf("second refresh stored %d, want %d", second, first)
	}

	all, err := store.Trending("", 100)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(all) != first {
		t.Errorf("%d rows after two refreshes, want %d", len(all), first)
	}
}

func TestRefreshUnknownCategory(t *testing.T) {
	store := openTestStore(t)
	tracker := NewTracker(store, NewCatalog("vahome-20", nil), nil)
	if _, err := tracker.Refresh(context.Background(), "aquariums"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

type failingSource struct{}

func (failingSource) Search(ctx context.Context, keyword, category string, limit int) ([]Product, error) {
	return nil, errors.New("service unavailable")
}

func TestRefreshReportsSourceErrors(t *testing.T) {
	store := openTestStore(t)
	tracker := NewTracker(store, failingSource{}, nil)
	n, err := tracker.Refresh(context.Background(), "kitchen")
	if err == nil {
		t.Fatal("expected search error")
	}
	if n != 0 {
		t.Errorf("stored %d products from a failing source, want 0", n)
	}
}

// flakySource fails a single keyword and delegates the rest.
type flakySource struct {
	inner       Source
	failKeyword string
}

func (f flakySource) Search(ctx context.Context, keyword, category string, limit int) ([]Product, error) {
	if keyword == f.failKeyword {
		return nil, errors.New("transient upstream failure")
	}
	return f.inner.Search(ctx, keyword, category, limit)
}

func TestRefreshKeepsResultsWhenOneKeywordFails(t *testing.T) {
	store := openTestStore(t)
	clk := clock.NewFake(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	source := flakySource{inner: NewCatalog("vahome-20", clk), failKeyword: "air fryer"}
	tracker := NewTracker(store, source, clk)

	n, err := tracker.Refresh(context.Background(), "kitchen")
	if err == nil {
		t.Fatal("expected the failed keyword to surface in the error")
	}
	if !strings.Contains(err.Error(), "air fryer") {
		t.Errorf("error does not name the failed keyword: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored %d products, want 2 from the surviving keywords", n)
	}

	got, err := store.Trending("kitchen", 100)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("store holds %d kitchen products, want 2", len(got))
	}
}

func TestMonitorPriceChanges(t *testing.T) {
	store := openTestStore(t)
	clk := clock.NewFake(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	tracker := NewTracker(store, NewCatalog("vahome-20", clk), clk)

	seed := func(asin string, oldPrice, newPrice float64) {
		t.Helper()
		p := sampleProduct(asin, "kitchen", oldPrice, clk.Now())
		if err := store.Upsert(p); err != nil {
			t.Fatalf("upsert %s: %v", asin, err)
		}
		p.Price = newPrice
		p.LastUpdated = clk.Now().AddDate(0, 0, 2)
		if err := store.Upsert(p); err != nil {
			t.Fatalf("upsert %s: %v", asin, err)
		}
	}
	seed("B000000001", 100, 115) // +15%: increase alert
	seed("B000000002", 100, 95)  // -5%: under threshold, silent
	seed("B000000003", 100, 80)  // -20%: drop alert
	clk.AdvanceDays(2)

	alerts, err := tracker.MonitorPriceChanges(10)
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2: %+v", len(alerts), alerts)
	}

	up := alerts[0]
	if up.Type != AlertPriceIncrease || up.PercentChange != 15.0 || up.PreviousPrice != 100 || up.CurrentPrice != 115 {
		t.Errorf("increase alert wrong: %+v", up)
	}
	down := alerts[1]
	if down.Type != AlertPriceDrop || down.PercentChange != -20.0 || down.CurrentPrice != 80 {
		t.Errorf("drop alert wrong: %+v", down)
	}
	for _, a := range alerts {
		if a.ASIN == "B000000002" {
			t.Errorf("5%% move alerted despite 10%% threshold: %+v", a)
		}
	}
}

func TestWriteSiteExport(t *testing.T) {
	store := openTestStore(t)
	siteDir := t.TempDir()
	clk := clock.NewFake(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC))
	tracker := NewTracker(store, NewCatalog("vahome-20", clk), clk)

	if _, err := tracker.Refresh(context.Background(), ""); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := tracker.WriteSiteExport(siteDir); err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(siteDir, "assets", "products.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var export map[string][]siteProduct
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("decode export: %v", err)
	}

	smartHome, ok := export["smart-home"]
	if !ok {
		t.Fatalf("export missing smart-home category; got %v", keysOf(export))
	}
	var ring *siteProduct
	for i := range smartHome {
		if strings.HasPrefix(smartHome[i].Title, "Ring Video Doorbell") {
			ring = &smartHome[i]
		}
	}
	if ring == nil {
		t.Fatal("Ring doorbell missing from smart-home export")
	}
	if ring.Price != "$99.99" {
		t.Errorf("price = %q, want $99.99", ring.Price)
	}
	if ring.Reviews != "156,789" {
		t.Errorf("reviews = %q, want 156,789", ring.Reviews)
	}
	// 4.4/5*0.4 + 1.0*0.4 + 0.1 + 0.1 = 0.95, over the trending cutoff.
	if !ring.Trending {
		t.Error("Ring doorbell should be flagged trending")
	}
	if ring.Category != "smart-home" {
		t.Errorf("category = %q, want smart-home", ring.Category)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		156789:  "156,789",
		1234567: "1,234,567",
	}
	for n, want := range cases {
		if got := groupThousands(n); got != want {
			t.Errorf("groupThousands(%d) = %q, want %q", n, got, want)
		}
	}
}

func keysOf(m map[string][]siteProduct) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
