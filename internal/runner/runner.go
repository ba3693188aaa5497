// Package runner orchestrates the full automation cycle: idea generation,
// drafting, scheduling, publishing, product tracking, and site exports.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tidewater/homepress/internal/products"
	"github.com/tidewater/homepress/internal/storage"
)

// IdeaGenerator produces and persists content ideas.
type IdeaGenerator interface {
	Generate(count int) ([]storage.Idea, error)
}

// IdeaStore hands pending ideas to the composer.
type IdeaStore interface {
	PendingIdeas(limit int) ([]storage.Idea, error)
	MarkIdeaUsed(id int64) error
}

// Composer turns one idea into a draft post.
type Composer interface {
	Compile(ctx context.Context, idea storage.Idea) (storage.Post, error)
}

// Planner assigns publish dates to drafts.
type Planner interface {
	Schedule(postsPerWeek int) (int, error)
}

// Publisher renders due posts and maintains the site exports.
type Publisher interface {
	PublishDue() (int, error)
	WriteIndex(limit int) (int, error)
	WriteSitemap(baseURL string) error
}

// ProductOps refreshes tracked products and watches prices.
type ProductOps interface {
	Refresh(ctx context.Context, category string) (int, error)
	MonitorPriceChanges(thresholdPercent float64) ([]products.Alert, error)
	WriteSiteExport(siteDir string) error
}

// Options tune a full automation cycle.
type Options struct {
	IdeasPerRun    int
	ComposeLimit   int
	PostsPerWeek   int
	PriceThreshold float64
	IndexLimit     int
	BaseURL        string
	SiteDir        string
	ReportDir      string
}

func (o *Options) applyDefaults() {
	if o.IdeasPerRun <= 0 {
		o.IdeasPerRun = 10
	}
	if o.ComposeLimit <= 0 {
		o.ComposeLimit = 5
	}
	if o.PostsPerWeek <= 0 {
		o.PostsPerWeek = 3
	}
	if o.PriceThreshold <= 0 {
		o.PriceThreshold = 10
	}
	if o.IndexLimit <= 0 {
		o.IndexLimit = 50
	}
}

// Summary reports what one full cycle accomplished.
type Summary struct {
	Ideas     int
	Drafts    int
	Scheduled int
	Published int
	Products  int
	Alerts    int
}

// Runner drives the automation stages.
type Runner struct {
	generator IdeaGenerator
	ideas     IdeaStore
	composer  Composer
	planner   Planner
	publisher Publisher
	products  ProductOps
	opts      Options
}

// New creates a Runner over the given stage implementations.
func New(generator IdeaGenerator, ideas IdeaStore, composer Composer, planner Planner, publisher Publisher, productOps ProductOps, opts Options) *Runner {
	opts.applyDefaults()
	return &Runner{
		generator: generator,
		ideas:     ideas,
		composer:  composer,
		planner:   planner,
		publisher: publisher,
		products:  productOps,
		opts:      opts,
	}
}

// Full runs one complete automation cycle. A failed stage is logged and
// skipped; the remaining stages still run so a broken product source cannot
// stall publishing. The joined stage errors are returned alongside the
// summary of work done.
func (r *Runner) Full(ctx context.Context) (Summary, error) {
	var sum Summary
	var failures []error
	fail := func(stage string, err error) {
		slog.Error("stage failed", "stage", stage, "error", err)
		failures = append(failures, fmt.Errorf("%s: %w", stage, err))
	}

	if generated, err := r.generator.Generate(r.opts.IdeasPerRun); err != nil {
		fail("ideas", err)
	} else {
		sum.Ideas = len(generated)
	}

	if err := r.composeStage(ctx, &sum); err != nil {
		fail("compose", err)
	}

	if n, err := r.planner.Schedule(r.opts.PostsPerWeek); err != nil {
		fail("schedule", err)
	} else {
		sum.Scheduled = n
	}

	if n, err := r.publisher.PublishDue(); err != nil {
		fail("publish", err)
	} else {
		sum.Published = n
	}

	if n, err := r.products.Refresh(ctx, ""); err != nil {
		fail("products", err)
	} else {
		sum.Products = n
	}

	if alerts, err := r.products.MonitorPriceChanges(r.opts.PriceThreshold); err != nil {
		fail("alerts", err)
	} else {
		sum.Alerts = len(alerts)
		if err := r.reportAlerts(alerts); err != nil {
			fail("alerts", err)
		}
	}

	if err := r.exportStage(); err != nil {
		fail("export", err)
	}

	slog.Info("automation cycle complete",
		"ideas", sum.Ideas, "drafts", sum.Drafts, "scheduled", sum.Scheduled,
		"published", sum.Published, "products", sum.Products, "alerts", sum.Alerts)
	return sum, errors.Join(failures...)
}

// composeStage drafts the highest-priority pending ideas and marks each one
// used only after its draft is saved.
func (r *Runner) composeStage(ctx context.Context, sum *Summary) error {
	pending, err := r.ideas.PendingIdeas(r.opts.ComposeLimit)
	if err != nil {
		return fmt.Errorf("loading pending ideas: %w", err)
	}
	for _, idea := range pending {
		post, err := r.composer.Compile(ctx, idea)
		if err != nil {
			return fmt.Errorf("compiling %q: %w", idea.Topic, err)
		}
		if err := r.ideas.MarkIdeaUsed(idea.ID); err != nil {
			return fmt.Errorf("marking idea %d used: %w", idea.ID, err)
		}
		sum.Drafts++
		slog.Info("drafted post", "topic", idea.Topic, "post_id", post.ID)
	}
	return nil
}

func (r *Runner) exportStage() error {
	if _, err := r.publisher.WriteIndex(r.opts.IndexLimit); err != nil {
		return fmt.Errorf("posts index: %w", err)
	}
	if err := r.publisher.WriteSitemap(r.opts.BaseURL); err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}
	if err := r.products.WriteSiteExport(r.opts.SiteDir); err != nil {
		return fmt.Errorf("product export: %w", err)
	}
	return nil
}

// reportAlerts logs each alert and, when a report directory is configured,
// writes the batch to price_alerts.json for the ops review pass.
func (r *Runner) reportAlerts(alerts []products.Alert) error {
	for _, a := range alerts {
		slog.Warn("price alert",
			"asin", a.ASIN, "title", a.Title, "type", a.Type,
			"previous", a.PreviousPrice, "current", a.CurrentPrice,
			"change_percent", a.PercentChange)
	}
	if r.opts.ReportDir == "" || len(alerts) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding alerts: %w", err)
	}
	if err := os.MkdirAll(r.opts.ReportDir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(r.opts.ReportDir, "price_alerts.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing alerts report: %w", err)
	}
	return nil
}

// failureCooldown delays the next cycle after a failed one so a persistent
// fault does not spin the loop.
const failureCooldown = 5 * time.Minute

// Loop runs full cycles every interval until ctx is cancelled. A cycle that
// returns an error is logged and the loop continues after a cooldown.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}

		wait := interval
		if _, err := r.Full(ctx); err != nil {
			slog.Error("automation cycle failed", "error", err)
			if wait > failureCooldown {
				wait = failureCooldown
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
