package main

import (
	"fmt"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/compose"
	"github.com/tidewater/homepress/internal/config"
	"github.com/tidewater/homepress/internal/genai"
	"github.com/tidewater/homepress/internal/ideas"
	"github.com/tidewater/homepress/internal/products"
	"github.com/tidewater/homepress/internal/publish"
	"github.com/tidewater/homepress/internal/runner"
	"github.com/tidewater/homepress/internal/scheduling"
	"github.com/tidewater/homepress/internal/storage"
)

// app wires the configured dependency graph for the commands.
type app struct {
	cfg      config.Config
	content  *storage.Store
	products *products.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	content, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening content store: %w", err)
	}
	productStore, err := products.Open(cfg.Storage.DataDir)
	if err != nil {
		content.Close()
		return nil, fmt.Errorf("opening product store: %w", err)
	}
	return &app{cfg: cfg, content: content, products: productStore}, nil
}

func (a *app) Close() {
	a.content.Close()
	a.products.Close()
}

func (a *app) generator() *ideas.Generator {
	return ideas.NewGenerator(a.content, clock.System{})
}

// compiler builds the post compiler. Content generation is enabled only when
// a generation URL is configured; without it the compiler uses templates.
func (a *app) compiler() *compose.Compiler {
	var writer *genai.Writer
	if a.cfg.Generation.URL != "" {
		writer = genai.NewWriter(genai.New(a.cfg.Generation.URL), a.cfg.Generation.Model)
	}
	return compose.NewCompiler(a.content, writer, clock.System{})
}

func (a *app) planner() *scheduling.Planner {
	return scheduling.NewPlanner(a.content, clock.System{})
}

func (a *app) publisher() *publish.Publisher {
	return publish.NewPublisher(a.content, a.cfg.Site.Dir, clock.System{})
}

func (a *app) tracker() *products.Tracker {
	source := products.NewCatalog(a.cfg.Affiliate.AssociateTag, clock.System{})
	return products.NewTracker(a.products, source, clock.System{})
}

func (a *app) runner() *runner.Runner {
	auto := a.cfg.Automation
	return runner.New(a.generator(), a.content, a.compiler(), a.planner(), a.publisher(), a.tracker(), runner.Options{
		IdeasPerRun:    auto.IdeasPerRun,
		ComposeLimit:   auto.ComposeLimit,
		PostsPerWeek:   auto.PostsPerWeek,
		PriceThreshold: auto.PriceThresholdPercent,
		IndexLimit:     auto.IndexLimit,
		BaseURL:        a.cfg.Site.BaseURL,
		SiteDir:        a.cfg.Site.Dir,
		ReportDir:      a.cfg.Storage.DataDir,
	})
}
