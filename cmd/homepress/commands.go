package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Generate content ideas for the current season",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		generated, err := app.generator().Generate(count)
		if err != nil {
			return err
		}
		printSuccess("Generated %d content ideas", len(generated))
		for _, idea := range generated {
			printStatus(idea.ContentType, "%s (priority %.1f)", idea.Topic, idea.PriorityScore)
		}
		return nil
	},
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Draft posts from the highest-priority pending ideas",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		pending, err := app.content.PendingIdeas(limit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			printWarning("No pending ideas; run `homepress ideas` first")
			return nil
		}

		compiler := app.compiler()
		for _, idea := range pending {
			post, err := compiler.Compile(cmd.Context(), idea)
			if err != nil {
				return err
			}
			if err := app.content.MarkIdeaUsed(idea.ID); err != nil {
				return err
			}
			printStatus("draft", "%s (%s)", post.Title, post.Slug)
		}
		printSuccess("Drafted %d posts", len(pending))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Assign publish dates to draft posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		perWeek, _ := cmd.Flags().GetInt("posts-per-week")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.planner().Schedule(perWeek)
		if err != nil {
			return err
		}
		printSuccess("Scheduled %d posts at %d per week", n, perWeek)
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Render and publish all posts due today",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.publisher().PublishDue()
		if err != nil {
			return err
		}
		if n == 0 {
			printWarning("No posts due")
			return nil
		}
		printSuccess("Published %d posts to %s", n, app.cfg.Site.Dir)
		return nil
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Refresh tracked affiliate products",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.tracker().Refresh(cmd.Context(), category)
		if err != nil {
			return err
		}
		printSuccess("Refreshed %d products", n)
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Report significant price changes on tracked products",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		alerts, err := app.tracker().MonitorPriceChanges(threshold)
		if err != nil {
			return err
		}
		if len(alerts) == 0 {
			printSuccess("No price changes over %.0f%%", threshold)
			return nil
		}
		for _, a := range alerts {
			printStatus(a.Type, "%s: $%.2f → $%.2f (%+.1f%%)", a.Title, a.PreviousPrice, a.CurrentPrice, a.PercentChange)
		}
		printWarning("%d price alerts", len(alerts))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the posts and products JSON feeds for the website",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.publisher().WriteIndex(limit)
		if err != nil {
			return err
		}
		if err := app.tracker().WriteSiteExport(app.cfg.Site.Dir); err != nil {
			return err
		}
		printSuccess("Exported %d posts and the product feed to %s", n, app.cfg.Site.Dir)
		return nil
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Regenerate sitemap.xml",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.publisher().WriteSitemap(app.cfg.Site.BaseURL); err != nil {
			return err
		}
		printSuccess("Sitemap written for %s", app.cfg.Site.BaseURL)
		return nil
	},
}

var fullCmd = &cobra.Command{
	Use:   "full",
	Short: "Run one complete automation cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		sum, err := app.runner().Full(cmd.Context())
		printStatus("ideas", "%d", sum.Ideas)
		printStatus("drafts", "%d", sum.Drafts)
		printStatus("scheduled", "%d", sum.Scheduled)
		printStatus("published", "%d", sum.Published)
		printStatus("products", "%d", sum.Products)
		printStatus("alerts", "%d", sum.Alerts)
		if err != nil {
			return err
		}
		printSuccess("Automation cycle complete")
		return nil
	},
}

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run automation cycles continuously",
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, _ := cmd.Flags().GetInt("interval")
		if hours <= 0 {
			hours = 24
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		printSuccess("Running automation every %dh; Ctrl-C to stop", hours)
		app.runner().Loop(ctx, time.Duration(hours)*time.Hour)
		return nil
	},
}

func init() {
	ideasCmd.Flags().Int("count", 10, "how many ideas to return")
	composeCmd.Flags().Int("limit", 5, "maximum ideas to draft")
	scheduleCmd.Flags().Int("posts-per-week", 3, "publishing cadence")
	productsCmd.Flags().String("category", "", "refresh a single category")
	alertsCmd.Flags().Float64("threshold", 10, "alert threshold in percent")
	exportCmd.Flags().Int("limit", 50, "maximum posts in the index")
	loopCmd.Flags().Int("interval", 24, "hours between cycles")
}
