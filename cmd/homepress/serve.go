package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the generated site locally",
	Long: `Preview the generated site locally.

Serves the static site directory plus a read-only JSON API:
  /api/posts     published posts
  /api/products  trending products (optional ?category= and ?limit=)
  /api/alerts    price changes (optional ?threshold=)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		return runPreview(cmd.Context(), app)
	},
}

func previewRouter(app *app) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/posts", func(w http.ResponseWriter, req *http.Request) {
		posts, err := app.content.PublishedPosts(100)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, posts)
	})
	r.Get("/api/products", func(w http.ResponseWriter, req *http.Request) {
		limit := 20
		if v := req.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		trending, err := app.products.Trending(req.URL.Query().Get("category"), limit)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, trending)
	})
	r.Get("/api/alerts", func(w http.ResponseWriter, req *http.Request) {
		threshold := app.cfg.Automation.PriceThresholdPercent
		if v := req.URL.Query().Get("threshold"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				threshold = f
			}
		}
		alerts, err := app.tracker().MonitorPriceChanges(threshold)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		writeJSON(w, alerts)
	})
	r.Handle("/*", http.FileServer(http.Dir(app.cfg.Site.Dir)))
	return r
}

func runPreview(ctx context.Context, app *app) error {
	addr := fmt.Sprintf("127.0.0.1:%d", app.cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: previewRouter(app)}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "preview listening on http://%s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
