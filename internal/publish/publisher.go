// Package publish turns due schedule entries into static HTML pages and
// maintains the site's machine-readable exports.
package publish

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/storage"
)

// PostStore is the subset of the content store the publisher needs.
type PostStore interface {
	DueEntries(day time.Time) ([]storage.ScheduleEntry, error)
	GetPost(id string) (storage.Post, error)
	MarkPublished(postID string) error
	PublishedPosts(limit int) ([]storage.Post, error)
}

// Publisher renders scheduled posts into the site directory.
type Publisher struct {
	store   PostStore
	siteDir string
	clock   clock.Clock
}

// NewPublisher creates a Publisher writing under siteDir. A nil clk defaults
// to the system clock.
func NewPublisher(store PostStore, siteDir string, clk clock.Clock) *Publisher {
	if clk == nil {
		clk = clock.System{}
	}
	return &Publisher{store: store, siteDir: siteDir, clock: clk}
}

// PublishDue renders every schedule entry due on or before today and flips
// the post and schedule entry to published. A post that fails to render or
// write does not stop the batch; its error is folded into the returned error
// after the remaining entries are processed. Returns the number of posts
// published.
func (p *Publisher) PublishDue() (int, error) {
	entries, err := p.store.DueEntries(p.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("loading due entries: %w", err)
	}

	var failures []error
	published := 0
	for _, entry := range entries {
		if err := p.publishOne(entry.PostID); err != nil {
			slog.Error("publishing post failed", "post_id", entry.PostID, "error", err)
			failures = append(failures, fmt.Errorf("post %s: %w", entry.PostID, err))
			continue
		}
		published++
	}
	return published, errors.Join(failures...)
}

func (p *Publisher) publishOne(postID string) error {
	post, err := p.store.GetPost(postID)
	if err != nil {
		return fmt.Errorf("loading post: %w", err)
	}

	page, err := renderPage(post)
	if err != nil {
		return err
	}

	dir := filepath.Join(p.siteDir, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating posts directory: %w", err)
	}
	path := filepath.Join(dir, post.Slug+".html")
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}

	if err := p.store.MarkPublished(postID); err != nil {
		return fmt.Errorf("marking published: %w", err)
	}
	slog.Info("published post", "post_id", postID, "slug", post.Slug, "path", path)
	return nil
}
