// Package scheduling assigns publish dates to draft posts at a weekly
// cadence and records each decision in the publishing schedule.
package scheduling

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/storage"
)

// maxPerRun bounds how many drafts a single scheduling pass will touch.
const maxPerRun = 20

// ScheduleStore is the subset of the content store the planner needs.
type ScheduleStore interface {
	DraftPosts(limit int) ([]storage.Post, error)
	MarkScheduled(postID string, date time.Time) error
}

// Planner assigns future publish dates to drafts.
type Planner struct {
	store ScheduleStore
	clock clock.Clock
}

// NewPlanner creates a Planner. A nil clk defaults to the system clock.
func NewPlanner(store ScheduleStore, clk clock.Clock) *Planner {
	if clk == nil {
		clk = clock.System{}
	}
	return &Planner{store: store, clock: clk}
}

// Schedule assigns dates to up to 20 draft posts, oldest first, spacing them
// 7/postsPerWeek days apart starting from today. The division is integer with
// a floor of one day, so postsPerWeek=2 schedules every 3 days rather than
// evenly across the week; the cadence holds dates to calendar-day boundaries.
// Returns the number of posts scheduled.
//
// Re-running on the same drafts is a no-op for posts already scheduled: the
// store's status guard skips them and the schedule keeps one entry per post.
func (p *Planner) Schedule(postsPerWeek int) (int, error) {
	if postsPerWeek <= 0 {
		return 0, fmt.Errorf("postsPerWeek must be positive, got %d", postsPerWeek)
	}

	drafts, err := p.store.DraftPosts(maxPerRun)
	if err != nil {
		return 0, fmt.Errorf("loading drafts: %w", err)
	}
	if len(drafts) == 0 {
		return 0, nil
	}

	cadenceDays := 7 / postsPerWeek
	if cadenceDays < 1 {
		cadenceDays = 1
	}

	start := p.clock.Now()
	scheduled := 0
	for i, post := range drafts {
		date := start.AddDate(0, 0, i*cadenceDays)
		if err := p.store.MarkScheduled(post.ID, date); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Raced with another invocation; the post is no longer a draft.
				continue
			}
			return scheduled, fmt.Errorf("scheduling post %s: %w", post.ID, err)
		}
		slog.Info("scheduled post", "post_id", post.ID, "title", post.Title, "date", date.Format("2006-01-02"))
		scheduled++
	}
	return scheduled, nil
}
