package scheduling

import (
	"testing"
	"time"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func draft(id, slug string, created time.Time) storage.Post {
	return storage.Post{
		ID:          id,
		Title:       "Post " + id,
		Slug:        slug,
		Content:     "# Post\n\nBody.",
		Category:    "maintenance",
		Author:      "Test",
		PublishDate: created,
		Status:      storage.StatusDraft,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestScheduleCadenceThreePerWeek(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.SavePost(draft(id, "post-"+id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("save draft: %v", err)
		}
	}

	clk := clock.NewFake(time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC))
	planner := NewPlanner(store, clk)

	n, err := planner.Schedule(3)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if n != 3 {
		t.Fatalf("scheduled %d posts, want 3", n)
	}

	// 7/3 = 2 day cadence: Jan 10, 12, 14.
	entries, err := store.DueEntries(time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("due entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d due entries, want 3", len(entries))
	}
	wantDays := []int{10, 12, 14}
	for i, e := range entries {
		if e.ScheduledDate.Day() != wantDays[i] {
			t.Errorf("entry %d scheduled on day %d, want %d", i, e.ScheduledDate.Day(), wantDays[i])
		}
	}
}

func TestScheduleOldestDraftFirst(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if err := store.SavePost(draft("newer", "newer", base.AddDate(0, 0, 2))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SavePost(draft("older", "older", base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	clk := clock.NewFake(base.AddDate(0, 0, 10))
	if _, err := NewPlanner(store, clk).Schedule(1); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	entries, err := store.DueEntries(base.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("due entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].PostID != "older" {
		t.Errorf("first scheduled post is %q, want the older draft", entries[0].PostID)
	}
}

func TestScheduleHighFrequencyFloorsAtOneDay(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b"} {
		if err := store.SavePost(draft(id, "floor-"+id, base)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	clk := clock.NewFake(base)
	if _, err := NewPlanner(store, clk).Schedule(14); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	entries, err := store.DueEntries(base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("due entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if got := entries[1].ScheduledDate.Sub(entries[0].ScheduledDate); got != 24*time.Hour {
		t.Errorf("spacing = %v, want 24h", got)
	}
}

func TestScheduleSecondRunIsNoOp(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	if err := store.SavePost(draft("a", "once", base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	planner := NewPlanner(store, clock.NewFake(base))
	if n, err := planner.Schedule(3); err != nil || n != 1 {
		t.Fatalf("first run: n=%d err=%v", n, err)
	}
	n, err := planner.Schedule(3)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Errorf("second run scheduled %d posts, want 0", n)
	}
}

func TestScheduleRejectsNonPositiveRate(t *testing.T) {
	store := openTestStore(t)
	if _, err := NewPlanner(store, nil).Schedule(0); err == nil {
		t.Fatal("expected error for postsPerWeek=0")
	}
}
