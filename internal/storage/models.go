package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateSlug is returned when a post's slug is already owned by a
// different post. The caller decides how to disambiguate.
var ErrDuplicateSlug = errors.New("slug already in use")

// Idea statuses.
const (
	IdeaPending = "pending"
	IdeaUsed    = "used"
)

// Post statuses. Transitions are monotonic: draft -> scheduled -> published.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
)

// Idea is a candidate content topic not yet expanded into a post.
// Ideas are unique by topic text and are never deleted.
type Idea struct {
	ID                int64
	Topic             string
	Category          string
	Keywords          []string
	SeasonalRelevance string
	PriorityScore     float64
	TargetAudience    string
	ContentType       string // guide, review, comparison, general
	Status            string
	CreatedAt         time.Time
}

// Post is a fully compiled article. Slug is immutable once assigned and
// unique within the store.
type Post struct {
	ID                string
	Title             string
	Slug              string
	Content           string
	Excerpt           string
	Category          string
	Tags              []string
	Author            string
	PublishDate       time.Time // zero until scheduled
	Status            string
	SEOTitle          string
	MetaDescription   string
	FeaturedImage     string
	ReadTime          int // minutes
	AffiliateProducts []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ScheduleEntry records a scheduling decision for a post. One entry per post;
// rescheduling replaces the entry rather than appending a duplicate.
type ScheduleEntry struct {
	ID            int64
	PostID        string
	ScheduledDate time.Time
	Status        string // scheduled | published
}
