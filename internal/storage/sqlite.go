package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding content ideas, posts, and the
// publishing schedule.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "blog_system.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Overlapping invocations (cron job + manual run) wait out short write
	// contention instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 30000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func marshalList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func unmarshalList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// --- Ideas ---

// SaveIdea inserts an idea, ignoring duplicates on topic text. Generating the
// same seasonal batch twice therefore creates no duplicate rows.
func (s *Store) SaveIdea(idea Idea) error {
	status := idea.Status
	if status == "" {
		status = IdeaPending
	}
	createdAt := idea.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO content_ideas
		(topic, category, keywords, seasonal_relevance, priority_score, target_audience, content_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.Topic, idea.Category, marshalList(idea.Keywords), idea.SeasonalRelevance,
		idea.PriorityScore, idea.TargetAudience, idea.ContentType, status, formatTime(createdAt),
	)
	return err
}

const ideaColumns = "id, topic, category, keywords, seasonal_relevance, priority_score, target_audience, content_type, status, created_at"

func scanIdea(row interface{ Scan(...any) error }) (Idea, error) {
	var i Idea
	var keywords, createdAt string
	if err := row.Scan(&i.ID, &i.Topic, &i.Category, &keywords, &i.SeasonalRelevance,
		&i.PriorityScore, &i.TargetAudience, &i.ContentType, &i.Status, &createdAt); err != nil {
		return Idea{}, err
	}
	i.Keywords = unmarshalList(keywords)
	t, err := parseTime(createdAt)
	if err != nil {
		return Idea{}, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t
	return i, nil
}

// PendingIdeas returns unused ideas ordered by priority score descending.
// Ties break by insertion order.
func (s *Store) PendingIdeas(limit int) ([]Idea, error) {
	rows, err := s.db.Query(`
		SELECT `+ideaColumns+`
		FROM content_ideas WHERE status = ?
		ORDER BY priority_score DESC, id ASC LIMIT ?`, IdeaPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}

// MarkIdeaUsed flips a pending idea to used. Ideas are consumed exactly once.
func (s *Store) MarkIdeaUsed(id int64) error {
	res, err := s.db.Exec(`UPDATE content_ideas SET status = ? WHERE id = ? AND status = ?`,
		IdeaUsed, id, IdeaPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Posts ---

const postColumns = `id, title, slug, content, excerpt, category, tags, author, publish_date,
	status, seo_title, meta_description, featured_image, read_time, affiliate_products, created_at, updated_at`

// SavePost inserts or replaces a post by id, so recompiling the same post is
// safe. A slug owned by a different post is rejected with ErrDuplicateSlug
// rather than letting the UNIQUE conflict replace the other row.
func (s *Store) SavePost(p Post) error {
	var owner string
	err := s.db.QueryRow(`SELECT id FROM blog_posts WHERE slug = ?`, p.Slug).Scan(&owner)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking slug: %w", err)
	}
	if err == nil && owner != p.ID {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug)
	}

	now := time.Now()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	status := p.Status
	if status == "" {
		status = StatusDraft
	}
	var publishDate string
	if !p.PublishDate.IsZero() {
		publishDate = formatTime(p.PublishDate)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO blog_posts
		(id, title, slug, content, excerpt, category, tags, author, publish_date,
		 status, seo_title, meta_description, featured_image, read_time, affiliate_products, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Content, p.Excerpt, p.Category, marshalList(p.Tags),
		p.Author, publishDate, status, p.SEOTitle, p.MetaDescription, p.FeaturedImage,
		p.ReadTime, marshalList(p.AffiliateProducts), formatTime(createdAt), formatTime(now),
	)
	return err
}

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var tags, products, publishDate, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Category,
		&tags, &p.Author, &publishDate, &p.Status, &p.SEOTitle, &p.MetaDescription,
		&p.FeaturedImage, &p.ReadTime, &products, &createdAt, &updatedAt); err != nil {
		return Post{}, err
	}
	p.Tags = unmarshalList(tags)
	p.AffiliateProducts = unmarshalList(products)

	var err error
	if p.PublishDate, err = parseTime(publishDate); err != nil {
		return Post{}, fmt.Errorf("parsing publish_date: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Post{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Post{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return p, nil
}

// GetPost returns a post by id.
func (s *Store) GetPost(id string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return Post{}, ErrNotFound
	}
	return p, err
}

// SlugExists reports whether slug is owned by any post other than excludeID.
func (s *Store) SlugExists(slug, excludeID string) (bool, error) {
	var owner string
	err := s.db.QueryRow(`SELECT id FROM blog_posts WHERE slug = ?`, slug).Scan(&owner)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return owner != excludeID, nil
}

func (s *Store) queryPosts(query string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// DraftPosts returns draft posts ordered by creation time ascending.
func (s *Store) DraftPosts(limit int) ([]Post, error) {
	return s.queryPosts(`SELECT `+postColumns+` FROM blog_posts
		WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?`, StatusDraft, limit)
}

// PublishedPosts returns published posts ordered by publish date descending.
func (s *Store) PublishedPosts(limit int) ([]Post, error) {
	return s.queryPosts(`SELECT `+postColumns+` FROM blog_posts
		WHERE status = ? ORDER BY publish_date DESC LIMIT ?`, StatusPublished, limit)
}

// CountPostsByStatus returns the number of posts in the given status.
func (s *Store) CountPostsByStatus(status string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM blog_posts WHERE status = ?`, status).Scan(&n)
	return n, err
}

// --- Schedule ---

// MarkScheduled moves a draft post to scheduled with the given publish date
// and records the decision in the schedule. The status guard means a post
// never moves backwards, and the ON CONFLICT clause means re-running the
// scheduler replaces the entry instead of duplicating it.
func (s *Store) MarkScheduled(postID string, date time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schedule transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE blog_posts SET status = ?, publish_date = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		StatusScheduled, formatTime(date), formatTime(time.Now()), postID, StatusDraft)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`INSERT INTO publishing_schedule (post_id, scheduled_date, status)
		VALUES (?, ?, ?)
		ON CONFLICT(post_id) DO UPDATE SET scheduled_date = excluded.scheduled_date, status = excluded.status`,
		postID, formatTime(date), StatusScheduled); err != nil {
		return err
	}

	return tx.Commit()
}

// DueEntries returns schedule entries still marked scheduled whose date falls
// on or before day. Already-published entries are excluded, so publishing is
// idempotent within a day.
func (s *Store) DueEntries(day time.Time) ([]ScheduleEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, post_id, scheduled_date, status FROM publishing_schedule
		WHERE date(scheduled_date) <= date(?) AND status = ?
		ORDER BY scheduled_date ASC`, formatTime(day), StatusScheduled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		var date string
		if err := rows.Scan(&e.ID, &e.PostID, &date, &e.Status); err != nil {
			return nil, err
		}
		if e.ScheduledDate, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("parsing scheduled_date: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkPublished flips a scheduled post and its schedule entry to published.
func (s *Store) MarkPublished(postID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning publish transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE blog_posts SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		StatusPublished, formatTime(time.Now()), postID, StatusScheduled)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`UPDATE publishing_schedule SET status = ? WHERE post_id = ?`,
		StatusPublished, postID); err != nil {
		return err
	}

	return tx.Commit()
}
