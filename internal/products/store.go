package products

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the SQLite database holding tracked products and their price
// history. It is separate from the content database so the website assets
// pipeline can ship it independently.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the product database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database.
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "products.db")
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

	if _, err := db.Exec("PRAGMA busy_timeout = 30000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
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

func (s *Store) migrate() error {
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
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

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

const productColumns = "asin, title, price, rating, review_count, category, image_url, affiliate_url, last_updated, trending_score, availability, prime_eligible"

// Upsert replaces the product row keyed by ASIN and appends the price to the
// product's history.
func (s *Store) Upsert(p Product) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ASIN, p.Title, p.Price, p.Rating, p.ReviewCount, p.Category,
		p.ImageURL, p.AffiliateURL, p.LastUpdated.UTC().Format(time.RFC3339),
		p.TrendingScore, p.Availability, p.PrimeEligible); err != nil {
		return fmt.Errorf("upserting product %s: %w", p.ASIN, err)
	}
	if _, err := tx.Exec(`INSERT INTO price_history (asin, price, recorded_at) VALUES (?, ?, ?)`,
		p.ASIN, p.Price, p.LastUpdated.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("recording price for %s: %w", p.ASIN, err)
	}
	return tx.Commit()
}

// Trending returns products ordered by trending score then review count.
// An empty category returns products across all categories.
func (s *Store) Trending(category string, limit int) ([]Product, error) {
	q := sq.Select(strings.Split(productColumns, ", ")...).
		From("products").
		OrderBy("trending_score DESC", "review_count DESC").
		Limit(uint64(limit))
	if category != "" {
		q = q.Where(sq.Eq{"category": category})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building trending query: %w", err)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var updated string
		if err := rows.Scan(&p.ASIN, &p.Title, &p.Price, &p.Rating, &p.ReviewCount,
			&p.Category, &p.ImageURL, &p.AffiliateURL, &updated,
			&p.TrendingScore, &p.Availability, &p.PrimeEligible); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			p.LastUpdated = t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PriceAlerts compares each product's current price against its most recent
// history entry recorded before cutoff and reports moves of at least
// thresholdPercent in either direction.
func (s *Store) PriceAlerts(thresholdPercent float64, cutoff time.Time) ([]Alert, error) {
	rows, err := s.db.Query(`
		SELECT p.asin, p.title, p.category, p.price,
		       (SELECT ph.price FROM price_history ph
		         WHERE ph.asin = p.asin AND ph.recorded_at < ?
		         ORDER BY ph.recorded_at DESC LIMIT 1) AS previous_price
		FROM products p
		ORDER BY p.asin`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var previous sql.NullFloat64
		if err := rows.Scan(&a.ASIN, &a.Title, &a.Category, &a.CurrentPrice, &previous); err != nil {
			return nil, err
		}
		if !previous.Valid || previous.Float64 == 0 {
			continue
		}
		change := (a.CurrentPrice - previous.Float64) / previous.Float64 * 100
		if change < thresholdPercent && change > -thresholdPercent {
			continue
		}
		a.PreviousPrice = previous.Float64
		a.PercentChange = round2(change)
		a.Type = AlertPriceIncrease
		if change < 0 {
			a.Type = AlertPriceDrop
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
