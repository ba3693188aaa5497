package publish

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// indexEntry is one row of posts.json, the feed the website's blog listing
// reads. Field names match what the front end already consumes.
type indexEntry struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Author        string   `json:"author"`
	PublishDate   string   `json:"publish_date"`
	FeaturedImage string   `json:"featured_image"`
	ReadTime      int      `json:"read_time"`
	UpdatedAt     string   `json:"updated_at"`
	URL           string   `json:"url"`
}

// WriteIndex exports up to limit published posts, newest first, to
// posts.json under the site directory. Returns the number of posts written.
func (p *Publisher) WriteIndex(limit int) (int, error) {
	posts, err := p.store.PublishedPosts(limit)
	if err != nil {
		return 0, fmt.Errorf("loading published posts: %w", err)
	}

	entries := make([]indexEntry, 0, len(posts))
	for _, post := range posts {
		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		entries = append(entries, indexEntry{
			ID:            post.ID,
			Title:         post.Title,
			Slug:          post.Slug,
			Excerpt:       post.Excerpt,
			Category:      post.Category,
			Tags:          tags,
			Author:        post.Author,
			PublishDate:   post.PublishDate.Format("2006-01-02"),
			FeaturedImage: post.FeaturedImage,
			ReadTime:      post.ReadTime,
			UpdatedAt:     post.UpdatedAt.Format("2006-01-02"),
			URL:           "/blog/" + post.Slug + ".html",
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding posts index: %w", err)
	}
	if err := p.writeFile("posts.json", data); err != nil {
		return 0, err
	}
	return len(entries), nil
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

var staticPages = []sitemapURL{
	{Loc: "/", Priority: "1.0", ChangeFreq: "daily"},
	{Loc: "/blog/", Priority: "0.9", ChangeFreq: "daily"},
	{Loc: "/#products", Priority: "0.8", ChangeFreq: "daily"},
	{Loc: "/#market-insights", Priority: "0.7", ChangeFreq: "weekly"},
	{Loc: "/#about", Priority: "0.6", ChangeFreq: "monthly"},
}

// sitemapLimit keeps the export bounded; well past that a sitemap index
// would be needed anyway.
const sitemapLimit = 1000

// WriteSitemap writes sitemap.xml under the site directory: the static
// pages plus one url per published post, all rooted at baseURL.
func (p *Publisher) WriteSitemap(baseURL string) error {
	posts, err := p.store.PublishedPosts(sitemapLimit)
	if err != nil {
		return fmt.Errorf("loading published posts: %w", err)
	}

	today := p.clock.Now().Format("2006-01-02")
	set := sitemapSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, page := range staticPages {
		page.Loc = baseURL + page.Loc
		page.LastMod = today
		set.URLs = append(set.URLs, page)
	}
	for _, post := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        baseURL + "/blog/" + post.Slug + ".html",
			LastMod:    post.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sitemap: %w", err)
	}
	return p.writeFile("sitemap.xml", append([]byte(xml.Header), append(data, '\n')...))
}

func (p *Publisher) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(p.siteDir, 0o755); err != nil {
		return fmt.Errorf("creating site directory: %w", err)
	}
	path := filepath.Join(p.siteDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
