// Package compose expands content ideas into fully populated draft posts:
// body copy (generated or templated), slug, SEO fields, excerpt, read time,
// and affiliate product references.
package compose

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/genai"
	"github.com/tidewater/homepress/internal/storage"
)

const (
	maxSEOTitleLen = 60
	maxMetaDescLen = 160
	maxExcerptLen  = 200
	wordsPerMinute = 200

	defaultAuthor = "Virginia Home Essentials Team"
	brandToken    = "Virginia"
)

// PostStore is the subset of the content store the compiler needs.
type PostStore interface {
	SavePost(storage.Post) error
	SlugExists(slug, excludeID string) (bool, error)
}

// CopySource produces article copy for an idea, falling back internally.
type CopySource interface {
	Generate(ctx context.Context, idea storage.Idea) genai.Result
}

// Compiler turns ideas into persisted draft posts.
type Compiler struct {
	store  PostStore
	writer CopySource
	clock  clock.Clock
	author string
}

// NewCompiler creates a Compiler. writer may be nil, in which case every post
// uses the deterministic templates. A nil clk defaults to the system clock.
func NewCompiler(store PostStore, writer CopySource, clk clock.Clock) *Compiler {
	if clk == nil {
		clk = clock.System{}
	}
	return &Compiler{store: store, writer: writer, clock: clk, author: defaultAuthor}
}

// Compile expands one idea into a draft post and persists it. The content
// body comes from the generation service when its output validates, otherwise
// from the content-type template. Unrecognized content types use the general
// template rather than failing.
func (c *Compiler) Compile(ctx context.Context, idea storage.Idea) (storage.Post, error) {
	id := uuid.NewString()

	slug, err := uniqueSlug(c.store, Slugify(idea.Topic), id)
	if err != nil {
		return storage.Post{}, err
	}

	content := renderTemplate(idea)
	if c.writer != nil {
		if res := c.writer.Generate(ctx, idea); res.FromModel {
			content = assembleCopy(idea, res.Copy)
		}
	}

	now := c.clock.Now()
	post := storage.Post{
		ID:                id,
		Title:             idea.Topic,
		Slug:              slug,
		Content:           content,
		Excerpt:           Excerpt(content),
		Category:          idea.Category,
		Tags:              idea.Keywords,
		Author:            c.author,
		Status:            storage.StatusDraft,
		SEOTitle:          SEOTitle(idea.Topic),
		MetaDescription:   MetaDescription(idea),
		FeaturedImage:     featuredImage(idea.Category),
		ReadTime:          ReadTime(content),
		AffiliateProducts: affiliateProducts(idea),
		CreatedAt:         now,
	}

	if err := c.store.SavePost(post); err != nil {
		return storage.Post{}, fmt.Errorf("saving post %q: %w", post.Title, err)
	}
	return post, nil
}

// SEOTitle bounds a title to 60 characters. When truncation drops the brand
// token, a shorter cut with the token spliced back on is used instead.
func SEOTitle(title string) string {
	if len(title) <= maxSEOTitleLen {
		return title
	}
	truncated := title[:50]
	if !strings.Contains(truncated, brandToken) {
		truncated = title[:40] + " | " + brandToken
	}
	return truncated
}

// MetaDescription builds a description sentence keyed by content type,
// bounded to 160 characters.
func MetaDescription(idea storage.Idea) string {
	base := fmt.Sprintf("Expert guide to %s for Virginia homeowners. ", strings.ToLower(idea.Topic))
	switch idea.ContentType {
	case "guide":
		base += "Step-by-step instructions, tips, and product recommendations."
	case "review":
		base += "Detailed reviews, comparisons, and buying recommendations."
	default:
		base += "Essential information and expert insights."
	}
	if len(base) > maxMetaDescLen {
		base = base[:maxMetaDescLen]
	}
	return base
}

// Excerpt extracts the first substantial paragraph: longer than 50
// characters and not a heading, truncated to 200 characters with an ellipsis.
// If no paragraph qualifies, the raw content prefix is used.
func Excerpt(content string) string {
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if len(para) > 50 && !strings.HasPrefix(para, "#") {
			if len(para) > maxExcerptLen {
				return para[:maxExcerptLen] + "..."
			}
			return para
		}
	}
	if len(content) > maxExcerptLen {
		return content[:maxExcerptLen] + "..."
	}
	return content
}

// ReadTime estimates reading minutes at 200 words per minute, rounded to the
// nearest whole minute with a floor of one.
func ReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

var categoryImages = map[string]string{
	"seasonal":        "https://images.unsplash.com/photo-1560518883-ce09059eeffa?w=800&h=400",
	"market-insights": "https://images.unsplash.com/photo-1560472354-b33ff0c44a43?w=800&h=400",
	"product-guide":   "https://images.unsplash.com/photo-1556909114-f6e7ad7d3136?w=800&h=400",
	"homeowner-guide": "https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?w=800&h=400",
}

func featuredImage(category string) string {
	if url, ok := categoryImages[category]; ok {
		return url
	}
	return categoryImages["seasonal"]
}

// affiliateCatalog associates keyword fragments with product lists. The link
// between posts and products is this weak keyword association only. Order is
// fixed so recompiling an idea yields the same product list byte for byte.
var affiliateCatalog = []struct {
	category string
	items    []string
}{
	{"smart home", []string{"smart thermostat", "smart doorbell", "smart locks"}},
	{"security", []string{"security system", "security cameras", "smart locks"}},
	{"kitchen", []string{"instant pot", "air fryer", "coffee maker"}},
	{"tools", []string{"drill set", "tool kit", "measuring tools"}},
	{"decor", []string{"wall art", "throw pillows", "lighting"}},
}

func affiliateProducts(idea storage.Idea) []string {
	seen := make(map[string]bool)
	var products []string
	for _, keyword := range idea.Keywords {
		kw := strings.ToLower(keyword)
		for _, entry := range affiliateCatalog {
			match := strings.Contains(entry.category, kw)
			if !match {
				for _, item := range entry.items {
					if strings.Contains(kw, item) {
						match = true
						break
					}
				}
			}
			if !match {
				continue
			}
			for _, item := range entry.items {
				if !seen[item] {
					seen[item] = true
					products = append(products, item)
				}
			}
		}
	}
	return products
}
