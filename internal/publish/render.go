package publish

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/tidewater/homepress/internal/storage"
)

var pageTemplate = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.SEOTitle}}</title>
    <meta name="description" content="{{.MetaDescription}}">
    <link rel="stylesheet" href="../assets/styles.css">
    <link rel="stylesheet" href="../assets/blog-styles.css">
</head>
<body>
    <header class="blog-header">
        <nav>
            <a href="../index.html">&larr; Back to Home</a>
        </nav>
    </header>

    <article class="blog-post">
        <header class="post-header">
            <img src="{{.FeaturedImage}}" alt="{{.Title}}" class="featured-image">
            <div class="post-meta">
                <h1>{{.Title}}</h1>
                <div class="meta-info">
                    <span class="author">By {{.Author}}</span>
                    <span class="date">{{.Date}}</span>
                    <span class="read-time">{{.ReadTime}} min read</span>
                    <span class="category">{{.Category}}</span>
                </div>
            </div>
        </header>

        <div class="post-content">
            {{.Body}}
        </div>

        <footer class="post-footer">
            <div class="tags">
                <strong>Tags:</strong> {{.Tags}}
            </div>
            <div class="affiliate-notice">
                <p><em>As an Amazon Associate, we earn from qualifying purchases. This helps support our content creation at no extra cost to you.</em></p>
            </div>
        </footer>
    </article>
</body>
</html>
`))

type pageData struct {
	SEOTitle        string
	MetaDescription string
	Title           string
	Author          string
	Date            string
	ReadTime        int
	Category        string
	FeaturedImage   string
	Tags            string
	Body            template.HTML
}

// renderPage converts the post's markdown body to HTML and wraps it in the
// site page shell. The markdown is trusted input produced by the compiler.
func renderPage(post storage.Post) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(post.Content), &body); err != nil {
		return nil, fmt.Errorf("converting markdown for %s: %w", post.Slug, err)
	}

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, pageData{
		SEOTitle:        post.SEOTitle,
		MetaDescription: post.MetaDescription,
		Title:           post.Title,
		Author:          post.Author,
		Date:            post.PublishDate.Format("January 2, 2006"),
		ReadTime:        post.ReadTime,
		Category:        post.Category,
		FeaturedImage:   post.FeaturedImage,
		Tags:            strings.Join(post.Tags, ", "),
		Body:            template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering page for %s: %w", post.Slug, err)
	}
	return page.Bytes(), nil
}
