package compose

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tidewater/homepress/internal/clock"
	"github.com/tidewater/homepress/internal/genai"
	"github.com/tidewater/homepress/internal/storage"
)

func newTestCompiler(t *testing.T, writer CopySource) (*Compiler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	clk := clock.NewFake(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	return NewCompiler(store, writer, clk), store
}

func guideIdea() storage.Idea {
	return storage.Idea{
		Topic:             "Heating Efficiency Guide for Virginia Homeowners",
		Category:          "seasonal",
		Keywords:          []string{"heating efficiency", "Virginia", "smart home"},
		SeasonalRelevance: "winter",
		PriorityScore:     0.8,
		TargetAudience:    "New homeowners",
		ContentType:       "guide",
	}
}

func TestCompilePersistsDraft(t *testing.T) {
	c, store := newTestCompiler(t, nil)

	post, err := c.Compile(context.Background(), guideIdea())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	got, err := store.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Status != storage.StatusDraft {
		t.Errorf("status = %q, want draft", got.Status)
	}
	if !got.PublishDate.IsZero() {
		t.Errorf("draft has publish date %v", got.PublishDate)
	}
	if got.Slug != "heating-efficiency-guide-for-virginia-homeowners" {
		t.Errorf("slug = %q", got.Slug)
	}
	if !strings.Contains(got.Content, "# "+got.Title) {
		t.Error("content missing title heading")
	}
	if got.ReadTime < 1 {
		t.Errorf("read time %d below floor", got.ReadTime)
	}
	if len(got.AffiliateProducts) == 0 {
		t.Error("smart home keyword should map to affiliate products")
	}
}

func TestCompileUnrecognizedTypeFallsBackToGeneral(t *testing.T) {
	c, _ := newTestCompiler(t, nil)

	idea := guideIdea()
	idea.Topic = "Weekly Market Notes"
	idea.ContentType = "newsletter"

	post, err := c.Compile(context.Background(), idea)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(post.Content, "Key Points to Consider") {
		t.Error("unrecognized content type should use the general template")
	}
}

func TestCompileDistinctIDsUnderBatch(t *testing.T) {
	c, _ := newTestCompiler(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		idea := guideIdea()
		idea.Topic = "Batch Topic " + strings.Repeat("x", i+1)
		post, err := c.Compile(context.Background(), idea)
		if err != nil {
			t.Fatalf("Compile %d: %v", i, err)
		}
		if seen[post.ID] {
			t.Fatalf("duplicate post id %q", post.ID)
		}
		seen[post.ID] = true
	}
}

func TestCompileDisambiguatesSlugCollision(t *testing.T) {
	c, store := newTestCompiler(t, nil)

	// A different post already owns the natural slug.
	existing := storage.Post{
		ID:    "existing",
		Title: "Placeholder",
		Slug:  "heating-efficiency-guide-for-virginia-homeowners",
		Content: "body",
	}
	if err := store.SavePost(existing); err != nil {
		t.Fatalf("SavePost: %v", err)
	}

	post, err := c.Compile(context.Background(), guideIdea())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if post.Slug != "heating-efficiency-guide-for-virginia-homeowners-2" {
		t.Errorf("slug = %q, want -2 suffix", post.Slug)
	}
}

type fixedCopy struct {
	res genai.Result
}

func (f fixedCopy) Generate(ctx context.Context, idea storage.Idea) genai.Result {
	return f.res
}

func TestCompileUsesModelCopyWhenValid(t *testing.T) {
	writer := fixedCopy{res: genai.Result{
		FromModel: true,
		Copy: genai.Copy{
			Introduction: "Model-written intro for Virginia readers.",
			Sections:     []genai.Section{{Heading: "Model Section", Body: "Model body."}},
			Conclusion:   "Model conclusion.",
		},
	}}
	c, _ := newTestCompiler(t, writer)

	post, err := c.Compile(context.Background(), guideIdea())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(post.Content, "## Model Section") {
		t.Error("expected model copy in content")
	}
}

func TestCompileFallbackCopyUsesTemplate(t *testing.T) {
	c, _ := newTestCompiler(t, fixedCopy{res: genai.Result{}})

	post, err := c.Compile(context.Background(), guideIdea())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(post.Content, "Step-by-Step Guide") {
		t.Error("fallback should render the guide template")
	}
}

func TestSEOTitle(t *testing.T) {
	short := "Winter Prep Guide"
	if got := SEOTitle(short); got != short {
		t.Errorf("short title changed: %q", got)
	}

	long := "The Complete and Exhaustive Winter Preparation Handbook for Families"
	got := SEOTitle(long)
	if len(got) > 60 {
		t.Errorf("SEO title length %d exceeds 60", len(got))
	}
	if !strings.Contains(got, "Virginia") {
		t.Errorf("truncated title missing brand token: %q", got)
	}

	longWithBrand := "Virginia Interest Rate Impacts and Regional Market Analysis in Depth"
	got = SEOTitle(longWithBrand)
	if len(got) != 50 {
		t.Errorf("expected plain 50-char truncation, got %d chars", len(got))
	}
}

func TestMetaDescriptionBounded(t *testing.T) {
	idea := guideIdea()
	idea.Topic = strings.Repeat("Very Long Topic ", 20)
	got := MetaDescription(idea)
	if len(got) > 160 {
		t.Errorf("meta description length %d exceeds 160", len(got))
	}

	review := guideIdea()
	review.ContentType = "review"
	if !strings.Contains(MetaDescription(review), "reviews") {
		t.Error("review description should mention reviews")
	}
}

func TestExcerpt(t *testing.T) {
	content := "# Heading\n\nshort\n\nThis paragraph is comfortably longer than fifty characters and should win.\n\nAnother one."
	got := Excerpt(content)
	if !strings.HasPrefix(got, "This paragraph") {
		t.Errorf("excerpt = %q", got)
	}

	long := "# H\n\n" + strings.Repeat("word ", 100)
	got = Excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Error("long excerpt should end with ellipsis")
	}
	if len(got) != 203 {
		t.Errorf("excerpt length = %d, want 200 + ellipsis", len(got))
	}

	headingsOnly := "# One\n\n## Two"
	if got := Excerpt(headingsOnly); got != headingsOnly {
		t.Errorf("fallback excerpt = %q", got)
	}
}

func TestReadTime(t *testing.T) {
	cases := []struct {
		words int
		want  int
	}{
		{400, 2},
		{50, 1},
		{0, 1},
		{200, 1},
		{700, 4}, // 3.5 rounds up
	}
	for _, c := range cases {
		content := strings.TrimSpace(strings.Repeat("word ", c.words))
		if got := ReadTime(content); got != c.want {
			t.Errorf("ReadTime(%d words) = %d, want %d", c.words, got, c.want)
		}
	}
}

func TestAffiliateProductsStableOrder(t *testing.T) {
	// "smart locks" sits in two categories; the merged list must come out in
	// catalog order every time so recompiling does not churn the stored JSON.
	idea := storage.Idea{Keywords: []string{"smart locks"}}
	want := []string{"smart thermostat", "smart doorbell", "smart locks", "security system", "security cameras"}

	for i := 0; i < 20; i++ {
		got := affiliateProducts(idea)
		if len(got) != len(want) {
			t.Fatalf("got %d products, want %d: %v", len(got), len(want), got)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("run %d: product[%d] = %q, want %q (full: %v)", i, j, got[j], want[j], got)
			}
		}
	}
}
