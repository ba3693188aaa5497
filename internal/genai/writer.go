package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidewater/homepress/internal/storage"
)

const generationTimeout = 30 * time.Second

// Chatter is the interface for chat completion against the generation service.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error)
}

// Copy is the structured article copy returned by the generation service.
type Copy struct {
	Introduction string    `json:"introduction"`
	Sections     []Section `json:"sections"`
	Conclusion   string    `json:"conclusion"`
}

// Section is one titled block of article copy.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Result is the outcome of a generation attempt. Either the copy passed
// strict validation (FromModel true) or the caller must use its deterministic
// template. There is no error case: generation failures are absorbed here.
type Result struct {
	Copy      Copy
	FromModel bool
}

// Writer asks the generation service for article copy and validates it.
type Writer struct {
	client Chatter
	model  string
}

// NewWriter creates a Writer using the given client and model name.
func NewWriter(client Chatter, model string) *Writer {
	return &Writer{client: client, model: model}
}

// Generate requests article copy for the idea. On any failure (timeout,
// service error, malformed or incomplete JSON) it returns a fallback Result;
// the compiler's templates take over and the pipeline keeps moving.
func (w *Writer) Generate(ctx context.Context, idea storage.Idea) Result {
	if w == nil || w.client == nil {
		return Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	raw, err := w.client.Chat(ctx, w.model, buildPrompt(idea), copySchema())
	if err != nil {
		slog.Warn("content generation failed, using template", "topic", idea.Topic, "error", err)
		return Result{}
	}

	var c Copy
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		slog.Warn("generation returned malformed JSON, using template", "topic", idea.Topic, "error", err)
		return Result{}
	}
	if !valid(c) {
		slog.Warn("generation returned incomplete copy, using template", "topic", idea.Topic)
		return Result{}
	}

	return Result{Copy: c, FromModel: true}
}

// valid applies the strict schema check that decides model copy vs fallback.
// Partial responses are rejected wholesale rather than patched field by field.
func valid(c Copy) bool {
	if c.Introduction == "" || c.Conclusion == "" || len(c.Sections) == 0 {
		return false
	}
	for _, s := range c.Sections {
		if s.Heading == "" || s.Body == "" {
			return false
		}
	}
	return true
}

func buildPrompt(idea storage.Idea) []Message {
	system := "You write practical home-ownership articles for a Virginia audience. " +
		"Respond with JSON only: an introduction, a list of sections with heading and body, and a conclusion."
	user := fmt.Sprintf(
		"Write a %s about %q for %s. Work these keywords in naturally: %v. Seasonal context: %s.",
		idea.ContentType, idea.Topic, idea.TargetAudience, idea.Keywords, idea.SeasonalRelevance,
	)
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

func copySchema() *Schema {
	return &Schema{
		Type: "object",
		Properties: map[string]SchemaProperty{
			"introduction": {Type: "string", Description: "Opening paragraphs before the first heading"},
			"sections":     {Type: "array", Description: "Titled sections, each with heading and body"},
			"conclusion":   {Type: "string", Description: "Closing paragraphs"},
		},
		Required: []string{"introduction", "sections", "conclusion"},
	}
}
