// Package ask implements the retrieval and persona-assembly pipeline:
// embed the query, retrieve grounding chunks, build a persona prompt,
// generate, and report source citations.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/skymessage/skymessage/internal/embed"
	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/genai"
	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/vector"
)

// Style selects the persona wrapper around the user's query.
type Style string

const (
	// StyleSaint is the default strict first-person persona.
	StyleSaint Style = "saint"

	// StyleEmojiStory narrates the saint's life in emoji segments.
	StyleEmojiStory Style = "emoji-story"

	// StylePlain passes the query through with no persona wrapper.
	StylePlain Style = "plain"
)

// Audience tunes the register of the answer.
type Audience string

const (
	AudienceKids  Audience = "kids"
	AudienceAdult Audience = "adult"
)

// Request is one ask invocation. SaintSlug empty means unfiltered
// retrieval across all saints (Chorus mode).
type Request struct {
	Query     string   `json:"query"`
	SaintSlug string   `json:"saintSlug,omitempty"`
	Style     Style    `json:"style,omitempty"`
	Audience  Audience `json:"audience,omitempty"`
}

// Source is one citation badge.
type Source struct {
	Publisher string `json:"publisher,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Response is the generated answer with its citations and the persona
// display name that answered.
type Response struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
	Saint   string   `json:"saint"`
}

// Config tunes the pipeline.
type Config struct {
	Namespace        string
	TopK             int
	SourceCount      int
	Temperature      float32 // saint and plain styles
	StoryTemperature float32 // emoji-story style
}

// Pipeline answers queries as a saint persona.
type Pipeline struct {
	embedder  embed.Embedder
	vectors   vector.Store
	generator genai.Generator
	cfg       Config
	logger    log.Logger
}

// NewPipeline creates an ask pipeline.
func NewPipeline(embedder embed.Embedder, vectors vector.Store, generator genai.Generator, cfg Config, logger log.Logger) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 12
	}
	if cfg.SourceCount <= 0 {
		cfg.SourceCount = 4
	}
	return &Pipeline{
		embedder:  embedder,
		vectors:   vectors,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes the full ask flow. An empty query (after sanitizing)
// fails with fault.ErrInvalidArgument before any gateway is touched.
func (p *Pipeline) Run(ctx context.Context, req Request) (Response, error) {
	query := Sanitize(req.Query)
	if query == "" {
		return Response{}, fmt.Errorf("ask: query required: %w", fault.ErrInvalidArgument)
	}

	style := req.Style
	if style == "" {
		style = StyleSaint
	}
	audience := req.Audience
	if audience == "" {
		audience = AudienceAdult
	}

	qVec, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("ask: %w", err)
	}

	var filter *vector.Filter
	if req.SaintSlug != "" {
		filter = &vector.Filter{SaintSlug: req.SaintSlug}
	}
	matches, err := p.vectors.Query(ctx, p.cfg.Namespace, qVec, p.cfg.TopK, filter)
	if err != nil {
		return Response{}, fmt.Errorf("ask: %w", err)
	}

	displayName := personaName(matches, req.SaintSlug)

	system := saintSystem(displayName)
	temperature := p.cfg.Temperature
	if style == StyleEmojiStory {
		system = emojiSystem(displayName)
		temperature = p.cfg.StoryTemperature
	}

	userTurn := query
	if style != StylePlain {
		userTurn = fmt.Sprintf("Answer as %s: %s", displayName, query)
	}

	text, err := p.generator.Complete(ctx, genai.Request{
		System: []string{
			system,
			fmt.Sprintf("Audience: %s", audience),
			fmt.Sprintf("Context (sources, do not quote verbatim liturgical texts):\n%s", contextBlock(matches)),
		},
		User:        userTurn,
		Temperature: temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("ask: %w", err)
	}

	p.logger.Info("ask complete", "saint", displayName, "style", style, "matches", len(matches))
	return Response{
		Text:    text,
		Sources: sourceBadges(matches, p.cfg.SourceCount),
		Saint:   displayName,
	}, nil
}

// personaName resolves the effective persona display name: the top
// match's metadata, else the requested slug, else a generic placeholder.
func personaName(matches []vector.Match, saintSlug string) string {
	if len(matches) > 0 && matches[0].Metadata.Name != "" {
		return matches[0].Metadata.Name
	}
	if saintSlug != "" {
		return saintSlug
	}
	return "the saint"
}

// contextBlock renders retrieved chunks as a grounding block, one
// source-attributed entry per chunk separated by blank lines.
func contextBlock(matches []vector.Match) string {
	entries := make([]string, 0, len(matches))
	for _, m := range matches {
		publisher := m.Metadata.Publisher
		if publisher == "" {
			publisher = "Unknown"
		}
		entries = append(entries, fmt.Sprintf("Source: %s | %s\n%s", publisher, m.Metadata.URL, m.Metadata.Text))
	}
	return strings.Join(entries, "\n\n")
}

// sourceBadges lists the top matches' provenance in rank order.
// Duplicates across chunks of the same source are acceptable.
func sourceBadges(matches []vector.Match, n int) []Source {
	if len(matches) < n {
		n = len(matches)
	}
	badges := make([]Source, 0, n)
	for _, m := range matches[:n] {
		badges = append(badges, Source{Publisher: m.Metadata.Publisher, URL: m.Metadata.URL})
	}
	return badges
}
