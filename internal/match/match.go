package match

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/genai"
	"github.com/skymessage/skymessage/internal/log"
)

// maxMatches is the size of the ranked result list.
const maxMatches = 10

// defaultScore fills in when the AI omits a numeric score.
const defaultScore = 0.8

const matchSystem = `
You are a Catholic saint matching expert. Your task is to match users with saints based on their traits, values, and preferences.

Given a user's traits and a list of saints (filtered by gender), you must:
1. Analyze the user's traits and what they indicate about their personality, values, and spiritual journey
2. Match them with saints who share similar traits, values, or life experiences
3. Return the top 10 matches in order of relevance
4. Provide a brief explanation for each match (1-2 sentences)

CRITICAL RULES:
- Only match with saints of the same gender as the user
- Consider not just exact trait matches, but also semantic similarity (e.g., "charity" matches with "service" and "compassion")
- Consider the saint's life story, patronages, and historical context
- Prioritize meaningful connections over simple keyword matching
- Return results as a JSON array with saint slugs and match explanations
`

// Request is one match invocation.
type Request struct {
	Traits []string `json:"traits"`
	Gender string   `json:"gender"`
}

// Match is one ranked result.
type Match struct {
	Saint       catalog.Saint `json:"saint"`
	Score       float64       `json:"score"`
	Explanation string        `json:"explanation"`
	Summary     string        `json:"summary"`
}

// Matcher ranks saints for a user. The AI scorer is primary; when it
// fails or returns unusable output, the deterministic heuristic scorer
// takes over.
type Matcher struct {
	catalog   catalog.Store
	generator genai.Generator
	logger    log.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(cat catalog.Store, generator genai.Generator, logger log.Logger) *Matcher {
	return &Matcher{catalog: cat, generator: generator, logger: logger}
}

// Match returns up to ten saints ranked for the request.
//
// Gender is a hard filter, never relaxed: no result ever lacks the
// requested gender trait. Returns fault.ErrInvalidArgument on missing
// traits or gender and fault.ErrNotFound when no saint of that gender
// exists.
func (m *Matcher) Match(ctx context.Context, req Request) ([]Match, error) {
	if req.Gender != "male" && req.Gender != "female" {
		return nil, fmt.Errorf("match: gender must be male or female: %w", fault.ErrInvalidArgument)
	}
	if len(req.Traits) == 0 {
		return nil, fmt.Errorf("match: traits required: %w", fault.ErrInvalidArgument)
	}

	roster := catalog.ListWithFallback(ctx, m.catalog)

	var filtered []catalog.Saint
	for _, s := range roster {
		if slices.Contains(Traits(s), req.Gender) {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("match: no %s saints found: %w", req.Gender, fault.ErrNotFound)
	}

	matches, err := m.aiMatch(ctx, req, filtered)
	if err != nil {
		m.logger.Warn("AI matching failed, using heuristic scorer", "error", err)
		matches = heuristicMatch(req, filtered)
	}
	return matches, nil
}

// aiMatchEntry is the structured shape the model is asked to return.
type aiMatchEntry struct {
	Slug        string   `json:"slug"`
	DisplayName string   `json:"displayName"`
	Score       *float64 `json:"score"`
	Explanation string   `json:"explanation"`
	Summary     string   `json:"summary"`
}

// aiMatch asks the generator to rank the roster and validates its
// output. Slugs outside the filtered roster are discarded.
func (m *Matcher) aiMatch(ctx context.Context, req Request, filtered []catalog.Saint) ([]Match, error) {
	text, err := m.generator.Complete(ctx, genai.Request{
		System:      []string{matchSystem},
		User:        buildMatchPrompt(req, filtered),
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	entries, err := parseMatches(text)
	if err != nil {
		return nil, err
	}

	bySlug := make(map[string]catalog.Saint, len(filtered))
	for _, s := range filtered {
		bySlug[s.Slug] = s
	}

	var matches []Match
	for _, e := range entries {
		saint, ok := bySlug[e.Slug]
		if !ok {
			continue
		}
		score := defaultScore
		if e.Score != nil {
			score = *e.Score
		}
		explanation := e.Explanation
		if explanation == "" {
			explanation = "A good match based on your traits."
		}
		summary := e.Summary
		if summary == "" {
			summary = defaultSummary(saint)
		}
		matches = append(matches, Match{Saint: saint, Score: score, Explanation: explanation, Summary: summary})
		if len(matches) == maxMatches {
			break
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no usable matches in model output: %w", fault.ErrParse)
	}
	return matches, nil
}

// buildMatchPrompt renders the roster and the user's traits for the
// model, asking for strict JSON.
func buildMatchPrompt(req Request, filtered []catalog.Saint) string {
	var roster strings.Builder
	for _, s := range filtered {
		traits := Traits(s)
		nonGender := make([]string, 0, len(traits))
		for _, t := range traits {
			if t != req.Gender {
				nonGender = append(nonGender, t)
			}
		}
		traitList := strings.Join(nonGender, ", ")
		if traitList == "" {
			traitList = "none"
		}

		summary := s.Name
		if s.Era != "" {
			summary += fmt.Sprintf(" (%s)", s.Era)
		}
		if len(s.Patronage) > 0 {
			n := min(len(s.Patronage), 5)
			summary += ". Patron of: " + strings.Join(s.Patronage[:n], ", ")
		}
		fmt.Fprintf(&roster, "- %s: %s (Traits: %s)\n", s.Slug, summary, traitList)
	}

	return fmt.Sprintf(`User traits: %s
User gender: %s

Available saints (%d total):
%s
Analyze the user's traits and match them with the most relevant saints. Consider:
- Direct trait matches
- Semantic similarity (e.g., charity/service/compassion are related)
- Life experiences and spiritual journeys
- Patronages that align with the user's interests

Return a JSON object with a "matches" array containing exactly 10 matches (or fewer if not enough saints), ordered by relevance. Each match should have:
{
  "slug": "saint-slug",
  "displayName": "St. Name",
  "score": 0.0-1.0,
  "explanation": "Brief 1-2 sentence explanation of why this saint matches",
  "summary": "Brief 1-2 sentence summary of what this saint is known for"
}

Format: { "matches": [...] }

Return ONLY valid JSON, no markdown, no code blocks.`,
		strings.Join(req.Traits, ", "), req.Gender, len(filtered), roster.String())
}

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")

// parseMatches decodes the model output, rescuing JSON wrapped in
// markdown fences. Unusable output yields fault.ErrParse.
func parseMatches(text string) ([]aiMatchEntry, error) {
	decode := func(raw string) ([]aiMatchEntry, bool) {
		var obj struct {
			Matches []aiMatchEntry `json:"matches"`
			Results []aiMatchEntry `json:"results"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			if len(obj.Matches) > 0 {
				return obj.Matches, true
			}
			if len(obj.Results) > 0 {
				return obj.Results, true
			}
		}
		var arr []aiMatchEntry
		if err := json.Unmarshal([]byte(raw), &arr); err == nil && len(arr) > 0 {
			return arr, true
		}
		return nil, false
	}

	if entries, ok := decode(text); ok {
		return entries, nil
	}
	if groups := fencedJSON.FindStringSubmatch(text); groups != nil {
		if entries, ok := decode(groups[1]); ok {
			return entries, nil
		}
	}
	// Last resort: the first brace-to-last-brace span.
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if entries, ok := decode(text[start : end+1]); ok {
			return entries, nil
		}
	}
	return nil, fmt.Errorf("model output is not valid match JSON: %w", fault.ErrParse)
}

// heuristicMatch is the deterministic fallback scorer: overlap of
// non-gender traits between the user's selection and the saint's
// derived set, normalized by the selection size.
func heuristicMatch(req Request, filtered []catalog.Saint) []Match {
	nonGender := make([]string, 0, len(req.Traits))
	for _, t := range req.Traits {
		if t != "male" && t != "female" {
			nonGender = append(nonGender, t)
		}
	}

	matches := make([]Match, 0, len(filtered))
	for _, s := range filtered {
		saintTraits := Traits(s)
		overlap := 0
		for _, t := range nonGender {
			if slices.Contains(saintTraits, t) {
				overlap++
			}
		}

		score := float64(overlap) / float64(max(1, len(nonGender)))
		score = min(max(score, 0), 1)

		matches = append(matches, Match{
			Saint:       s,
			Score:       score,
			Explanation: fmt.Sprintf("Shares %d%% of your selected traits.", int(score*100)),
			Summary:     defaultSummary(s),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(matches) > maxMatches {
		matches = matches[:maxMatches]
	}
	return matches
}

// defaultSummary synthesizes a short summary from era and patronages.
func defaultSummary(s catalog.Saint) string {
	var parts []string
	if s.Era != "" {
		parts = append(parts, fmt.Sprintf("Lived in the %s", s.Era))
	}
	if len(s.Patronage) > 0 {
		n := min(len(s.Patronage), 3)
		parts = append(parts, "Patron saint of "+strings.Join(s.Patronage[:n], ", "))
	}
	if len(parts) == 0 {
		return "A beloved Catholic saint."
	}
	return strings.Join(parts, ". ") + "."
}
