// Package detect resolves which saint a chat exchange is about.
//
// Detection is a best-effort heuristic chain, not a classifier: an
// ordered list of strategies runs against the query and response text,
// and the first hit wins. Ties inside one strategy resolve by catalog
// iteration order, so a stable catalog ordering keeps results stable.
package detect

import (
	"regexp"
	"strings"

	"github.com/skymessage/skymessage/internal/catalog"
)

// strategy scans the catalog against the exchange and returns the
// matched saint, or nil.
type strategy struct {
	name string
	fn   func(query, response string, saints []catalog.Saint) *catalog.Saint
}

// chain is the documented priority order. First match wins.
var chain = []strategy{
	{"name-in-response", func(q, r string, ss []catalog.Saint) *catalog.Saint { return nameMatch(r, ss) }},
	{"name-in-query", func(q, r string, ss []catalog.Saint) *catalog.Saint { return nameMatch(q, ss) }},
	{"patronage", patronageMatch},
	{"travel-keywords", travelMatch},
	{"pattern-extraction", func(q, r string, ss []catalog.Saint) *catalog.Saint { return patternMatch(r, ss) }},
	{"response-scan", func(q, r string, ss []catalog.Saint) *catalog.Saint { return nameMatch(r, ss) }},
}

// Saint returns the saint the exchange is about, or nil when no
// strategy matches. Callers attach no contact card on nil.
func Saint(query, response string, saints []catalog.Saint) *catalog.Saint {
	query = strings.ToLower(query)
	response = strings.ToLower(response)
	for _, s := range chain {
		if hit := s.fn(query, response, saints); hit != nil {
			return hit
		}
	}
	return nil
}

// stripTitle removes a leading "St." or "Saint" honorific.
func stripTitle(name string) string {
	lower := strings.ToLower(name)
	for _, prefix := range []string{"st. ", "st ", "saint "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(name[len(prefix):])
		}
	}
	return name
}

// nameMatch checks case-insensitive containment of each saint's display
// name (with and without honorific), slug (hyphens as spaces), and
// aliases in text. Text must already be lowercased.
func nameMatch(text string, saints []catalog.Saint) *catalog.Saint {
	if text == "" {
		return nil
	}
	for i := range saints {
		s := &saints[i]
		candidates := []string{
			s.Name,
			stripTitle(s.Name),
			strings.ReplaceAll(s.Slug, "-", " "),
		}
		candidates = append(candidates, s.Aliases...)
		for _, c := range candidates {
			if c != "" && strings.Contains(text, strings.ToLower(c)) {
				return s
			}
		}
	}
	return nil
}

// patronageMatch fires only when the query asks about patronage. It
// scans the combined text for any saint's patronage entries, folding a
// naive plural (trailing "s") along the way.
func patronageMatch(query, response string, saints []catalog.Saint) *catalog.Saint {
	if !strings.Contains(query, "patron") {
		return nil
	}
	combined := query + " " + response
	for i := range saints {
		s := &saints[i]
		for _, p := range s.Patronage {
			p = strings.ToLower(p)
			if p == "" {
				continue
			}
			if strings.Contains(combined, p) || strings.Contains(combined, strings.TrimSuffix(p, "s")) {
				return s
			}
		}
	}
	return nil
}

// travelKeywords trigger the traditional patron-of-travelers answer.
var travelKeywords = []string{
	"travel", "traveler", "travelers", "journey", "journeys",
	"trip", "trips", "motorist", "motorists", "sailor", "sailors",
}

// travelMatch returns the catalog's Christopher when the exchange talks
// about travel. Domain convention: the traditional patron of travelers.
func travelMatch(query, response string, saints []catalog.Saint) *catalog.Saint {
	combined := query + " " + response
	hit := false
	for _, kw := range travelKeywords {
		if strings.Contains(combined, kw) {
			hit = true
			break
		}
	}
	if !hit {
		return nil
	}
	for i := range saints {
		s := &saints[i]
		if strings.Contains(s.Slug, "christopher") || strings.Contains(strings.ToLower(s.Name), "christopher") {
			return s
		}
	}
	return nil
}

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:st\.|saint)\s+([a-zà-ÿ]+(?:\s+[a-zà-ÿ]+){0,3})`),
	regexp.MustCompile(`([a-zà-ÿ]+(?:\s+[a-zà-ÿ]+){0,3})\s+is\s+(?:the\s+)?patron`),
}

// patternMatch extracts candidate names from the response via the
// "St./Saint <Name>" and "<Name> is (the) patron" patterns, then
// accepts the first saint whose display name contains any captured
// word longer than two characters, or whose slug equals the captured
// phrase hyphenated.
func patternMatch(response string, saints []catalog.Saint) *catalog.Saint {
	for _, pattern := range namePatterns {
		for _, groups := range pattern.FindAllStringSubmatch(response, -1) {
			captured := strings.TrimSpace(groups[1])
			if captured == "" {
				continue
			}
			slugged := strings.ReplaceAll(captured, " ", "-")
			words := strings.Fields(captured)
			for i := range saints {
				s := &saints[i]
				if s.Slug == slugged {
					return s
				}
				lowerName := strings.ToLower(s.Name)
				for _, w := range words {
					if len(w) > 2 && strings.Contains(lowerName, w) {
						return s
					}
				}
			}
		}
	}
	return nil
}
