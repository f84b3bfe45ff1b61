// Package match ranks saints against a user's selected trait set, using
// an AI scorer with a deterministic heuristic fallback.
package match

import (
	"strconv"
	"strings"

	"github.com/skymessage/skymessage/internal/catalog"
)

// femaleNames are name fragments that mark a saint as female when the
// profile carries no explicit gender.
var femaleNames = []string{
	"mary", "catherine", "elizabeth", "teresa", "therese", "cecilia",
	"agatha", "lucy", "rose", "bernadette", "gianna", "brigid",
	"adelaide", "monica", "clare", "joan", "faustina", "kateri",
	"scholastica",
}

// popularNames mark widely known saints.
var popularNames = []string{
	"francis", "augustine", "thomas", "john", "mary", "joseph", "peter", "paul",
	"catherine", "teresa", "therese", "joan", "anthony", "benedict", "ignatius",
	"patrick", "valentine", "christopher", "george", "lucy", "cecilia",
}

// Traits derives the trait tags for a saint. Pure and deterministic:
// the same profile always yields the same tags, recomputed on demand
// and never stored.
func Traits(s catalog.Saint) []string {
	var traits []string
	name := strings.ToLower(s.Name)

	// Gender: explicit profile value wins, name heuristic otherwise.
	switch s.Gender {
	case "female":
		traits = append(traits, "female")
	case "male":
		traits = append(traits, "male")
	default:
		female := false
		for _, frag := range femaleNames {
			if strings.Contains(name, frag) {
				female = true
				break
			}
		}
		if female {
			traits = append(traits, "female")
		} else {
			traits = append(traits, "male")
		}
	}

	// Era. A birth year of 1800 or later counts as modern even when the
	// era label says nothing recognizable.
	era := strings.ToLower(s.Era)
	switch {
	case strings.Contains(era, "1st century"), strings.Contains(era, "2nd century"),
		strings.Contains(era, "3rd century"), strings.Contains(era, "4th century"),
		strings.Contains(era, "early centuries"):
		traits = append(traits, "ancient", "early_church")
	case strings.Contains(era, "19th century"), strings.Contains(era, "20th century"),
		birthYear(s.BirthDate) >= 1800:
		traits = append(traits, "modern", "recent")
	}

	// Popularity
	popular := false
	for _, frag := range popularNames {
		if strings.Contains(name, frag) {
			popular = true
			break
		}
	}
	if popular {
		traits = append(traits, "popular")
	} else {
		traits = append(traits, "obscure")
	}

	// Patronage breadth
	if len(s.Patronage) > 0 {
		traits = append(traits, "patronage_specific")
	} else {
		traits = append(traits, "patronage_universal")
	}

	// Virtue indicators from patronages and name.
	patronages := strings.ToLower(strings.Join(s.Patronage, " "))
	if containsAny(patronages, "poor", "charity", "hospitals", "homeless") {
		traits = append(traits, "charity", "service", "compassion")
	}
	if containsAny(patronages, "soldiers", "courage") || containsAny(name, "george", "joan") {
		traits = append(traits, "courage", "leadership", "action")
	}
	if containsAny(patronages, "students", "teachers", "education", "philosophers") {
		traits = append(traits, "education", "teaching", "wisdom")
	}
	if containsAny(name, "francis", "clare", "benedict", "domin", "ignatius") {
		traits = append(traits, "monastic", "religious_life")
	}
	if containsAny(name, "mary", "joseph", "gianna", "elizabeth", "monica") {
		traits = append(traits, "family", "marriage", "lay_life")
	}
	if containsAny(name, "augustine", "ignatius", "francis") {
		traits = append(traits, "conversion", "transformation")
	}
	if containsAny(patronages, "martyr") || containsAny(name, "stephen", "lawrence", "sebastian") {
		traits = append(traits, "martyrdom", "sacrifice", "witness")
	}

	return traits
}

// birthYear extracts the first four-digit year from a birth date in
// any of its stored shapes ("1840", "1840-01-03", "January 3, 1840").
// Returns 0 when no year is present.
func birthYear(date string) int {
	run := 0
	for i, r := range date {
		if r < '0' || r > '9' {
			run = 0
			continue
		}
		run++
		if run == 4 {
			year, err := strconv.Atoi(date[i-3 : i+1])
			if err != nil {
				return 0
			}
			return year
		}
	}
	return 0
}

func containsAny(s string, fragments ...string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
