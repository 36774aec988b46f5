// Package nlp provides the deterministic language plumbing for Poshbot.
//
// This file implements the entity ruler: vocabulary-driven COURSE spans and
// attribute-driven EMAIL spans, independent of the pattern matcher.
package nlp

import (
	"log/slog"
	"sort"
	"strings"
)

// EntityLabel identifies an entity span class.
type EntityLabel string

const (
	LabelEMAIL  EntityLabel = "EMAIL"
	LabelCOURSE EntityLabel = "COURSE"
)

// Entity is a labeled half-open token span. Canonical carries the resolved
// vocabulary entry for COURSE entities and the token text for EMAIL.
type Entity struct {
	Label     EntityLabel
	Start     int
	End       int
	Canonical string
}

// DefaultCourses is the fixed course vocabulary the ruler resolves against.
var DefaultCourses = []string{
	"excel", "powerbi", "sql", "postgresql", "python for beginners",
	"advance python for data analysis", "python for data analysis",
	"data science", "machine learning",
	"database administrator", "azure devops", "aws devops",
}

// EntityRuler recognizes COURSE and EMAIL entity spans in a token sequence.
type EntityRuler struct {
	phrases [][]string // tokenized lowercase course phrases
	courses []string   // canonical vocabulary entries, parallel to phrases
}

// NewEntityRuler creates a ruler over the given course vocabulary. Phrases
// are matched case-insensitively against token lowercase forms.
func NewEntityRuler(courses []string) *EntityRuler {
	r := &EntityRuler{}
	for _, course := range courses {
		r.phrases = append(r.phrases, strings.Fields(strings.ToLower(course)))
		r.courses = append(r.courses, course)
	}
	slog.Debug("Creating entity ruler", "courses", len(courses))
	return r
}

// FindEntities returns all entity spans, ordered by start position. COURSE
// matching is longest-match-wins: when vocabulary entries overlap in the
// text ("sql" inside "python for data analysis" context, or a shorter
// phrase nested in a longer one), only the longest span survives. EMAIL is
// any single token with the email shape attribute.
func (r *EntityRuler) FindEntities(tokens []Token) []Entity {
	var entities []Entity

	// Collect all candidate course spans first, then resolve overlaps.
	var candidates []Entity
	for i, phrase := range r.phrases {
		for start := 0; start+len(phrase) <= len(tokens); start++ {
			if phraseAt(phrase, tokens, start) {
				candidates = append(candidates, Entity{
					Label:     LabelCOURSE,
					Start:     start,
					End:       start + len(phrase),
					Canonical: r.courses[i],
				})
			}
		}
	}
	entities = append(entities, resolveOverlaps(candidates)...)

	for i, tok := range tokens {
		if tok.LikeEmail {
			entities = append(entities, Entity{
				Label:     LabelEMAIL,
				Start:     i,
				End:       i + 1,
				Canonical: tok.Text,
			})
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Start < entities[j].Start
	})
	slog.Debug("Entity ruler finished", "tokens", len(tokens), "entities", len(entities))
	return entities
}

// phraseAt reports whether the lowercase phrase matches tokens starting at
// start, token for token.
func phraseAt(phrase []string, tokens []Token, start int) bool {
	for i, word := range phrase {
		if tokens[start+i].Lower != word {
			return false
		}
	}
	return true
}

// resolveOverlaps keeps the longest span among overlapping candidates.
// Ties go to the earlier span.
func resolveOverlaps(candidates []Entity) []Entity {
	sort.SliceStable(candidates, func(i, j int) bool {
		li, lj := candidates[i].End-candidates[i].Start, candidates[j].End-candidates[j].Start
		if li != lj {
			return li > lj
		}
		return candidates[i].Start < candidates[j].Start
	})
	var kept []Entity
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.Start < k.End && k.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}
