// Package extract assembles enrollment profiles from free-form utterances.
//
// It orchestrates the token pattern matcher and the entity ruler over a
// single utterance and applies the per-field post-processing that turns raw
// spans into profile fields.
package extract

import (
	"log/slog"
	"strings"

	"github.com/promibe/poshbot/internal/models"
	"github.com/promibe/poshbot/internal/nlp"
)

// Extractor pulls the six enrollment fields out of one utterance. It holds
// only immutable rule tables and is safe to share across sessions.
type Extractor struct {
	matcher *nlp.Matcher
	ruler   *nlp.EntityRuler
}

// NewExtractor creates an extractor with the default enrollment pattern
// rules and course vocabulary.
func NewExtractor() *Extractor {
	return &Extractor{
		matcher: nlp.NewMatcher(nlp.EnrollmentRules()),
		ruler:   nlp.NewEntityRuler(nlp.DefaultCourses),
	}
}

// Extract runs the pattern matcher and entity ruler once over the utterance
// and assembles an ExtractedProfile. A rule that never matches leaves its
// field empty; the caller decides whether an incomplete profile is an
// error. When a rule matches more than once, only the first (leftmost)
// occurrence is kept. Extraction is deterministic and idempotent.
func (e *Extractor) Extract(utterance string) models.ExtractedProfile {
	tokens := nlp.Tokenize(utterance)

	var profile models.ExtractedProfile
	for _, m := range e.matcher.FindMatches(tokens) {
		span := nlp.SpanText(tokens, m.Start, m.End)
		switch m.Rule {
		case nlp.RuleNAME:
			if profile.Name == "" {
				profile.Name = stripPrefix(span, "I am")
			}
		case nlp.RuleDOB:
			if profile.DOBRaw == "" {
				profile.DOBRaw = stripPrefix(span, "born on")
			}
		case nlp.RuleQUALIFICATION:
			if profile.Qualification == "" {
				profile.Qualification = span
			}
		case nlp.RulePHONE:
			if profile.PhoneNumber == "" {
				// The label and separator tokens are discarded; only the
				// trailing digit token is the phone number.
				profile.PhoneNumber = tokens[m.End-1].Text
			}
		}
	}

	for _, ent := range e.ruler.FindEntities(tokens) {
		switch ent.Label {
		case nlp.LabelEMAIL:
			if profile.Email == "" {
				profile.Email = ent.Canonical
			}
		case nlp.LabelCOURSE:
			if profile.Course == "" {
				profile.Course = ent.Canonical
			}
		}
	}

	slog.Debug("Extractor finished", "complete", profile.Complete(), "missing", profile.MissingFields())
	return profile
}

// stripPrefix removes a literal marker prefix from a span text and trims
// surrounding whitespace.
func stripPrefix(span, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(span, prefix))
}
