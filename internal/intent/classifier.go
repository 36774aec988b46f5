// Package intent provides intent classification for user utterances.
//
// The dialogue session consumes classifiers through a single-method
// interface, so the statistical model stays an opaque, swappable
// dependency: a deterministic keyword classifier is the default, and an
// OpenAI-backed classifier can be substituted without touching session
// logic.
package intent

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/promibe/poshbot/internal/models"
)

// Classifier maps an utterance to a discrete intent id.
type Classifier interface {
	Classify(ctx context.Context, text string) (int, error)
}

// keywordRule associates an intent id with its trigger phrases.
type keywordRule struct {
	intent   int
	keywords []string
}

// KeywordClassifier is a deterministic rule-based classifier. Rules are
// evaluated in order; the first rule with a keyword present in the
// lowercased utterance wins, and no rule firing yields the fallback intent.
type KeywordClassifier struct {
	rules []keywordRule
}

// NewKeywordClassifier creates the default keyword classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		rules: []keywordRule{
			{intent: models.IntentEnrollment, keywords: []string{
				"enroll", "enrol", "register", "sign up", "signup", "join a course", "admission",
			}},
			{intent: models.IntentPricing, keywords: []string{
				"price", "pricing", "cost", "fee", "how much",
			}},
			{intent: models.IntentTracking, keywords: []string{
				"track", "progress", "status", "confirm my", "registered courses",
			}},
			{intent: models.IntentGreetings, keywords: []string{
				"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "greetings",
			}},
		},
	}
}

// Classify returns the intent id for the utterance. It never fails; inputs
// matching no rule classify as fallback. Single-word keywords match whole
// words only, so "hi" does not fire inside "which".
func (c *KeywordClassifier) Classify(ctx context.Context, text string) (int, error) {
	lower := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}

	for _, rule := range c.rules {
		for _, kw := range rule.keywords {
			matched := false
			if strings.Contains(kw, " ") {
				matched = strings.Contains(lower, kw)
			} else {
				matched = wordWithPrefix(words, kw)
			}
			if matched {
				slog.Debug("KeywordClassifier matched", "intent", models.IntentLabel(rule.intent), "keyword", kw)
				return rule.intent, nil
			}
		}
	}
	slog.Debug("KeywordClassifier no rule fired, using fallback")
	return models.IntentFallback, nil
}

// wordWithPrefix reports whether any word in the utterance starts with the
// keyword, so "enroll" also covers "enrolling" and "enrollment".
func wordWithPrefix(words map[string]bool, kw string) bool {
	if words[kw] {
		return true
	}
	for w := range words {
		if strings.HasPrefix(w, kw) && len(kw) >= 4 {
			return true
		}
	}
	return false
}
