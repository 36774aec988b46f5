// Package nlp provides the deterministic language plumbing for Poshbot.
//
// This file implements the token pattern matcher: a small rule interpreter
// over ordered constraint lists with greedy, backtracking-free consumption.
package nlp

import (
	"log/slog"
	"regexp"
	"sort"
)

// RuleName identifies a pattern rule and the profile field it feeds.
type RuleName string

const (
	RuleNAME          RuleName = "NAME"
	RuleDOB           RuleName = "DOB"
	RulePHONE         RuleName = "PHONE"
	RuleQUALIFICATION RuleName = "QUALIFICATION"
)

// Attr selects a boolean token attribute for constraint checks.
type Attr int

const (
	// AttrNone imposes no attribute requirement.
	AttrNone Attr = iota
	// AttrIsTitle requires a title-cased token.
	AttrIsTitle
	// AttrIsDigit requires a pure-digit token.
	AttrIsDigit
	// AttrIsPunct requires a punctuation token.
	AttrIsPunct
	// AttrLikeEmail requires an email-shaped token.
	AttrLikeEmail
)

// Quantifier controls how many tokens a constraint consumes.
type Quantifier int

const (
	// QuantOne consumes exactly one token.
	QuantOne Quantifier = iota
	// QuantOneOrMore greedily consumes one or more tokens.
	QuantOneOrMore
	// QuantZeroOrOne consumes one token if it satisfies the constraint.
	QuantZeroOrOne
)

// TokenConstraint is one step of a pattern rule. Exactly one of Lower, Attr,
// or Regex is the active test; Quant controls repetition.
type TokenConstraint struct {
	Lower string         // required lowercase literal, when non-empty
	Attr  Attr           // required boolean attribute, when not AttrNone
	Regex *regexp.Regexp // regex tested against the surface text, when non-nil
	Quant Quantifier
}

// satisfies reports whether a single token meets the constraint's test.
func (c TokenConstraint) satisfies(tok Token) bool {
	if c.Lower != "" {
		return tok.Lower == c.Lower
	}
	if c.Regex != nil {
		return c.Regex.MatchString(tok.Text)
	}
	switch c.Attr {
	case AttrIsTitle:
		return tok.IsTitle
	case AttrIsDigit:
		return tok.IsDigit
	case AttrIsPunct:
		return tok.IsPunct
	case AttrLikeEmail:
		return tok.LikeEmail
	}
	return false
}

// PatternRule is a named, ordered constraint sequence. Rules are static
// configuration: loaded once, immutable thereafter, safe to share.
type PatternRule struct {
	Name        RuleName
	Constraints []TokenConstraint
}

// Match is a half-open token span produced by one rule. Start < End always
// holds; spans of the same rule never overlap.
type Match struct {
	Rule  RuleName
	Start int
	End   int
}

// Matcher scans token sequences against a fixed set of pattern rules.
type Matcher struct {
	rules []PatternRule
}

// NewMatcher creates a matcher over the given rules. Rule order is
// preserved; each rule is matched independently of the others.
func NewMatcher(rules []PatternRule) *Matcher {
	slog.Debug("Creating pattern matcher", "rules", len(rules))
	return &Matcher{rules: rules}
}

// FindMatches returns all rule matches over the token sequence, ordered by
// start position (rule declaration order breaks ties). Matching per rule is
// leftmost-first with greedy constraint consumption: after a match, scanning
// for that rule resumes at the token following the match end, so spans of
// the same rule never overlap. Different rules may overlap each other; a
// rule with no match simply contributes nothing.
func (m *Matcher) FindMatches(tokens []Token) []Match {
	var matches []Match
	for _, rule := range m.rules {
		pos := 0
		for pos < len(tokens) {
			end, ok := matchAt(rule, tokens, pos)
			if !ok {
				pos++
				continue
			}
			matches = append(matches, Match{Rule: rule.Name, Start: pos, End: end})
			pos = end
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	slog.Debug("Pattern matcher finished", "tokens", len(tokens), "matches", len(matches))
	return matches
}

// matchAt attempts to consume rule's constraint sequence starting at start.
// Quantified constraints consume the maximum satisfying run before the next
// constraint is tried; there is no backtracking. Returns the end index of
// the consumed range and whether every constraint was satisfiable.
func matchAt(rule PatternRule, tokens []Token, start int) (int, bool) {
	pos := start
	for _, c := range rule.Constraints {
		switch c.Quant {
		case QuantOne:
			if pos >= len(tokens) || !c.satisfies(tokens[pos]) {
				return 0, false
			}
			pos++
		case QuantOneOrMore:
			consumed := 0
			for pos < len(tokens) && c.satisfies(tokens[pos]) {
				pos++
				consumed++
			}
			if consumed == 0 {
				return 0, false
			}
		case QuantZeroOrOne:
			if pos < len(tokens) && c.satisfies(tokens[pos]) {
				pos++
			}
		}
	}
	if pos == start {
		return 0, false
	}
	return pos, true
}

// Surface-form regexes for the enrollment rules.
var (
	ordinalDayRe   = regexp.MustCompile(`^\d{1,2}(st|nd|rd|th)?$`)
	elevenDigitsRe = regexp.MustCompile(`^\d{11}$`)
	capitalizedRe  = regexp.MustCompile(`^[A-Z][-.A-Za-z]+$`)
)

// EnrollmentRules returns the pattern rules for enrollment profile
// extraction. The DOB rule accepts an ordinal day token on either side of
// the month name, so "born on 8th January 1995" and "born on January 8th
// 1995" both match.
func EnrollmentRules() []PatternRule {
	return []PatternRule{
		{
			Name: RuleNAME,
			Constraints: []TokenConstraint{
				{Lower: "i"},
				{Lower: "am"},
				{Attr: AttrIsTitle, Quant: QuantOneOrMore},
			},
		},
		{
			Name: RuleDOB,
			Constraints: []TokenConstraint{
				{Lower: "born"},
				{Lower: "on"},
				{Regex: ordinalDayRe, Quant: QuantZeroOrOne},
				{Attr: AttrIsTitle, Quant: QuantOneOrMore},
				{Regex: ordinalDayRe, Quant: QuantZeroOrOne},
				{Attr: AttrIsDigit, Quant: QuantZeroOrOne},
			},
		},
		{
			Name: RulePHONE,
			Constraints: []TokenConstraint{
				{Lower: "phone"},
				{Lower: "number"},
				{Attr: AttrIsPunct, Quant: QuantZeroOrOne},
				{Regex: elevenDigitsRe},
			},
		},
		{
			Name: RuleQUALIFICATION,
			Constraints: []TokenConstraint{
				{Regex: capitalizedRe},
				{Attr: AttrIsTitle, Quant: QuantOneOrMore},
			},
		},
	}
}
