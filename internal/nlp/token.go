// Package nlp provides the deterministic language plumbing for Poshbot:
// tokenization with lexical attributes, multi-token pattern matching,
// vocabulary-driven entity recognition, and date normalization.
package nlp

import (
	"strings"
	"unicode"
)

// Token is a single unit of an utterance with precomputed lexical attributes.
// Tokens are immutable once produced and live for one utterance.
type Token struct {
	Text      string // surface form
	Lower     string // lowercase form
	IsTitle   bool   // title-cased (every letter run starts uppercase)
	IsDigit   bool   // consists solely of digits
	IsPunct   bool   // single punctuation rune
	LikeEmail bool   // looks like an email address
}

// punctRunes are the separator runes split off token edges during
// tokenization. Interior punctuation (hyphens, dots and @ inside emails)
// is kept so tokens like "B-Tech" and "promise@x.com" stay whole.
const punctRunes = ".,!?:;()\"'"

// Tokenize splits raw text into an ordered token sequence. Fields are
// whitespace separated; leading and trailing punctuation runes become
// separate single-rune tokens, in reading order.
func Tokenize(text string) []Token {
	var tokens []Token
	for _, field := range strings.Fields(text) {
		var leading []string
		for len(field) > 0 && strings.ContainsRune(punctRunes, rune(field[0])) {
			leading = append(leading, field[:1])
			field = field[1:]
		}
		var trailing []string
		for len(field) > 0 && strings.ContainsRune(punctRunes, rune(field[len(field)-1])) {
			trailing = append([]string{field[len(field)-1:]}, trailing...)
			field = field[:len(field)-1]
		}
		for _, p := range leading {
			tokens = append(tokens, newToken(p))
		}
		if field != "" {
			tokens = append(tokens, newToken(field))
		}
		for _, p := range trailing {
			tokens = append(tokens, newToken(p))
		}
	}
	return tokens
}

// newToken builds a Token with all lexical attributes computed.
func newToken(text string) Token {
	return Token{
		Text:      text,
		Lower:     strings.ToLower(text),
		IsTitle:   isTitle(text),
		IsDigit:   isDigit(text),
		IsPunct:   isPunct(text),
		LikeEmail: likeEmail(text),
	}
}

// isTitle reports whether the token is title-cased: it contains at least one
// letter and every run of letters starts with an uppercase letter followed
// only by lowercase letters. "Promise", "B-Tech" and "I" qualify; "8th",
// "sql" and "SQL" do not.
func isTitle(s string) bool {
	hasLetter := false
	startOfRun := true
	for _, r := range s {
		if !unicode.IsLetter(r) {
			startOfRun = true
			continue
		}
		hasLetter = true
		if startOfRun {
			if !unicode.IsUpper(r) {
				return false
			}
			startOfRun = false
		} else if !unicode.IsLower(r) {
			return false
		}
	}
	return hasLetter
}

// isDigit reports whether the token consists solely of digits.
func isDigit(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPunct reports whether the token is a single punctuation or symbol rune.
func isPunct(s string) bool {
	runes := []rune(s)
	if len(runes) != 1 {
		return false
	}
	return unicode.IsPunct(runes[0]) || unicode.IsSymbol(runes[0])
}

// likeEmail is a conservative email shape test: one "@" separating a
// non-empty local part from a domain that contains a dot with characters on
// both sides.
func likeEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// SpanText joins the surface forms of tokens[start:end] with single spaces.
func SpanText(tokens []Token, start, end int) string {
	parts := make([]string, 0, end-start)
	for _, tok := range tokens[start:end] {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}
