// Package search matches file names against fuzzy filter queries.
package search

import (
	"strings"
	"unicode"
)

// Matcher performs fuzzy subsequence matching.
// Scoring (per matched rune):
//   - base: charBonus
//   - directly after the previous match: +consecutiveBonus
//   - at a word boundary (after separators, camelCase hump): +boundaryBonus
//   - each skipped rune since the previous match: -gapPenalty
//
// A match starting at the first rune earns prefixBonus once.
type Matcher struct {
	charBonus        float64
	consecutiveBonus float64
	boundaryBonus    float64
	gapPenalty       float64
	prefixBonus      float64
}

// NewMatcher creates a matcher with default weights.
func NewMatcher() *Matcher {
	return &Matcher{
		charBonus:        1.2,
		consecutiveBonus: 1.2,
		boundaryBonus:    0.6,
		gapPenalty:       0.18,
		prefixBonus:      2.4,
	}
}

// Match reports whether every rune of pattern occurs in text in order and
// scores the best such placement in (0, 1]. Matching is case-insensitive
// unless pattern contains an uppercase letter.
func (m *Matcher) Match(pattern, text string) (float64, bool) {
	return m.MatchWithMode(pattern, text, hasUpper(pattern))
}

// MatchWithMode is Match with explicit case sensitivity.
func (m *Matcher) MatchWithMode(pattern, text string, caseSensitive bool) (float64, bool) {
	if pattern == "" {
		return 1.0, true
	}

	textRunes := []rune(text)
	pat := foldRunes(pattern, caseSensitive)
	folded := foldRunes(text, caseSensitive)
	if len(pat) > len(folded) {
		return 0, false
	}

	best := -1.0
	matched := false
	for start := 0; start+len(pat) <= len(folded); start++ {
		if folded[start] != pat[0] {
			continue
		}
		score, ok := m.scoreFrom(pat, folded, textRunes, start)
		if !ok {
			// Later starts leave even less room.
			break
		}
		matched = true
		if score > best {
			best = score
		}
	}
	if !matched {
		return 0, false
	}

	ceiling := float64(len(pat))*(m.charBonus+m.consecutiveBonus+m.boundaryBonus) + m.prefixBonus
	score := best / ceiling
	if score <= 0 {
		score = 1e-6
	}
	if score > 1 {
		score = 1
	}
	return score, true
}

// scoreFrom greedily places pattern starting at text[start].
func (m *Matcher) scoreFrom(pat, folded, original []rune, start int) (float64, bool) {
	score := 0.0
	if start == 0 {
		score += m.prefixBonus
	}

	prev := -1
	pi := 0
	for ti := start; ti < len(folded) && pi < len(pat); ti++ {
		if folded[ti] != pat[pi] {
			continue
		}
		score += m.charBonus
		if isWordBoundary(original, ti) {
			score += m.boundaryBonus
		}
		if prev >= 0 {
			if ti == prev+1 {
				score += m.consecutiveBonus
			} else {
				score -= m.gapPenalty * float64(ti-prev-1)
			}
		}
		prev = ti
		pi++
	}
	return score, pi == len(pat)
}

func foldRunes(s string, caseSensitive bool) []rune {
	runes := []rune(s)
	if caseSensitive {
		return runes
	}
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func isWordBoundary(text []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev, curr := text[idx-1], text[idx]
	switch prev {
	case '/', '\\', '-', '_', ' ', '.', ':':
		return true
	}
	if !unicode.IsLetter(prev) && unicode.IsLetter(curr) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(curr)
}

// Query is a parsed filter: whitespace-separated tokens that must all match.
// The zero Query matches everything.
type Query struct {
	raw           string
	tokens        []string
	caseSensitive bool
	matcher       *Matcher
}

// ParseQuery splits raw into tokens. Any uppercase letter makes the whole
// query case-sensitive.
func ParseQuery(raw string) Query {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return Query{raw: raw}
	}
	return Query{
		raw:           raw,
		tokens:        tokens,
		caseSensitive: hasUpper(raw),
		matcher:       NewMatcher(),
	}
}

// Empty reports whether the query filters nothing out.
func (q Query) Empty() bool {
	return len(q.tokens) == 0
}

// String returns the query as typed.
func (q Query) String() string {
	return q.raw
}

// Match scores name against every token and returns the mean score.
func (q Query) Match(name string) (float64, bool) {
	if q.Empty() {
		return 1.0, true
	}
	total := 0.0
	for _, token := range q.tokens {
		score, ok := q.matcher.MatchWithMode(token, name, q.caseSensitive)
		if !ok {
			return 0, false
		}
		total += score
	}
	return total / float64(len(q.tokens)), true
}
