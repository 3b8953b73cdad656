// Package matching aligns the entities of two PDP snapshots. Ids on the two
// sides are arbitrary, so alignment runs on names, descriptions, dates, and
// family structure, and emits the id map the metric engines need.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// titleTokens are honorifics and kin terms stripped from the front of a
// name before comparison, so "Aunt Carol" and "Carol" resolve to the same
// person.
var titleTokens = map[string]struct{}{
	"aunt": {}, "uncle": {}, "dr": {}, "dr.": {}, "mr": {}, "mr.": {},
	"mrs": {}, "mrs.": {}, "ms": {}, "ms.": {}, "miss": {}, "sir": {},
	"madam": {}, "grandma": {}, "grandpa": {}, "grandmother": {},
	"grandfather": {}, "granny": {}, "grammy": {}, "grandad": {},
	"granddad": {}, "nana": {}, "papa": {}, "pop": {}, "mom": {}, "dad": {},
	"mother": {}, "father": {}, "brother": {}, "sister": {}, "cousin": {},
	"nephew": {}, "niece": {},
}

// NormalizeName lowercases, strips punctuation to spaces, collapses
// whitespace, and removes leading title tokens (repeatedly, while the
// first token is a title).
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 0 {
		if _, ok := titleTokens[tokens[0]]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// editRatio is the normalized Levenshtein similarity of two strings in [0,1]
func editRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// TokenSetRatio measures order-independent token overlap between two
// strings in [0,1]. The shared tokens are compared against each side's
// full token set, and the best of the three pairings wins, so word
// reordering and one-sided extras are cheap.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	var shared, onlyA, onlyB []string
	for t := range tokensA {
		if _, ok := tokensB[t]; ok {
			shared = append(shared, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tokensB {
		if _, ok := tokensA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	full1 := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := editRatio(base, full1)
	if r := editRatio(base, full2); r > best {
		best = r
	}
	if r := editRatio(full1, full2); r > best {
		best = r
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		set[t] = struct{}{}
	}
	return set
}

// NameSimilarity scores two raw names after normalization
func NameSimilarity(a, b string) float64 {
	return TokenSetRatio(NormalizeName(a), NormalizeName(b))
}

// DescriptionSimilarity is the normalized edit ratio of two lowercased
// descriptions
func DescriptionSimilarity(a, b string) float64 {
	return editRatio(strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b)))
}
