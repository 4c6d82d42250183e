// Package similarity scores how alike two ministry or portfolio names are,
// after removing filler words and reducing each word to its stem. It is used
// to suggest which existing portfolio a newly gazetted one continues.
package similarity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/coolbeans/gazette/pkg/types"
)

// DefaultThreshold is the minimum score Match keeps when no threshold is
// configured.
const DefaultThreshold = 70.0

// defaultStopwords are dropped before stemming. They occur in nearly every
// portfolio title and carry no identity.
var defaultStopwords = []string{"ministry", "of", "and", "for", "&", "the"}

// Matcher normalizes and scores names. It holds no mutable state and is safe
// for concurrent use.
type Matcher struct {
	stopwords    map[string]bool
	tokenPattern *regexp.Regexp
}

// NewMatcher creates a Matcher with the standard stopword set.
func NewMatcher() *Matcher {
	stopwords := make(map[string]bool, len(defaultStopwords))
	for _, word := range defaultStopwords {
		stopwords[word] = true
	}
	return &Matcher{
		stopwords: stopwords,
		// words, numbers and a standalone ampersand
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+|&`),
	}
}

// Normalize lowercases text, splits it into words, drops stopwords, stems
// what remains and joins the stems with single spaces. Word order is kept.
func (matcher *Matcher) Normalize(text string) string {
	tokens := matcher.tokenPattern.FindAllString(strings.ToLower(text), -1)
	stems := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if matcher.stopwords[token] {
			continue
		}
		stems = append(stems, english.Stem(token, false))
	}
	return strings.Join(stems, " ")
}

// Score compares two names on a 0 to 100 scale, ignoring word order. Names
// that normalize to the same text score exactly 100. A name that normalizes
// to nothing, such as "Ministry of the", scores 0 against anything.
func (matcher *Matcher) Score(left, right string) float64 {
	return tokenSortRatio(matcher.Normalize(left), matcher.Normalize(right))
}

// Match scores target against every portfolio's ministry and returns those
// scoring at least threshold, highest first. Ties keep the portfolio order.
// An empty pool gives an empty, non-nil result.
func (matcher *Matcher) Match(target string, portfolios []types.Portfolio, threshold float64) []types.MatchCandidate {
	candidates := []types.MatchCandidate{}
	if len(portfolios) == 0 {
		return candidates
	}

	normalizedTarget := matcher.Normalize(target)
	for _, portfolio := range portfolios {
		score := tokenSortRatio(normalizedTarget, matcher.Normalize(portfolio.Ministry))
		if score < threshold {
			continue
		}
		candidates = append(candidates, types.MatchCandidate{
			ExistingMinistry: portfolio.Ministry,
			ExistingPosition: portfolio.Position,
			ExistingPerson:   portfolio.Person,
			Score:            score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// tokenSortRatio sorts each side's tokens, then measures character-level
// sequence similarity between the two sorted strings. The ratio is not
// rounded, so thresholds compare against the exact value.
func tokenSortRatio(left, right string) float64 {
	if left == "" || right == "" {
		return 0
	}

	sortedLeft := sortTokens(left)
	sortedRight := sortTokens(right)
	if sortedLeft == sortedRight {
		return 100
	}

	sequenceMatcher := difflib.NewMatcher(characters(sortedLeft), characters(sortedRight))
	return sequenceMatcher.Ratio() * 100
}

func sortTokens(text string) string {
	tokens := strings.Fields(text)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func characters(text string) []string {
	runes := []rune(text)
	result := make([]string, len(runes))
	for i, r := range runes {
		result[i] = string(r)
	}
	return result
}
