package evaluate

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/abhisek/lexi/internal/content"
)

// SimilarityThreshold is the minimum Sørensen–Dice score ruleFuzzy accepts.
const SimilarityThreshold = 0.8

// rule identifies which comparison the fallback applies to an exercise.
type rule int

const (
	ruleReorder rule = iota
	ruleStrict
	ruleFuzzy
)

func (r rule) String() string {
	switch r {
	case ruleReorder:
		return "reorder"
	case ruleStrict:
		return "strict"
	default:
		return "fuzzy"
	}
}

// ruleFor picks the comparison for ex. The first matching rule wins.
func ruleFor(ex content.Exercise) rule {
	q := strings.ToLower(ex.Question)
	switch {
	case ex.Kind == content.KindEmail && strings.Contains(q, "reorder"):
		return ruleReorder
	case ex.Kind == content.KindMatching,
		ex.Kind == content.KindPrioritization,
		strings.Contains(q, "fill in the blank"):
		return ruleStrict
	default:
		return ruleFuzzy
	}
}

// Fallback judges req without an LLM.
func Fallback(req Request) Verdict {
	ok := matches(ruleFor(req.Exercise), req.Response, req.Exercise.Expected)
	fb := FeedbackIncorrect
	if ok {
		fb = FeedbackCorrect
	}
	return Verdict{Correct: ok, Feedback: fb, Source: SourceFallback}
}

func matches(r rule, response, expected string) bool {
	switch r {
	case ruleReorder:
		return stripSpace(response) == stripSpace(expected)
	case ruleStrict:
		return strings.ToLower(stripSpace(response)) == strings.ToLower(stripSpace(expected))
	default:
		return Similarity(strings.ToLower(response), strings.ToLower(expected)) >= SimilarityThreshold
	}
}

// Similarity returns the Sørensen–Dice coefficient of the character bigrams
// of a and b, ignoring whitespace. Identical strings score 1.
func Similarity(a, b string) float64 {
	a, b = stripSpace(a), stripSpace(b)
	if a == b {
		return 1
	}
	if len([]rune(a)) < 2 || len([]rune(b)) < 2 {
		return 0
	}
	return strutil.Similarity(a, b, metrics.NewSorensenDice())
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
