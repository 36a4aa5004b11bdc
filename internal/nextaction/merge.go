package nextaction

import (
	"strings"
	"unicode"

	"github.com/sells-group/deal-insights/internal/model"
)

// similarityThreshold is the token-overlap fraction (of the shorter action's
// token count) at or above which two actions are considered duplicates.
const similarityThreshold = 0.6

// tokenize lowercases and splits on non-alphanumeric runs, returning the set
// of unique tokens.
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Similar reports whether two action texts are near-duplicates by lexical
// overlap: the token intersection must cover at least 60% of the shorter
// action's tokens, case-insensitive.
func Similar(a, b string) bool {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}

	shorter := ta
	if len(tb) < len(ta) {
		shorter = tb
	}

	overlap := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			overlap++
		}
	}

	return float64(overlap) >= similarityThreshold*float64(len(shorter))
}

// Merge combines rule-based and AI-produced recommendations. Every
// rule-based action is kept; an AI action is added only when it is not
// similar to an already-kept action. The merged list is re-prioritized and
// truncated the same way as the rule-based output.
func Merge(ruleBased, ai []model.NextAction) []model.NextAction {
	kept := make([]model.NextAction, 0, len(ruleBased)+len(ai))
	kept = append(kept, ruleBased...)

	for _, candidate := range ai {
		dup := false
		for _, existing := range kept {
			if Similar(candidate.Action, existing.Action) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, candidate)
		}
	}

	return Prioritize(kept)
}
