package extraction

import (
	"strings"
	"unicode"

	"github.com/jonathan/executive-intake/internal/types"
)

// ground removes values the model could not have read from message: a company name that does
// not occur in it, and any quantitative target containing a number that does not occur in it.
func ground(reqs *types.JobRequirements, message string) {
	haystack := strings.ToLower(collapseSpaces(message))

	if reqs.CompanyName != "" && !strings.Contains(haystack, strings.ToLower(reqs.CompanyName)) {
		reqs.CompanyName = ""
	}

	available := make(map[string]bool)
	for _, n := range digitRuns(message) {
		available[n] = true
	}

	kept := make([]string, 0, len(reqs.QuantitativeTargets))
	for _, target := range reqs.QuantitativeTargets {
		if numbersPresent(target, available) {
			kept = append(kept, target)
		}
	}
	reqs.QuantitativeTargets = kept
}

func numbersPresent(target string, available map[string]bool) bool {
	for _, n := range digitRuns(target) {
		if !available[n] {
			return false
		}
	}
	return true
}

// digitRuns returns each maximal run of ASCII digits in s, with thousands separators
// between digits removed and leading zeros trimmed.
func digitRuns(s string) []string {
	var (
		runs []string
		cur  strings.Builder
	)
	rs := []rune(s)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		n := strings.TrimLeft(cur.String(), "0")
		if n == "" {
			n = "0"
		}
		runs = append(runs, n)
		cur.Reset()
	}
	for i, r := range rs {
		switch {
		case r >= '0' && r <= '9':
			cur.WriteRune(r)
		case r == ',' && cur.Len() > 0 && i+1 < len(rs) && unicode.IsDigit(rs[i+1]):
			// 1,000,000 is one number
		default:
			flush()
		}
	}
	flush()
	return runs
}
