package extraction

import (
	"strings"

	"github.com/jonathan/executive-intake/internal/types"
)

var arrowReplacer = strings.NewReplacer("→", " to ", "->", " to ", "=>", " to ", "⇒", " to ")

// NormalizeTarget rewrites range arrows as "to" and collapses whitespace.
func NormalizeTarget(target string) string {
	return collapseSpaces(arrowReplacer.Replace(target))
}

// normalize trims every field, rewrites targets, and drops empty or duplicate list items.
func normalize(reqs *types.JobRequirements) {
	reqs.RoleTitle = collapseSpaces(reqs.RoleTitle)
	reqs.CompanyName = collapseSpaces(reqs.CompanyName)
	reqs.CompanyStage = collapseSpaces(reqs.CompanyStage)

	targets := make([]string, 0, len(reqs.QuantitativeTargets))
	for _, t := range reqs.QuantitativeTargets {
		targets = append(targets, NormalizeTarget(t))
	}
	reqs.QuantitativeTargets = dedupe(targets)

	criteria := make([]string, 0, len(reqs.StatedSubjectiveCriteria))
	for _, c := range reqs.StatedSubjectiveCriteria {
		criteria = append(criteria, collapseSpaces(c))
	}
	reqs.StatedSubjectiveCriteria = dedupe(criteria)
}

// dedupe keeps the first occurrence of each item (case-insensitive) and drops blanks.
func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
