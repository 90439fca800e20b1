package questions

import (
	"regexp"
	"strings"

	"github.com/jonathan/executive-intake/internal/types"
)

// Topics whose answers can be looked up from public or company data.
var verifiableTopics = []*regexp.Regexp{
	regexp.MustCompile(`\b(revenue|revenues|arr|mrr|annual recurring revenue|run rate|profitability margin)\b`),
	regexp.MustCompile(`\b(headcount|how many employees|number of employees|employee count|staff size)\b`),
	regexp.MustCompile(`\b(funding round|funding stage|how much funding|funds raised|have you raised|valuation|investors|backed by|cap table)\b`),
	regexp.MustCompile(`\b(founded|founding date|headquarters|headquartered|hq|office locations)\b`),
	regexp.MustCompile(`\b(market share|stock price|ticker|publicly traded|who are your competitors)\b`),
}

// Phrases that turn a factual topic into a question about what the client wants.
var preferenceMarkers = regexp.MustCompile(
	`\b(experience|experienced|should|prefer|preference|important|ideal|want|looking for|require|required|requires|must|comfortable|background|expect|expectations)\b`)

// A factual topic directly followed by one of these words names a goal, not a fact.
var plannedTopic = regexp.MustCompile(
	`\b(revenue|revenues|arr|mrr|headcount|funding|valuation)\s+(target|targets|goal|goals|plan|plans|planning|expectations?)\b`)

// clauseBreaks separates the independent asks inside one question.
var clauseBreaks = regexp.MustCompile(`[,;:?!.]+|\b(and|but|while|whereas|also|plus)\b`)

// IsVerifiable reports whether a question asks for a fact that could be researched instead of
// asked, such as revenue, headcount, or funding round. Each clause is checked on its own, so a
// preference phrase only clears the clause it appears in. It is a pure function of its input.
func IsVerifiable(text string) bool {
	// Hyphenated compounds such as "revenue-first" are one word
	lower := strings.ReplaceAll(strings.ToLower(text), "-", "_")
	for _, clause := range clauseBreaks.Split(lower, -1) {
		if asksFact(clause) {
			return true
		}
	}
	return false
}

func asksFact(clause string) bool {
	if preferenceMarkers.MatchString(clause) || plannedTopic.MatchString(clause) {
		return false
	}
	for _, topic := range verifiableTopics {
		if topic.MatchString(clause) {
			return true
		}
	}
	return false
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true, "by": true,
	"can": true, "do": true, "does": true, "for": true, "from": true, "have": true, "has": true,
	"how": true, "i": true, "in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"our": true, "should": true, "that": true, "the": true, "their": true, "they": true, "this": true,
	"to": true, "we": true, "what": true, "which": true, "who": true, "will": true, "with": true,
	"would": true, "you": true, "your": true, "must": true, "need": true, "someone": true, "candidate": true,
	"candidates": true, "person": true,
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// contentTokens lowercases s and returns its words without stop words, in order.
func contentTokens(s string) []string {
	var out []string
	for _, w := range nonWord.Split(strings.ToLower(s), -1) {
		if w != "" && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// normalizedText is the comparison key for duplicate questions.
func normalizedText(s string) string {
	return strings.Join(strings.Fields(nonWord.ReplaceAllString(strings.ToLower(s), " ")), " ")
}

// answeredByCriteria reports whether one of the stated criteria already covers the question.
// A criterion covers a question when most of its content words appear in the question.
func answeredByCriteria(text string, criteria []string) bool {
	questionWords := make(map[string]bool)
	for _, w := range contentTokens(text) {
		questionWords[w] = true
	}
	for _, criterion := range criteria {
		words := contentTokens(criterion)
		if len(words) == 0 {
			continue
		}
		overlap := 0
		for _, w := range words {
			if questionWords[w] {
				overlap++
			}
		}
		need := 2
		if len(words) < need {
			need = len(words)
		}
		if overlap >= need && float64(overlap)/float64(len(words)) >= 0.6 {
			return true
		}
	}
	return false
}

// queueFilter applies the verifiability, criteria, and duplicate checks in order.
type queueFilter struct {
	criteria []string
	seen     map[string]bool
}

func newQueueFilter(criteria []string) *queueFilter {
	return &queueFilter{criteria: criteria, seen: make(map[string]bool)}
}

// accept returns a reason when q is rejected, or "" when it is kept.
func (f *queueFilter) accept(q types.Question) string {
	key := normalizedText(q.Text)
	switch {
	case strings.TrimSpace(key) == "":
		return "empty"
	case IsVerifiable(q.Text):
		return "verifiable"
	case answeredByCriteria(q.Text, f.criteria):
		return "already stated"
	case f.seen[key]:
		return "duplicate"
	}
	f.seen[key] = true
	return ""
}
