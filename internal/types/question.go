package types

import "strings"

// QuestionCategory classifies a follow-up question
type QuestionCategory string

// Question categories
const (
	CategoryCulturalFit QuestionCategory = "CULTURAL_FIT"
	CategoryExperience  QuestionCategory = "EXPERIENCE"
	CategoryDealBreaker QuestionCategory = "DEAL_BREAKER"
	CategoryOther       QuestionCategory = "OTHER"
)

// Question is one item of the follow-up queue
type Question struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Category  QuestionCategory `json:"category"`
	Rationale string           `json:"rationale,omitempty"`
}

// ParseQuestionCategory maps free-form category labels onto the known categories.
// Unknown labels map to CategoryOther.
func ParseQuestionCategory(s string) QuestionCategory {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	switch normalized {
	case "CULTURAL_FIT", "CULTURE", "LEADERSHIP", "LEADERSHIP_STYLE":
		return CategoryCulturalFit
	case "EXPERIENCE", "EXPERIENCE_REQUIREMENTS", "INDUSTRY_FIT", "STAGE_REQUIREMENTS", "COMPETITIVE_CONTEXT":
		return CategoryExperience
	case "DEAL_BREAKER", "DEAL_BREAKERS", "MUST_HAVE", "MUST_HAVES":
		return CategoryDealBreaker
	default:
		return CategoryOther
	}
}
