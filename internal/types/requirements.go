// Package types provides type definitions for structured data used throughout the executive intake system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// JobRequirements is the structured record extracted from the first message of a conversation.
// It is created once and never mutated; follow-up answers are stored on the conversation.
type JobRequirements struct {
	RoleTitle                string   `json:"role_title"`
	CompanyName              string   `json:"company_name"`
	CompanyStage             string   `json:"company_stage"`
	QuantitativeTargets      []string `json:"quantitative_targets"`
	StatedSubjectiveCriteria []string `json:"stated_subjective_criteria"`
}

// Clone returns a deep copy of the requirements.
func (r *JobRequirements) Clone() *JobRequirements {
	if r == nil {
		return nil
	}
	out := *r
	out.QuantitativeTargets = append([]string{}, r.QuantitativeTargets...)
	out.StatedSubjectiveCriteria = append([]string{}, r.StatedSubjectiveCriteria...)
	return &out
}
