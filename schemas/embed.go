// Package schemas embeds the JSON Schemas that language model output must satisfy.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	JobRequirements    = "job_requirements.schema.json"
	QuestionCandidates = "question_candidates.schema.json"
	Conversation       = "conversation.schema.json"
)
