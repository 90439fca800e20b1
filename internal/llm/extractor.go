package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// It provides a reusable way to define what information to extract from text.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "JobRequirements")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Leave a field empty (\"\" or []) when the text does not state it.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// IntakeRequirementsSchema returns the extraction schema for an executive search brief.
// Mirrors schemas/job_requirements.schema.json.
func IntakeRequirementsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "JobRequirements",
		Description: `You are an executive search intake assistant.
Your task is to pull the structured hiring brief out of a client's first message.
Never fabricate a company name, number, or target that the message does not contain.`,
		Fields: []SchemaField{
			{
				Name:        "role_title",
				Type:        "\"string\"",
				Description: "Title of the role being hired, as written (e.g., 'VP of Sales')",
				Required:    true,
			},
			{
				Name:        "company_name",
				Type:        "\"string\"",
				Description: "Hiring company name exactly as written, empty if not mentioned",
				Required:    true,
			},
			{
				Name:        "company_stage",
				Type:        "\"string\"",
				Description: "Funding stage or maturity with sector (e.g., 'Series A fintech'), empty if not mentioned",
				Required:    false,
			},
			{
				Name:        "quantitative_targets",
				Type:        "[\"string\"]",
				Description: "Numeric goals for the hire, one short phrase each (e.g., '$2M to $10M ARR in 18 months')",
				Required:    true,
			},
			{
				Name:        "stated_subjective_criteria",
				Type:        "[\"string\"]",
				Description: "Qualities, preferences, or deal breakers the client already volunteered",
				Required:    true,
			},
		},
	}
}
