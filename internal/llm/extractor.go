package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "PRDOutline")
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

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

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
		fmt.Fprintf(&sb, "  %q: %s%s", field.Name, typeHint, requiredHint)
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent requirements.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// PRDOutlineSchema returns the extraction schema that condenses a product
// requirements document into the sections the factor extractor reads.
func PRDOutlineSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "PRDOutline",
		Description: `You are an experienced product manager. Condense the product requirements document below.
Keep the wording of the original wherever possible and drop marketing copy, change logs and legal text.`,
		Fields: []SchemaField{
			{
				Name:        "product",
				Type:        "\"string\"",
				Description: "Product name",
				Required:    true,
			},
			{
				Name:        "summary",
				Type:        "\"string\"",
				Description: "One paragraph describing what the product does",
				Required:    true,
			},
			{
				Name:        "target_users",
				Type:        "[\"string\"]",
				Description: "Who uses the product and on which devices",
				Required:    true,
			},
			{
				Name:        "usage_scenarios",
				Type:        "[\"string\"]",
				Description: "Where and when the product is used (desk, field, commute...)",
				Required:    false,
			},
			{
				Name:        "features",
				Type:        "[\"string\"]",
				Description: "Functional requirements, one per entry, including device capabilities such as GPS or camera",
				Required:    true,
			},
			{
				Name:        "constraints",
				Type:        "{\"key\": \"value\"}",
				Description: "Schedule, budget, team and technology constraints as key-value pairs",
				Required:    false,
			},
		},
	}
}
