package llm

import "sort"

type InputRole string

const (
	RoleDeveloper InputRole = "developer"
	RoleUser      InputRole = "user"
	RoleAssistant InputRole = "assistant"
)

type Effort string

const (
	EffortMinimal Effort = "minimal"
	EffortLow     Effort = "low"
	EffortMedium  Effort = "medium"
	EffortHigh    Effort = "high"
)

type Reasoning struct {
	Effort *Effort `json:"effort,omitempty"`
}

// TextFormatType enumerates the output formats we ask the API for.
type TextFormatType string

const (
	TextFormatTypeText       TextFormatType = "text"
	TextFormatTypeJSONSchema TextFormatType = "json_schema"
)

/*
TextOptions configures output formatting in the Responses API, for example:

	"text": { "format": { "type": "json_schema", "name": "...", "schema": {...}, "strict": true } }
*/
type TextOptions struct {
	Format TextFormat `json:"format"`
}

// For type == "json_schema", Name is required and Schema is the raw schema
// object. Strict enforces exact adherence.
type TextFormat struct {
	Type   TextFormatType `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
}

func TextAsJSONSchema(name string, schema map[string]any, strict bool) TextOptions {
	return TextOptions{
		Format: TextFormat{
			Type:   TextFormatTypeJSONSchema,
			Name:   name,
			Schema: schema,
			Strict: &strict,
		},
	}
}

/*
StrictObject builds the object schema structured outputs expect: every
listed property required, nothing extra allowed.
*/
func StrictObject(properties map[string]any) map[string]any {
	required := make([]string, 0, len(properties))
	for name := range properties {
		required = append(required, name)
	}
	sort.Strings(required)

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// InputItem is the simplest message shape the Responses API accepts. Content
// is either a plain string or a list of typed content parts.
type InputItem struct {
	Role    InputRole `json:"role"`
	Content any       `json:"content"`
}

type requestPayload struct {
	Model           string       `json:"model"`
	Instructions    string       `json:"instructions"`
	MaxOutputTokens *int         `json:"max_output_tokens,omitempty"`
	Input           []InputItem  `json:"input"`
	Reasoning       *Reasoning   `json:"reasoning,omitempty"`
	Temperature     *float64     `json:"temperature,omitempty"`
	Text            *TextOptions `json:"text,omitempty"`
}

// Only the response fields the transcriber actually reads.
type responseObject struct {
	ID     string       `json:"id"`
	Model  string       `json:"model"`
	Status string       `json:"status"`
	Output []outputItem `json:"output"`
	Usage  *usageBlock  `json:"usage,omitempty"`
	Error  any          `json:"error,omitempty"`
}

type outputItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []contentItem `json:"content,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type usageBlock struct {
	InputTokens         int                  `json:"input_tokens"`
	InputTokensDetails  *inputTokensDetails  `json:"input_tokens_details,omitempty"`
	OutputTokens        int                  `json:"output_tokens"`
	TotalTokens         int                  `json:"total_tokens"`
	OutputTokensDetails *outputTokensDetails `json:"output_tokens_details,omitempty"`
}

type inputTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

type outputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}
