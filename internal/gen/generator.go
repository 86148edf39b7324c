// Package gen wraps the text/structured generation collaborator behind a
// small interface so pipeline stages can be exercised with fakes.
package gen

import "context"

// Usage reports the token counts of one generation call. When the
// provider omits usage, counts are estimated and Estimated is set.
type Usage struct {
	// PromptTokens is the input token count.
	PromptTokens int64 `json:"promptTokens"`
	// CompletionTokens is the output token count.
	CompletionTokens int64 `json:"completionTokens"`
	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int64 `json:"totalTokens"`
	// Estimated indicates counts were derived from content length.
	Estimated bool `json:"-"`
}

// TextRequest describes one free-text generation call.
type TextRequest struct {
	// Model is the model identifier.
	Model string
	// SystemPrompt sets the role context.
	SystemPrompt string
	// Prompt is the user prompt.
	Prompt string
	// MaxOutputTokens caps the completion length.
	MaxOutputTokens int64
	// Temperature controls sampling randomness.
	Temperature float64
}

// TextResult is the outcome of a text generation call.
type TextResult struct {
	// Text is the generated content.
	Text string
	// Usage reports token consumption.
	Usage Usage
}

// ObjectRequest describes one schema-validated structured generation call.
type ObjectRequest struct {
	// Model is the model identifier.
	Model string
	// SystemPrompt sets the role context.
	SystemPrompt string
	// Prompt is the user prompt.
	Prompt string
	// SchemaName labels the wanted object shape.
	SchemaName string
	// Schema is the JSON-schema properties map of the wanted object.
	Schema map[string]any
	// Required lists mandatory schema properties.
	Required []string
	// MaxOutputTokens caps the completion length.
	MaxOutputTokens int64
}

// Generator is the generation collaborator contract. Both operations
// block until the provider responds; callers sequence them so each
// completes before the next cost-affecting decision.
type Generator interface {
	// GenerateText produces free text for a prompt.
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
	// GenerateObject produces a schema-conforming object, decoding it
	// into out, and returns the call's token usage.
	GenerateObject(ctx context.Context, req ObjectRequest, out any) (*Usage, error)
}

// EstimateTokens approximates a token count from text length. The
// provider's usage fields take precedence; this is the fallback when
// they are absent (roughly four characters per token).
func EstimateTokens(text string) int64 {
	return int64(len(text) / 4)
}
