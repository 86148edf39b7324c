package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// ClientConfig contains configuration for creating a Client.
type ClientConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes calls through AWS Bedrock instead of the API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// Client implements Generator against the Anthropic Messages API.
type Client struct {
	inner anthropic.Client
}

// NewClient creates a generation client from the given configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &Client{inner: anthropic.NewClient(opts...)}, nil
}

// GenerateText produces free text for a prompt via the Messages API.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("generate text: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	return &TextResult{
		Text:  text,
		Usage: usageFrom(resp.Usage, req.Prompt, text),
	}, nil
}

// GenerateObject produces a schema-conforming object by forcing a single
// tool call whose input schema is the wanted object shape.
func (c *Client) GenerateObject(ctx context.Context, req ObjectRequest, out any) (*Usage, error) {
	tool := anthropic.ToolParam{
		Name:        req.SchemaName,
		Description: anthropic.String("Record the requested structured result."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: req.Schema,
			Required:   req.Required,
		},
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools: []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.SchemaName},
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("generate structured: %w", err)
	}

	for _, block := range resp.Content {
		variant, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}
		if err := json.Unmarshal(variant.Input, out); err != nil {
			return nil, fmt.Errorf("decode structured output: %w", err)
		}
		usage := usageFrom(resp.Usage, req.Prompt, string(variant.Input))
		return &usage, nil
	}

	return nil, fmt.Errorf("no structured output in response")
}

// usageFrom converts API usage to Usage, estimating from content length
// when the provider reports nothing.
func usageFrom(u anthropic.Usage, prompt, completion string) Usage {
	if u.InputTokens == 0 && u.OutputTokens == 0 {
		in := EstimateTokens(prompt)
		outTokens := EstimateTokens(completion)
		return Usage{
			PromptTokens:     in,
			CompletionTokens: outTokens,
			TotalTokens:      in + outTokens,
			Estimated:        true,
		}
	}
	return Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      u.InputTokens + u.OutputTokens,
	}
}
