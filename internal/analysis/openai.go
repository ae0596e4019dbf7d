package analysis

import (
	"context"
	"fmt"

	"go-image-detector/internal/upload"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const openAIMaxTokens = 2048

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIAnalyzer sends the image as a data URL part and asks for a strict
// JSON schema response with the same four fields as the Gemini adapter.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

func NewOpenAIAnalyzer(cfg OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is empty")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIAnalyzer{client: openai.NewClientWithConfig(oc), model: cfg.Model}, nil
}

func openAISchema() *jsonschema.Definition {
	labels := jsonschema.Definition{
		Type:  jsonschema.Array,
		Items: &jsonschema.Definition{Type: jsonschema.String},
	}
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			FieldIsSensitive:       {Type: jsonschema.Boolean},
			FieldDescription:       {Type: jsonschema.String},
			FieldIdentifiedObjects: labels,
			FieldKeyInsights:       labels,
		},
		Required:             ResponseFields,
		AdditionalProperties: false,
	}
}

func (o *OpenAIAnalyzer) AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Result, error) {
	req := openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: openAIMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "image_analysis",
				Schema: openAISchema(),
				Strict: true,
			},
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: upload.DataURL(mimeType, imageData)},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: Prompt,
					},
				},
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return ParseResult(resp.Choices[0].Message.Content)
}
