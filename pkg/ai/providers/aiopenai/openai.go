package aiopenai

import (
	"context"
	"os"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider implements llm.Gateway for OpenAI chat completions
type OpenAIProvider struct {
	client openai.Client
	apiKey string
}

// NewOpenAIProvider creates a new OpenAI provider. An empty key falls back
// to OPENAI_API_KEY. SDK retries are off; llm.RetryingGateway owns retries.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(options...)

	return &OpenAIProvider{
		client: client,
		apiKey: apiKey,
	}
}

// Complete implements llm.Gateway
func (p *OpenAIProvider) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Response, error) {
	return Complete(ctx, p.client, messages, params)
}

// Complete sends one chat completion through client. It is shared with the
// Azure provider, which speaks the same wire protocol.
func Complete(ctx context.Context, client openai.Client, messages []llm.Message, params llm.Params) (llm.Response, error) {
	req, err := ChatParams(messages, params)
	if err != nil {
		return llm.Response{}, err
	}

	completion, err := client.Chat.Completions.New(ctx, req)
	if err != nil {
		return llm.Response{}, ParseOpenAIError(err).
			WithDetail("model", params.Model).
			WithDetail("num_messages", len(messages))
	}

	return convertFromOpenAIResponse(completion)
}

// ChatParams builds the request body for messages and params
func ChatParams(messages []llm.Message, params llm.Params) (openai.ChatCompletionNewParams, error) {
	if len(messages) == 0 {
		return openai.ChatCompletionNewParams{}, errorRegistry.New(ErrEmptyMessages)
	}

	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		msg, err := convertToOpenAIMessage(m)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		converted = append(converted, msg)
	}

	req := openai.ChatCompletionNewParams{
		Messages: converted,
		Model:    openai.ChatModel(params.Model),
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(params.MaxTokens))
	}
	if params.Temperature != nil {
		req.Temperature = openai.Float(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = openai.Float(*params.TopP)
	}
	if len(params.Stop) > 0 {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: params.Stop,
		}
	}
	return req, nil
}

func convertToOpenAIMessage(msg llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case llm.RoleSystem:
		return openai.SystemMessage(msg.Content), nil
	case llm.RoleUser:
		return openai.UserMessage(msg.Content), nil
	case llm.RoleAssistant:
		return openai.AssistantMessage(msg.Content), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, errorRegistry.New(ErrUnsupportedRole).
			WithDetail("role", msg.Role.String())
	}
}

func convertFromOpenAIResponse(completion *openai.ChatCompletion) (llm.Response, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return llm.Response{}, errorRegistry.New(ErrNoChoicesInResponse)
	}

	choice := completion.Choices[0]

	return llm.Response{
		Message:      llm.NewAssistantMessage(choice.Message.Content),
		Model:        completion.Model,
		FinishReason: choice.FinishReason,
		Usage: llm.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}
