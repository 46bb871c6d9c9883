package aianthropic

import (
	"context"
	"os"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements llm.Gateway for Anthropic Claude
type AnthropicProvider struct {
	client anthropic.Client
	apiKey string
}

// NewAnthropicProvider creates a new Anthropic provider. An empty key falls
// back to ANTHROPIC_API_KEY. SDK retries are off.
func NewAnthropicProvider(apiKey string, opts ...option.RequestOption) *AnthropicProvider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(options...)

	return &AnthropicProvider{
		client: client,
		apiKey: apiKey,
	}
}

// Complete implements llm.Gateway. System messages travel in the system
// field; the remaining turns are normalized to strict user/assistant
// alternation starting with a user turn.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Response, error) {
	if p.apiKey == "" {
		return llm.Response{}, errorRegistry.New(ErrMissingAPIKey)
	}

	system, turns := llm.SplitSystem(messages)
	anthropicMsgs, err := convertMessages(turns)
	if err != nil {
		return llm.Response{}, err
	}
	if len(anthropicMsgs) == 0 {
		return llm.Response{}, errorRegistry.New(ErrEmptyMessages)
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(params.Model),
		MaxTokens: int64(params.MaxTokens),
		Messages:  anthropicMsgs,
	}
	if len(system) > 0 {
		req.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if params.Temperature != nil {
		req.Temperature = anthropic.Float(*params.Temperature)
	}
	if params.TopP != nil {
		req.TopP = anthropic.Float(*params.TopP)
	}
	if len(params.Stop) > 0 {
		req.StopSequences = params.Stop
	}

	msg, err := p.client.Messages.New(ctx, req)
	if err != nil {
		return llm.Response{}, ParseAnthropicError(err).
			WithDetail("model", params.Model).
			WithDetail("num_messages", len(messages))
	}

	return convertFromAnthropicResponse(msg)
}

func convertMessages(messages []llm.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range llm.Alternate(messages) {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(block))
		case llm.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(block))
		default:
			return nil, errorRegistry.New(ErrUnsupportedRole).WithDetail("role", m.Role.String())
		}
	}
	return out, nil
}

func convertFromAnthropicResponse(msg *anthropic.Message) (llm.Response, error) {
	if msg == nil {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return llm.Response{
		Message:      llm.NewAssistantMessage(content.String()),
		Model:        string(msg.Model),
		FinishReason: string(msg.StopReason),
		Usage: llm.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}
