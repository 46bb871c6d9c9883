package aibedrock

import (
	"context"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the slice of the Bedrock runtime client the provider uses
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements llm.Gateway through the Bedrock Converse API
type BedrockProvider struct {
	client ConverseAPI
}

// NewBedrockProvider builds a runtime client from cfg that makes a single
// attempt per call.
func NewBedrockProvider(cfg aws.Config, optFns ...func(*bedrockruntime.Options)) *BedrockProvider {
	optFns = append([]func(*bedrockruntime.Options){func(o *bedrockruntime.Options) {
		o.RetryMaxAttempts = 1
	}}, optFns...)
	return NewBedrockProviderWithClient(bedrockruntime.NewFromConfig(cfg, optFns...))
}

// NewBedrockProviderWithClient uses an existing client
func NewBedrockProviderWithClient(client ConverseAPI) *BedrockProvider {
	return &BedrockProvider{client: client}
}

// Complete implements llm.Gateway. params.Model is the Bedrock model ID.
func (p *BedrockProvider) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Response, error) {
	system, turns := llm.SplitSystem(messages)

	bedrockMsgs, err := convertMessages(turns)
	if err != nil {
		return llm.Response{}, err
	}
	if len(bedrockMsgs) == 0 {
		return llm.Response{}, errorRegistry.New(ErrEmptyMessages)
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(params.Model),
		Messages:        bedrockMsgs,
		InferenceConfig: buildInferenceConfig(params),
	}
	if len(system) > 0 {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: strings.Join(system, "\n\n")},
		}
	}

	output, err := p.client.Converse(ctx, input)
	if err != nil {
		return llm.Response{}, ParseBedrockError(err).
			WithDetail("model", params.Model).
			WithDetail("num_messages", len(messages))
	}

	resp, err := convertFromBedrockResponse(output)
	if err != nil {
		return llm.Response{}, err
	}
	resp.Model = params.Model
	return resp, nil
}

func convertMessages(messages []llm.Message) ([]types.Message, error) {
	out := make([]types.Message, 0, len(messages))
	for _, m := range llm.Alternate(messages) {
		var role types.ConversationRole
		switch m.Role {
		case llm.RoleUser:
			role = types.ConversationRoleUser
		case llm.RoleAssistant:
			role = types.ConversationRoleAssistant
		default:
			return nil, errorRegistry.New(ErrUnsupportedRole).WithDetail("role", m.Role.String())
		}
		out = append(out, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}
	return out, nil
}

func buildInferenceConfig(params llm.Params) *types.InferenceConfiguration {
	config := &types.InferenceConfiguration{}
	hasConfig := false

	if params.MaxTokens > 0 {
		config.MaxTokens = aws.Int32(int32(params.MaxTokens))
		hasConfig = true
	}
	if params.Temperature != nil {
		config.Temperature = aws.Float32(float32(*params.Temperature))
		hasConfig = true
	}
	if params.TopP != nil {
		config.TopP = aws.Float32(float32(*params.TopP))
		hasConfig = true
	}
	if len(params.Stop) > 0 {
		config.StopSequences = params.Stop
		hasConfig = true
	}

	if !hasConfig {
		return nil
	}
	return config
}

func convertFromBedrockResponse(output *bedrockruntime.ConverseOutput) (llm.Response, error) {
	if output == nil {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse)
	}
	msgOutput, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse).
			WithDetail("error", "unexpected output type")
	}

	var content strings.Builder
	for _, block := range msgOutput.Value.Content {
		if v, ok := block.(*types.ContentBlockMemberText); ok {
			content.WriteString(v.Value)
		}
	}

	usage := llm.Usage{}
	if output.Usage != nil {
		usage.PromptTokens = int(aws.ToInt32(output.Usage.InputTokens))
		usage.CompletionTokens = int(aws.ToInt32(output.Usage.OutputTokens))
		usage.TotalTokens = int(aws.ToInt32(output.Usage.TotalTokens))
	}

	return llm.Response{
		Message:      llm.NewAssistantMessage(content.String()),
		FinishReason: string(output.StopReason),
		Usage:        usage,
	}, nil
}
