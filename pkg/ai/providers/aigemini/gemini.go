package aigemini

import (
	"context"
	"os"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"google.golang.org/genai"
)

type ProviderOption func(*GeminiProvider)

// WithVertexAI routes calls through Vertex AI instead of the Gemini API
func WithVertexAI(project, location string) ProviderOption {
	return func(p *GeminiProvider) {
		p.project = project
		p.location = location
		p.useVertexAI = true
	}
}

// WithHTTPOptions overrides the transport settings, such as the base URL
func WithHTTPOptions(opts genai.HTTPOptions) ProviderOption {
	return func(p *GeminiProvider) {
		p.httpOptions = opts
	}
}

// GeminiProvider implements llm.Gateway for Google Gemini
type GeminiProvider struct {
	client      *genai.Client
	apiKey      string
	project     string
	location    string
	useVertexAI bool
	httpOptions genai.HTTPOptions
}

func NewGeminiProvider(ctx context.Context, apiKey string, opts ...ProviderOption) (*GeminiProvider, error) {
	p := &GeminiProvider{apiKey: apiKey}

	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		p.apiKey = os.Getenv("GEMINI_API_KEY")
	}

	config := &genai.ClientConfig{HTTPOptions: p.httpOptions}

	if p.useVertexAI {
		config.Backend = genai.BackendVertexAI
		config.Project = p.project
		config.Location = p.location
	} else {
		if p.apiKey == "" {
			return nil, errorRegistry.New(ErrMissingAPIKey)
		}
		config.APIKey = p.apiKey
		config.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrMissingAPIKey, err).
			WithDetail("error", "failed to create Gemini client")
	}

	p.client = client
	return p, nil
}

// Complete implements llm.Gateway
func (p *GeminiProvider) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Response, error) {
	system, contents, err := convertMessages(messages)
	if err != nil {
		return llm.Response{}, err
	}
	if len(contents) == 0 {
		return llm.Response{}, errorRegistry.New(ErrEmptyMessages)
	}

	result, err := p.client.Models.GenerateContent(ctx, params.Model, contents, buildGenerateConfig(params, system))
	if err != nil {
		return llm.Response{}, ParseGeminiError(err).
			WithDetail("model", params.Model).
			WithDetail("num_messages", len(messages))
	}

	return convertFromGeminiResponse(result)
}

func convertMessages(messages []llm.Message) (*genai.Content, []*genai.Content, error) {
	var systemContent *genai.Content
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if systemContent == nil {
				systemContent = &genai.Content{}
			}
			systemContent.Parts = append(systemContent.Parts, genai.NewPartFromText(msg.Content))

		case llm.RoleUser:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})

		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
			})

		default:
			return nil, nil, errorRegistry.New(ErrUnsupportedRole).WithDetail("role", msg.Role.String())
		}
	}

	return systemContent, contents, nil
}

func buildGenerateConfig(params llm.Params, systemContent *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if systemContent != nil {
		config.SystemInstruction = systemContent
	}
	if params.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*params.Temperature))
	}
	if params.TopP != nil {
		config.TopP = genai.Ptr(float32(*params.TopP))
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}
	if len(params.Stop) > 0 {
		config.StopSequences = params.Stop
	}

	return config
}

func convertFromGeminiResponse(result *genai.GenerateContentResponse) (llm.Response, error) {
	if result == nil || len(result.Candidates) == 0 {
		return llm.Response{}, errorRegistry.New(ErrAPIResponse).
			WithDetail("error", "no candidates in response")
	}

	candidate := result.Candidates[0]

	var content strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			content.WriteString(part.Text)
		}
	}

	usage := llm.Usage{}
	if result.UsageMetadata != nil {
		usage.PromptTokens = int(result.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(result.UsageMetadata.TotalTokenCount)
	}

	return llm.Response{
		Message:      llm.NewAssistantMessage(content.String()),
		Model:        result.ModelVersion,
		FinishReason: string(candidate.FinishReason),
		Usage:        usage,
	}, nil
}
