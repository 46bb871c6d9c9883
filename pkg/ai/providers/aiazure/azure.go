package aiazure

import (
	"context"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aiopenai"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

// DefaultAPIVersion is the Azure OpenAI API version used unless overridden
const DefaultAPIVersion = "2024-06-01"

// ProviderOption configures the Azure OpenAI provider
type ProviderOption func(*AzureOpenAIProvider)

// WithAPIVersion sets the Azure OpenAI API version
func WithAPIVersion(version string) ProviderOption {
	return func(p *AzureOpenAIProvider) {
		p.apiVersion = version
	}
}

// WithAzureADCredential configures Azure AD authentication
func WithAzureADCredential(cred azcore.TokenCredential) ProviderOption {
	return func(p *AzureOpenAIProvider) {
		p.tokenCredential = cred
	}
}

// WithRequestOptions appends raw client options
func WithRequestOptions(opts ...option.RequestOption) ProviderOption {
	return func(p *AzureOpenAIProvider) {
		p.requestOptions = append(p.requestOptions, opts...)
	}
}

// AzureOpenAIProvider implements llm.Gateway for Azure OpenAI. The model
// name in llm.Params is the deployment name.
type AzureOpenAIProvider struct {
	client          openai.Client
	endpoint        string
	apiKey          string
	apiVersion      string
	tokenCredential azcore.TokenCredential
	requestOptions  []option.RequestOption
}

// NewAzureOpenAIProvider creates a new Azure OpenAI provider
func NewAzureOpenAIProvider(endpoint, apiKey string, opts ...ProviderOption) *AzureOpenAIProvider {
	p := &AzureOpenAIProvider{
		endpoint:   endpoint,
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.apiKey == "" {
		p.apiKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}

	clientOpts := []option.RequestOption{
		azure.WithEndpoint(p.endpoint, p.apiVersion),
		option.WithMaxRetries(0),
	}

	if p.tokenCredential != nil {
		clientOpts = append(clientOpts, azure.WithTokenCredential(p.tokenCredential))
	} else {
		clientOpts = append(clientOpts, azure.WithAPIKey(p.apiKey))
	}
	clientOpts = append(clientOpts, p.requestOptions...)

	p.client = openai.NewClient(clientOpts...)
	return p
}

// Complete implements llm.Gateway
func (p *AzureOpenAIProvider) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Response, error) {
	if p.endpoint == "" {
		return llm.Response{}, errorRegistry.New(ErrMissingEndpoint)
	}
	if params.Model == "" {
		return llm.Response{}, errorRegistry.New(ErrMissingDeployment)
	}

	return aiopenai.Complete(ctx, p.client, messages, params)
}
