package aiopenai

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// DefaultEmbeddingModel is used when EmbeddingFunc gets an empty model
const DefaultEmbeddingModel = "text-embedding-3-small"

// EmbedDocuments returns one vector per input text, in input order
func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errorRegistry.New(ErrEmptyEmbeddingInput)
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          openai.EmbeddingModel(model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, ParseOpenAIError(err).WithDetail("model", model)
	}
	if len(resp.Data) != len(texts) {
		return nil, errorRegistry.New(ErrNoEmbeddingReturned).
			WithDetail("expected", len(texts)).
			WithDetail("got", len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if int(d.Index) < 0 || int(d.Index) >= len(vectors) {
			return nil, errorRegistry.New(ErrNoEmbeddingReturned).WithDetail("index", d.Index)
		}
		vectors[d.Index] = convertToFloat32Slice(d.Embedding)
	}
	return vectors, nil
}

// EmbeddingFunc adapts the provider to the single-text embedding signature
// vector stores expect.
func (p *OpenAIProvider) EmbeddingFunc(model string) func(ctx context.Context, text string) ([]float32, error) {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := p.EmbedDocuments(ctx, model, []string{text})
		if err != nil {
			return nil, err
		}
		return vectors[0], nil
	}
}

func convertToFloat32Slice(input []float64) []float32 {
	result := make([]float32, len(input))
	for i, v := range input {
		result[i] = float32(v)
	}
	return result
}
