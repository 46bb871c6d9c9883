package llm

import (
	"fmt"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ptrx"
)

// MaxStopSequences is the most stop sequences any backend accepts
const MaxStopSequences = 4

// Params are the sampling parameters of one completion call. Temperature
// and TopP are optional; nil leaves the backend default in place.
type Params struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	TopP        *float64
	Stop        []string
}

// DefaultParams mirrors the deployed assistant: 1024 completion tokens at temperature 0.7.
func DefaultParams(model string) Params {
	return Params{
		Model:       model,
		MaxTokens:   1024,
		Temperature: ptrx.To(0.7),
	}
}

// Validate checks the parameters before any remote call is attempted
func (p Params) Validate() error {
	switch {
	case p.Model == "":
		return invalidParams("model is required", "model", p.Model)
	case p.MaxTokens <= 0:
		return invalidParams("max_tokens must be positive", "max_tokens", p.MaxTokens)
	case p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2):
		return invalidParams("temperature must be within [0, 2]", "temperature", *p.Temperature)
	case p.TopP != nil && (*p.TopP < 0 || *p.TopP > 1):
		return invalidParams("top_p must be within [0, 1]", "top_p", *p.TopP)
	case p.Temperature != nil && p.TopP != nil:
		return invalidParams("set either temperature or top_p, not both", "top_p", *p.TopP)
	case len(p.Stop) > MaxStopSequences:
		return invalidParams(fmt.Sprintf("at most %d stop sequences are allowed", MaxStopSequences), "stop", len(p.Stop))
	}
	return nil
}

func invalidParams(msg, field string, value any) error {
	return ErrRegistry.NewWithMessage(ErrInvalidParams, msg).
		WithDetail("field", field).
		WithDetail("value", value)
}
