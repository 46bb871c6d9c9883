package llm

import (
	"context"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/asyncx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
)

// Gateway submits a message sequence to a completion backend
type Gateway interface {
	Complete(ctx context.Context, messages []Message, params Params) (Response, error)
}

// GatewayFunc adapts a function to Gateway
type GatewayFunc func(ctx context.Context, messages []Message, params Params) (Response, error)

func (f GatewayFunc) Complete(ctx context.Context, messages []Message, params Params) (Response, error) {
	return f(ctx, messages, params)
}

// RetryOptions configures RetryingGateway
type RetryOptions struct {
	// Attempts is the total number of calls. One disables retrying.
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// RetryingGateway validates parameters once, then calls the wrapped gateway
// with exponential backoff. Validation errors are never retried.
type RetryingGateway struct {
	next Gateway
	opts RetryOptions
}

// NewRetryingGateway wraps next. Zero options mean a single attempt.
func NewRetryingGateway(next Gateway, opts RetryOptions) *RetryingGateway {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 250 * time.Millisecond
	}
	return &RetryingGateway{next: next, opts: opts}
}

func (g *RetryingGateway) Complete(ctx context.Context, messages []Message, params Params) (Response, error) {
	if len(messages) == 0 {
		return Response{}, ErrRegistry.New(ErrEmptyMessages)
	}
	if err := params.Validate(); err != nil {
		return Response{}, err
	}

	attempt := 0
	return asyncx.RetryWithBackoff(ctx, asyncx.Backoff{
		Attempts:     g.opts.Attempts,
		InitialDelay: g.opts.InitialDelay,
		MaxDelay:     g.opts.MaxDelay,
		Retryable:    Retryable,
	}, func(ctx context.Context) (Response, error) {
		attempt++
		resp, err := g.next.Complete(ctx, messages, params)
		if err != nil && attempt < g.opts.Attempts && Retryable(err) {
			logx.WithFields(logx.Fields{
				"model":   params.Model,
				"attempt": attempt,
			}).WithError(err).Warn("completion attempt failed, retrying")
		}
		return resp, err
	})
}

// Retryable reports whether a completion error may succeed on another
// attempt. Validation and credential failures never do, nor do cancelled contexts.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errx.Is(err, context.Canceled) {
		return false
	}
	return !errx.IsType(err, errx.TypeValidation) && !errx.IsType(err, errx.TypeAuthorization)
}
