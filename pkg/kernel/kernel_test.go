package kernel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/kernel"
)

func TestNewSessionIDDefaults(t *testing.T) {
	assert.Equal(t, kernel.DefaultSessionID, kernel.NewSessionID(""))
	assert.Equal(t, kernel.DefaultSessionID, kernel.NewSessionID("   "))
	assert.Equal(t, kernel.SessionID("abc"), kernel.NewSessionID(" abc "))
}

func TestContextRoundTrip(t *testing.T) {
	ctx := kernel.WithRequestID(context.Background(), "req-1")
	ctx = kernel.WithSessionID(ctx, "s-1")

	assert.Equal(t, kernel.RequestID("req-1"), kernel.RequestIDFrom(ctx))
	assert.Equal(t, kernel.SessionID("s-1"), kernel.SessionIDFrom(ctx))
	assert.True(t, kernel.RequestIDFrom(context.Background()).IsEmpty())
}
