package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProvider(t *testing.T) {
	tp, err := NewTracingProvider(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	ctx := context.Background()
	assert.NoError(t, tp.Start(ctx))
	assert.NoError(t, tp.Stop(ctx))
	assert.NotNil(t, tp.GetTracer("test"))
	assert.Equal(t, "tracing-provider", tp.Name())
}

func TestEnabledWithoutEndpoint(t *testing.T) {
	_, err := NewTracingProvider(Config{Enabled: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint not configured")
}

func TestEnabledWithBadCAPath(t *testing.T) {
	_, err := NewTracingProvider(Config{
		Enabled:   true,
		Endpoint:  "localhost:4317",
		TLSCAPath: "/nonexistent/ca.pem",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CA certificate")
}
