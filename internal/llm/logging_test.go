package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggingProvider_PassesThrough(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`)},
		MockResponse{Err: &ErrProviderUnavailable{}},
	)
	p := WithLogging(mock, zap.NewNop())
	ctx := WithPurpose(context.Background(), "lesson")

	resp, err := p.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(resp.Content))

	_, err = p.Generate(ctx, Request{})
	assert.Error(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestPurposeFrom(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	assert.Equal(t, "quiz", PurposeFrom(WithPurpose(context.Background(), "quiz")))
}
