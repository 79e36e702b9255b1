package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Content))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	mock := NewMockProvider()
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
	assert.Equal(t, 3, mock.CallCount())
}

func TestRetry_MaxTokensNotRetried(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrMaxTokensExceeded{}})
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	invalid := MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad shape")}}
	mock := NewMockProvider(invalid, invalid, invalid)
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetry_ContextCanceled(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: context.Canceled})
	p := WithRetry(mock, retryConfig())

	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_RespectsRetryAfter(t *testing.T) {
	r := &RetryProvider{config: retryConfig()}
	wait := r.backoff(0, &ErrRateLimit{RetryAfter: 3 * time.Second})
	assert.Equal(t, 3*time.Second, wait)
}

func TestDefaultRetryConfig_MinimumOneAttempt(t *testing.T) {
	assert.Equal(t, 1, DefaultRetryConfig(0).MaxAttempts)
	assert.Equal(t, 2, DefaultRetryConfig(2).MaxAttempts)
}
