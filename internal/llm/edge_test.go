package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kids_edu_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEdge(t *testing.T, handler http.HandlerFunc) *EdgeProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewEdgeProvider(config.AIConfig{EdgeURL: srv.URL, EdgeKey: "secret", TimeoutSeconds: 5})
	require.NoError(t, err)
	return p
}

func TestEdgeProvider_UnwrapsContent(t *testing.T) {
	var got map[string]any
	p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":{"title":"Plants"}}`))
	})

	resp, err := p.Generate(context.Background(), Request{
		Payload: map[string]any{"contentType": "lesson", "topic": "plants"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Plants"}`, string(resp.Content))
	assert.Equal(t, "lesson", got["contentType"])
}

func TestEdgeProvider_UnwrappedBody(t *testing.T) {
	p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"Raw"}`))
	})

	resp, err := p.Generate(context.Background(), Request{Payload: map[string]any{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Raw"}`, string(resp.Content))
}

func TestEdgeProvider_Errors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		})
		_, err := p.Generate(context.Background(), Request{Payload: map[string]any{}})
		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, "2s", rl.RetryAfter.String())
	})

	t.Run("server error", func(t *testing.T) {
		p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := p.Generate(context.Background(), Request{Payload: map[string]any{}})
		var unavail *ErrProviderUnavailable
		assert.ErrorAs(t, err, &unavail)
	})

	t.Run("error field", func(t *testing.T) {
		p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"quota exceeded"}`))
		})
		_, err := p.Generate(context.Background(), Request{Payload: map[string]any{}})
		var unavail *ErrProviderUnavailable
		require.ErrorAs(t, err, &unavail)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("invalid json", func(t *testing.T) {
		p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := p.Generate(context.Background(), Request{Payload: map[string]any{}})
		var inv *ErrInvalidResponse
		assert.ErrorAs(t, err, &inv)
	})

	t.Run("missing payload", func(t *testing.T) {
		p := newEdge(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := p.Generate(context.Background(), Request{})
		assert.Error(t, err)
	})
}

func TestNewEdgeProvider_RequiresURL(t *testing.T) {
	_, err := NewEdgeProvider(config.AIConfig{})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), config.AIConfig{Provider: "mock"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(context.Background(), config.AIConfig{Provider: "carrier-pigeon"}, nil)
	assert.Error(t, err)

	_, err = NewProvider(context.Background(), config.AIConfig{Provider: "openai"}, nil)
	assert.Error(t, err)
}
