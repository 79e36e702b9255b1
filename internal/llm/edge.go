package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"kids_edu_backend/internal/config"
)

// EdgeProvider 调用托管的内容生成函数：POST Payload，返回 {"content": ...}
type EdgeProvider struct {
	url    string
	key    string
	client *http.Client
}

func NewEdgeProvider(cfg config.AIConfig) (*EdgeProvider, error) {
	if cfg.EdgeURL == "" {
		return nil, fmt.Errorf("ai.edge_url is required for the edge provider")
	}
	return &EdgeProvider{
		url:    cfg.EdgeURL,
		key:    cfg.EdgeKey,
		client: &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

type edgeResponse struct {
	Content json.RawMessage `json:"content"`
	Error   string          `json:"error,omitempty"`
}

func (p *EdgeProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Payload == nil {
		return nil, fmt.Errorf("edge provider requires a payload")
	}

	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.key)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrProviderUnavailable{Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &ErrRateLimit{
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("edge function: %s", resp.Status),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("edge function: %s: %s", resp.Status, truncate(raw, 200))}
	}

	var out edgeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("decode edge response: %w", err)}
	}
	if out.Error != "" {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("edge function: %s", out.Error)}
	}

	content := out.Content
	if len(content) == 0 || string(content) == "null" {
		// 未包装时整个响应体即内容
		content = raw
	}
	if err := ValidateResponse(req.Schema, content); err != nil {
		return nil, err
	}

	return &Response{Content: content, Model: p.ModelID(), StopReason: "end"}, nil
}

func (p *EdgeProvider) ModelID() string {
	return "edge"
}

func retryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
