package llm

import (
	"context"
	"encoding/json"
)

// Provider 内容生成的统一抽象
type Provider interface {
	// Generate 发送请求并返回 JSON 内容；Schema 不为空时返回值已通过校验
	Generate(ctx context.Context, req Request) (*Response, error)

	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Payload 结构化入参，边缘函数直接转发；聊天类模型忽略
	Payload any

	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema 期望的返回结构，Name 用作 OpenAI 的 schema 名和编译缓存键
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // end | max_tokens
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
