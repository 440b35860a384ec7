// Package llm wraps the external completion service behind a small streaming
// interface. The core treats the model as a capability: it builds the prompt,
// forwards the token stream, and nothing else.
package llm

import (
	"context"
	"errors"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "qwen-plus"

	defaultMaxTokens   = 1500
	defaultTemperature = 0.7
	defaultTopP        = 0.8
)

// ErrNoAPIKey is returned when no completion API key is configured.
var ErrNoAPIKey = errors.New("CAMPUSDESK_LLM_API_KEY environment variable not set")

// systemPrompt fixes the assistant persona and grounding rules for every
// generated answer.
const systemPrompt = "你是校园事务智能助手，性格温柔、耐心、乐于助人。" +
	"优先基于提供的知识库内容回答，不编造知识库以外的信息；" +
	"知识库没有相关信息时委婉说明，并提示其他求助途径。" +
	"使用Markdown格式，重要信息加粗，语气自然亲切，回答简洁明了。"

// Stream yields answer fragments in emission order. Recv returns io.EOF when
// the completion finishes.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Completer is the capability the orchestrator depends on.
type Completer interface {
	StreamCompletion(ctx context.Context, prompt string) (Stream, error)
}

// Config holds completion service settings. BaseURL may point at any
// OpenAI-compatible endpoint (e.g. DashScope's compatible mode).
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client is the production Completer backed by an OpenAI-compatible API.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a streaming completion client.
func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: openai.NewClientWithConfig(apiCfg),
		model:  model,
	}
}

// NewClientFromEnv creates a client from CAMPUSDESK_LLM_* environment
// variables.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("CAMPUSDESK_LLM_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(Config{
		APIKey:  apiKey,
		BaseURL: os.Getenv("CAMPUSDESK_LLM_BASE_URL"),
		Model:   os.Getenv("CAMPUSDESK_LLM_MODEL"),
	}), nil
}

// StreamCompletion starts a streamed chat completion for the prompt.
func (c *Client) StreamCompletion(ctx context.Context, prompt string) (Stream, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		TopP:        defaultTopP,
		Stream:      true,
	}

	s, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &chatStream{inner: s}, nil
}

type chatStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next non-empty content fragment, skipping keep-alive
// frames with no delta.
func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
}

func (s *chatStream) Close() error {
	return s.inner.Close()
}

var _ Completer = (*Client)(nil)
