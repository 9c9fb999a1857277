package llm

import "context"

type Provider interface {
	// Complete sends a system and a user message and returns the model's reply
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (*Response, error)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	TopP        float64
}

type Response struct {
	Content string
	Model   string
	Usage   Usage
}
