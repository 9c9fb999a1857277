package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/sozercan/idea-mapper/internal/config"
)

// OpenAI client implementation. Any OpenAI compatible endpoint (Groq,
// OpenRouter, a local gateway) works through the "openai" provider.
type OpenAI struct {
	client *openai.Client
	cfg    *config.LLMConfig
}

func NewOpenAI(cfg *config.LLMConfig, extra ...option.RequestOption) (*OpenAI, error) {
	if cfg == nil {
		return nil, errors.New("llm config is required")
	}

	var opts []option.RequestOption
	switch cfg.Provider {
	case "azure":
		opts = append(opts,
			azure.WithEndpoint(cfg.APIEndpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	default: // "openai"
		opts = append(opts,
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(withTrailingSlash(cfg.APIEndpoint)),
		)
	}
	// Retries are owned by Requester so that only rate limits are retried.
	opts = append(opts, option.WithMaxRetries(0))
	opts = append(opts, extra...)

	return &OpenAI{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}, nil
}

func (o *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (*Response, error) {
	options := &Options{
		Model:       o.model(),
		Temperature: o.cfg.Temperature,
		TopP:        o.cfg.TopP,
		MaxTokens:   o.cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(options)
	}

	resp, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Model: openai.F(options.Model),
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(userPrompt),
			}),
			Temperature: openai.F(options.Temperature),
			TopP:        openai.F(options.TopP),
			MaxTokens:   openai.F(options.MaxTokens),
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned from completion API")
	}

	return &Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Model reports the model identifier requests are sent with.
func (o *OpenAI) Model() string {
	return o.model()
}

func (o *OpenAI) model() string {
	if o.cfg.Provider == "azure" && o.cfg.DeploymentName != "" {
		return o.cfg.DeploymentName
	}
	return o.cfg.Model
}

func withTrailingSlash(endpoint string) string {
	if endpoint == "" || strings.HasSuffix(endpoint, "/") {
		return endpoint
	}
	return endpoint + "/"
}
