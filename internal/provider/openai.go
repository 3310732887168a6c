package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"toolchat/internal/domain"

	oa "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const openaiDefaultModel = "gpt-4o-mini"

// OpenAI generates completions from any OpenAI-compatible chat endpoint
// (llama.cpp server, vLLM, LM Studio, OpenAI itself). The prompt is sent
// as a single user message.
type OpenAI struct {
	client oa.Client
	model  string
	logger *slog.Logger
}

type OpenAIConfig struct {
	APIKey  string
	APIBase string
	Model   string
	Logger  *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig, httpClient *http.Client) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = openaiDefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = SharedHTTPClient(0)
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(defaultRetry.attempts),
	}
	// Local servers usually ignore the key but the SDK insists on one.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "not-needed"
	}
	opts = append(opts, option.WithAPIKey(apiKey))
	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}
	return &OpenAI{
		client: oa.NewClient(opts...),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (o *OpenAI) Name() string { return "openai:" + o.model }

func (o *OpenAI) Healthy(ctx context.Context) error {
	if _, err := o.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai-compatible server not reachable: %w", err)
	}
	return nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = o.model
	}
	params := oa.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: []oa.ChatCompletionMessageParamUnion{oa.UserMessage(prompt)},
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = oa.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		params.Temperature = oa.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = oa.Float(opts.TopP)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	o.logger.Debug("openai generated", "model", model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}

var _ domain.Generator = (*OpenAI)(nil)
