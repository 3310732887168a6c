package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"toolchat/internal/domain"
	"toolchat/internal/metrics"
	"toolchat/internal/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxTokens     = 512
	defaultTemperature   = 0.7
	defaultTopP          = 0.95
	defaultMaxConcurrent = 4
	titleMaxChars        = 50
)

// ErrNoMessages is returned for a chat request without turns.
var ErrNoMessages = errors.New("chat request has no messages")

// Registry is what the chat service needs from the tool registry.
type Registry interface {
	Invoker
	ToolLister
}

// ChatConfig holds the dependencies of a ChatService.
type ChatConfig struct {
	Generator     domain.Generator
	Tools         Registry
	Store         domain.ConversationStore // optional
	Parser        *Parser
	MarkerPolicy  MarkerPolicy
	MaxConcurrent int
	Logger        *slog.Logger
}

// ChatService is the request-handling side of the tool core: it persists
// turns, builds the prompt, calls the model and runs the orchestrator.
type ChatService struct {
	generator domain.Generator
	tools     Registry
	store     domain.ConversationStore
	prompt    *PromptBuilder
	orch      *Orchestrator
	sem       *semaphore.Weighted
	logger    *slog.Logger
}

func NewChatService(cfg ChatConfig) *ChatService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	return &ChatService{
		generator: cfg.Generator,
		tools:     cfg.Tools,
		store:     cfg.Store,
		prompt:    NewPromptBuilder(cfg.Tools),
		orch:      NewOrchestrator(cfg.Parser, cfg.Tools, cfg.MarkerPolicy, cfg.Logger),
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger:    cfg.Logger,
	}
}

// Tools lists the registered tools in registration order.
func (s *ChatService) Tools() []domain.ToolInfo {
	return s.tools.List()
}

// Chat handles one request end to end. Tool failures never surface as an
// error here; only model, storage and admission problems do.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	metrics.ChatRequests.Inc()
	resp, err := s.chat(ctx, req)
	if err != nil {
		metrics.ChatFailures.Inc()
		s.logger.Warn("chat failed", "conversation", req.ConversationID, "err", err)
	}
	return resp, err
}

func (s *ChatService) chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}
	useTools := req.ToolsEnabled()

	ctx, span := tracing.Tracer().Start(ctx, "chat")
	defer span.End()
	span.SetAttributes(
		attribute.Int("chat.turns", len(req.Messages)),
		attribute.Bool("chat.use_tools", useTools),
	)

	start := time.Now()
	convID, err := s.openConversation(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("chat.conversation_id", convID))

	for _, t := range req.Messages {
		if err := s.persist(ctx, convID, domain.MessageRecord{Role: t.Role, Content: t.Text}); err != nil {
			return nil, err
		}
	}

	opts := generateOptions(req)
	prompt := s.prompt.Build(req.Messages, useTools)

	out, err := s.generate(ctx, prompt, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Dispatched tool calls run to completion even if the client goes away.
	text, results := s.orch.Run(context.WithoutCancel(ctx), out, useTools)
	span.SetAttributes(attribute.Int("chat.tool_calls", len(results)))

	reply := domain.MessageRecord{Role: "assistant", Content: text}
	if len(results) > 0 {
		encoded, err := json.Marshal(results)
		if err != nil {
			return nil, fmt.Errorf("encode tool calls: %w", err)
		}
		reply.ToolCalls = string(encoded)
	}
	if err := s.persist(context.WithoutCancel(ctx), convID, reply); err != nil {
		return nil, err
	}

	if results == nil {
		results = []domain.ToolResult{}
	}
	s.logger.Info("chat completed",
		"conversation", convID,
		"tool_calls", len(results),
		"duration", time.Since(start),
	)
	return &domain.ChatResponse{ConversationID: convID, Text: text, ToolCalls: results}, nil
}

// generate holds a generation slot for the model call only. Tool dispatch
// runs outside it.
func (s *ChatService) generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for generation slot: %w", err)
	}
	defer s.sem.Release(1)
	metrics.ActiveChats.Inc()
	defer metrics.ActiveChats.Dec()

	start := time.Now()
	out, err := s.generator.Generate(ctx, prompt, opts)
	metrics.ModelLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

// openConversation returns the ID to store turns under, creating a
// conversation when the request does not name one.
func (s *ChatService) openConversation(ctx context.Context, req domain.ChatRequest) (string, error) {
	if req.ConversationID != "" {
		if s.store == nil {
			return req.ConversationID, nil
		}
		if _, err := s.store.GetConversation(ctx, req.ConversationID); err != nil {
			return "", err
		}
		return req.ConversationID, nil
	}

	id := uuid.NewString()
	if s.store == nil {
		return id, nil
	}
	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        id,
		Title:     conversationTitle(req.Messages),
		Model:     s.generator.Name(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

func (s *ChatService) persist(ctx context.Context, convID string, msg domain.MessageRecord) error {
	if s.store == nil {
		return nil
	}
	msg.ConversationID = convID
	msg.CreatedAt = time.Now().UTC()
	if err := s.store.AddMessage(ctx, convID, msg); err != nil {
		return fmt.Errorf("save %s message: %w", msg.Role, err)
	}
	return nil
}

func generateOptions(req domain.ChatRequest) domain.GenerateOptions {
	opts := domain.GenerateOptions{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP <= 0 || opts.TopP > 1 {
		opts.TopP = defaultTopP
	}
	return opts
}

// conversationTitle is the first user turn, shortened.
func conversationTitle(turns []domain.Turn) string {
	for _, t := range turns {
		if t.Role != "user" {
			continue
		}
		title := strings.Join(strings.Fields(t.Text), " ")
		if utf8.RuneCountInString(title) > titleMaxChars {
			title = string([]rune(title)[:titleMaxChars]) + "..."
		}
		return title
	}
	return "New conversation"
}
