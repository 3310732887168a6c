// Package channel exposes the chat service over HTTP and WebSocket.
package channel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"toolchat/internal/agent"
	"toolchat/internal/domain"
	"toolchat/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxBodySize        = 1 << 20 // 1MB
	healthProbeTimeout = 3 * time.Second
	defaultHistory     = 100
)

// Chatter is the chat service as seen by the transports.
type Chatter interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	Tools() []domain.ToolInfo
}

// conversationLister is implemented by stores that can enumerate conversations.
type conversationLister interface {
	ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error)
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
	Chat           Chatter
	Model          domain.Generator
	Store          domain.ConversationStore // optional
	Logger         *slog.Logger
}

// HTTPServer serves the JSON API, the WebSocket endpoint and /metrics.
type HTTPServer struct {
	addr    string
	origins []string
	chat    Chatter
	model   domain.Generator
	store   domain.ConversationStore
	logger  *slog.Logger
	server  *http.Server
	ws      *WebSocketHandler
}

func NewHTTPServer(cfg HTTPConfig) *HTTPServer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = "0.0.0.0:8000"
	}
	s := &HTTPServer{
		addr:    cfg.Addr,
		origins: cfg.AllowedOrigins,
		chat:    cfg.Chat,
		model:   cfg.Model,
		store:   cfg.Store,
		logger:  cfg.Logger,
	}
	s.ws = NewWebSocketHandler(cfg.Chat, cfg.AllowedOrigins, cfg.Logger)
	return s
}

// Handler returns the complete middleware-wrapped router.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tools", s.handleTools)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.Handle("GET /api/chat/ws", s.ws)
	mux.HandleFunc("GET /api/conversations", s.handleConversations)
	mux.HandleFunc("GET /api/conversations/{id}/messages", s.handleMessages)
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())
	return otelhttp.NewHandler(s.logRequests(s.cors(mux)), "toolchat.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      150 * time.Second, // allow time for model generation
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("HTTP API started", "addr", "http://"+s.addr, "origins", s.origins)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.ws.CloseAll()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) handleHealth(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	modelLoaded := false
	if s.model != nil {
		if err := s.model.Healthy(ctx); err != nil {
			s.logger.Debug("model health check failed", "err", err)
		} else {
			modelLoaded = true
		}
	}

	database := "disabled"
	if s.store != nil {
		database = "connected"
		if err := s.store.Ping(ctx); err != nil {
			database = "error"
		}
	}

	tools := s.chat.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"status":          "ok",
		"model_loaded":    modelLoaded,
		"database":        database,
		"mcp_tools":       len(tools),
		"available_tools": names,
	})
}

type toolEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *HTTPServer) handleTools(rw http.ResponseWriter, r *http.Request) {
	tools := s.chat.Tools()
	out := make([]toolEntry, len(tools))
	for i, t := range tools {
		out[i] = toolEntry{Name: t.Name, Description: t.Description}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"tools": out})
}

func (s *HTTPServer) handleChat(rw http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(rw, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(rw, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(rw, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	var req domain.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	resp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		writeError(rw, chatErrorStatus(err), err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, resp)
}

// chatErrorStatus maps chat service errors onto HTTP status codes.
func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, agent.ErrNoMessages):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *HTTPServer) handleConversations(rw http.ResponseWriter, r *http.Request) {
	lister, ok := s.store.(conversationLister)
	if s.store == nil || !ok {
		writeError(rw, http.StatusNotImplemented, "conversation history is disabled")
		return
	}
	convs, err := lister.ListConversations(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err.Error())
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"conversations": convs})
}

func (s *HTTPServer) handleMessages(rw http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(rw, http.StatusNotImplemented, "conversation history is disabled")
		return
	}
	id := r.PathValue("id")
	if _, err := s.store.GetConversation(r.Context(), id); err != nil {
		writeError(rw, chatErrorStatus(err), err.Error())
		return
	}
	msgs, err := s.store.GetMessages(r.Context(), id, queryInt(r, "limit", defaultHistory))
	if err != nil {
		writeError(rw, http.StatusInternalServerError, err.Error())
		return
	}
	if msgs == nil {
		msgs = []domain.MessageRecord{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"conversation_id": id, "messages": msgs})
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// --- middleware ---

// cors applies the allowed-origins policy and answers preflight requests.
func (s *HTTPServer) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			switch {
			case slices.Contains(s.origins, "*"):
				rw.Header().Set("Access-Control-Allow-Origin", "*")
			case originAllowed(s.origins, origin):
				rw.Header().Set("Access-Control-Allow-Origin", origin)
				rw.Header().Set("Access-Control-Allow-Credentials", "true")
				rw.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			rw.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			rw.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			rw.Header().Set("Access-Control-Max-Age", "600")
			rw.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

// originAllowed reports whether origin is in the list. "*" allows any origin.
func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	return false
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		rw.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", reqID,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}
