package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"toolchat/internal/domain"
)

const (
	defaultSearchTimeout  = 5 * time.Second
	defaultSearchEndpoint = "https://api.duckduckgo.com/"
	searchMaxBytes        = 512 * 1024
	userAgentString       = "toolchat/0.1"
)

// WebSearchTool queries the DuckDuckGo Instant Answer API.
type WebSearchTool struct {
	endpoint string
	client   *http.Client
}

// NewWebSearchTool builds the tool. An empty endpoint or zero timeout
// selects the defaults.
func NewWebSearchTool(endpoint string, timeout time.Duration) *WebSearchTool {
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	return &WebSearchTool{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }
func (t *WebSearchTool) Description() string {
	return "Search the web for a short factual answer. Args: query"
}
func (t *WebSearchTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"query": {Type: "string", Description: "Search query to look up on the web"},
		},
		[]string{"query"},
	)
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	query, err := requireArg(args, "query")
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1", t.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgentString)

	resp, err := t.client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return "", domain.TimedOut("search for %q exceeded %s", query, t.client.Timeout)
		}
		return "", domain.Unavailable(fmt.Errorf("search request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.Unavailable(fmt.Errorf("search service returned HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, searchMaxBytes))
	if err != nil {
		return "", domain.Unavailable(fmt.Errorf("read response: %w", err))
	}

	var ddg ddgResponse
	if err := json.Unmarshal(body, &ddg); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if text := ddg.summary(); text != "" {
		return fmt.Sprintf("Result for %q:\n%s", query, text), nil
	}
	return fmt.Sprintf("No direct results for %q. Try a different query.", query), nil
}

// DuckDuckGo response types
type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	Abstract      string     `json:"Abstract"`
	Heading       string     `json:"Heading"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

// summary prefers the abstract and falls back to the first related topic.
func (r ddgResponse) summary() string {
	if r.AbstractText != "" {
		return r.AbstractText
	}
	if r.Abstract != "" {
		return r.Abstract
	}
	if len(r.RelatedTopics) > 0 {
		return r.RelatedTopics[0].Text
	}
	return ""
}
