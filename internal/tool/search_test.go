package tool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"toolchat/internal/domain"
)

func searchServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSearch_Abstract(t *testing.T) {
	srv := searchServer(t, http.StatusOK, `{"AbstractText":"Go is a programming language.","RelatedTopics":[{"Text":"other"}]}`)
	out, err := NewWebSearchTool(srv.URL, time.Second).Execute(context.Background(), map[string]string{"query": "golang"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, `Result for "golang"`) || !strings.Contains(out, "Go is a programming language.") {
		t.Fatalf("got %q", out)
	}
}

func TestWebSearch_RelatedTopicFallback(t *testing.T) {
	srv := searchServer(t, http.StatusOK, `{"AbstractText":"","RelatedTopics":[{"Text":"first topic"},{"Text":"second"}]}`)
	out, err := NewWebSearchTool(srv.URL, time.Second).Execute(context.Background(), map[string]string{"query": "x"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "first topic") || strings.Contains(out, "second") {
		t.Fatalf("got %q", out)
	}
}

func TestWebSearch_NoResults(t *testing.T) {
	srv := searchServer(t, http.StatusOK, `{}`)
	out, err := NewWebSearchTool(srv.URL, time.Second).Execute(context.Background(), map[string]string{"query": "zzz"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "No direct results") {
		t.Fatalf("got %q", out)
	}
}

func TestWebSearch_Failures(t *testing.T) {
	bad := searchServer(t, http.StatusOK, `not json`)
	_, err := NewWebSearchTool(bad.URL, time.Second).Execute(context.Background(), map[string]string{"query": "q"})
	if err == nil || !strings.Contains(err.Error(), "parse response") {
		t.Fatalf("expected parse error, got %v", err)
	}

	down := searchServer(t, http.StatusInternalServerError, `oops`)
	_, err = NewWebSearchTool(down.URL, time.Second).Execute(context.Background(), map[string]string{"query": "q"})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend_unavailable, got %v", err)
	}

	_, err = NewWebSearchTool(down.URL, time.Second).Execute(context.Background(), map[string]string{})
	if !errors.Is(err, domain.ErrInputRejected) {
		t.Fatalf("expected input_rejected, got %v", err)
	}
}

func TestWebSearch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewWebSearchTool(srv.URL, 100*time.Millisecond).Execute(context.Background(), map[string]string{"query": "slow"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
