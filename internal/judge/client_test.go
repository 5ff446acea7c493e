package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "Olympics-Scoring/internal/errors"
)

func completionResponse(content string) string {
	return fmt.Sprintf(`{"choices": [{"message": {"content": %q}}]}`, content)
}

func TestHTTPCallerCompletes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization header = %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["model"] != "openai/gpt-4o" {
			t.Fatalf("model = %v", payload["model"])
		}
		if payload["temperature"] != 0.3 {
			t.Fatalf("temperature = %v", payload["temperature"])
		}
		fmt.Fprint(w, completionResponse(`{"score": 700}`))
	}))
	defer server.Close()

	caller, err := NewHTTPCaller(HTTPCallerConfig{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new caller: %v", err)
	}
	text, err := caller.Complete(context.Background(), "openai/gpt-4o", "judge this")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != `{"score": 700}` {
		t.Fatalf("content = %q", text)
	}
}

func TestHTTPCallerSurfacesBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	caller, err := NewHTTPCaller(HTTPCallerConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new caller: %v", err)
	}
	if _, err := caller.Complete(context.Background(), "m", "p"); err == nil {
		t.Fatalf("bad status should be an error")
	}
}

func TestHTTPCallerRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer server.Close()

	caller, err := NewHTTPCaller(HTTPCallerConfig{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new caller: %v", err)
	}
	if _, err := caller.Complete(context.Background(), "m", "p"); err == nil {
		t.Fatalf("empty choices should be an error")
	}
}

type alwaysFailingCaller struct{ calls int }

func (c *alwaysFailingCaller) Complete(context.Context, string, string) (string, error) {
	c.calls++
	return "", fmt.Errorf("upstream down")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &alwaysFailingCaller{}
	caller := NewBreakerCaller(inner, 0)

	for i := 0; i < breakerFailureThreshold; i++ {
		if _, err := caller.Complete(context.Background(), "m", "p"); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}
	callsBefore := inner.calls

	_, err := caller.Complete(context.Background(), "m", "p")
	if err == nil {
		t.Fatalf("open breaker should fail fast")
	}
	if xerrors.CodeOf(err) != xerrors.CodeBreakerOpen {
		t.Fatalf("error code = %v, want breaker-open", xerrors.CodeOf(err))
	}
	if inner.calls != callsBefore {
		t.Fatalf("open breaker must not reach the upstream")
	}
}
