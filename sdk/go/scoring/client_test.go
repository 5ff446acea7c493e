package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/verify" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.TaskType != "math" || len(req.Actions) != 2 {
			t.Fatalf("request payload mismatch: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(VerifyResult{Valid: true, Score: 600})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	result, err := client.Verify(context.Background(), VerifyRequest{
		TaskType: "math",
		Actions: []Action{
			{Type: "submit", Success: true},
			{Type: "submit", Success: true},
		},
		TimeElapsedMs: 1000,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.Valid || result.Score != 600 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestNewPuzzleQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/puzzles" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("game_type"); got != "word" {
			t.Fatalf("game_type = %q", got)
		}
		_ = json.NewEncoder(w).Encode(Puzzle{ID: "p1", GameType: "word", Question: "Unscramble: VRIER"})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	puzzle, err := client.NewPuzzle(context.Background(), "word", "easy")
	if err != nil {
		t.Fatalf("new puzzle: %v", err)
	}
	if puzzle.ID != "p1" {
		t.Fatalf("unexpected puzzle: %+v", puzzle)
	}
}

func TestAPIErrorSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "未知的游戏类型", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Leaderboard(context.Background(), "chess", 10)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected an APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
}
