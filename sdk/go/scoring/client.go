// Package scoring provides a thin Go client for the scoring engine
// REST API: trace verification, LLM judging, puzzle grading, session
// submission and leaderboard reads.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the scoring engine REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient instantiates a client for the scoring engine API. When httpClient
// is nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// Action is a single recorded agent action inside a trace.
type Action struct {
	Timestamp int64             `json:"timestamp"`
	AgentID   string            `json:"agent_id,omitempty"`
	Type      string            `json:"type"`
	Success   bool              `json:"success"`
	Target    string            `json:"target,omitempty"`
	Value     string            `json:"value,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// VerifyRequest asks the engine to score a recorded action trace.
type VerifyRequest struct {
	TaskType      string   `json:"task_type"`
	AgentID       string   `json:"agent_id,omitempty"`
	Actions       []Action `json:"actions"`
	TimeElapsedMs int64    `json:"time_elapsed_ms"`
	MaxTimeMs     int64    `json:"max_time_ms,omitempty"`
}

// VerifyResult is the deterministic verification outcome.
type VerifyResult struct {
	Valid   bool           `json:"valid"`
	Score   int            `json:"score"`
	Details map[string]any `json:"details"`
}

// JudgeRequest asks the engine to grade a subjective submission.
type JudgeRequest struct {
	TaskType        string `json:"task_type"`
	AgentID         string `json:"agent_id,omitempty"`
	Submission      any    `json:"submission"`
	CompetitorModel string `json:"competitor_model,omitempty"`
	Panel           bool   `json:"panel,omitempty"`
}

// Verdict is an LLM judging outcome.
type Verdict struct {
	Score      int            `json:"score"`
	Breakdown  map[string]int `json:"breakdown,omitempty"`
	Feedback   string         `json:"feedback"`
	JudgeModel string         `json:"judge_model"`
}

// Puzzle is the client-facing puzzle projection. It never carries the
// correct answer or explanation.
type Puzzle struct {
	ID               string   `json:"id"`
	GameType         string   `json:"game_type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	Options          []string `json:"options,omitempty"`
	Hint             string   `json:"hint,omitempty"`
	Points           int      `json:"points"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

// CheckResult is the outcome of an anonymous grading call.
type CheckResult struct {
	Success     bool   `json:"success"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SubmitResult is the outcome of an authenticated grading call.
type SubmitResult struct {
	Success     bool   `json:"success"`
	Correct     bool   `json:"correct"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation,omitempty"`
	TimeMs      int64  `json:"time_ms"`
	Error       string `json:"error,omitempty"`
}

// SessionRequest submits a finished puzzle session.
type SessionRequest struct {
	UserID      string `json:"user_id,omitempty"`
	AgentID     string `json:"agent_id,omitempty"`
	GameType    string `json:"game_type"`
	Score       int    `json:"score"`
	Correct     int    `json:"correct"`
	Attempted   int    `json:"attempted"`
	TotalTimeMs int64  `json:"total_time_ms"`
}

// SessionResult is the committed session outcome.
type SessionResult struct {
	Success   bool `json:"success"`
	BestScore int  `json:"best_score"`
}

// LeaderboardEntry is one aggregated leaderboard row.
type LeaderboardEntry struct {
	GameType          string  `json:"game_type"`
	UserID            string  `json:"user_id"`
	TotalScore        int     `json:"total_score"`
	PuzzlesAttempted  int     `json:"puzzles_attempted"`
	PuzzlesSolved     int     `json:"puzzles_solved"`
	Accuracy          float64 `json:"accuracy"`
	SessionsCompleted int     `json:"sessions_completed"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scoring api error (%d): %s", e.StatusCode, e.Message)
}

// Verify scores a recorded action trace.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (VerifyResult, error) {
	var result VerifyResult
	err := c.post(ctx, "/api/v1/verify", req, &result)
	return result, err
}

// Judge grades a subjective submission with a single judge or a panel.
func (c *Client) Judge(ctx context.Context, req JudgeRequest) (Verdict, error) {
	var verdict Verdict
	err := c.post(ctx, "/api/v1/judge", req, &verdict)
	return verdict, err
}

// NewPuzzle requests a freshly generated puzzle.
func (c *Client) NewPuzzle(ctx context.Context, gameType, difficulty string) (Puzzle, error) {
	endpoint := fmt.Sprintf("/api/v1/puzzles?game_type=%s&difficulty=%s",
		url.QueryEscape(gameType), url.QueryEscape(difficulty))
	var puzzle Puzzle
	err := c.get(ctx, endpoint, &puzzle)
	return puzzle, err
}

// CheckAnswer grades an answer anonymously.
func (c *Client) CheckAnswer(ctx context.Context, puzzleID, answer string) (CheckResult, error) {
	var result CheckResult
	err := c.post(ctx, "/api/v1/puzzles/check", map[string]string{
		"puzzle_id": puzzleID,
		"answer":    answer,
	}, &result)
	return result, err
}

// SubmitAnswer grades an answer for an authenticated identity.
func (c *Client) SubmitAnswer(ctx context.Context, userID, puzzleID, answer string, timeMs int64) (SubmitResult, error) {
	var result SubmitResult
	err := c.post(ctx, "/api/v1/puzzles/submit", map[string]any{
		"user_id":   userID,
		"puzzle_id": puzzleID,
		"answer":    answer,
		"time_ms":   timeMs,
	}, &result)
	return result, err
}

// SubmitSession commits a finished session to the leaderboard.
func (c *Client) SubmitSession(ctx context.Context, req SessionRequest) (SessionResult, error) {
	var result SessionResult
	err := c.post(ctx, "/api/v1/sessions", req, &result)
	return result, err
}

// Leaderboard fetches the top rows for a game type.
func (c *Client) Leaderboard(ctx context.Context, gameType string, limit int) ([]LeaderboardEntry, error) {
	endpoint := fmt.Sprintf("/api/v1/leaderboard?game_type=%s&limit=%d",
		url.QueryEscape(gameType), limit)
	var entries []LeaderboardEntry
	err := c.get(ctx, endpoint, &entries)
	return entries, err
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, parsed.Path), RawQuery: parsed.RawQuery}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("read error response: %w", readErr)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
