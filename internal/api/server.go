package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	xerrors "Olympics-Scoring/internal/errors"
	"Olympics-Scoring/internal/judge"
	"Olympics-Scoring/internal/observability/metrics"
	"Olympics-Scoring/internal/puzzle"
	"Olympics-Scoring/internal/results"
	"Olympics-Scoring/internal/verifier"
)

// Server 负责暴露 REST 接口：确定性校验、LLM 评审与谜题服务。
type Server struct {
	addr      string
	judges    *judge.Service
	puzzles   *puzzle.Service
	publisher results.Publisher
}

// NewServer 构造 API 服务实例。publisher 可以为 nil，表示不投递
// 成绩事件。
func NewServer(addr string, judges *judge.Service, puzzles *puzzle.Service, publisher results.Publisher) *Server {
	return &Server{addr: addr, judges: judges, puzzles: puzzles, publisher: publisher}
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Routes 返回带指标采集的路由表。
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/verify", s.instrument("verify", s.handleVerify))
	mux.HandleFunc("/api/v1/judge", s.instrument("judge", s.handleJudge))
	mux.HandleFunc("/api/v1/puzzles", s.instrument("puzzles", s.handleNewPuzzle))
	mux.HandleFunc("/api/v1/puzzles/check", s.instrument("puzzle_check", s.handleCheckAnswer))
	mux.HandleFunc("/api/v1/puzzles/submit", s.instrument("puzzle_submit", s.handleSubmitAnswer))
	mux.HandleFunc("/api/v1/sessions", s.instrument("sessions", s.handleSubmitSession))
	mux.HandleFunc("/api/v1/leaderboard", s.instrument("leaderboard", s.handleLeaderboard))
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(handler string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		metrics.ObserveHTTPRequest(handler, r.Method, recorder.status, time.Since(start))
	}
}

// VerifyRequest 是确定性校验接口的请求体。
type VerifyRequest struct {
	TaskType      string                  `json:"task_type"`
	AgentID       string                  `json:"agent_id,omitempty"`
	Actions       []verifier.ActionRecord `json:"actions"`
	TimeElapsedMs int64                   `json:"time_elapsed_ms"`
	MaxTimeMs     int64                   `json:"max_time_ms,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}

	result := verifier.Verify(verifier.TaskType(req.TaskType), req.Actions, req.TimeElapsedMs, req.MaxTimeMs)
	s.publishEvent(r.Context(), func(event *results.Event) {
		event.Kind = results.KindVerification
		event.TaskType = req.TaskType
		event.AgentID = req.AgentID
		event.Score = result.Score
		event.Valid = result.Valid
		event.Details = result.Details
	})
	writeJSON(w, http.StatusOK, result)
}

// JudgeRequest 是 LLM 评审接口的请求体。
type JudgeRequest struct {
	TaskType        string `json:"task_type"`
	AgentID         string `json:"agent_id,omitempty"`
	Submission      any    `json:"submission"`
	CompetitorModel string `json:"competitor_model,omitempty"`
	Panel           bool   `json:"panel,omitempty"`
}

func (s *Server) handleJudge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.judges == nil {
		http.Error(w, "评审服务未初始化", http.StatusServiceUnavailable)
		return
	}

	var req JudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}

	var verdict judge.Verdict
	if req.Panel {
		verdict = s.judges.Panel(r.Context(), req.TaskType, req.Submission)
	} else {
		verdict = s.judges.Judge(r.Context(), req.TaskType, req.Submission, req.CompetitorModel)
	}
	s.publishEvent(r.Context(), func(event *results.Event) {
		event.Kind = results.KindJudgement
		event.TaskType = req.TaskType
		event.AgentID = req.AgentID
		event.Score = verdict.Score
		event.Valid = true
		event.JudgeModel = verdict.JudgeModel
	})
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleNewPuzzle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.puzzles == nil {
		http.Error(w, "谜题服务未初始化", http.StatusServiceUnavailable)
		return
	}

	gameType := puzzle.GameType(r.URL.Query().Get("game_type"))
	difficulty := puzzle.Difficulty(r.URL.Query().Get("difficulty"))

	client, err := s.puzzles.NewPuzzle(r.Context(), gameType, difficulty)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// CheckRequest 是匿名判题接口的请求体。
type CheckRequest struct {
	PuzzleID string `json:"puzzle_id"`
	Answer   string `json:"answer"`
}

func (s *Server) handleCheckAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.puzzles == nil {
		http.Error(w, "谜题服务未初始化", http.StatusServiceUnavailable)
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.puzzles.CheckAnswer(r.Context(), req.PuzzleID, req.Answer))
}

// SubmitRequest 是鉴权判题接口的请求体。
type SubmitRequest struct {
	UserID   string `json:"user_id,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
	PuzzleID string `json:"puzzle_id"`
	Answer   string `json:"answer"`
	TimeMs   int64  `json:"time_ms"`
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.puzzles == nil {
		http.Error(w, "谜题服务未初始化", http.StatusServiceUnavailable)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	identity := puzzle.Identity{UserID: req.UserID, AgentID: req.AgentID}
	writeJSON(w, http.StatusOK, s.puzzles.SubmitAnswer(r.Context(), identity, req.PuzzleID, req.Answer, req.TimeMs))
}

// SessionRequest 是会话提交接口的请求体。
type SessionRequest struct {
	UserID      string `json:"user_id,omitempty"`
	AgentID     string `json:"agent_id,omitempty"`
	GameType    string `json:"game_type"`
	Score       int    `json:"score"`
	Correct     int    `json:"correct"`
	Attempted   int    `json:"attempted"`
	TotalTimeMs int64  `json:"total_time_ms"`
}

func (s *Server) handleSubmitSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.puzzles == nil {
		http.Error(w, "谜题服务未初始化", http.StatusServiceUnavailable)
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}
	identity := puzzle.Identity{UserID: req.UserID, AgentID: req.AgentID}
	result, err := s.puzzles.SubmitSession(r.Context(), identity, puzzle.GameType(req.GameType),
		req.Score, req.Correct, req.Attempted, req.TotalTimeMs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.publishEvent(r.Context(), func(event *results.Event) {
		event.Kind = results.KindSession
		event.GameType = req.GameType
		event.UserID = req.UserID
		event.AgentID = req.AgentID
		event.Score = result.BestScore
		event.Valid = true
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.puzzles == nil {
		http.Error(w, "谜题服务未初始化", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	gameType := puzzle.GameType(r.URL.Query().Get("game_type"))
	entries, err := s.puzzles.Leaderboard(r.Context(), gameType, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*puzzle.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// publishEvent 构造并投递一条成绩事件，投递失败不影响响应。
func (s *Server) publishEvent(ctx context.Context, fill func(*results.Event)) {
	if s.publisher == nil {
		return
	}
	event := results.NewEvent("")
	fill(&event)
	_ = s.publisher.Publish(ctx, event)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeServiceError 按错误码映射 HTTP 状态。
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch xerrors.CodeOf(err) {
	case xerrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case xerrors.CodeNotFound:
		status = http.StatusNotFound
	case xerrors.CodeStorageFailure:
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
