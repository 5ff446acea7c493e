package puzzle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	xerrors "Olympics-Scoring/internal/errors"
	"Olympics-Scoring/internal/observability/alerting"
	"Olympics-Scoring/pkg/logger"
)

// 会话交叉校验只统计最近一小时内的判题记录，最多取 200 条。
const (
	sessionWindow       = time.Hour
	sessionAttemptLimit = 200
)

// 客户端声称分数超过服务端推导分数的这一倍数即视为疑似作弊。
const cheatRatio = 10

// Service 实现谜题的生成、判题、会话提交与排行榜读取。
type Service struct {
	store     Store
	generator Generator
	ephemeral *EphemeralStore
	alerter   alerting.Dispatcher
	log       *slog.Logger
	now       func() time.Time
}

// ServiceOption 配置 Service 的可选项。
type ServiceOption func(*Service)

// WithAlertDispatcher 注入疑似作弊信号的告警分发器。
func WithAlertDispatcher(d alerting.Dispatcher) ServiceOption {
	return func(s *Service) { s.alerter = d }
}

// WithClock 注入自定义时钟，用于测试。
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService 创建谜题服务。
func NewService(store Store, generator Generator, ephemeral *EphemeralStore, opts ...ServiceOption) *Service {
	if ephemeral == nil {
		ephemeral = NewEphemeralStore()
	}
	s := &Service{
		store:     store,
		generator: generator,
		ephemeral: ephemeral,
		log:       logger.Named("puzzle"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPuzzle 生成一道新谜题并持久化。持久化失败时整体失败，
// 绝不把未落库的谜题发给客户端，否则后续判题无依据。
func (s *Service) NewPuzzle(ctx context.Context, gameType GameType, difficulty Difficulty) (*ClientPuzzle, error) {
	p, err := s.generator.Generate(gameType, difficulty)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertPuzzle(ctx, p); err != nil {
		s.log.Error("谜题落库失败，放弃下发", "game_type", gameType, "error", err)
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "谜题持久化失败")
	}
	return p.ClientView(), nil
}

// CheckAnswer 处理匿名判题。同一谜题最多允许两次匿名尝试，
// 超限直接拒绝，不触碰存储。
func (s *Service) CheckAnswer(ctx context.Context, puzzleID, userAnswer string) CheckResult {
	if s.ephemeral.AttemptExhausted(puzzleID) {
		return CheckResult{Success: false, Error: msgAttemptLimit}
	}

	p, err := s.store.GetPuzzle(ctx, puzzleID)
	if err != nil {
		if xerrors.CodeOf(err) == xerrors.CodeNotFound {
			return CheckResult{Success: false, Error: "Puzzle not found"}
		}
		s.log.Error("匿名判题读取谜题失败", "puzzle_id", puzzleID, "error", err)
		return CheckResult{Success: false, Error: "Puzzle lookup failed"}
	}

	// 只有查到谜题才消耗匿名次数，拼错 ID 不应烧额度。
	s.ephemeral.RecordAttempt(puzzleID)

	correct := answersMatch(p, userAnswer)
	result := CheckResult{Success: true, Correct: correct}
	if correct {
		result.Explanation = p.Explanation
	}
	return result
}

// SubmitAnswer 处理鉴权判题：计算权威耗时、按正误计分并
// 落库判题记录。记录写入失败只降级告警，不阻断响应。
func (s *Service) SubmitAnswer(ctx context.Context, identity Identity, puzzleID, userAnswer string, clientTimeMs int64) SubmitResult {
	if identity.Empty() {
		return SubmitResult{Success: false, Error: "Missing user identity"}
	}

	p, err := s.store.GetPuzzle(ctx, puzzleID)
	if err != nil {
		if xerrors.CodeOf(err) == xerrors.CodeNotFound {
			return SubmitResult{Success: false, Error: "Puzzle not found"}
		}
		s.log.Error("鉴权判题读取谜题失败", "puzzle_id", puzzleID, "error", err)
		return SubmitResult{Success: false, Error: "Puzzle lookup failed"}
	}

	elapsed := s.authoritativeTime(p, clientTimeMs)
	correct := answersMatch(p, userAnswer)
	score := scoreAttempt(p, correct, elapsed)

	attempt := &Attempt{
		ID:            uuid.NewString(),
		UserID:        identity.UserID,
		AgentID:       identity.AgentID,
		PuzzleID:      p.ID,
		GameType:      p.GameType,
		Question:      p.Question,
		UserAnswer:    userAnswer,
		CorrectAnswer: p.CorrectAnswer,
		IsCorrect:     correct,
		Score:         score,
		TimeMs:        elapsed,
		CreatedAt:     s.now().UnixMilli(),
	}
	if err := s.store.InsertAttempt(ctx, attempt); err != nil {
		s.log.Warn("判题记录写入失败", "puzzle_id", p.ID, "user", identity.Key(), "error", err)
	}

	logger.Audit().Info("判题",
		"user", identity.Key(),
		"puzzle_id", p.ID,
		"game_type", p.GameType,
		"correct", correct,
		"score", score,
		"time_ms", elapsed,
	)

	result := SubmitResult{Success: true, Correct: correct, Score: score, TimeMs: elapsed}
	if correct {
		result.Explanation = p.Explanation
	}
	return result
}

// authoritativeTime 取客户端声称耗时与服务端墙钟差值中的较大者，
// 再截断到 [0, 谜题时限]。
func (s *Service) authoritativeTime(p *Puzzle, clientTimeMs int64) int64 {
	elapsed := s.now().UnixMilli() - p.CreatedAt
	if clientTimeMs > elapsed {
		elapsed = clientTimeMs
	}
	if elapsed < 0 {
		elapsed = 0
	}
	limit := int64(p.TimeLimitSeconds) * 1000
	if limit > 0 && elapsed > limit {
		elapsed = limit
	}
	return elapsed
}

// scoreAttempt 计算单次判题得分：答对得基础分乘以剩余时间加成，
// 答错扣基础分的四分之一。
func scoreAttempt(p *Puzzle, correct bool, elapsedMs int64) int {
	if !correct {
		return -int(math.Round(float64(p.Points) * 0.25))
	}
	limit := float64(p.TimeLimitSeconds) * 1000
	bonus := 0.0
	if limit > 0 {
		bonus = (1 - float64(elapsedMs)/limit) * 0.5
		if bonus < 0 {
			bonus = 0
		}
	}
	return int(math.Round(float64(p.Points) * (1 + bonus)))
}

// SubmitSession 处理会话提交：用服务端判题记录交叉校验客户端
// 声称的成绩，提交两者中的较小值，并原子合并进排行榜。
func (s *Service) SubmitSession(ctx context.Context, identity Identity, gameType GameType, clientScore, clientCorrect, attempted int, totalTimeMs int64) (SessionResult, error) {
	if identity.Empty() {
		return SessionResult{}, xerrors.New(xerrors.CodeInvalidArgument, "缺少用户身份")
	}
	if !IsValidGameType(gameType) {
		return SessionResult{}, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("未知的游戏类型: %q", gameType))
	}

	committedScore, committedCorrect, committedAttempted :=
		s.crossValidate(ctx, identity, gameType, clientScore, clientCorrect, attempted)

	update := LeaderboardUpdate{
		GameType:         gameType,
		UserID:           identity.Key(),
		TotalScore:       committedScore,
		PuzzlesAttempted: committedAttempted,
		PuzzlesSolved:    committedCorrect,
		SessionTimeMs:    totalTimeMs,
		PlayedAt:         s.now().UnixMilli(),
	}

	best, err := s.store.UpsertLeaderboard(ctx, update)
	if err != nil {
		s.log.Warn("排行榜原子合并失败，走降级路径", "game_type", gameType, "user", identity.Key(), "error", err)
		best, err = s.fallbackUpsert(ctx, update)
		if err != nil {
			return SessionResult{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "排行榜更新失败")
		}
	}
	s.ephemeral.InvalidateLeaderboard(gameType)

	logger.Audit().Info("会话提交",
		"user", identity.Key(),
		"game_type", gameType,
		"client_score", clientScore,
		"committed_score", committedScore,
		"best_score", best,
	)
	return SessionResult{Success: true, BestScore: best}, nil
}

// crossValidate 用服务端近期判题记录核对客户端声称的成绩。
// 推导失败或无记录时信任客户端（fail-open），仅记录警告。
func (s *Service) crossValidate(ctx context.Context, identity Identity, gameType GameType, clientScore, clientCorrect, attempted int) (score, correct, tried int) {
	since := s.now().Add(-sessionWindow)
	attempts, err := s.store.RecentAttempts(ctx, identity.Key(), gameType, since, sessionAttemptLimit)
	if err != nil {
		s.log.Warn("会话交叉校验推导失败，信任客户端成绩", "user", identity.Key(), "error", err)
		return clientScore, clientCorrect, attempted
	}
	if len(attempts) == 0 {
		s.log.Warn("会话无服务端判题记录，信任客户端成绩", "user", identity.Key(), "game_type", gameType)
		return clientScore, clientCorrect, attempted
	}

	var derivedScore, derivedCorrect int
	for _, attempt := range attempts {
		derivedScore += attempt.Score
		if attempt.IsCorrect {
			derivedCorrect++
		}
	}

	if derivedScore > 0 && clientScore > cheatRatio*derivedScore {
		s.flagSuspectedCheat(ctx, identity, gameType, clientScore, derivedScore)
	}

	score = clientScore
	if derivedScore < score {
		score = derivedScore
	}
	correct = clientCorrect
	if derivedCorrect < correct {
		correct = derivedCorrect
	}
	tried = attempted
	if len(attempts) < tried {
		tried = len(attempts)
	}
	return score, correct, tried
}

// flagSuspectedCheat 记录疑似作弊信号并广播告警。信号只用于
// 事后审计，绝不阻断本次提交。
func (s *Service) flagSuspectedCheat(ctx context.Context, identity Identity, gameType GameType, clientScore, derivedScore int) {
	logger.Audit().Warn("疑似作弊",
		"user", identity.Key(),
		"game_type", gameType,
		"client_score", clientScore,
		"derived_score", derivedScore,
	)
	if s.alerter == nil {
		return
	}
	event := alerting.Event{
		Code:     xerrors.CodeInvalidArgument,
		Message:  fmt.Sprintf("客户端分数 %d 超过服务端推导分数 %d 的 %d 倍", clientScore, derivedScore, cheatRatio),
		Severity: xerrors.SeverityWarning,
		GameType: string(gameType),
		UserID:   identity.Key(),
		Metadata: map[string]string{
			"client_score":  fmt.Sprintf("%d", clientScore),
			"derived_score": fmt.Sprintf("%d", derivedScore),
		},
		OccurredAt: s.now(),
	}
	if err := s.alerter.Notify(ctx, event); err != nil {
		s.log.Warn("作弊告警发送失败", "user", identity.Key(), "error", err)
	}
}

// fallbackUpsert 是原子 upsert 失败后的读改写降级路径，
// 不保证并发安全，只求尽力保留成绩。
func (s *Service) fallbackUpsert(ctx context.Context, update LeaderboardUpdate) (int, error) {
	entry, err := s.store.GetLeaderboardRow(ctx, update.GameType, update.UserID)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		entry = &LeaderboardEntry{GameType: update.GameType, UserID: update.UserID}
	}
	mergeUpdate(entry, update)
	if err := s.store.PutLeaderboardRow(ctx, entry); err != nil {
		return 0, err
	}
	return entry.TotalScore, nil
}

// Leaderboard 返回指定游戏的排行榜，带短时进程内缓存。
func (s *Service) Leaderboard(ctx context.Context, gameType GameType, limit int) ([]*LeaderboardEntry, error) {
	if !IsValidGameType(gameType) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument,
			fmt.Sprintf("未知的游戏类型: %q", gameType))
	}
	if cached, ok := s.ephemeral.CachedLeaderboard(gameType); ok {
		return cached, nil
	}
	entries, err := s.store.TopLeaderboard(ctx, gameType, limit)
	if err != nil {
		return nil, err
	}
	s.ephemeral.CacheLeaderboard(gameType, entries)
	return entries, nil
}
