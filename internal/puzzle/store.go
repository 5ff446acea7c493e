package puzzle

import (
	"context"
	"time"
)

// LeaderboardUpdate 是一次会话提交产生的排行榜增量。TotalScore
// 是候选累计分，由存储层与已有行取较大者；计数字段做加法累加。
type LeaderboardUpdate struct {
	GameType         GameType
	UserID           string
	TotalScore       int
	PuzzlesAttempted int
	PuzzlesSolved    int
	SessionTimeMs    int64
	PlayedAt         int64
}

// Store 抽象谜题、判题记录与排行榜的持久化接口。
type Store interface {
	// InsertPuzzle 持久化一道新谜题。ID 冲突返回 ErrPuzzleConflict。
	InsertPuzzle(ctx context.Context, p *Puzzle) error
	// GetPuzzle 按 ID 读取谜题。不存在返回 ErrPuzzleNotFound。
	GetPuzzle(ctx context.Context, id string) (*Puzzle, error)
	// InsertAttempt 追加一条判题记录。
	InsertAttempt(ctx context.Context, attempt *Attempt) error
	// RecentAttempts 返回指定身份在指定游戏中 since 之后的判题记录，
	// 按时间倒序，最多 limit 条。
	RecentAttempts(ctx context.Context, userKey string, gameType GameType, since time.Time, limit int) ([]*Attempt, error)
	// UpsertLeaderboard 原子地合并一条排行榜增量并返回合并后的累计分。
	UpsertLeaderboard(ctx context.Context, update LeaderboardUpdate) (int, error)
	// GetLeaderboardRow 读取单行。不存在返回 nil 且无错误。
	GetLeaderboardRow(ctx context.Context, gameType GameType, userID string) (*LeaderboardEntry, error)
	// PutLeaderboardRow 整行覆盖写，仅用于原子 upsert 失败后的降级路径。
	PutLeaderboardRow(ctx context.Context, entry *LeaderboardEntry) error
	// TopLeaderboard 返回指定游戏按累计分倒序的前 limit 行。
	TopLeaderboard(ctx context.Context, gameType GameType, limit int) ([]*LeaderboardEntry, error)
	// Close 释放底层资源。
	Close() error
}
