package puzzle

import (
	xerrors "Olympics-Scoring/internal/errors"
)

// GameType 枚举了谜题游戏类型。
type GameType string

const (
	GameMath   GameType = "math"
	GameTrivia GameType = "trivia"
	GameWord   GameType = "word"
	GameLogic  GameType = "logic"
)

// IsValidGameType 检查给定的游戏类型是否为支持的枚举值。
func IsValidGameType(gameType GameType) bool {
	switch gameType {
	case GameMath, GameTrivia, GameWord, GameLogic:
		return true
	default:
		return false
	}
}

// GameTypes 返回所有支持的游戏类型，顺序固定。
func GameTypes() []GameType {
	return []GameType{GameMath, GameTrivia, GameWord, GameLogic}
}

// Difficulty 表示谜题难度档位。
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Puzzle 是谜题的完整内部表示。CorrectAnswer 与 Explanation
// 绝不允许出现在面向客户端的投影中。
type Puzzle struct {
	ID               string     `json:"id"`
	GameType         GameType   `json:"game_type"`
	Difficulty       Difficulty `json:"difficulty"`
	Question         string     `json:"question"`
	Options          []string   `json:"options,omitempty"`
	CorrectAnswer    string     `json:"correct_answer"`
	Explanation      string     `json:"explanation"`
	Hint             string     `json:"hint,omitempty"`
	Points           int        `json:"points"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	CreatedAt        int64      `json:"created_at"`
}

// ClientPuzzle 是谜题的对外投影，已剥离答案与解析。
type ClientPuzzle struct {
	ID               string     `json:"id"`
	GameType         GameType   `json:"game_type"`
	Difficulty       Difficulty `json:"difficulty"`
	Question         string     `json:"question"`
	Options          []string   `json:"options,omitempty"`
	Hint             string     `json:"hint,omitempty"`
	Points           int        `json:"points"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	CreatedAt        int64      `json:"created_at"`
}

// ClientView 返回剥离了 CorrectAnswer 与 Explanation 的投影。
func (p *Puzzle) ClientView() *ClientPuzzle {
	if p == nil {
		return nil
	}
	return &ClientPuzzle{
		ID:               p.ID,
		GameType:         p.GameType,
		Difficulty:       p.Difficulty,
		Question:         p.Question,
		Options:          append([]string(nil), p.Options...),
		Hint:             p.Hint,
		Points:           p.Points,
		TimeLimitSeconds: p.TimeLimitSeconds,
		CreatedAt:        p.CreatedAt,
	}
}

// Attempt 是一次判题的只追加记录。答案在判题时刻被复制进来，
// 后续任何谜题修改都不会追溯性地改写历史。
type Attempt struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id,omitempty"`
	AgentID       string   `json:"agent_id,omitempty"`
	PuzzleID      string   `json:"puzzle_id"`
	GameType      GameType `json:"game_type"`
	Question      string   `json:"question"`
	UserAnswer    string   `json:"user_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	IsCorrect     bool     `json:"is_correct"`
	Score         int      `json:"score"`
	TimeMs        int64    `json:"time_ms"`
	CreatedAt     int64    `json:"created_at"`
}

// LeaderboardEntry 是排行榜中单个身份的聚合行，只能通过原子
// upsert 修改。
type LeaderboardEntry struct {
	GameType          GameType `json:"game_type"`
	UserID            string   `json:"user_id"`
	TotalScore        int      `json:"total_score"`
	PuzzlesAttempted  int      `json:"puzzles_attempted"`
	PuzzlesSolved     int      `json:"puzzles_solved"`
	Accuracy          float64  `json:"accuracy"`
	AverageTimeMs     int64    `json:"average_time_ms"`
	SessionsCompleted int      `json:"sessions_completed"`
	LastPlayedAt      int64    `json:"last_played_at"`
}

// Identity 标识一次鉴权后的判题主体：用户或智能体。
type Identity struct {
	UserID  string `json:"user_id,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
}

// Empty 判断身份是否缺失。
func (i Identity) Empty() bool {
	return i.UserID == "" && i.AgentID == ""
}

// Key 返回用于聚合的稳定键，优先用户。
func (i Identity) Key() string {
	if i.UserID != "" {
		return i.UserID
	}
	return i.AgentID
}

// CheckResult 是匿名判题的结果。Explanation 仅在答对时返回，
// 防止靠重复猜错刮取解析。
type CheckResult struct {
	Success     bool   `json:"success"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SubmitResult 是鉴权判题的结果。
type SubmitResult struct {
	Success     bool   `json:"success"`
	Correct     bool   `json:"correct"`
	Score       int    `json:"score"`
	Explanation string `json:"explanation,omitempty"`
	TimeMs      int64  `json:"time_ms"`
	Error       string `json:"error,omitempty"`
}

// SessionResult 是会话提交的结果。
type SessionResult struct {
	Success   bool `json:"success"`
	BestScore int  `json:"best_score"`
}

var (
	// ErrPuzzleNotFound 表示指定的谜题不存在。
	ErrPuzzleNotFound = xerrors.New(xerrors.CodeNotFound, "puzzle not found")
	// ErrPuzzleConflict 表示谜题 ID 冲突。
	ErrPuzzleConflict = xerrors.New(xerrors.CodeInvalidArgument, "puzzle id conflict")
)

// 对外契约文案，调用方按字面匹配。
const msgAttemptLimit = "Maximum attempts reached for this puzzle"
