package puzzle

import (
	"context"
	"database/sql"
	"encoding/json"
	stdErrors "errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	xerrors "Olympics-Scoring/internal/errors"
)

// MySQLStore 使用 MySQL 持久化谜题、判题记录与排行榜。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 创建连接池并初始化数据表。
func NewMySQLStore(dsn string, maxOpen, maxIdle int) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 MySQL 失败")
	}

	if maxOpen <= 0 {
		maxOpen = 20
	}
	if maxIdle <= 0 {
		maxIdle = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) initSchema() error {
	statements := []struct {
		name   string
		schema string
	}{
		{"puzzles", `CREATE TABLE IF NOT EXISTS puzzles (
        id VARCHAR(64) PRIMARY KEY,
        game_type VARCHAR(32) NOT NULL,
        difficulty VARCHAR(16) NOT NULL,
        question TEXT NOT NULL,
        options TEXT,
        correct_answer TEXT NOT NULL,
        explanation TEXT,
        hint TEXT,
        points INT NOT NULL,
        time_limit_seconds INT NOT NULL,
        created_at BIGINT NOT NULL,
        INDEX idx_puzzle_game (game_type, created_at)
)`},
		{"puzzle_attempts", `CREATE TABLE IF NOT EXISTS puzzle_attempts (
        id VARCHAR(64) PRIMARY KEY,
        user_id VARCHAR(128) DEFAULT '',
        agent_id VARCHAR(128) DEFAULT '',
        puzzle_id VARCHAR(64) NOT NULL,
        game_type VARCHAR(32) NOT NULL,
        question TEXT NOT NULL,
        user_answer TEXT NOT NULL,
        correct_answer TEXT NOT NULL,
        is_correct TINYINT(1) NOT NULL,
        score INT NOT NULL,
        time_ms BIGINT NOT NULL,
        created_at BIGINT NOT NULL,
        INDEX idx_attempt_user (user_id, game_type, created_at),
        INDEX idx_attempt_agent (agent_id, game_type, created_at)
)`},
		{"leaderboard", `CREATE TABLE IF NOT EXISTS leaderboard (
        game_type VARCHAR(32) NOT NULL,
        user_id VARCHAR(128) NOT NULL,
        total_score INT NOT NULL DEFAULT 0,
        puzzles_attempted INT NOT NULL DEFAULT 0,
        puzzles_solved INT NOT NULL DEFAULT 0,
        accuracy DOUBLE NOT NULL DEFAULT 0,
        average_time_ms BIGINT NOT NULL DEFAULT 0,
        sessions_completed INT NOT NULL DEFAULT 0,
        last_played_at BIGINT NOT NULL DEFAULT 0,
        PRIMARY KEY (game_type, user_id),
        INDEX idx_board_rank (game_type, total_score DESC)
)`},
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt.schema); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化 "+stmt.name+" 表失败")
		}
	}
	return nil
}

// InsertPuzzle 插入一道新谜题。
func (s *MySQLStore) InsertPuzzle(ctx context.Context, p *Puzzle) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "谜题 ID 不能为空")
	}

	options, err := marshalOptions(p.Options)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "编码谜题选项失败")
	}

	const stmt = `INSERT INTO puzzles
        (id, game_type, difficulty, question, options, correct_answer, explanation, hint, points, time_limit_seconds, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, stmt,
		p.ID,
		string(p.GameType),
		string(p.Difficulty),
		p.Question,
		options,
		p.CorrectAnswer,
		p.Explanation,
		p.Hint,
		p.Points,
		p.TimeLimitSeconds,
		p.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrPuzzleConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "插入谜题失败")
	}
	return nil
}

// GetPuzzle 按 ID 查询谜题。
func (s *MySQLStore) GetPuzzle(ctx context.Context, id string) (*Puzzle, error) {
	const stmt = `SELECT id, game_type, difficulty, question, options, correct_answer, explanation, hint, points, time_limit_seconds, created_at
        FROM puzzles WHERE id = ?`

	row := s.db.QueryRowContext(ctx, stmt, id)

	var p Puzzle
	var gameType, difficulty, options string
	err := row.Scan(&p.ID, &gameType, &difficulty, &p.Question, &options,
		&p.CorrectAnswer, &p.Explanation, &p.Hint, &p.Points, &p.TimeLimitSeconds, &p.CreatedAt)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, ErrPuzzleNotFound
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询谜题失败")
	}
	p.GameType = GameType(gameType)
	p.Difficulty = Difficulty(difficulty)
	if p.Options, err = unmarshalOptions(options); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析谜题选项失败")
	}
	return &p, nil
}

// InsertAttempt 追加一条判题记录。
func (s *MySQLStore) InsertAttempt(ctx context.Context, attempt *Attempt) error {
	if attempt == nil || strings.TrimSpace(attempt.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "判题记录 ID 不能为空")
	}

	const stmt = `INSERT INTO puzzle_attempts
        (id, user_id, agent_id, puzzle_id, game_type, question, user_answer, correct_answer, is_correct, score, time_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		attempt.ID,
		attempt.UserID,
		attempt.AgentID,
		attempt.PuzzleID,
		string(attempt.GameType),
		attempt.Question,
		attempt.UserAnswer,
		attempt.CorrectAnswer,
		attempt.IsCorrect,
		attempt.Score,
		attempt.TimeMs,
		attempt.CreatedAt,
	)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "插入判题记录失败")
	}
	return nil
}

// RecentAttempts 查询指定身份的近期判题记录。
func (s *MySQLStore) RecentAttempts(ctx context.Context, userKey string, gameType GameType, since time.Time, limit int) ([]*Attempt, error) {
	if limit <= 0 {
		limit = 200
	}

	const stmt = `SELECT id, user_id, agent_id, puzzle_id, game_type, question, user_answer, correct_answer, is_correct, score, time_ms, created_at
        FROM puzzle_attempts
        WHERE (user_id = ? OR agent_id = ?) AND game_type = ? AND created_at >= ?
        ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, stmt, userKey, userKey, string(gameType), since.UnixMilli(), limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询判题记录失败")
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		var attempt Attempt
		var game string
		if err := rows.Scan(&attempt.ID, &attempt.UserID, &attempt.AgentID, &attempt.PuzzleID, &game,
			&attempt.Question, &attempt.UserAnswer, &attempt.CorrectAnswer,
			&attempt.IsCorrect, &attempt.Score, &attempt.TimeMs, &attempt.CreatedAt); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析判题记录失败")
		}
		attempt.GameType = GameType(game)
		attempts = append(attempts, &attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历判题记录失败")
	}
	return attempts, nil
}

// UpsertLeaderboard 在单条语句内原子地合并排行榜增量：
// 累计分取较大者，计数字段做加法，避免读改写竞态。
// average_time_ms 的滚动平均依赖赋值顺序：必须排在
// sessions_completed 自增之前，此时读到的还是旧场次数。
func (s *MySQLStore) UpsertLeaderboard(ctx context.Context, update LeaderboardUpdate) (int, error) {
	const stmt = `INSERT INTO leaderboard
        (game_type, user_id, total_score, puzzles_attempted, puzzles_solved, accuracy, average_time_ms, sessions_completed, last_played_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
        ON DUPLICATE KEY UPDATE
        total_score = GREATEST(total_score, VALUES(total_score)),
        puzzles_attempted = puzzles_attempted + VALUES(puzzles_attempted),
        puzzles_solved = puzzles_solved + VALUES(puzzles_solved),
        accuracy = IF(puzzles_attempted > 0, puzzles_solved / puzzles_attempted, 0),
        average_time_ms = IF(VALUES(average_time_ms) > 0,
            ROUND((average_time_ms * sessions_completed + VALUES(average_time_ms)) / (sessions_completed + 1)),
            average_time_ms),
        sessions_completed = sessions_completed + 1,
        last_played_at = GREATEST(last_played_at, VALUES(last_played_at))`

	var accuracy float64
	if update.PuzzlesAttempted > 0 {
		accuracy = float64(update.PuzzlesSolved) / float64(update.PuzzlesAttempted)
	}

	_, err := s.db.ExecContext(ctx, stmt,
		string(update.GameType),
		update.UserID,
		update.TotalScore,
		update.PuzzlesAttempted,
		update.PuzzlesSolved,
		accuracy,
		update.SessionTimeMs,
		update.PlayedAt,
	)
	if err != nil {
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "合并排行榜失败")
	}

	var total int
	err = s.db.QueryRowContext(ctx,
		`SELECT total_score FROM leaderboard WHERE game_type = ? AND user_id = ?`,
		string(update.GameType), update.UserID).Scan(&total)
	if err != nil {
		return 0, xerrors.Wrap(xerrors.CodeStorageFailure, err, "回读排行榜失败")
	}
	return total, nil
}

// GetLeaderboardRow 读取单行，不存在返回 nil。
func (s *MySQLStore) GetLeaderboardRow(ctx context.Context, gameType GameType, userID string) (*LeaderboardEntry, error) {
	const stmt = `SELECT game_type, user_id, total_score, puzzles_attempted, puzzles_solved, accuracy, average_time_ms, sessions_completed, last_played_at
        FROM leaderboard WHERE game_type = ? AND user_id = ?`

	row := s.db.QueryRowContext(ctx, stmt, string(gameType), userID)
	entry, err := scanLeaderboardRow(row.Scan)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询排行榜行失败")
	}
	return entry, nil
}

// PutLeaderboardRow 整行覆盖写，仅用于降级路径。
func (s *MySQLStore) PutLeaderboardRow(ctx context.Context, entry *LeaderboardEntry) error {
	const stmt = `REPLACE INTO leaderboard
        (game_type, user_id, total_score, puzzles_attempted, puzzles_solved, accuracy, average_time_ms, sessions_completed, last_played_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		string(entry.GameType),
		entry.UserID,
		entry.TotalScore,
		entry.PuzzlesAttempted,
		entry.PuzzlesSolved,
		entry.Accuracy,
		entry.AverageTimeMs,
		entry.SessionsCompleted,
		entry.LastPlayedAt,
	)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "覆盖排行榜行失败")
	}
	return nil
}

// TopLeaderboard 查询指定游戏的排行榜前若干行。
func (s *MySQLStore) TopLeaderboard(ctx context.Context, gameType GameType, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	const stmt = `SELECT game_type, user_id, total_score, puzzles_attempted, puzzles_solved, accuracy, average_time_ms, sessions_completed, last_played_at
        FROM leaderboard WHERE game_type = ? ORDER BY total_score DESC, user_id ASC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, stmt, string(gameType), limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询排行榜失败")
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		entry, err := scanLeaderboardRow(rows.Scan)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析排行榜行失败")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历排行榜失败")
	}
	return entries, nil
}

// Close 关闭底层数据库连接。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanLeaderboardRow(scan func(dest ...any) error) (*LeaderboardEntry, error) {
	var entry LeaderboardEntry
	var gameType string
	if err := scan(&gameType, &entry.UserID, &entry.TotalScore, &entry.PuzzlesAttempted,
		&entry.PuzzlesSolved, &entry.Accuracy, &entry.AverageTimeMs,
		&entry.SessionsCompleted, &entry.LastPlayedAt); err != nil {
		return nil, err
	}
	entry.GameType = GameType(gameType)
	return &entry, nil
}

func marshalOptions(options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func unmarshalOptions(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, err
	}
	return options, nil
}
