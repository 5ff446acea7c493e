package puzzle

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore 是 Store 的进程内实现，用于开发与测试。
type MemoryStore struct {
	mu       sync.RWMutex
	puzzles  map[string]*Puzzle
	attempts []*Attempt
	board    map[string]*LeaderboardEntry

	// 测试用的故障注入开关。
	InsertPuzzleErr  error
	InsertAttemptErr error
	RecentErr        error
	UpsertErr        error
}

// NewMemoryStore 创建一个空的内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		puzzles: make(map[string]*Puzzle),
		board:   make(map[string]*LeaderboardEntry),
	}
}

func boardKey(gameType GameType, userID string) string {
	return string(gameType) + "|" + userID
}

// InsertPuzzle 持久化一道谜题，ID 冲突时拒绝。
func (s *MemoryStore) InsertPuzzle(_ context.Context, p *Puzzle) error {
	if s.InsertPuzzleErr != nil {
		return s.InsertPuzzleErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.puzzles[p.ID]; ok {
		return ErrPuzzleConflict
	}
	cloned := *p
	s.puzzles[p.ID] = &cloned
	return nil
}

// GetPuzzle 按 ID 读取谜题。
func (s *MemoryStore) GetPuzzle(_ context.Context, id string) (*Puzzle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.puzzles[id]
	if !ok {
		return nil, ErrPuzzleNotFound
	}
	cloned := *p
	return &cloned, nil
}

// InsertAttempt 追加一条判题记录。
func (s *MemoryStore) InsertAttempt(_ context.Context, attempt *Attempt) error {
	if s.InsertAttemptErr != nil {
		return s.InsertAttemptErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *attempt
	s.attempts = append(s.attempts, &cloned)
	return nil
}

// RecentAttempts 返回指定身份的近期判题记录，按时间倒序。
func (s *MemoryStore) RecentAttempts(_ context.Context, userKey string, gameType GameType, since time.Time, limit int) ([]*Attempt, error) {
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sinceMs := since.UnixMilli()
	var matched []*Attempt
	for _, attempt := range s.attempts {
		if attempt.CreatedAt < sinceMs {
			continue
		}
		if attempt.GameType != gameType {
			continue
		}
		if attempt.UserID != userKey && attempt.AgentID != userKey {
			continue
		}
		cloned := *attempt
		matched = append(matched, &cloned)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt > matched[j].CreatedAt
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// UpsertLeaderboard 合并一条排行榜增量：累计分取较大者，计数累加。
func (s *MemoryStore) UpsertLeaderboard(_ context.Context, update LeaderboardUpdate) (int, error) {
	if s.UpsertErr != nil {
		return 0, s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := boardKey(update.GameType, update.UserID)
	entry, ok := s.board[key]
	if !ok {
		entry = &LeaderboardEntry{GameType: update.GameType, UserID: update.UserID}
		s.board[key] = entry
	}
	mergeUpdate(entry, update)
	return entry.TotalScore, nil
}

// mergeUpdate 将增量合并进排行榜行，两种存储实现共用同一套语义。
// 用时按已完成场次做滚动平均。
func mergeUpdate(entry *LeaderboardEntry, update LeaderboardUpdate) {
	if update.TotalScore > entry.TotalScore {
		entry.TotalScore = update.TotalScore
	}
	entry.PuzzlesAttempted += update.PuzzlesAttempted
	entry.PuzzlesSolved += update.PuzzlesSolved
	entry.SessionsCompleted++
	if entry.PuzzlesAttempted > 0 {
		entry.Accuracy = float64(entry.PuzzlesSolved) / float64(entry.PuzzlesAttempted)
	}
	if update.SessionTimeMs > 0 {
		prior := int64(entry.SessionsCompleted - 1)
		entry.AverageTimeMs = (entry.AverageTimeMs*prior + update.SessionTimeMs) / int64(entry.SessionsCompleted)
	}
	if update.PlayedAt > entry.LastPlayedAt {
		entry.LastPlayedAt = update.PlayedAt
	}
}

// GetLeaderboardRow 读取单行，不存在返回 nil。
func (s *MemoryStore) GetLeaderboardRow(_ context.Context, gameType GameType, userID string) (*LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.board[boardKey(gameType, userID)]
	if !ok {
		return nil, nil
	}
	cloned := *entry
	return &cloned, nil
}

// PutLeaderboardRow 整行覆盖写。
func (s *MemoryStore) PutLeaderboardRow(_ context.Context, entry *LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *entry
	s.board[boardKey(entry.GameType, entry.UserID)] = &cloned
	return nil
}

// TopLeaderboard 返回按累计分倒序的前 limit 行。
func (s *MemoryStore) TopLeaderboard(_ context.Context, gameType GameType, limit int) ([]*LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*LeaderboardEntry
	for _, entry := range s.board {
		if entry.GameType != gameType {
			continue
		}
		cloned := *entry
		entries = append(entries, &cloned)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close 对内存存储是空操作。
func (s *MemoryStore) Close() error { return nil }
