package puzzle

import (
	"sync"
	"time"
)

// 匿名判题的进程内尝试上限。超过后只能走鉴权提交。
const anonymousAttemptCeiling = 2

// 排行榜快照的缓存时长。
const leaderboardCacheTTL = 30 * time.Second

// EphemeralStore 保存不需要持久化的进程内状态：匿名判题的
// 尝试计数与排行榜快照缓存。进程重启后全部清零，这是有意为之，
// 匿名限流只求尽力而为。
type EphemeralStore struct {
	mu       sync.Mutex
	attempts map[string]int
	boards   map[GameType]cachedBoard
	now      func() time.Time
}

type cachedBoard struct {
	entries  []*LeaderboardEntry
	cachedAt time.Time
}

// NewEphemeralStore 创建一个空的进程内状态存储。
func NewEphemeralStore() *EphemeralStore {
	return &EphemeralStore{
		attempts: make(map[string]int),
		boards:   make(map[GameType]cachedBoard),
		now:      time.Now,
	}
}

// AttemptCount 返回指定谜题当前的匿名尝试次数。
func (s *EphemeralStore) AttemptCount(puzzleID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[puzzleID]
}

// RecordAttempt 记录一次匿名尝试并返回记录后的计数。
func (s *EphemeralStore) RecordAttempt(puzzleID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[puzzleID]++
	return s.attempts[puzzleID]
}

// AttemptExhausted 判断指定谜题的匿名尝试是否已达上限。
func (s *EphemeralStore) AttemptExhausted(puzzleID string) bool {
	return s.AttemptCount(puzzleID) >= anonymousAttemptCeiling
}

// CacheLeaderboard 缓存一份排行榜快照。
func (s *EphemeralStore) CacheLeaderboard(gameType GameType, entries []*LeaderboardEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[gameType] = cachedBoard{entries: entries, cachedAt: s.now()}
}

// CachedLeaderboard 返回未过期的排行榜快照，没有则返回 false。
func (s *EphemeralStore) CachedLeaderboard(gameType GameType) ([]*LeaderboardEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.boards[gameType]
	if !ok || s.now().Sub(board.cachedAt) > leaderboardCacheTTL {
		return nil, false
	}
	return board.entries, true
}

// InvalidateLeaderboard 在排行榜写入后使缓存失效。
func (s *EphemeralStore) InvalidateLeaderboard(gameType GameType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, gameType)
}
