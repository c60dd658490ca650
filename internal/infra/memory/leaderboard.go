package memory

import (
	"context"
	"sort"
	"sync"

	"dailyquest-service/internal/domain"
)

// Leaderboard keeps best streaks in process; used when Redis is not configured.
type Leaderboard struct {
	mu     sync.RWMutex
	scores map[int64]int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[int64]int)}
}

// RecordMaxStreak never lowers a stored score.
func (l *Leaderboard) RecordMaxStreak(_ context.Context, userID int64, maxStreak int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if maxStreak > l.scores[userID] {
		l.scores[userID] = maxStreak
	}
	return nil
}

func (l *Leaderboard) TopStreaks(_ context.Context, limit int) ([]domain.StreakEntry, error) {
	l.mu.RLock()
	entries := make([]domain.StreakEntry, 0, len(l.scores))
	for id, score := range l.scores {
		entries = append(entries, domain.StreakEntry{UserID: id, MaxStreak: score})
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MaxStreak != entries[j].MaxStreak {
			return entries[i].MaxStreak > entries[j].MaxStreak
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
