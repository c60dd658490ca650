package redis

import (
	"context"
	"fmt"
	"strconv"

	"dailyquest-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultLeaderboardKey holds best streaks as a sorted set: member=user id, score=max streak.
const DefaultLeaderboardKey = "leaderboard:streak"

// Leaderboard ranks users by best streak in a Redis sorted set shared by all instances.
type Leaderboard struct {
	client *redis.Client
	key    string
}

func NewLeaderboard(client *redis.Client, key string) *Leaderboard {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	return &Leaderboard{client: client, key: key}
}

// RecordMaxStreak never lowers a stored score (ZADD GT).
func (l *Leaderboard) RecordMaxStreak(ctx context.Context, userID int64, maxStreak int) error {
	err := l.client.ZAddGT(ctx, l.key, redis.Z{
		Score:  float64(maxStreak),
		Member: strconv.FormatInt(userID, 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("record streak: %w", err)
	}
	return nil
}

func (l *Leaderboard) TopStreaks(ctx context.Context, limit int) ([]domain.StreakEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("top streaks: %w", err)
	}
	entries := make([]domain.StreakEntry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, domain.StreakEntry{
			UserID:    id,
			MaxStreak: int(z.Score),
			Rank:      len(entries) + 1,
		})
	}
	return entries, nil
}
