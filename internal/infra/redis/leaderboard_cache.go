package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/redis/go-redis/v9"
)

// LeaderboardCache projects committed leaderboard snapshots into Redis so
// polling clients read the scoreboard without touching Postgres.
// Layout per quiz:
//
//	SET  quiz:{id}:leaderboard  -> full snapshot JSON
//	ZSET quiz:{id}:scores       -> contestantID scored by current score
//
// Snapshots are published sequentially after each committed write, so a
// stored snapshot never regresses behind one already served.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

// Publish stores the snapshot and refreshes the score ZSET in one pipeline.
func (c *LeaderboardCache) Publish(ctx context.Context, lb domain.Leaderboard) error {
	payload, err := json.Marshal(lb)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}

	members := make([]redis.Z, 0, len(lb.Entries))
	for _, entry := range lb.Entries {
		members = append(members, redis.Z{
			Score:  float64(entry.Score),
			Member: strconv.FormatInt(entry.ContestantID, 10),
		})
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.snapshotKey(lb.QuizID), payload, c.ttl)
	if len(members) > 0 {
		pipe.ZAdd(ctx, c.scoresKey(lb.QuizID), members...)
		if c.ttl > 0 {
			pipe.Expire(ctx, c.scoresKey(lb.QuizID), c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish leaderboard: %w", err)
	}
	return nil
}

// Fetch returns the cached snapshot for a quiz, if present.
func (c *LeaderboardCache) Fetch(ctx context.Context, quizID int64) (domain.Leaderboard, bool, error) {
	raw, err := c.client.Get(ctx, c.snapshotKey(quizID)).Bytes()
	if err == redis.Nil {
		return domain.Leaderboard{}, false, nil
	}
	if err != nil {
		return domain.Leaderboard{}, false, fmt.Errorf("fetch leaderboard: %w", err)
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false, fmt.Errorf("unmarshal leaderboard: %w", err)
	}
	return lb, true, nil
}

func (c *LeaderboardCache) snapshotKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:leaderboard", quizID)
}

func (c *LeaderboardCache) scoresKey(quizID int64) string {
	return fmt.Sprintf("quiz:%d:scores", quizID)
}
