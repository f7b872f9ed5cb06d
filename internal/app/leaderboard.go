package app

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/meisofts/BrainStorm/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Leaderboard builds the tie-ranked scoreboard for a quiz from committed
// scores. It takes no write locks and may run concurrently with scoring.
//
// Ranking is standard competition ranking: equal scores share a rank and the
// next distinct score ranks 1 + number of contestants strictly ahead of it
// (scores 10,10,8 rank as 1,1,3). Ties keep the store's retrieval order,
// which is insertion/id order, so the sequence is deterministic for a fixed
// snapshot of scores.
func (e *Engine) Leaderboard(ctx context.Context, quizID int64) (domain.Leaderboard, error) {
	if _, err := e.store.GetQuiz(ctx, quizID); err != nil {
		return domain.Leaderboard{}, err
	}
	contestants, err := e.store.ListContestants(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	total, err := e.counts.get(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	sort.SliceStable(contestants, func(i, j int) bool {
		return contestants[i].Score > contestants[j].Score
	})

	entries := make([]domain.LeaderboardEntry, 0, len(contestants))
	rank := 0
	previousScore := 0
	for i, c := range contestants {
		if i == 0 || c.Score != previousScore {
			rank = i + 1
		}
		previousScore = c.Score

		status := domain.StatusInProgress
		if c.SubmittedAt != nil {
			status = domain.StatusCompleted
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:         rank,
			ContestantID: c.ID,
			Name:         c.Name,
			Score:        c.Score,
			Status:       status,
		})
	}

	return domain.Leaderboard{
		QuizID:         quizID,
		Entries:        entries,
		TotalQuestions: total,
		UpdatedAt:      e.now(),
	}, nil
}

// questionCountCache caches per-quiz question counts with a short TTL and
// collapses concurrent misses into a single store read. Question edits during
// a session show up after at most one TTL.
type questionCountCache struct {
	store EntityStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[int64]cachedCount
}

type cachedCount struct {
	count     int
	expiresAt time.Time
}

func newQuestionCountCache(store EntityStore, ttl time.Duration, clock func() time.Time) *questionCountCache {
	return &questionCountCache{
		store: store,
		ttl:   ttl,
		clock: clock,
		cache: make(map[int64]cachedCount),
	}
}

func (c *questionCountCache) get(ctx context.Context, quizID int64) (int, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.count, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.count, nil
		}
		c.mu.RUnlock()

		questions, err := c.store.ListQuestions(ctx, quizID)
		if err != nil {
			return 0, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedCount{count: len(questions), expiresAt: now.Add(c.ttl)}
		c.mu.Unlock()
		return len(questions), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}
