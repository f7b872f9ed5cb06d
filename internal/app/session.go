package app

import (
	"context"
	"log"
	"sync"

	"github.com/meisofts/BrainStorm/internal/domain"
)

// SnapshotCache receives committed leaderboard snapshots for fast polling
// reads (e.g. a Redis projection). Publishing is best-effort; failures are
// logged and never fail the originating write.
type SnapshotCache interface {
	Publish(ctx context.Context, lb domain.Leaderboard) error
}

// SessionService is the façade moderator terminals call during a live quiz.
// It funnels every write for a contestant through a per-contestant mutex so
// two concurrent submissions for the same contestant/question cannot race the
// read-modify-write and double-apply a score delta. Reads take no lock.
type SessionService struct {
	engine *Engine
	cache  SnapshotCache // optional

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	subMu sync.Mutex
	subs  map[int64]map[chan domain.Leaderboard]struct{}
}

func NewSessionService(engine *Engine, cache SnapshotCache) *SessionService {
	return &SessionService{
		engine: engine,
		cache:  cache,
		locks:  make(map[int64]*sync.Mutex),
		subs:   make(map[int64]map[chan domain.Leaderboard]struct{}),
	}
}

// RecordAnswer serializes the scoring read-modify-write per contestant,
// delegates to the engine, and fans the fresh leaderboard out to subscribers.
// Engine errors propagate unchanged.
func (s *SessionService) RecordAnswer(ctx context.Context, contestantID, questionID int64, selectedOption string) (AnswerResult, error) {
	lock := s.contestantLock(contestantID)
	lock.Lock()
	result, err := s.engine.RecordAnswer(ctx, contestantID, questionID, selectedOption)
	lock.Unlock()
	if err != nil {
		return AnswerResult{}, err
	}
	s.publish(ctx, result.QuizID)
	return result, nil
}

// CompleteContestant marks a contestant finished (write-once) and notifies
// leaderboard subscribers, since entry status changes to Completed.
func (s *SessionService) CompleteContestant(ctx context.Context, contestantID int64) (int64, error) {
	lock := s.contestantLock(contestantID)
	lock.Lock()
	quizID, err := s.engine.CompleteContestant(ctx, contestantID)
	lock.Unlock()
	if err != nil {
		return 0, err
	}
	s.publish(ctx, quizID)
	return quizID, nil
}

// Leaderboard reads committed state only; it runs fully concurrently with
// in-flight writes.
func (s *SessionService) Leaderboard(ctx context.Context, quizID int64) (domain.Leaderboard, error) {
	return s.engine.Leaderboard(ctx, quizID)
}

// SessionState returns the live-session view for a quiz.
func (s *SessionService) SessionState(ctx context.Context, quizID int64) (domain.SessionState, error) {
	return s.engine.SessionState(ctx, quizID)
}

// Progress returns the dashboard summary for a quiz.
func (s *SessionService) Progress(ctx context.Context, quizID int64) (domain.QuizProgress, error) {
	return s.engine.Progress(ctx, quizID)
}

// Subscribe returns a channel receiving leaderboard snapshots after every
// committed write for the quiz. The caller must invoke cancel to avoid leaks.
func (s *SessionService) Subscribe(ctx context.Context, quizID int64) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.engine.Leaderboard(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)

	s.subMu.Lock()
	if s.subs[quizID] == nil {
		s.subs[quizID] = make(map[chan domain.Leaderboard]struct{})
	}
	s.subs[quizID][ch] = struct{}{}
	s.subMu.Unlock()

	ch <- initial

	cancel := func() {
		s.subMu.Lock()
		if set, ok := s.subs[quizID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(s.subs, quizID)
			}
		}
		s.subMu.Unlock()
	}
	return ch, cancel, nil
}

// contestantLock returns the mutex for a contestant, creating it lazily.
// Locks live for the process lifetime; a session has a bounded roster.
func (s *SessionService) contestantLock(contestantID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[contestantID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[contestantID] = lock
	}
	return lock
}

// publish rebuilds the leaderboard once and pushes it to the snapshot cache
// and all subscribers. Slow subscribers lose intermediate snapshots rather
// than blocking the writer.
func (s *SessionService) publish(ctx context.Context, quizID int64) {
	lb, err := s.engine.Leaderboard(ctx, quizID)
	if err != nil {
		log.Printf("leaderboard rebuild for quiz %d failed: %v", quizID, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.Publish(ctx, lb); err != nil {
			log.Printf("leaderboard cache publish for quiz %d failed: %v", quizID, err)
		}
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs[quizID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
