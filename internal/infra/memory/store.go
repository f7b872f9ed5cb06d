package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/domain"
)

// Store is an in-memory app.EntityStore used by unit tests and demo mode.
// Transactions are modeled as copy-on-write: RunInTx snapshots the maps, runs
// the callback against the copy under the write lock, and swaps it in only on
// success, so a failed transaction leaves no partial mutation.
type Store struct {
	mu    sync.RWMutex
	state *state
}

type state struct {
	quizzes     map[int64]domain.Quiz
	questions   map[int64]domain.Question
	contestants map[int64]domain.Contestant
	answers     map[int64]domain.Answer

	nextQuizID       int64
	nextQuestionID   int64
	nextContestantID int64
	nextAnswerID     int64
}

func NewStore() *Store {
	return &Store{state: &state{
		quizzes:          make(map[int64]domain.Quiz),
		questions:        make(map[int64]domain.Question),
		contestants:      make(map[int64]domain.Contestant),
		answers:          make(map[int64]domain.Answer),
		nextQuizID:       1,
		nextQuestionID:   1,
		nextContestantID: 1,
		nextAnswerID:     1,
	}}
}

var _ app.EntityStore = (*Store)(nil)

// AddQuiz inserts a quiz and returns it with its assigned ID. Setup helper
// for tests, seeding, and demo mode; not part of the EntityStore contract.
func (s *Store) AddQuiz(quiz domain.Quiz) domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.ID = s.state.nextQuizID
	s.state.nextQuizID++
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now()
	}
	s.state.quizzes[quiz.ID] = quiz
	return quiz
}

// AddQuestion inserts a question and returns it with its assigned ID.
func (s *Store) AddQuestion(question domain.Question) domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	question.ID = s.state.nextQuestionID
	s.state.nextQuestionID++
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now()
	}
	s.state.questions[question.ID] = question
	return question
}

// AddContestant inserts a contestant and returns it with its assigned ID.
func (s *Store) AddContestant(contestant domain.Contestant) domain.Contestant {
	s.mu.Lock()
	defer s.mu.Unlock()
	contestant.ID = s.state.nextContestantID
	s.state.nextContestantID++
	if contestant.CreatedAt.IsZero() {
		contestant.CreatedAt = time.Now()
	}
	s.state.contestants[contestant.ID] = contestant
	return contestant
}

func (s *Store) GetQuiz(_ context.Context, id int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getQuiz(id)
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getQuestion(id)
}

func (s *Store) GetContestant(_ context.Context, id int64) (domain.Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getContestant(id)
}

func (s *Store) ListQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listQuestions(quizID), nil
}

func (s *Store) ListContestants(_ context.Context, quizID int64) ([]domain.Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listContestants(quizID), nil
}

func (s *Store) FindAnswer(_ context.Context, contestantID, questionID int64) (domain.Answer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.state.findAnswer(contestantID, questionID)
	return answer, ok, nil
}

func (s *Store) SaveAnswer(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.saveAnswer(answer), nil
}

func (s *Store) SaveContestant(_ context.Context, contestant domain.Contestant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.saveContestant(contestant)
}

func (s *Store) CountAnswers(_ context.Context, contestantID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.countAnswers(contestantID), nil
}

// RunInTx executes fn against a snapshot of the store; the snapshot replaces
// the live state only if fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.EntityStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &txStore{state: snapshot}); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

// txStore exposes a state snapshot through the EntityStore interface without
// locking; the enclosing RunInTx already holds the store's write lock.
type txStore struct {
	state *state
}

var _ app.EntityStore = (*txStore)(nil)

func (t *txStore) GetQuiz(_ context.Context, id int64) (domain.Quiz, error) {
	return t.state.getQuiz(id)
}

func (t *txStore) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	return t.state.getQuestion(id)
}

func (t *txStore) GetContestant(_ context.Context, id int64) (domain.Contestant, error) {
	return t.state.getContestant(id)
}

func (t *txStore) ListQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	return t.state.listQuestions(quizID), nil
}

func (t *txStore) ListContestants(_ context.Context, quizID int64) ([]domain.Contestant, error) {
	return t.state.listContestants(quizID), nil
}

func (t *txStore) FindAnswer(_ context.Context, contestantID, questionID int64) (domain.Answer, bool, error) {
	answer, ok := t.state.findAnswer(contestantID, questionID)
	return answer, ok, nil
}

func (t *txStore) SaveAnswer(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	return t.state.saveAnswer(answer), nil
}

func (t *txStore) SaveContestant(_ context.Context, contestant domain.Contestant) error {
	return t.state.saveContestant(contestant)
}

func (t *txStore) CountAnswers(_ context.Context, contestantID int64) (int, error) {
	return t.state.countAnswers(contestantID), nil
}

func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.EntityStore) error) error {
	// Already inside a transaction; run against the same snapshot.
	return fn(ctx, t)
}

func (st *state) getQuiz(id int64) (domain.Quiz, error) {
	quiz, ok := st.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (st *state) getQuestion(id int64) (domain.Question, error) {
	question, ok := st.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (st *state) getContestant(id int64) (domain.Contestant, error) {
	contestant, ok := st.contestants[id]
	if !ok {
		return domain.Contestant{}, domain.ErrContestantNotFound
	}
	return contestant, nil
}

// listQuestions returns questions in id order, matching relational reads.
func (st *state) listQuestions(quizID int64) []domain.Question {
	out := make([]domain.Question, 0)
	for id := int64(1); id < st.nextQuestionID; id++ {
		if q, ok := st.questions[id]; ok && q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out
}

// listContestants returns contestants in id order, matching relational reads.
func (st *state) listContestants(quizID int64) []domain.Contestant {
	out := make([]domain.Contestant, 0)
	for id := int64(1); id < st.nextContestantID; id++ {
		if c, ok := st.contestants[id]; ok && c.QuizID == quizID {
			out = append(out, c)
		}
	}
	return out
}

func (st *state) findAnswer(contestantID, questionID int64) (domain.Answer, bool) {
	for id := int64(1); id < st.nextAnswerID; id++ {
		a, ok := st.answers[id]
		if ok && a.ContestantID == contestantID && a.QuestionID == questionID {
			return a, true
		}
	}
	return domain.Answer{}, false
}

func (st *state) saveAnswer(answer domain.Answer) domain.Answer {
	if answer.ID == 0 {
		answer.ID = st.nextAnswerID
		st.nextAnswerID++
	}
	st.answers[answer.ID] = answer
	return answer
}

func (st *state) saveContestant(contestant domain.Contestant) error {
	if _, ok := st.contestants[contestant.ID]; !ok {
		return domain.ErrContestantNotFound
	}
	st.contestants[contestant.ID] = contestant
	return nil
}

func (st *state) countAnswers(contestantID int64) int {
	n := 0
	for _, a := range st.answers {
		if a.ContestantID == contestantID {
			n++
		}
	}
	return n
}

func (st *state) clone() *state {
	next := &state{
		quizzes:          make(map[int64]domain.Quiz, len(st.quizzes)),
		questions:        make(map[int64]domain.Question, len(st.questions)),
		contestants:      make(map[int64]domain.Contestant, len(st.contestants)),
		answers:          make(map[int64]domain.Answer, len(st.answers)),
		nextQuizID:       st.nextQuizID,
		nextQuestionID:   st.nextQuestionID,
		nextContestantID: st.nextContestantID,
		nextAnswerID:     st.nextAnswerID,
	}
	for id, quiz := range st.quizzes {
		next.quizzes[id] = quiz
	}
	for id, question := range st.questions {
		next.questions[id] = question
	}
	for id, contestant := range st.contestants {
		next.contestants[id] = contestant
	}
	for id, answer := range st.answers {
		next.answers[id] = answer
	}
	return next
}
