package app

import (
	"context"

	"github.com/meisofts/BrainStorm/internal/domain"
)

// EntityStore abstracts how quiz entities are persisted (Postgres, in-memory).
// Implementations return domain.Err*NotFound for missing rows and wrap any
// other backend failure. Entities are value snapshots: callers read, transform
// and save back; nothing is mutated in place behind the caller's back.
type EntityStore interface {
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	GetContestant(ctx context.Context, id int64) (domain.Contestant, error)
	ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
	ListContestants(ctx context.Context, quizID int64) ([]domain.Contestant, error)
	// FindAnswer reports the answer for the (contestant, question) pair, if any.
	FindAnswer(ctx context.Context, contestantID, questionID int64) (domain.Answer, bool, error)
	// SaveAnswer inserts (zero ID) or updates an answer and returns it with
	// its assigned ID.
	SaveAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	SaveContestant(ctx context.Context, contestant domain.Contestant) error
	// CountAnswers returns how many answers the contestant has recorded.
	CountAnswers(ctx context.Context, contestantID int64) (int, error)

	// RunInTx runs fn within a single transactional scope; every store call
	// made through tx commits or rolls back as a unit.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx EntityStore) error) error
}
