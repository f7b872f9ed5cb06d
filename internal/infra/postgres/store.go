package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Store is the Postgres-backed app.EntityStore. All queries run through a
// bun.IDB so the same code serves both the pooled connection and an open
// transaction handed out by RunInTx.
type Store struct {
	db *bun.DB
}

// NewStore opens a bun DB over the pgdriver connector for the given DSN.
func NewStore(dsn string) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}
}

// NewStoreWithDB wraps an existing bun DB (tests, migrations sharing a pool).
func NewStoreWithDB(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ app.EntityStore = (*Store)(nil)

func (s *Store) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return getQuiz(ctx, s.db, id)
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return getQuestion(ctx, s.db, id)
}

func (s *Store) GetContestant(ctx context.Context, id int64) (domain.Contestant, error) {
	return getContestant(ctx, s.db, id)
}

func (s *Store) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	return listQuestions(ctx, s.db, quizID)
}

func (s *Store) ListContestants(ctx context.Context, quizID int64) ([]domain.Contestant, error) {
	return listContestants(ctx, s.db, quizID)
}

func (s *Store) FindAnswer(ctx context.Context, contestantID, questionID int64) (domain.Answer, bool, error) {
	return findAnswer(ctx, s.db, contestantID, questionID)
}

func (s *Store) SaveAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	return saveAnswer(ctx, s.db, answer)
}

func (s *Store) SaveContestant(ctx context.Context, contestant domain.Contestant) error {
	return saveContestant(ctx, s.db, contestant)
}

func (s *Store) CountAnswers(ctx context.Context, contestantID int64) (int, error) {
	return countAnswers(ctx, s.db, contestantID)
}

// RunInTx opens a database transaction and exposes it through the same
// EntityStore interface; serialization failures surface as domain.ErrConflict.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.EntityStore) error) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &txStore{db: tx})
	})
	return mapTxError(err)
}

// txStore serves EntityStore calls against an open transaction.
type txStore struct {
	db bun.Tx
}

var _ app.EntityStore = (*txStore)(nil)

func (t *txStore) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return getQuiz(ctx, t.db, id)
}

func (t *txStore) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return getQuestion(ctx, t.db, id)
}

func (t *txStore) GetContestant(ctx context.Context, id int64) (domain.Contestant, error) {
	return getContestant(ctx, t.db, id)
}

func (t *txStore) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	return listQuestions(ctx, t.db, quizID)
}

func (t *txStore) ListContestants(ctx context.Context, quizID int64) ([]domain.Contestant, error) {
	return listContestants(ctx, t.db, quizID)
}

func (t *txStore) FindAnswer(ctx context.Context, contestantID, questionID int64) (domain.Answer, bool, error) {
	return findAnswer(ctx, t.db, contestantID, questionID)
}

func (t *txStore) SaveAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	return saveAnswer(ctx, t.db, answer)
}

func (t *txStore) SaveContestant(ctx context.Context, contestant domain.Contestant) error {
	return saveContestant(ctx, t.db, contestant)
}

func (t *txStore) CountAnswers(ctx context.Context, contestantID int64) (int, error) {
	return countAnswers(ctx, t.db, contestantID)
}

func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.EntityStore) error) error {
	// Already transactional; reuse the open transaction.
	return fn(ctx, t)
}

func getQuiz(ctx context.Context, db bun.IDB, id int64) (domain.Quiz, error) {
	var row quizRow
	err := db.NewSelect().Model(&row).Where("q.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return row.toDomain(), nil
}

func getQuestion(ctx context.Context, db bun.IDB, id int64) (domain.Question, error) {
	var row questionRow
	err := db.NewSelect().Model(&row).Where("qq.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return row.toDomain(), nil
}

func getContestant(ctx context.Context, db bun.IDB, id int64) (domain.Contestant, error) {
	var row contestantRow
	err := db.NewSelect().Model(&row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Contestant{}, domain.ErrContestantNotFound
	}
	if err != nil {
		return domain.Contestant{}, fmt.Errorf("get contestant: %w", err)
	}
	return row.toDomain(), nil
}

func listQuestions(ctx context.Context, db bun.IDB, quizID int64) ([]domain.Question, error) {
	var rows []questionRow
	err := db.NewSelect().Model(&rows).Where("qq.quiz_id = ?", quizID).Order("qq.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func listContestants(ctx context.Context, db bun.IDB, quizID int64) ([]domain.Contestant, error) {
	var rows []contestantRow
	err := db.NewSelect().Model(&rows).Where("c.quiz_id = ?", quizID).Order("c.id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contestants: %w", err)
	}
	out := make([]domain.Contestant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func findAnswer(ctx context.Context, db bun.IDB, contestantID, questionID int64) (domain.Answer, bool, error) {
	var row answerRow
	err := db.NewSelect().Model(&row).
		Where("a.contestant_id = ?", contestantID).
		Where("a.question_id = ?", questionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Answer{}, false, nil
	}
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("find answer: %w", err)
	}
	return row.toDomain(), true, nil
}

func saveAnswer(ctx context.Context, db bun.IDB, answer domain.Answer) (domain.Answer, error) {
	row := answerToRow(answer)
	if row.ID == 0 {
		// The unique (contestant_id, question_id) index is the idempotency
		// key; a concurrent insert of the same pair loses here and the caller
		// retries against the now-existing row.
		_, err := db.NewInsert().Model(&row).Returning("id").Exec(ctx)
		if err != nil {
			return domain.Answer{}, fmt.Errorf("insert answer: %w", err)
		}
		return row.toDomain(), nil
	}
	_, err := db.NewUpdate().Model(&row).
		Column("selected_option", "is_correct").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("update answer: %w", err)
	}
	return row.toDomain(), nil
}

func saveContestant(ctx context.Context, db bun.IDB, contestant domain.Contestant) error {
	row := contestantToRow(contestant)
	res, err := db.NewUpdate().Model(&row).
		Column("score", "submitted_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update contestant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrContestantNotFound
	}
	return nil
}

func countAnswers(ctx context.Context, db bun.IDB, contestantID int64) (int, error) {
	n, err := db.NewSelect().Model((*answerRow)(nil)).
		Where("a.contestant_id = ?", contestantID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

// mapTxError translates retryable Postgres failures (serialization aborts,
// deadlocks, unique races on the answer idempotency key) to domain.ErrConflict.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "40001", "40P01", "23505":
			return domain.ErrConflict
		}
	}
	return err
}
