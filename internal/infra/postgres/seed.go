package postgres

import (
	"context"
	"fmt"

	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/uptrace/bun"
)

// Seed inserts a quiz together with its questions and contestants in one
// transaction. Dev and test helper; the admin UI owns entity creation in
// production.
func Seed(ctx context.Context, s *Store, quiz domain.Quiz, questions []domain.Question, contestants []domain.Contestant) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		quizInsert := quizRow{
			Title:       quiz.Title,
			Description: quiz.Description,
			QuizDate:    quiz.QuizDate,
			IsActive:    quiz.IsActive,
			AdminID:     quiz.AdminID,
		}
		if _, err := tx.NewInsert().Model(&quizInsert).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("seed quiz: %w", err)
		}

		for _, q := range questions {
			row := questionRow{
				QuizID:        quizInsert.ID,
				QuestionText:  q.Text,
				OptionA:       q.OptionA,
				OptionB:       q.OptionB,
				OptionC:       q.OptionC,
				OptionD:       q.OptionD,
				CorrectAnswer: q.CorrectOption,
			}
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return fmt.Errorf("seed question: %w", err)
			}
		}

		for _, c := range contestants {
			row := contestantRow{
				QuizID: quizInsert.ID,
				Name:   c.Name,
				Email:  c.Email,
			}
			if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
				return fmt.Errorf("seed contestant: %w", err)
			}
		}
		return nil
	})
}
