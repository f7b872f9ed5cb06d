package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/config"
	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/meisofts/BrainStorm/internal/infra/memory"
	"github.com/meisofts/BrainStorm/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewSeedCmd inserts a sample quiz with questions and contestants, handy for
// trying the API against a fresh database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with a sample quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}
			store := postgres.NewStore(cfg.Postgres.URL)
			defer store.Close()
			if err := postgres.Seed(cmd.Context(), store, demoQuiz(), demoQuestions(), demoContestants()); err != nil {
				return err
			}
			log.Printf("seeding complete")
			return nil
		},
	}
}

// seedDemoStore fills the in-memory store with the same sample quiz used by
// the seed command.
func seedDemoStore(store *memory.Store) app.EntityStore {
	quiz := store.AddQuiz(demoQuiz())
	for _, q := range demoQuestions() {
		q.QuizID = quiz.ID
		store.AddQuestion(q)
	}
	for _, c := range demoContestants() {
		c.QuizID = quiz.ID
		store.AddContestant(c)
	}
	return store
}

func demoQuiz() domain.Quiz {
	return domain.Quiz{
		Title:       "General Knowledge Quiz",
		Description: "A quiz to test your general knowledge.",
		QuizDate:    time.Now().Add(7 * 24 * time.Hour),
		IsActive:    true,
		AdminID:     1,
	}
}

func demoQuestions() []domain.Question {
	return []domain.Question{
		{
			Text:          "What is the capital of France?",
			OptionA:       "Berlin",
			OptionB:       "Madrid",
			OptionC:       "Paris",
			OptionD:       "Rome",
			CorrectOption: domain.OptionC,
		},
		{
			Text:          "Which planet is known as the Red Planet?",
			OptionA:       "Earth",
			OptionB:       "Mars",
			OptionC:       "Jupiter",
			OptionD:       "Venus",
			CorrectOption: domain.OptionB,
		},
	}
}

func demoContestants() []domain.Contestant {
	return []domain.Contestant{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	}
}
