package postgres

import (
	"time"

	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	QuizDate    time.Time `bun:"quiz_date,notnull"`
	IsActive    bool      `bun:"is_active,notnull,default:true"`
	AdminID     int64     `bun:"admin_id,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qq"`

	ID            int64     `bun:"id,pk,autoincrement"`
	QuizID        int64     `bun:"quiz_id,notnull"`
	QuestionText  string    `bun:"question_text,notnull"`
	OptionA       string    `bun:"option_a,notnull"`
	OptionB       string    `bun:"option_b,notnull"`
	OptionC       string    `bun:"option_c,notnull"`
	OptionD       string    `bun:"option_d,notnull"`
	CorrectAnswer string    `bun:"correct_answer,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type contestantRow struct {
	bun.BaseModel `bun:"table:contestants,alias:c"`

	ID          int64      `bun:"id,pk,autoincrement"`
	QuizID      int64      `bun:"quiz_id,notnull"`
	Name        string     `bun:"name,notnull"`
	Email       string     `bun:"email"`
	Score       int        `bun:"score,notnull,default:0"`
	SubmittedAt *time.Time `bun:"submitted_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:contestant_answers,alias:a"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ContestantID   int64     `bun:"contestant_id,notnull"`
	QuestionID     int64     `bun:"question_id,notnull"`
	SelectedOption string    `bun:"selected_option,notnull"`
	IsCorrect      bool      `bun:"is_correct,notnull,default:false"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		QuizDate:    r.QuizDate,
		IsActive:    r.IsActive,
		AdminID:     r.AdminID,
		CreatedAt:   r.CreatedAt,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		QuizID:        r.QuizID,
		Text:          r.QuestionText,
		OptionA:       r.OptionA,
		OptionB:       r.OptionB,
		OptionC:       r.OptionC,
		OptionD:       r.OptionD,
		CorrectOption: r.CorrectAnswer,
		CreatedAt:     r.CreatedAt,
	}
}

func (r contestantRow) toDomain() domain.Contestant {
	return domain.Contestant{
		ID:          r.ID,
		QuizID:      r.QuizID,
		Name:        r.Name,
		Email:       r.Email,
		Score:       r.Score,
		SubmittedAt: r.SubmittedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:             r.ID,
		ContestantID:   r.ContestantID,
		QuestionID:     r.QuestionID,
		SelectedOption: r.SelectedOption,
		IsCorrect:      r.IsCorrect,
		CreatedAt:      r.CreatedAt,
	}
}

func contestantToRow(c domain.Contestant) contestantRow {
	return contestantRow{
		ID:          c.ID,
		QuizID:      c.QuizID,
		Name:        c.Name,
		Email:       c.Email,
		Score:       c.Score,
		SubmittedAt: c.SubmittedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func answerToRow(a domain.Answer) answerRow {
	return answerRow{
		ID:             a.ID,
		ContestantID:   a.ContestantID,
		QuestionID:     a.QuestionID,
		SelectedOption: a.SelectedOption,
		IsCorrect:      a.IsCorrect,
		CreatedAt:      a.CreatedAt,
	}
}
