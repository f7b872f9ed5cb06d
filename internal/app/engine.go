package app

import (
	"context"
	"time"

	"github.com/meisofts/BrainStorm/internal/domain"
)

// Engine implements the quiz scoring use cases against an EntityStore.
// It owns every mutation of Contestant.Score and Contestant.SubmittedAt;
// the surrounding admin layer only creates the entities it operates on.
type Engine struct {
	store EntityStore
	now   func() time.Time

	counts *questionCountCache
}

func NewEngine(store EntityStore) *Engine {
	return NewEngineWithClock(store, time.Now)
}

// NewEngineWithClock allows deterministic timestamps in tests.
func NewEngineWithClock(store EntityStore, now func() time.Time) *Engine {
	return &Engine{
		store:  store,
		now:    now,
		counts: newQuestionCountCache(store, 30*time.Second, now),
	}
}

// AnswerResult reports the outcome of recording an answer.
type AnswerResult struct {
	QuizID    int64 `json:"quizId"`
	NewScore  int   `json:"newScore"`
	IsCorrect bool  `json:"isCorrect"`
}

// RecordAnswer registers or edits a contestant's answer to a question and
// applies the matching score delta. The delta is idempotent with respect to
// the final selected option: resubmitting the same option never double-counts.
//
// Score transitions on an edited answer:
//
//	was correct, now incorrect  -> score - 1
//	was incorrect, now correct  -> score + 1
//	correctness unchanged       -> no delta
//
// Answer and contestant are persisted in one transaction; on any failure no
// partial state remains.
func (e *Engine) RecordAnswer(ctx context.Context, contestantID, questionID int64, selectedOption string) (AnswerResult, error) {
	if !domain.ValidOption(selectedOption) {
		return AnswerResult{}, domain.ErrInvalidOption
	}

	var result AnswerResult
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx EntityStore) error {
		contestant, err := tx.GetContestant(ctx, contestantID)
		if err != nil {
			return err
		}
		question, err := tx.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		if question.QuizID != contestant.QuizID {
			// Cross-quiz references are invalid; from the contestant's
			// perspective this question does not exist.
			return domain.ErrQuestionNotFound
		}

		isCorrect := selectedOption == question.CorrectOption

		answer, found, err := tx.FindAnswer(ctx, contestantID, questionID)
		if err != nil {
			return err
		}
		if found {
			switch {
			case answer.IsCorrect && !isCorrect:
				contestant.Score--
			case !answer.IsCorrect && isCorrect:
				contestant.Score++
			}
			answer.SelectedOption = selectedOption
			answer.IsCorrect = isCorrect
		} else {
			answer = domain.Answer{
				ContestantID:   contestantID,
				QuestionID:     questionID,
				SelectedOption: selectedOption,
				IsCorrect:      isCorrect,
				CreatedAt:      e.now(),
			}
			if isCorrect {
				contestant.Score++
			}
		}

		if _, err := tx.SaveAnswer(ctx, answer); err != nil {
			return err
		}
		if err := tx.SaveContestant(ctx, contestant); err != nil {
			return err
		}

		result = AnswerResult{
			QuizID:    contestant.QuizID,
			NewScore:  contestant.Score,
			IsCorrect: isCorrect,
		}
		return nil
	})
	if err != nil {
		return AnswerResult{}, err
	}
	return result, nil
}

// CompleteContestant marks the contestant's participation as finished.
// The completion timestamp is write-once: the first call sets it, later calls
// are no-ops. Returns the contestant's quiz ID either way so the caller can
// route to the results view.
func (e *Engine) CompleteContestant(ctx context.Context, contestantID int64) (int64, error) {
	var quizID int64
	err := e.store.RunInTx(ctx, func(ctx context.Context, tx EntityStore) error {
		contestant, err := tx.GetContestant(ctx, contestantID)
		if err != nil {
			return err
		}
		quizID = contestant.QuizID
		if contestant.SubmittedAt != nil {
			return nil
		}
		now := e.now()
		contestant.SubmittedAt = &now
		return tx.SaveContestant(ctx, contestant)
	})
	if err != nil {
		return 0, err
	}
	return quizID, nil
}

// SessionState assembles the live-session view: the full question set and
// the contestant roster with scores and progress status.
func (e *Engine) SessionState(ctx context.Context, quizID int64) (domain.SessionState, error) {
	quiz, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionState{}, err
	}
	questions, err := e.store.ListQuestions(ctx, quizID)
	if err != nil {
		return domain.SessionState{}, err
	}
	contestants, err := e.store.ListContestants(ctx, quizID)
	if err != nil {
		return domain.SessionState{}, err
	}

	state := domain.SessionState{
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		Questions:   make([]domain.SessionQuestion, 0, len(questions)),
		Contestants: make([]domain.SessionContestant, 0, len(contestants)),
	}
	for _, q := range questions {
		state.Questions = append(state.Questions, domain.SessionQuestion{
			ID:   q.ID,
			Text: q.Text,
			Options: map[string]string{
				domain.OptionA: q.OptionA,
				domain.OptionB: q.OptionB,
				domain.OptionC: q.OptionC,
				domain.OptionD: q.OptionD,
			},
			CorrectOption: q.CorrectOption,
		})
	}
	for _, c := range contestants {
		status, err := e.contestantStatus(ctx, c)
		if err != nil {
			return domain.SessionState{}, err
		}
		state.Contestants = append(state.Contestants, domain.SessionContestant{
			ID:     c.ID,
			Name:   c.Name,
			Score:  c.Score,
			Status: status,
		})
	}
	return state, nil
}

// contestantStatus derives the NotStarted -> InProgress -> Completed state
// machine from persisted facts: answer count and the completion timestamp.
func (e *Engine) contestantStatus(ctx context.Context, c domain.Contestant) (string, error) {
	if c.SubmittedAt != nil {
		return domain.StatusCompleted, nil
	}
	answered, err := e.store.CountAnswers(ctx, c.ID)
	if err != nil {
		return "", err
	}
	if answered == 0 {
		return domain.StatusNotStarted, nil
	}
	return domain.StatusInProgress, nil
}

// Progress summarizes a quiz for the dashboard. Quiz-level status is derived
// from the schedule and the completion counts, never stored.
func (e *Engine) Progress(ctx context.Context, quizID int64) (domain.QuizProgress, error) {
	quiz, err := e.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizProgress{}, err
	}
	contestants, err := e.store.ListContestants(ctx, quizID)
	if err != nil {
		return domain.QuizProgress{}, err
	}

	completed := 0
	for _, c := range contestants {
		if c.SubmittedAt != nil {
			completed++
		}
	}

	status := domain.QuizActive
	switch {
	case quiz.QuizDate.After(e.now()):
		status = domain.QuizUpcoming
	case len(contestants) > 0 && completed == len(contestants):
		status = domain.QuizAllCompleted
	}

	return domain.QuizProgress{
		QuizID:               quiz.ID,
		Title:                quiz.Title,
		QuizDate:             quiz.QuizDate,
		TotalContestants:     len(contestants),
		CompletedContestants: completed,
		Status:               status,
	}, nil
}
