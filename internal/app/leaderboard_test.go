package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/domain"
	"github.com/meisofts/BrainStorm/internal/infra/memory"
)

// seedScores creates one quiz with a contestant per score, holding the given
// insertion order, and enough questions to make the scores attainable.
func seedScores(t *testing.T, scores []int) (*memory.Store, *app.Engine, int64) {
	t.Helper()
	store := memory.NewStore()
	quiz := store.AddQuiz(domain.Quiz{Title: "Ranked", QuizDate: time.Now(), AdminID: 1})

	max := 0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	questionIDs := make([]int64, 0, max)
	for i := 0; i < max; i++ {
		q := store.AddQuestion(domain.Question{
			QuizID:        quiz.ID,
			Text:          "q",
			OptionA:       "1", OptionB: "2", OptionC: "3", OptionD: "4",
			CorrectOption: domain.OptionA,
		})
		questionIDs = append(questionIDs, q.ID)
	}

	engine := app.NewEngine(store)
	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}
	for i, score := range scores {
		c := store.AddContestant(domain.Contestant{QuizID: quiz.ID, Name: names[i%len(names)]})
		for j := 0; j < score; j++ {
			if _, err := engine.RecordAnswer(context.Background(), c.ID, questionIDs[j], domain.OptionA); err != nil {
				t.Fatalf("seed score: %v", err)
			}
		}
	}
	return store, engine, quiz.ID
}

func TestLeaderboardCompetitionRanking(t *testing.T) {
	tests := []struct {
		name      string
		scores    []int
		wantRanks []int
	}{
		{name: "tie at the top", scores: []int{10, 10, 8, 5}, wantRanks: []int{1, 1, 3, 4}},
		{name: "all tied", scores: []int{7, 7, 7}, wantRanks: []int{1, 1, 1}},
		{name: "no ties", scores: []int{3, 2, 1}, wantRanks: []int{1, 2, 3}},
		{name: "tie in the middle", scores: []int{9, 4, 4, 4, 2}, wantRanks: []int{1, 2, 2, 2, 5}},
		{name: "empty quiz", scores: nil, wantRanks: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, engine, quizID := seedScores(t, tt.scores)
			lb, err := engine.Leaderboard(context.Background(), quizID)
			if err != nil {
				t.Fatalf("leaderboard: %v", err)
			}
			ranks := make([]int, 0, len(lb.Entries))
			for _, e := range lb.Entries {
				ranks = append(ranks, e.Rank)
			}
			if len(ranks) != len(tt.wantRanks) {
				t.Fatalf("expected %d entries, got %d", len(tt.wantRanks), len(ranks))
			}
			for i := range ranks {
				if ranks[i] != tt.wantRanks[i] {
					t.Fatalf("expected ranks %v, got %v", tt.wantRanks, ranks)
				}
			}
		})
	}
}

// Ties keep the store's retrieval (insertion) order, so the leaderboard for a
// fixed snapshot is deterministic.
func TestLeaderboardTiesAreStable(t *testing.T) {
	_, engine, quizID := seedScores(t, []int{5, 5, 5, 2})

	first, err := engine.Leaderboard(context.Background(), quizID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	wantOrder := []string{"Alice", "Bob", "Carol", "Dave"}
	for i, want := range wantOrder {
		if first.Entries[i].Name != want {
			t.Fatalf("expected order %v, got %+v", wantOrder, first.Entries)
		}
	}

	for i := 0; i < 10; i++ {
		again, err := engine.Leaderboard(context.Background(), quizID)
		if err != nil {
			t.Fatalf("leaderboard: %v", err)
		}
		if !reflect.DeepEqual(first.Entries, again.Entries) {
			t.Fatalf("leaderboard not deterministic: %+v vs %+v", first.Entries, again.Entries)
		}
	}
}

func TestLeaderboardReportsTotalQuestions(t *testing.T) {
	_, engine, quizID := seedScores(t, []int{3, 1})
	lb, err := engine.Leaderboard(context.Background(), quizID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if lb.TotalQuestions != 3 {
		t.Fatalf("expected 3 total questions, got %d", lb.TotalQuestions)
	}
	if lb.QuizID != quizID {
		t.Fatalf("expected quiz id %d, got %d", quizID, lb.QuizID)
	}
}

func TestLeaderboardQuizNotFound(t *testing.T) {
	store := memory.NewStore()
	engine := app.NewEngine(store)
	if _, err := engine.Leaderboard(context.Background(), 42); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

// Full session walkthrough: two questions (correct c and b), contestant X
// submits A=c, then B=a, then corrects B to b, then completes.
func TestSessionScenario(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	x := f.contestants[0]

	result, err := f.engine.RecordAnswer(ctx, x.ID, f.questions[0].ID, domain.OptionC)
	if err != nil || result.NewScore != 1 {
		t.Fatalf("step 1: score=%d err=%v", result.NewScore, err)
	}
	result, err = f.engine.RecordAnswer(ctx, x.ID, f.questions[1].ID, domain.OptionA)
	if err != nil || result.NewScore != 1 {
		t.Fatalf("step 2: score=%d err=%v", result.NewScore, err)
	}
	result, err = f.engine.RecordAnswer(ctx, x.ID, f.questions[1].ID, domain.OptionB)
	if err != nil || result.NewScore != 2 {
		t.Fatalf("step 3: score=%d err=%v", result.NewScore, err)
	}

	lb, err := f.engine.Leaderboard(ctx, f.quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 {
		t.Fatalf("expected single entry, got %d", len(lb.Entries))
	}
	entry := lb.Entries[0]
	if entry.Rank != 1 || entry.Score != 2 || entry.Status != domain.StatusInProgress {
		t.Fatalf("expected rank 1, score 2, in progress; got %+v", entry)
	}

	if _, err := f.engine.CompleteContestant(ctx, x.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	lb, err = f.engine.Leaderboard(ctx, f.quiz.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if lb.Entries[0].Status != domain.StatusCompleted {
		t.Fatalf("expected Completed, got %q", lb.Entries[0].Status)
	}
}
