package domain

import "time"

// Option labels for multiple-choice questions. Every question has exactly
// four options and the correct answer is identified by its label.
const (
	OptionA = "a"
	OptionB = "b"
	OptionC = "c"
	OptionD = "d"
)

// ValidOption reports whether label is one of the four recognized option labels.
func ValidOption(label string) bool {
	switch label {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Quiz is the root entity of a live session. Questions and contestants are
// scoped exclusively to their quiz.
type Quiz struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	QuizDate    time.Time `json:"quizDate"`
	IsActive    bool      `json:"isActive"`
	AdminID     int64     `json:"adminId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Question is a four-option MCQ belonging to a single quiz.
type Question struct {
	ID            int64     `json:"id"`
	QuizID        int64     `json:"quizId"`
	Text          string    `json:"text"`
	OptionA       string    `json:"optionA"`
	OptionB       string    `json:"optionB"`
	OptionC       string    `json:"optionC"`
	OptionD       string    `json:"optionD"`
	CorrectOption string    `json:"-"` // 'a'..'d'; not exposed to clients
	CreatedAt     time.Time `json:"createdAt"`
}

// OptionText returns the text of the option with the given label, or "" for
// an unknown label.
func (q Question) OptionText(label string) string {
	switch label {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// Contestant is a quiz participant. Score is mutated only by the scoring
// engine; SubmittedAt is set write-once when the contestant finishes.
type Contestant struct {
	ID          int64      `json:"id"`
	QuizID      int64      `json:"quizId"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Score       int        `json:"score"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Answer records a contestant's latest selection for one question.
// At most one answer exists per (contestant, question) pair; resubmissions
// overwrite it in place.
type Answer struct {
	ID             int64     `json:"id"`
	ContestantID   int64     `json:"contestantId"`
	QuestionID     int64     `json:"questionId"`
	SelectedOption string    `json:"selectedOption"`
	IsCorrect      bool      `json:"isCorrect"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Contestant progress states during a session.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// LeaderboardEntry is one ranked row of a quiz leaderboard.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	ContestantID int64  `json:"contestantId"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Status       string `json:"status"`
}

// Leaderboard is the tie-ranked scoreboard for a quiz. TotalQuestions is the
// maximum attainable score so callers can render percentages themselves.
type Leaderboard struct {
	QuizID         int64              `json:"quizId"`
	Entries        []LeaderboardEntry `json:"entries"`
	TotalQuestions int                `json:"totalQuestions"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// SessionContestant is a roster row on the live session screen.
type SessionContestant struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Status string `json:"status"`
}

// SessionQuestion exposes the full question, correct label included; the
// moderator screen needs it to mark answers.
type SessionQuestion struct {
	ID            int64             `json:"id"`
	Text          string            `json:"text"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correctOption"`
}

// SessionState is everything a moderator terminal needs to run a live quiz:
// the question set and the contestant roster with current scores.
type SessionState struct {
	QuizID      int64               `json:"quizId"`
	Title       string              `json:"title"`
	Questions   []SessionQuestion   `json:"questions"`
	Contestants []SessionContestant `json:"contestants"`
}

// Quiz-level progress states derived from the schedule and contestant
// completions. Never stored; recomputed on every read.
const (
	QuizUpcoming     = "Upcoming"
	QuizActive       = "Active"
	QuizAllCompleted = "All Completed"
)

// QuizProgress summarizes a quiz for the moderator dashboard.
type QuizProgress struct {
	QuizID               int64     `json:"quizId"`
	Title                string    `json:"title"`
	QuizDate             time.Time `json:"quizDate"`
	TotalContestants     int       `json:"totalContestants"`
	CompletedContestants int       `json:"completedContestants"`
	Status               string    `json:"status"`
}
