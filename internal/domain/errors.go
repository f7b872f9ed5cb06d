package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the referenced question does not exist
	// or does not belong to the contestant's quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrContestantNotFound indicates the referenced contestant does not exist.
	ErrContestantNotFound = errors.New("contestant not found")
	// ErrInvalidOption is returned for a selected option outside a-d.
	ErrInvalidOption = errors.New("selected option must be one of a, b, c, d")
	// ErrConflict signals lock or transaction contention; the operation is
	// idempotent and safe to retry.
	ErrConflict = errors.New("concurrent update conflict, retry")
)
