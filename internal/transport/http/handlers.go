package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/meisofts/BrainStorm/internal/app"
	"github.com/meisofts/BrainStorm/internal/domain"
)

// SnapshotReader serves cached leaderboard snapshots (Redis projection).
type SnapshotReader interface {
	Fetch(ctx context.Context, quizID int64) (domain.Leaderboard, bool, error)
}

// Handler wires the session service into a JSON API. Role gating happens in
// front of this layer; every identifier arrives as an explicit parameter.
type Handler struct {
	service   *app.SessionService
	snapshots SnapshotReader // optional
}

func NewHandler(service *app.SessionService, snapshots SnapshotReader) *Handler {
	return &Handler{service: service, snapshots: snapshots}
}

// Router builds the HTTP mux for the moderator API.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/answers", h.handleRecordAnswer)
	mux.HandleFunc("POST /api/completions", h.handleComplete)
	mux.HandleFunc("GET /api/quizzes/{quizID}/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("GET /api/quizzes/{quizID}/session", h.handleSession)
	mux.HandleFunc("GET /api/quizzes/{quizID}/progress", h.handleProgress)
	mux.HandleFunc("GET /ws", h.ServeWS)
	return mux
}

type recordAnswerRequest struct {
	ContestantID   int64  `json:"contestantId"`
	QuestionID     int64  `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

type recordAnswerResponse struct {
	NewScore  int  `json:"newScore"`
	IsCorrect bool `json:"isCorrect"`
}

func (h *Handler) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req recordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	result, err := h.service.RecordAnswer(r.Context(), req.ContestantID, req.QuestionID, req.SelectedOption)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordAnswerResponse{NewScore: result.NewScore, IsCorrect: result.IsCorrect})
}

type completeRequest struct {
	ContestantID int64 `json:"contestantId"`
}

type completeResponse struct {
	QuizID int64 `json:"quizId"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	quizID, err := h.service.CompleteContestant(r.Context(), req.ContestantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{QuizID: quizID})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "quizID")
	if !ok {
		return
	}

	if h.snapshots != nil {
		if lb, found, err := h.snapshots.Fetch(r.Context(), quizID); err == nil && found {
			writeJSON(w, http.StatusOK, lb)
			return
		} else if err != nil {
			log.Printf("leaderboard cache read failed, falling back to store: %v", err)
		}
	}

	lb, err := h.service.Leaderboard(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "quizID")
	if !ok {
		return
	}
	state, err := h.service.SessionState(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "quizID")
	if !ok {
		return
	}
	progress, err := h.service.Progress(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type errorResponse struct {
	Error string `json:"error"`
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOption):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrContestantNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
