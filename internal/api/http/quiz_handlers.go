package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vertechie/vertechie-learn/internal/quiz"
	"github.com/vertechie/vertechie-learn/internal/rbac"
)

func quizStatus(err error) int {
	switch {
	case errors.Is(err, quiz.ErrAttemptNotFound):
		return 404
	case errors.Is(err, quiz.ErrEmptyBank):
		return 409
	case errors.Is(err, quiz.ErrAttemptCompleted),
		errors.Is(err, quiz.ErrAlreadyAnswered),
		errors.Is(err, quiz.ErrQuestionNotInSet):
		return 400
	default:
		return 500
	}
}

// ownAttempt loads an attempt and enforces that the caller started it.
func ownAttempt(e *quiz.Engine, r *http.Request, id string) (quiz.Attempt, error) {
	a, err := e.Get(id)
	if err != nil {
		return quiz.Attempt{}, err
	}
	if a.UserID != rbac.SubjectFromContext(r.Context()) {
		return quiz.Attempt{}, quiz.ErrAttemptNotFound
	}
	return a, nil
}

func StartQuizHandler(e *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := e.Start(chi.URLParam(r, "tutorialID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

func GetQuizAttemptHandler(e *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := ownAttempt(e, r, chi.URLParam(r, "attemptID"))
		if err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

func AnswerQuizHandler(e *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		if _, err := ownAttempt(e, r, id); err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		var req struct {
			QuestionID string   `json:"question_id"`
			Answer     []string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		res, err := e.SubmitAnswer(id, req.QuestionID, req.Answer)
		if err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}

func AdvanceQuizHandler(e *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		if _, err := ownAttempt(e, r, id); err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		a, err := e.Advance(id)
		if err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

func ResetQuizHandler(e *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		if _, err := ownAttempt(e, r, id); err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		a, err := e.Reset(id)
		if err != nil {
			http.Error(w, err.Error(), quizStatus(err))
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}
