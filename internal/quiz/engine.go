// Package quiz runs timed, sampled quiz attempts. Attempts are ephemeral:
// they live in memory for the duration of a session and are discarded on
// completion plus a short grace period for the learner to read the result.
package quiz

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vertechie/vertechie-learn/internal/catalog"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	// SampleSize is how many questions an attempt draws from the bank.
	SampleSize = 5

	// completedTTL is how long a finished attempt stays fetchable.
	completedTTL = 30 * time.Minute
)

var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
	ErrQuestionNotInSet = errors.New("question not part of this attempt")
	ErrAlreadyAnswered  = errors.New("question already answered in this attempt")
	ErrEmptyBank        = errors.New("no questions available")
)

type Result struct {
	QuestionID    string   `json:"question_id"`
	Answer        []string `json:"answer"`
	Correct       bool     `json:"correct"`
	PointsAwarded float64  `json:"points_awarded"`
	Explanation   string   `json:"explanation,omitempty"`
}

type Attempt struct {
	ID         string             `json:"id"`
	TutorialID string             `json:"tutorial_id"`
	UserID     string             `json:"user_id"`
	Status     string             `json:"status"`
	Questions  []catalog.Question `json:"questions"`
	Index      int                `json:"index"`
	Results    map[string]Result  `json:"results"`
	Deadline   time.Time          `json:"deadline"`
	TimedOut   bool               `json:"timed_out"`
	// ScorePercent is set when the attempt completes: awarded / max points.
	ScorePercent float64 `json:"score_percent"`

	completedAt time.Time
}

// snapshot copies the attempt for callers outside the engine lock. Results
// and Questions are cloned so handlers can encode the copy while the engine
// keeps mutating the stored attempt.
func (a *Attempt) snapshot() Attempt {
	s := *a
	s.Results = make(map[string]Result, len(a.Results))
	for id, r := range a.Results {
		s.Results[id] = r
	}
	s.Questions = append([]catalog.Question(nil), a.Questions...)
	return s
}

// Engine owns attempt state and the expiry sweeper.
type Engine struct {
	catalog            *catalog.Catalog
	grader             *Grader
	secondsPerQuestion int

	mu       sync.RWMutex
	attempts map[string]*Attempt

	rng *rand.Rand
	now func() time.Time
}

func NewEngine(cat *catalog.Catalog, secondsPerQuestion int) *Engine {
	if secondsPerQuestion <= 0 {
		secondsPerQuestion = 60
	}
	return &Engine{
		catalog:            cat,
		grader:             NewGrader(),
		secondsPerQuestion: secondsPerQuestion,
		attempts:           map[string]*Attempt{},
		rng:                rand.New(rand.NewSource(time.Now().UnixNano())),
		now:                time.Now,
	}
}

// Start samples min(SampleSize, |bank|) questions uniformly without
// replacement and opens a new attempt with a hard deadline of
// secondsPerQuestion x sample size.
func (e *Engine) Start(tutorialID, userID string) (Attempt, error) {
	bank := e.catalog.Bank(tutorialID)
	if len(bank) == 0 {
		return Attempt{}, ErrEmptyBank
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n := SampleSize
	if len(bank) < n {
		n = len(bank)
	}
	perm := e.rng.Perm(len(bank))
	qs := make([]catalog.Question, 0, n)
	for _, idx := range perm[:n] {
		qs = append(qs, bank[idx])
	}

	a := &Attempt{
		ID:         uuid.NewString(),
		TutorialID: tutorialID,
		UserID:     userID,
		Status:     StatusInProgress,
		Questions:  qs,
		Results:    map[string]Result{},
		Deadline:   e.now().Add(time.Duration(n*e.secondsPerQuestion) * time.Second),
	}
	e.attempts[a.ID] = a
	return a.snapshot(), nil
}

// Get returns a snapshot of an attempt.
func (e *Engine) Get(attemptID string) (Attempt, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a.snapshot(), nil
}

// SubmitAnswer grades one answer. A question can be answered at most once
// per attempt, and nothing can be submitted after completion.
func (e *Engine) SubmitAnswer(attemptID, questionID string, answer []string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.attempts[attemptID]
	if !ok {
		return Result{}, ErrAttemptNotFound
	}
	if a.Status == StatusCompleted {
		return Result{}, ErrAttemptCompleted
	}
	if e.now().After(a.Deadline) {
		e.completeLocked(a, true)
		return Result{}, ErrAttemptCompleted
	}

	var q *catalog.Question
	for i := range a.Questions {
		if a.Questions[i].ID == questionID {
			q = &a.Questions[i]
			break
		}
	}
	if q == nil {
		return Result{}, ErrQuestionNotInSet
	}
	if _, done := a.Results[questionID]; done {
		return Result{}, ErrAlreadyAnswered
	}

	pts := e.grader.Grade(*q, answer)
	res := Result{
		QuestionID:    questionID,
		Answer:        answer,
		Correct:       pts > 0,
		PointsAwarded: pts,
		Explanation:   q.Explanation,
	}
	a.Results[questionID] = res
	return res, nil
}

// Advance moves to the next question, or completes the attempt when none
// remain.
func (e *Engine) Advance(attemptID string) (Attempt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	if a.Status == StatusCompleted {
		return a.snapshot(), nil
	}
	if a.Index+1 < len(a.Questions) {
		a.Index++
	} else {
		e.completeLocked(a, false)
	}
	return a.snapshot(), nil
}

// Reset abandons the attempt and starts a fresh one with a newly sampled
// question set. Historical progress and certificates are untouched.
func (e *Engine) Reset(attemptID string) (Attempt, error) {
	e.mu.Lock()
	a, ok := e.attempts[attemptID]
	if !ok {
		e.mu.Unlock()
		return Attempt{}, ErrAttemptNotFound
	}
	tutorialID, userID := a.TutorialID, a.UserID
	delete(e.attempts, attemptID)
	e.mu.Unlock()

	return e.Start(tutorialID, userID)
}

func (e *Engine) completeLocked(a *Attempt, timedOut bool) {
	a.Status = StatusCompleted
	a.TimedOut = timedOut
	a.completedAt = e.now()

	var max, got float64
	for _, q := range a.Questions {
		max += q.Points
	}
	for _, r := range a.Results {
		got += r.PointsAwarded
	}
	if max > 0 {
		a.ScorePercent = 100 * got / max
	}
}

// Run drives the expiry sweeper until ctx is cancelled: once a second it
// force-completes attempts past their deadline (unanswered questions score
// zero) and drops completed attempts older than completedTTL.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.sweep()
		}
	}
}

func (e *Engine) sweep() {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, a := range e.attempts {
		switch a.Status {
		case StatusInProgress:
			if now.After(a.Deadline) {
				e.completeLocked(a, true)
			}
		case StatusCompleted:
			if now.Sub(a.completedAt) > completedTTL {
				delete(e.attempts, id)
			}
		}
	}
}
