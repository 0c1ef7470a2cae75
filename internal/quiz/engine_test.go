package quiz

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/vertechie/vertechie-learn/internal/catalog"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(cat, 60)
}

func TestStartSamplesWithoutReplacement(t *testing.T) {
	e := testEngine(t)

	// html bank has more than SampleSize questions
	a, err := e.Start("html", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Questions) != SampleSize {
		t.Fatalf("sampled %d questions, want %d", len(a.Questions), SampleSize)
	}
	seen := map[string]bool{}
	for _, q := range a.Questions {
		if seen[q.ID] {
			t.Fatalf("question %s sampled twice", q.ID)
		}
		seen[q.ID] = true
	}
	if a.Status != StatusInProgress || a.Index != 0 {
		t.Fatalf("fresh attempt: status=%s index=%d", a.Status, a.Index)
	}
}

func TestStartSmallBankUsesAllQuestions(t *testing.T) {
	e := testEngine(t)

	// css bank has fewer questions than SampleSize
	a, err := e.Start("css", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Questions) != 2 {
		t.Fatalf("sampled %d questions, want 2", len(a.Questions))
	}
	wantDeadline := 2 * 60 * time.Second
	if got := time.Until(a.Deadline).Round(time.Second); got != wantDeadline {
		t.Fatalf("deadline in %v, want %v", got, wantDeadline)
	}
}

func TestStartUnknownTutorialFallsBackToDefaultBank(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("no-such-tutorial", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Questions) != SampleSize {
		t.Fatalf("fallback bank sampled %d questions, want %d", len(a.Questions), SampleSize)
	}
}

func TestSubmitAndAdvanceFlow(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("css", "u1")
	if err != nil {
		t.Fatal(err)
	}

	q0 := a.Questions[0]
	res, err := e.SubmitAnswer(a.ID, q0.ID, q0.Answer)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Correct || res.PointsAwarded != q0.Points {
		t.Fatalf("key answer graded %+v", res)
	}

	if _, err := e.SubmitAnswer(a.ID, q0.ID, q0.Answer); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("resubmission err = %v, want ErrAlreadyAnswered", err)
	}
	if _, err := e.SubmitAnswer(a.ID, "bogus", nil); !errors.Is(err, ErrQuestionNotInSet) {
		t.Fatalf("foreign question err = %v, want ErrQuestionNotInSet", err)
	}

	a, err = e.Advance(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Index != 1 || a.Status != StatusInProgress {
		t.Fatalf("after advance: index=%d status=%s", a.Index, a.Status)
	}

	// skip the last question unanswered
	a, err = e.Advance(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != StatusCompleted {
		t.Fatalf("status = %s, want completed", a.Status)
	}
	if a.TimedOut {
		t.Fatal("normal completion must not be marked timed out")
	}
	wantScore := 100 * q0.Points / (a.Questions[0].Points + a.Questions[1].Points)
	if a.ScorePercent != wantScore {
		t.Fatalf("score = %v, want %v", a.ScorePercent, wantScore)
	}

	if _, err := e.SubmitAnswer(a.ID, a.Questions[1].ID, nil); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("submit after completion err = %v, want ErrAttemptCompleted", err)
	}
}

func TestDeadlineForcesCompletion(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("css", "u1")
	if err != nil {
		t.Fatal(err)
	}

	e.now = func() time.Time { return a.Deadline.Add(time.Second) }
	e.sweep()

	got, err := e.Get(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted || !got.TimedOut {
		t.Fatalf("after deadline: status=%s timedOut=%v", got.Status, got.TimedOut)
	}
	if got.ScorePercent != 0 {
		t.Fatalf("unanswered questions must score zero, got %v", got.ScorePercent)
	}
}

func TestSubmitPastDeadlineCompletes(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("css", "u1")
	if err != nil {
		t.Fatal(err)
	}
	e.now = func() time.Time { return a.Deadline.Add(time.Minute) }

	if _, err := e.SubmitAnswer(a.ID, a.Questions[0].ID, nil); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("err = %v, want ErrAttemptCompleted", err)
	}
	got, _ := e.Get(a.ID)
	if got.Status != StatusCompleted || !got.TimedOut {
		t.Fatalf("late submit: status=%s timedOut=%v", got.Status, got.TimedOut)
	}
}

func TestResetStartsFreshAttempt(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("html", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.SubmitAnswer(a.ID, a.Questions[0].ID, a.Questions[0].Answer); err != nil {
		t.Fatal(err)
	}

	fresh, err := e.Reset(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.ID == a.ID {
		t.Fatal("reset must mint a new attempt ID")
	}
	if len(fresh.Results) != 0 || fresh.Index != 0 {
		t.Fatalf("reset attempt carries state: %+v", fresh)
	}
	if _, err := e.Get(a.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("old attempt err = %v, want ErrAttemptNotFound", err)
	}
}

func TestSnapshotsIsolatedFromLiveAttempt(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("html", "u1")
	if err != nil {
		t.Fatal(err)
	}

	before, err := e.Get(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.SubmitAnswer(a.ID, a.Questions[0].ID, a.Questions[0].Answer); err != nil {
		t.Fatal(err)
	}
	if len(before.Results) != 0 {
		t.Fatalf("earlier snapshot gained %d results after submit", len(before.Results))
	}

	// Writes to a snapshot must not leak into the engine's copy either.
	before.Results["forged"] = Result{QuestionID: "forged"}
	before.Questions[0].ID = "clobbered"
	got, err := e.Get(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Results["forged"]; ok {
		t.Fatal("snapshot map write reached the stored attempt")
	}
	if got.Questions[0].ID == "clobbered" {
		t.Fatal("snapshot slice write reached the stored attempt")
	}
}

// Encoding a snapshot while answers land concurrently must be safe; run with
// -race to verify.
func TestConcurrentGetAndSubmit(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("html", "u1")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, q := range a.Questions {
			if _, err := e.SubmitAnswer(a.ID, q.ID, q.Answer); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		snap, err := e.Get(a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := json.Marshal(snap); err != nil {
			t.Fatal(err)
		}
	}
	<-done
}

func TestSweepDropsStaleCompleted(t *testing.T) {
	e := testEngine(t)
	a, err := e.Start("css", "u1")
	if err != nil {
		t.Fatal(err)
	}
	for range a.Questions {
		if _, err := e.Advance(a.ID); err != nil {
			t.Fatal(err)
		}
	}

	e.now = func() time.Time { return time.Now().Add(completedTTL + time.Minute) }
	e.sweep()

	if _, err := e.Get(a.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("stale attempt err = %v, want ErrAttemptNotFound", err)
	}
}
