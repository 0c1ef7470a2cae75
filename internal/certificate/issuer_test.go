package certificate

import (
	"context"
	"errors"
	"testing"

	"github.com/vertechie/vertechie-learn/internal/state"
)

func req() IssueRequest {
	return IssueRequest{
		TutorialID:     "html",
		TutorialTitle:  "HTML Fundamentals",
		HolderName:     "Ada Lovelace",
		TotalLessons:   5,
		CompletedCount: 5,
	}
}

func TestTryIssueRequiresCompletion(t *testing.T) {
	i := NewIssuer(state.NewMemoryKV())
	r := req()
	r.CompletedCount = 4
	if _, _, err := i.TryIssue(context.Background(), "u1", r); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("err = %v, want ErrNotComplete", err)
	}
	r = req()
	r.TotalLessons, r.CompletedCount = 0, 0
	if _, _, err := i.TryIssue(context.Background(), "u1", r); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("empty tutorial: err = %v, want ErrNotComplete", err)
	}
}

func TestTryIssueOncePerTutorial(t *testing.T) {
	i := NewIssuer(state.NewMemoryKV())
	ctx := context.Background()

	first, fresh, err := i.TryIssue(ctx, "u1", req())
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Fatal("first issue should report newly issued")
	}
	if first.HolderName != "Ada Lovelace" || first.TutorialID != "html" {
		t.Fatalf("unexpected certificate %+v", first)
	}

	second, fresh, err := i.TryIssue(ctx, "u1", req())
	if err != nil {
		t.Fatal(err)
	}
	if fresh {
		t.Fatal("repeat issue should not report newly issued")
	}
	if second.ID != first.ID {
		t.Fatalf("repeat returned a different certificate: %s vs %s", second.ID, first.ID)
	}

	certs, err := i.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 1 {
		t.Fatalf("certificates = %d, want 1", len(certs))
	}
}

func TestTryIssuePerUserScope(t *testing.T) {
	i := NewIssuer(state.NewMemoryKV())
	ctx := context.Background()

	if _, _, err := i.TryIssue(ctx, "u1", req()); err != nil {
		t.Fatal(err)
	}
	_, fresh, err := i.TryIssue(ctx, "u2", req())
	if err != nil {
		t.Fatal(err)
	}
	if !fresh {
		t.Fatal("different user should get their own certificate")
	}
}

// failingKV accepts reads but rejects writes.
type failingKV struct{ state.KV }

func (f failingKV) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

func TestTryIssueSwallowsWriteFailure(t *testing.T) {
	i := NewIssuer(failingKV{state.NewMemoryKV()})
	cert, fresh, err := i.TryIssue(context.Background(), "u1", req())
	if err != nil {
		t.Fatalf("write failure must not fail issuance, got %v", err)
	}
	if !fresh || cert.ID == "" {
		t.Fatalf("expected issued certificate despite write failure, got %+v fresh=%v", cert, fresh)
	}
}

func TestListToleratesCorruptState(t *testing.T) {
	kv := state.NewMemoryKV()
	ctx := context.Background()
	if err := kv.Set(ctx, "certificates:u1", []byte("nope")); err != nil {
		t.Fatal(err)
	}
	certs, err := NewIssuer(kv).List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 0 {
		t.Fatalf("certificates = %d, want 0", len(certs))
	}
}
