// Package certificate issues one immutable completion certificate per
// (user, tutorial). The per-user certificate list lives behind the state.KV
// port alongside progress data.
package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vertechie/vertechie-learn/internal/state"
)

var ErrNotComplete = errors.New("tutorial not complete")

type Certificate struct {
	ID            string `json:"id"`
	TutorialID    string `json:"tutorial_id"`
	TutorialTitle string `json:"tutorial_title"`
	HolderName    string `json:"holder_name"`
	IssuedAt      int64  `json:"issued_at"`
	TotalLessons  int    `json:"total_lessons"`
}

type IssueRequest struct {
	TutorialID     string
	TutorialTitle  string
	HolderName     string
	TotalLessons   int
	CompletedCount int
}

type Issuer struct {
	kv  state.KV
	now func() time.Time
}

func NewIssuer(kv state.KV) *Issuer {
	return &Issuer{kv: kv, now: time.Now}
}

func certKey(userID string) string { return "certificates:" + userID }

// List returns the user's certificates. Malformed persisted state reads as
// an empty list.
func (i *Issuer) List(ctx context.Context, userID string) ([]Certificate, error) {
	buf, err := i.kv.Get(ctx, certKey(userID))
	if errors.Is(err, state.ErrNoKey) {
		return []Certificate{}, nil
	}
	if err != nil {
		return nil, err
	}
	var certs []Certificate
	if json.Unmarshal(buf, &certs) != nil {
		return []Certificate{}, nil
	}
	return certs, nil
}

// TryIssue grants a certificate once per (user, tutorial). The second return
// is true only when this call created the record; repeat calls return the
// existing certificate. A persistence failure after the completion check is
// logged and swallowed so the completion flow itself never fails.
func (i *Issuer) TryIssue(ctx context.Context, userID string, req IssueRequest) (Certificate, bool, error) {
	if req.TotalLessons <= 0 || req.CompletedCount < req.TotalLessons {
		return Certificate{}, false, ErrNotComplete
	}

	certs, err := i.List(ctx, userID)
	if err != nil {
		return Certificate{}, false, err
	}
	for _, c := range certs {
		if c.TutorialID == req.TutorialID {
			return c, false, nil
		}
	}

	cert := Certificate{
		ID:            uuid.NewString(),
		TutorialID:    req.TutorialID,
		TutorialTitle: req.TutorialTitle,
		HolderName:    req.HolderName,
		IssuedAt:      i.now().Unix(),
		TotalLessons:  req.TotalLessons,
	}
	certs = append(certs, cert)
	buf, err := json.Marshal(certs)
	if err == nil {
		err = i.kv.Set(ctx, certKey(userID), buf)
	}
	if err != nil {
		// The learner still completed the tutorial; do not fail the flow.
		log.Printf("certificate write failed for user=%s tutorial=%s: %v", userID, req.TutorialID, err)
	}
	return cert, true, nil
}
