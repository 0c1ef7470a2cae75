// Package progress tracks which lessons a learner has completed per
// tutorial. The completed set is persisted whole on every mutation through
// the state.KV port; corrupt or missing persisted data reads as empty.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"

	"github.com/vertechie/vertechie-learn/internal/state"
)

type Store struct {
	kv state.KV
}

func NewStore(kv state.KV) *Store { return &Store{kv: kv} }

func progressKey(userID, tutorialID string) string {
	return "progress:" + userID + ":" + tutorialID
}

// Completed returns the persisted completed-lesson set. Unreadable or
// malformed state fails soft to an empty set.
func (s *Store) Completed(ctx context.Context, userID, tutorialID string) (map[string]struct{}, error) {
	buf, err := s.kv.Get(ctx, progressKey(userID, tutorialID))
	if errors.Is(err, state.ErrNoKey) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	var slugs []string
	if json.Unmarshal(buf, &slugs) != nil {
		return map[string]struct{}{}, nil
	}
	set := make(map[string]struct{}, len(slugs))
	for _, sl := range slugs {
		set[sl] = struct{}{}
	}
	return set, nil
}

// MarkLessonComplete idempotently adds lessonSlug to the tutorial's
// completed set, persists the full set and returns the updated completion
// percentage against totalLessons.
func (s *Store) MarkLessonComplete(ctx context.Context, userID, tutorialID, lessonSlug string, totalLessons int) (int, error) {
	set, err := s.Completed(ctx, userID, tutorialID)
	if err != nil {
		return 0, err
	}
	if _, done := set[lessonSlug]; !done {
		set[lessonSlug] = struct{}{}
		slugs := make([]string, 0, len(set))
		for sl := range set {
			slugs = append(slugs, sl)
		}
		sort.Strings(slugs)
		buf, err := json.Marshal(slugs)
		if err != nil {
			return 0, err
		}
		if err := s.kv.Set(ctx, progressKey(userID, tutorialID), buf); err != nil {
			return 0, err
		}
	}
	return Percentage(len(set), totalLessons), nil
}

// Reset clears a tutorial's progress for a user (explicit learner action;
// normal flows never delete progress).
func (s *Store) Reset(ctx context.Context, userID, tutorialID string) error {
	return s.kv.Delete(ctx, progressKey(userID, tutorialID))
}

// Percentage is round(100*completed/total) clamped to [0,100], and 0 when
// total is 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(100 * float64(completed) / float64(total)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
