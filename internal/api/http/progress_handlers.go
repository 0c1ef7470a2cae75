package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	authmw "github.com/vertechie/vertechie-learn/internal/auth/middleware"
	"github.com/vertechie/vertechie-learn/internal/catalog"
	"github.com/vertechie/vertechie-learn/internal/certificate"
	"github.com/vertechie/vertechie-learn/internal/progress"
	"github.com/vertechie/vertechie-learn/internal/rbac"
)

type progressView struct {
	TutorialID string   `json:"tutorial_id"`
	Completed  []string `json:"completed"`
	Percentage int      `json:"percentage"`
}

func progressViewOf(t *catalog.Tutorial, done map[string]struct{}) progressView {
	slugs := make([]string, 0, len(done))
	for s := range done {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return progressView{
		TutorialID: t.Slug,
		Completed:  slugs,
		Percentage: progress.Percentage(len(done), t.TotalLessons),
	}
}

func GetProgressHandler(cat *catalog.Catalog, store *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.Get(chi.URLParam(r, "tutorialID"))
		if err != nil {
			http.Error(w, "tutorial not found", 404)
			return
		}
		done, err := store.Completed(r.Context(), rbac.SubjectFromContext(r.Context()), t.Slug)
		if err != nil {
			http.Error(w, "state error", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(progressViewOf(t, done))
	}
}

type completeLessonResp struct {
	progressView
	Certificate *certificate.Certificate `json:"certificate,omitempty"`
	NewlyIssued bool                     `json:"newly_issued,omitempty"`
}

// CompleteLessonHandler marks a lesson done. Re-completing is a no-op that
// still reports current progress. Hitting 100% on a certification-eligible
// tutorial issues the certificate inline; issuance problems never fail the
// progress write.
func CompleteLessonHandler(cat *catalog.Catalog, store *progress.Store, issuer *certificate.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.Get(chi.URLParam(r, "tutorialID"))
		if err != nil {
			http.Error(w, "tutorial not found", 404)
			return
		}
		slug := chi.URLParam(r, "lessonSlug")
		if _, ok := t.FindLesson(slug); !ok {
			http.Error(w, "lesson not found", 404)
			return
		}
		userID := rbac.SubjectFromContext(r.Context())
		pct, err := store.MarkLessonComplete(r.Context(), userID, t.Slug, slug, t.TotalLessons)
		if err != nil {
			http.Error(w, "state error", 500)
			return
		}
		done, err := store.Completed(r.Context(), userID, t.Slug)
		if err != nil {
			http.Error(w, "state error", 500)
			return
		}
		resp := completeLessonResp{progressView: progressViewOf(t, done)}
		resp.Percentage = pct

		if pct == 100 && t.Certification {
			holder := authmw.NameFromContext(r.Context())
			if holder == "" {
				holder = userID
			}
			cert, fresh, err := issuer.TryIssue(r.Context(), userID, certificate.IssueRequest{
				TutorialID:     t.Slug,
				TutorialTitle:  t.Title,
				HolderName:     holder,
				TotalLessons:   t.TotalLessons,
				CompletedCount: len(done),
			})
			if err != nil {
				log.Printf("certificate issue %s/%s: %v", userID, t.Slug, err)
			} else {
				resp.Certificate = &cert
				resp.NewlyIssued = fresh
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func ResetProgressHandler(cat *catalog.Catalog, store *progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.Get(chi.URLParam(r, "tutorialID"))
		if err != nil {
			http.Error(w, "tutorial not found", 404)
			return
		}
		if err := store.Reset(r.Context(), rbac.SubjectFromContext(r.Context()), t.Slug); err != nil {
			http.Error(w, "state error", 500)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
