package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vertechie/vertechie-learn/internal/catalog"
	"github.com/vertechie/vertechie-learn/internal/render"
)

func ListTutorialsHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(cat.All())
	}
}

func GetTutorialHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.Get(chi.URLParam(r, "tutorialID"))
		if err != nil {
			http.Error(w, "tutorial not found", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(t)
	}
}

type lessonPage struct {
	TutorialID string         `json:"tutorial_id"`
	Lesson     catalog.Lesson `json:"lesson"`
	// BodyHTML is the rendered lesson markup; TryItCode seeds the editor.
	BodyHTML  string `json:"body_html"`
	TryItCode string `json:"try_it_code,omitempty"`
	Fallback  bool   `json:"fallback"`
}

// GetLessonHandler resolves a lesson slug within a tutorial. Unknown lesson
// slugs resolve to the tutorial's first lesson; the response flags the
// substitution so clients can fix their URL.
func GetLessonHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := cat.ResolveLesson(chi.URLParam(r, "tutorialID"), chi.URLParam(r, "lessonSlug"))
		if err != nil {
			http.Error(w, "tutorial not found", 404)
			return
		}
		_ = json.NewEncoder(w).Encode(lessonPage{
			TutorialID: res.TutorialSlug,
			Lesson:     res.Lesson,
			BodyHTML:   render.Markup(res.Lesson.Body),
			TryItCode:  res.Lesson.TryItCode,
			Fallback:   res.Fallback,
		})
	}
}
