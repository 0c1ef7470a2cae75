package cms

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router exposes the authoring REST surface. Mounted under /admin by the
// gateway; auth is the caller's concern.
func Router(st *Store) http.Handler {
	r := chi.NewRouter()

	r.Get("/categories", listCategoriesHandler(st))
	r.Post("/categories", createCategoryHandler(st))
	r.Put("/categories/{id}", updateCategoryHandler(st))
	r.Delete("/categories/{id}", deleteCategoryHandler(st))

	r.Get("/tutorials", listTutorialsHandler(st))
	r.Post("/tutorials", createTutorialHandler(st))
	r.Get("/tutorials/{id}", getTutorialHandler(st))
	r.Put("/tutorials/{id}", updateTutorialHandler(st))
	r.Delete("/tutorials/{id}", deleteTutorialHandler(st))
	r.Post("/tutorials/{id}/publish", setStatusHandler(st, StatusPublished))
	r.Post("/tutorials/{id}/unpublish", setStatusHandler(st, StatusDraft))
	r.Post("/tutorials/{id}/sections", createSectionHandler(st))

	r.Put("/sections/{id}", updateSectionHandler(st))
	r.Delete("/sections/{id}", deleteSectionHandler(st))
	r.Post("/sections/{id}/lessons", createLessonHandler(st))

	r.Get("/lessons/{id}", getLessonHandler(st))
	r.Put("/lessons/{id}", updateLessonHandler(st))
	r.Delete("/lessons/{id}", deleteLessonHandler(st))
	r.Post("/lessons/{id}/blocks", createBlockHandler(st))

	r.Put("/blocks/{id}", updateBlockHandler(st))
	r.Delete("/blocks/{id}", deleteBlockHandler(st))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail emits the {"detail": "..."} error body every authoring
// endpoint uses.
func writeDetail(w http.ResponseWriter, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": ve.Msg})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
	case errors.Is(err, ErrCategoryInUse):
		writeJSON(w, http.StatusConflict, map[string]string{"detail": ErrCategoryInUse.Error()})
	default:
		log.Printf("cms: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return validationErrf("invalid JSON body: %v", err)
	}
	return nil
}

func listCategoriesHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeHidden := r.URL.Query().Get("include_hidden") == "true"
		cats, err := st.ListCategories(r.Context(), includeHidden)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func createCategoryHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CategoryInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		c, err := st.CreateCategory(r.Context(), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateCategoryHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CategoryInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		c, err := st.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteCategoryHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDetail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listTutorialsHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := st.ListTutorials(r.Context(), r.URL.Query().Get("category_id"))
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ts)
	}
}

func getTutorialHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.GetTutorial(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func createTutorialHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in TutorialInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		t, err := st.CreateTutorial(r.Context(), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func updateTutorialHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in TutorialInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		t, err := st.UpdateTutorial(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteTutorialHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteTutorial(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDetail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setStatusHandler(st *Store, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := st.SetStatus(r.Context(), chi.URLParam(r, "id"), status)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func createSectionHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in SectionInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		sec, err := st.CreateSection(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sec)
	}
}

func updateSectionHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in SectionInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		sec, err := st.UpdateSection(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sec)
	}
}

func deleteSectionHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteSection(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDetail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createLessonHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in LessonInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		l, err := st.CreateLesson(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func getLessonHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := st.GetLesson(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func updateLessonHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in LessonInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		l, err := st.UpdateLesson(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func deleteLessonHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteLesson(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDetail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createBlockHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ContentBlockInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		b, err := st.CreateBlock(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)
	}
}

func updateBlockHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in ContentBlockInput
		if err := decode(r, &in); err != nil {
			writeDetail(w, err)
			return
		}
		b, err := st.UpdateBlock(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDetail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBlockHandler(st *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.DeleteBlock(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDetail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
