package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vertechie/vertechie-learn/internal/catalog"
	"github.com/vertechie/vertechie-learn/internal/render"
)

// TryItHandler runs the lesson editor buffer. Runnable tutorials get back a
// complete HTML document for an isolated preview frame; everything else gets
// JSON instructions for running the code locally.
func TryItHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.Get(chi.URLParam(r, "tutorialID"))
		if err != nil {
			http.Error(w, "tutorial not found", 404)
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		out := render.Preview(t, req.Code)
		if out.Runnable {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(out.Document))
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
