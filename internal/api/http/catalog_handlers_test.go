package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vertechie/vertechie-learn/internal/catalog"
	"github.com/vertechie/vertechie-learn/internal/render"
)

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Get("/tutorials", ListTutorialsHandler(cat))
	r.Get("/tutorials/{tutorialID}", GetTutorialHandler(cat))
	r.Get("/tutorials/{tutorialID}/lessons/{lessonSlug}", GetLessonHandler(cat))
	r.Post("/tutorials/{tutorialID}/tryit", TryItHandler(cat))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetLessonRendersBody(t *testing.T) {
	srv := catalogServer(t)

	var page struct {
		TutorialID string `json:"tutorial_id"`
		BodyHTML   string `json:"body_html"`
		Fallback   bool   `json:"fallback"`
	}
	if code := get(t, srv.URL+"/tutorials/html/lessons/intro", &page); code != 200 {
		t.Fatalf("status %d", code)
	}
	if page.Fallback {
		t.Fatal("exact slug flagged as fallback")
	}
	if !strings.Contains(page.BodyHTML, "<") {
		t.Fatalf("body not rendered: %q", page.BodyHTML)
	}
}

func TestGetLessonFallsBackToFirst(t *testing.T) {
	srv := catalogServer(t)

	var page struct {
		Lesson   catalog.Lesson `json:"lesson"`
		Fallback bool           `json:"fallback"`
	}
	if code := get(t, srv.URL+"/tutorials/html/lessons/not-a-lesson", &page); code != 200 {
		t.Fatalf("status %d", code)
	}
	if !page.Fallback || page.Lesson.Slug != "intro" {
		t.Fatalf("fallback page = %+v", page)
	}

	resp, err := http.Get(srv.URL + "/tutorials/not-a-tutorial/lessons/x")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("unknown tutorial status %d, want 404", resp.StatusCode)
	}
}

func TestTryItRunnableReturnsHTMLDocument(t *testing.T) {
	srv := catalogServer(t)

	resp, err := http.Post(srv.URL+"/tutorials/html/tryit", "application/json",
		strings.NewReader(`{"code": "<h1>Hello</h1>"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q, want text/html", ct)
	}
}

func TestTryItStaticReturnsInstructions(t *testing.T) {
	srv := catalogServer(t)

	resp, err := http.Post(srv.URL+"/tutorials/sql/tryit", "application/json",
		strings.NewReader(`{"code": "SELECT 1;"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out render.TryIt
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Runnable || out.Instructions == "" || out.Code != "SELECT 1;" {
		t.Fatalf("static tryit = %+v", out)
	}
}
