package cms_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vertechie/vertechie-learn/internal/cms"
)

func newTestServer(t *testing.T) (*httptest.Server, *cms.Store) {
	t.Helper()
	st, _ := newTestStore(t)
	srv := httptest.NewServer(cms.Router(st))
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCreateCategoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, "POST", srv.URL+"/categories", `{"name": "Web Development"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if body["slug"] != "web-development" {
		t.Fatalf("slug = %v", body["slug"])
	}
}

func TestValidationErrorsUseDetailBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, "POST", srv.URL+"/categories", `{"name": ""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	detail, ok := body["detail"].(string)
	if !ok || detail == "" {
		t.Fatalf("missing detail in %v", body)
	}

	resp, body = doJSON(t, "POST", srv.URL+"/tutorials", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status = %d, want 400", resp.StatusCode)
	}
	if _, ok := body["detail"]; !ok {
		t.Fatalf("bad json body = %v", body)
	}
}

func TestNotFoundUsesDetailBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, "GET", srv.URL+"/tutorials/missing", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["detail"] != "not found" {
		t.Fatalf("body = %v", body)
	}
}

func TestDeleteCategoryInUseConflict(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	cat, err := st.CreateCategory(ctx, cms.CategoryInput{Name: str("Databases")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateTutorial(ctx, cms.TutorialInput{Title: str("SQL"), CategoryID: str(cat.ID)}); err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, "DELETE", srv.URL+"/categories/"+cat.ID, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if _, ok := body["detail"]; !ok {
		t.Fatalf("body = %v", body)
	}
}

func TestPublishEndpoints(t *testing.T) {
	srv, st := newTestServer(t)

	tut, err := st.CreateTutorial(context.Background(), cms.TutorialInput{Title: str("CSS")})
	if err != nil {
		t.Fatal(err)
	}
	resp, body := doJSON(t, "POST", srv.URL+"/tutorials/"+tut.ID+"/publish", "")
	if resp.StatusCode != http.StatusOK || body["status"] != cms.StatusPublished {
		t.Fatalf("publish: status=%d body=%v", resp.StatusCode, body)
	}
	resp, body = doJSON(t, "POST", srv.URL+"/tutorials/"+tut.ID+"/unpublish", "")
	if resp.StatusCode != http.StatusOK || body["status"] != cms.StatusDraft {
		t.Fatalf("unpublish: status=%d body=%v", resp.StatusCode, body)
	}
}

func TestBlockEndpointsValidatePayload(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	tut, err := st.CreateTutorial(ctx, cms.TutorialInput{Title: str("HTML")})
	if err != nil {
		t.Fatal(err)
	}
	sec, err := st.CreateSection(ctx, tut.ID, cms.SectionInput{Title: str("Intro")})
	if err != nil {
		t.Fatal(err)
	}
	lesson, err := st.CreateLesson(ctx, sec.ID, cms.LessonInput{Title: str("First")})
	if err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, "POST", srv.URL+"/lessons/"+lesson.ID+"/blocks",
		`{"type": "image", "content": {"alt": "no url"}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if d, _ := body["detail"].(string); !strings.Contains(d, "image") {
		t.Fatalf("detail = %v", body["detail"])
	}

	resp, _ = doJSON(t, "POST", srv.URL+"/lessons/"+lesson.ID+"/blocks",
		`{"type": "image", "content": {"url": "/assets/x.png", "alt": "ok"}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("valid block status = %d, want 201", resp.StatusCode)
	}
}
