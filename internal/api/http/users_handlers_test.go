package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite" // driver for "sqlite"

	"github.com/vertechie/vertechie-learn/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbh.Close() })
	if err := db.EnsureSchema(context.Background(), dbh, db.DriverSQLite); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return dbh
}

func usersServer(t *testing.T, dbh *sql.DB) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(identity("u-author", "Grace Hopper"))
	r.Post("/users/bulk", BulkUpsertUsersHandler(dbh))
	r.Get("/users", ListUsersHandler(dbh))
	r.Post("/users/me/password", ChangePasswordHandler(dbh))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestBulkUpsertRosterCSV(t *testing.T) {
	dbh := newTestDB(t)
	srv := usersServer(t, dbh)

	csvBody := "username,display_name,role,password\n" +
		"ada,Ada Lovelace,student,correct-horse\n" +
		"grace,,author,battery-staple\n"
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "roster.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(csvBody))
	mw.Close()

	resp, err := http.Post(srv.URL+"/users/bulk", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var counts map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		t.Fatal(err)
	}
	if counts["inserted"] != 2 || counts["updated"] != 0 {
		t.Fatalf("counts = %v, want 2 inserted", counts)
	}

	// missing display_name falls back to the username
	var name string
	if err := dbh.QueryRow(`SELECT display_name FROM users WHERE username='grace'`).Scan(&name); err != nil {
		t.Fatal(err)
	}
	if name != "grace" {
		t.Fatalf("display_name = %q, want username fallback", name)
	}
}

func TestBulkUpsertJSONBodyAndUpdate(t *testing.T) {
	dbh := newTestDB(t)
	srv := usersServer(t, dbh)

	postRoster := func(rows string) map[string]int {
		t.Helper()
		resp, err := http.Post(srv.URL+"/users/bulk", "application/json", strings.NewReader(rows))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var counts map[string]int
		if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
			t.Fatal(err)
		}
		return counts
	}

	counts := postRoster(`[{"username":"ada","password":"correct-horse"}]`)
	if counts["inserted"] != 1 {
		t.Fatalf("counts = %v, want 1 inserted", counts)
	}
	// role omitted defaults to student
	var role string
	if err := dbh.QueryRow(`SELECT role FROM users WHERE username='ada'`).Scan(&role); err != nil {
		t.Fatal(err)
	}
	if role != "student" {
		t.Fatalf("role = %q, want student", role)
	}

	// existing username is an update, password optional
	counts = postRoster(`[{"username":"ada","display_name":"Ada L","role":"author"}]`)
	if counts["updated"] != 1 || counts["inserted"] != 0 {
		t.Fatalf("counts = %v, want 1 updated", counts)
	}

	// new users without a password are rejected outright
	resp, err := http.Post(srv.URL+"/users/bulk", "application/json",
		strings.NewReader(`[{"username":"nopass"}]`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 500 {
		t.Fatalf("passwordless new user: status = %d", resp.StatusCode)
	}
}

func TestListUsersRoleFilter(t *testing.T) {
	dbh := newTestDB(t)
	srv := usersServer(t, dbh)

	roster := `[{"username":"ada","role":"student","password":"pw-ada-1234"},
		{"username":"grace","role":"author","password":"pw-grace-1234"}]`
	resp, err := http.Post(srv.URL+"/users/bulk", "application/json", strings.NewReader(roster))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var out []userRow
	if code := get(t, srv.URL+"/users?role=author", &out); code != 200 {
		t.Fatalf("status = %d", code)
	}
	if len(out) != 1 || out[0].Username != "grace" {
		t.Fatalf("authors = %+v", out)
	}
}

func TestChangePassword(t *testing.T) {
	dbh := newTestDB(t)
	r := chi.NewRouter()
	r.Use(identity("u-ada", "Ada"))
	r.Post("/users/bulk", BulkUpsertUsersHandler(dbh))
	r.Post("/users/me/password", ChangePasswordHandler(dbh))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	roster := `[{"id":"u-ada","username":"ada.lovelace","password":"old-password"}]`
	resp, err := http.Post(srv.URL+"/users/bulk", "application/json", strings.NewReader(roster))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	change := func(old, next string) int {
		t.Helper()
		body := `{"old_password":"` + old + `","new_password":"` + next + `"}`
		resp, err := http.Post(srv.URL+"/users/me/password", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := change("old-password", "short"); code != 400 {
		t.Fatalf("short password: status = %d, want 400", code)
	}
	if code := change("old-password", "ADA.LOVELACE"); code != 400 {
		t.Fatalf("username as password: status = %d, want 400", code)
	}
	if code := change("wrong-old", "fresh-password"); code != 403 {
		t.Fatalf("wrong old password: status = %d, want 403", code)
	}
	if code := change("old-password", "old-password"); code != 400 {
		t.Fatalf("unchanged password: status = %d, want 400", code)
	}
	if code := change("old-password", "fresh-password"); code != 204 {
		t.Fatalf("status = %d, want 204", code)
	}
	if code := change("fresh-password", "another-pass"); code != 204 {
		t.Fatalf("rotate again: status = %d, want 204", code)
	}
}
