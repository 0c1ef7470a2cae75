package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedSeed(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for _, slug := range []string{"html", "css", "javascript", "sql", "git"} {
		if _, err := c.Get(slug); err != nil {
			t.Errorf("missing seed tutorial %s: %v", slug, err)
		}
	}
	if _, err := c.Get("cobol"); !errors.Is(err, ErrTutorialNotFound) {
		t.Fatalf("unknown slug err = %v, want ErrTutorialNotFound", err)
	}
}

func TestLoadRecomputesTotalLessons(t *testing.T) {
	dir := t.TempDir()
	// total_lessons lies on purpose; the loader must not trust it
	src := `slug: lying
title: Lying Tutorial
total_lessons: 99
chapters:
  - title: One
    lessons:
      - slug: a
        title: A
      - slug: b
        title: B
`
	if err := os.WriteFile(filepath.Join(dir, "lying.yaml"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	tut, err := c.Get("lying")
	if err != nil {
		t.Fatal(err)
	}
	if tut.TotalLessons != 2 {
		t.Fatalf("TotalLessons = %d, want 2", tut.TotalLessons)
	}
	if tut.Difficulty != DifficultyBeginner {
		t.Fatalf("default difficulty = %q", tut.Difficulty)
	}
}

func TestLoadDirOverridesSeed(t *testing.T) {
	dir := t.TempDir()
	src := "slug: css\ntitle: CSS Overridden\nchapters: []\n"
	if err := os.WriteFile(filepath.Join(dir, "css.yaml"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	tut, err := c.Get("css")
	if err != nil {
		t.Fatal(err)
	}
	if tut.Title != "CSS Overridden" {
		t.Fatalf("title = %q, want override", tut.Title)
	}
}

func TestBankFallback(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	htmlBank := c.Bank("html")
	if len(htmlBank) == 0 {
		t.Fatal("html bank empty")
	}
	fallback := c.Bank("no-such-tutorial")
	if len(fallback) != len(htmlBank) {
		t.Fatalf("fallback bank has %d questions, want %d", len(fallback), len(htmlBank))
	}
	for i := range fallback {
		if fallback[i].ID != htmlBank[i].ID {
			t.Fatalf("fallback bank differs from %s bank at %d", FallbackBankSlug, i)
		}
	}
}

func TestDefaultQuestionPoints(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range c.Bank("html") {
		if q.Points <= 0 {
			t.Errorf("question %s has no points", q.ID)
		}
	}
}

func TestResolveLessonFallback(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	tut, err := c.Get("html")
	if err != nil {
		t.Fatal(err)
	}
	first, _ := tut.FirstLesson()

	res, err := c.ResolveLesson("html", first.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fallback || res.Lesson.Slug != first.Slug {
		t.Fatalf("exact resolve: %+v", res)
	}

	res, err = c.ResolveLesson("html", "no-such-lesson")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback || res.Lesson.Slug != first.Slug {
		t.Fatalf("fallback resolve: %+v", res)
	}

	if _, err := c.ResolveLesson("no-such-tutorial", "x"); !errors.Is(err, ErrTutorialNotFound) {
		t.Fatalf("unknown tutorial err = %v", err)
	}
}
