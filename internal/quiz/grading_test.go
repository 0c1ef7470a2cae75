package quiz

import (
	"testing"

	"github.com/vertechie/vertechie-learn/internal/catalog"
)

func TestGradeSingleChoice(t *testing.T) {
	g := NewGrader()
	q := catalog.Question{ID: "q1", Type: catalog.QuestionSingle, Answer: []string{"b"}, Points: 10}

	if pts := g.Grade(q, []string{"b"}); pts != 10 {
		t.Fatalf("correct answer: pts = %v, want 10", pts)
	}
	if pts := g.Grade(q, []string{"a"}); pts != 0 {
		t.Fatalf("wrong answer: pts = %v, want 0", pts)
	}
	if pts := g.Grade(q, nil); pts != 0 {
		t.Fatalf("no answer: pts = %v, want 0", pts)
	}
}

func TestGradeMultipleChoiceExactSet(t *testing.T) {
	g := NewGrader()
	q := catalog.Question{ID: "q2", Type: catalog.QuestionMultiple, Answer: []string{"a", "c"}, Points: 10}

	cases := []struct {
		name   string
		answer []string
		want   float64
	}{
		{"exact", []string{"a", "c"}, 10},
		{"order irrelevant", []string{"c", "a"}, 10},
		{"subset earns nothing", []string{"a"}, 0},
		{"superset earns nothing", []string{"a", "b", "c"}, 0},
		{"disjoint", []string{"b"}, 0},
		{"empty", nil, 0},
	}
	for _, c := range cases {
		if pts := g.Grade(q, c.answer); pts != c.want {
			t.Errorf("%s: pts = %v, want %v", c.name, pts, c.want)
		}
	}
}

func TestGradeTextNormalized(t *testing.T) {
	g := NewGrader()
	q := catalog.Question{ID: "q3", Type: catalog.QuestionText, Answer: []string{"HyperText Markup Language"}, Points: 5}

	if pts := g.Grade(q, []string{"  hypertext markup language "}); pts != 5 {
		t.Fatalf("normalized match: pts = %v, want 5", pts)
	}
	if pts := g.Grade(q, []string{"hypertext markup"}); pts != 0 {
		t.Fatalf("partial text: pts = %v, want 0", pts)
	}
}

func TestGradeCodeVerbatim(t *testing.T) {
	g := NewGrader()
	q := catalog.Question{ID: "q4", Type: catalog.QuestionCode, Answer: []string{"<br>"}, Points: 10}

	if pts := g.Grade(q, []string{"<br>"}); pts != 10 {
		t.Fatalf("exact code: pts = %v, want 10", pts)
	}
	if pts := g.Grade(q, []string{"<BR>"}); pts != 0 {
		t.Fatalf("code comparison is verbatim: pts = %v, want 0", pts)
	}
}
