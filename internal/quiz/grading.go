package quiz

import (
	"strings"

	"github.com/vertechie/vertechie-learn/internal/catalog"
)

// Strategy scores one submitted answer against a question. All strategies
// are all-or-nothing: full points on a correct answer, zero otherwise.
type Strategy interface {
	Grade(q catalog.Question, answer []string) float64
}

// Grader routes by question type to the correct Strategy.
type Grader struct {
	strategies map[string]Strategy
}

func NewGrader() *Grader {
	return &Grader{strategies: map[string]Strategy{
		catalog.QuestionSingle:   exactStrategy{},
		catalog.QuestionCode:     exactStrategy{},
		catalog.QuestionMultiple: setStrategy{},
		catalog.QuestionText:     textStrategy{},
	}}
}

func (g *Grader) Grade(q catalog.Question, answer []string) float64 {
	s, ok := g.strategies[q.Type]
	if !ok {
		return 0
	}
	return s.Grade(q, answer)
}

// exactStrategy: single-choice and code answers must match the key verbatim.
type exactStrategy struct{}

func (exactStrategy) Grade(q catalog.Question, answer []string) float64 {
	if len(answer) != 1 || len(q.Answer) == 0 {
		return 0
	}
	if answer[0] == q.Answer[0] {
		return q.Points
	}
	return 0
}

// setStrategy: the submitted set must equal the key set exactly. Proper
// subsets and supersets score zero.
type setStrategy struct{}

func (setStrategy) Grade(q catalog.Question, answer []string) float64 {
	if len(q.Answer) == 0 {
		return 0
	}
	if setEqual(toSet(answer), toSet(q.Answer)) {
		return q.Points
	}
	return 0
}

// textStrategy: case-insensitive, surrounding whitespace ignored.
type textStrategy struct{}

func (textStrategy) Grade(q catalog.Question, answer []string) float64 {
	if len(answer) != 1 {
		return 0
	}
	got := strings.ToLower(strings.TrimSpace(answer[0]))
	for _, k := range q.Answer {
		if got == strings.ToLower(strings.TrimSpace(k)) {
			return q.Points
		}
	}
	return 0
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
