package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed seed/*.yaml
var seedFS embed.FS

// FallbackBankSlug is served when a tutorial has no question bank of its own.
// Carried over from the original catalog behavior; topically wrong answers
// beat an empty quiz screen.
const FallbackBankSlug = "html"

var ErrTutorialNotFound = errors.New("tutorial not found")

// Catalog is the in-memory curriculum: read-only after load, safe for
// concurrent readers.
type Catalog struct {
	mu        sync.RWMutex
	tutorials map[string]*Tutorial
	order     []string
}

// Load builds a catalog from the embedded seed files plus, when dir is
// non-empty, any *.yaml files found below it (overriding seed entries with
// the same slug).
func Load(dir string) (*Catalog, error) {
	c := &Catalog{tutorials: map[string]*Tutorial{}}

	if err := fs.WalkDir(seedFS, "seed", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := seedFS.ReadFile(path)
		if err != nil {
			return err
		}
		return c.add(path, data)
	}); err != nil {
		return nil, fmt.Errorf("loading embedded curriculum: %w", err)
	}

	if dir != "" {
		if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return c.add(path, data)
		}); err != nil {
			return nil, fmt.Errorf("loading curriculum dir %s: %w", dir, err)
		}
	}

	sort.Strings(c.order)
	return c, nil
}

func (c *Catalog) add(path string, data []byte) error {
	var t Tutorial
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if t.Slug == "" {
		return fmt.Errorf("%s: tutorial slug missing", path)
	}
	if t.Difficulty == "" {
		t.Difficulty = DifficultyBeginner
	}
	for i := range t.Questions {
		if t.Questions[i].Points == 0 {
			t.Questions[i].Points = 10
		}
	}
	// total_lessons is denormalized; the loaded files are not trusted to have
	// kept it in sync.
	t.TotalLessons = t.lessonCount()

	c.mu.Lock()
	if _, exists := c.tutorials[t.Slug]; !exists {
		c.order = append(c.order, t.Slug)
	}
	c.tutorials[t.Slug] = &t
	c.mu.Unlock()
	return nil
}

// Get returns a tutorial by slug.
func (c *Catalog) Get(slug string) (*Tutorial, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tutorials[slug]
	if !ok {
		return nil, ErrTutorialNotFound
	}
	return t, nil
}

// All returns every tutorial in slug order.
func (c *Catalog) All() []*Tutorial {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Tutorial, 0, len(c.order))
	for _, slug := range c.order {
		out = append(out, c.tutorials[slug])
	}
	return out
}

// Bank returns the question bank for a tutorial. Unknown slugs and tutorials
// without questions fall back to FallbackBankSlug's bank.
func (c *Catalog) Bank(slug string) []Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.tutorials[slug]; ok && len(t.Questions) > 0 {
		return t.Questions
	}
	if t, ok := c.tutorials[FallbackBankSlug]; ok {
		return t.Questions
	}
	return nil
}

// ResolvedLesson is what lesson pages render.
type ResolvedLesson struct {
	TutorialSlug string
	Lesson       Lesson
	// Fallback is true when the requested slug was unknown and the
	// tutorial's first lesson was substituted.
	Fallback bool
}

// ResolveLesson maps (tutorial, lesson slug) to renderable content. An
// unknown lesson slug resolves to the tutorial's first lesson rather than an
// error; only an unknown tutorial (or an empty one) fails.
func (c *Catalog) ResolveLesson(tutorialSlug, lessonSlug string) (ResolvedLesson, error) {
	t, err := c.Get(tutorialSlug)
	if err != nil {
		return ResolvedLesson{}, err
	}
	if l, ok := t.FindLesson(lessonSlug); ok {
		return ResolvedLesson{TutorialSlug: t.Slug, Lesson: l}, nil
	}
	if l, ok := t.FirstLesson(); ok {
		return ResolvedLesson{TutorialSlug: t.Slug, Lesson: l, Fallback: true}, nil
	}
	return ResolvedLesson{}, fmt.Errorf("tutorial %s has no lessons", tutorialSlug)
}
