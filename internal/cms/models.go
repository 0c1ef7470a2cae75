// Package cms is the authoring backend for the Category - Tutorial -
// Section - Lesson - ContentBlock hierarchy. Learners never write through
// this package; published tutorials are what the catalog serves.
package cms

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrCategoryInUse = errors.New("category still has tutorials")
)

// ValidationError carries a message surfaced verbatim in the API's
// {"detail": ...} error body.
type ValidationError struct{ Msg string }

func (e ValidationError) Error() string { return e.Msg }

func validationErrf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"display_order"`
	Visible      bool   `json:"visible"`
	Featured     bool   `json:"featured"`
	CourseCount  int    `json:"course_count"`
	CreatedAt    int64  `json:"created_at"`
}

type CategoryInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
	Visible     *bool   `json:"visible"`
	Featured    *bool   `json:"featured"`
}

type TutorialSummary struct {
	ID           string  `json:"id"`
	CategoryID   string  `json:"category_id,omitempty"`
	Slug         string  `json:"slug"`
	Title        string  `json:"title"`
	ShortTitle   string  `json:"short_title"`
	Difficulty   string  `json:"difficulty"`
	TotalLessons int     `json:"total_lessons"`
	EstimatedHrs float64 `json:"estimated_hours"`
	Status       string  `json:"status"`
	DisplayOrder int     `json:"display_order"`
}

type Tutorial struct {
	TutorialSummary
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	Color        string    `json:"color"`
	BgColor      string    `json:"bg_color"`
	Tags         []string  `json:"tags"`
	Free         bool      `json:"free"`
	CertEligible bool      `json:"cert_eligible"`
	LearnerCount int       `json:"learner_count"`
	RatingCount  int       `json:"rating_count"`
	Sections     []Section `json:"sections"`
	CreatedAt    int64     `json:"created_at"`
	UpdatedAt    int64     `json:"updated_at"`
}

type TutorialInput struct {
	CategoryID   *string   `json:"category_id"`
	Slug         *string   `json:"slug"`
	Title        *string   `json:"title"`
	ShortTitle   *string   `json:"short_title"`
	Description  *string   `json:"description"`
	Icon         *string   `json:"icon"`
	Color        *string   `json:"color"`
	BgColor      *string   `json:"bg_color"`
	Difficulty   *string   `json:"difficulty"`
	Tags         *[]string `json:"tags"`
	EstimatedHrs *float64  `json:"estimated_hours"`
	Free         *bool     `json:"free"`
	CertEligible *bool     `json:"cert_eligible"`
}

type Section struct {
	ID           string   `json:"id"`
	TutorialID   string   `json:"tutorial_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DisplayOrder int      `json:"display_order"`
	Visible      bool     `json:"visible"`
	FreePreview  bool     `json:"free_preview"`
	EstMinutes   int      `json:"estimated_minutes"`
	Lessons      []Lesson `json:"lessons,omitempty"`
}

type SectionInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visible     *bool   `json:"visible"`
	FreePreview *bool   `json:"free_preview"`
	EstMinutes  *int    `json:"estimated_minutes"`
}

// Lesson types.
const (
	LessonArticle     = "article"
	LessonVideo       = "video"
	LessonInteractive = "interactive"
	LessonQuiz        = "quiz"
	LessonProject     = "project"
)

type Lesson struct {
	ID           string         `json:"id"`
	SectionID    string         `json:"section_id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	LessonType   string         `json:"lesson_type"`
	EstMinutes   int            `json:"estimated_minutes"`
	HasQuiz      bool           `json:"has_quiz"`
	HasExercise  bool           `json:"has_exercise"`
	HasTryIt     bool           `json:"has_try_it"`
	Visible      bool           `json:"visible"`
	FreePreview  bool           `json:"free_preview"`
	Status       string         `json:"status"`
	DisplayOrder int            `json:"display_order"`
	Blocks       []ContentBlock `json:"blocks,omitempty"`
}

type LessonInput struct {
	Slug        *string `json:"slug"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	LessonType  *string `json:"lesson_type"`
	EstMinutes  *int    `json:"estimated_minutes"`
	HasQuiz     *bool   `json:"has_quiz"`
	HasExercise *bool   `json:"has_exercise"`
	HasTryIt    *bool   `json:"has_try_it"`
	Visible     *bool   `json:"visible"`
	FreePreview *bool   `json:"free_preview"`
}

// Content block types. The payload shape is fixed per type and validated
// against a JSON Schema on every write (see blockschema.go).
const (
	BlockHeader   = "header"
	BlockText     = "text"
	BlockMarkdown = "markdown"
	BlockCode     = "code"
	BlockTryIt    = "try_it"
	BlockImage    = "image"
	BlockVideo    = "video"
	BlockNote     = "note"
	BlockWarning  = "warning"
	BlockTip      = "tip"
	BlockList     = "list"
	BlockTable    = "table"
	BlockDivider  = "divider"
	BlockQuiz     = "quiz"
)

type ContentBlock struct {
	ID           string          `json:"id"`
	LessonID     string          `json:"lesson_id"`
	Type         string          `json:"type"`
	DisplayOrder int             `json:"display_order"`
	Visible      bool            `json:"visible"`
	Payload      json.RawMessage `json:"content"`
}

type ContentBlockInput struct {
	Type    *string         `json:"type"`
	Visible *bool           `json:"visible"`
	Payload json.RawMessage `json:"content"`
}

func strOr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

func intOr(p *int, def int) int {
	if p != nil {
		return *p
	}
	return def
}

func floatOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}
