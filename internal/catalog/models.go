package catalog

// Difficulty levels for tutorials.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type Lesson struct {
	Slug        string `yaml:"slug" json:"slug"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Minutes     int    `yaml:"minutes,omitempty" json:"minutes,omitempty"`
	HasQuiz     bool   `yaml:"quiz,omitempty" json:"has_quiz"`
	HasExercise bool   `yaml:"exercise,omitempty" json:"has_exercise"`
	HasTryIt    bool   `yaml:"try_it,omitempty" json:"has_try_it"`

	// Body is the lesson markup (constrained line-oriented subset, see the
	// render package). TryItCode is the seed buffer for the live editor.
	Body      string `yaml:"body,omitempty" json:"-"`
	TryItCode string `yaml:"try_it_code,omitempty" json:"-"`
}

type Chapter struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Lessons     []Lesson `yaml:"lessons" json:"lessons"`
}

type Tutorial struct {
	Slug           string    `yaml:"slug" json:"slug"`
	Title          string    `yaml:"title" json:"title"`
	ShortTitle     string    `yaml:"short_title,omitempty" json:"short_title,omitempty"`
	Category       string    `yaml:"category,omitempty" json:"category,omitempty"`
	Description    string    `yaml:"description,omitempty" json:"description,omitempty"`
	Icon           string    `yaml:"icon,omitempty" json:"icon,omitempty"`
	Color          string    `yaml:"color,omitempty" json:"color,omitempty"`
	BgColor        string    `yaml:"bg_color,omitempty" json:"bg_color,omitempty"`
	Difficulty     string    `yaml:"difficulty,omitempty" json:"difficulty"`
	Tags           []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	EstimatedHours float64   `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	Free           bool      `yaml:"free" json:"free"`
	Certification  bool      `yaml:"certification" json:"certification"`
	Runnable       bool      `yaml:"runnable,omitempty" json:"runnable"`
	RunHint        string    `yaml:"run_hint,omitempty" json:"run_hint,omitempty"`
	Chapters       []Chapter `yaml:"chapters" json:"chapters"`

	// TotalLessons is denormalized and recomputed at load time.
	TotalLessons int `yaml:"total_lessons,omitempty" json:"total_lessons"`

	Questions []Question `yaml:"questions,omitempty" json:"-"`
}

// Question types mirror the learner-facing quiz engine.
const (
	QuestionSingle   = "single"
	QuestionMultiple = "multiple"
	QuestionText     = "text"
	QuestionCode     = "code"
)

type Question struct {
	ID          string   `yaml:"id" json:"id"`
	Type        string   `yaml:"type" json:"type"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
	Answer      []string `yaml:"answer" json:"-"` // never serialized to learners
	Explanation string   `yaml:"explanation,omitempty" json:"-"`
	Points      float64  `yaml:"points,omitempty" json:"points"`
}

func (t *Tutorial) lessonCount() int {
	n := 0
	for _, c := range t.Chapters {
		n += len(c.Lessons)
	}
	return n
}

// FindLesson returns the lesson with the given slug, or false.
func (t *Tutorial) FindLesson(slug string) (Lesson, bool) {
	for _, c := range t.Chapters {
		for _, l := range c.Lessons {
			if l.Slug == slug {
				return l, true
			}
		}
	}
	return Lesson{}, false
}

// FirstLesson returns the first lesson in chapter order, or false when the
// tutorial has no lessons at all.
func (t *Tutorial) FirstLesson() (Lesson, bool) {
	for _, c := range t.Chapters {
		if len(c.Lessons) > 0 {
			return c.Lessons[0], true
		}
	}
	return Lesson{}, false
}
