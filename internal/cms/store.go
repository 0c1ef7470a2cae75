package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vertechie/vertechie-learn/internal/audit"
)

// Store is the SQL-backed authoring store (sqlite or postgres).
type Store struct {
	db    *sql.DB
	audit *audit.Log
}

func NewStore(db *sql.DB, aud *audit.Log) *Store {
	return &Store{db: db, audit: aud}
}

func (s *Store) record(ctx context.Context, typ, key string, data any) {
	if s.audit == nil {
		return
	}
	actor := actorFromContext(ctx)
	_ = s.audit.Append(ctx, actor, typ, key, data)
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	out := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(out, "-")
}

// ---------- Categories ----------

const categoryCols = `c.id, c.name, c.slug, c.description, c.icon, c.color,
  c.display_order, c.visible, c.featured, c.created_at,
  (SELECT COUNT(*) FROM tutorials t WHERE t.category_id = c.id)`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color,
		&c.DisplayOrder, &c.Visible, &c.Featured, &c.CreatedAt, &c.CourseCount)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, includeHidden bool) ([]Category, error) {
	q := `SELECT ` + categoryCols + ` FROM categories c`
	if !includeHidden {
		q += ` WHERE c.visible`
	}
	q += ` ORDER BY c.display_order, c.name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryCols+` FROM categories c WHERE c.id=$1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	name := strings.TrimSpace(strOr(in.Name, ""))
	if name == "" {
		return Category{}, validationErrf("category name is required")
	}
	slug := strOr(in.Slug, "")
	if slug == "" {
		slug = slugify(name)
	}
	id := uuid.NewString()
	order, err := s.nextOrder(ctx, `SELECT COALESCE(MAX(display_order),0) FROM categories`)
	if err != nil {
		return Category{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, description, icon, color, display_order, visible, featured, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		id, name, slug, strOr(in.Description, ""), strOr(in.Icon, ""), strOr(in.Color, ""),
		order, boolOr(in.Visible, true), boolOr(in.Featured, false), time.Now().Unix())
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, "CategoryCreated", id, map[string]string{"name": name})
	return s.GetCategory(ctx, id)
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in CategoryInput) (Category, error) {
	cur, err := s.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return Category{}, validationErrf("category name is required")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE categories SET name=$1, slug=$2, description=$3, icon=$4, color=$5, visible=$6, featured=$7 WHERE id=$8`,
		strOr(in.Name, cur.Name), strOr(in.Slug, cur.Slug), strOr(in.Description, cur.Description),
		strOr(in.Icon, cur.Icon), strOr(in.Color, cur.Color),
		boolOr(in.Visible, cur.Visible), boolOr(in.Featured, cur.Featured), id)
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, "CategoryUpdated", id, in)
	return s.GetCategory(ctx, id)
}

// DeleteCategory refuses while any tutorial still references the category;
// the delete statement is never reached in that case.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c.CourseCount > 0 {
		return ErrCategoryInUse
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id); err != nil {
		return err
	}
	s.resequence(ctx, `categories`, ``, ``)
	s.record(ctx, "CategoryDeleted", id, nil)
	return nil
}

// ---------- Tutorials ----------

func (s *Store) ListTutorials(ctx context.Context, categoryID string) ([]TutorialSummary, error) {
	q := `SELECT id, COALESCE(category_id,''), slug, title, short_title, difficulty,
	        total_lessons, estimated_hours, status, display_order
	      FROM tutorials`
	args := []any{}
	if categoryID != "" {
		q += ` WHERE category_id=$1`
		args = append(args, categoryID)
	}
	q += ` ORDER BY display_order, title`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TutorialSummary{}
	for rows.Next() {
		var t TutorialSummary
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Slug, &t.Title, &t.ShortTitle,
			&t.Difficulty, &t.TotalLessons, &t.EstimatedHrs, &t.Status, &t.DisplayOrder); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTutorial(ctx context.Context, id string) (Tutorial, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(category_id,''), slug, title, short_title, description, icon, color, bg_color,
		   difficulty, tags_json, total_lessons, estimated_hours, is_free, cert_eligible,
		   learner_count, rating_count, status, display_order, created_at, updated_at
		 FROM tutorials WHERE id=$1`, id)
	var t Tutorial
	var tagsJSON string
	err := row.Scan(&t.ID, &t.CategoryID, &t.Slug, &t.Title, &t.ShortTitle, &t.Description,
		&t.Icon, &t.Color, &t.BgColor, &t.Difficulty, &tagsJSON, &t.TotalLessons,
		&t.EstimatedHrs, &t.Free, &t.CertEligible, &t.LearnerCount, &t.RatingCount,
		&t.Status, &t.DisplayOrder, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Tutorial{}, ErrNotFound
	}
	if err != nil {
		return Tutorial{}, err
	}
	if json.Unmarshal([]byte(tagsJSON), &t.Tags) != nil {
		t.Tags = []string{}
	}
	t.Sections, err = s.sectionsOf(ctx, id)
	return t, err
}

func (s *Store) sectionsOf(ctx context.Context, tutorialID string) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tutorial_id, title, description, display_order, visible, free_preview, estimated_minutes
		 FROM sections WHERE tutorial_id=$1 ORDER BY display_order`, tutorialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Section{}
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.TutorialID, &sec.Title, &sec.Description,
			&sec.DisplayOrder, &sec.Visible, &sec.FreePreview, &sec.EstMinutes); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		lessons, err := s.lessonsOf(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Lessons = lessons
	}
	return out, nil
}

func (s *Store) lessonsOf(ctx context.Context, sectionID string) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, section_id, slug, title, description, lesson_type, estimated_minutes,
		   has_quiz, has_exercise, has_try_it, visible, free_preview, status, display_order
		 FROM lessons WHERE section_id=$1 ORDER BY display_order`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.SectionID, &l.Slug, &l.Title, &l.Description,
			&l.LessonType, &l.EstMinutes, &l.HasQuiz, &l.HasExercise, &l.HasTryIt,
			&l.Visible, &l.FreePreview, &l.Status, &l.DisplayOrder); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) CreateTutorial(ctx context.Context, in TutorialInput) (Tutorial, error) {
	title := strings.TrimSpace(strOr(in.Title, ""))
	if title == "" {
		return Tutorial{}, validationErrf("tutorial title is required")
	}
	slug := strOr(in.Slug, "")
	if slug == "" {
		slug = slugify(title)
	}
	difficulty := strOr(in.Difficulty, "beginner")
	switch difficulty {
	case "beginner", "intermediate", "advanced":
	default:
		return Tutorial{}, validationErrf("unknown difficulty %q", difficulty)
	}
	tags := []string{}
	if in.Tags != nil {
		tags = *in.Tags
	}
	tagsJSON, _ := json.Marshal(tags)

	id := uuid.NewString()
	now := time.Now().Unix()
	order, err := s.nextOrder(ctx, `SELECT COALESCE(MAX(display_order),0) FROM tutorials`)
	if err != nil {
		return Tutorial{}, err
	}
	var catID any
	if v := strOr(in.CategoryID, ""); v != "" {
		catID = v
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tutorials (id, category_id, slug, title, short_title, description, icon, color, bg_color,
		   difficulty, tags_json, total_lessons, estimated_hours, is_free, cert_eligible, status, display_order,
		   created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0,$12,$13,$14,'draft',$15,$16,$17)`,
		id, catID, slug, title, strOr(in.ShortTitle, ""), strOr(in.Description, ""),
		strOr(in.Icon, ""), strOr(in.Color, ""), strOr(in.BgColor, ""),
		difficulty, string(tagsJSON), floatOr(in.EstimatedHrs, 0),
		boolOr(in.Free, true), boolOr(in.CertEligible, true), order, now, now)
	if err != nil {
		return Tutorial{}, err
	}
	s.record(ctx, "TutorialCreated", id, map[string]string{"title": title, "slug": slug})
	return s.GetTutorial(ctx, id)
}

func (s *Store) UpdateTutorial(ctx context.Context, id string, in TutorialInput) (Tutorial, error) {
	cur, err := s.GetTutorial(ctx, id)
	if err != nil {
		return Tutorial{}, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return Tutorial{}, validationErrf("tutorial title is required")
	}
	if in.Difficulty != nil {
		switch *in.Difficulty {
		case "beginner", "intermediate", "advanced":
		default:
			return Tutorial{}, validationErrf("unknown difficulty %q", *in.Difficulty)
		}
	}
	tags := cur.Tags
	if in.Tags != nil {
		tags = *in.Tags
	}
	tagsJSON, _ := json.Marshal(tags)

	var catID any
	if v := strOr(in.CategoryID, cur.CategoryID); v != "" {
		catID = v
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tutorials SET category_id=$1, slug=$2, title=$3, short_title=$4, description=$5,
		   icon=$6, color=$7, bg_color=$8, difficulty=$9, tags_json=$10, estimated_hours=$11,
		   is_free=$12, cert_eligible=$13, updated_at=$14
		 WHERE id=$15`,
		catID, strOr(in.Slug, cur.Slug), strOr(in.Title, cur.Title),
		strOr(in.ShortTitle, cur.ShortTitle), strOr(in.Description, cur.Description),
		strOr(in.Icon, cur.Icon), strOr(in.Color, cur.Color), strOr(in.BgColor, cur.BgColor),
		strOr(in.Difficulty, cur.Difficulty), string(tagsJSON),
		floatOr(in.EstimatedHrs, cur.EstimatedHrs),
		boolOr(in.Free, cur.Free), boolOr(in.CertEligible, cur.CertEligible),
		time.Now().Unix(), id)
	if err != nil {
		return Tutorial{}, err
	}
	s.record(ctx, "TutorialUpdated", id, in)
	return s.GetTutorial(ctx, id)
}

func (s *Store) DeleteTutorial(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tutorials WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.resequence(ctx, `tutorials`, ``, ``)
	s.record(ctx, "TutorialDeleted", id, nil)
	return nil
}

// SetStatus flips a tutorial between draft and published. Publishing is
// deliberately permissive: empty tutorials may be published and filled in
// later.
func (s *Store) SetStatus(ctx context.Context, id, status string) (Tutorial, error) {
	if status != StatusDraft && status != StatusPublished {
		return Tutorial{}, validationErrf("unknown status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tutorials SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now().Unix(), id)
	if err != nil {
		return Tutorial{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Tutorial{}, ErrNotFound
	}
	s.record(ctx, "TutorialStatusChanged", id, map[string]string{"status": status})
	return s.GetTutorial(ctx, id)
}

// ---------- Sections ----------

func (s *Store) getSection(ctx context.Context, id string) (Section, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tutorial_id, title, description, display_order, visible, free_preview, estimated_minutes
		 FROM sections WHERE id=$1`, id)
	var sec Section
	err := row.Scan(&sec.ID, &sec.TutorialID, &sec.Title, &sec.Description,
		&sec.DisplayOrder, &sec.Visible, &sec.FreePreview, &sec.EstMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return Section{}, ErrNotFound
	}
	return sec, err
}

func (s *Store) CreateSection(ctx context.Context, tutorialID string, in SectionInput) (Section, error) {
	title := strings.TrimSpace(strOr(in.Title, ""))
	if title == "" {
		return Section{}, validationErrf("section title is required")
	}
	if _, err := s.GetTutorial(ctx, tutorialID); err != nil {
		return Section{}, err
	}
	id := uuid.NewString()
	order, err := s.nextOrder(ctx,
		`SELECT COALESCE(MAX(display_order),0) FROM sections WHERE tutorial_id=$1`, tutorialID)
	if err != nil {
		return Section{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sections (id, tutorial_id, title, description, display_order, visible, free_preview, estimated_minutes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, tutorialID, title, strOr(in.Description, ""), order,
		boolOr(in.Visible, true), boolOr(in.FreePreview, false), intOr(in.EstMinutes, 0))
	if err != nil {
		return Section{}, err
	}
	s.record(ctx, "SectionCreated", id, map[string]string{"tutorial_id": tutorialID, "title": title})
	return s.getSection(ctx, id)
}

func (s *Store) UpdateSection(ctx context.Context, id string, in SectionInput) (Section, error) {
	cur, err := s.getSection(ctx, id)
	if err != nil {
		return Section{}, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return Section{}, validationErrf("section title is required")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sections SET title=$1, description=$2, visible=$3, free_preview=$4, estimated_minutes=$5 WHERE id=$6`,
		strOr(in.Title, cur.Title), strOr(in.Description, cur.Description),
		boolOr(in.Visible, cur.Visible), boolOr(in.FreePreview, cur.FreePreview),
		intOr(in.EstMinutes, cur.EstMinutes), id)
	if err != nil {
		return Section{}, err
	}
	s.record(ctx, "SectionUpdated", id, in)
	return s.getSection(ctx, id)
}

func (s *Store) DeleteSection(ctx context.Context, id string) error {
	sec, err := s.getSection(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE id=$1`, id); err != nil {
		return err
	}
	s.resequence(ctx, `sections`, `tutorial_id`, sec.TutorialID)
	if err := s.recomputeTotals(ctx, sec.TutorialID); err != nil {
		return err
	}
	s.record(ctx, "SectionDeleted", id, nil)
	return nil
}

// ---------- Lessons ----------

func (s *Store) GetLesson(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, section_id, slug, title, description, lesson_type, estimated_minutes,
		   has_quiz, has_exercise, has_try_it, visible, free_preview, status, display_order
		 FROM lessons WHERE id=$1`, id)
	var l Lesson
	err := row.Scan(&l.ID, &l.SectionID, &l.Slug, &l.Title, &l.Description,
		&l.LessonType, &l.EstMinutes, &l.HasQuiz, &l.HasExercise, &l.HasTryIt,
		&l.Visible, &l.FreePreview, &l.Status, &l.DisplayOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, ErrNotFound
	}
	if err != nil {
		return Lesson{}, err
	}
	l.Blocks, err = s.blocksOf(ctx, id)
	return l, err
}

// lessonSlugTaken reports whether another lesson in the tutorial already uses
// slug. Slugs are tutorial-scoped, not section-scoped, so lookups by
// tutorial+slug stay unambiguous. excludeID skips the lesson being updated.
func (s *Store) lessonSlugTaken(ctx context.Context, tutorialID, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lessons l JOIN sections sc ON l.section_id=sc.id
		 WHERE sc.tutorial_id=$1 AND l.slug=$2 AND l.id<>$3`, tutorialID, slug, excludeID).Scan(&n)
	return n > 0, err
}

func (s *Store) CreateLesson(ctx context.Context, sectionID string, in LessonInput) (Lesson, error) {
	title := strings.TrimSpace(strOr(in.Title, ""))
	if title == "" {
		return Lesson{}, validationErrf("lesson title is required")
	}
	sec, err := s.getSection(ctx, sectionID)
	if err != nil {
		return Lesson{}, err
	}
	slug := strOr(in.Slug, "")
	if slug == "" {
		slug = slugify(title)
	}
	taken, err := s.lessonSlugTaken(ctx, sec.TutorialID, slug, "")
	if err != nil {
		return Lesson{}, err
	}
	if taken {
		return Lesson{}, validationErrf("lesson slug %q already exists in this tutorial", slug)
	}
	ltype := strOr(in.LessonType, LessonArticle)
	switch ltype {
	case LessonArticle, LessonVideo, LessonInteractive, LessonQuiz, LessonProject:
	default:
		return Lesson{}, validationErrf("unknown lesson type %q", ltype)
	}

	id := uuid.NewString()
	order, err := s.nextOrder(ctx,
		`SELECT COALESCE(MAX(display_order),0) FROM lessons WHERE section_id=$1`, sectionID)
	if err != nil {
		return Lesson{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lessons (id, section_id, slug, title, description, lesson_type, estimated_minutes,
		   has_quiz, has_exercise, has_try_it, visible, free_preview, status, display_order)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,'draft',$13)`,
		id, sectionID, slug, title, strOr(in.Description, ""), ltype, intOr(in.EstMinutes, 0),
		boolOr(in.HasQuiz, false), boolOr(in.HasExercise, false), boolOr(in.HasTryIt, false),
		boolOr(in.Visible, true), boolOr(in.FreePreview, false), order)
	if err != nil {
		return Lesson{}, err
	}
	if err := s.recomputeTotals(ctx, sec.TutorialID); err != nil {
		return Lesson{}, err
	}
	s.record(ctx, "LessonCreated", id, map[string]string{"section_id": sectionID, "title": title})
	return s.GetLesson(ctx, id)
}

func (s *Store) UpdateLesson(ctx context.Context, id string, in LessonInput) (Lesson, error) {
	cur, err := s.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return Lesson{}, validationErrf("lesson title is required")
	}
	if in.LessonType != nil {
		switch *in.LessonType {
		case LessonArticle, LessonVideo, LessonInteractive, LessonQuiz, LessonProject:
		default:
			return Lesson{}, validationErrf("unknown lesson type %q", *in.LessonType)
		}
	}
	if in.Slug != nil && *in.Slug != cur.Slug {
		sec, err := s.getSection(ctx, cur.SectionID)
		if err != nil {
			return Lesson{}, err
		}
		taken, err := s.lessonSlugTaken(ctx, sec.TutorialID, *in.Slug, id)
		if err != nil {
			return Lesson{}, err
		}
		if taken {
			return Lesson{}, validationErrf("lesson slug %q already exists in this tutorial", *in.Slug)
		}
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE lessons SET slug=$1, title=$2, description=$3, lesson_type=$4, estimated_minutes=$5,
		   has_quiz=$6, has_exercise=$7, has_try_it=$8, visible=$9, free_preview=$10
		 WHERE id=$11`,
		strOr(in.Slug, cur.Slug), strOr(in.Title, cur.Title), strOr(in.Description, cur.Description),
		strOr(in.LessonType, cur.LessonType), intOr(in.EstMinutes, cur.EstMinutes),
		boolOr(in.HasQuiz, cur.HasQuiz), boolOr(in.HasExercise, cur.HasExercise),
		boolOr(in.HasTryIt, cur.HasTryIt), boolOr(in.Visible, cur.Visible),
		boolOr(in.FreePreview, cur.FreePreview), id)
	if err != nil {
		return Lesson{}, err
	}
	s.record(ctx, "LessonUpdated", id, in)
	return s.GetLesson(ctx, id)
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	cur, err := s.GetLesson(ctx, id)
	if err != nil {
		return err
	}
	sec, err := s.getSection(ctx, cur.SectionID)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id); err != nil {
		return err
	}
	s.resequence(ctx, `lessons`, `section_id`, cur.SectionID)
	if err := s.recomputeTotals(ctx, sec.TutorialID); err != nil {
		return err
	}
	s.record(ctx, "LessonDeleted", id, nil)
	return nil
}

// ---------- Content blocks ----------

func (s *Store) blocksOf(ctx context.Context, lessonID string) ([]ContentBlock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lesson_id, block_type, display_order, visible, payload_json
		 FROM content_blocks WHERE lesson_id=$1 ORDER BY display_order`, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ContentBlock{}
	for rows.Next() {
		var b ContentBlock
		var payload string
		if err := rows.Scan(&b.ID, &b.LessonID, &b.Type, &b.DisplayOrder, &b.Visible, &payload); err != nil {
			return nil, err
		}
		b.Payload = json.RawMessage(payload)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) getBlock(ctx context.Context, id string) (ContentBlock, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lesson_id, block_type, display_order, visible, payload_json
		 FROM content_blocks WHERE id=$1`, id)
	var b ContentBlock
	var payload string
	err := row.Scan(&b.ID, &b.LessonID, &b.Type, &b.DisplayOrder, &b.Visible, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ContentBlock{}, ErrNotFound
	}
	if err != nil {
		return ContentBlock{}, err
	}
	b.Payload = json.RawMessage(payload)
	return b, nil
}

func (s *Store) CreateBlock(ctx context.Context, lessonID string, in ContentBlockInput) (ContentBlock, error) {
	typ := strOr(in.Type, "")
	if typ == "" {
		return ContentBlock{}, validationErrf("block type is required")
	}
	if err := ValidateBlockPayload(typ, in.Payload); err != nil {
		return ContentBlock{}, err
	}
	if _, err := s.GetLesson(ctx, lessonID); err != nil {
		return ContentBlock{}, err
	}
	payload := in.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	id := uuid.NewString()
	order, err := s.nextOrder(ctx,
		`SELECT COALESCE(MAX(display_order),0) FROM content_blocks WHERE lesson_id=$1`, lessonID)
	if err != nil {
		return ContentBlock{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO content_blocks (id, lesson_id, block_type, display_order, visible, payload_json)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, lessonID, typ, order, boolOr(in.Visible, true), string(payload))
	if err != nil {
		return ContentBlock{}, err
	}
	s.record(ctx, "BlockCreated", id, map[string]string{"lesson_id": lessonID, "type": typ})
	return s.getBlock(ctx, id)
}

func (s *Store) UpdateBlock(ctx context.Context, id string, in ContentBlockInput) (ContentBlock, error) {
	cur, err := s.getBlock(ctx, id)
	if err != nil {
		return ContentBlock{}, err
	}
	typ := strOr(in.Type, cur.Type)
	payload := in.Payload
	if len(payload) == 0 {
		payload = cur.Payload
	}
	if err := ValidateBlockPayload(typ, payload); err != nil {
		return ContentBlock{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE content_blocks SET block_type=$1, visible=$2, payload_json=$3 WHERE id=$4`,
		typ, boolOr(in.Visible, cur.Visible), string(payload), id)
	if err != nil {
		return ContentBlock{}, err
	}
	s.record(ctx, "BlockUpdated", id, nil)
	return s.getBlock(ctx, id)
}

func (s *Store) DeleteBlock(ctx context.Context, id string) error {
	cur, err := s.getBlock(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content_blocks WHERE id=$1`, id); err != nil {
		return err
	}
	s.resequence(ctx, `content_blocks`, `lesson_id`, cur.LessonID)
	s.record(ctx, "BlockDeleted", id, nil)
	return nil
}

// ---------- helpers ----------

func (s *Store) nextOrder(ctx context.Context, query string, args ...any) (int, error) {
	var max int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

// resequence renumbers display_order densely (1..n) within a parent scope.
// Best effort: a failed renumber leaves gaps, which readers tolerate.
func (s *Store) resequence(ctx context.Context, table, parentCol, parentID string) {
	q := `SELECT id FROM ` + table
	args := []any{}
	if parentCol != "" {
		q += ` WHERE ` + parentCol + `=$1`
		args = append(args, parentID)
	}
	q += ` ORDER BY display_order`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil {
			ids = append(ids, id)
		}
	}
	rows.Close()
	for i, id := range ids {
		_, _ = s.db.ExecContext(ctx,
			`UPDATE `+table+` SET display_order=$1 WHERE id=$2`, i+1, id)
	}
}

// recomputeTotals refreshes the denormalized lesson count on a tutorial.
// Must run after every lesson add/remove.
func (s *Store) recomputeTotals(ctx context.Context, tutorialID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tutorials SET
		   total_lessons = (SELECT COUNT(*) FROM lessons l JOIN sections sc ON l.section_id=sc.id WHERE sc.tutorial_id=$1),
		   updated_at = $2
		 WHERE id=$1`, tutorialID, time.Now().Unix())
	return err
}
