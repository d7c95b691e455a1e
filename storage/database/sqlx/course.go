package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

const courseColumns = `id, title, description, creator, tags, chapter_ids, quiz_ids, content_order,
	is_published, category, price, is_free, version, created_at, updated_at`

var courseOrderings = map[string]bool{"created_at": true, "updated_at": true, "title": true, "price": true}

type courseRow struct {
	ID           string          `db:"id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Creator      string          `db:"creator"`
	Tags         pq.StringArray  `db:"tags"`
	ChapterIDs   pq.StringArray  `db:"chapter_ids"`
	QuizIDs      pq.StringArray  `db:"quiz_ids"`
	ContentOrder pq.StringArray  `db:"content_order"`
	IsPublished  bool            `db:"is_published"`
	Category     string          `db:"category"`
	Price        decimal.Decimal `db:"price"`
	IsFree       bool            `db:"is_free"`
	Version      int             `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Creator:      c.Creator,
		Tags:         nonNilArray(c.Tags),
		ChapterIDs:   nonNilArray(c.ChapterIDs),
		QuizIDs:      nonNilArray(c.QuizIDs),
		ContentOrder: nonNilArray(c.ContentOrder),
		IsPublished:  c.IsPublished,
		Category:     string(c.Category),
		Price:        c.Price,
		IsFree:       c.IsFree,
		Version:      c.Version,
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
	}
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Creator:      r.Creator,
		Tags:         nonNilArray(r.Tags),
		ChapterIDs:   nonNilArray(r.ChapterIDs),
		QuizIDs:      nonNilArray(r.QuizIDs),
		ContentOrder: nonNilArray(r.ContentOrder),
		IsPublished:  r.IsPublished,
		Category:     course.Category(r.Category),
		Price:        r.Price,
		IsFree:       r.IsFree,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func nonNilArray(ss []string) pq.StringArray {
	if ss == nil {
		return pq.StringArray{}
	}
	return ss
}

func toCourses(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses
}

type courseRepository struct {
	base
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{base{exec: exec}}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	if c.Version == 0 {
		c.Version = 1
	}
	q := `INSERT INTO courses (` + courseColumns + `) VALUES (
		:id, :title, :description, :creator, :tags, :chapter_ids, :quiz_ids, :content_order,
		:is_published, :category, :price, :is_free, :version, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toCourseRow(c)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	var row courseRow
	q := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "selecting course")
	}
	return row.toCourse(), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, exec ...core.DBExecutor) ([]course.Course, error) {
	var w whereBuilder
	if len(filter.IDs) > 0 {
		w.add("id = ANY(" + w.arg(pq.Array(filter.IDs)) + ")")
	}
	if filter.Creator != "" {
		w.add("creator = " + w.arg(filter.Creator))
	}

	var rows []courseRow
	q := `SELECT ` + courseColumns + ` FROM courses` + w.String() + ` ORDER BY created_at ASC, id ASC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return toCourses(rows), nil
}

// searchWhere restricts to published courses; keyword is OR-ed over title, description and tags,
// then AND-ed with the tags (any-of) and category filters.
func searchWhere(filter course.SearchFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("is_published = TRUE")
	if filter.Keyword != "" {
		p := w.arg("%" + likeEscaper.Replace(filter.Keyword) + "%")
		w.add("(title ILIKE " + p + " OR description ILIKE " + p +
			" OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE " + p + "))")
	}
	if len(filter.Tags) > 0 {
		w.add("tags && " + w.arg(pq.Array(filter.Tags)) + "::text[]")
	}
	if filter.Category != "" {
		w.add("category = " + w.arg(filter.Category))
	}
	return w
}

func (repo courseRepository) SearchCourses(ctx context.Context, filter course.SearchFilter) ([]course.Course, error) {
	w := searchWhere(filter)
	q := `SELECT ` + courseColumns + ` FROM courses` + w.String() +
		orderBy(filter.Ordering, courseOrderings, "created_at DESC") +
		` LIMIT ` + w.arg(filter.Limit) + ` OFFSET ` + w.arg(filter.Skip())

	var rows []courseRow
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "searching courses")
	}
	return toCourses(rows), nil
}

func (repo courseRepository) CountCourses(ctx context.Context, filter course.SearchFilter) (int, error) {
	w := searchWhere(filter)
	var n int
	if err := repo.exec.GetContext(ctx, &n, `SELECT COUNT(*) FROM courses`+w.String(), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return n, nil
}

func (repo courseRepository) exists(ctx context.Context, exec core.DBExecutor, id string) (bool, error) {
	var found bool
	err := exec.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, id)
	return found, errors.Wrap(err, "checking course")
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	ex := repo.getExec(exec)
	r := toCourseRow(c)
	q := `UPDATE courses SET
		title = $3, description = $4, tags = $5, chapter_ids = $6, content_order = $7,
		is_published = $8, category = $9, price = $10, is_free = $11, updated_at = $12,
		version = version + 1
	WHERE id = $1 AND version = $2
	RETURNING ` + courseColumns

	var row courseRow
	err := ex.GetContext(ctx, &row, q,
		r.ID, r.Version, r.Title, r.Description, r.Tags, r.ChapterIDs, r.ContentOrder,
		r.IsPublished, r.Category, r.Price, r.IsFree, r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		found, err := repo.exists(ctx, ex, c.ID)
		if err != nil {
			return course.Course{}, err
		}
		if !found {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, course.ErrVersionConflict
	}
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return row.toCourse(), nil
}

func refsColumn(kind course.ContentKind) string {
	if kind == course.ContentQuiz {
		return "quiz_ids"
	}
	return "chapter_ids"
}

func (repo courseRepository) LinkContent(ctx context.Context, courseID string, kind course.ContentKind, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	col := refsColumn(kind)
	q := `UPDATE courses SET
		` + col + ` = array_append(` + col + `, $2::text),
		content_order = CASE WHEN cardinality(content_order) > 0 THEN array_append(content_order, $2::text) ELSE content_order END,
		version = version + 1, updated_at = $3
	WHERE id = $1 AND NOT ($2::text = ANY(` + col + `))`

	res, err := ex.ExecContext(ctx, q, courseID, id, core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "linking course content")
	}
	n, err := rowsAffected(res, "linking course content")
	if err != nil || n > 0 {
		return err
	}
	// already linked, or no such course
	found, err := repo.exists(ctx, ex, courseID)
	if err != nil {
		return err
	}
	if !found {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) UnlinkContent(ctx context.Context, courseID string, kind course.ContentKind, id string, exec ...core.DBExecutor) error {
	col := refsColumn(kind)
	q := `UPDATE courses SET
		` + col + ` = array_remove(` + col + `, $2::text),
		content_order = array_remove(content_order, $2::text),
		version = version + 1, updated_at = $3
	WHERE id = $1`

	res, err := repo.getExec(exec).ExecContext(ctx, q, courseID, id, core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "unlinking course content")
	}
	n, err := rowsAffected(res, "unlinking course content")
	if err != nil {
		return err
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	n, err := rowsAffected(res, "deleting course")
	if err != nil {
		return err
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}
