package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
)

const chapterColumns = `id, course_id, creator_id, title, content, is_free, is_published, number, created_at, updated_at`

type chapterRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	CreatorID   string    `db:"creator_id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	IsFree      bool      `db:"is_free"`
	IsPublished bool      `db:"is_published"`
	Number      int       `db:"number"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func toChapterRow(ch chapter.Chapter) chapterRow {
	return chapterRow{
		ID:          ch.ID,
		CourseID:    ch.CourseID,
		CreatorID:   ch.CreatorID,
		Title:       ch.Title,
		Content:     ch.Content,
		IsFree:      ch.IsFree,
		IsPublished: ch.IsPublished,
		Number:      ch.Number,
		CreatedAt:   ch.CreatedAt.UTC(),
		UpdatedAt:   ch.UpdatedAt.UTC(),
	}
}

func (r chapterRow) toChapter() chapter.Chapter {
	return chapter.Chapter{
		ID:          r.ID,
		CourseID:    r.CourseID,
		CreatorID:   r.CreatorID,
		Title:       r.Title,
		Content:     r.Content,
		IsFree:      r.IsFree,
		IsPublished: r.IsPublished,
		Number:      r.Number,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type chapterRepository struct {
	base
}

var _ chapter.Repository = (*chapterRepository)(nil) // interface compliance check

func NewChapterRepository(exec core.DBExecutor) *chapterRepository {
	return &chapterRepository{base{exec: exec}}
}

func (repo chapterRepository) CreateChapter(ctx context.Context, ch chapter.Chapter, exec ...core.DBExecutor) (chapter.Chapter, error) {
	q := `INSERT INTO chapters (` + chapterColumns + `) VALUES (
		:id, :course_id, :creator_id, :title, :content, :is_free, :is_published, :number, :created_at, :updated_at)`
	_, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toChapterRow(ch))
	if isUniqueViolation(err) {
		return chapter.Chapter{}, chapter.ErrNumberTaken
	}
	if err != nil {
		return chapter.Chapter{}, errors.Wrap(err, "inserting chapter")
	}
	return ch, nil
}

func (repo chapterRepository) GetChapter(ctx context.Context, id string, exec ...core.DBExecutor) (chapter.Chapter, error) {
	var row chapterRow
	q := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return chapter.Chapter{}, trapNoRowsErr(err, chapter.ErrNotFound, "selecting chapter")
	}
	return row.toChapter(), nil
}

func (repo chapterRepository) QueryChapters(ctx context.Context, filter chapter.QueryFilter, exec ...core.DBExecutor) ([]chapter.Chapter, error) {
	var w whereBuilder
	if len(filter.IDs) > 0 {
		w.add("id = ANY(" + w.arg(pq.Array(filter.IDs)) + ")")
	}
	if filter.CourseID != "" {
		w.add("course_id = " + w.arg(filter.CourseID))
	}

	var rows []chapterRow
	q := `SELECT ` + chapterColumns + ` FROM chapters` + w.String() + ` ORDER BY course_id ASC, number ASC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting chapters")
	}
	chs := make([]chapter.Chapter, 0, len(rows))
	for _, r := range rows {
		chs = append(chs, r.toChapter())
	}
	return chs, nil
}

func (repo chapterRepository) CountChapters(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error) {
	var n int
	if err := repo.getExec(exec).GetContext(ctx, &n, `SELECT COUNT(*) FROM chapters WHERE course_id = $1`, courseID); err != nil {
		return 0, errors.Wrap(err, "counting chapters")
	}
	return n, nil
}

func (repo chapterRepository) UpdateChapter(ctx context.Context, ch chapter.Chapter, exec ...core.DBExecutor) (chapter.Chapter, error) {
	var row chapterRow
	q := `UPDATE chapters SET title = $2, content = $3, is_free = $4, is_published = $5, updated_at = $6
	WHERE id = $1
	RETURNING ` + chapterColumns
	err := repo.getExec(exec).GetContext(ctx, &row, q,
		ch.ID, ch.Title, ch.Content, ch.IsFree, ch.IsPublished, ch.UpdatedAt.UTC())
	if err != nil {
		return chapter.Chapter{}, trapNoRowsErr(err, chapter.ErrNotFound, "updating chapter")
	}
	return row.toChapter(), nil
}

func (repo chapterRepository) RenumberChapter(ctx context.Context, id string, number int, exec ...core.DBExecutor) error {
	q := `UPDATE chapters SET number = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q, id, number, core.NowFunc().UTC())
	if err != nil {
		return errors.Wrap(err, "renumbering chapter")
	}
	n, err := rowsAffected(res, "renumbering chapter")
	if err != nil {
		return err
	}
	if n == 0 {
		return chapter.ErrNotFound
	}
	return nil
}

func (repo chapterRepository) DeleteChapter(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting chapter")
	}
	n, err := rowsAffected(res, "deleting chapter")
	if err != nil {
		return err
	}
	if n == 0 {
		return chapter.ErrNotFound
	}
	return nil
}

// ShiftNumbersAfter relies on the (course_id, number) unique constraint being deferred.
func (repo chapterRepository) ShiftNumbersAfter(ctx context.Context, courseID string, number int, exec ...core.DBExecutor) (int, error) {
	q := `UPDATE chapters SET number = number - 1, updated_at = $3 WHERE course_id = $1 AND number > $2`
	res, err := repo.getExec(exec).ExecContext(ctx, q, courseID, number, core.NowFunc())
	if err != nil {
		return 0, errors.Wrap(err, "shifting chapter numbers")
	}
	return rowsAffected(res, "shifting chapter numbers")
}

func (repo chapterRepository) DeleteChaptersByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM chapters WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting chapters")
	}
	return rowsAffected(res, "deleting chapters")
}
