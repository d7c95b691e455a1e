package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/quiz"
)

const quizColumns = `id, course_id, creator_id, title, description, question_ids, created_at, updated_at`

type quizRow struct {
	ID          string         `db:"id"`
	CourseID    string         `db:"course_id"`
	CreatorID   string         `db:"creator_id"`
	Title       string         `db:"title"`
	Description null.String    `db:"description"`
	QuestionIDs pq.StringArray `db:"question_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r quizRow) toQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:          r.ID,
		CourseID:    r.CourseID,
		CreatorID:   r.CreatorID,
		Title:       r.Title,
		Description: r.Description.String,
		QuestionIDs: nonNilArray(r.QuestionIDs),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type quizRepository struct {
	base
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(exec core.DBExecutor) *quizRepository {
	return &quizRepository{base{exec: exec}}
}

func (repo quizRepository) CreateQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	stmt := `INSERT INTO quizzes (` + quizColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.exec.ExecContext(ctx, stmt,
		q.ID, q.CourseID, q.CreatorID, q.Title, null.NewString(q.Description, q.Description != ""),
		nonNilArray(q.QuestionIDs), q.CreatedAt.UTC(), q.UpdatedAt.UTC())
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return q, nil
}

func (repo quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var row quizRow
	q := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "selecting quiz")
	}
	return row.toQuiz(), nil
}

func (repo quizRepository) QueryQuizzes(ctx context.Context, filter quiz.QueryFilter) ([]quiz.Quiz, error) {
	var w whereBuilder
	if len(filter.IDs) > 0 {
		w.add("id = ANY(" + w.arg(pq.Array(filter.IDs)) + ")")
	}
	if filter.CourseID != "" {
		w.add("course_id = " + w.arg(filter.CourseID))
	}

	var rows []quizRow
	q := `SELECT ` + quizColumns + ` FROM quizzes` + w.String() + ` ORDER BY created_at ASC, id ASC`
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.toQuiz())
	}
	return quizzes, nil
}

func (repo quizRepository) UpdateQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	var row quizRow
	stmt := `UPDATE quizzes SET title = $2, description = $3, updated_at = $4
	WHERE id = $1
	RETURNING ` + quizColumns
	err := repo.exec.GetContext(ctx, &row, stmt,
		q.ID, q.Title, null.NewString(q.Description, q.Description != ""), q.UpdatedAt.UTC())
	if err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "updating quiz")
	}
	return row.toQuiz(), nil
}

func (repo quizRepository) SetQuestionRefs(ctx context.Context, quizID string, questionIDs []string) (quiz.Quiz, error) {
	var row quizRow
	stmt := `UPDATE quizzes SET question_ids = $2, updated_at = $3
	WHERE id = $1
	RETURNING ` + quizColumns
	err := repo.exec.GetContext(ctx, &row, stmt, quizID, nonNilArray(questionIDs), core.NowFunc().UTC())
	if err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "setting question references")
	}
	return row.toQuiz(), nil
}

func (repo quizRepository) execOnQuiz(ctx context.Context, stmt, msg string, args ...interface{}) error {
	res, err := repo.exec.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	n, err := rowsAffected(res, msg)
	if err != nil {
		return err
	}
	if n == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (repo quizRepository) AddQuestionRef(ctx context.Context, quizID, questionID string) error {
	// the CASE keeps the append idempotent while still matching the row
	stmt := `UPDATE quizzes SET
		question_ids = CASE WHEN $2::text = ANY(question_ids) THEN question_ids ELSE array_append(question_ids, $2::text) END,
		updated_at = $3
	WHERE id = $1`
	return repo.execOnQuiz(ctx, stmt, "adding question reference", quizID, questionID, core.NowFunc())
}

func (repo quizRepository) RemoveQuestionRef(ctx context.Context, quizID, questionID string) error {
	stmt := `UPDATE quizzes SET question_ids = array_remove(question_ids, $2::text), updated_at = $3 WHERE id = $1`
	return repo.execOnQuiz(ctx, stmt, "removing question reference", quizID, questionID, core.NowFunc())
}

func (repo quizRepository) DeleteQuiz(ctx context.Context, id string) error {
	return repo.execOnQuiz(ctx, `DELETE FROM quizzes WHERE id = $1`, "deleting quiz", id)
}

func (repo quizRepository) DeleteQuizzesByCourse(ctx context.Context, courseID string) (int, error) {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM quizzes WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting quizzes")
	}
	return rowsAffected(res, "deleting quizzes")
}
