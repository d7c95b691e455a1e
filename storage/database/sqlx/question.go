package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
)

const questionColumns = `id, quiz_id, course_id, creator_id, content, explanation, question_type, solution, created_at, updated_at`

type questionRow struct {
	ID          string      `db:"id"`
	QuizID      string      `db:"quiz_id"`
	CourseID    string      `db:"course_id"`
	CreatorID   string      `db:"creator_id"`
	Content     string      `db:"content"`
	Explanation null.String `db:"explanation"`
	Type        string      `db:"question_type"`
	Solution    []byte      `db:"solution"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r questionRow) toQuestion() (question.Question, error) {
	t := question.Type(r.Type)
	sol, err := question.DecodeSolution(t, r.Solution)
	if err != nil {
		return question.Question{}, errors.Wrapf(err, "decoding solution of question %s", r.ID)
	}
	return question.Question{
		ID:          r.ID,
		QuizID:      r.QuizID,
		CourseID:    r.CourseID,
		CreatorID:   r.CreatorID,
		Content:     r.Content,
		Explanation: r.Explanation.String,
		Type:        t,
		Solution:    sol,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

// encodeSolution returns the solution as JSON text; jsonb parameters are sent as text.
func encodeSolution(q question.Question) (string, error) {
	raw, err := json.Marshal(q.Solution)
	if err != nil {
		return "", errors.Wrapf(err, "encoding solution of question %s", q.ID)
	}
	return string(raw), nil
}

func explanation(q question.Question) null.String {
	return null.NewString(q.Explanation, q.Explanation != "")
}

type questionRepository struct {
	base
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(exec core.DBExecutor) *questionRepository {
	return &questionRepository{base{exec: exec}}
}

func (repo questionRepository) CreateQuestions(ctx context.Context, questions []question.Question, exec ...core.DBExecutor) ([]question.Question, error) {
	if len(questions) == 0 {
		return []question.Question{}, nil
	}

	var w whereBuilder
	values := ""
	for i, q := range questions {
		sol, err := encodeSolution(q)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			values += ", "
		}
		values += "(" + w.arg(q.ID) + ", " + w.arg(q.QuizID) + ", " + w.arg(q.CourseID) + ", " +
			w.arg(q.CreatorID) + ", " + w.arg(q.Content) + ", " + w.arg(explanation(q)) + ", " +
			w.arg(string(q.Type)) + ", " + w.arg(sol) + "::jsonb, " + w.arg(q.CreatedAt.UTC()) + ", " +
			w.arg(q.UpdatedAt.UTC()) + ")"
	}

	stmt := `INSERT INTO questions (` + questionColumns + `) VALUES ` + values
	if _, err := repo.getExec(exec).ExecContext(ctx, stmt, w.args...); err != nil {
		return nil, errors.Wrap(err, "inserting questions")
	}
	out := make([]question.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (repo questionRepository) GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (question.Question, error) {
	var row questionRow
	q := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, id); err != nil {
		return question.Question{}, trapNoRowsErr(err, question.ErrNotFound, "selecting question")
	}
	return row.toQuestion()
}

func (repo questionRepository) QueryQuestions(ctx context.Context, filter question.QueryFilter, exec ...core.DBExecutor) ([]question.Question, error) {
	var w whereBuilder
	if len(filter.IDs) > 0 {
		w.add("id = ANY(" + w.arg(pq.Array(filter.IDs)) + ")")
	}
	if filter.QuizID != "" {
		w.add("quiz_id = " + w.arg(filter.QuizID))
	}
	if filter.CourseID != "" {
		w.add("course_id = " + w.arg(filter.CourseID))
	}

	var rows []questionRow
	q := `SELECT ` + questionColumns + ` FROM questions` + w.String() + ` ORDER BY created_at ASC, id ASC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	qs := make([]question.Question, 0, len(rows))
	for _, r := range rows {
		q, err := r.toQuestion()
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, nil
}

func (repo questionRepository) UpdateQuestion(ctx context.Context, q question.Question, exec ...core.DBExecutor) (question.Question, error) {
	sol, err := encodeSolution(q)
	if err != nil {
		return question.Question{}, err
	}

	var row questionRow
	stmt := `UPDATE questions SET content = $2, explanation = $3, question_type = $4, solution = $5::jsonb, updated_at = $6
	WHERE id = $1
	RETURNING ` + questionColumns
	err = repo.getExec(exec).GetContext(ctx, &row, stmt,
		q.ID, q.Content, explanation(q), string(q.Type), sol, q.UpdatedAt.UTC())
	if err != nil {
		return question.Question{}, trapNoRowsErr(err, question.ErrNotFound, "updating question")
	}
	return row.toQuestion()
}

func (repo questionRepository) DeleteQuestionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM questions WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting questions")
	}
	return rowsAffected(res, "deleting questions")
}

func (repo questionRepository) DeleteQuestionsByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM questions WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting questions")
	}
	return rowsAffected(res, "deleting questions")
}
