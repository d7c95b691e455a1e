package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
)

const submissionColumns = `id, quiz_id, course_id, learner_id, results, score, created_at`

type submissionRow struct {
	ID        string    `db:"id"`
	QuizID    string    `db:"quiz_id"`
	CourseID  string    `db:"course_id"`
	LearnerID string    `db:"learner_id"`
	Results   []byte    `db:"results"`
	Score     int       `db:"score"`
	CreatedAt time.Time `db:"created_at"`
}

func (r submissionRow) toSubmission() (quiz.Submission, error) {
	results := make([]question.Result, 0)
	if err := json.Unmarshal(r.Results, &results); err != nil {
		return quiz.Submission{}, errors.Wrapf(err, "decoding results of submission %s", r.ID)
	}
	return quiz.Submission{
		ID:        r.ID,
		QuizID:    r.QuizID,
		CourseID:  r.CourseID,
		LearnerID: r.LearnerID,
		Results:   results,
		Score:     r.Score,
		CreatedAt: r.CreatedAt.UTC(),
	}, nil
}

type submissionRepository struct {
	base
}

var _ quiz.SubmissionRepository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{base{exec: exec}}
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, s quiz.Submission) (quiz.Submission, error) {
	results := s.Results
	if results == nil {
		results = []question.Result{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return quiz.Submission{}, errors.Wrap(err, "encoding submission results")
	}

	stmt := `INSERT INTO submissions (` + submissionColumns + `) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err = repo.exec.ExecContext(ctx, stmt, s.ID, s.QuizID, s.CourseID, s.LearnerID, string(raw), s.Score, s.CreatedAt.UTC())
	if err != nil {
		return quiz.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter quiz.SubmissionFilter) ([]quiz.Submission, error) {
	var w whereBuilder
	if filter.QuizID != "" {
		w.add("quiz_id = " + w.arg(filter.QuizID))
	}
	if filter.CourseID != "" {
		w.add("course_id = " + w.arg(filter.CourseID))
	}
	if filter.LearnerID != "" {
		w.add("learner_id = " + w.arg(filter.LearnerID))
	}

	var rows []submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submissions` + w.String() + ` ORDER BY created_at ASC, id ASC`
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]quiz.Submission, 0, len(rows))
	for _, r := range rows {
		s, err := r.toSubmission()
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}
