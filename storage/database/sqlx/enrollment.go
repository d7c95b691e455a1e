package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

const enrollmentColumns = `id, course_id, learner_ids, created_at, updated_at`

type enrollmentRow struct {
	ID         string         `db:"id"`
	CourseID   string         `db:"course_id"`
	LearnerIDs pq.StringArray `db:"learner_ids"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r enrollmentRow) toEnrollment() course.Enrollment {
	return course.Enrollment{
		ID:         r.ID,
		CourseID:   r.CourseID,
		LearnerIDs: nonNilArray(r.LearnerIDs),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type enrollmentRepository struct {
	base
}

var _ course.EnrollmentRepository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{base{exec: exec}}
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	q := `INSERT INTO enrollments (` + enrollmentColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.exec.ExecContext(ctx, q, e.ID, e.CourseID, nonNilArray(e.LearnerIDs), e.CreatedAt.UTC(), e.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return course.Enrollment{}, core.Conflict("course already has an enrollment record")
	}
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, courseID string) (course.Enrollment, error) {
	var row enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1`
	if err := repo.exec.GetContext(ctx, &row, q, courseID); err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "selecting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo enrollmentRepository) exists(ctx context.Context, courseID string) error {
	var found bool
	err := repo.exec.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1)`, courseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !found {
		return course.ErrEnrollmentNotFound
	}
	return nil
}

func (repo enrollmentRepository) AddLearner(ctx context.Context, courseID, learnerID string) (bool, error) {
	q := `UPDATE enrollments SET learner_ids = array_append(learner_ids, $2::text), updated_at = $3
	WHERE course_id = $1 AND NOT ($2::text = ANY(learner_ids))`
	res, err := repo.exec.ExecContext(ctx, q, courseID, learnerID, core.NowFunc())
	if err != nil {
		return false, errors.Wrap(err, "adding learner")
	}
	n, err := rowsAffected(res, "adding learner")
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	return false, repo.exists(ctx, courseID)
}

func (repo enrollmentRepository) RemoveLearner(ctx context.Context, courseID, learnerID string) (bool, error) {
	q := `UPDATE enrollments SET learner_ids = array_remove(learner_ids, $2::text), updated_at = $3
	WHERE course_id = $1 AND $2::text = ANY(learner_ids)`
	res, err := repo.exec.ExecContext(ctx, q, courseID, learnerID, core.NowFunc())
	if err != nil {
		return false, errors.Wrap(err, "removing learner")
	}
	n, err := rowsAffected(res, "removing learner")
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	return false, repo.exists(ctx, courseID)
}

func (repo enrollmentRepository) QueryEnrolledCourseIDs(ctx context.Context, learnerID string) ([]string, error) {
	ids := make([]string, 0)
	q := `SELECT course_id FROM enrollments WHERE $1::text = ANY(learner_ids) ORDER BY course_id`
	if err := repo.exec.SelectContext(ctx, &ids, q, learnerID); err != nil {
		return nil, errors.Wrap(err, "selecting enrolled courses")
	}
	return ids, nil
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, courseID string) (course.Enrollment, error) {
	var row enrollmentRow
	q := `DELETE FROM enrollments WHERE course_id = $1 RETURNING ` + enrollmentColumns
	if err := repo.exec.GetContext(ctx, &row, q, courseID); err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound, "deleting enrollment")
	}
	return row.toEnrollment(), nil
}
