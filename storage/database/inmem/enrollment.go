package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ course.EnrollmentRepository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db.enrollment}
}

func cloneEnrollment(e course.Enrollment) course.Enrollment {
	e.LearnerIDs = cloneStrings(e.LearnerIDs)
	return e
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[e.CourseID]; ok {
		return course.Enrollment{}, core.Conflict("course already has an enrollment record")
	}
	e = cloneEnrollment(e)
	repo.db.table[e.CourseID] = &e
	return cloneEnrollment(e), nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, courseID string) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[courseID]; ok {
		return cloneEnrollment(*e), nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *enrollmentRepository) AddLearner(_ context.Context, courseID, learnerID string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.table[courseID]
	if !ok {
		return false, course.ErrEnrollmentNotFound
	}
	if core.ContainsString(e.LearnerIDs, learnerID) {
		return false, nil
	}
	e.LearnerIDs = append(e.LearnerIDs, learnerID)
	e.UpdatedAt = core.NowFunc()
	return true, nil
}

func (repo *enrollmentRepository) RemoveLearner(_ context.Context, courseID, learnerID string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.table[courseID]
	if !ok {
		return false, course.ErrEnrollmentNotFound
	}
	if !core.ContainsString(e.LearnerIDs, learnerID) {
		return false, nil
	}
	e.LearnerIDs = core.RemoveStrings(e.LearnerIDs, learnerID)
	e.UpdatedAt = core.NowFunc()
	return true, nil
}

func (repo *enrollmentRepository) QueryEnrolledCourseIDs(_ context.Context, learnerID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ids := make([]string, 0)
	for courseID, e := range repo.db.table {
		if core.ContainsString(e.LearnerIDs, learnerID) {
			ids = append(ids, courseID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, courseID string) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.table[courseID]
	if !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	delete(repo.db.table, courseID)
	return *e, nil
}
