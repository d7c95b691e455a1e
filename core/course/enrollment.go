package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrEnrollmentNotFound = core.NotFound("enrollment not found")
	ErrAlreadyEnrolled    = core.Conflict("learner is already enrolled in this course")
	ErrNotEnrolled        = core.NotFound("learner is not enrolled in this course")
)

// Enrollment is the set of learners of one course.
type Enrollment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	LearnerIDs []string  `json:"learnerIds"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newEnrollment(courseID string) Enrollment {
	now := core.NowFunc()
	return Enrollment{
		ID:         core.NewID(),
		CourseID:   courseID,
		LearnerIDs: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
	GetEnrollment(ctx context.Context, courseID string) (Enrollment, error)
	// AddLearner atomically adds learnerID to the set; added is false when it was already there.
	AddLearner(ctx context.Context, courseID, learnerID string) (added bool, err error)
	// RemoveLearner atomically removes learnerID from the set; removed is false when it was not there.
	RemoveLearner(ctx context.Context, courseID, learnerID string) (removed bool, err error)
	QueryEnrolledCourseIDs(ctx context.Context, learnerID string) ([]string, error)
	DeleteEnrollment(ctx context.Context, courseID string) (Enrollment, error)
}

// Enroll adds learnerID to a published course.
func (svc *Service) Enroll(ctx context.Context, courseID, learnerID string) (Enrollment, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !c.IsPublished {
		return Enrollment{}, ErrNotFound
	}

	added, err := svc.enrollments.AddLearner(ctx, courseID, learnerID)
	if errors.Is(err, ErrEnrollmentNotFound) {
		// courses created before enrollments existed get their record on first use
		if _, err = svc.enrollments.CreateEnrollment(ctx, newEnrollment(courseID)); err != nil {
			return Enrollment{}, errors.Wrap(err, "creating enrollment")
		}
		added, err = svc.enrollments.AddLearner(ctx, courseID, learnerID)
	}
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "adding learner")
	}
	if !added {
		return Enrollment{}, ErrAlreadyEnrolled
	}
	return svc.enrollments.GetEnrollment(ctx, courseID)
}

func (svc *Service) Unenroll(ctx context.Context, courseID, learnerID string) (Enrollment, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, err
	}
	removed, err := svc.enrollments.RemoveLearner(ctx, courseID, learnerID)
	if errors.Is(err, ErrEnrollmentNotFound) {
		return Enrollment{}, ErrNotEnrolled
	}
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "removing learner")
	}
	if !removed {
		return Enrollment{}, ErrNotEnrolled
	}
	return svc.enrollments.GetEnrollment(ctx, courseID)
}

// EnrolledCourses lists the courses learnerID is enrolled in.
func (svc *Service) EnrolledCourses(ctx context.Context, learnerID string) ([]Course, error) {
	ids, err := svc.enrollments.QueryEnrolledCourseIDs(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	if len(ids) == 0 {
		return []Course{}, nil
	}
	return svc.repo.QueryCourses(ctx, QueryFilter{IDs: ids})
}

// Learners lists the learners of a course; only its creator may see them.
func (svc *Service) Learners(ctx context.Context, courseID, requesterID string) ([]string, error) {
	if _, err := svc.GetOwned(ctx, courseID, requesterID); err != nil {
		return nil, err
	}
	e, err := svc.enrollments.GetEnrollment(ctx, courseID)
	if errors.Is(err, ErrEnrollmentNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return e.LearnerIDs, nil
}

func (svc *Service) IsEnrolled(ctx context.Context, courseID, learnerID string) (bool, error) {
	e, err := svc.enrollments.GetEnrollment(ctx, courseID)
	if errors.Is(err, ErrEnrollmentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return core.ContainsString(e.LearnerIDs, learnerID), nil
}
