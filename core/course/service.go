package course

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/elimu/core"
)

const maxUpdateAttempts = 3

var (
	// errors
	ErrNotFound        = core.NotFound("course not found")
	ErrVersionConflict = core.Conflict("course was modified concurrently")
	ErrNotCreator      = core.Forbidden("only the creator of the course can do this")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Course, error)
		// SearchCourses returns one page of published courses matching filter.
		SearchCourses(ctx context.Context, filter SearchFilter) ([]Course, error)
		// CountCourses returns the number of published courses matching filter, ignoring pagination.
		CountCourses(ctx context.Context, filter SearchFilter) (int, error)
		// UpdateCourse persists c only if the stored version still equals c.Version, then bumps it.
		// It fails with ErrVersionConflict otherwise.
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		// LinkContent atomically appends id to the chapter or quiz references of the course
		// (and to its content order when that is set). Linking an already linked id is a no-op.
		LinkContent(ctx context.Context, courseID string, kind ContentKind, id string, exec ...core.DBExecutor) error
		// UnlinkContent atomically removes id from the references and the content order of the course.
		UnlinkContent(ctx context.Context, courseID string, kind ContentKind, id string, exec ...core.DBExecutor) error
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// QuizCascader removes every quiz (and its questions) of a course.
	QuizCascader interface {
		DeleteByCourse(ctx context.Context, courseID string) (int, error)
	}

	// ChapterStore is what the course manager needs from the chapter ledger.
	ChapterStore interface {
		// CheckInCourse fails with a ValidationError if any id is not a chapter of the course.
		CheckInCourse(ctx context.Context, courseID string, ids []string) error
		DeleteByCourse(ctx context.Context, courseID string) (int, error)
	}

	DeleteResult struct {
		Course     Course     `json:"course"`
		Enrollment Enrollment `json:"enrollment"`
	}

	Service struct {
		repo        Repository
		enrollments EnrollmentRepository
		commissions CommissionRepository
		quizzes     QuizCascader
		chapters    ChapterStore
		log         core.Logger
		maxLimit    int
	}

	Option func(*Service)
)

// WithSearchMaxLimit caps the page size of Search.
func WithSearchMaxLimit(n int) Option {
	return func(svc *Service) { svc.maxLimit = n }
}

func NewService(
	repo Repository,
	enrollments EnrollmentRepository,
	commissions CommissionRepository,
	quizzes QuizCascader,
	chapters ChapterStore,
	logger core.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	svc := &Service{
		repo:        repo,
		enrollments: enrollments,
		commissions: commissions,
		quizzes:     quizzes,
		chapters:    chapters,
		log:         logger,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Create stores a new course together with its empty enrollment record.
// If the enrollment cannot be created the course is deleted again.
func (svc *Service) Create(ctx context.Context, requesterID string, nc NewCourse) (Course, error) {
	if err := nc.Validate(); err != nil {
		return Course{}, err
	}
	if nc.Creator != requesterID {
		return Course{}, core.Forbidden("creator must be the requesting user")
	}

	now := core.NowFunc()
	c, err := svc.repo.CreateCourse(ctx, Course{
		ID:           core.NewID(),
		Title:        nc.Title,
		Description:  nc.Description,
		Creator:      nc.Creator,
		Tags:         nc.Tags,
		ChapterIDs:   []string{},
		QuizIDs:      []string{},
		ContentOrder: []string{},
		IsPublished:  nc.IsPublished,
		Category:     Category(nc.Category),
		Price:        nc.Price,
		IsFree:       nc.IsFree,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}

	_, err = svc.enrollments.CreateEnrollment(ctx, newEnrollment(c.ID))
	if err = core.Compensate("course.Create", errors.Wrap(err, "creating enrollment"), func() error {
		return svc.repo.DeleteCourse(ctx, c.ID)
	}); err != nil {
		svc.log.Error("course creation rolled back", "courseId", c.ID, "error", err)
		return Course{}, err
	}
	return c, nil
}

func (svc *Service) Get(ctx context.Context, courseID string) (Course, error) {
	return svc.repo.GetCourse(ctx, courseID)
}

// GetOwned returns the course if requesterID created it.
func (svc *Service) GetOwned(ctx context.Context, courseID, requesterID string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if !c.IsCreator(requesterID) {
		return Course{}, ErrNotCreator
	}
	return c, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

// Update applies uc to the course. Concurrent reference changes are retried against the fresh state.
func (svc *Service) Update(ctx context.Context, courseID, requesterID string, uc UpdateCourse) (Course, error) {
	if len(uc.AddChapters) > 0 {
		if err := svc.chapters.CheckInCourse(ctx, courseID, uc.AddChapters); err != nil {
			return Course{}, err
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		c, err := svc.GetOwned(ctx, courseID, requesterID)
		if err != nil {
			return Course{}, err
		}
		merged, err := uc.Apply(c)
		if err != nil {
			return Course{}, err
		}
		merged.UpdatedAt = core.NowFunc()

		updated, err := svc.repo.UpdateCourse(ctx, merged)
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return Course{}, errors.Wrap(err, "updating course")
		}
		return updated, nil
	}
	return Course{}, lastErr
}

// Search runs the page and count queries concurrently.
func (svc *Service) Search(ctx context.Context, filter SearchFilter) (SearchResult, error) {
	if err := filter.Clean(svc.maxLimit); err != nil {
		return SearchResult{}, err
	}

	var (
		courses []Course
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		courses, err = svc.repo.SearchCourses(gctx, filter)
		return errors.Wrap(err, "searching courses")
	})
	g.Go(func() (err error) {
		total, err = svc.repo.CountCourses(gctx, filter)
		return errors.Wrap(err, "counting courses")
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	var tags []string
	for _, c := range courses {
		tags = append(tags, c.Tags...)
	}
	allTags := core.UniqueStrings(tags)
	sort.Strings(allTags)

	if courses == nil {
		courses = []Course{}
	}
	return SearchResult{
		Courses:     courses,
		TotalCount:  total,
		TotalPages:  (total + filter.Limit - 1) / filter.Limit,
		CurrentPage: filter.Page,
		AllTags:     allTags,
	}, nil
}

// Delete removes the course of requesterID and everything it owns.
func (svc *Service) Delete(ctx context.Context, courseID, requesterID string) (DeleteResult, error) {
	c, err := svc.GetOwned(ctx, courseID, requesterID)
	if err != nil {
		return DeleteResult{}, err
	}
	return svc.cascade(ctx, c)
}

// DeleteAsAdmin removes any course and everything it owns.
func (svc *Service) DeleteAsAdmin(ctx context.Context, courseID string) (DeleteResult, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return DeleteResult{}, err
	}
	return svc.cascade(ctx, c)
}

// cascade deletes quizzes (with their questions), chapters, the enrollment and finally the course.
// Steps are not rolled back: a failing step leaves the earlier ones applied.
func (svc *Service) cascade(ctx context.Context, c Course) (DeleteResult, error) {
	const op = "course.Delete"
	fail := func(step string, err error) (DeleteResult, error) {
		svc.log.Error("course deletion stopped midway", "courseId", c.ID, "step", step, "error", err)
		return DeleteResult{}, core.NewPartialFailure(op, step, err)
	}

	if _, err := svc.quizzes.DeleteByCourse(ctx, c.ID); err != nil {
		return fail("deleting quizzes", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("deleting quizzes", err)
	}
	if _, err := svc.chapters.DeleteByCourse(ctx, c.ID); err != nil {
		return fail("deleting chapters", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("deleting chapters", err)
	}
	enr, err := svc.enrollments.DeleteEnrollment(ctx, c.ID)
	if err != nil && !errors.Is(err, ErrEnrollmentNotFound) {
		return fail("deleting enrollment", err)
	}
	if err := svc.repo.DeleteCourse(ctx, c.ID); err != nil {
		return fail("deleting course", err)
	}

	svc.log.Info("course deleted", "courseId", c.ID, "creator", c.Creator)
	return DeleteResult{Course: c, Enrollment: enr}, nil
}
