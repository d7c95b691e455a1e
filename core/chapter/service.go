package chapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

var (
	// errors
	ErrNotFound    = core.NotFound("chapter not found")
	ErrNumberTaken = core.Conflict("chapter number already taken")
)

type (
	Repository interface {
		// CreateChapter fails with ErrNumberTaken if the course already has a chapter with that number
		// (the storage-level backstop for a number taken concurrently).
		CreateChapter(ctx context.Context, ch Chapter, exec ...core.DBExecutor) (Chapter, error)
		GetChapter(ctx context.Context, id string, exec ...core.DBExecutor) (Chapter, error)
		// QueryChapters returns matching chapters ordered by course then number.
		QueryChapters(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Chapter, error)
		CountChapters(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error)
		// UpdateChapter writes the editable fields of the chapter; its number is left untouched.
		UpdateChapter(ctx context.Context, ch Chapter, exec ...core.DBExecutor) (Chapter, error)
		// RenumberChapter sets the number of a single chapter.
		RenumberChapter(ctx context.Context, id string, number int, exec ...core.DBExecutor) error
		DeleteChapter(ctx context.Context, id string, exec ...core.DBExecutor) error
		// ShiftNumbersAfter decrements the number of every chapter of the course numbered above number.
		ShiftNumbersAfter(ctx context.Context, courseID string, number int, exec ...core.DBExecutor) (int, error)
		DeleteChaptersByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo    Repository
		courses course.Repository
		tx      core.TxRunner
		locker  core.Locker
		log     core.Logger
	}
)

func NewService(repo Repository, courses course.Repository, tx core.TxRunner, locker core.Locker, logger core.Logger) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Service{repo: repo, courses: courses, tx: tx, locker: locker, log: logger}
}

func (svc *Service) lock(ctx context.Context, courseID string) (func(), error) {
	unlock, err := svc.locker.Lock(ctx, core.CourseChaptersLockKey(courseID))
	if err != nil {
		return nil, errors.Wrapf(err, "locking chapters of course %s", courseID)
	}
	return unlock, nil
}

func (svc *Service) ownedCourse(ctx context.Context, courseID, creatorID string, exec ...core.DBExecutor) (course.Course, error) {
	c, err := svc.courses.GetCourse(ctx, courseID, exec...)
	if err != nil {
		return course.Course{}, err
	}
	if !c.IsCreator(creatorID) {
		return course.Course{}, course.ErrNotCreator
	}
	return c, nil
}

// Create appends a chapter to the course. Its number must be exactly the current count + 1.
func (svc *Service) Create(ctx context.Context, courseID, creatorID string, nc NewChapter) (Chapter, error) {
	if err := nc.Validate(); err != nil {
		return Chapter{}, err
	}

	unlock, err := svc.lock(ctx, courseID)
	if err != nil {
		return Chapter{}, err
	}
	defer unlock()

	if _, err := svc.ownedCourse(ctx, courseID, creatorID); err != nil {
		return Chapter{}, err
	}
	count, err := svc.repo.CountChapters(ctx, courseID)
	if err != nil {
		return Chapter{}, errors.Wrap(err, "counting chapters")
	}
	if nc.Number != count+1 {
		msg := fmt.Sprintf("chapter number must be %d", count+1)
		if nc.Number <= count {
			msg = fmt.Sprintf("chapter number %d is already taken, next chapter number is %d", nc.Number, count+1)
		}
		return Chapter{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "chapterNumber", Error: msg})
	}

	now := core.NowFunc()
	ch, err := svc.repo.CreateChapter(ctx, Chapter{
		ID:          core.NewID(),
		CourseID:    courseID,
		CreatorID:   creatorID,
		Title:       nc.Title,
		Content:     nc.Content,
		IsFree:      nc.IsFree,
		IsPublished: nc.IsPublished,
		Number:      nc.Number,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Chapter{}, errors.Wrap(err, "creating chapter")
	}

	err = svc.courses.LinkContent(ctx, courseID, course.ContentChapter, ch.ID)
	if err = core.Compensate("chapter.Create", errors.Wrap(err, "linking chapter to course"), func() error {
		return svc.repo.DeleteChapter(ctx, ch.ID)
	}); err != nil {
		svc.log.Error("chapter creation rolled back", "courseId", courseID, "chapterId", ch.ID, "error", err)
		return Chapter{}, err
	}
	return ch, nil
}

// Get returns a chapter of the course; a chapter of another course is reported as not found.
func (svc *Service) Get(ctx context.Context, chapterID, courseID string) (Chapter, error) {
	ch, err := svc.repo.GetChapter(ctx, chapterID)
	if err != nil {
		return Chapter{}, err
	}
	if ch.CourseID != courseID {
		return Chapter{}, ErrNotFound
	}
	return ch, nil
}

func (svc *Service) ListByCourse(ctx context.Context, courseID string) ([]Chapter, error) {
	return svc.repo.QueryChapters(ctx, QueryFilter{CourseID: courseID})
}

// Update edits a chapter while the course chapters are locked, so it never races a renumbering.
func (svc *Service) Update(ctx context.Context, chapterID, courseID, creatorID string, uc UpdateChapter) (Chapter, error) {
	unlock, err := svc.lock(ctx, courseID)
	if err != nil {
		return Chapter{}, err
	}
	defer unlock()

	if _, err := svc.ownedCourse(ctx, courseID, creatorID); err != nil {
		return Chapter{}, err
	}
	ch, err := svc.Get(ctx, chapterID, courseID)
	if err != nil {
		return Chapter{}, err
	}
	ch, err = uc.Apply(ch)
	if err != nil {
		return Chapter{}, err
	}
	ch.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateChapter(ctx, ch)
}

// Delete removes a chapter, closes the gap it leaves in the numbering and unlinks it from the course,
// all in one transaction while the course chapters are locked.
func (svc *Service) Delete(ctx context.Context, chapterID, courseID, creatorID string) (Chapter, error) {
	unlock, err := svc.lock(ctx, courseID)
	if err != nil {
		return Chapter{}, err
	}
	defer unlock()

	var deleted Chapter
	err = svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.ownedCourse(ctx, courseID, creatorID, exec); err != nil {
			return err
		}
		ch, err := svc.repo.GetChapter(ctx, chapterID, exec)
		if err != nil {
			return err
		}
		if ch.CourseID != courseID {
			return ErrNotFound
		}
		if err := svc.repo.DeleteChapter(ctx, ch.ID, exec); err != nil {
			return errors.Wrap(err, "deleting chapter")
		}
		if _, err := svc.repo.ShiftNumbersAfter(ctx, courseID, ch.Number, exec); err != nil {
			return errors.Wrap(err, "renumbering chapters")
		}
		if err := svc.courses.UnlinkContent(ctx, courseID, course.ContentChapter, ch.ID, exec); err != nil {
			return errors.Wrap(err, "unlinking chapter from course")
		}
		deleted = ch
		return nil
	})
	if err != nil {
		return Chapter{}, err
	}
	return deleted, nil
}

// DeleteByCourse removes every chapter of the course.
func (svc *Service) DeleteByCourse(ctx context.Context, courseID string) (int, error) {
	unlock, err := svc.lock(ctx, courseID)
	if err != nil {
		return 0, err
	}
	defer unlock()
	return svc.repo.DeleteChaptersByCourse(ctx, courseID)
}

// CheckInCourse fails with a ValidationError if any of ids is not a chapter of the course.
func (svc *Service) CheckInCourse(ctx context.Context, courseID string, ids []string) error {
	ids = core.UniqueStrings(ids)
	chs, err := svc.repo.QueryChapters(ctx, QueryFilter{IDs: ids, CourseID: courseID})
	if err != nil {
		return errors.Wrap(err, "querying chapters")
	}
	found := make(map[string]struct{}, len(chs))
	for _, ch := range chs {
		found[ch.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			msg := fmt.Sprintf("chapter %s does not belong to this course", id)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "addChapters", Error: msg})
		}
	}
	return nil
}

// Densify renumbers the chapters of the course to 1..N keeping their relative order.
// It returns how many chapters got a new number.
func (svc *Service) Densify(ctx context.Context, courseID string) (int, error) {
	unlock, err := svc.lock(ctx, courseID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var changed int
	err = svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		chs, err := svc.repo.QueryChapters(ctx, QueryFilter{CourseID: courseID}, exec)
		if err != nil {
			return err
		}
		for i, ch := range chs {
			if ch.Number == i+1 {
				continue
			}
			if err := svc.repo.RenumberChapter(ctx, ch.ID, i+1, exec); err != nil {
				return errors.Wrapf(err, "renumbering chapter %s", ch.ID)
			}
			changed++
		}
		return nil
	})
	return changed, err
}

// DeleteOrphaned removes the chapters of a course that no longer exists, sparing those created after createdBefore.
// Nothing is deleted while the course exists.
func (svc *Service) DeleteOrphaned(ctx context.Context, courseID string, createdBefore time.Time) (int, error) {
	unlock, err := svc.lock(ctx, courseID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if _, err := svc.courses.GetCourse(ctx, courseID); err == nil {
		return 0, nil
	} else if core.KindOf(err) != core.KindNotFound {
		return 0, errors.Wrapf(err, "checking course %s", courseID)
	}

	chs, err := svc.repo.QueryChapters(ctx, QueryFilter{CourseID: courseID})
	if err != nil {
		return 0, errors.Wrap(err, "querying chapters")
	}
	var deleted int
	for _, ch := range chs {
		if ch.CreatedAt.After(createdBefore) {
			continue
		}
		if err := svc.repo.DeleteChapter(ctx, ch.ID); err != nil && core.KindOf(err) != core.KindNotFound {
			return deleted, errors.Wrapf(err, "deleting chapter %s", ch.ID)
		}
		deleted++
	}
	return deleted, nil
}
