// Package reconcile finds and repairs the residue left by multi-step writes that stopped midway:
// quizzes, questions and chapters nobody references, references to records that are gone,
// and gaps in chapter numbering.
package reconcile

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
)

// DefaultGracePeriod leaves recently created records alone: they may still be waiting to be linked.
const DefaultGracePeriod = 5 * time.Minute

type IssueKind string

const (
	OrphanQuiz         IssueKind = "orphan_quiz"
	OrphanQuestion     IssueKind = "orphan_question"
	OrphanChapter      IssueKind = "orphan_chapter"
	DanglingChapterRef IssueKind = "dangling_chapter_ref"
	DanglingQuizRef    IssueKind = "dangling_quiz_ref"
	NumberingGap       IssueKind = "numbering_gap"
)

type Issue struct {
	Kind     IssueKind `json:"kind"`
	CourseID string    `json:"courseId"`
	EntityID string    `json:"entityId,omitempty"`
	Fixed    bool      `json:"fixed"`
	Error    string    `json:"error,omitempty"`
}

type Report struct {
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	CoursesScanned int       `json:"coursesScanned"`
	Issues         []Issue   `json:"issues"`
}

func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == kind {
			n++
		}
	}
	return n
}

// ChapterLedger performs the chapter repairs that must hold the course chapters lock.
type ChapterLedger interface {
	// Densify renumbers the chapters of a course to 1..N.
	Densify(ctx context.Context, courseID string) (int, error)
	// DeleteOrphaned removes the chapters created before createdBefore when the course is gone.
	DeleteOrphaned(ctx context.Context, courseID string, createdBefore time.Time) (int, error)
}

type (
	Service struct {
		courses   course.Repository
		chapters  chapter.Repository
		quizzes   quiz.Repository
		questions question.Repository
		ledger    ChapterLedger
		log       core.Logger
		grace     time.Duration
	}

	Option func(*Service)
)

func WithGracePeriod(d time.Duration) Option {
	return func(svc *Service) { svc.grace = d }
}

func NewService(
	courses course.Repository,
	chapters chapter.Repository,
	quizzes quiz.Repository,
	questions question.Repository,
	ledger ChapterLedger,
	logger core.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	svc := &Service{
		courses:   courses,
		chapters:  chapters,
		quizzes:   quizzes,
		questions: questions,
		ledger:    ledger,
		log:       logger,
		grace:     DefaultGracePeriod,
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

type snapshot struct {
	courses   map[string]course.Course
	chapters  map[string][]chapter.Chapter // by course, ordered by number
	quizzes   []quiz.Quiz
	quizByID  map[string]quiz.Quiz
	questions []question.Question
}

func (svc *Service) load(ctx context.Context) (snapshot, error) {
	snap := snapshot{
		courses:  map[string]course.Course{},
		chapters: map[string][]chapter.Chapter{},
		quizByID: map[string]quiz.Quiz{},
	}
	cs, err := svc.courses.QueryCourses(ctx, course.QueryFilter{})
	if err != nil {
		return snap, errors.Wrap(err, "loading courses")
	}
	for _, c := range cs {
		snap.courses[c.ID] = c
	}
	chs, err := svc.chapters.QueryChapters(ctx, chapter.QueryFilter{})
	if err != nil {
		return snap, errors.Wrap(err, "loading chapters")
	}
	for _, ch := range chs {
		snap.chapters[ch.CourseID] = append(snap.chapters[ch.CourseID], ch)
	}
	if snap.quizzes, err = svc.quizzes.QueryQuizzes(ctx, quiz.QueryFilter{}); err != nil {
		return snap, errors.Wrap(err, "loading quizzes")
	}
	for _, q := range snap.quizzes {
		snap.quizByID[q.ID] = q
	}
	if snap.questions, err = svc.questions.QueryQuestions(ctx, question.QueryFilter{}); err != nil {
		return snap, errors.Wrap(err, "loading questions")
	}
	return snap, nil
}

func (svc *Service) hasStaleChapter(chs []chapter.Chapter, cutoff time.Time) bool {
	for _, ch := range chs {
		if !ch.CreatedAt.After(cutoff) {
			return true
		}
	}
	return false
}

// Run scans every course. With fix set, each issue found is repaired and marked Fixed
// (or carries the error that prevented it).
func (svc *Service) Run(ctx context.Context, fix bool) (Report, error) {
	rep := Report{StartedAt: core.NowFunc(), Issues: []Issue{}}
	snap, err := svc.load(ctx)
	if err != nil {
		return rep, err
	}
	rep.CoursesScanned = len(snap.courses)
	cutoff := core.NowFunc().Add(-svc.grace)

	record := func(is Issue, repair func() error) {
		if fix && repair != nil {
			if err := repair(); err != nil {
				is.Error = err.Error()
			} else {
				is.Fixed = true
			}
		}
		rep.Issues = append(rep.Issues, is)
	}

	// references from courses to records that are gone
	for _, c := range snap.courses {
		present := make(map[string]struct{}, len(snap.chapters[c.ID]))
		for _, ch := range snap.chapters[c.ID] {
			present[ch.ID] = struct{}{}
		}
		for _, id := range c.ChapterIDs {
			if _, ok := present[id]; !ok {
				record(Issue{Kind: DanglingChapterRef, CourseID: c.ID, EntityID: id}, func() error {
					return svc.courses.UnlinkContent(ctx, c.ID, course.ContentChapter, id)
				})
			}
		}
		for _, id := range c.QuizIDs {
			if q, ok := snap.quizByID[id]; !ok || q.CourseID != c.ID {
				record(Issue{Kind: DanglingQuizRef, CourseID: c.ID, EntityID: id}, func() error {
					return svc.courses.UnlinkContent(ctx, c.ID, course.ContentQuiz, id)
				})
			}
		}
	}

	// chapters of deleted courses, numbering gaps
	for courseID, chs := range snap.chapters {
		if _, ok := snap.courses[courseID]; !ok {
			if !svc.hasStaleChapter(chs, cutoff) {
				continue
			}
			// the course may have been created after the snapshot was taken
			_, err := svc.courses.GetCourse(ctx, courseID)
			switch {
			case err == nil:
				continue
			case !core.IsKind(err, core.KindNotFound):
				record(Issue{Kind: OrphanChapter, CourseID: courseID, Error: err.Error()}, nil)
				continue
			}
			record(Issue{Kind: OrphanChapter, CourseID: courseID}, func() error {
				_, err := svc.ledger.DeleteOrphaned(ctx, courseID, cutoff)
				return err
			})
			continue
		}
		for i, ch := range chs {
			if ch.Number != i+1 {
				record(Issue{Kind: NumberingGap, CourseID: courseID}, func() error {
					_, err := svc.ledger.Densify(ctx, courseID)
					return err
				})
				break
			}
		}
	}

	// quizzes not referenced by their course
	orphanQuizzes := map[string]struct{}{}
	for _, q := range snap.quizzes {
		c, ok := snap.courses[q.CourseID]
		if (ok && c.HasQuiz(q.ID)) || q.CreatedAt.After(cutoff) {
			continue
		}
		orphanQuizzes[q.ID] = struct{}{}
		record(Issue{Kind: OrphanQuiz, CourseID: q.CourseID, EntityID: q.ID}, func() error {
			return svc.quizzes.DeleteQuiz(ctx, q.ID)
		})
	}

	// questions whose quiz is gone or does not reference them
	for _, qn := range snap.questions {
		if qn.CreatedAt.After(cutoff) {
			continue
		}
		q, ok := snap.quizByID[qn.QuizID]
		_, quizOrphaned := orphanQuizzes[qn.QuizID]
		if ok && !quizOrphaned && core.ContainsString(q.QuestionIDs, qn.ID) {
			continue
		}
		record(Issue{Kind: OrphanQuestion, CourseID: qn.CourseID, EntityID: qn.ID}, func() error {
			_, err := svc.questions.DeleteQuestionsByID(ctx, []string{qn.ID})
			return err
		})
	}

	rep.FinishedAt = core.NowFunc()
	if len(rep.Issues) > 0 {
		svc.log.Warn("integrity issues found", "issues", len(rep.Issues), "fix", fix, "courses", rep.CoursesScanned)
	} else {
		svc.log.Info("no integrity issues found", "courses", rep.CoursesScanned)
	}
	return rep, nil
}
