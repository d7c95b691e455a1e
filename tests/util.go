package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/core/reconcile"
	"github.com/trezcool/elimu/services/lock"
	"github.com/trezcool/elimu/storage/database/inmem"
)

// Env is a fully wired set of services over a fresh in-memory store.
type Env struct {
	DB             *inmemdb.DB
	CourseRepo     course.Repository
	EnrollRepo     course.EnrollmentRepository
	CommissionRepo course.CommissionRepository
	ChapterRepo    chapter.Repository
	QuizRepo       quiz.Repository
	QuestionRepo   question.Repository
	SubmissionRepo quiz.SubmissionRepository

	QuestionSvc  *question.Service
	QuizSvc      *quiz.Service
	ChapterSvc   *chapter.Service
	CourseSvc    *course.Service
	ReconcileSvc *reconcile.Service
}

type envConfig struct {
	strictMultipleChoice bool
	logger               core.Logger
	grace                time.Duration
}

type EnvOption func(*envConfig)

func WithStrictMultipleChoice() EnvOption {
	return func(c *envConfig) { c.strictMultipleChoice = true }
}

func WithLogger(logger core.Logger) EnvOption {
	return func(c *envConfig) { c.logger = logger }
}

func WithGracePeriod(d time.Duration) EnvOption {
	return func(c *envConfig) { c.grace = d }
}

func NewEnv(opts ...EnvOption) *Env {
	cfg := &envConfig{logger: core.NopLogger{}}
	for _, o := range opts {
		o(cfg)
	}

	db := inmemdb.Open()
	env := &Env{
		DB:             db,
		CourseRepo:     inmemdb.NewCourseRepository(db),
		EnrollRepo:     inmemdb.NewEnrollmentRepository(db),
		CommissionRepo: inmemdb.NewCommissionRepository(db),
		ChapterRepo:    inmemdb.NewChapterRepository(db),
		QuizRepo:       inmemdb.NewQuizRepository(db),
		QuestionRepo:   inmemdb.NewQuestionRepository(db),
		SubmissionRepo: inmemdb.NewSubmissionRepository(db),
	}
	env.QuestionSvc = question.NewService(
		env.QuestionRepo,
		question.NewGrader(question.WithStrictMultipleChoice(cfg.strictMultipleChoice)),
	)
	env.QuizSvc = quiz.NewService(env.QuizRepo, env.SubmissionRepo, env.QuestionSvc, env.CourseRepo, env.EnrollRepo, cfg.logger)
	env.ChapterSvc = chapter.NewService(env.ChapterRepo, env.CourseRepo, inmemdb.TxRunner{}, locksvc.NewLocalLocker(), cfg.logger)
	env.CourseSvc = course.NewService(env.CourseRepo, env.EnrollRepo, env.CommissionRepo, env.QuizSvc, env.ChapterSvc, cfg.logger)
	env.ReconcileSvc = reconcile.NewService(
		env.CourseRepo, env.ChapterRepo, env.QuizRepo, env.QuestionRepo, env.ChapterSvc, cfg.logger,
		reconcile.WithGracePeriod(cfg.grace),
	)
	return env
}

func NewUserID() string {
	return core.NewID()
}

func Identity(id string, roles ...string) core.Identity {
	return core.Identity{ID: id, Roles: roles}
}

type CourseOption func(*course.NewCourse)

func Published(nc *course.NewCourse) { nc.IsPublished = true }

func WithTags(tags ...string) CourseOption {
	return func(nc *course.NewCourse) { nc.Tags = tags }
}

func WithCategory(cat course.Category) CourseOption {
	return func(nc *course.NewCourse) { nc.Category = string(cat) }
}

func WithDescription(desc string) CourseOption {
	return func(nc *course.NewCourse) { nc.Description = desc }
}

func WithPrice(price string) CourseOption {
	return func(nc *course.NewCourse) { nc.Price = decimal.RequireFromString(price) }
}

func CreateCourse(t *testing.T, env *Env, creatorID, title string, opts ...CourseOption) course.Course {
	t.Helper()
	nc := course.NewCourse{
		Title:       title,
		Description: title + " description",
		Creator:     creatorID,
		Category:    string(course.CategoryTechnology),
	}
	for _, o := range opts {
		o(&nc)
	}
	c, err := env.CourseSvc.Create(context.Background(), creatorID, nc)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// CreateChapters appends n chapters to the course.
func CreateChapters(t *testing.T, env *Env, c course.Course, n int) []chapter.Chapter {
	t.Helper()
	ctx := context.Background()
	count, err := env.ChapterRepo.CountChapters(ctx, c.ID)
	if err != nil {
		t.Fatalf("CreateChapters() failed: %v", err)
	}
	chs := make([]chapter.Chapter, 0, n)
	for i := 1; i <= n; i++ {
		ch, err := env.ChapterSvc.Create(ctx, c.ID, c.Creator, chapter.NewChapter{
			Number:  count + i,
			Title:   "Chapter",
			Content: "Lorem ipsum",
		})
		if err != nil {
			t.Fatalf("CreateChapters() failed: %v", err)
		}
		chs = append(chs, ch)
	}
	return chs
}

func CreateQuiz(t *testing.T, env *Env, c course.Course, title string, questions ...question.NewQuestion) quiz.View {
	t.Helper()
	v, err := env.QuizSvc.Create(context.Background(), c.ID, c.Creator, quiz.NewQuiz{Title: title, Questions: questions})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return v
}

func Enroll(t *testing.T, env *Env, c course.Course, learnerID string) {
	t.Helper()
	if _, err := env.CourseSvc.Enroll(context.Background(), c.ID, learnerID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
}

func TextQuestion(content, answer string) question.NewQuestion {
	return question.NewQuestion{Content: content, Type: question.TypeText, Solution: MustJSON(answer)}
}

func SingleChoiceQuestion(content, answer string, options ...string) question.NewQuestion {
	return question.NewQuestion{
		Content:  content,
		Type:     question.TypeSingleChoice,
		Solution: MustJSON(map[string]interface{}{"solution": answer, "options": options}),
	}
}

func MultipleChoiceQuestion(content string, answers []string, options ...string) question.NewQuestion {
	return question.NewQuestion{
		Content:  content,
		Type:     question.TypeMultipleChoice,
		Solution: MustJSON(map[string]interface{}{"solution": answers, "options": options}),
	}
}

func MustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// Backdate moves NowFunc back by d for the duration of the test.
func Backdate(t *testing.T, d time.Duration) {
	t.Helper()
	core.NowFunc = func() time.Time { return time.Now().UTC().Add(-d) }
	t.Cleanup(ResetClock)
}

// FakeClock makes NowFunc tick one second forward on every call, starting at start.
func FakeClock(t *testing.T, start time.Time) {
	t.Helper()
	var mu sync.Mutex
	now := start.UTC()
	core.NowFunc = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	t.Cleanup(ResetClock)
}

func ResetClock() {
	core.NowFunc = func() time.Time { return time.Now().UTC() }
}
