package quiz_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
	"github.com/trezcool/elimu/tests"
)

func answers(raw ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		out = append(out, json.RawMessage(r))
	}
	return out
}

func questionIDs(qs []question.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func sampleQuestions() []question.NewQuestion {
	return []question.NewQuestion{
		testutil.TextQuestion("Capital of France?", "Paris"),
		testutil.SingleChoiceQuestion("2 + 2 ?", "4", "3", "4", "5"),
		testutil.MultipleChoiceQuestion("Primes?", []string{"2", "3"}, "1", "2", "3", "4"),
	}
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	creator := testutil.NewUserID()
	c := testutil.CreateCourse(t, env, creator, "Go 101")

	bad := sampleQuestions()
	bad[2] = testutil.MultipleChoiceQuestion("Primes?", []string{"7"}, "1", "2")

	tests := []struct {
		name      string
		user      string
		nq        quiz.NewQuiz
		wantKind  core.Kind
		wantField string
	}{
		{name: "missing title", user: creator, nq: quiz.NewQuiz{}, wantKind: core.KindValidation, wantField: "title"},
		{name: "not the creator", user: testutil.NewUserID(), nq: quiz.NewQuiz{Title: "Q"}, wantKind: core.KindForbidden},
		{
			name: "invalid question", user: creator, nq: quiz.NewQuiz{Title: "Q", Questions: bad},
			wantKind: core.KindValidation, wantField: "questions[2].solution",
		},
		{name: "empty quiz", user: creator, nq: quiz.NewQuiz{Title: "Empty"}},
		{name: "with questions", user: creator, nq: quiz.NewQuiz{Title: "Full", Questions: sampleQuestions()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := env.QuizSvc.Create(ctx, c.ID, tt.user, tt.nq)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, core.KindOf(err))
				if tt.wantField != "" {
					var verr *core.ValidationError
					require.ErrorAs(t, err, &verr)
					assert.Equal(t, tt.wantField, verr.Fields[0].Field)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, questionIDs(v.Questions), v.QuestionIDs)
			assert.Len(t, v.Questions, len(tt.nq.Questions))
			for _, q := range v.Questions {
				assert.Equal(t, v.ID, q.QuizID)
				assert.Equal(t, c.ID, q.CourseID)
			}

			got, err := env.CourseSvc.Get(ctx, c.ID)
			require.NoError(t, err)
			assert.True(t, got.HasQuiz(v.ID))
		})
	}

	// nothing from the rejected quizzes was kept
	qs, err := env.QuestionRepo.QueryQuestions(ctx, question.QueryFilter{CourseID: c.ID})
	require.NoError(t, err)
	assert.Len(t, qs, 3)
}

type failingLinks struct {
	course.Repository
}

func (failingLinks) LinkContent(context.Context, string, course.ContentKind, string, ...core.DBExecutor) error {
	return errors.New("course store down")
}

func TestService_Create_rollsBack(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	svc := quiz.NewService(env.QuizRepo, env.SubmissionRepo, env.QuestionSvc, failingLinks{env.CourseRepo}, env.EnrollRepo, nil)

	_, err := svc.Create(ctx, c.ID, c.Creator, quiz.NewQuiz{Title: "Q", Questions: sampleQuestions()})
	require.Error(t, err)

	quizzes, err := env.QuizRepo.QueryQuizzes(ctx, quiz.QueryFilter{CourseID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, quizzes)
	qs, err := env.QuestionRepo.QueryQuestions(ctx, question.QueryFilter{CourseID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestService_GetForLearner(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
	other := testutil.CreateCourse(t, env, c.Creator, "Other")

	lqs, err := env.QuizSvc.GetForLearner(ctx, v.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, lqs, 3)
	for i, lq := range lqs {
		assert.Equal(t, v.QuestionIDs[i], lq.QuestionID)
	}
	assert.Empty(t, lqs[0].Options)
	assert.Equal(t, []string{"3", "4", "5"}, lqs[1].Options)

	data, err := json.Marshal(lqs)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Paris")
	assert.NotContains(t, string(data), "solution")

	_, err = env.QuizSvc.GetForLearner(ctx, v.ID, other.ID)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}

func TestService_Submit(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101", testutil.Published)
	v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
	learner := testutil.NewUserID()
	testutil.Enroll(t, env, c, learner)

	tests := []struct {
		name        string
		user        string
		answers     []json.RawMessage
		wantScore   int
		wantCorrect []bool
		wantKind    core.Kind
		wantField   string
	}{
		{name: "not enrolled", user: testutil.NewUserID(), answers: answers(`"Paris"`, `"4"`, `["2","3"]`), wantKind: core.KindForbidden},
		{name: "too few answers", user: learner, answers: answers(`"Paris"`), wantKind: core.KindValidation, wantField: "answers"},
		{
			name: "answer not an option", user: learner, answers: answers(`"Paris"`, `"6"`, `["2"]`),
			wantKind: core.KindValidation, wantField: "answers[1].answer",
		},
		{
			name: "all correct", user: learner, answers: answers(`"Paris"`, `"4"`, `["3","2"]`),
			wantScore: 3, wantCorrect: []bool{true, true, true},
		},
		{
			name: "some wrong", user: learner, answers: answers(`"paris"`, `"4"`, `["2"]`),
			wantScore: 1, wantCorrect: []bool{false, true, false},
		},
		{
			name: "creator may try", user: c.Creator, answers: answers(`"Paris"`, `"3"`, `["1","2","3"]`),
			wantScore: 2, wantCorrect: []bool{true, false, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := env.QuizSvc.Submit(ctx, v.ID, c.ID, tt.user, tt.answers)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, core.KindOf(err))
				if tt.wantField != "" {
					var verr *core.ValidationError
					require.ErrorAs(t, err, &verr)
					assert.Equal(t, tt.wantField, verr.Fields[0].Field)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, sub.Score)
			require.Len(t, sub.Results, len(tt.wantCorrect))
			for i, res := range sub.Results {
				assert.Equal(t, v.QuestionIDs[i], res.QuestionID)
				assert.Equal(t, tt.wantCorrect[i], res.IsCorrect)
			}
		})
	}

	subs, err := env.QuizSvc.ListSubmissions(ctx, v.ID, c.ID, learner)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 3, subs[0].Score)
	assert.Equal(t, 1, subs[1].Score)
}

func TestService_Submit_strictMultipleChoice(t *testing.T) {
	env := testutil.NewEnv(testutil.WithStrictMultipleChoice())
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", testutil.MultipleChoiceQuestion("Primes?", []string{"2", "3"}, "1", "2", "3"))

	sub, err := env.QuizSvc.Submit(ctx, v.ID, c.ID, c.Creator, answers(`["1","2","3"]`))
	require.NoError(t, err)
	assert.Zero(t, sub.Score)
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
	str := func(s string) *string { return &s }

	_, err := env.QuizSvc.Update(ctx, v.ID, c.ID, c.Creator, quiz.UpdateQuiz{
		Questions: []question.UpdateQuestion{{ID: core.NewID(), Content: str("x")}},
	})
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	// the second update is invalid: the first one must not be applied either
	_, err = env.QuizSvc.Update(ctx, v.ID, c.ID, c.Creator, quiz.UpdateQuiz{
		Questions: []question.UpdateQuestion{
			{ID: v.QuestionIDs[0], Content: str("Changed")},
			{ID: v.QuestionIDs[1], Solution: json.RawMessage(`{"solution": "9", "options": ["3", "4"]}`)},
		},
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "questions[1].solution", verr.Fields[0].Field)
	q0, err := env.QuestionSvc.Get(ctx, v.QuestionIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Capital of France?", q0.Content)

	got, err := env.QuizSvc.Update(ctx, v.ID, c.ID, c.Creator, quiz.UpdateQuiz{
		Title:     str("Renamed"),
		Questions: []question.UpdateQuestion{{ID: v.QuestionIDs[0], Solution: json.RawMessage(`"Lutetia"`)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, v.QuestionIDs, questionIDs(got.Questions))
	assert.Equal(t, question.TextSolution{Answer: "Lutetia"}, got.Questions[0].Solution)
}

func TestService_OverwriteQuestions(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)

	_, err := env.QuizSvc.OverwriteQuestions(ctx, v.ID, c.ID, c.Creator, []question.NewQuestion{{Content: "x", Type: "ESSAY"}})
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	kept, err := env.QuestionSvc.ListByQuiz(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	got, err := env.QuizSvc.OverwriteQuestions(ctx, v.ID, c.ID, c.Creator, []question.NewQuestion{
		testutil.TextQuestion("Only one", "yes"),
	})
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, []string{got.Questions[0].ID}, got.QuestionIDs)

	all, err := env.QuestionRepo.QueryQuestions(ctx, question.QueryFilter{CourseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, got.QuestionIDs, questionIDs(all))
}

func TestService_Questions(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", testutil.TextQuestion("First", "1"))
	v2 := testutil.CreateQuiz(t, env, c, "Other quiz", testutil.TextQuestion("Elsewhere", "x"))

	added, err := env.QuizSvc.AddQuestion(ctx, v.ID, c.ID, c.Creator, testutil.SingleChoiceQuestion("Pick", "a", "a", "b"))
	require.NoError(t, err)

	view, err := env.QuizSvc.Get(ctx, v.ID, c.ID, c.Creator)
	require.NoError(t, err)
	assert.Equal(t, []string{v.QuestionIDs[0], added.ID}, view.QuestionIDs)

	_, err = env.QuizSvc.GetQuestion(ctx, v2.QuestionIDs[0], v.ID, c.ID, c.Creator)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	_, err = env.QuizSvc.GetQuestion(ctx, added.ID, v.ID, c.ID, testutil.NewUserID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	content := "Pick one"
	upd, err := env.QuizSvc.UpdateQuestion(ctx, added.ID, v.ID, c.ID, c.Creator, question.UpdateQuestion{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "Pick one", upd.Content)

	deleted, err := env.QuizSvc.DeleteQuestion(ctx, added.ID, v.ID, c.ID, c.Creator)
	require.NoError(t, err)
	assert.Equal(t, added.ID, deleted.ID)

	view, err = env.QuizSvc.Get(ctx, v.ID, c.ID, c.Creator)
	require.NoError(t, err)
	assert.Equal(t, []string{v.QuestionIDs[0]}, view.QuestionIDs)
	_, err = env.QuestionSvc.Get(ctx, added.ID)
	assert.True(t, errors.Is(err, question.ErrNotFound))
}

func TestService_Delete(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
	keep := testutil.CreateQuiz(t, env, c, "Keep", testutil.TextQuestion("Stay", "yes"))

	_, err := env.QuizSvc.Delete(ctx, v.ID, c.ID, testutil.NewUserID())
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	deleted, err := env.QuizSvc.Delete(ctx, v.ID, c.ID, c.Creator)
	require.NoError(t, err)
	assert.Equal(t, v.ID, deleted.ID)

	_, err = env.QuizSvc.Get(ctx, v.ID, c.ID, c.Creator)
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
	qs, err := env.QuestionRepo.QueryQuestions(ctx, question.QueryFilter{CourseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, keep.QuestionIDs, questionIDs(qs))

	got, err := env.CourseSvc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, got.QuizIDs)

	quizzes, err := env.QuizSvc.ListByCourse(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, keep.ID, quizzes[0].ID)
}

// hookedQuizzes runs hook right after the next quiz lookup once armed.
type hookedQuizzes struct {
	quiz.Repository
	armed int32
	hook  func()
}

func (r *hookedQuizzes) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	q, err := r.Repository.GetQuiz(ctx, id)
	if atomic.CompareAndSwapInt32(&r.armed, 1, 0) {
		r.hook()
	}
	return q, err
}

func TestService_Update_keepsConcurrentQuestion(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", testutil.TextQuestion("First", "1"))

	repo := &hookedQuizzes{Repository: env.QuizRepo}
	svc := quiz.NewService(repo, env.SubmissionRepo, env.QuestionSvc, env.CourseRepo, env.EnrollRepo, nil)

	var added question.Question
	repo.hook = func() {
		var err error
		added, err = svc.AddQuestion(ctx, v.ID, c.ID, c.Creator, testutil.TextQuestion("Second", "2"))
		require.NoError(t, err)
	}
	atomic.StoreInt32(&repo.armed, 1)

	title := "Renamed"
	got, err := svc.Update(ctx, v.ID, c.ID, c.Creator, quiz.UpdateQuiz{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, []string{v.QuestionIDs[0], added.ID}, got.QuestionIDs)

	stored, err := env.QuizRepo.GetQuiz(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{v.QuestionIDs[0], added.ID}, stored.QuestionIDs)
}

type failingQuestions struct {
	question.Repository
	failCreate   bool
	failDelete   bool
	updateFailAt int32 // 1-based; 0 never fails
	updates      int32
}

func (r *failingQuestions) CreateQuestions(ctx context.Context, qs []question.Question, exec ...core.DBExecutor) ([]question.Question, error) {
	if r.failCreate {
		return nil, errors.New("question store down")
	}
	return r.Repository.CreateQuestions(ctx, qs, exec...)
}

func (r *failingQuestions) DeleteQuestionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if r.failDelete {
		return 0, errors.New("question store down")
	}
	return r.Repository.DeleteQuestionsByID(ctx, ids, exec...)
}

func (r *failingQuestions) UpdateQuestion(ctx context.Context, q question.Question, exec ...core.DBExecutor) (question.Question, error) {
	if atomic.AddInt32(&r.updates, 1) == r.updateFailAt {
		return question.Question{}, errors.New("question store down")
	}
	return r.Repository.UpdateQuestion(ctx, q, exec...)
}

type failingUnlinks struct {
	course.Repository
}

func (failingUnlinks) UnlinkContent(context.Context, string, course.ContentKind, string, ...core.DBExecutor) error {
	return errors.New("course store down")
}

func TestService_Update_partialFailure(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name        string
		failAt      int32
		wantKind    core.Kind
		wantContent []string
	}{
		{name: "first write fails", failAt: 1, wantContent: []string{"Capital of France?", "2 + 2 ?"}},
		{name: "second write fails", failAt: 2, wantKind: core.KindDependencyFailure, wantContent: []string{"Changed 0", "2 + 2 ?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv()
			ctx := context.Background()
			c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
			v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
			qsvc := question.NewService(&failingQuestions{Repository: env.QuestionRepo, updateFailAt: tt.failAt}, nil)
			svc := quiz.NewService(env.QuizRepo, env.SubmissionRepo, qsvc, env.CourseRepo, env.EnrollRepo, nil)

			_, err := svc.Update(ctx, v.ID, c.ID, c.Creator, quiz.UpdateQuiz{
				Questions: []question.UpdateQuestion{
					{ID: v.QuestionIDs[0], Content: str("Changed 0")},
					{ID: v.QuestionIDs[1], Content: str("Changed 1")},
				},
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, core.KindOf(err))
			assert.Contains(t, err.Error(), "updating question "+v.QuestionIDs[tt.failAt-1])

			for i, want := range tt.wantContent {
				qn, err := env.QuestionSvc.Get(ctx, v.QuestionIDs[i])
				require.NoError(t, err)
				assert.Equal(t, want, qn.Content)
			}
		})
	}
}

func TestService_OverwriteQuestions_partialFailure(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
	v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
	qsvc := question.NewService(&failingQuestions{Repository: env.QuestionRepo, failCreate: true}, nil)
	svc := quiz.NewService(env.QuizRepo, env.SubmissionRepo, qsvc, env.CourseRepo, env.EnrollRepo, nil)

	_, err := svc.OverwriteQuestions(ctx, v.ID, c.ID, c.Creator, []question.NewQuestion{testutil.TextQuestion("New", "n")})
	require.Error(t, err)
	assert.Equal(t, core.KindDependencyFailure, core.KindOf(err))
	assert.Contains(t, err.Error(), "creating questions failed")
	assert.Contains(t, err.Error(), "not rolled back")

	// the old questions are gone and nothing replaced them
	left, err := env.QuestionSvc.ListByQuiz(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	view, err := env.QuizSvc.Get(ctx, v.ID, c.ID, c.Creator)
	require.NoError(t, err)
	assert.Empty(t, view.Questions)
}

func TestService_Delete_partialFailure(t *testing.T) {
	t.Run("deleting questions fails", func(t *testing.T) {
		env := testutil.NewEnv()
		ctx := context.Background()
		c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
		v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
		qsvc := question.NewService(&failingQuestions{Repository: env.QuestionRepo, failDelete: true}, nil)
		svc := quiz.NewService(env.QuizRepo, env.SubmissionRepo, qsvc, env.CourseRepo, env.EnrollRepo, nil)

		_, err := svc.Delete(ctx, v.ID, c.ID, c.Creator)
		require.Error(t, err)
		assert.Equal(t, core.KindDependencyFailure, core.KindOf(err))
		assert.Contains(t, err.Error(), "deleting questions failed")

		// quiz gone, its questions and the course reference left behind
		_, err = env.QuizRepo.GetQuiz(ctx, v.ID)
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
		qs, err := env.QuestionRepo.QueryQuestions(ctx, question.QueryFilter{QuizID: v.ID})
		require.NoError(t, err)
		assert.Len(t, qs, 3)
		got, err := env.CourseRepo.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.HasQuiz(v.ID))
	})

	t.Run("unlinking from the course fails", func(t *testing.T) {
		env := testutil.NewEnv()
		ctx := context.Background()
		c := testutil.CreateCourse(t, env, testutil.NewUserID(), "Go 101")
		v := testutil.CreateQuiz(t, env, c, "Quiz", sampleQuestions()...)
		svc := quiz.NewService(env.QuizRepo, env.SubmissionRepo, env.QuestionSvc, failingUnlinks{env.CourseRepo}, env.EnrollRepo, nil)

		_, err := svc.Delete(ctx, v.ID, c.ID, c.Creator)
		require.Error(t, err)
		assert.Equal(t, core.KindDependencyFailure, core.KindOf(err))
		assert.Contains(t, err.Error(), "unlinking quiz from course failed")

		// quiz and questions gone, only the course reference dangles
		_, err = env.QuizRepo.GetQuiz(ctx, v.ID)
		assert.True(t, errors.Is(err, quiz.ErrNotFound))
		qs, err := env.QuestionRepo.QueryQuestions(ctx, question.QueryFilter{QuizID: v.ID})
		require.NoError(t, err)
		assert.Empty(t, qs)
		got, err := env.CourseRepo.GetCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.HasQuiz(v.ID))
	})
}
