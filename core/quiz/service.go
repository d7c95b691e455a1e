package quiz

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/question"
)

var (
	// errors
	ErrNotFound = core.NotFound("quiz not found")
)

type (
	Repository interface {
		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		// QueryQuizzes returns matching quizzes ordered by creation time.
		QueryQuizzes(ctx context.Context, filter QueryFilter) ([]Quiz, error)
		// UpdateQuiz writes title and description; question references are left untouched.
		UpdateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		// SetQuestionRefs replaces the question references of the quiz.
		SetQuestionRefs(ctx context.Context, quizID string, questionIDs []string) (Quiz, error)
		// AddQuestionRef atomically appends questionID to the question references of the quiz.
		AddQuestionRef(ctx context.Context, quizID, questionID string) error
		// RemoveQuestionRef atomically removes questionID from the question references of the quiz.
		RemoveQuestionRef(ctx context.Context, quizID, questionID string) error
		DeleteQuiz(ctx context.Context, id string) error
		DeleteQuizzesByCourse(ctx context.Context, courseID string) (int, error)
	}

	Service struct {
		repo        Repository
		submissions SubmissionRepository
		questions   *question.Service
		courses     course.Repository
		enrollments course.EnrollmentRepository
		log         core.Logger
	}
)

func NewService(
	repo Repository,
	submissions SubmissionRepository,
	questions *question.Service,
	courses course.Repository,
	enrollments course.EnrollmentRepository,
	logger core.Logger,
) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Service{
		repo:        repo,
		submissions: submissions,
		questions:   questions,
		courses:     courses,
		enrollments: enrollments,
		log:         logger,
	}
}

func (svc *Service) ownedCourse(ctx context.Context, courseID, creatorID string) (course.Course, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return course.Course{}, err
	}
	if !c.IsCreator(creatorID) {
		return course.Course{}, course.ErrNotCreator
	}
	return c, nil
}

// quizInCourse returns the quiz if it belongs to the course; one of another course is reported as not found.
func (svc *Service) quizInCourse(ctx context.Context, quizID, courseID string) (Quiz, error) {
	q, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	if q.CourseID != courseID {
		return Quiz{}, ErrNotFound
	}
	return q, nil
}

func (svc *Service) ownedQuiz(ctx context.Context, quizID, courseID, creatorID string) (Quiz, error) {
	if _, err := svc.ownedCourse(ctx, courseID, creatorID); err != nil {
		return Quiz{}, err
	}
	return svc.quizInCourse(ctx, quizID, courseID)
}

func (svc *Service) isEnrolled(ctx context.Context, courseID, learnerID string) (bool, error) {
	e, err := svc.enrollments.GetEnrollment(ctx, courseID)
	if errors.Is(err, course.ErrEnrollmentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return core.ContainsString(e.LearnerIDs, learnerID), nil
}

// orderedQuestions loads the questions of q in the order of its references.
func (svc *Service) orderedQuestions(ctx context.Context, q Quiz) ([]question.Question, error) {
	if len(q.QuestionIDs) == 0 {
		return []question.Question{}, nil
	}
	qs, err := svc.questions.Query(ctx, question.QueryFilter{IDs: q.QuestionIDs, QuizID: q.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	byID := make(map[string]question.Question, len(qs))
	for _, qn := range qs {
		byID[qn.ID] = qn
	}
	out := make([]question.Question, 0, len(q.QuestionIDs))
	for _, id := range q.QuestionIDs {
		if qn, ok := byID[id]; ok {
			out = append(out, qn)
		}
	}
	return out, nil
}

// Create stores the quiz already populated with its questions, then links it to the course.
// Every question is validated before anything is written; later failures undo the earlier writes.
func (svc *Service) Create(ctx context.Context, courseID, creatorID string, nq NewQuiz) (View, error) {
	const op = "quiz.Create"
	if err := nq.Validate(); err != nil {
		return View{}, err
	}
	if _, err := svc.ownedCourse(ctx, courseID, creatorID); err != nil {
		return View{}, err
	}

	quizID := core.NewID()
	qs, err := svc.questions.Build(quizID, courseID, creatorID, nq.Questions)
	if err != nil {
		return View{}, err
	}
	qs, err = svc.questions.Store(ctx, qs)
	if err != nil {
		return View{}, err
	}
	qids := make([]string, 0, len(qs))
	for _, qn := range qs {
		qids = append(qids, qn.ID)
	}
	deleteQuestions := func() error {
		_, err := svc.questions.Delete(ctx, qids...)
		return err
	}

	now := core.NowFunc()
	q, err := svc.repo.CreateQuiz(ctx, Quiz{
		ID:          quizID,
		CourseID:    courseID,
		CreatorID:   creatorID,
		Title:       nq.Title,
		Description: nq.Description,
		QuestionIDs: qids,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return View{}, core.Compensate(op, errors.Wrap(err, "creating quiz"), deleteQuestions)
	}

	err = svc.courses.LinkContent(ctx, courseID, course.ContentQuiz, q.ID)
	if err = core.Compensate(op, errors.Wrap(err, "linking quiz to course"), func() error {
		if err := svc.repo.DeleteQuiz(ctx, q.ID); err != nil {
			return err
		}
		return deleteQuestions()
	}); err != nil {
		svc.log.Error("quiz creation rolled back", "courseId", courseID, "quizId", q.ID, "error", err)
		return View{}, err
	}
	return View{Quiz: q, Questions: qs}, nil
}

// Get returns the creator view of a quiz.
func (svc *Service) Get(ctx context.Context, quizID, courseID, creatorID string) (View, error) {
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return View{}, err
	}
	qs, err := svc.orderedQuestions(ctx, q)
	if err != nil {
		return View{}, err
	}
	return View{Quiz: q, Questions: qs}, nil
}

func (svc *Service) ListByCourse(ctx context.Context, courseID string) ([]Quiz, error) {
	if _, err := svc.courses.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryQuizzes(ctx, QueryFilter{CourseID: courseID})
}

// GetForLearner returns the questions of a quiz without their solutions.
func (svc *Service) GetForLearner(ctx context.Context, quizID, courseID string) ([]question.LearnerQuestion, error) {
	q, err := svc.quizInCourse(ctx, quizID, courseID)
	if err != nil {
		return nil, err
	}
	qs, err := svc.orderedQuestions(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]question.LearnerQuestion, 0, len(qs))
	for _, qn := range qs {
		out = append(out, qn.LearnerView())
	}
	return out, nil
}

// Update changes the quiz fields and merges each question update into its stored question.
// All updates are validated before the first write.
func (svc *Service) Update(ctx context.Context, quizID, courseID, creatorID string, uq UpdateQuiz) (View, error) {
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return View{}, err
	}
	updated, err := uq.apply(q)
	if err != nil {
		return View{}, err
	}

	type pending struct {
		orig question.Question
		upd  question.UpdateQuestion
	}
	todo := make([]pending, 0, len(uq.Questions))
	for i, u := range uq.Questions {
		if u.ID == "" || !core.ContainsString(q.QuestionIDs, u.ID) {
			msg := fmt.Sprintf("question %q is not part of this quiz", u.ID)
			return View{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: fmt.Sprintf("questions[%d].questionId", i), Error: msg})
		}
		orig, err := svc.questions.Get(ctx, u.ID)
		if err != nil {
			return View{}, err
		}
		if _, err := u.Merge(orig); err != nil {
			return View{}, prefixFields(fmt.Sprintf("questions[%d]", i), err)
		}
		todo = append(todo, pending{orig: orig, upd: u})
	}

	// a failure after the first write leaves the earlier updates in place
	const op = "quiz.Update"
	wrote := false
	fail := func(step string, err error) (View, error) {
		if !wrote {
			return View{}, errors.Wrap(err, step)
		}
		svc.log.Error("quiz update stopped midway", "quizId", q.ID, "step", step, "error", err)
		return View{}, core.NewPartialFailure(op, step, err)
	}
	for _, p := range todo {
		if _, err := svc.questions.Update(ctx, p.orig, p.upd); err != nil {
			return fail("updating question "+p.orig.ID, err)
		}
		wrote = true
	}
	if uq.Title != nil || uq.Description != nil {
		updated.UpdatedAt = core.NowFunc()
		if q, err = svc.repo.UpdateQuiz(ctx, updated); err != nil {
			return fail("updating quiz", err)
		}
	} else if q, err = svc.repo.GetQuiz(ctx, q.ID); err != nil {
		return View{}, err
	}

	qs, err := svc.orderedQuestions(ctx, q)
	if err != nil {
		return View{}, err
	}
	return View{Quiz: q, Questions: qs}, nil
}

// OverwriteQuestions replaces every question of the quiz with a fresh set.
// Once the old questions are deleted nothing is rolled back.
func (svc *Service) OverwriteQuestions(ctx context.Context, quizID, courseID, creatorID string, nqs []question.NewQuestion) (View, error) {
	const op = "quiz.OverwriteQuestions"
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return View{}, err
	}
	fresh, err := svc.questions.Build(q.ID, courseID, creatorID, nqs)
	if err != nil {
		return View{}, err
	}

	current, err := svc.questions.ListByQuiz(ctx, q.ID)
	if err != nil {
		return View{}, errors.Wrap(err, "listing questions")
	}
	ids := make([]string, 0, len(current))
	for _, qn := range current {
		ids = append(ids, qn.ID)
	}
	if _, err := svc.questions.Delete(ctx, ids...); err != nil {
		return View{}, errors.Wrap(err, "deleting questions")
	}

	fail := func(step string, err error) (View, error) {
		svc.log.Error("question overwrite stopped midway", "quizId", q.ID, "step", step, "error", err)
		return View{}, core.NewPartialFailure(op, step, err)
	}
	if err := ctx.Err(); err != nil {
		return fail("creating questions", err)
	}
	stored, err := svc.questions.Store(ctx, fresh)
	if err != nil {
		return fail("creating questions", err)
	}
	qids := make([]string, 0, len(stored))
	for _, qn := range stored {
		qids = append(qids, qn.ID)
	}
	if q, err = svc.repo.SetQuestionRefs(ctx, q.ID, qids); err != nil {
		return fail("updating quiz questions", err)
	}
	return View{Quiz: q, Questions: stored}, nil
}

// Delete removes the quiz, then its questions, then its reference from the course.
// Each step failing is reported on its own; earlier steps are not rolled back.
func (svc *Service) Delete(ctx context.Context, quizID, courseID, creatorID string) (Quiz, error) {
	const op = "quiz.Delete"
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return Quiz{}, err
	}
	if err := svc.repo.DeleteQuiz(ctx, q.ID); err != nil {
		return Quiz{}, errors.Wrap(err, "deleting quiz")
	}

	fail := func(step string, err error) (Quiz, error) {
		svc.log.Error("quiz deletion stopped midway", "quizId", q.ID, "step", step, "error", err)
		return Quiz{}, core.NewPartialFailure(op, step, err)
	}
	if err := ctx.Err(); err != nil {
		return fail("deleting questions", err)
	}
	current, err := svc.questions.ListByQuiz(ctx, q.ID)
	if err != nil {
		return fail("deleting questions", err)
	}
	ids := make([]string, 0, len(current))
	for _, qn := range current {
		ids = append(ids, qn.ID)
	}
	if _, err := svc.questions.Delete(ctx, ids...); err != nil {
		return fail("deleting questions", err)
	}
	if err := ctx.Err(); err != nil {
		return fail("unlinking quiz from course", err)
	}
	if err := svc.courses.UnlinkContent(ctx, courseID, course.ContentQuiz, q.ID); err != nil {
		return fail("unlinking quiz from course", err)
	}
	return q, nil
}

// DeleteByCourse removes every question then every quiz of the course.
func (svc *Service) DeleteByCourse(ctx context.Context, courseID string) (int, error) {
	if _, err := svc.questions.DeleteByCourse(ctx, courseID); err != nil {
		return 0, errors.Wrap(err, "deleting questions")
	}
	n, err := svc.repo.DeleteQuizzesByCourse(ctx, courseID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting quizzes")
	}
	return n, nil
}
