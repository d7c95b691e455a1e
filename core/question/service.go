package question

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrNotFound = core.NotFound("question not found")
)

type (
	// QueryFilter applies AND operation on the set fields.
	QueryFilter struct {
		IDs      []string
		QuizID   string
		CourseID string
	}

	Repository interface {
		CreateQuestions(ctx context.Context, questions []Question, exec ...core.DBExecutor) ([]Question, error)
		GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		// QueryQuestions returns matching questions ordered by creation time.
		QueryQuestions(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Question, error)
		UpdateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		DeleteQuestionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		DeleteQuestionsByCourse(ctx context.Context, courseID string, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo   Repository
		grader *Grader
	}
)

func NewService(repo Repository, grader *Grader) *Service {
	if grader == nil {
		grader = NewGrader()
	}
	return &Service{repo: repo, grader: grader}
}

// Build validates every NewQuestion and returns the Questions to be stored under the given quiz.
// Nothing is written: all questions are checked before the first write happens.
func (svc *Service) Build(quizID, courseID, creatorID string, nqs []NewQuestion) ([]Question, error) {
	now := core.NowFunc()
	questions := make([]Question, 0, len(nqs))
	for i := range nqs {
		sol, err := nqs[i].Validate()
		if err != nil {
			return nil, indexErr(i, err)
		}
		questions = append(questions, Question{
			ID:          core.NewID(),
			QuizID:      quizID,
			CourseID:    courseID,
			CreatorID:   creatorID,
			Content:     nqs[i].Content,
			Explanation: nqs[i].Explanation,
			Type:        nqs[i].Type,
			Solution:    sol,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return questions, nil
}

func (svc *Service) Store(ctx context.Context, questions []Question, exec ...core.DBExecutor) ([]Question, error) {
	if len(questions) == 0 {
		return []Question{}, nil
	}
	qs, err := svc.repo.CreateQuestions(ctx, questions, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "creating questions")
	}
	return qs, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

func (svc *Service) ListByQuiz(ctx context.Context, quizID string) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, QueryFilter{QuizID: quizID})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, filter)
}

// Update merges uq into the stored question and persists it.
func (svc *Service) Update(ctx context.Context, orig Question, uq UpdateQuestion) (Question, error) {
	q, err := uq.Merge(orig)
	if err != nil {
		return Question{}, err
	}
	q.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteQuestionsByID(ctx, ids)
}

func (svc *Service) DeleteByCourse(ctx context.Context, courseID string) (int, error) {
	return svc.repo.DeleteQuestionsByCourse(ctx, courseID)
}

// Grade looks the question up once and grades answer against its stored solution.
func (svc *Service) Grade(ctx context.Context, questionID string, answer json.RawMessage) (Result, error) {
	q, err := svc.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return Result{}, err
	}
	return svc.grader.Grade(q, answer)
}

// indexErr prefixes the fields of a validation error with the position of the offending question.
func indexErr(i int, err error) error {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	flds := make([]core.FieldError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		flds = append(flds, core.FieldError{Field: "questions[" + strconv.Itoa(i) + "]." + f.Field, Error: f.Error})
	}
	return core.NewValidationError(verr.Err, flds...)
}
