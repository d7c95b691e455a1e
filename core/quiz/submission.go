package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
)

// Submission is one graded attempt of a learner at a quiz. It is never modified once stored.
type Submission struct {
	ID        string            `json:"id"`
	QuizID    string            `json:"quizId"`
	CourseID  string            `json:"courseId"`
	LearnerID string            `json:"learnerId"`
	Results   []question.Result `json:"results"`
	Score     int               `json:"score"`
	CreatedAt time.Time         `json:"createdAt"` // UTC
}

// SubmissionFilter applies AND operation on the set fields.
type SubmissionFilter struct {
	QuizID    string
	CourseID  string
	LearnerID string
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, s Submission) (Submission, error)
	// QuerySubmissions returns matching submissions, oldest first.
	QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
}

// Submit grades every answer in order and records the attempt.
// There must be exactly one answer per question of the quiz.
func (svc *Service) Submit(ctx context.Context, quizID, courseID, learnerID string, answers []json.RawMessage) (Submission, error) {
	c, err := svc.courses.GetCourse(ctx, courseID)
	if err != nil {
		return Submission{}, err
	}
	q, err := svc.quizInCourse(ctx, quizID, courseID)
	if err != nil {
		return Submission{}, err
	}
	if !c.IsCreator(learnerID) {
		enrolled, err := svc.isEnrolled(ctx, courseID, learnerID)
		if err != nil {
			return Submission{}, err
		}
		if !enrolled {
			return Submission{}, core.Forbidden("learner is not enrolled in this course")
		}
	}

	if len(answers) != len(q.QuestionIDs) {
		msg := fmt.Sprintf("expected %d answers, got %d", len(q.QuestionIDs), len(answers))
		return Submission{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "answers", Error: msg})
	}

	results := make([]question.Result, 0, len(answers))
	score := 0
	for i, qid := range q.QuestionIDs {
		res, err := svc.questions.Grade(ctx, qid, answers[i])
		if err != nil {
			return Submission{}, prefixFields(fmt.Sprintf("answers[%d]", i), err)
		}
		if res.IsCorrect {
			score++
		}
		results = append(results, res)
	}

	s, err := svc.submissions.CreateSubmission(ctx, Submission{
		ID:        core.NewID(),
		QuizID:    q.ID,
		CourseID:  courseID,
		LearnerID: learnerID,
		Results:   results,
		Score:     score,
		CreatedAt: core.NowFunc(),
	})
	if err != nil {
		return Submission{}, errors.Wrap(err, "recording submission")
	}
	return s, nil
}

// ListSubmissions returns the attempts of learnerID at the quiz.
func (svc *Service) ListSubmissions(ctx context.Context, quizID, courseID, learnerID string) ([]Submission, error) {
	if _, err := svc.quizInCourse(ctx, quizID, courseID); err != nil {
		return nil, err
	}
	return svc.submissions.QuerySubmissions(ctx, SubmissionFilter{QuizID: quizID, CourseID: courseID, LearnerID: learnerID})
}

func prefixFields(prefix string, err error) error {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	flds := make([]core.FieldError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		flds = append(flds, core.FieldError{Field: prefix + "." + f.Field, Error: f.Error})
	}
	return core.NewValidationError(verr.Err, flds...)
}
