package quiz

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
)

func (svc *Service) questionInQuiz(ctx context.Context, questionID string, q Quiz) (question.Question, error) {
	qn, err := svc.questions.Get(ctx, questionID)
	if err != nil {
		return question.Question{}, err
	}
	if qn.QuizID != q.ID {
		return question.Question{}, question.ErrNotFound
	}
	return qn, nil
}

// AddQuestion creates one question and appends it to the quiz; the question is deleted again if that fails.
func (svc *Service) AddQuestion(ctx context.Context, quizID, courseID, creatorID string, nq question.NewQuestion) (question.Question, error) {
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return question.Question{}, err
	}
	if _, err := nq.Validate(); err != nil {
		return question.Question{}, err
	}
	built, err := svc.questions.Build(q.ID, courseID, creatorID, []question.NewQuestion{nq})
	if err != nil {
		return question.Question{}, err
	}

	stored, err := svc.questions.Store(ctx, built)
	if err != nil {
		return question.Question{}, err
	}
	qn := stored[0]

	err = svc.repo.AddQuestionRef(ctx, q.ID, qn.ID)
	if err = core.Compensate("quiz.AddQuestion", errors.Wrap(err, "linking question to quiz"), func() error {
		_, err := svc.questions.Delete(ctx, qn.ID)
		return err
	}); err != nil {
		svc.log.Error("question creation rolled back", "quizId", q.ID, "questionId", qn.ID, "error", err)
		return question.Question{}, err
	}
	return qn, nil
}

// GetQuestion returns the creator view of one question of the quiz.
func (svc *Service) GetQuestion(ctx context.Context, questionID, quizID, courseID, creatorID string) (question.Question, error) {
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return question.Question{}, err
	}
	return svc.questionInQuiz(ctx, questionID, q)
}

func (svc *Service) UpdateQuestion(ctx context.Context, questionID, quizID, courseID, creatorID string, uq question.UpdateQuestion) (question.Question, error) {
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return question.Question{}, err
	}
	orig, err := svc.questionInQuiz(ctx, questionID, q)
	if err != nil {
		return question.Question{}, err
	}
	uq.ID = orig.ID
	return svc.questions.Update(ctx, orig, uq)
}

// DeleteQuestion removes the question then its reference from the quiz; the first step is not rolled back.
func (svc *Service) DeleteQuestion(ctx context.Context, questionID, quizID, courseID, creatorID string) (question.Question, error) {
	q, err := svc.ownedQuiz(ctx, quizID, courseID, creatorID)
	if err != nil {
		return question.Question{}, err
	}
	qn, err := svc.questionInQuiz(ctx, questionID, q)
	if err != nil {
		return question.Question{}, err
	}
	if _, err := svc.questions.Delete(ctx, qn.ID); err != nil {
		return question.Question{}, errors.Wrap(err, "deleting question")
	}
	if err := svc.repo.RemoveQuestionRef(ctx, q.ID, qn.ID); err != nil {
		svc.log.Error("question deletion stopped midway", "quizId", q.ID, "questionId", qn.ID, "error", err)
		return question.Question{}, core.NewPartialFailure("quiz.DeleteQuestion", "unlinking question from quiz", err)
	}
	return qn, nil
}
