package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/quiz"
)

type quizRepository struct {
	db *quizTable
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db.quiz}
}

func cloneQuiz(q quiz.Quiz) quiz.Quiz {
	q.QuestionIDs = cloneStrings(q.QuestionIDs)
	return q
}

func (repo *quizRepository) CreateQuiz(_ context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q = cloneQuiz(q)
	repo.db.table[q.ID] = &q
	return cloneQuiz(q), nil
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return cloneQuiz(*q), nil
	}
	return quiz.Quiz{}, quiz.ErrNotFound
}

func (repo *quizRepository) QueryQuizzes(_ context.Context, filter quiz.QueryFilter) ([]quiz.Quiz, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[string]struct{}
	if len(filter.IDs) > 0 {
		ids = idSet(filter.IDs)
	}
	quizzes := make([]quiz.Quiz, 0)
	for _, q := range repo.db.table {
		if ids != nil {
			if _, ok := ids[q.ID]; !ok {
				continue
			}
		}
		if filter.CourseID != "" && q.CourseID != filter.CourseID {
			continue
		}
		quizzes = append(quizzes, cloneQuiz(*q))
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (repo *quizRepository) UpdateQuiz(_ context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[q.ID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	orig.Title = q.Title
	orig.Description = q.Description
	orig.UpdatedAt = q.UpdatedAt
	return cloneQuiz(*orig), nil
}

func (repo *quizRepository) SetQuestionRefs(_ context.Context, quizID string, questionIDs []string) (quiz.Quiz, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q, ok := repo.db.table[quizID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	q.QuestionIDs = cloneStrings(questionIDs)
	q.UpdatedAt = core.NowFunc()
	return cloneQuiz(*q), nil
}

func (repo *quizRepository) AddQuestionRef(_ context.Context, quizID, questionID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	q, ok := repo.db.table[quizID]
	if !ok {
		return quiz.ErrNotFound
	}
	if !core.ContainsString(q.QuestionIDs, questionID) {
		q.QuestionIDs = append(q.QuestionIDs, questionID)
		q.UpdatedAt = core.NowFunc()
	}
	return nil
}

func (repo *quizRepository) RemoveQuestionRef(_ context.Context, quizID, questionID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	q, ok := repo.db.table[quizID]
	if !ok {
		return quiz.ErrNotFound
	}
	q.QuestionIDs = core.RemoveStrings(q.QuestionIDs, questionID)
	q.UpdatedAt = core.NowFunc()
	return nil
}

func (repo *quizRepository) DeleteQuiz(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return quiz.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *quizRepository) DeleteQuizzesByCourse(_ context.Context, courseID string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n := 0
	for id, q := range repo.db.table {
		if q.CourseID == courseID {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
