package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
)

type questionRepository struct {
	db *questionTable
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *DB) *questionRepository {
	return &questionRepository{db: db.question}
}

func (repo *questionRepository) CreateQuestions(_ context.Context, questions []question.Question, _ ...core.DBExecutor) ([]question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range questions {
		q := questions[i]
		repo.db.table[q.ID] = &q
	}
	out := make([]question.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string, _ ...core.DBExecutor) (question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return *q, nil
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) QueryQuestions(_ context.Context, filter question.QueryFilter, _ ...core.DBExecutor) ([]question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ids map[string]struct{}
	if len(filter.IDs) > 0 {
		ids = idSet(filter.IDs)
	}
	qs := make([]question.Question, 0)
	for _, q := range repo.db.table {
		if ids != nil {
			if _, ok := ids[q.ID]; !ok {
				continue
			}
		}
		if filter.QuizID != "" && q.QuizID != filter.QuizID {
			continue
		}
		if filter.CourseID != "" && q.CourseID != filter.CourseID {
			continue
		}
		qs = append(qs, *q)
	}
	sort.Slice(qs, func(i, j int) bool {
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.Before(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
	return qs, nil
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q question.Question, _ ...core.DBExecutor) (question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[q.ID]
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	q.QuizID = orig.QuizID
	q.CourseID = orig.CourseID
	q.CreatorID = orig.CreatorID
	q.CreatedAt = orig.CreatedAt
	repo.db.table[q.ID] = &q
	return q, nil
}

func (repo *questionRepository) DeleteQuestionsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n := 0
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

func (repo *questionRepository) DeleteQuestionsByCourse(_ context.Context, courseID string, _ ...core.DBExecutor) (int, error) {
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
