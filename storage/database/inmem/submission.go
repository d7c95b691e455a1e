package inmemdb

import (
	"context"

	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
)

type submissionRepository struct {
	db *submissionTable
}

var _ quiz.SubmissionRepository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission}
}

func cloneSubmission(s quiz.Submission) quiz.Submission {
	s.Results = append([]question.Result(nil), s.Results...)
	return s
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s quiz.Submission) (quiz.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.rows = append(repo.db.rows, cloneSubmission(s))
	return s, nil
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter quiz.SubmissionFilter) ([]quiz.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]quiz.Submission, 0)
	for _, s := range repo.db.rows {
		if filter.QuizID != "" && s.QuizID != filter.QuizID {
			continue
		}
		if filter.CourseID != "" && s.CourseID != filter.CourseID {
			continue
		}
		if filter.LearnerID != "" && s.LearnerID != filter.LearnerID {
			continue
		}
		subs = append(subs, cloneSubmission(s))
	}
	return subs, nil
}
