package quiz

import (
	"time"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
)

type Quiz struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	CreatorID   string    `json:"creatorId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	QuestionIDs []string  `json:"questionIds"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// View is the creator-facing quiz: questions come with their solutions, in quiz order.
type View struct {
	Quiz
	Questions []question.Question `json:"questions"`
}

// NewQuiz contains information needed to create a new Quiz.
type NewQuiz struct {
	Title       string                 `json:"title" validate:"required"`
	Description string                 `json:"description"`
	Questions   []question.NewQuestion `json:"questions"`
}

func (nq *NewQuiz) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	return core.ValidateStruct(nq)
}

// UpdateQuiz defines what information may be provided to modify an existing Quiz.
// Every question update must name a question of the quiz.
type UpdateQuiz struct {
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Questions   []question.UpdateQuestion `json:"questions"`
}

func (uq UpdateQuiz) apply(q Quiz) (Quiz, error) {
	if uq.Title != nil {
		if q.Title = core.CleanString(*uq.Title); q.Title == "" {
			return Quiz{}, core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
		}
	}
	if uq.Description != nil {
		q.Description = core.CleanString(*uq.Description)
	}
	return q, nil
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	IDs      []string
	CourseID string
}
