package chapter

import (
	"time"

	"github.com/trezcool/elimu/core"
)

type Chapter struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	CreatorID   string    `json:"creatorId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsFree      bool      `json:"isFree"`
	IsPublished bool      `json:"isPublished"`
	Number      int       `json:"chapterNumber"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// NewChapter contains information needed to create a new Chapter.
type NewChapter struct {
	Number      int    `json:"chapterNumber" validate:"required,gte=1"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	IsFree      bool   `json:"isFree"`
	IsPublished bool   `json:"isPublished"`
}

func (nc *NewChapter) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Content = core.CleanString(nc.Content)
	return core.ValidateStruct(nc)
}

// UpdateChapter defines what information may be provided to modify an existing Chapter.
// The chapter number is not editable.
type UpdateChapter struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	IsFree      *bool   `json:"isFree"`
	IsPublished *bool   `json:"isPublished"`
}

func (uc UpdateChapter) Apply(ch Chapter) (Chapter, error) {
	if uc.Title != nil {
		if ch.Title = core.CleanString(*uc.Title); ch.Title == "" {
			return Chapter{}, core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
		}
	}
	if uc.Content != nil {
		if ch.Content = core.CleanString(*uc.Content); ch.Content == "" {
			return Chapter{}, core.NewValidationError(nil, core.FieldError{Field: "content", Error: "this field cannot be blank"})
		}
	}
	if uc.IsFree != nil {
		ch.IsFree = *uc.IsFree
	}
	if uc.IsPublished != nil {
		ch.IsPublished = *uc.IsPublished
	}
	return ch, nil
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	IDs      []string
	CourseID string
}
