package question

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

// Type is the closed set of question types.
type Type string

const (
	TypeText           Type = "TEXT"
	TypeSingleChoice   Type = "SINGLE_CHOICE"
	TypeMultipleChoice Type = "MULTIPLE_CHOICE"
)

var Types = []Type{TypeText, TypeSingleChoice, TypeMultipleChoice}

func (t Type) IsValid() bool {
	for _, typ := range Types {
		if t == typ {
			return true
		}
	}
	return false
}

// ParseType upper-cases s and checks it against the known types.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(core.CleanString(s)))
	if !t.IsValid() {
		return "", errInvalidType
	}
	return t, nil
}

type Question struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	CourseID    string    `json:"courseId"`
	CreatorID   string    `json:"creatorId"`
	Content     string    `json:"content"`
	Explanation string    `json:"explanation,omitempty"`
	Type        Type      `json:"questionType"`
	Solution    Solution  `json:"solution"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	aux := struct {
		*alias
		Solution json.RawMessage `json:"solution"`
	}{alias: (*alias)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Solution) == 0 {
		return nil
	}
	sol, err := DecodeSolution(q.Type, aux.Solution)
	if err != nil {
		return err
	}
	q.Solution = sol
	return nil
}

// LearnerQuestion is the projection of a Question handed to learners: the correct answer is never included.
type LearnerQuestion struct {
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Type       Type      `json:"questionType"`
	Options    []string  `json:"options,omitempty"`
	CreatorID  string    `json:"creatorId"`
	CourseID   string    `json:"courseId"`
	QuizID     string    `json:"quizId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (q Question) LearnerView() LearnerQuestion {
	lq := LearnerQuestion{
		QuestionID: q.ID,
		Question:   q.Content,
		Type:       q.Type,
		CreatorID:  q.CreatorID,
		CourseID:   q.CourseID,
		QuizID:     q.QuizID,
		CreatedAt:  q.CreatedAt,
		UpdatedAt:  q.UpdatedAt,
	}
	switch sol := q.Solution.(type) {
	case SingleChoiceSolution:
		lq.Options = append([]string(nil), sol.Options...)
	case MultipleChoiceSolution:
		lq.Options = append([]string(nil), sol.Options...)
	}
	return lq
}

// NewQuestion contains information needed to create a new Question.
type NewQuestion struct {
	Content     string          `json:"content" validate:"required"`
	Explanation string          `json:"explanation"`
	Type        Type            `json:"questionType" validate:"required,questiontype"`
	Solution    json.RawMessage `json:"solution" validate:"required"`
}

// Validate cleans nq and decodes its solution against its type.
func (nq *NewQuestion) Validate() (Solution, error) {
	nq.Content = core.CleanString(nq.Content)
	nq.Explanation = core.CleanString(nq.Explanation)
	nq.Type = Type(strings.ToUpper(core.CleanString(string(nq.Type))))

	if err := core.ValidateStruct(nq); err != nil {
		return nil, err
	}
	return DecodeSolution(nq.Type, nq.Solution)
}

// UpdateQuestion defines what information may be provided to modify an existing Question.
// Fields left nil (or an empty Solution) are inherited from the stored Question.
type UpdateQuestion struct {
	ID          string          `json:"questionId" validate:"omitempty,objectid"`
	Content     *string         `json:"content"`
	Explanation *string         `json:"explanation"`
	Type        *Type           `json:"questionType"`
	Solution    json.RawMessage `json:"solution"`
}

func (uq UpdateQuestion) hasSolution() bool {
	s := strings.TrimSpace(string(uq.Solution))
	return s != "" && s != "null"
}

// Merge validates uq against the stored Question and returns the updated Question.
func (uq UpdateQuestion) Merge(orig Question) (Question, error) {
	if err := core.ValidateStruct(uq); err != nil {
		return Question{}, err
	}

	q := orig
	if uq.Content != nil {
		content := core.CleanString(*uq.Content)
		if content == "" {
			return Question{}, core.NewValidationError(nil, core.FieldError{Field: "content", Error: "this field cannot be blank"})
		}
		q.Content = content
	}
	if uq.Explanation != nil {
		q.Explanation = core.CleanString(*uq.Explanation)
	}

	typeChanged := false
	if uq.Type != nil {
		t, err := ParseType(string(*uq.Type))
		if err != nil {
			return Question{}, core.NewValidationError(err, core.FieldError{Field: "questionType", Error: err.Error()})
		}
		typeChanged = t != orig.Type
		q.Type = t
	}

	switch {
	case uq.hasSolution():
		sol, err := DecodeSolution(q.Type, uq.Solution)
		if err != nil {
			if uq.Type == nil {
				return Question{}, core.NewValidationError(
					errors.Wrap(errTypeAndSolutionTogether, err.Error()),
					core.FieldError{Field: "solution", Error: errTypeAndSolutionTogether.Error()},
				)
			}
			return Question{}, err
		}
		q.Solution = sol
	case typeChanged:
		if err := ValidateSolution(q.Type, orig.Solution); err != nil {
			return Question{}, core.NewValidationError(
				errTypeAndSolutionTogether,
				core.FieldError{Field: "questionType", Error: errTypeAndSolutionTogether.Error()},
			)
		}
	}
	return q, nil
}
