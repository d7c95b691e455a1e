package question

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

// Result is the verdict for one answered question.
type Result struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
	IsCorrect  bool            `json:"isCorrect"`
}

// Strategy grades an answer against one kind of Solution.
type Strategy interface {
	Grade(sol Solution, answer json.RawMessage) (bool, error)
}

// Grader routes by question type to the matching Strategy.
type Grader struct {
	strategies map[Type]Strategy
}

type graderConfig struct {
	strictMultipleChoice bool
}

type Option func(*graderConfig)

// WithStrictMultipleChoice requires MULTIPLE_CHOICE answers to be exactly the solution set.
// Without it any superset of the solution is graded correct.
func WithStrictMultipleChoice(strict bool) Option {
	return func(c *graderConfig) { c.strictMultipleChoice = strict }
}

// NewGrader installs the built-in strategies.
func NewGrader(opts ...Option) *Grader {
	cfg := new(graderConfig)
	for _, o := range opts {
		o(cfg)
	}
	return &Grader{
		strategies: map[Type]Strategy{
			TypeText:           textStrategy{},
			TypeSingleChoice:   singleChoiceStrategy{},
			TypeMultipleChoice: multipleChoiceStrategy{strict: cfg.strictMultipleChoice},
		},
	}
}

// Grade is a pure function of the stored question and the submitted answer.
func (g *Grader) Grade(q Question, answer json.RawMessage) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{}, core.NewValidationError(errInvalidType, core.FieldError{Field: "questionType", Error: errInvalidType.Error()})
	}
	if q.Solution == nil || q.Solution.Type() != q.Type {
		return Result{}, errors.Errorf("question %s has a solution inconsistent with its type %s", q.ID, q.Type)
	}
	ok, err := s.Grade(q.Solution, answer)
	if err != nil {
		return Result{}, err
	}
	return Result{QuestionID: q.ID, Answer: compact(answer), IsCorrect: ok}, nil
}

type textStrategy struct{}

func (textStrategy) Grade(sol Solution, answer json.RawMessage) (bool, error) {
	ans, err := decodeStringAnswer(TypeText, answer)
	if err != nil {
		return false, err
	}
	return ans == sol.(TextSolution).Answer, nil
}

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(sol Solution, answer json.RawMessage) (bool, error) {
	ans, err := decodeStringAnswer(TypeSingleChoice, answer)
	if err != nil {
		return false, err
	}
	sc := sol.(SingleChoiceSolution)
	if !core.ContainsString(sc.Options, ans) {
		return false, answerErr(TypeSingleChoice, "answer must be one of the options provided")
	}
	return ans == sc.Answer, nil
}

type multipleChoiceStrategy struct {
	strict bool
}

func (s multipleChoiceStrategy) Grade(sol Solution, answer json.RawMessage) (bool, error) {
	var ans []string
	if err := json.Unmarshal(answer, &ans); err != nil || ans == nil {
		return false, answerErr(TypeMultipleChoice, "answer must be an array of strings")
	}
	mc := sol.(MultipleChoiceSolution)

	// every expected option must have been picked; extra picks are tolerated unless strict
	for _, want := range mc.Answers {
		if !core.ContainsString(ans, want) {
			return false, nil
		}
	}
	if s.strict {
		for _, got := range ans {
			if !core.ContainsString(mc.Answers, got) {
				return false, nil
			}
		}
	}
	return true, nil
}

func decodeStringAnswer(t Type, answer json.RawMessage) (string, error) {
	var ans string
	trimmed := bytes.TrimSpace(answer)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", answerErr(t, "answer must be a string")
	}
	if err := json.Unmarshal(trimmed, &ans); err != nil {
		return "", answerErr(t, "answer must be a string")
	}
	return ans, nil
}

func answerErr(t Type, msg string) error {
	msg = fmt.Sprintf("For %s type, %s.", t, msg)
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "answer", Error: msg})
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
