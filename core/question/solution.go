package question

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	questionTypeTag  = "questiontype"
	questionTypeText = "invalid question type, must be one of TEXT, SINGLE_CHOICE, MULTIPLE_CHOICE"

	// errors
	errInvalidType             = errors.New(questionTypeText)
	errTypeAndSolutionTogether = errors.New("questionType and solution must be supplied together")
)

func init() {
	_ = core.Validate.RegisterValidation(questionTypeTag, questionTypeValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, questionTypeTag, questionTypeText)
}

func questionTypeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).IsValid()
}

// Solution is the correct-answer payload of a Question; its concrete type depends on the question Type.
type Solution interface {
	Type() Type
	validate() error
}

// TextSolution is the exact (case-sensitive) accepted answer.
type TextSolution struct {
	Answer string
}

// SingleChoiceSolution has exactly one correct option.
type SingleChoiceSolution struct {
	Options []string
	Answer  string
}

// MultipleChoiceSolution has a set of correct options.
type MultipleChoiceSolution struct {
	Options []string
	Answers []string
}

func (TextSolution) Type() Type           { return TypeText }
func (SingleChoiceSolution) Type() Type   { return TypeSingleChoice }
func (MultipleChoiceSolution) Type() Type { return TypeMultipleChoice }

func (s TextSolution) validate() error { return nil }

func (s SingleChoiceSolution) validate() error {
	if !core.ContainsString(s.Options, s.Answer) {
		return solutionErr(TypeSingleChoice, "solution must be one of the options")
	}
	return nil
}

func (s MultipleChoiceSolution) validate() error {
	seen := make(map[string]struct{}, len(s.Answers))
	for _, a := range s.Answers {
		if _, dup := seen[a]; dup {
			return solutionErr(TypeMultipleChoice, "solution must not contain duplicates")
		}
		seen[a] = struct{}{}
		if !core.ContainsString(s.Options, a) {
			return solutionErr(TypeMultipleChoice, "solution must be one of the options provided")
		}
	}
	return nil
}

type choicePayload struct {
	Solution json.RawMessage `json:"solution"`
	Options  []string        `json:"options"`
}

func (s TextSolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Answer)
}

func (s SingleChoiceSolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Solution string   `json:"solution"`
		Options  []string `json:"options"`
	}{s.Answer, nonNil(s.Options)})
}

func (s MultipleChoiceSolution) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Solution []string `json:"solution"`
		Options  []string `json:"options"`
	}{nonNil(s.Answers), nonNil(s.Options)})
}

// ValidateSolution checks that sol is the variant expected for t and that its content is consistent.
func ValidateSolution(t Type, sol Solution) error {
	if !t.IsValid() {
		return core.NewValidationError(errInvalidType, core.FieldError{Field: "questionType", Error: errInvalidType.Error()})
	}
	if sol == nil {
		return solutionErr(t, "solution is required")
	}
	if sol.Type() != t {
		return solutionErr(t, fmt.Sprintf("solution has the shape of a %s question", sol.Type()))
	}
	return sol.validate()
}

// DecodeSolution decodes a raw JSON solution payload into the variant for t, then validates it.
func DecodeSolution(t Type, raw json.RawMessage) (Solution, error) {
	if !t.IsValid() {
		return nil, core.NewValidationError(errInvalidType, core.FieldError{Field: "questionType", Error: errInvalidType.Error()})
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, solutionErr(t, "solution is required")
	}

	var sol Solution
	switch t {
	case TypeText:
		var answer string
		if err := json.Unmarshal(raw, &answer); err != nil {
			// also accept {"solution": "..."}
			var p choicePayload
			if json.Unmarshal(raw, &p) != nil || json.Unmarshal(p.Solution, &answer) != nil {
				return nil, solutionErr(t, "solution must be a string")
			}
		}
		sol = TextSolution{Answer: answer}
	case TypeSingleChoice:
		p, err := decodeChoicePayload(t, raw)
		if err != nil {
			return nil, err
		}
		var answer string
		if err := json.Unmarshal(p.Solution, &answer); err != nil {
			return nil, solutionErr(t, "solution must be a string")
		}
		sol = SingleChoiceSolution{Options: p.Options, Answer: answer}
	case TypeMultipleChoice:
		p, err := decodeChoicePayload(t, raw)
		if err != nil {
			return nil, err
		}
		var answers []string
		if err := json.Unmarshal(p.Solution, &answers); err != nil || answers == nil {
			return nil, solutionErr(t, "solution must be an array of strings")
		}
		sol = MultipleChoiceSolution{Options: p.Options, Answers: answers}
	}

	if err := sol.validate(); err != nil {
		return nil, err
	}
	return sol, nil
}

func decodeChoicePayload(t Type, raw json.RawMessage) (choicePayload, error) {
	if raw[0] != '{' {
		return choicePayload{}, solutionErr(t, "solution must be a solution object")
	}
	var p struct {
		Solution json.RawMessage `json:"solution"`
		Options  json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return choicePayload{}, solutionErr(t, "solution must be a solution object")
	}
	var opts []string
	if err := json.Unmarshal(p.Options, &opts); err != nil || opts == nil {
		return choicePayload{}, solutionErr(t, "options must be an array of strings")
	}
	return choicePayload{Solution: p.Solution, Options: opts}, nil
}

func solutionErr(t Type, msg string) error {
	msg = fmt.Sprintf("For %s type, %s.", t, msg)
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "solution", Error: msg})
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
