package question

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
)

func TestDecodeSolution(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		raw     string
		want    Solution
		wantErr bool
	}{
		{name: "text", typ: TypeText, raw: `"42"`, want: TextSolution{Answer: "42"}},
		{name: "text in object", typ: TypeText, raw: `{"solution": "42"}`, want: TextSolution{Answer: "42"}},
		{name: "text number", typ: TypeText, raw: `42`, wantErr: true},
		{name: "missing", typ: TypeText, raw: ``, wantErr: true},
		{name: "null", typ: TypeSingleChoice, raw: `null`, wantErr: true},
		{
			name: "single choice", typ: TypeSingleChoice, raw: `{"solution": "b", "options": ["a", "b"]}`,
			want: SingleChoiceSolution{Options: []string{"a", "b"}, Answer: "b"},
		},
		{name: "single choice not an option", typ: TypeSingleChoice, raw: `{"solution": "c", "options": ["a", "b"]}`, wantErr: true},
		{name: "single choice no options", typ: TypeSingleChoice, raw: `{"solution": "a"}`, wantErr: true},
		{name: "single choice plain string", typ: TypeSingleChoice, raw: `"a"`, wantErr: true},
		{name: "single choice array solution", typ: TypeSingleChoice, raw: `{"solution": ["a"], "options": ["a"]}`, wantErr: true},
		{
			name: "multiple choice", typ: TypeMultipleChoice, raw: `{"solution": ["a", "c"], "options": ["a", "b", "c"]}`,
			want: MultipleChoiceSolution{Options: []string{"a", "b", "c"}, Answers: []string{"a", "c"}},
		},
		{
			name: "multiple choice empty solution", typ: TypeMultipleChoice, raw: `{"solution": [], "options": ["a"]}`,
			want: MultipleChoiceSolution{Options: []string{"a"}, Answers: []string{}},
		},
		{name: "multiple choice duplicates", typ: TypeMultipleChoice, raw: `{"solution": ["a", "a"], "options": ["a"]}`, wantErr: true},
		{name: "multiple choice unknown option", typ: TypeMultipleChoice, raw: `{"solution": ["z"], "options": ["a"]}`, wantErr: true},
		{name: "multiple choice string solution", typ: TypeMultipleChoice, raw: `{"solution": "a", "options": ["a"]}`, wantErr: true},
		{name: "unknown type", typ: "ESSAY", raw: `"x"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSolution(tt.typ, json.RawMessage(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsKind(err, core.KindValidation), "want a validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSolution_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		sol  Solution
		want string
	}{
		{name: "text", sol: TextSolution{Answer: "42"}, want: `"42"`},
		{name: "single choice", sol: SingleChoiceSolution{Options: []string{"a", "b"}, Answer: "a"}, want: `{"solution":"a","options":["a","b"]}`},
		{name: "multiple choice", sol: MultipleChoiceSolution{Answers: []string{"b"}}, want: `{"solution":["b"],"options":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.sol)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestQuestion_LearnerView(t *testing.T) {
	q := Question{
		ID:       "q1",
		QuizID:   "quiz",
		CourseID: "course",
		Content:  "Pick one",
		Type:     TypeSingleChoice,
		Solution: SingleChoiceSolution{Options: []string{"a", "b"}, Answer: "a"},
	}
	lq := q.LearnerView()
	assert.Equal(t, "q1", lq.QuestionID)
	assert.Equal(t, "Pick one", lq.Question)
	assert.Equal(t, []string{"a", "b"}, lq.Options)

	data, err := json.Marshal(lq)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "solution")

	text := Question{ID: "q2", Type: TypeText, Solution: TextSolution{Answer: "secret"}}
	data, err = json.Marshal(text.LearnerView())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "options")
}

func TestUpdateQuestion_Merge(t *testing.T) {
	orig := Question{
		ID:       core.NewID(),
		Content:  "Capital of France?",
		Type:     TypeText,
		Solution: TextSolution{Answer: "Paris"},
	}
	str := func(s string) *string { return &s }
	typ := func(t Type) *Type { return &t }

	tests := []struct {
		name      string
		upd       UpdateQuestion
		want      Question
		wantField string
	}{
		{name: "nothing", want: orig},
		{
			name: "content",
			upd:  UpdateQuestion{Content: str("  Capital of Italy?  ")},
			want: Question{ID: orig.ID, Content: "Capital of Italy?", Type: TypeText, Solution: orig.Solution},
		},
		{name: "blank content", upd: UpdateQuestion{Content: str(" ")}, wantField: "content"},
		{
			name: "solution of the same type",
			upd:  UpdateQuestion{Solution: json.RawMessage(`"Lutetia"`)},
			want: Question{ID: orig.ID, Content: orig.Content, Type: TypeText, Solution: TextSolution{Answer: "Lutetia"}},
		},
		{
			name: "type and solution together",
			upd: UpdateQuestion{
				Type:     typ("single_choice"),
				Solution: json.RawMessage(`{"solution": "Paris", "options": ["Paris", "Rome"]}`),
			},
			want: Question{
				ID: orig.ID, Content: orig.Content, Type: TypeSingleChoice,
				Solution: SingleChoiceSolution{Options: []string{"Paris", "Rome"}, Answer: "Paris"},
			},
		},
		{name: "type without solution", upd: UpdateQuestion{Type: typ(TypeMultipleChoice)}, wantField: "questionType"},
		{
			name:      "solution of another type",
			upd:       UpdateQuestion{Solution: json.RawMessage(`["a"]`)},
			wantField: "solution",
		},
		{name: "unknown type", upd: UpdateQuestion{Type: typ("ESSAY")}, wantField: "questionType"},
		{name: "malformed id", upd: UpdateQuestion{ID: "nope"}, wantField: "questionId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.upd.Merge(orig)
			if tt.wantField != "" {
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				require.NotEmpty(t, verr.Fields)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewQuestion_Validate(t *testing.T) {
	nq := NewQuestion{
		Content:  "  2 + 2 ?  ",
		Type:     "text",
		Solution: json.RawMessage(`"4"`),
	}
	sol, err := nq.Validate()
	require.NoError(t, err)
	assert.Equal(t, TextSolution{Answer: "4"}, sol)
	assert.Equal(t, "2 + 2 ?", nq.Content)
	assert.Equal(t, TypeText, nq.Type)

	bad := NewQuestion{Type: "essay"}
	_, err = bad.Validate()
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"content", "questionType", "solution"}, fields)
}
