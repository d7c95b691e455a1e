package course

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
)

// Category is the closed set of course categories.
type Category string

const (
	CategoryTechnology Category = "TECHNOLOGY"
	CategoryBusiness   Category = "BUSINESS"
	CategoryFinance    Category = "FINANCE"
	CategoryArts       Category = "ARTS"
	CategoryHealth     Category = "HEALTH"
	CategoryOther      Category = "OTHER"
)

var (
	Categories = []Category{
		CategoryTechnology, CategoryBusiness, CategoryFinance, CategoryArts, CategoryHealth, CategoryOther,
	}

	categoryTag  = "category"
	categoryText = "invalid category, must be one of TECHNOLOGY, BUSINESS, FINANCE, ARTS, HEALTH, OTHER"

	errInvalidCategory = errors.New(categoryText)
)

func init() {
	_ = core.Validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, categoryTag, categoryText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	return Category(strings.ToUpper(fl.Field().String())).IsValid()
}

func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// ParseCategory upper-cases s and checks it against the known categories.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(core.CleanString(s)))
	if !c.IsValid() {
		return "", core.NewValidationError(errInvalidCategory, core.FieldError{Field: "category", Error: categoryText})
	}
	return c, nil
}

// ContentKind tells chapter references from quiz references.
type ContentKind string

const (
	ContentChapter ContentKind = "chapter"
	ContentQuiz    ContentKind = "quiz"
)

type Course struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Creator      string          `json:"creator"`
	Tags         []string        `json:"tags"`
	ChapterIDs   []string        `json:"chapterIds"`
	QuizIDs      []string        `json:"quizIds"`
	ContentOrder []string        `json:"contentOrder"`
	IsPublished  bool            `json:"isPublished"`
	Category     Category        `json:"category"`
	Price        decimal.Decimal `json:"price"`
	IsFree       bool            `json:"isFree"`
	Version      int             `json:"-"`
	CreatedAt    time.Time       `json:"createdAt"` // UTC
	UpdatedAt    time.Time       `json:"updatedAt"` // UTC
}

func (c Course) IsCreator(userID string) bool {
	return userID != "" && c.Creator == userID
}

func (c Course) HasQuiz(quizID string) bool {
	return core.ContainsString(c.QuizIDs, quizID)
}

func (c Course) HasChapter(chapterID string) bool {
	return core.ContainsString(c.ChapterIDs, chapterID)
}

// ValidateContentOrder checks that order is exactly a permutation of chapterIDs ∪ quizIDs.
func ValidateContentOrder(order, chapterIDs, quizIDs []string) error {
	want := make(map[string]struct{}, len(chapterIDs)+len(quizIDs))
	for _, id := range chapterIDs {
		want[id] = struct{}{}
	}
	for _, id := range quizIDs {
		want[id] = struct{}{}
	}
	if len(order) != len(want) {
		return contentOrderErr("contentOrder must list every chapter and quiz of the course exactly once")
	}
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, ok := want[id]; !ok {
			return contentOrderErr("contentOrder contains " + id + " which is neither a chapter nor a quiz of the course")
		}
		if _, dup := seen[id]; dup {
			return contentOrderErr("contentOrder contains " + id + " more than once")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func contentOrderErr(msg string) error {
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "contentOrder", Error: msg})
}

// syncContentOrder keeps a non-empty order consistent with the current references:
// dropped references are removed, new ones appended.
func syncContentOrder(order, chapterIDs, quizIDs []string) []string {
	if len(order) == 0 {
		return order
	}
	current := make(map[string]struct{}, len(chapterIDs)+len(quizIDs))
	for _, id := range chapterIDs {
		current[id] = struct{}{}
	}
	for _, id := range quizIDs {
		current[id] = struct{}{}
	}
	out := make([]string, 0, len(current))
	seen := make(map[string]struct{}, len(current))
	for _, id := range order {
		if _, ok := current[id]; ok {
			out = append(out, id)
			seen[id] = struct{}{}
		}
	}
	for _, ids := range [][]string{chapterIDs, quizIDs} {
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				out = append(out, id)
				seen[id] = struct{}{}
			}
		}
	}
	return out
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Creator     string          `json:"creator" validate:"required"`
	Tags        []string        `json:"tags"`
	Category    string          `json:"category" validate:"required,category"`
	Price       decimal.Decimal `json:"price"`
	IsFree      bool            `json:"isFree"`
	IsPublished bool            `json:"isPublished"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Creator = core.CleanString(nc.Creator)
	nc.Category = strings.ToUpper(core.CleanString(nc.Category))
	nc.Tags = core.UniqueStrings(nc.Tags)

	if err := core.ValidateStruct(nc); err != nil {
		return err
	}
	if nc.Price.IsNegative() {
		return core.NewValidationError(nil, core.FieldError{Field: "price", Error: "price cannot be negative"})
	}
	return nil
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// ContentOrder: nil leaves the order as is (kept in sync with references), an empty list clears it.
type UpdateCourse struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Category       *string          `json:"category" validate:"omitempty,category"`
	Price          *decimal.Decimal `json:"price"`
	IsFree         *bool            `json:"isFree"`
	IsPublished    *bool            `json:"isPublished"`
	AddTags        []string         `json:"addTags"`
	RemoveTags     []string         `json:"removeTags"`
	AddChapters    []string         `json:"addChapters" validate:"omitempty,objectid"`
	RemoveChapters []string         `json:"removeChapters" validate:"omitempty,objectid"`
	ContentOrder   []string         `json:"contentOrder" validate:"omitempty,objectid"`
}

// Apply merges uc into c: removals are applied before additions, then the content order is checked.
func (uc UpdateCourse) Apply(c Course) (Course, error) {
	if err := core.ValidateStruct(uc); err != nil {
		return Course{}, err
	}

	if uc.Title != nil {
		if c.Title = core.CleanString(*uc.Title); c.Title == "" {
			return Course{}, core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
		}
	}
	if uc.Description != nil {
		if c.Description = core.CleanString(*uc.Description); c.Description == "" {
			return Course{}, core.NewValidationError(nil, core.FieldError{Field: "description", Error: "this field cannot be blank"})
		}
	}
	if uc.Category != nil {
		cat, err := ParseCategory(*uc.Category)
		if err != nil {
			return Course{}, err
		}
		c.Category = cat
	}
	if uc.Price != nil {
		if uc.Price.IsNegative() {
			return Course{}, core.NewValidationError(nil, core.FieldError{Field: "price", Error: "price cannot be negative"})
		}
		c.Price = *uc.Price
	}
	if uc.IsFree != nil {
		c.IsFree = *uc.IsFree
	}
	if uc.IsPublished != nil {
		c.IsPublished = *uc.IsPublished
	}

	tags := core.RemoveStrings(c.Tags, core.UniqueStrings(uc.RemoveTags)...)
	c.Tags = core.UniqueStrings(append(tags, uc.AddTags...))

	chapterIDs := core.RemoveStrings(c.ChapterIDs, uc.RemoveChapters...)
	for _, id := range uc.AddChapters {
		if !core.ContainsString(chapterIDs, id) {
			chapterIDs = append(chapterIDs, id)
		}
	}
	c.ChapterIDs = chapterIDs

	switch {
	case uc.ContentOrder == nil:
		c.ContentOrder = syncContentOrder(c.ContentOrder, c.ChapterIDs, c.QuizIDs)
	case len(uc.ContentOrder) == 0:
		c.ContentOrder = []string{}
	default:
		if err := ValidateContentOrder(uc.ContentOrder, c.ChapterIDs, c.QuizIDs); err != nil {
			return Course{}, err
		}
		c.ContentOrder = append([]string(nil), uc.ContentOrder...)
	}
	return c, nil
}

// SearchFilter selects published courses.
// Keyword is a case-insensitive substring match over title, description and tags;
// Tags matches courses having any of them; Category is an exact match.
type SearchFilter struct {
	Keyword  string            `query:"keyword"`
	Tags     []string          `query:"tags"`
	Category string            `query:"category" validate:"omitempty,category"`
	Page     int               `query:"page" validate:"gte=0"`
	Limit    int               `query:"limit" validate:"gte=0"`
	Ordering []core.DBOrdering `query:"-"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Clean normalizes the filter and applies the pagination defaults (page 1, limit 10, capped at maxLimit).
func (sf *SearchFilter) Clean(maxLimit int) error {
	sf.Keyword = core.CleanString(sf.Keyword)
	tags := make([]string, 0, len(sf.Tags))
	for _, t := range sf.Tags {
		tags = append(tags, strings.Split(t, ",")...)
	}
	sf.Tags = core.UniqueStrings(tags)
	sf.Category = strings.ToUpper(core.CleanString(sf.Category))
	if err := core.ValidateStruct(sf); err != nil {
		return err
	}
	if sf.Page < 1 {
		sf.Page = DefaultPage
	}
	if sf.Limit < 1 {
		sf.Limit = DefaultLimit
	}
	if maxLimit > 0 && sf.Limit > maxLimit {
		sf.Limit = maxLimit
	}
	return nil
}

func (sf SearchFilter) Skip() int {
	return (sf.Page - 1) * sf.Limit
}

type SearchResult struct {
	Courses     []Course `json:"courses"`
	TotalCount  int      `json:"totalCount"`
	TotalPages  int      `json:"totalPages"`
	CurrentPage int      `json:"currentPage"`
	AllTags     []string `json:"allTags"`
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	IDs     []string
	Creator string
}
