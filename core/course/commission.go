package course

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
)

var (
	// errors
	ErrCommissionNotFound = core.NotFound("commission not found")
	ErrCommissionExists   = core.Conflict("a commission already exists for this course")

	maxShare = decimal.NewFromInt(100)
)

// Commission is the share (percent) of a course's revenue that goes to its creator.
type Commission struct {
	ID           string          `json:"id"`
	CourseID     string          `json:"courseId"`
	CreatorID    string          `json:"creatorId"`
	CreatorShare decimal.Decimal `json:"creatorShare"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type CommissionRepository interface {
	// CreateCommission fails with ErrCommissionExists if the course already has one.
	CreateCommission(ctx context.Context, c Commission) (Commission, error)
	GetCommission(ctx context.Context, courseID string) (Commission, error)
	QueryCommissions(ctx context.Context, creatorID string) ([]Commission, error)
}

// SetCommission records the creator share of a course; it can only be set once.
func (svc *Service) SetCommission(ctx context.Context, courseID string, share decimal.Decimal) (Commission, error) {
	if !share.IsPositive() || share.GreaterThan(maxShare) {
		msg := "creatorShare must be greater than 0 and at most 100"
		return Commission{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "creatorShare", Error: msg})
	}
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Commission{}, err
	}

	if _, err := svc.commissions.GetCommission(ctx, courseID); err == nil {
		return Commission{}, ErrCommissionExists
	} else if !errors.Is(err, ErrCommissionNotFound) {
		return Commission{}, errors.Wrap(err, "checking commission")
	}

	return svc.commissions.CreateCommission(ctx, Commission{
		ID:           core.NewID(),
		CourseID:     c.ID,
		CreatorID:    c.Creator,
		CreatorShare: share,
		CreatedAt:    core.NowFunc(),
	})
}

func (svc *Service) GetCommission(ctx context.Context, courseID string) (Commission, error) {
	return svc.commissions.GetCommission(ctx, courseID)
}

func (svc *Service) CommissionsForCreator(ctx context.Context, creatorID string) ([]Commission, error) {
	return svc.commissions.QueryCommissions(ctx, creatorID)
}
