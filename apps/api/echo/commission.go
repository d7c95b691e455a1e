package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type commissionApi struct {
	svc *course.Service
}

type CommissionRequest struct {
	CreatorShare decimal.Decimal `json:"creatorShare"`
}

func registerCommissionAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *course.Service) {
	api := commissionApi{svc: svc}

	cg := g.Group("/admin/commissions", auth, adminMiddleware())
	cg.GET("", api.query)
	cg.GET("/:courseId", api.retrieve)
	cg.PUT("/:courseId", api.set)
}

// Handlers

func (api *commissionApi) query(ctx echo.Context) error {
	creator := core.CleanString(ctx.QueryParam("creator"))
	comms, err := api.svc.CommissionsForCreator(ctx.Request().Context(), creator)
	if err != nil {
		return errors.Wrap(err, "querying commissions")
	}
	return ctx.JSON(http.StatusOK, comms)
}

func (api *commissionApi) retrieve(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	comm, err := api.svc.GetCommission(ctx.Request().Context(), ids["courseId"])
	if err != nil {
		return errors.Wrap(err, "getting commission")
	}
	return ctx.JSON(http.StatusOK, comm)
}

func (api *commissionApi) set(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	var data CommissionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CommissionRequest")
	}
	comm, err := api.svc.SetCommission(ctx.Request().Context(), ids["courseId"], data.CreatorShare)
	if err != nil {
		return errors.Wrap(err, "setting commission")
	}
	return ctx.JSON(http.StatusCreated, comm)
}
