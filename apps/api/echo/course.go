package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

type courseApi struct {
	svc *course.Service
}

func registerCourseAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	cg := g.Group("/courses")

	// un-authed endpoints
	cg.GET("/search", api.search)
	cg.GET("/:courseId", api.retrieve)

	// authed endpoints
	ag := cg.Group("", auth)
	ag.POST("", api.create, rolesMiddleware(core.RoleCreator, core.RoleAdmin))
	ag.PUT("/:courseId", api.update, rolesMiddleware(core.RoleCreator, core.RoleAdmin))
	ag.DELETE("/:courseId", api.destroy, rolesMiddleware(core.RoleCreator, core.RoleAdmin))
	ag.GET("/:courseId/learners", api.learners, rolesMiddleware(core.RoleCreator, core.RoleAdmin))

	eg := g.Group("/enrollments", auth)
	eg.GET("", api.enrolledCourses)
	eg.PUT("/:courseId", api.enroll)
	eg.DELETE("/:courseId", api.unenroll)
}

// Handlers

func (api *courseApi) search(ctx echo.Context) error {
	var filter course.SearchFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to SearchFilter")
	}
	var ord Ordering
	ord.Bind(ctx)
	filter.Ordering = ord.Orderings

	res, err := api.svc.Search(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching courses")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	c, err := api.svc.Get(ctx.Request().Context(), ids["courseId"])
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) create(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if data.Creator == "" {
		data.Creator = ident.ID
	}

	c, err := api.svc.Create(ctx.Request().Context(), ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}

	c, err := api.svc.Update(ctx.Request().Context(), ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}

	var res course.DeleteResult
	if ident.IsAdmin() {
		res, err = api.svc.DeleteAsAdmin(ctx.Request().Context(), ids["courseId"])
	} else {
		res, err = api.svc.Delete(ctx.Request().Context(), ids["courseId"], ident.ID)
	}
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) learners(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	learners, err := api.svc.Learners(ctx.Request().Context(), ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "listing learners")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"learners": learners})
}

func (api *courseApi) enrolledCourses(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	courses, err := api.svc.EnrolledCourses(ctx.Request().Context(), ident.ID)
	if err != nil {
		return errors.Wrap(err, "listing enrolled courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	enr, err := api.svc.Enroll(ctx.Request().Context(), ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	enr, err := api.svc.Unenroll(ctx.Request().Context(), ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.JSON(http.StatusOK, enr)
}
