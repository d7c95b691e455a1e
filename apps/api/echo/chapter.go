package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/chapter"
)

type chapterApi struct {
	svc *chapter.Service
}

func registerChapterAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *chapter.Service) {
	api := chapterApi{svc: svc}

	cg := g.Group("/courses/:courseId/chapters", auth)
	cg.GET("", api.list)
	cg.POST("", api.create, rolesMiddleware(core.RoleCreator))
	cg.GET("/:chapterId", api.retrieve)
	cg.PUT("/:chapterId", api.update, rolesMiddleware(core.RoleCreator))
	cg.DELETE("/:chapterId", api.destroy, rolesMiddleware(core.RoleCreator))
}

// Handlers

func (api *chapterApi) list(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	chs, err := api.svc.ListByCourse(ctx.Request().Context(), ids["courseId"])
	if err != nil {
		return errors.Wrap(err, "listing chapters")
	}
	return ctx.JSON(http.StatusOK, chs)
}

func (api *chapterApi) create(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	var data chapter.NewChapter
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChapter")
	}

	ch, err := api.svc.Create(ctx.Request().Context(), ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating chapter")
	}
	return ctx.JSON(http.StatusCreated, ch)
}

func (api *chapterApi) retrieve(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId", "chapterId")
	if err != nil {
		return err
	}
	ch, err := api.svc.Get(ctx.Request().Context(), ids["chapterId"], ids["courseId"])
	if err != nil {
		return errors.Wrap(err, "getting chapter")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *chapterApi) update(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "chapterId")
	if err != nil {
		return err
	}
	var data chapter.UpdateChapter
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChapter")
	}

	ch, err := api.svc.Update(ctx.Request().Context(), ids["chapterId"], ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating chapter")
	}
	return ctx.JSON(http.StatusOK, ch)
}

func (api *chapterApi) destroy(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "chapterId")
	if err != nil {
		return err
	}
	ch, err := api.svc.Delete(ctx.Request().Context(), ids["chapterId"], ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "deleting chapter")
	}
	return ctx.JSON(http.StatusOK, ch)
}
