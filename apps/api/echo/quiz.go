package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/question"
	"github.com/trezcool/elimu/core/quiz"
)

type quizApi struct {
	svc *quiz.Service
}

// SubmitRequest carries one answer per quiz question, in quiz order.
type SubmitRequest struct {
	Answers []json.RawMessage `json:"answers"`
}

type QuestionsRequest struct {
	Questions []question.NewQuestion `json:"questions"`
}

func registerQuizAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *quiz.Service) {
	api := quizApi{svc: svc}
	creator := rolesMiddleware(core.RoleCreator)

	qg := g.Group("/courses/:courseId/quizzes", auth)
	qg.GET("", api.list)
	qg.POST("", api.create, creator)

	dg := qg.Group("/:quizId")
	dg.GET("", api.retrieve, creator)
	dg.PUT("", api.update, creator)
	dg.DELETE("", api.destroy, creator)
	dg.PUT("/questions", api.overwriteQuestions, creator)
	dg.GET("/learn", api.learnerView)
	dg.POST("/submissions", api.submit)
	dg.GET("/submissions", api.submissions)

	// single questions
	dg.POST("/questions", api.addQuestion, creator)
	dg.GET("/questions/:questionId", api.retrieveQuestion, creator)
	dg.PUT("/questions/:questionId", api.updateQuestion, creator)
	dg.DELETE("/questions/:questionId", api.destroyQuestion, creator)
}

// Handlers

func (api *quizApi) list(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	quizzes, err := api.svc.ListByCourse(ctx.Request().Context(), ids["courseId"])
	if err != nil {
		return errors.Wrap(err, "listing quizzes")
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) create(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId")
	if err != nil {
		return err
	}
	var data quiz.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	view, err := api.svc.Create(ctx.Request().Context(), ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, view)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	view, err := api.svc.Get(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *quizApi) update(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	var data quiz.UpdateQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}

	view, err := api.svc.Update(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *quizApi) overwriteQuestions(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	var data QuestionsRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuestionsRequest")
	}

	view, err := api.svc.OverwriteQuestions(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID, data.Questions)
	if err != nil {
		return errors.Wrap(err, "overwriting questions")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	q, err := api.svc.Delete(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) learnerView(ctx echo.Context) error {
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	questions, err := api.svc.GetForLearner(ctx.Request().Context(), ids["quizId"], ids["courseId"])
	if err != nil {
		return errors.Wrap(err, "getting quiz for learner")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) submit(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	var data SubmitRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID, data.Answers)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *quizApi) submissions(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId")
	if err != nil {
		return err
	}
	var data question.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), ids["quizId"], ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *quizApi) retrieveQuestion(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId", "questionId")
	if err != nil {
		return err
	}
	q, err := api.svc.GetQuestion(ctx.Request().Context(), ids["questionId"], ids["quizId"], ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "getting question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId", "questionId")
	if err != nil {
		return err
	}
	var data question.UpdateQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}

	q, err := api.svc.UpdateQuestion(ctx.Request().Context(), ids["questionId"], ids["quizId"], ids["courseId"], ident.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}
	ids, err := idParams(ctx, "courseId", "quizId", "questionId")
	if err != nil {
		return err
	}
	q, err := api.svc.DeleteQuestion(ctx.Request().Context(), ids["questionId"], ids["quizId"], ids["courseId"], ident.ID)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.JSON(http.StatusOK, q)
}
